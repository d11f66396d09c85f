package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultPort           = 8089
	DefaultConnectTimeout = 3 * time.Second
	DefaultFrameWait      = time.Second
)

// DialFunc opens the transport to a camera server.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type Config struct {
	ConnectTimeout time.Duration
	MaxPayload     uint64
	Decoder        Decoder
	Dial           DialFunc
}

// Stats is a snapshot of the client's lifetime counters.
type Stats struct {
	Frames         uint64
	DecodeFailures uint64
	Dropped        uint64
	Bytes          uint64
	Sessions       uint64
}

// Client streams frames from one camera server at a time. Connect starts an
// ingestion goroutine; GetFrame hands the freshest decoded frame to the
// caller; Disconnect stops the session and waits for the goroutine.
type Client struct {
	cfg     Config
	mailbox *Mailbox

	mu         sync.Mutex
	session    *session
	gen        uint64
	cancelDial context.CancelFunc

	frames         atomic.Uint64
	decodeFailures atomic.Uint64
	bytes          atomic.Uint64
	sessions       atomic.Uint64
}

// session is one connection generation.
type session struct {
	addr    string
	conn    net.Conn
	running atomic.Bool
	once    sync.Once
	done    chan struct{}
}

func (s *session) close() {
	s.once.Do(func() {
		s.running.Store(false)
		_ = s.conn.Close()
	})
}

func NewClient(cfg Config) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Decoder == nil {
		cfg.Decoder = ImageDecoder{}
	}
	if cfg.Dial == nil {
		cfg.Dial = (&net.Dialer{}).DialContext
	}
	return &Client{
		cfg:     cfg,
		mailbox: NewMailbox(),
	}
}

// Connect tears down any current session, aborts a dial still in flight and
// dials host:port. A dial that does not complete within the connect timeout
// fails with ErrConnectTimeout; any other dial error with ErrConnectFailure.
// When a later Connect, ConnectAsync or Disconnect starts before this dial
// completes, the connection is discarded and ErrSuperseded is returned.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	return c.connect(ctx, host, port)()
}

// ConnectAsync claims the client for host:port before returning and dials in
// the background. Requests take effect in call order, however their dials
// race. The channel receives Connect's result.
func (c *Client) ConnectAsync(ctx context.Context, host string, port int) <-chan error {
	dial := c.connect(ctx, host, port)
	errc := make(chan error, 1)
	go func() { errc <- dial() }()
	return errc
}

// connect starts a new generation now and returns the dial that completes it.
func (c *Client) connect(ctx context.Context, host string, port int) func() error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	gen, prev := c.begin(cancel)
	if prev != nil {
		prev.close()
	}

	return func() error {
		defer cancel()
		c.stop(prev)

		log.Printf("Connecting to camera on %s", addr)
		conn, err := c.cfg.Dial(dialCtx, "tcp", addr)

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			if conn != nil {
				_ = conn.Close()
			}
			log.Printf("Dropped connection to %s for a newer request", addr)
			return fmt.Errorf("%w: %s", ErrSuperseded, addr)
		}
		c.cancelDial = nil
		if err != nil {
			c.mu.Unlock()
			var netErr net.Error
			if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
				log.Printf("Connection to %s timed out", addr)
				return fmt.Errorf("%w: %s: %w", ErrConnectTimeout, addr, err)
			}
			log.Printf("Failed to connect to camera on %s: %v", addr, err)
			return fmt.Errorf("%w: %s: %w", ErrConnectFailure, addr, err)
		}
		// reads block for as long as the worker lives
		_ = conn.SetDeadline(time.Time{})

		s := &session{
			addr: addr,
			conn: conn,
			done: make(chan struct{}),
		}
		s.running.Store(true)
		c.session = s
		c.mailbox.Reset()
		c.sessions.Add(1)
		go c.receive(s)
		c.mu.Unlock()

		log.Printf("Connected to camera server %s", addr)
		return nil
	}
}

// begin starts a new generation: it aborts a pending dial, detaches the
// current session and records cancel as the pending dial's abort.
func (c *Client) begin(cancel context.CancelFunc) (uint64, *session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.cancelDial != nil {
		c.cancelDial()
	}
	c.cancelDial = cancel
	prev := c.session
	c.session = nil
	return c.gen, prev
}

// stop closes s and waits for its worker. Closing the socket unblocks a
// worker parked in a read.
func (c *Client) stop(s *session) {
	if s == nil {
		return
	}
	log.Printf("Disconnecting video client from %s", s.addr)
	s.close()
	<-s.done
}

// receive is the ingestion loop of one session.
func (c *Client) receive(s *session) {
	defer close(s.done)
	defer c.release(s)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Video worker for %s stopped: %v", s.addr, r)
		}
	}()

	deframer := NewDeframer(c.cfg.MaxPayload)
	var seq uint64
	for s.running.Load() {
		payload, err := deframer.NextPayload(s.conn)
		if err != nil {
			if s.running.Load() {
				log.Printf("Error receiving video from %s: %v", s.addr, err)
			}
			return
		}
		c.bytes.Add(uint64(PrefixSize + len(payload)))

		img, err := c.cfg.Decoder.Decode(payload)
		if err != nil {
			c.decodeFailures.Add(1)
			log.Printf("Failed to decode frame from %s: %v", s.addr, err)
			continue
		}
		seq++
		c.frames.Add(1)
		c.mailbox.Publish(&Frame{Image: img, Seq: seq, ReceivedAt: time.Now()})
	}
}

// release closes s and, if it is still the current session, forgets it.
func (c *Client) release(s *session) {
	s.close()
	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.mu.Unlock()
}

// GetFrame waits up to timeout for a frame that arrived since the previous
// call. It returns false when none did.
func (c *Client) GetFrame(timeout time.Duration) (image.Image, bool) {
	frame, ok := c.mailbox.Consume(timeout)
	if !ok || frame == nil || frame.Image == nil {
		return nil, false
	}
	return frame.Image, true
}

// Disconnect stops the current session, if any, aborts a dial in flight and
// waits for the session's worker to exit.
func (c *Client) Disconnect() {
	_, prev := c.begin(nil)
	c.stop(prev)
}

// Running reports whether a session is active.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.running.Load()
}

// Addr returns the address of the active session, or "".
func (c *Client) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.addr
}

func (c *Client) Stats() Stats {
	return Stats{
		Frames:         c.frames.Load(),
		DecodeFailures: c.decodeFailures.Load(),
		Dropped:        c.mailbox.Drops(),
		Bytes:          c.bytes.Load(),
		Sessions:       c.sessions.Load(),
	}
}
