package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

// startPeer runs serve for every connection accepted on a loopback listener.
func startPeer(t *testing.T, serve func(net.Conn)) (string, int) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { lis.Close() })
	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			go serve(conn)
		}
	}()
	host, portStr, _ := net.SplitHostPort(lis.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func jpegPayload(t *testing.T) []byte {
	t.Helper()
	payload, err := (&TestPattern{Width: 16, Height: 8}).Next()
	if err != nil {
		t.Fatalf("TestPattern.Next() failed: %v", err)
	}
	return payload
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientDecodeFailureDoesNotEndStream(t *testing.T) {
	valid := jpegPayload(t)
	host, port := startPeer(t, func(conn net.Conn) {
		defer conn.Close()
		WriteFrame(conn, []byte("definitely not a jpeg"))
		WriteFrame(conn, valid)
		time.Sleep(time.Second)
	})

	c := NewClient(Config{})
	if err := c.Connect(context.Background(), host, port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer c.Disconnect()

	img, ok := c.GetFrame(2 * time.Second)
	if !ok {
		t.Fatal("GetFrame() returned nothing after a valid payload")
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("frame bounds = %v, want 16x8", b)
	}
	stats := c.Stats()
	if stats.DecodeFailures != 1 {
		t.Errorf("DecodeFailures = %d, want 1", stats.DecodeFailures)
	}
	if stats.Frames != 1 {
		t.Errorf("Frames = %d, want 1", stats.Frames)
	}
	if !c.Running() {
		t.Error("client stopped after a decode failure")
	}
}

func TestClientGetFrameWithoutPublishWaitsForTimeout(t *testing.T) {
	host, port := startPeer(t, func(conn net.Conn) {
		defer conn.Close()
		time.Sleep(3 * time.Second)
	})

	c := NewClient(Config{})
	if err := c.Connect(context.Background(), host, port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer c.Disconnect()

	start := time.Now()
	if _, ok := c.GetFrame(DefaultFrameWait); ok {
		t.Fatal("GetFrame() returned a frame from a silent camera")
	}
	elapsed := time.Since(start)
	if elapsed < 900*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("GetFrame() returned after %v, want about 1s", elapsed)
	}
}

func TestClientGetFrameIsEdgeTriggered(t *testing.T) {
	valid := jpegPayload(t)
	host, port := startPeer(t, func(conn net.Conn) {
		defer conn.Close()
		WriteFrame(conn, valid)
		time.Sleep(2 * time.Second)
	})

	c := NewClient(Config{})
	if err := c.Connect(context.Background(), host, port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer c.Disconnect()

	if _, ok := c.GetFrame(2 * time.Second); !ok {
		t.Fatal("first GetFrame() returned nothing")
	}
	if _, ok := c.GetFrame(100 * time.Millisecond); ok {
		t.Error("second GetFrame() returned the already consumed frame")
	}
}

func TestClientPeerCloseEndsSession(t *testing.T) {
	host, port := startPeer(t, func(conn net.Conn) {
		conn.Write([]byte{1, 2, 3})
		conn.Close()
	})

	c := NewClient(Config{})
	if err := c.Connect(context.Background(), host, port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	waitFor(t, "session to end", func() bool { return !c.Running() })

	// cleanup already ran on the worker side; explicit disconnect is a no-op
	c.Disconnect()
	c.Disconnect()
	if c.Addr() != "" {
		t.Errorf("Addr() = %q after session ended", c.Addr())
	}
}

func TestClientConnectFailure(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().(*net.TCPAddr)
	lis.Close()

	c := NewClient(Config{ConnectTimeout: 500 * time.Millisecond})
	err = c.Connect(context.Background(), "127.0.0.1", addr.Port)
	if !errors.Is(err, ErrConnectFailure) && !errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("Connect() err = %v, want a connect error", err)
	}
	if c.Running() {
		t.Error("client running after failed connect")
	}
}

func TestClientDisconnectUnblocksWorker(t *testing.T) {
	host, port := startPeer(t, func(conn net.Conn) {
		defer conn.Close()
		time.Sleep(5 * time.Second)
	})

	c := NewClient(Config{})
	if err := c.Connect(context.Background(), host, port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	start := time.Now()
	c.Disconnect()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Disconnect() took %v with the worker parked in a read", elapsed)
	}
	if c.Running() {
		t.Error("client still running after Disconnect()")
	}
}

func TestClientReconnectReplacesSession(t *testing.T) {
	valid := jpegPayload(t)
	serve := func(conn net.Conn) {
		defer conn.Close()
		for range 20 {
			if err := WriteFrame(conn, valid); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}
	hostA, portA := startPeer(t, serve)
	hostB, portB := startPeer(t, serve)

	c := NewClient(Config{})
	defer c.Disconnect()
	if err := c.Connect(context.Background(), hostA, portA); err != nil {
		t.Fatalf("Connect(A) failed: %v", err)
	}
	if err := c.Connect(context.Background(), hostB, portB); err != nil {
		t.Fatalf("Connect(B) failed: %v", err)
	}
	if want := net.JoinHostPort(hostB, strconv.Itoa(portB)); c.Addr() != want {
		t.Errorf("Addr() = %q, want %q", c.Addr(), want)
	}
	if got := c.Stats().Sessions; got != 2 {
		t.Errorf("Sessions = %d, want 2", got)
	}
	if _, ok := c.GetFrame(2 * time.Second); !ok {
		t.Error("no frame from the second session")
	}
}

func TestCameraServerStreamsTestPattern(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := &CameraServer{Source: &TestPattern{Width: 32, Height: 24}, Interval: 10 * time.Millisecond}
	go srv.Serve(ctx, lis)

	addr := lis.Addr().(*net.TCPAddr)
	c := NewClient(Config{})
	defer c.Disconnect()
	if err := c.Connect(ctx, "127.0.0.1", addr.Port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	img, ok := c.GetFrame(2 * time.Second)
	if !ok {
		t.Fatal("no frame from camera server")
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("bounds = %v, want 32x24", b)
	}
}

func TestClientCustomDecoder(t *testing.T) {
	valid := jpegPayload(t)
	host, port := startPeer(t, func(conn net.Conn) {
		defer conn.Close()
		WriteFrame(conn, []byte("skip"))
		WriteFrame(conn, valid)
		time.Sleep(time.Second)
	})

	var seen int
	decoder := DecoderFunc(func(payload []byte) (image.Image, error) {
		seen++
		if bytes.Equal(payload, []byte("skip")) {
			return nil, ErrDecodeFailure
		}
		return ImageDecoder{}.Decode(payload)
	})
	c := NewClient(Config{Decoder: decoder})
	if err := c.Connect(context.Background(), host, port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer c.Disconnect()

	if _, ok := c.GetFrame(2 * time.Second); !ok {
		t.Fatal("GetFrame() returned nothing")
	}
	if got := c.Stats().DecodeFailures; got != 1 {
		t.Errorf("DecodeFailures = %d, want 1", got)
	}
	c.Disconnect()
	if seen != 2 {
		t.Errorf("decoder saw %d payloads, want 2", seen)
	}
}

// slowDialer completes dials to hosts named "slow" only once release is
// closed, whatever the context says.
type slowDialer struct {
	started chan struct{}
	release chan struct{}
	peer    chan net.Conn
}

func newSlowDialer() *slowDialer {
	return &slowDialer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		peer:    make(chan net.Conn, 1),
	}
}

func (d *slowDialer) Dial(ctx context.Context, network, addr string) (net.Conn, error) {
	if !strings.HasPrefix(addr, "slow") {
		var nd net.Dialer
		return nd.DialContext(ctx, network, addr)
	}
	d.started <- struct{}{}
	<-d.release
	local, remote := net.Pipe()
	d.peer <- remote
	return local, nil
}

func TestClientLaterConnectWinsOverSlowerDial(t *testing.T) {
	valid := jpegPayload(t)
	host, port := startPeer(t, func(conn net.Conn) {
		defer conn.Close()
		for range 50 {
			if err := WriteFrame(conn, valid); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	dialer := newSlowDialer()
	c := NewClient(Config{Dial: dialer.Dial})
	defer c.Disconnect()

	first := c.ConnectAsync(context.Background(), "slow", 1)
	<-dialer.started
	if err := c.Connect(context.Background(), host, port); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	close(dialer.release)

	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first Connect() err = %v, want ErrSuperseded", err)
	}
	if want := net.JoinHostPort(host, strconv.Itoa(port)); c.Addr() != want {
		t.Errorf("Addr() = %q, want %q", c.Addr(), want)
	}
	if !c.Running() {
		t.Error("later session not running")
	}
	if _, ok := c.GetFrame(2 * time.Second); !ok {
		t.Error("no frame from the later session")
	}

	remote := <-dialer.peer
	remote.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := remote.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("superseded connection read err = %v, want io.EOF", err)
	}
}

func TestClientDisconnectAbortsPendingDial(t *testing.T) {
	c := NewClient(Config{Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})

	pending := c.ConnectAsync(context.Background(), "10.0.0.9", 8089)
	c.Disconnect()

	select {
	case err := <-pending:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("err = %v, want ErrSuperseded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending dial was not aborted")
	}
	if c.Running() {
		t.Error("client running after Disconnect()")
	}
}
