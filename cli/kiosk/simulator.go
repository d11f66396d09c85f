package kiosk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	pb "github.com/ponyo877/roomwatch/grpc"
)

const DefaultInterval = 2 * time.Second

// Simulator plays a kiosk: it reports its state on every beat, asks for
// help on demand and follows the notifications the operator sends.
type Simulator struct {
	client pb.KioskServiceClient
	name   string

	mu       sync.Mutex
	hints    int
	started  time.Time
	roomID   int
	assigned bool
	received []*pb.Notification
	now      func() time.Time
}

func NewSimulator(client pb.KioskServiceClient, name string) *Simulator {
	return &Simulator{
		client:  client,
		name:    name,
		started: time.Now(),
		now:     time.Now,
	}
}

func (s *Simulator) Name() string { return s.name }

// Beat sends one heartbeat and adopts the room the server reports.
func (s *Simulator) Beat(ctx context.Context) error {
	s.mu.Lock()
	req := &pb.HeartbeatRequest{
		ComputerName: s.name,
		TotalHints:   int32(s.hints),
		RoomTime:     int32(s.now().Sub(s.started) / time.Second),
	}
	s.mu.Unlock()

	res, err := s.client.Heartbeat(ctx, req)
	if err != nil {
		return fmt.Errorf("heartbeat failed: %w", err)
	}
	s.mu.Lock()
	s.roomID, s.assigned = int(res.RoomID), res.Assigned
	s.mu.Unlock()
	return nil
}

// RequestHelp counts a hint request and raises the help flag.
func (s *Simulator) RequestHelp(ctx context.Context) error {
	if _, err := s.client.RequestHelp(ctx, &pb.HelpRequest{ComputerName: s.name}); err != nil {
		return fmt.Errorf("help request failed: %w", err)
	}
	s.mu.Lock()
	s.hints++
	s.mu.Unlock()
	return nil
}

// Reset starts a new game: room time and hint count go back to zero.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints = 0
	s.started = s.now()
}

// Run beats every interval until ctx is done. Failed beats are logged and
// retried on the next tick.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.Beat(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Kiosk %s: %v", s.name, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Listen follows the notification stream, calling onNote for each one,
// until the stream ends or ctx is done.
func (s *Simulator) Listen(ctx context.Context, onNote func(*pb.Notification)) error {
	stream, err := s.client.Subscribe(ctx, &pb.SubscribeRequest{ComputerName: s.name})
	if err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	for {
		n, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("notification stream ended: %w", err)
		}
		s.mu.Lock()
		if n.Kind == pb.NotificationAssignment {
			s.roomID, s.assigned = int(n.RoomID), true
		}
		s.received = append(s.received, n)
		s.mu.Unlock()
		if onNote != nil {
			onNote(n)
		}
	}
}

type Status struct {
	Name     string
	RoomID   int
	Assigned bool
	Hints    int
	RoomTime time.Duration
	Received int
}

func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Name:     s.name,
		RoomID:   s.roomID,
		Assigned: s.assigned,
		Hints:    s.hints,
		RoomTime: s.now().Sub(s.started).Truncate(time.Second),
		Received: len(s.received),
	}
}

func (st Status) String() string {
	room := "unassigned"
	if st.Assigned {
		room = fmt.Sprintf("room %d", st.RoomID)
	}
	return fmt.Sprintf("%s: %s, %d hints, %s in room, %d notifications", st.Name, room, st.Hints, st.RoomTime, st.Received)
}

// FormatNotification renders a notification for the kiosk screen.
func FormatNotification(n *pb.Notification) string {
	at := ""
	if n.SentAt != nil {
		at = n.SentAt.AsTime().Local().Format("15:04:05") + " "
	}
	switch n.Kind {
	case pb.NotificationAssignment:
		return fmt.Sprintf("%sassigned to room %d", at, n.RoomID)
	case pb.NotificationHint:
		return fmt.Sprintf("%shint: %s", at, n.Text)
	default:
		return fmt.Sprintf("%s%s", at, n.Kind)
	}
}
