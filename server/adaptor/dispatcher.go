package adaptor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	pb "github.com/ponyo877/roomwatch/grpc"
)

const notificationBuffer = 16

var errQueueFull = errors.New("notification queue full")

// RoomMembers resolves which kiosks are currently in a room.
type RoomMembers interface {
	KiosksInRoom(roomID int) []string
}

type subscription struct {
	id uint64
	ch chan *pb.Notification
}

// Dispatcher is the Notifier that delivers over KioskService Subscribe
// streams. Each kiosk has at most one live subscription; sends never block.
type Dispatcher struct {
	members RoomMembers

	mu   sync.Mutex
	subs map[string]subscription
	next uint64
}

func NewDispatcher(members RoomMembers) *Dispatcher {
	return &Dispatcher{
		members: members,
		subs:    make(map[string]subscription),
	}
}

// Subscribe returns the notification channel for kiosk and a cancel func.
// An earlier subscription for the same kiosk is closed.
func (d *Dispatcher) Subscribe(kiosk string) (<-chan *pb.Notification, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.subs[kiosk]; ok {
		close(old.ch)
	}
	d.next++
	sub := subscription{id: d.next, ch: make(chan *pb.Notification, notificationBuffer)}
	d.subs[kiosk] = sub

	return sub.ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if cur, ok := d.subs[kiosk]; ok && cur.id == sub.id {
			close(cur.ch)
			delete(d.subs, kiosk)
		}
	}
}

func (d *Dispatcher) Subscribed(kiosk string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.subs[kiosk]
	return ok
}

// deliver queues n for kiosk. A kiosk without a subscription is skipped:
// it may be listening on another transport.
func (d *Dispatcher) deliver(kiosk string, n *pb.Notification) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub, ok := d.subs[kiosk]
	if !ok {
		log.Printf("No subscription for %s, %s notification not streamed", kiosk, n.Kind)
		return false, nil
	}
	select {
	case sub.ch <- n:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s", errQueueFull, kiosk)
	}
}

func (d *Dispatcher) SendRoomAssignment(ctx context.Context, kiosk string, roomID int) error {
	_, err := d.deliver(kiosk, pb.NewAssignmentNotification(roomID))
	return err
}

// SendHint queues text for every subscribed kiosk assigned to roomID. It
// fails only when some kiosk's queue was full and none took the hint.
func (d *Dispatcher) SendHint(ctx context.Context, roomID int, text string) error {
	kiosks := d.members.KiosksInRoom(roomID)
	if len(kiosks) == 0 {
		return fmt.Errorf("no kiosk in room %d", roomID)
	}
	var errs []error
	delivered := 0
	for _, kiosk := range kiosks {
		ok, err := d.deliver(kiosk, pb.NewHintNotification(roomID, text))
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			delivered++
		}
	}
	if delivered == 0 {
		return errors.Join(errs...)
	}
	return nil
}
