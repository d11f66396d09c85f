package adaptor

import (
	"context"
	"errors"
	"testing"

	pb "github.com/ponyo877/roomwatch/grpc"
	"github.com/ponyo877/roomwatch/server/domain"
	"github.com/ponyo877/roomwatch/server/repository"
	"github.com/ponyo877/roomwatch/server/usecase"
)

func TestDispatcher_AssignmentReachesOnlyTarget(t *testing.T) {
	registry := domain.NewKioskRegistry()
	d := NewDispatcher(registry)
	k1, cancel1 := d.Subscribe("K1")
	defer cancel1()
	k2, cancel2 := d.Subscribe("K2")
	defer cancel2()

	if err := d.SendRoomAssignment(context.Background(), "K1", 2); err != nil {
		t.Fatalf("SendRoomAssignment() failed: %v", err)
	}
	select {
	case n := <-k1:
		if n.Kind != pb.NotificationAssignment || n.RoomID != 2 {
			t.Errorf("K1 got %+v", n)
		}
	default:
		t.Fatal("K1 received nothing")
	}
	select {
	case n := <-k2:
		t.Errorf("K2 received %+v", n)
	default:
	}
}

func TestDispatcher_UnsubscribedKiosk(t *testing.T) {
	d := NewDispatcher(domain.NewKioskRegistry())
	if err := d.SendRoomAssignment(context.Background(), "ghost", 1); err != nil {
		t.Fatalf("SendRoomAssignment() to an unsubscribed kiosk: err = %v, want nil", err)
	}
	if d.Subscribed("ghost") {
		t.Error("ghost became subscribed")
	}
}

func TestDispatcher_HintToRoomWithoutSubscribers(t *testing.T) {
	registry := domain.NewKioskRegistry()
	registry.Assign("K1", 1)
	d := NewDispatcher(registry)
	if err := d.SendHint(context.Background(), 1, "look up"); err != nil {
		t.Errorf("SendHint() err = %v, want nil", err)
	}
}

func TestDispatcher_HintToFullQueue(t *testing.T) {
	registry := domain.NewKioskRegistry()
	registry.Assign("K1", 1)
	d := NewDispatcher(registry)
	_, cancel := d.Subscribe("K1")
	defer cancel()

	for range notificationBuffer {
		if err := d.SendHint(context.Background(), 1, "x"); err != nil {
			t.Fatalf("SendHint() failed before the queue filled: %v", err)
		}
	}
	if err := d.SendHint(context.Background(), 1, "x"); !errors.Is(err, errQueueFull) {
		t.Errorf("err = %v, want errQueueFull", err)
	}
}

// A hint reaches an MQTT-only kiosk and acknowledges its help request even
// though no Subscribe stream is open.
func TestFleetSendHint_MQTTOnlyKiosk(t *testing.T) {
	registry := domain.NewKioskRegistry()
	hub := domain.NewEventHub()
	defer hub.Close()
	pub := &fakePublisher{}
	notifier := domain.MultiNotifier{NewDispatcher(registry), newMQTTNotifier(pub, "escape")}
	db, err := repository.Open(":memory:")
	if err != nil {
		t.Fatalf("repository.Open() failed: %v", err)
	}
	defer db.Close()
	repo := repository.NewRepository(db)
	fleet := usecase.NewFleetUsecase(registry, testRooms, hub, notifier, repo)

	registry.Assign("K1", 1)
	registry.SetHelpRequested("K1", "10.0.0.5")

	if err := fleet.SendHint(context.Background(), "K1", "check the safe"); err != nil {
		t.Fatalf("SendHint() failed: %v", err)
	}
	if len(pub.sent) != 1 || pub.sent[0].topic != "escape/room/1/hint" {
		t.Errorf("published %+v, want one hint on escape/room/1/hint", pub.sent)
	}
	if k, _ := registry.Kiosk("K1"); k.HelpRequested {
		t.Error("help request still raised after the hint went out")
	}
	entries, _ := repo.ListEntries("K1", 10)
	if len(entries) != 1 || entries[0].Kind != domain.EntryHint {
		t.Errorf("journal = %+v, want one hint entry", entries)
	}
}

func TestDispatcher_HintReachesEveryKioskInRoom(t *testing.T) {
	registry := domain.NewKioskRegistry()
	registry.Assign("K1", 1)
	registry.Assign("K2", 1)
	registry.Assign("K3", 2)
	d := NewDispatcher(registry)

	chans := map[string]<-chan *pb.Notification{}
	for _, name := range []string{"K1", "K2", "K3"} {
		ch, cancel := d.Subscribe(name)
		defer cancel()
		chans[name] = ch
	}

	if err := d.SendHint(context.Background(), 1, "look up"); err != nil {
		t.Fatalf("SendHint() failed: %v", err)
	}
	for _, name := range []string{"K1", "K2"} {
		select {
		case n := <-chans[name]:
			if n.Kind != pb.NotificationHint || n.Text != "look up" || n.RoomID != 1 {
				t.Errorf("%s got %+v", name, n)
			}
		default:
			t.Errorf("%s received nothing", name)
		}
	}
	select {
	case n := <-chans["K3"]:
		t.Errorf("K3 in another room received %+v", n)
	default:
	}

	if err := d.SendHint(context.Background(), 3, "nobody"); err == nil {
		t.Error("hint to an empty room succeeded")
	}
}

func TestDispatcher_ResubscribeClosesPrevious(t *testing.T) {
	d := NewDispatcher(domain.NewKioskRegistry())
	old, cancelOld := d.Subscribe("K1")
	cur, cancelCur := d.Subscribe("K1")
	defer cancelCur()

	if _, ok := <-old; ok {
		t.Fatal("replaced subscription still open")
	}
	// the stale cancel must not tear down the new subscription
	cancelOld()
	if !d.Subscribed("K1") {
		t.Fatal("stale cancel removed the current subscription")
	}
	if err := d.SendRoomAssignment(context.Background(), "K1", 1); err != nil {
		t.Fatal(err)
	}
	if n := <-cur; n.RoomID != 1 {
		t.Errorf("got %+v", n)
	}
}

func TestDispatcher_FullQueueDoesNotBlock(t *testing.T) {
	d := NewDispatcher(domain.NewKioskRegistry())
	_, cancel := d.Subscribe("K1")
	defer cancel()

	var err error
	for range notificationBuffer + 1 {
		err = d.SendRoomAssignment(context.Background(), "K1", 1)
	}
	if !errors.Is(err, errQueueFull) {
		t.Errorf("err = %v, want errQueueFull", err)
	}
}
