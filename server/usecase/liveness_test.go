package usecase

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/ponyo877/roomwatch/server/domain"
)

func TestLivenessSweeper_Sweep(t *testing.T) {
	base := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	now := base
	registry := domain.NewKioskRegistryWithClock(func() time.Time { return now })
	presenter := &recordingPresenter{}
	repo := &memRepository{}
	sweeper := NewLivenessSweeper(registry, presenter, repo, 10*time.Second, 5*time.Second)

	registry.RecordHeartbeat("silent", "", 0, 0)
	registry.Assign("silent", 2)
	registry.SetHelpRequested("silent", "")
	now = base.Add(2 * time.Second)
	registry.RecordHeartbeat("chatty", "", 0, 0)

	evicted := sweeper.Sweep(base.Add(11 * time.Second))
	if !slices.Equal(evicted, []string{"silent"}) {
		t.Fatalf("Sweep() = %v, want [silent] (11s vs 9s since last seen)", evicted)
	}
	if _, ok := registry.Kiosk("silent"); ok {
		t.Error("silent kiosk still tracked")
	}
	if _, ok := registry.Assignment("silent"); ok {
		t.Error("assignment survived eviction")
	}
	if _, ok := registry.Kiosk("chatty"); !ok {
		t.Error("kiosk seen 9s ago was evicted")
	}
	if got := presenter.types(); !slices.Equal(got, []domain.KioskEventType{domain.EventKioskRemoved}) {
		t.Errorf("presenter events = %v", got)
	}
	if presenter.events[0].Kiosk.Name != "silent" {
		t.Errorf("removal event for %q", presenter.events[0].Kiosk.Name)
	}
	if kinds := repo.kinds(); !slices.Equal(kinds, []domain.EntryKind{domain.EntryEvict}) {
		t.Errorf("journal = %v", kinds)
	}

	if again := sweeper.Sweep(base.Add(11 * time.Second)); len(again) != 0 {
		t.Errorf("second Sweep() = %v, want nothing", again)
	}
}

func TestLivenessSweeper_RunStopsWithContext(t *testing.T) {
	registry := domain.NewKioskRegistry()
	presenter := &recordingPresenter{}
	sweeper := NewLivenessSweeper(registry, presenter, nil, time.Millisecond, 10*time.Millisecond)
	registry.RecordHeartbeat("K1", "", 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Run() never evicted the stale kiosk")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
