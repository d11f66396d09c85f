package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ponyo877/roomwatch/server/domain"
)

// FleetUsecase handles inbound kiosk messages and the operator's hint flow.
type FleetUsecase struct {
	registry  *domain.KioskRegistry
	rooms     domain.RoomTable
	presenter domain.Presenter
	notifier  domain.Notifier
	journal   journal
	repo      Repository
}

func NewFleetUsecase(
	registry *domain.KioskRegistry,
	rooms domain.RoomTable,
	presenter domain.Presenter,
	notifier domain.Notifier,
	repo Repository,
) *FleetUsecase {
	return &FleetUsecase{
		registry:  registry,
		rooms:     rooms,
		presenter: presenter,
		notifier:  notifier,
		journal:   journal{repo: repo},
		repo:      repo,
	}
}

// HandleHeartbeat upserts a kiosk report. It returns the kiosk as stored.
func (u *FleetUsecase) HandleHeartbeat(name, addr string, hints, roomTime int) (domain.Kiosk, error) {
	if name == "" {
		return domain.Kiosk{}, fmt.Errorf("heartbeat without computer name")
	}
	created := u.registry.RecordHeartbeat(name, addr, hints, roomTime)
	kiosk, _ := u.registry.Kiosk(name)
	if created {
		log.Printf("Kiosk %s came online from %s", name, addr)
		u.presenter.Present(domain.NewKioskAddedEvent(kiosk))
	} else {
		u.presenter.Present(domain.NewStatsChangedEvent(kiosk))
	}
	return kiosk, nil
}

func (u *FleetUsecase) HandleHelpRequest(name, addr string) error {
	if name == "" {
		return fmt.Errorf("help request without computer name")
	}
	_, known := u.registry.Kiosk(name)
	changed := u.registry.SetHelpRequested(name, addr)
	kiosk, _ := u.registry.Kiosk(name)
	if !known {
		u.presenter.Present(domain.NewKioskAddedEvent(kiosk))
	}
	if changed {
		log.Printf("Kiosk %s requested help", name)
		u.presenter.Present(domain.NewHelpChangedEvent(kiosk))
		u.journal.record(name, domain.EntryHelp, kiosk.RoomID, "help requested")
	}
	return nil
}

// SendHint relays text to the room the kiosk is assigned to and
// acknowledges any pending help request.
func (u *FleetUsecase) SendHint(ctx context.Context, name, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyHint
	}
	roomID, ok := u.registry.Assignment(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotAssigned, name)
	}
	if err := u.notifier.SendHint(ctx, roomID, text); err != nil {
		return fmt.Errorf("failed to send hint to room %d: %w", roomID, err)
	}
	if u.registry.ClearHelpRequested(name) {
		if kiosk, ok := u.registry.Kiosk(name); ok {
			u.presenter.Present(domain.NewHelpChangedEvent(kiosk))
		}
	}
	u.journal.record(name, domain.EntryHint, roomID, text)
	return nil
}

// RemoveKiosk evicts a kiosk on operator request.
func (u *FleetUsecase) RemoveKiosk(name string) error {
	if !u.registry.Evict(name) {
		return fmt.Errorf("%w: %s", domain.ErrKioskNotFound, name)
	}
	u.presenter.Present(domain.NewKioskRemovedEvent(name))
	u.journal.record(name, domain.EntryEvict, 0, "removed by operator")
	return nil
}

func (u *FleetUsecase) Kiosks() []domain.Kiosk {
	return u.registry.Kiosks()
}

func (u *FleetUsecase) Kiosk(name string) (domain.Kiosk, bool) {
	return u.registry.Kiosk(name)
}

func (u *FleetUsecase) Rooms() domain.RoomTable {
	return u.rooms
}

// History returns journal entries, filtered by kiosk or by a regular
// expression over the entry body.
func (u *FleetUsecase) History(kiosk, pattern string, limit int) ([]domain.JournalEntry, error) {
	if u.repo == nil {
		return nil, nil
	}
	if pattern != "" {
		entries, err := u.repo.SearchEntries(pattern, limit)
		if err != nil {
			return nil, fmt.Errorf("error searching history: %w", err)
		}
		return entries, nil
	}
	entries, err := u.repo.ListEntries(kiosk, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing history: %w", err)
	}
	return entries, nil
}
