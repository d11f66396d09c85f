package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/ponyo877/roomwatch/server/domain"
)

// AssignmentCoordinator validates and commits room assignments, then tells
// the presentation layer and the kiosk.
type AssignmentCoordinator struct {
	registry  *domain.KioskRegistry
	rooms     domain.RoomTable
	presenter domain.Presenter
	notifier  domain.Notifier
	journal   journal
}

func NewAssignmentCoordinator(
	registry *domain.KioskRegistry,
	rooms domain.RoomTable,
	presenter domain.Presenter,
	notifier domain.Notifier,
	repo Repository,
) *AssignmentCoordinator {
	return &AssignmentCoordinator{
		registry:  registry,
		rooms:     rooms,
		presenter: presenter,
		notifier:  notifier,
		journal:   journal{repo: repo},
	}
}

// AssignKioskToRoom rejects room ids missing from the room table without
// touching any state. Otherwise the registry is updated first, then one
// display refresh and one kiosk notification are dispatched. A failed
// notification is logged; the assignment stands.
func (c *AssignmentCoordinator) AssignKioskToRoom(ctx context.Context, name string, roomID int) error {
	roomName, ok := c.rooms.Name(roomID)
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrInvalidRoomID, roomID)
	}
	if name == "" {
		return fmt.Errorf("%w: empty computer name", domain.ErrKioskNotFound)
	}

	log.Printf("Assigning %s to room %d (%s)", name, roomID, roomName)
	c.registry.Assign(name, roomID)
	kiosk, _ := c.registry.Kiosk(name)

	c.presenter.Present(domain.NewKioskUpdatedEvent(kiosk))
	if err := c.notifier.SendRoomAssignment(ctx, name, roomID); err != nil {
		log.Printf("Error notifying %s of room %d: %v", name, roomID, err)
	}
	c.journal.record(name, domain.EntryAssign, roomID, "assigned to "+roomName)
	return nil
}
