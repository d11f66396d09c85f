package adaptor

import (
	"context"

	"github.com/ponyo877/roomwatch/server/domain"
)

type Usecase interface {
	HandleHeartbeat(name, addr string, hints, roomTime int) (domain.Kiosk, error)
	HandleHelpRequest(name, addr string) error
	SendHint(ctx context.Context, name, text string) error
	RemoveKiosk(name string) error
	Kiosks() []domain.Kiosk
	Kiosk(name string) (domain.Kiosk, bool)
	Rooms() domain.RoomTable
	History(kiosk, pattern string, limit int) ([]domain.JournalEntry, error)
}

type Assigner interface {
	AssignKioskToRoom(ctx context.Context, name string, roomID int) error
}
