package domain

import (
	"fmt"
	"time"
)

type KioskStats struct {
	TotalHints int
	RoomTime   int
}

// RoomTimeString renders the room time the way the operator console shows it.
func (s KioskStats) RoomTimeString() string {
	return fmt.Sprintf("%dm %ds", s.RoomTime/60, s.RoomTime%60)
}

// Kiosk is a read-only snapshot of one registry entry.
type Kiosk struct {
	Name          string
	Address       string
	RoomID        int
	Assigned      bool
	Stats         KioskStats
	HelpRequested bool
	LastSeen      time.Time
}

// Title is "<room name> (<computer name>)", or "Unassigned (...)".
func (k Kiosk) Title(rooms RoomTable) string {
	return k.RoomName(rooms) + " (" + k.Name + ")"
}

func (k Kiosk) RoomName(rooms RoomTable) string {
	if !k.Assigned {
		return "Unassigned"
	}
	if name, ok := rooms.Name(k.RoomID); ok {
		return name
	}
	return fmt.Sprintf("Room %d", k.RoomID)
}

func (k Kiosk) String() string {
	if k.Assigned {
		return fmt.Sprintf("%s@room-%d", k.Name, k.RoomID)
	}
	return k.Name + "@unassigned"
}
