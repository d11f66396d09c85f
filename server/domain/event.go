package domain

import "time"

type KioskEventType int

const (
	EventKioskAdded KioskEventType = iota
	EventKioskUpdated
	EventKioskRemoved
	EventStatsChanged
	EventHelpChanged
)

func (t KioskEventType) String() string {
	switch t {
	case EventKioskAdded:
		return "added"
	case EventKioskUpdated:
		return "updated"
	case EventKioskRemoved:
		return "removed"
	case EventStatsChanged:
		return "stats"
	case EventHelpChanged:
		return "help"
	default:
		return "unknown"
	}
}

// KioskEvent tells the presentation layer that a kiosk changed. Kiosk is the
// state after the change; for removals only Kiosk.Name is set.
type KioskEvent struct {
	Type      KioskEventType
	Kiosk     Kiosk
	Timestamp time.Time
}

func NewKioskAddedEvent(k Kiosk) KioskEvent {
	return KioskEvent{Type: EventKioskAdded, Kiosk: k, Timestamp: time.Now()}
}

func NewKioskUpdatedEvent(k Kiosk) KioskEvent {
	return KioskEvent{Type: EventKioskUpdated, Kiosk: k, Timestamp: time.Now()}
}

func NewKioskRemovedEvent(name string) KioskEvent {
	return KioskEvent{Type: EventKioskRemoved, Kiosk: Kiosk{Name: name}, Timestamp: time.Now()}
}

func NewStatsChangedEvent(k Kiosk) KioskEvent {
	return KioskEvent{Type: EventStatsChanged, Kiosk: k, Timestamp: time.Now()}
}

func NewHelpChangedEvent(k Kiosk) KioskEvent {
	return KioskEvent{Type: EventHelpChanged, Kiosk: k, Timestamp: time.Now()}
}

func (e KioskEvent) String() string {
	return e.Type.String() + ": " + e.Kiosk.String()
}
