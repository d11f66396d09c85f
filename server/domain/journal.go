package domain

import "time"

type EntryKind string

const (
	EntryAssign EntryKind = "assign"
	EntryHelp   EntryKind = "help"
	EntryHint   EntryKind = "hint"
	EntryEvict  EntryKind = "evict"
)

// JournalEntry is one line of operator history.
type JournalEntry struct {
	ID        string
	Kiosk     string
	Kind      EntryKind
	RoomID    int
	Body      string
	CreatedAt time.Time
}

func NewJournalEntry(id, kiosk string, kind EntryKind, roomID int, body string, createdAt time.Time) JournalEntry {
	return JournalEntry{
		ID:        id,
		Kiosk:     kiosk,
		Kind:      kind,
		RoomID:    roomID,
		Body:      body,
		CreatedAt: createdAt,
	}
}

func (e JournalEntry) String() string {
	return e.CreatedAt.Format("15:04:05") + " " + string(e.Kind) + " " + e.Kiosk + ": " + e.Body
}
