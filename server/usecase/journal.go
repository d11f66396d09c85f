package usecase

import (
	"log"
	"time"

	"github.com/ponyo877/roomwatch/server/domain"
)

// Repository persists operator history.
type Repository interface {
	CreateEntry(entry domain.JournalEntry) (domain.JournalEntry, error)
	ListEntries(kiosk string, limit int) ([]domain.JournalEntry, error)
	SearchEntries(pattern string, limit int) ([]domain.JournalEntry, error)
}

// journal writes history best effort; the fleet keeps working without it.
type journal struct {
	repo Repository
}

func (j journal) record(kiosk string, kind domain.EntryKind, roomID int, body string) {
	if j.repo == nil {
		return
	}
	entry := domain.NewJournalEntry("", kiosk, kind, roomID, body, time.Now())
	if _, err := j.repo.CreateEntry(entry); err != nil {
		log.Printf("Error saving %s entry for %s: %v", kind, kiosk, err)
	}
}
