package usecase

import (
	"context"
	"regexp"
	"sync"

	"github.com/ponyo877/roomwatch/server/domain"
)

type recordingPresenter struct {
	mu     sync.Mutex
	events []domain.KioskEvent
}

func (p *recordingPresenter) Present(e domain.KioskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPresenter) types() []domain.KioskEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []domain.KioskEventType
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type assignmentCall struct {
	kiosk  string
	roomID int
}

type hintCall struct {
	roomID int
	text   string
}

type recordingNotifier struct {
	mu          sync.Mutex
	assignments []assignmentCall
	hints       []hintCall
	err         error
}

func (n *recordingNotifier) SendRoomAssignment(_ context.Context, kiosk string, roomID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assignments = append(n.assignments, assignmentCall{kiosk, roomID})
	return n.err
}

func (n *recordingNotifier) SendHint(_ context.Context, roomID int, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hints = append(n.hints, hintCall{roomID, text})
	return n.err
}

type memRepository struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
}

func (r *memRepository) CreateEntry(e domain.JournalEntry) (domain.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *memRepository) ListEntries(kiosk string, limit int) ([]domain.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.JournalEntry
	for _, e := range r.entries {
		if kiosk == "" || e.Kiosk == kiosk {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepository) SearchEntries(pattern string, limit int) ([]domain.JournalEntry, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.JournalEntry
	for _, e := range r.entries {
		if re.MatchString(e.Body) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepository) kinds() []domain.EntryKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []domain.EntryKind
	for _, e := range r.entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
