package domain

import (
	"slices"
	"strings"
	"sync"
	"time"
)

type presence struct {
	lastSeen time.Time
	addr     string
}

// KioskRegistry is the roster of online kiosks. Each attribute lives in its
// own store; Evict clears all of them under one lock so no partial entry is
// ever observable.
type KioskRegistry struct {
	mu            sync.RWMutex
	assignments   map[string]int
	stats         map[string]KioskStats
	helpRequested map[string]struct{}
	presence      map[string]presence
	now           func() time.Time
}

func NewKioskRegistry() *KioskRegistry {
	return NewKioskRegistryWithClock(time.Now)
}

func NewKioskRegistryWithClock(now func() time.Time) *KioskRegistry {
	return &KioskRegistry{
		assignments:   make(map[string]int),
		stats:         make(map[string]KioskStats),
		helpRequested: make(map[string]struct{}),
		presence:      make(map[string]presence),
		now:           now,
	}
}

// RecordHeartbeat stores a full-state report and refreshes last seen. It
// reports whether the kiosk was not tracked before.
func (r *KioskRegistry) RecordHeartbeat(name, addr string, hints, roomTime int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, known := r.presence[name]
	r.touch(name, addr)
	r.stats[name] = KioskStats{
		TotalHints: max(hints, 0),
		RoomTime:   max(roomTime, 0),
	}
	return !known
}

// SetHelpRequested raises the help flag and refreshes last seen. It reports
// whether the flag changed.
func (r *KioskRegistry) SetHelpRequested(name, addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touch(name, addr)
	if _, ok := r.helpRequested[name]; ok {
		return false
	}
	r.helpRequested[name] = struct{}{}
	return true
}

// ClearHelpRequested lowers the help flag and reports whether it was set.
func (r *KioskRegistry) ClearHelpRequested(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.helpRequested[name]; !ok {
		return false
	}
	delete(r.helpRequested, name)
	return true
}

// Assign stores a room assignment. Room validation is the caller's job.
func (r *KioskRegistry) Assign(name string, roomID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presence[name]; !ok {
		r.presence[name] = presence{lastSeen: r.now()}
	}
	r.assignments[name] = roomID
}

// Evict removes every attribute of name. It reports whether anything was
// removed; evicting an unknown kiosk is a no-op.
func (r *KioskRegistry) Evict(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, a := r.assignments[name]
	_, s := r.stats[name]
	_, h := r.helpRequested[name]
	_, p := r.presence[name]
	delete(r.assignments, name)
	delete(r.stats, name)
	delete(r.helpRequested, name)
	delete(r.presence, name)
	return a || s || h || p
}

func (r *KioskRegistry) touch(name, addr string) {
	p := r.presence[name]
	p.lastSeen = r.now()
	if addr != "" {
		p.addr = addr
	}
	r.presence[name] = p
}

func (r *KioskRegistry) Kiosk(name string) (Kiosk, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.presence[name]; !ok {
		return Kiosk{}, false
	}
	return r.snapshot(name), true
}

// Kiosks returns every tracked kiosk ordered by name.
func (r *KioskRegistry) Kiosks() []Kiosk {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kiosks := make([]Kiosk, 0, len(r.presence))
	for name := range r.presence {
		kiosks = append(kiosks, r.snapshot(name))
	}
	slices.SortFunc(kiosks, func(a, b Kiosk) int { return strings.Compare(a.Name, b.Name) })
	return kiosks
}

func (r *KioskRegistry) Assignment(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.assignments[name]
	return roomID, ok
}

// KiosksInRoom returns the names of kiosks assigned to roomID, sorted.
func (r *KioskRegistry) KiosksInRoom(roomID int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, id := range r.assignments {
		if id == roomID {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Stale returns the kiosks whose last message is older than deadline at now.
func (r *KioskRegistry) Stale(now time.Time, deadline time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, p := range r.presence {
		if now.Sub(p.lastSeen) > deadline {
			names = append(names, name)
		}
	}
	return names
}

// EvictStale evicts every kiosk that Stale would return, checking and
// removing under one lock so a heartbeat cannot slip in between.
func (r *KioskRegistry) EvictStale(now time.Time, deadline time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for name, p := range r.presence {
		if now.Sub(p.lastSeen) <= deadline {
			continue
		}
		delete(r.assignments, name)
		delete(r.stats, name)
		delete(r.helpRequested, name)
		delete(r.presence, name)
		evicted = append(evicted, name)
	}
	slices.Sort(evicted)
	return evicted
}

func (r *KioskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presence)
}

func (r *KioskRegistry) snapshot(name string) Kiosk {
	p := r.presence[name]
	roomID, assigned := r.assignments[name]
	_, help := r.helpRequested[name]
	return Kiosk{
		Name:          name,
		Address:       p.addr,
		RoomID:        roomID,
		Assigned:      assigned,
		Stats:         r.stats[name],
		HelpRequested: help,
		LastSeen:      p.lastSeen,
	}
}
