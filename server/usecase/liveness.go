package usecase

import (
	"context"
	"log"
	"time"

	"github.com/ponyo877/roomwatch/server/domain"
)

const (
	DefaultLivenessDeadline = 10 * time.Second
	DefaultSweepInterval    = 5 * time.Second
)

// LivenessSweeper evicts kiosks that have gone quiet for longer than the
// deadline.
type LivenessSweeper struct {
	registry  *domain.KioskRegistry
	presenter domain.Presenter
	journal   journal
	deadline  time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewLivenessSweeper(
	registry *domain.KioskRegistry,
	presenter domain.Presenter,
	repo Repository,
	deadline, interval time.Duration,
) *LivenessSweeper {
	if deadline <= 0 {
		deadline = DefaultLivenessDeadline
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &LivenessSweeper{
		registry:  registry,
		presenter: presenter,
		journal:   journal{repo: repo},
		deadline:  deadline,
		interval:  interval,
		now:       time.Now,
	}
}

// Sweep evicts every kiosk last seen more than the deadline before now and
// returns their names.
func (s *LivenessSweeper) Sweep(now time.Time) []string {
	evicted := s.registry.EvictStale(now, s.deadline)
	for _, name := range evicted {
		log.Printf("Kiosk %s timed out", name)
		s.presenter.Present(domain.NewKioskRemovedEvent(name))
		s.journal.record(name, domain.EntryEvict, 0, "no heartbeat for "+s.deadline.String())
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (s *LivenessSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}
