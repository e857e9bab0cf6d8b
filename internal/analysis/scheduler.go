package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepInterval is the periodic due-check cadence between calendar triggers.
const sweepInterval = time.Hour

// Scheduler drives the orchestrator: an hourly due-check sweep plus two
// calendar-aligned timers (a fixed daily time, a fixed weekly day/time).
// All triggers funnel into Sweep, so the due checks decide what actually
// runs, not the timers.
type Scheduler struct {
	orch   *Orchestrator
	cron   *cron.Cron
	stopCh chan struct{}
}

// NewScheduler wires the calendar specs (standard 5-field cron) to the
// orchestrator.
func NewScheduler(orch *Orchestrator, dailySpec, weeklySpec string) (*Scheduler, error) {
	s := &Scheduler{
		orch:   orch,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}

	if _, err := s.cron.AddFunc(dailySpec, s.tick("daily timer")); err != nil {
		return nil, fmt.Errorf("parse daily cron %q: %w", dailySpec, err)
	}
	if _, err := s.cron.AddFunc(weeklySpec, s.tick("weekly timer")); err != nil {
		return nil, fmt.Errorf("parse weekly cron %q: %w", weeklySpec, err)
	}
	return s, nil
}

func (s *Scheduler) tick(source string) func() {
	return func() {
		log.Printf("scheduler: %s fired", source)
		s.orch.Sweep(context.Background())
	}
}

// Start sweeps once immediately, then hourly, plus the calendar timers.
func (s *Scheduler) Start() {
	go s.orch.Sweep(context.Background())
	s.cron.Start()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.orch.Sweep(context.Background())
			case <-s.stopCh:
				return
			}
		}
	}()

	log.Printf("scheduler: started (hourly sweep + calendar timers)")
}

// Stop halts the timers. In-flight runs finish on their own.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.cron.Stop()
	log.Printf("scheduler: stopped")
}
