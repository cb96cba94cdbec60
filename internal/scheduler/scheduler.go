// Package scheduler provides cron-based background jobs for the ticketing chatbot.
//
// Its main job is the periodic sweep that deletes conversation sessions idle
// past their retention window.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
)

// DefaultSweepSchedule runs the stale-session sweep once a day at 03:00.
const DefaultSweepSchedule = "0 3 * * *"

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Use standard 5-field cron parser (min, hour, dom, month, dow) and enable recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// ScheduleSessionSweep registers a job that deletes sessions idle for longer
// than ttl. A ttl of zero disables the sweep.
func (s *Scheduler) ScheduleSessionSweep(st store.Store, ttl time.Duration, expr string) error {
	if ttl <= 0 {
		slog.Debug("Scheduler.ScheduleSessionSweep: sweep disabled")
		return nil
	}
	if expr == "" {
		expr = DefaultSweepSchedule
	}
	return s.AddJob(expr, func() {
		cutoff := time.Now().Add(-ttl)
		deleted, err := st.DeleteSessionsIdleSince(cutoff)
		if err != nil {
			slog.Error("Scheduler.sessionSweep: sweep failed", "error", err)
			return
		}
		slog.Info("Scheduler.sessionSweep: sweep completed", "deleted", deleted, "cutoff", cutoff)
	})
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
