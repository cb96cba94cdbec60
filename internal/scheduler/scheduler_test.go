package scheduler

import (
	"testing"
	"time"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
)

func TestAddJobValidatesExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := s.AddJob("not a cron expr", func() {}); err == nil {
		t.Error("invalid expression accepted")
	}
}

func TestScheduleSessionSweep(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	st := store.NewInMemoryStore()

	if err := s.ScheduleSessionSweep(st, 0, ""); err != nil {
		t.Errorf("disabled sweep should be a no-op: %v", err)
	}
	if err := s.ScheduleSessionSweep(st, 24*time.Hour, ""); err != nil {
		t.Errorf("default schedule rejected: %v", err)
	}
	if err := s.ScheduleSessionSweep(st, 24*time.Hour, "bogus"); err == nil {
		t.Error("invalid schedule accepted")
	}
}
