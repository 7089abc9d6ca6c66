package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dohr-michael/skillbox/internal/config"
	"github.com/dohr-michael/skillbox/internal/events"
	"github.com/dohr-michael/skillbox/internal/skill"
)

// DefaultCooldown is the minimum delay between two runs of the same entry
// when the config does not set one.
const DefaultCooldown = time.Minute

type runtimeEntry struct {
	name     string
	skill    string
	input    map[string]any
	cron     *CronExpr
	cooldown time.Duration
	lastRun  time.Time
}

// Scheduler fires skill executions on cron schedules from the config file.
type Scheduler struct {
	executor *skill.Executor
	bus      *events.Bus

	mu      sync.Mutex
	entries []*runtimeEntry

	done chan struct{}
}

// New builds a scheduler from config entries. Entries with invalid cron
// expressions are logged and skipped, as are disabled entries.
func New(executor *skill.Executor, bus *events.Bus, entries []config.ScheduleEntry) *Scheduler {
	s := &Scheduler{
		executor: executor,
		bus:      bus,
		done:     make(chan struct{}),
	}
	for _, e := range entries {
		if e.Disabled {
			continue
		}
		expr, err := ParseCron(e.Cron)
		if err != nil {
			slog.Warn("scheduler: skipping entry", "entry", e.Name, "error", err)
			continue
		}
		re := &runtimeEntry{
			name:     e.Name,
			skill:    e.Skill,
			input:    e.Input,
			cron:     expr,
			cooldown: time.Duration(e.Cooldown),
		}
		if re.cooldown == 0 {
			re.cooldown = DefaultCooldown
		}
		s.entries = append(s.entries, re)
	}
	return s
}

// Len returns the number of active entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins the cron ticker loop.
func (s *Scheduler) Start() {
	slog.Info("scheduler started", "entries", len(s.entries))
	go s.cronLoop()
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	close(s.done)
	slog.Info("scheduler stopped")
}

func (s *Scheduler) cronLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.checkCron(now)
		}
	}
}

func (s *Scheduler) checkCron(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if !entry.cron.Matches(now) {
			continue
		}
		if now.Sub(entry.lastRun) < entry.cooldown {
			continue
		}
		entry.lastRun = now
		s.trigger(entry)
	}
}

func (s *Scheduler) trigger(entry *runtimeEntry) {
	if s.bus != nil {
		s.bus.Publish(events.NewTypedEvent(events.SourceScheduler, events.ScheduleTriggerPayload{
			Entry:     entry.name,
			SkillName: entry.skill,
			Cron:      entry.cron.String(),
		}))
	}

	go func() {
		result := s.executor.Execute(context.Background(), entry.skill, entry.input, nil)
		if result.Success {
			slog.Info("scheduler: skill run completed",
				"entry", entry.name, "skill", entry.skill, "seconds", result.ExecutionTime)
		} else {
			slog.Warn("scheduler: skill run failed",
				"entry", entry.name, "skill", entry.skill, "error", result.Error)
		}
	}()
}
