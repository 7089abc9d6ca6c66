package scheduler

import (
	"testing"
	"time"

	"github.com/dohr-michael/skillbox/internal/config"
	"github.com/dohr-michael/skillbox/internal/skill"
)

func TestNewSkipsInvalidEntries(t *testing.T) {
	executor := skill.NewExecutor(skill.NewRegistry(t.TempDir()), nil, nil)

	s := New(executor, nil, []config.ScheduleEntry{
		{Name: "good", Skill: "a", Cron: "0 * * * *"},
		{Name: "bad-cron", Skill: "b", Cron: "nope"},
		{Name: "off", Skill: "c", Cron: "0 * * * *", Disabled: true},
	})

	if s.Len() != 1 {
		t.Fatalf("expected 1 active entry, got %d", s.Len())
	}
	entry := s.entries[0]
	if entry.name != "good" {
		t.Errorf("unexpected entry: %s", entry.name)
	}
	if entry.cooldown != DefaultCooldown {
		t.Errorf("expected default cooldown, got %s", entry.cooldown)
	}
}

func TestCheckCronCooldown(t *testing.T) {
	executor := skill.NewExecutor(skill.NewRegistry(t.TempDir()), nil, nil)

	s := New(executor, nil, []config.ScheduleEntry{
		{Name: "hourly", Skill: "a", Cron: "* * * * *", Cooldown: config.Duration(time.Hour)},
	})

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.checkCron(at)
	if got := s.entries[0].lastRun; !got.Equal(at) {
		t.Fatalf("expected lastRun %s, got %s", at, got)
	}

	// A minute later the cooldown suppresses the trigger.
	later := at.Add(time.Minute)
	s.checkCron(later)
	if got := s.entries[0].lastRun; !got.Equal(at) {
		t.Errorf("cooldown ignored, lastRun advanced to %s", got)
	}

	// Past the cooldown it fires again.
	s.checkCron(at.Add(2 * time.Hour))
	if got := s.entries[0].lastRun; !got.Equal(at.Add(2 * time.Hour)) {
		t.Errorf("expected trigger after cooldown, lastRun %s", got)
	}
}
