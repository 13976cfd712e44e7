package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/dohr-michael/colloquy/internal/config"
)

func TestParseCron_Valid(t *testing.T) {
	expr, err := ParseCron("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}
	if expr.String() != "*/5 * * * *" {
		t.Fatalf("raw = %q", expr.String())
	}
}

func TestParseCron_Invalid(t *testing.T) {
	if _, err := ParseCron("not a cron"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCronExpr_NextAndMatches(t *testing.T) {
	expr, err := ParseCron("30 14 * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	next := expr.Next(base)
	want := time.Date(2026, 1, 1, 14, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("Next = %v, want %v", next, want)
	}

	if !expr.Matches(time.Date(2026, 6, 15, 14, 30, 45, 0, time.UTC)) {
		t.Error("expected match at 14:30")
	}
	if expr.Matches(time.Date(2026, 6, 15, 14, 31, 0, 0, time.UTC)) {
		t.Error("unexpected match at 14:31")
	}
}

func TestRunner_SkipsInvalidEntries(t *testing.T) {
	r := NewRunner([]config.ScheduleConfig{
		{Cron: "bogus", Scenario: "a"},
		{Cron: "0 9 * * *", Scenario: "b"},
	}, nil, nil, nil)

	if r.Len() != 1 {
		t.Fatalf("entries = %d, want 1", r.Len())
	}
}

func TestRunner_TickFiresMatchingEntry(t *testing.T) {
	var mu sync.Mutex
	var fired []string

	r := NewRunner([]config.ScheduleConfig{
		{Cron: "0 9 * * *", Scenario: "morning"},
		{Cron: "0 21 * * *", Scenario: "evening"},
	}, nil, func(scenario string) {
		mu.Lock()
		fired = append(fired, scenario)
		mu.Unlock()
	}, nil)

	r.tick(time.Date(2026, 3, 1, 9, 0, 10, 0, time.Local))

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(fired)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != "morning" {
		t.Fatalf("fired = %v", fired)
	}
}

func TestRunner_CooldownPreventsDoubleFire(t *testing.T) {
	var mu sync.Mutex
	count := 0

	r := NewRunner([]config.ScheduleConfig{
		{Cron: "0 9 * * *", Scenario: "morning"},
	}, nil, func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)

	at := time.Date(2026, 3, 1, 9, 0, 10, 0, time.Local)
	r.tick(at)
	r.tick(at.Add(30 * time.Second))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("fired %d times, want 1", count)
	}
}
