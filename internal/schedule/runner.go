// Package schedule starts scenarios on cron schedules.
package schedule

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dohr-michael/colloquy/internal/config"
	"github.com/dohr-michael/colloquy/internal/events"
)

// cooldown is the minimum interval between two triggers of the same entry,
// guarding against duplicate fires within one minute.
const cooldown = 90 * time.Second

// StartFunc launches a scenario by name. Called from the runner's goroutine;
// implementations should return quickly and run the conversation elsewhere.
type StartFunc func(scenario string)

type entry struct {
	cron     *CronExpr
	scenario string
	lastRun  time.Time
}

// Runner ticks once a minute and fires scenario starts whose cron matches.
type Runner struct {
	bus    *events.Bus
	start  StartFunc
	logger *slog.Logger

	mu      sync.Mutex
	entries []*entry
	done    chan struct{}
}

// NewRunner builds a runner from the configured schedules. Entries with
// invalid cron expressions are skipped with a warning.
func NewRunner(cfgs []config.ScheduleConfig, bus *events.Bus, start StartFunc, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		bus:    bus,
		start:  start,
		logger: logger,
		done:   make(chan struct{}),
	}
	for _, cfg := range cfgs {
		expr, err := ParseCron(cfg.Cron)
		if err != nil {
			logger.Warn("skipping schedule", "cron", cfg.Cron, "scenario", cfg.Scenario, "error", err)
			continue
		}
		r.entries = append(r.entries, &entry{cron: expr, scenario: cfg.Scenario})
	}
	return r
}

// Len returns the number of active schedule entries.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Start begins the minute ticker. No-op when there are no entries.
func (r *Runner) Start() {
	if r.Len() == 0 {
		return
	}
	r.logger.Info("schedule runner started", "entries", r.Len())
	go r.loop()
}

// Stop halts the runner.
func (r *Runner) Stop() {
	close(r.done)
}

func (r *Runner) loop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

func (r *Runner) tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if !e.cron.Matches(now) {
			continue
		}
		if now.Sub(e.lastRun) < cooldown {
			continue
		}
		e.lastRun = now

		r.logger.Info("schedule fired", "cron", e.cron.String(), "scenario", e.scenario)
		if r.bus != nil {
			r.bus.Publish(events.NewTypedEvent(events.SourceSchedule, events.ScheduleTriggerPayload{
				Scenario: e.scenario,
				Cron:     e.cron.String(),
			}))
		}
		if r.start != nil {
			go r.start(e.scenario)
		}
	}
}
