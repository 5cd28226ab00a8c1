// Package schedule decides when resolution passes are allowed to run.
// The default gate keys off a cron expression so cohorts can pin
// resolution to post-game windows.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Gate answers whether a resolution pass may start at the given time.
type Gate interface {
	ShouldRun(now time.Time) bool
}

// AlwaysOpen is a Gate that never blocks. Used when no schedule is
// configured and for manually triggered passes.
type AlwaysOpen struct{}

func (AlwaysOpen) ShouldRun(time.Time) bool { return true }

// CronGate opens for a window after each firing of a cron schedule.
type CronGate struct {
	schedule cron.Schedule
	window   time.Duration
}

// NewCronGate parses a standard five-field cron expression. window is
// how long the gate stays open after each scheduled instant.
func NewCronGate(spec string, window time.Duration) (*CronGate, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron spec %q: %w", spec, err)
	}
	if window <= 0 {
		window = time.Hour
	}
	return &CronGate{schedule: sched, window: window}, nil
}

// ShouldRun reports whether now falls inside the window following a
// scheduled firing.
func (g *CronGate) ShouldRun(now time.Time) bool {
	// cron schedules only expose Next, so walk forward from the start
	// of the window: if a firing lands in (now-window, now], the gate
	// is open.
	probe := now.Add(-g.window)
	next := g.schedule.Next(probe)
	return !next.After(now)
}

// Ticker runs fn at each firing of the schedule until stop is called.
type Ticker struct {
	runner *cron.Cron
}

// NewTicker schedules fn on the given cron spec.
func NewTicker(spec string, fn func()) (*Ticker, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, fmt.Errorf("scheduling %q: %w", spec, err)
	}
	return &Ticker{runner: c}, nil
}

// Start begins firing. Stop waits for an in-flight run to finish.
func (t *Ticker) Start() { t.runner.Start() }

// Stop halts the schedule and waits for a running job to return.
func (t *Ticker) Stop() {
	ctx := t.runner.Stop()
	<-ctx.Done()
}
