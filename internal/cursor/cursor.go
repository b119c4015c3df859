// Package cursor turns the persisted extraction state into the windows and
// request parameters of the next run, and produces the state to persist once
// that run has completed.
package cursor

import (
	"fmt"
	"time"

	"awin_tap/internal/domain"
	"awin_tap/internal/window"
)

// secretKeys are never carried in a persisted parameter block.
var secretKeys = []string{"accessToken"}

// Extras are the static per-resource query parameters from the config.
type Extras struct {
	Transactions         domain.Params
	AggregatedByCreative domain.Params
	AggregatedReport     domain.Params
	Programmes           domain.Params
}

// Plan is everything a run needs to know about its window.
type Plan struct {
	FirstRun  bool
	Reference time.Time

	// Timestamps is the seconds-precision window used by transactions.
	Timestamps window.Window
	// Dates is the date-precision window used by every other resource.
	Dates window.Window

	Transactions         domain.Params
	AggregatedByCreative domain.Params
	AggregatedReport     domain.Params
	Programmes           domain.Params
}

// Manager plans runs from persisted state.
type Manager struct {
	startDate time.Time
	increment int
	extras    Extras
}

// NewManager creates a Manager. startDate is used only when no state exists.
func NewManager(startDate time.Time, incrementDays int, extras Extras) *Manager {
	return &Manager{
		startDate: startDate,
		increment: incrementDays,
		extras:    extras,
	}
}

// Plan computes the windows and parameter blocks for the run following state.
// A nil or empty state starts from the configured start date. Each block is
// the persisted block with the configured extras over it and the new window
// dates on top.
func (m *Manager) Plan(state *domain.State) (*Plan, error) {
	if m.increment <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidIncrement, m.increment)
	}

	plan := &Plan{FirstRun: state.IsEmpty()}

	if plan.FirstRun {
		plan.Reference = m.startDate
	} else {
		lastFetched, err := window.ParseWatermark(state.LastFetched)
		if err != nil {
			return nil, err
		}
		plan.Reference = window.NextReference(lastFetched)
	}

	plan.Timestamps = window.Compute(plan.Reference, m.increment, window.Seconds)
	plan.Dates = window.Compute(plan.Reference, m.increment, window.Date)

	var prev domain.State
	if state != nil {
		prev = *state
	}

	plan.Transactions = withWindow(overlay(prev.Transactions, m.extras.Transactions), plan.Timestamps)
	plan.AggregatedByCreative = withWindow(overlay(prev.AggregatedByCreative, m.extras.AggregatedByCreative), plan.Dates)
	plan.AggregatedReport = withWindow(overlay(prev.AggregatedReport, m.extras.AggregatedReport), plan.Dates)
	plan.Programmes = overlay(prev.Programmes, m.extras.Programmes)

	return plan, nil
}

// Advance returns the state to persist after plan's run completed. The
// watermark is the end of the seconds-precision window regardless of which
// precision each block used.
func (m *Manager) Advance(plan *Plan) *domain.State {
	return &domain.State{
		LastFetched:          window.FormatWatermark(plan.Timestamps.End),
		Transactions:         stripSecrets(plan.Transactions),
		AggregatedByCreative: stripSecrets(plan.AggregatedByCreative),
		AggregatedReport:     stripSecrets(plan.AggregatedReport),
		Programmes:           stripSecrets(plan.Programmes),
	}
}

// overlay returns the persisted block with the configured extras applied
// over it, secrets removed.
func overlay(persisted, extra domain.Params) domain.Params {
	out := stripSecrets(persisted)
	for k, v := range stripSecrets(extra) {
		out[k] = v
	}
	return out
}

func withWindow(p domain.Params, w window.Window) domain.Params {
	p["startDate"] = w.StartString()
	p["endDate"] = w.EndString()
	return p
}

func stripSecrets(p domain.Params) domain.Params {
	out := p.Clone()
	for _, k := range secretKeys {
		delete(out, k)
	}
	return out
}
