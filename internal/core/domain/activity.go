package domain

import (
	"time"

	"github.com/google/uuid"
)

// Window is the inclusive instant range [Start, End] a report covers.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether the instant falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// IsValid reports whether the window is non-empty and ordered.
func (w Window) IsValid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.End.Before(w.Start)
}

// MinuteRange is a {min,max} work-time estimate in minutes.
type MinuteRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Add accumulates another estimate into the range.
func (r *MinuteRange) Add(other MinuteRange) {
	r.Min += other.Min
	r.Max += other.Max
}

// Constrained returns the range with Max clamped into [Min, ceil(1.5*Min)],
// keeping the displayed spread tight and monotonic. A zero Min yields a
// zero Max.
func (r MinuteRange) Constrained() MinuteRange {
	ceiling := (r.Min*3 + 1) / 2
	out := r
	if out.Max > ceiling {
		out.Max = ceiling
	}
	if out.Max < out.Min {
		out.Max = out.Min
	}
	return out
}

// DailyStat is per-agent activity scoped to one calendar day of the
// report's display timezone.
type DailyStat struct {
	Responses int         `json:"responses"`
	Actions   int         `json:"actions"`
	Closed    int         `json:"closed"`
	Minutes   MinuteRange `json:"minutes"`
}

// GroupStat is per-agent activity scoped to one agent group.
type GroupStat struct {
	Group   string  `json:"group"`
	Worked  int     `json:"worked"`
	Closed  int     `json:"closed"`
	Percent float64 `json:"percent"`
}

// AgentActivityRecord is the engine's per-agent output for one window.
type AgentActivityRecord struct {
	AgentID   int64  `json:"agentId"`
	AgentName string `json:"agentName"`

	// Tickets is the set of distinct ticket ids the agent actively
	// touched in the window; a ticket appears at most once no matter how
	// many conversations it generated.
	Tickets map[int64]struct{} `json:"-"`

	TicketCount int         `json:"ticketCount"`
	Responses   int         `json:"responses"`
	Actions     int         `json:"actions"`
	Closed      int         `json:"closed"`
	Minutes     MinuteRange `json:"minutes"`

	// ActivityShare is this agent's distinct-ticket count over the sum
	// across all agents, as a percentage.
	ActivityShare float64 `json:"activityShare"`

	Days   map[string]*DailyStat `json:"days"`
	Groups []GroupStat           `json:"groups"`
}

// Touch records the ticket in the agent's distinct-ticket set.
func (r *AgentActivityRecord) Touch(ticketID int64) {
	if r.Tickets == nil {
		r.Tickets = make(map[int64]struct{})
	}
	r.Tickets[ticketID] = struct{}{}
}

// Touched reports whether the agent already touched the ticket.
func (r *AgentActivityRecord) Touched(ticketID int64) bool {
	_, ok := r.Tickets[ticketID]
	return ok
}

// Day returns the stat bucket for the given day key, creating it on demand.
func (r *AgentActivityRecord) Day(key string) *DailyStat {
	if r.Days == nil {
		r.Days = make(map[string]*DailyStat)
	}
	d, ok := r.Days[key]
	if !ok {
		d = &DailyStat{}
		r.Days[key] = d
	}
	return d
}

// ActivityReport is one finished report run.
type ActivityReport struct {
	RunID       uuid.UUID              `json:"runId"`
	Window      Window                 `json:"window"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Records     []*AgentActivityRecord `json:"records"`
}

// ProgressEvent is emitted while a report run acquires and augments data.
type ProgressEvent struct {
	RunID uuid.UUID `json:"runId"`
	Stage string    `json:"stage"`
	Done  int       `json:"done"`
	Total int       `json:"total"`
	At    time.Time `json:"at"`
}
