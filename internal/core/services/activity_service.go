package services

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
)

// EffortWeights are the per-event minute estimates of the engine. They are
// undocumented business heuristics carried over verbatim; tune them via
// configuration, never "fix" them in code.
type EffortWeights struct {
	// SpamNote is a private note whose body contains "marked as spam".
	SpamNote domain.MinuteRange

	// PrivateNote is any other private note.
	PrivateNote domain.MinuteRange

	// ShortReply is a public reply shorter than ShortReplyLimit characters.
	ShortReply domain.MinuteRange

	// LongReply is any other public reply.
	LongReply domain.MinuteRange

	// Closure is a successfully attributed ticket closure.
	Closure domain.MinuteRange

	ShortReplyLimit int
}

// DefaultEffortWeights returns the standard weights.
func DefaultEffortWeights() EffortWeights {
	return EffortWeights{
		SpamNote:        domain.MinuteRange{Min: 1, Max: 2},
		PrivateNote:     domain.MinuteRange{Min: 2, Max: 3},
		ShortReply:      domain.MinuteRange{Min: 3, Max: 4},
		LongReply:       domain.MinuteRange{Min: 5, Max: 7},
		Closure:         domain.MinuteRange{Min: 1, Max: 2},
		ShortReplyLimit: 50,
	}
}

// systemAuthorMarker flags automation-generated messages. A case-insensitive
// substring match on free text: any genuine agent reply containing the word
// is misclassified too, a known false-positive source kept for continuity
// with historical reports.
const systemAuthorMarker = "system"

const spamNoteMarker = "marked as spam"

// ActivityEngine turns fully-augmented tickets into per-agent activity
// records. It performs no I/O; malformed or missing input fields count as
// zero or empty rather than failing.
type ActivityEngine struct {
	weights  EffortWeights
	location *time.Location
	logger   *slog.Logger
}

// NewActivityEngine creates an engine. utcOffsetMinutes is the fixed display
// offset east of UTC used to bucket events into calendar days.
func NewActivityEngine(weights EffortWeights, utcOffsetMinutes int, logger *slog.Logger) *ActivityEngine {
	return &ActivityEngine{
		weights:  weights,
		location: time.FixedZone("display", utcOffsetMinutes*60),
		logger:   logger.With("component", "activity_engine"),
	}
}

// groupTally accumulates one agent's per-group counts during aggregation.
type groupTally struct {
	worked map[string]int
	closed map[string]int
}

func newGroupTally() *groupTally {
	return &groupTally{
		worked: make(map[string]int),
		closed: make(map[string]int),
	}
}

// Aggregate computes one AgentActivityRecord per agent with any activity or
// attributed closure in the window, sorted by distinct-ticket count
// descending.
func (e *ActivityEngine) Aggregate(tickets []*domain.Ticket, agents []domain.Agent, groups []domain.Group, window domain.Window) []*domain.AgentActivityRecord {
	agentNames := make(map[int64]string, len(agents))
	for _, a := range agents {
		agentNames[a.ID] = a.Name
	}
	groupNames := make(map[int64]string, len(groups))
	for _, g := range groups {
		groupNames[g.ID] = g.CleanName()
	}

	records := make(map[int64]*domain.AgentActivityRecord)
	tallies := make(map[int64]*groupTally)

	record := func(agentID int64) *domain.AgentActivityRecord {
		r, ok := records[agentID]
		if !ok {
			r = &domain.AgentActivityRecord{
				AgentID:   agentID,
				AgentName: agentNames[agentID],
			}
			records[agentID] = r
			tallies[agentID] = newGroupTally()
		}
		return r
	}

	// Activity pass: every qualifying conversation marks its ticket touched
	// and contributes counts and minutes to the agent and the day bucket.
	for _, ticket := range tickets {
		groupName := e.ticketGroupName(ticket, groupNames)

		for _, conv := range ticket.Conversations {
			if !window.Contains(conv.CreatedAt) {
				continue
			}
			if _, known := agentNames[conv.UserID]; !known {
				continue
			}
			if strings.Contains(strings.ToLower(conv.Body), systemAuthorMarker) {
				continue
			}

			r := record(conv.UserID)
			if !r.Touched(ticket.ID) {
				r.Touch(ticket.ID)
				tallies[conv.UserID].worked[groupName]++
			}

			minutes := e.classify(conv)
			day := r.Day(e.dayKey(conv.CreatedAt))
			if conv.Private {
				r.Actions++
				day.Actions++
			} else {
				r.Responses++
				day.Responses++
			}
			r.Minutes.Add(minutes)
			day.Minutes.Add(minutes)
		}
	}

	// Closure pass: a terminal ticket's closure is credited to its responder
	// only when the responder already touched the ticket above. Tickets
	// assigned and closed by automation therefore earn no one credit.
	for _, ticket := range tickets {
		if !ticket.Status.IsTerminal() || ticket.ResponderID == nil {
			continue
		}
		closedAt := ticket.ClosureTime()
		if !window.Contains(closedAt) {
			continue
		}
		r, ok := records[*ticket.ResponderID]
		if !ok || !r.Touched(ticket.ID) {
			continue
		}

		r.Closed++
		r.Minutes.Add(e.weights.Closure)
		day := r.Day(e.dayKey(closedAt))
		day.Closed++
		day.Minutes.Add(e.weights.Closure)
		tallies[*ticket.ResponderID].closed[e.ticketGroupName(ticket, groupNames)]++
	}

	return e.finalize(records, tallies)
}

// classify returns the minute estimate for one qualifying conversation.
func (e *ActivityEngine) classify(conv domain.Conversation) domain.MinuteRange {
	if conv.Private {
		if strings.Contains(strings.ToLower(conv.Body), spamNoteMarker) {
			return e.weights.SpamNote
		}
		return e.weights.PrivateNote
	}
	if len(conv.Body) < e.weights.ShortReplyLimit {
		return e.weights.ShortReply
	}
	return e.weights.LongReply
}

// dayKey buckets an instant into a calendar day of the display timezone.
func (e *ActivityEngine) dayKey(t time.Time) string {
	return t.In(e.location).Format("2006-01-02")
}

func (e *ActivityEngine) ticketGroupName(ticket *domain.Ticket, groupNames map[int64]string) string {
	if ticket.GroupID != nil {
		if name, ok := groupNames[*ticket.GroupID]; ok {
			return name
		}
	}
	return "Other"
}

// finalize applies the minute-range constraint, computes activity shares and
// group breakdowns, drops inactive agents and orders the output.
func (e *ActivityEngine) finalize(records map[int64]*domain.AgentActivityRecord, tallies map[int64]*groupTally) []*domain.AgentActivityRecord {
	totalTickets := 0
	for _, r := range records {
		r.TicketCount = len(r.Tickets)
		totalTickets += r.TicketCount
	}

	out := make([]*domain.AgentActivityRecord, 0, len(records))
	for agentID, r := range records {
		if r.TicketCount == 0 && r.Closed == 0 {
			continue
		}

		r.Minutes = r.Minutes.Constrained()
		for _, day := range r.Days {
			day.Minutes = day.Minutes.Constrained()
		}

		if totalTickets > 0 {
			r.ActivityShare = float64(r.TicketCount) / float64(totalTickets) * 100
		}

		r.Groups = buildGroupStats(tallies[agentID], r.TicketCount)
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TicketCount != out[j].TicketCount {
			return out[i].TicketCount > out[j].TicketCount
		}
		return out[i].AgentName < out[j].AgentName
	})
	return out
}

// buildGroupStats flattens a tally into GroupStats sorted by worked count
// descending. Percent is the group's share of the agent's distinct tickets.
func buildGroupStats(tally *groupTally, agentTickets int) []domain.GroupStat {
	if tally == nil {
		return nil
	}

	names := make(map[string]struct{}, len(tally.worked))
	for name := range tally.worked {
		names[name] = struct{}{}
	}
	for name := range tally.closed {
		names[name] = struct{}{}
	}

	stats := make([]domain.GroupStat, 0, len(names))
	for name := range names {
		s := domain.GroupStat{
			Group:  name,
			Worked: tally.worked[name],
			Closed: tally.closed[name],
		}
		if agentTickets > 0 {
			s.Percent = float64(s.Worked) / float64(agentTickets) * 100
		}
		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Worked != stats[j].Worked {
			return stats[i].Worked > stats[j].Worked
		}
		return stats[i].Group < stats[j].Group
	})
	return stats
}
