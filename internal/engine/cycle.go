// Package engine ties the formation subsystems together and advances them
// one simulated day at a time: allocation, coalition search, negotiation,
// government — and the feedback edge back to search or elections when a
// negotiation fails or a cabinet falls.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/formateur/internal/coalition"
	"github.com/talgya/formateur/internal/election"
	"github.com/talgya/formateur/internal/government"
	"github.com/talgya/formateur/internal/negotiation"
	"github.com/talgya/formateur/internal/politics"
)

// Event is a notable occurrence during the formation cycle, mirrored from
// negotiation logs and governance changes for observers.
type Event struct {
	Day         int    `json:"day"`
	Description string `json:"description"`
	Category    string `json:"category"` // "election", "search", "negotiation", "government"
}

// CycleState tracks where the formation cycle stands.
type CycleState uint8

const (
	CycleNegotiating CycleState = iota
	CycleGoverning
	CycleFailed        // candidates exhausted
	CycleNeedElections // no viable coalition exists at all
)

var cycleStateNames = [...]string{"negotiating", "governing", "failed", "need_elections"}

func (s CycleState) String() string {
	if int(s) < len(cycleStateNames) {
		return cycleStateNames[s]
	}
	return "unknown"
}

// FormationFailed is the terminal failure signal handed to the caller.
type FormationFailed struct {
	Reason              negotiation.FailureReason `json:"reason"`
	ExhaustedCandidates bool                      `json:"exhausted_candidates"`
}

// Config collects the tunables of one formation cycle.
type Config struct {
	TotalSeats  int                    `yaml:"total_seats"`
	Threshold   float64                `yaml:"threshold"`
	Seed        int64                  `yaml:"seed"`
	Search      coalition.SearchConfig `yaml:"search"`
	Negotiation negotiation.Config     `yaml:"negotiation"`
	Government  government.Config      `yaml:"government"`
}

// DefaultConfig mirrors the Dutch Tweede Kamer: 150 seats, a threshold of
// one full seat's vote share.
func DefaultConfig() Config {
	return Config{
		TotalSeats:  150,
		Threshold:   1.0 / 150,
		Seed:        1,
		Search:      coalition.DefaultSearchConfig(),
		Negotiation: negotiation.DefaultConfig(),
		Government:  government.DefaultConfig(),
	}
}

// Cycle is one complete formation attempt over a fixed set of parties. It
// owns the negotiation state exclusively; observers read value snapshots.
type Cycle struct {
	Parties []politics.Party
	Weights politics.IssueWeights
	Issues  []politics.IssueID

	Result     election.Result
	Candidates []coalition.Candidate

	Day    int
	Events []Event

	cfg        Config
	state      CycleState
	current    int // index into Candidates
	neg        *negotiation.State
	gov        *government.Government
	failed     map[string]bool // collapsed combinations, by canonical key
	lastLogLen int
	failure    FormationFailed
}

// NewCycle allocates seats, searches for coalitions, and opens negotiations
// with the top-ranked candidate. Input errors surface before any simulation
// starts. A parliament with no viable coalition is not an error: the cycle
// starts in CycleNeedElections.
func NewCycle(parties []politics.Party, weights politics.IssueWeights, issues []politics.IssueID, cfg Config) (*Cycle, error) {
	res, err := election.Allocate(parties, cfg.TotalSeats, cfg.Threshold)
	if err != nil {
		return nil, fmt.Errorf("allocate seats: %w", err)
	}
	election.ApplySeats(parties, res)

	c := &Cycle{
		Parties: parties,
		Weights: weights,
		Issues:  issues,
		Result:  res,
		cfg:     cfg,
		failed:  make(map[string]bool),
	}
	c.emit("election", fmt.Sprintf("%d parties seated in a %d-seat chamber", len(res.Order), res.TotalSeats))

	c.Candidates = coalition.FindViable(res, parties, weights, cfg.Search)
	if len(c.Candidates) == 0 {
		c.state = CycleNeedElections
		c.emit("search", "no coalition reaches a majority; new elections required")
		return c, nil
	}
	c.emit("search", fmt.Sprintf("%d viable coalitions found", len(c.Candidates)))

	c.openNegotiation(0)
	return c, nil
}

// openNegotiation starts talks with candidate i. Each attempt derives its
// own seed from the cycle seed so retries are independently reproducible.
func (c *Cycle) openNegotiation(i int) {
	c.current = i
	cand := c.Candidates[i]
	c.state = CycleNegotiating
	c.neg = negotiation.New(c.candidateParties(cand), c.Weights, c.Issues, c.cfg.Seed+int64(i), c.cfg.Negotiation)
	c.lastLogLen = 0
	c.emit("negotiation", fmt.Sprintf("talks open with %s (%d seats, score %.3f)", cand.Key(), cand.TotalSeats, cand.Score))
}

// candidateParties resolves a candidate's IDs against the party list,
// preserving the candidate's seats-descending negotiation order.
func (c *Cycle) candidateParties(cand coalition.Candidate) []*politics.Party {
	byID := make(map[politics.PartyID]*politics.Party, len(c.Parties))
	for i := range c.Parties {
		byID[c.Parties[i].ID] = &c.Parties[i]
	}
	out := make([]*politics.Party, 0, len(cand.Parties))
	for _, id := range cand.Parties {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// TickDay advances the cycle by one simulated day.
func (c *Cycle) TickDay() {
	c.Day++

	switch c.state {
	case CycleNegotiating:
		st := c.neg.Tick()
		c.drainNegotiationLog()

		switch {
		case st.Phase == negotiation.PhaseSuccess:
			c.installGovernment()
		case st.Phase == negotiation.PhaseFailure:
			c.nextCandidate(st.Reason)
		}
	case CycleGoverning, CycleFailed, CycleNeedElections:
		// Governance is driven by external political events; failure
		// states wait on the caller.
	}
}

// drainNegotiationLog mirrors new negotiation events into the cycle log.
func (c *Cycle) drainNegotiationLog() {
	log := c.neg.Log()
	for _, ev := range log[c.lastLogLen:] {
		if ev.Kind == negotiation.EventDayElapsed {
			continue // day ticks are progress, not news
		}
		c.Events = append(c.Events, Event{
			Day:         c.Day,
			Description: ev.Description,
			Category:    "negotiation",
		})
	}
	c.lastLogLen = len(log)
}

func (c *Cycle) installGovernment() {
	cand := c.Candidates[c.current]
	c.gov = government.Form(c.neg.Parties(), c.neg.Agreement(), cand.Compatibility, c.cfg.Government)
	c.state = CycleGoverning
	c.emit("government", fmt.Sprintf("government %s installed, %s takes the premiership",
		cand.Key(), c.gov.PrimeMinister))
	slog.Info("government installed",
		"parties", cand.Key(),
		"pm", c.gov.PrimeMinister,
		"stability", c.gov.Stability,
		"days", c.Day,
	)
}

// nextCandidate advances to the next-ranked coalition after a failure. The
// engine never retries the same candidate on its own; exhaustion is handed
// to the caller as a first-class outcome.
func (c *Cycle) nextCandidate(reason negotiation.FailureReason) {
	c.emit("negotiation", fmt.Sprintf("talks with %s broke down (%s)", c.Candidates[c.current].Key(), reason))

	for i := c.current + 1; i < len(c.Candidates); i++ {
		if c.failed[c.Candidates[i].Key()] {
			continue
		}
		c.openNegotiation(i)
		return
	}

	c.state = CycleFailed
	c.failure = FormationFailed{Reason: reason, ExhaustedCandidates: true}
	c.emit("search", "all coalition candidates exhausted; formation failed")
	slog.Warn("formation failed", "reason", string(reason), "candidates_tried", c.current+1)
}

// Abandon requests a cooperative stop of the running negotiation; it takes
// effect at the next day boundary.
func (c *Cycle) Abandon() {
	if c.state == CycleNegotiating && c.neg != nil {
		c.neg.Abandon()
	}
}

// ApplyPolitical folds an external political event into the sitting
// government. Returns whether a confidence crisis was raised. A collapse
// closes the loop: the failed combination is blacklisted and talks reopen
// with the next candidate, or the cycle signals new elections.
func (c *Cycle) ApplyPolitical(ev government.PoliticalEvent) bool {
	if c.state != CycleGoverning || c.gov == nil {
		return false
	}

	rating, crisis := c.gov.ApplyEvent(ev)
	if crisis {
		c.emit("government", fmt.Sprintf("confidence crisis: stability at %.1f after %s", rating, ev.Name))
		slog.Warn("confidence crisis", "stability", rating, "event", ev.Name)
	}

	if c.gov.Collapsed() {
		key := c.Candidates[c.current].Key()
		c.failed[key] = true
		c.emit("government", fmt.Sprintf("government %s falls", key))
		slog.Warn("government collapsed", "parties", key, "stability", rating)
		c.gov = nil
		c.nextCandidate(negotiation.FailureReason("government_collapsed"))
	}
	return crisis
}

// State returns the cycle's current state.
func (c *Cycle) State() CycleState {
	return c.state
}

// Government returns the sitting government, or nil.
func (c *Cycle) Government() *government.Government {
	return c.gov
}

// Failure returns the terminal failure signal; meaningful only in
// CycleFailed.
func (c *Cycle) Failure() FormationFailed {
	return c.failure
}

// Negotiation returns an immutable snapshot of the running negotiation and
// whether one is active.
func (c *Cycle) Negotiation() (negotiation.Snapshot, bool) {
	if c.neg == nil {
		return negotiation.Snapshot{}, false
	}
	return c.neg.Snapshot(), c.state == CycleNegotiating
}

// CurrentCandidate returns the candidate under negotiation or in office.
func (c *Cycle) CurrentCandidate() coalition.Candidate {
	if len(c.Candidates) == 0 {
		return coalition.Candidate{}
	}
	return c.Candidates[c.current]
}

func (c *Cycle) emit(category, desc string) {
	c.Events = append(c.Events, Event{Day: c.Day, Description: desc, Category: category})
}
