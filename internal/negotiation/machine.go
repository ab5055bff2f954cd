// The negotiation state machine. One Tick advances one simulated day; the
// caller's clock decides real-time pacing. All randomness comes from a
// single seeded source, so a run is reproducible from seed and inputs.
package negotiation

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/talgya/formateur/internal/politics"
)

// State is owned exclusively by the goroutine driving Tick. Observers get
// copies via Snapshot; there is no shared mutable access.
type State struct {
	Phase Phase
	Day   int

	// Trust is the overall mood at the table, 1.0 at the start. It
	// scales resolution chances and only disruptions move it.
	Trust float64

	// Seed reproduces the entire run.
	Seed int64

	parties     []*politics.Party // negotiation order: seats descending
	weights     politics.IssueWeights
	outstanding []politics.IssueID // kept sorted for deterministic draws
	resolved    []politics.IssueID // resolution order
	compromise  map[politics.IssueID]float64

	reason    FailureReason
	log       []Event
	cfg       Config
	rng       *rand.Rand
	abandoned bool

	scoutLeft     int
	formateurLeft int
}

// New starts a negotiation over the given parties (seats descending — the
// order the coalition candidate produced) and open issues.
func New(parties []*politics.Party, weights politics.IssueWeights, issues []politics.IssueID, seed int64, cfg Config) *State {
	outstanding := make([]politics.IssueID, len(issues))
	copy(outstanding, issues)
	sort.Slice(outstanding, func(i, j int) bool { return outstanding[i] < outstanding[j] })

	s := &State{
		Phase:       PhaseScout,
		Trust:       1,
		Seed:        seed,
		parties:     parties,
		weights:     weights,
		outstanding: outstanding,
		compromise:  make(map[politics.IssueID]float64),
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(seed)),
		scoutLeft:   cfg.ScoutDays,
	}
	s.emit(Event{Kind: EventPhaseChange, Phase: s.Phase.String(),
		Description: fmt.Sprintf("scout appointed to explore a %d-party coalition", len(parties))})
	return s
}

// Abandon requests a cooperative stop. It takes effect at the next day
// boundary; no partial day is ever committed.
func (s *State) Abandon() {
	s.abandoned = true
}

// Tick advances one simulated day and reports progress. Calling Tick on a
// terminal state is a no-op returning the same status.
func (s *State) Tick() Status {
	if s.Phase.Terminal() {
		return s.status()
	}
	if s.abandoned {
		s.fail(ReasonAbandoned, "negotiation abandoned by the caller")
		return s.status()
	}

	s.Day++

	switch s.Phase {
	case PhaseScout:
		s.scoutLeft--
		if s.scoutLeft <= 0 {
			s.transition(PhaseInformateur, "informateur takes over detailed bargaining")
		}
	case PhaseInformateur:
		s.informateurDay()
	case PhaseFormateur:
		s.formateurDay()
	}

	// Mandatory ceiling: must fire even under pathological roll sequences.
	if !s.Phase.Terminal() && s.Day >= s.cfg.MaxDays {
		s.fail(ReasonTimeout, fmt.Sprintf("negotiation exceeded %d days", s.cfg.MaxDays))
		return s.status()
	}

	if !s.Phase.Terminal() {
		s.emit(Event{Kind: EventDayElapsed, Phase: s.Phase.String(),
			Description: fmt.Sprintf("day %d closes without agreement", s.Day)})
	}
	return s.status()
}

// informateurDay attempts to settle one outstanding issue, then rolls for
// disruption. Resolution order first keeps runs reproducible.
func (s *State) informateurDay() {
	if len(s.outstanding) > 0 {
		issue := s.drawIssue()
		chance := s.resolveChance(issue)
		if s.rng.Float64() < chance {
			s.resolve(issue)
		}
	}

	// An empty table means nothing can happen; skip the roll entirely so
	// the RNG sequence matches a zero disruption chance.
	if len(s.cfg.Disruptions) > 0 && s.rng.Float64() < s.cfg.DisruptionChance {
		s.disrupt()
		if s.Phase.Terminal() {
			return
		}
	}

	if len(s.outstanding) == 0 {
		s.formateurLeft = s.cfg.FormateurDays
		s.transition(PhaseFormateur, "all chapters settled; formateur drafts the cabinet")
	}
}

func (s *State) formateurDay() {
	s.formateurLeft--
	if s.formateurLeft > 0 {
		return
	}
	s.transition(PhaseSuccess, "coalition agreement signed")
	s.emit(Event{Kind: EventAgreement, Phase: s.Phase.String(),
		Description: fmt.Sprintf("agreement covers %d issues across %d parties", len(s.resolved), len(s.parties))})
}

// drawIssue picks today's bargaining issue, weighted by public importance.
func (s *State) drawIssue() politics.IssueID {
	var total float64
	for _, issue := range s.outstanding {
		total += s.weights.Weight(issue)
	}
	roll := s.rng.Float64() * total
	for _, issue := range s.outstanding {
		roll -= s.weights.Weight(issue)
		if roll < 0 {
			return issue
		}
	}
	return s.outstanding[len(s.outstanding)-1]
}

// resolveChance: base chance plus scaled worst pairwise agreement on the
// issue, all damped by current trust.
func (s *State) resolveChance(issue politics.IssueID) float64 {
	agreement := 1.0
	for i := 0; i < len(s.parties); i++ {
		for j := i + 1; j < len(s.parties); j++ {
			if a := politics.IssueAgreement(s.parties[i], s.parties[j], issue); a < agreement {
				agreement = a
			}
		}
	}
	chance := (s.cfg.BaseResolveChance + s.cfg.CompatResolveWeight*agreement) * s.Trust
	if chance > 1 {
		return 1
	}
	if chance < 0 {
		return 0
	}
	return chance
}

func (s *State) resolve(issue politics.IssueID) {
	s.removeOutstanding(issue)
	s.resolved = append(s.resolved, issue)
	s.compromise[issue] = s.compromisePosition(issue)
	s.emit(Event{Kind: EventIssueResolved, Phase: s.Phase.String(), Issue: issue,
		Description: fmt.Sprintf("chapter on %s settled at %.1f", issue, s.compromise[issue])})
}

// compromisePosition is the seat-weighted mean stance of the partners.
func (s *State) compromisePosition(issue politics.IssueID) float64 {
	var sum, weight float64
	for _, p := range s.parties {
		pos, ok := p.Position(issue)
		if !ok {
			continue
		}
		w := float64(p.Seats)
		if w <= 0 {
			w = 1
		}
		sum += pos * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

// disrupt draws from the weighted disruption table and applies it.
func (s *State) disrupt() {
	d := s.drawDisruption()
	s.emit(Event{Kind: EventDisruption, Phase: s.Phase.String(), Severity: d.Severity,
		Description: d.Name})

	s.Trust -= d.TrustLoss
	if s.Trust < s.cfg.MinTrust {
		s.Trust = s.cfg.MinTrust
	}

	if d.Reopens && len(s.resolved) > 0 {
		// The most recently settled chapter is the freshest wound.
		issue := s.resolved[len(s.resolved)-1]
		s.resolved = s.resolved[:len(s.resolved)-1]
		delete(s.compromise, issue)
		s.insertOutstanding(issue)
		s.emit(Event{Kind: EventIssueReopened, Phase: s.Phase.String(), Issue: issue,
			Description: fmt.Sprintf("chapter on %s reopened", issue)})
	}

	if d.Severity >= s.cfg.SevereThreshold {
		s.fail(ReasonSevereDisruption, fmt.Sprintf("talks collapse: %s", d.Name))
	}
}

func (s *State) drawDisruption() Disruption {
	var total float64
	for _, d := range s.cfg.Disruptions {
		total += d.Weight
	}
	roll := s.rng.Float64() * total
	for _, d := range s.cfg.Disruptions {
		roll -= d.Weight
		if roll < 0 {
			return d
		}
	}
	return s.cfg.Disruptions[len(s.cfg.Disruptions)-1]
}

func (s *State) transition(to Phase, desc string) {
	s.Phase = to
	s.emit(Event{Kind: EventPhaseChange, Phase: to.String(), Description: desc})
}

func (s *State) fail(reason FailureReason, desc string) {
	s.Phase = PhaseFailure
	s.reason = reason
	s.emit(Event{Kind: EventBreakdown, Phase: s.Phase.String(), Description: desc})
}

func (s *State) emit(ev Event) {
	ev.Day = s.Day
	s.log = append(s.log, ev)
}

func (s *State) removeOutstanding(issue politics.IssueID) {
	for i, o := range s.outstanding {
		if o == issue {
			s.outstanding = append(s.outstanding[:i], s.outstanding[i+1:]...)
			return
		}
	}
}

func (s *State) insertOutstanding(issue politics.IssueID) {
	i := sort.Search(len(s.outstanding), func(i int) bool { return s.outstanding[i] >= issue })
	s.outstanding = append(s.outstanding, "")
	copy(s.outstanding[i+1:], s.outstanding[i:])
	s.outstanding[i] = issue
}

// Reason is the structured cause of failure, empty while running or on
// success.
func (s *State) Reason() FailureReason {
	return s.reason
}

// Agreement returns the settled chapters in resolution order. Only
// meaningful once the phase is PhaseSuccess.
func (s *State) Agreement() []politics.AgreementPoint {
	points := make([]politics.AgreementPoint, 0, len(s.resolved))
	for _, issue := range s.resolved {
		points = append(points, politics.AgreementPoint{Issue: issue, Position: s.compromise[issue]})
	}
	return points
}

// Parties returns the negotiation order.
func (s *State) Parties() []*politics.Party {
	return s.parties
}

func (s *State) status() Status {
	return Status{
		Phase:       s.Phase,
		Day:         s.Day,
		Outstanding: len(s.outstanding),
		Resolved:    len(s.resolved),
		Trust:       s.Trust,
		Done:        s.Phase.Terminal(),
		Reason:      s.reason,
	}
}

// Snapshot publishes an immutable copy of the current state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:       s.Phase,
		Day:         s.Day,
		Trust:       s.Trust,
		Parties:     make([]politics.PartyID, len(s.parties)),
		Outstanding: append([]politics.IssueID(nil), s.outstanding...),
		Resolved:    append([]politics.IssueID(nil), s.resolved...),
		Agreement:   s.Agreement(),
		Reason:      s.reason,
		Log:         append([]Event(nil), s.log...),
	}
	for i, p := range s.parties {
		snap.Parties[i] = p.ID
	}
	return snap
}

// Log returns the event log. The slice is shared; callers that hold onto it
// should take a Snapshot instead.
func (s *State) Log() []Event {
	return s.log
}
