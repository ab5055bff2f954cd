package engine

import (
	"errors"
	"testing"

	"github.com/talgya/formateur/internal/election"
	"github.com/talgya/formateur/internal/government"
	"github.com/talgya/formateur/internal/negotiation"
	"github.com/talgya/formateur/internal/politics"
)

func testParliament() ([]politics.Party, politics.IssueWeights, []politics.IssueID) {
	parties := []politics.Party{
		{ID: "a", Name: "A", Votes: 400000, EconomicAxis: 2, SocialAxis: 1,
			IssuePositions: map[politics.IssueID]float64{"climate": 1, "housing": 2}},
		{ID: "b", Name: "B", Votes: 300000, EconomicAxis: 1, SocialAxis: -1,
			IssuePositions: map[politics.IssueID]float64{"climate": -1, "housing": 1}},
		{ID: "c", Name: "C", Votes: 200000, EconomicAxis: -2, SocialAxis: 0,
			IssuePositions: map[politics.IssueID]float64{"climate": 0, "housing": -1}},
		{ID: "d", Name: "D", Votes: 100000, EconomicAxis: 0, SocialAxis: 2,
			IssuePositions: map[politics.IssueID]float64{"climate": 2, "housing": 0}},
	}
	weights := politics.IssueWeights{"climate": 2, "housing": 1}
	issues := []politics.IssueID{"climate", "housing"}
	return parties, weights, issues
}

func runUntil(t *testing.T, c *Cycle, want CycleState, maxDays int) {
	t.Helper()
	for i := 0; i < maxDays; i++ {
		if c.State() == want {
			return
		}
		c.TickDay()
	}
	t.Fatalf("cycle never reached %s within %d days (state %s)", want, maxDays, c.State())
}

func TestCycleFormsGovernment(t *testing.T) {
	parties, weights, issues := testParliament()
	cfg := DefaultConfig()
	cfg.Negotiation.BaseResolveChance = 1
	cfg.Negotiation.DisruptionChance = 0

	c, err := NewCycle(parties, weights, issues, cfg)
	if err != nil {
		t.Fatalf("new cycle: %v", err)
	}
	if c.State() != CycleNegotiating {
		t.Fatalf("cycle should open negotiations, state %s", c.State())
	}

	runUntil(t, c, CycleGoverning, 30)

	gov := c.Government()
	if gov == nil {
		t.Fatal("governing cycle should expose a government")
	}
	if len(gov.Agreement) != len(issues) {
		t.Fatalf("agreement covers %d issues, want %d", len(gov.Agreement), len(issues))
	}
}

func TestCycleAdvancesToNextCandidateOnFailure(t *testing.T) {
	parties, weights, issues := testParliament()
	cfg := DefaultConfig()
	// First candidate's talks will be abandoned; the cycle must move on,
	// not retry the same candidate.
	cfg.Negotiation.BaseResolveChance = 1
	cfg.Negotiation.DisruptionChance = 0

	c, err := NewCycle(parties, weights, issues, cfg)
	if err != nil {
		t.Fatalf("new cycle: %v", err)
	}
	if len(c.Candidates) < 2 {
		t.Fatalf("test needs at least two candidates, got %d", len(c.Candidates))
	}
	first := c.CurrentCandidate().Key()

	c.Abandon()
	c.TickDay()

	if c.State() != CycleNegotiating {
		t.Fatalf("cycle should reopen talks, state %s", c.State())
	}
	if c.CurrentCandidate().Key() == first {
		t.Fatal("cycle retried the failed candidate")
	}
}

func TestCycleExhaustionSignalsFormationFailed(t *testing.T) {
	parties, weights, issues := testParliament()
	cfg := DefaultConfig()
	// Every negotiation fails immediately: guaranteed severe disruption.
	cfg.Negotiation.DisruptionChance = 1
	cfg.Negotiation.Disruptions = []negotiation.Disruption{
		{Name: "walkout", Weight: 1, Severity: 1, TrustLoss: 1},
	}

	c, err := NewCycle(parties, weights, issues, cfg)
	if err != nil {
		t.Fatalf("new cycle: %v", err)
	}

	// Generous ceiling: every candidate burns a few days before failing.
	runUntil(t, c, CycleFailed, len(c.Candidates)*10+10)

	fail := c.Failure()
	if !fail.ExhaustedCandidates {
		t.Fatalf("exhaustion flag not set: %+v", fail)
	}
	if fail.Reason != negotiation.ReasonSevereDisruption {
		t.Fatalf("want severe-disruption reason, got %q", fail.Reason)
	}
}

func TestCycleNeedElectionsWhenNoCoalition(t *testing.T) {
	// Mutually exclusive parliament: no viable coalition at all.
	parties := []politics.Party{
		{ID: "a", Votes: 500000, Exclusions: []politics.PartyID{"b", "c"}},
		{ID: "b", Votes: 400000, Exclusions: []politics.PartyID{"a", "c"}},
		{ID: "c", Votes: 300000, Exclusions: []politics.PartyID{"a", "b"}},
	}

	c, err := NewCycle(parties, nil, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("new cycle: %v", err)
	}
	if c.State() != CycleNeedElections {
		t.Fatalf("want need_elections, got %s", c.State())
	}
}

func TestCycleRejectsBadInput(t *testing.T) {
	parties := []politics.Party{{ID: "a", Votes: -1}}
	if _, err := NewCycle(parties, nil, nil, DefaultConfig()); !errors.Is(err, election.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestCollapseReopensNegotiation(t *testing.T) {
	parties, weights, issues := testParliament()
	cfg := DefaultConfig()
	cfg.Negotiation.BaseResolveChance = 1
	cfg.Negotiation.DisruptionChance = 0

	c, err := NewCycle(parties, weights, issues, cfg)
	if err != nil {
		t.Fatalf("new cycle: %v", err)
	}
	runUntil(t, c, CycleGoverning, 30)
	collapsed := c.CurrentCandidate().Key()

	crisis := c.ApplyPolitical(government.PoliticalEvent{Name: "coalition scandal", Magnitude: -200})
	if !crisis {
		t.Fatal("driving stability to zero should raise a crisis")
	}
	if c.State() != CycleNegotiating {
		t.Fatalf("collapse should reopen talks, state %s", c.State())
	}
	if c.Government() != nil {
		t.Fatal("collapsed government should be gone")
	}
	if c.CurrentCandidate().Key() == collapsed {
		t.Fatal("collapsed combination must not be retried")
	}

	// Events on a cycle without a sitting government are ignored.
	if c.ApplyPolitical(government.PoliticalEvent{Name: "noise", Magnitude: -10}) {
		t.Fatal("no government, no crisis")
	}
}
