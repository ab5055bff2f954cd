package coalition

import (
	"testing"

	"github.com/talgya/formateur/internal/election"
	"github.com/talgya/formateur/internal/politics"
)

// fiveParty builds a parliament where several coalitions are possible:
// a+b (90 seats), a+c (80), b+c+d (85), etc., over 150 seats.
func fiveParty() ([]politics.Party, election.Result) {
	parties := []politics.Party{
		{ID: "a", Name: "A", EconomicAxis: 2, SocialAxis: 1},
		{ID: "b", Name: "B", EconomicAxis: 3, SocialAxis: -1},
		{ID: "c", Name: "C", EconomicAxis: -2, SocialAxis: 0},
		{ID: "d", Name: "D", EconomicAxis: -3, SocialAxis: 2},
		{ID: "e", Name: "E", EconomicAxis: 0, SocialAxis: 3},
	}
	res := election.Result{
		TotalSeats: 150,
		Seats:      map[politics.PartyID]int{"a": 55, "b": 35, "c": 25, "d": 25, "e": 10},
		Order:      []politics.PartyID{"a", "b", "c", "d", "e"},
	}
	for i := range parties {
		parties[i].Seats = res.Seats[parties[i].ID]
	}
	return parties, res
}

func TestFindViableMajorityInvariant(t *testing.T) {
	parties, res := fiveParty()
	candidates := FindViable(res, parties, nil, DefaultSearchConfig())
	if len(candidates) == 0 {
		t.Fatal("expected viable coalitions")
	}

	majority := election.Majority(res.TotalSeats)
	for _, c := range candidates {
		if c.TotalSeats < majority {
			t.Fatalf("candidate %v holds %d seats, below majority %d", c.Parties, c.TotalSeats, majority)
		}
		if len(c.Parties) < 2 || len(c.Parties) > DefaultSearchConfig().MaxPartners {
			t.Fatalf("candidate size out of bounds: %v", c.Parties)
		}
	}
}

func TestFindViableSortedByScore(t *testing.T) {
	parties, res := fiveParty()
	candidates := FindViable(res, parties, nil, DefaultSearchConfig())
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Fatalf("candidates not sorted descending at %d: %v > %v",
				i, candidates[i].Score, candidates[i-1].Score)
		}
	}
}

func TestFindViableExclusionsNeverCoOccur(t *testing.T) {
	parties, res := fiveParty()
	// a+b is the seat-optimal pair; make it impossible.
	parties[0].Exclusions = []politics.PartyID{"b"}
	parties[1].Exclusions = []politics.PartyID{"a"}

	candidates := FindViable(res, parties, nil, DefaultSearchConfig())
	if len(candidates) == 0 {
		t.Fatal("other coalitions should remain viable")
	}
	for _, c := range candidates {
		hasA, hasB := false, false
		for _, id := range c.Parties {
			if id == "a" {
				hasA = true
			}
			if id == "b" {
				hasB = true
			}
		}
		if hasA && hasB {
			t.Fatalf("mutually excluding parties co-occur in %v", c.Parties)
		}
	}
}

func TestFindViableCompatibilityFloor(t *testing.T) {
	parties, res := fiveParty()
	// Push a and c to opposite corners; their pair drops under the floor.
	parties[0].EconomicAxis, parties[0].SocialAxis = -10, -10
	parties[2].EconomicAxis, parties[2].SocialAxis = 10, 10

	candidates := FindViable(res, parties, nil, DefaultSearchConfig())
	for _, c := range candidates {
		hasA, hasC := false, false
		for _, id := range c.Parties {
			if id == "a" {
				hasA = true
			}
			if id == "c" {
				hasC = true
			}
		}
		if hasA && hasC {
			t.Fatalf("pair below viability floor survived pruning: %v", c.Parties)
		}
	}
}

func TestFindViableEmptyWhenNoMajority(t *testing.T) {
	// Three parties, each excluded from governing with the others.
	parties := []politics.Party{
		{ID: "a", Exclusions: []politics.PartyID{"b", "c"}},
		{ID: "b", Exclusions: []politics.PartyID{"a", "c"}},
		{ID: "c", Exclusions: []politics.PartyID{"a", "b"}},
	}
	res := election.Result{
		TotalSeats: 150,
		Seats:      map[politics.PartyID]int{"a": 60, "b": 50, "c": 40},
		Order:      []politics.PartyID{"a", "b", "c"},
	}

	candidates := FindViable(res, parties, nil, DefaultSearchConfig())
	if len(candidates) != 0 {
		t.Fatalf("no coalition is possible, got %d candidates", len(candidates))
	}
}

func TestFindViableMaxPartnersCap(t *testing.T) {
	// Ten tiny parties; only large combinations reach majority.
	var parties []politics.Party
	seats := make(map[politics.PartyID]int)
	var order []politics.PartyID
	for _, id := range []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"} {
		parties = append(parties, politics.Party{ID: politics.PartyID(id)})
		seats[politics.PartyID(id)] = 15
		order = append(order, politics.PartyID(id))
	}
	res := election.Result{TotalSeats: 150, Seats: seats, Order: order}

	cfg := DefaultSearchConfig()
	cfg.MaxPartners = 6
	candidates := FindViable(res, parties, nil, cfg)
	if len(candidates) == 0 {
		t.Fatal("six equal partners reach 90 of 150 seats")
	}
	for _, c := range candidates {
		if len(c.Parties) > 6 {
			t.Fatalf("candidate exceeds partner cap: %v", c.Parties)
		}
	}
}

func TestMinimalWinningPreferred(t *testing.T) {
	parties, res := fiveParty()
	candidates := FindViable(res, parties, nil, DefaultSearchConfig())
	if len(candidates) < 2 {
		t.Fatal("expected several candidates")
	}

	// The top candidate should not strictly contain another viable
	// candidate with the same compatibility profile and fewer partners.
	top := candidates[0]
	for _, other := range candidates[1:] {
		if len(other.Parties) >= len(top.Parties) {
			continue
		}
		if contains(top.Parties, other.Parties) && other.Compatibility >= top.Compatibility {
			t.Fatalf("oversized coalition %v outranked its minimal subset %v", top.Parties, other.Parties)
		}
	}
}

func contains(outer, inner []politics.PartyID) bool {
	set := make(map[politics.PartyID]bool, len(outer))
	for _, id := range outer {
		set[id] = true
	}
	for _, id := range inner {
		if !set[id] {
			return false
		}
	}
	return true
}

func TestCandidateKeyCanonical(t *testing.T) {
	a := Candidate{Parties: []politics.PartyID{"vvd", "nsc", "bbb"}}
	b := Candidate{Parties: []politics.PartyID{"bbb", "vvd", "nsc"}}
	if a.Key() != b.Key() {
		t.Fatalf("key should ignore ordering: %q vs %q", a.Key(), b.Key())
	}
}
