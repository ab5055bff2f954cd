package politics

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func testParty(id string, econ, social float64) *Party {
	return &Party{
		ID:           PartyID(id),
		Name:         id,
		EconomicAxis: econ,
		SocialAxis:   social,
		IssuePositions: map[IssueID]float64{
			"immigration": econ / 2,
			"climate":     social / 2,
		},
	}
}

func TestCompatibilityIdenticalParties(t *testing.T) {
	a := testParty("a", 3, -2)
	b := testParty("b", 3, -2)
	if got := Compatibility(a, b, nil); got != 1 {
		t.Fatalf("identical parties should score 1, got %v", got)
	}
}

func TestCompatibilitySymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	weights := IssueWeights{"immigration": 3, "climate": 1.5}
	for i := 0; i < 200; i++ {
		a := testParty("a", rng.Float64()*20-10, rng.Float64()*20-10)
		b := testParty("b", rng.Float64()*20-10, rng.Float64()*20-10)
		ab := Compatibility(a, b, weights)
		ba := Compatibility(b, a, weights)
		if ab != ba {
			t.Fatalf("asymmetric score: Compatibility(a,b)=%v Compatibility(b,a)=%v", ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("score out of range: %v", ab)
		}
	}
}

func TestCompatibilitySymmetryManyIssues(t *testing.T) {
	// With many shared issues, the weighted sum only stays symmetric if
	// the terms are accumulated in a fixed order: float addition is not
	// associative, and mixed-magnitude weights expose any order drift in
	// the last ULP.
	rng := rand.New(rand.NewSource(13))
	weights := make(IssueWeights, 20)
	a := &Party{ID: "a", IssuePositions: make(map[IssueID]float64, 20)}
	b := &Party{ID: "b", IssuePositions: make(map[IssueID]float64, 20)}
	for i := 0; i < 20; i++ {
		issue := IssueID(fmt.Sprintf("issue-%02d", i))
		a.IssuePositions[issue] = rng.Float64()*20 - 10
		b.IssuePositions[issue] = rng.Float64()*20 - 10
		weights[issue] = math.Pow(10, rng.Float64()*4-2)
	}

	// Map iteration order varies between lookups, so repeat the exact
	// same comparison many times.
	for trial := 0; trial < 200; trial++ {
		ab := Compatibility(a, b, weights)
		ba := Compatibility(b, a, weights)
		if ab != ba {
			t.Fatalf("trial %d: Compatibility(a,b)=%.20f != Compatibility(b,a)=%.20f", trial, ab, ba)
		}
	}
}

func TestCompatibilityExclusionOverridesScore(t *testing.T) {
	a := testParty("a", 1, 1)
	b := testParty("b", 1.5, 1)
	b.Exclusions = []PartyID{"a"}

	if got := Compatibility(a, b, nil); got != 0 {
		t.Fatalf("excluded pair should score 0, got %v", got)
	}
	// One-sided exclusion applies in both call orders.
	if got := Compatibility(b, a, nil); got != 0 {
		t.Fatalf("excluded pair (reversed) should score 0, got %v", got)
	}
}

func TestCompatibilityOppositeCorners(t *testing.T) {
	a := testParty("a", -10, -10)
	b := testParty("b", 10, 10)
	if got := Compatibility(a, b, nil); got != 0 {
		t.Fatalf("corner-to-corner parties should bottom out at 0, got %v", got)
	}
}

func TestIssueDisagreementLowersScore(t *testing.T) {
	a := testParty("a", 0, 0)
	b := testParty("b", 0, 0)
	base := Compatibility(a, b, nil)

	b.IssuePositions["immigration"] = 10
	a.IssuePositions["immigration"] = -10
	weighted := Compatibility(a, b, IssueWeights{"immigration": 5})
	if weighted >= base {
		t.Fatalf("salient disagreement should lower score: base=%v weighted=%v", base, weighted)
	}
}

func TestIssueAgreement(t *testing.T) {
	a := testParty("a", 0, 0)
	b := testParty("b", 0, 0)
	a.IssuePositions["housing"] = -10
	b.IssuePositions["housing"] = 10

	if got := IssueAgreement(a, b, "housing"); got != 0 {
		t.Fatalf("maximal gap should agree 0, got %v", got)
	}
	if got := IssueAgreement(a, b, "unknown"); got != 1 {
		t.Fatalf("issue without stances should agree 1, got %v", got)
	}
}

func TestCompatCache(t *testing.T) {
	weights := IssueWeights{"immigration": 2}
	cache := NewCompatCache(weights)
	a := testParty("a", 2, 3)
	b := testParty("b", -1, 4)

	direct := Compatibility(a, b, weights)
	if got := cache.Score(a, b); got != direct {
		t.Fatalf("cache miss returned %v, want %v", got, direct)
	}
	if got := cache.Score(b, a); got != direct {
		t.Fatalf("reversed lookup returned %v, want %v", got, direct)
	}
	if len(cache.scores) != 1 {
		t.Fatalf("unordered pair should occupy one cache slot, got %d", len(cache.scores))
	}
}
