// Pairwise ideological compatibility scoring.
package politics

import (
	"math"
	"sort"
	"sync"
)

// axisSpan is the largest possible distance on the two-axis plane,
// corner to corner of the [-10,10] square.
var axisSpan = math.Hypot(20, 20)

// issuePenaltyWeight scales how much salience-weighted issue disagreement
// subtracts from the axis-distance score.
const issuePenaltyWeight = 0.35

// Compatibility scores how well two parties could govern together, 0 to 1.
// It is 1 minus the normalized axis distance, minus a penalty for
// disagreement on issues weighted by public importance. A listed exclusion
// on either side is a hard 0 regardless of the numbers. Symmetric and pure.
func Compatibility(a, b *Party, weights IssueWeights) float64 {
	if a.Excludes(b.ID) || b.Excludes(a.ID) {
		return 0
	}

	de := a.EconomicAxis - b.EconomicAxis
	ds := a.SocialAxis - b.SocialAxis
	score := 1 - math.Hypot(de, ds)/axisSpan

	score -= issuePenaltyWeight * issueDisagreement(a, b, weights)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// issueDisagreement is the importance-weighted mean normalized gap across
// issues both parties hold a stance on, 0 (full agreement) to 1. The shared
// issues are accumulated in sorted order: float addition is not associative,
// and map-order summation would make the score depend on the argument order.
func issueDisagreement(a, b *Party, weights IssueWeights) float64 {
	shared := make([]IssueID, 0, len(a.IssuePositions))
	for issue := range a.IssuePositions {
		if _, ok := b.IssuePositions[issue]; ok {
			shared = append(shared, issue)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })

	var sum, wsum float64
	for _, issue := range shared {
		w := weights.Weight(issue)
		sum += w * math.Abs(a.IssuePositions[issue]-b.IssuePositions[issue]) / 20
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// IssueAgreement is how closely two parties agree on a single issue, 0 to 1.
// Parties without a stance on the issue are treated as fully agreeable.
func IssueAgreement(a, b *Party, issue IssueID) float64 {
	pa, okA := a.Position(issue)
	pb, okB := b.Position(issue)
	if !okA || !okB {
		return 1
	}
	return 1 - math.Abs(pa-pb)/20
}

// CompatCache memoizes Compatibility by unordered ID pair. Safe for
// concurrent use; scores never change within a formation cycle.
type CompatCache struct {
	weights IssueWeights

	mu     sync.RWMutex
	scores map[[2]PartyID]float64
}

// NewCompatCache creates a cache bound to one set of issue weights.
func NewCompatCache(weights IssueWeights) *CompatCache {
	return &CompatCache{
		weights: weights,
		scores:  make(map[[2]PartyID]float64),
	}
}

// Score returns the memoized compatibility of a and b.
func (c *CompatCache) Score(a, b *Party) float64 {
	key := pairKey(a.ID, b.ID)

	c.mu.RLock()
	score, ok := c.scores[key]
	c.mu.RUnlock()
	if ok {
		return score
	}

	score = Compatibility(a, b, c.weights)
	c.mu.Lock()
	c.scores[key] = score
	c.mu.Unlock()
	return score
}

func pairKey(a, b PartyID) [2]PartyID {
	if b < a {
		a, b = b, a
	}
	return [2]PartyID{a, b}
}
