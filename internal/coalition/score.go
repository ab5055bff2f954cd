// Candidate scoring — weighted blend of compatibility, cabinet size, and
// seat margin. Minimal winning coalitions score best, matching Dutch
// formation practice.
package coalition

import (
	"math"

	"github.com/talgya/formateur/internal/election"
	"github.com/talgya/formateur/internal/politics"
)

// Score component weights.
const (
	compatWeight = 0.60
	sizeWeight   = 0.25
	marginWeight = 0.15
)

func score(subset []*politics.Party, res election.Result, cache *politics.CompatCache) Candidate {
	seats := 0
	ids := make([]politics.PartyID, len(subset))
	for i, p := range subset {
		ids[i] = p.ID
		seats += res.Seats[p.ID]
	}

	meanCompat, spread := pairStats(subset, cache)

	c := Candidate{
		Parties:       ids,
		TotalSeats:    seats,
		Compatibility: meanCompat,
		Difficulty:    difficulty(len(subset), spread),
	}
	c.Score = compatWeight*meanCompat +
		sizeWeight*sizeScore(len(subset)) +
		marginWeight*marginScore(seats, res.TotalSeats)
	return c
}

// pairStats returns the mean pairwise compatibility and the widest pairwise
// axis distance (ideological spread) of the subset.
func pairStats(subset []*politics.Party, cache *politics.CompatCache) (mean, spread float64) {
	var sum float64
	pairs := 0
	for i := 0; i < len(subset); i++ {
		for j := i + 1; j < len(subset); j++ {
			sum += cache.Score(subset[i], subset[j])
			pairs++

			de := subset[i].EconomicAxis - subset[j].EconomicAxis
			ds := subset[i].SocialAxis - subset[j].SocialAxis
			if d := math.Hypot(de, ds); d > spread {
				spread = d
			}
		}
	}
	if pairs > 0 {
		mean = sum / float64(pairs)
	}
	return mean, spread
}

// sizeScore favors small cabinets: 1.0 for two parties, dropping 0.2 per
// extra partner.
func sizeScore(partners int) float64 {
	s := 1 - 0.2*float64(partners-2)
	if s < 0 {
		return 0
	}
	return s
}

// marginScore rewards coalitions just above the majority line. Oversized
// coalitions waste concessions on partners they do not need.
func marginScore(seats, totalSeats int) float64 {
	excess := seats - election.Majority(totalSeats)
	s := 1 - 4*float64(excess)/float64(totalSeats)
	if s < 0 {
		return 0
	}
	return s
}

// difficulty estimates how hard the coalition will be to negotiate, 0 to 1,
// from partner count and ideological spread.
func difficulty(partners int, spread float64) float64 {
	d := 0.15*float64(partners-2) + 0.5*spread/math.Hypot(20, 20)
	if d > 1 {
		return 1
	}
	if d < 0 {
		return 0
	}
	return d
}
