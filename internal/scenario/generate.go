// Synthetic electorate generation using layered simplex noise. Axis
// placements, issue stances, and vote shares all come from independent
// noise layers, so one seed reproduces an entire political landscape.
package scenario

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds electorate generation parameters.
type GenConfig struct {
	Parties    int      // Number of parties to generate
	Seed       int64    // Noise seed (0 = random)
	Electorate int64    // Total valid votes to distribute
	TotalSeats int      // Chamber size
	Threshold  float64  // Electoral threshold
	Issues     []string // Issue space
}

// DefaultGenConfig returns a mid-size multiparty landscape.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Parties:    9,
		Seed:       0,
		Electorate: 10_400_000,
		TotalSeats: 150,
		Threshold:  1.0 / 150,
		Issues:     []string{"migration", "housing", "climate", "healthcare", "europe", "taxation"},
	}
}

// exclusionDistance: parties further apart than this on the axis plane
// rule each other out before a single vote is counted.
const exclusionDistance = 15.0

// Generate builds a synthetic scenario. Deterministic for a fixed seed.
func Generate(cfg GenConfig) Scenario {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Independent noise layers for placement, support, and stances.
	axisNoise := opensimplex.NewNormalized(seed)
	supportNoise := opensimplex.NewNormalized(seed + 1)
	issueNoise := opensimplex.NewNormalized(seed + 2)

	sc := Scenario{
		Name:         fmt.Sprintf("synthetic electorate %d", seed),
		TotalSeats:   cfg.TotalSeats,
		Threshold:    cfg.Threshold,
		IssueWeights: make(map[string]float64, len(cfg.Issues)),
	}
	for i, issue := range cfg.Issues {
		// Importance between 0.5 and 3.0, varying smoothly across issues.
		sc.IssueWeights[issue] = 0.5 + 2.5*issueNoise.Eval2(float64(i)*0.61, -4.2)
	}

	supports := make([]float64, cfg.Parties)
	var supportSum float64

	for i := 0; i < cfg.Parties; i++ {
		x := float64(i) * 1.73 // sample stride; decorrelates neighbors

		econ := axisToRange(axisNoise.Eval2(x, 0.5))
		soc := axisToRange(axisNoise.Eval2(x, 7.9))

		p := PartySpec{
			ID:        fmt.Sprintf("p%02d", i+1),
			Name:      fmt.Sprintf("List %d", i+1),
			Economic:  econ,
			Social:    soc,
			Positions: make(map[string]float64, len(cfg.Issues)),
		}

		// Issue stances correlate with the axes plus per-issue jitter:
		// economic issues lean on the economic axis, cultural ones on
		// the social axis.
		for j, issue := range cfg.Issues {
			base := econ
			if j%2 == 1 {
				base = soc
			}
			jitter := (issueNoise.Eval2(x, float64(j)*1.31) - 0.5) * 8
			p.Positions[issue] = clampAxis(base*0.7 + jitter)
		}

		// Support is noise-driven but never zero; squaring spreads the
		// field so a few parties dominate, as real electorates do.
		s := supportNoise.Eval2(x, 2.2)
		supports[i] = 0.02 + s*s
		supportSum += supports[i]

		sc.Parties = append(sc.Parties, p)
	}

	// Distribute the electorate proportionally; the first list absorbs
	// the integer remainder so the total is exact.
	var allocated int64
	for i := range sc.Parties {
		votes := int64(float64(cfg.Electorate) * supports[i] / supportSum)
		sc.Parties[i].Votes = votes
		allocated += votes
	}
	sc.Parties[0].Votes += cfg.Electorate - allocated

	// Corner-to-corner parties refuse each other outright.
	for i := range sc.Parties {
		for j := i + 1; j < len(sc.Parties); j++ {
			de := sc.Parties[i].Economic - sc.Parties[j].Economic
			ds := sc.Parties[i].Social - sc.Parties[j].Social
			if math.Hypot(de, ds) > exclusionDistance {
				sc.Parties[i].Exclusions = append(sc.Parties[i].Exclusions, sc.Parties[j].ID)
				sc.Parties[j].Exclusions = append(sc.Parties[j].Exclusions, sc.Parties[i].ID)
			}
		}
	}

	return sc
}

// axisToRange maps normalized noise [0,1] onto the [-10,10] axis.
func axisToRange(v float64) float64 {
	return clampAxis((v - 0.5) * 20)
}

func clampAxis(v float64) float64 {
	if v < -10 {
		return -10
	}
	if v > 10 {
		return 10
	}
	return v
}
