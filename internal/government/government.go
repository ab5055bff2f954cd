// Package government models the installed coalition: premiership, ministry
// allocation, the coalition agreement, and the stability rating that decides
// whether the cabinet survives.
package government

import (
	"github.com/google/uuid"

	"github.com/talgya/formateur/internal/politics"
)

// Ministry is a cabinet post. The list order is the allocation (prestige)
// order; General Affairs belongs to the prime minister and is not drawn
// from the pool.
type Ministry string

var Ministries = []Ministry{
	"Finance",
	"Foreign Affairs",
	"Justice and Security",
	"Interior",
	"Defence",
	"Economic Affairs",
	"Social Affairs and Employment",
	"Health and Welfare",
	"Infrastructure",
	"Education and Science",
	"Agriculture",
	"Climate and Energy",
}

// Config holds the governance-phase thresholds.
type Config struct {
	// CrisisThreshold: below this rating a confidence crisis is raised.
	CrisisThreshold float64 `yaml:"crisis_threshold"`

	// CollapseThreshold: below this rating the government falls.
	CollapseThreshold float64 `yaml:"collapse_threshold"`
}

// DefaultConfig returns the standard governance thresholds.
func DefaultConfig() Config {
	return Config{
		CrisisThreshold:   20,
		CollapseThreshold: 5,
	}
}

// Government is a finalized coalition in office.
type Government struct {
	ID            string                          `json:"id"`
	Parties       []politics.PartyID              `json:"parties"` // negotiation order
	PrimeMinister politics.PartyID                `json:"prime_minister"`
	Ministries    map[politics.PartyID][]Ministry `json:"ministries"`
	Agreement     []politics.AgreementPoint       `json:"agreement"`
	Stability     float64                         `json:"stability"` // 0–100

	cfg      Config
	inCrisis bool
}

// Form builds a government from a successful negotiation: the largest party
// takes the premiership (ties broken by negotiation order) plus first pick;
// the remaining ministries are distributed by highest averages over seat
// share, ties again by negotiation order. Pure construction — no
// negotiation logic, no randomness.
func Form(parties []*politics.Party, agreement []politics.AgreementPoint, compatibility float64, cfg Config) *Government {
	g := &Government{
		ID:         uuid.NewString(),
		Parties:    make([]politics.PartyID, len(parties)),
		Ministries: make(map[politics.PartyID][]Ministry, len(parties)),
		Agreement:  agreement,
		Stability:  initialStability(compatibility),
		cfg:        cfg,
	}

	pm := 0
	for i, p := range parties {
		g.Parties[i] = p.ID
		if p.Seats > parties[pm].Seats {
			pm = i
		}
	}
	g.PrimeMinister = parties[pm].ID

	allocateMinistries(g, parties)
	return g
}

// allocateMinistries hands the first post to the prime minister's party,
// then runs highest averages over seat counts for the rest. Using the same
// quotient rule as the seat allocator keeps ministry shares proportional.
func allocateMinistries(g *Government, parties []*politics.Party) {
	held := make([]int, len(parties))

	for _, p := range parties {
		g.Ministries[p.ID] = nil
	}

	pmIdx := 0
	for i, p := range parties {
		if p.ID == g.PrimeMinister {
			pmIdx = i
			break
		}
	}

	assign := func(i int, m Ministry) {
		g.Ministries[parties[i].ID] = append(g.Ministries[parties[i].ID], m)
		held[i]++
	}

	for n, m := range Ministries {
		if n == 0 {
			// First pick goes with the premiership.
			assign(pmIdx, m)
			continue
		}
		best := 0
		for i := 1; i < len(parties); i++ {
			lhs := int64(parties[i].Seats) * int64(held[best]+1)
			rhs := int64(parties[best].Seats) * int64(held[i]+1)
			if lhs > rhs {
				best = i
			}
		}
		assign(best, m)
	}
}

// initialStability maps coalition compatibility onto the 0–100 rating.
// Even an ideal coalition does not start untouchable.
func initialStability(compatibility float64) float64 {
	return clamp(30 + compatibility*55)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
