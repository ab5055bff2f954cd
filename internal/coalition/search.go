// Package coalition enumerates and scores multi-party coalitions that reach
// a parliamentary majority, using branch-and-bound over parties ordered by
// seat count.
package coalition

import (
	"sort"
	"strings"
	"sync"

	"github.com/talgya/formateur/internal/election"
	"github.com/talgya/formateur/internal/politics"
)

// SearchConfig bounds the search space and tunes candidate scoring.
type SearchConfig struct {
	// MaxPartners caps coalition size. Small cabinets are the norm;
	// anything past five parties is considered unformable.
	MaxPartners int `yaml:"max_partners"`

	// ViabilityFloor is the hard minimum pairwise compatibility. Adding
	// parties never improves the worst pair, so branches below the floor
	// are pruned outright.
	ViabilityFloor float64 `yaml:"viability_floor"`

	// Workers is the scoring pool size. Scoring is pure, so subsets can
	// be scored concurrently over read-only inputs.
	Workers int `yaml:"workers"`
}

// DefaultSearchConfig returns the standard search bounds.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxPartners:    5,
		ViabilityFloor: 0.3,
		Workers:        4,
	}
}

// Candidate is one viable coalition: a party set above the majority line,
// with its scoring breakdown. Parties are ordered by seat count descending,
// which is also the negotiation order.
type Candidate struct {
	Parties       []politics.PartyID `json:"parties"`
	TotalSeats    int                `json:"total_seats"`
	Compatibility float64            `json:"compatibility"` // mean pairwise
	Difficulty    float64            `json:"difficulty"`
	Score         float64            `json:"score"`
}

// Key is a canonical identifier for the party combination, independent of
// ordering. Used to blacklist collapsed combinations on reformation.
func (c Candidate) Key() string {
	ids := make([]string, len(c.Parties))
	for i, id := range c.Parties {
		ids[i] = string(id)
	}
	sort.Strings(ids)
	return strings.Join(ids, "+")
}

// FindViable returns every coalition of seated parties that clears the
// majority line, respects exclusions and the viability floor, and stays
// within MaxPartners — sorted by score descending. An empty slice is a
// valid outcome: no coalition is possible and new elections are needed.
func FindViable(res election.Result, parties []politics.Party, weights politics.IssueWeights, cfg SearchConfig) []Candidate {
	if cfg.MaxPartners <= 0 {
		cfg.MaxPartners = DefaultSearchConfig().MaxPartners
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultSearchConfig().Workers
	}

	// Seated parties only, largest first. Stable sort keeps the
	// allocator's deterministic order for equal seat counts.
	var seated []*politics.Party
	byID := make(map[politics.PartyID]*politics.Party, len(parties))
	for i := range parties {
		byID[parties[i].ID] = &parties[i]
	}
	for _, id := range res.Order {
		if p, ok := byID[id]; ok && res.Seats[id] > 0 {
			seated = append(seated, p)
		}
	}
	sort.SliceStable(seated, func(i, j int) bool {
		return res.Seats[seated[i].ID] > res.Seats[seated[j].ID]
	})

	// Suffix seat sums for the reachability prune.
	suffix := make([]int, len(seated)+1)
	for i := len(seated) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + res.Seats[seated[i].ID]
	}

	majority := election.Majority(res.TotalSeats)
	cache := politics.NewCompatCache(weights)

	var subsets [][]*politics.Party
	var stack []*politics.Party

	var descend func(start, seats int, minCompat float64)
	descend = func(start, seats int, minCompat float64) {
		if len(stack) >= 2 && seats >= majority {
			subset := make([]*politics.Party, len(stack))
			copy(subset, stack)
			subsets = append(subsets, subset)
		}
		if len(stack) == cfg.MaxPartners {
			return
		}
		for i := start; i < len(seated); i++ {
			// Even taking every remaining party cannot reach majority.
			if seats+suffix[i] < majority {
				return
			}
			p := seated[i]

			// The worst pair only gets worse as parties join; below the
			// floor the whole branch is dead. Exclusions score 0 and are
			// pruned by the same check.
			branchMin := minCompat
			viable := true
			for _, member := range stack {
				c := cache.Score(member, p)
				if c < branchMin {
					branchMin = c
				}
				if branchMin < cfg.ViabilityFloor {
					viable = false
					break
				}
			}
			if !viable {
				continue
			}

			stack = append(stack, p)
			descend(i+1, seats+res.Seats[p.ID], branchMin)
			stack = stack[:len(stack)-1]
		}
	}
	descend(0, 0, 1)

	candidates := scoreAll(subsets, res, cache, cfg)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].TotalSeats != candidates[j].TotalSeats {
			return candidates[i].TotalSeats < candidates[j].TotalSeats
		}
		return candidates[i].Key() < candidates[j].Key()
	})
	return candidates
}

// scoreAll scores collected subsets on a bounded worker pool. Each worker
// writes only its own indices; inputs are read-only.
func scoreAll(subsets [][]*politics.Party, res election.Result, cache *politics.CompatCache, cfg SearchConfig) []Candidate {
	if len(subsets) == 0 {
		return nil
	}

	candidates := make([]Candidate, len(subsets))
	workers := cfg.Workers
	if workers > len(subsets) {
		workers = len(subsets)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(subsets); i += workers {
				candidates[i] = score(subsets[i], res, cache)
			}
		}(w)
	}
	wg.Wait()
	return candidates
}
