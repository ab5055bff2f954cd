// Package scenario loads election scenarios from YAML and generates
// synthetic electorates for unattended runs.
package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/talgya/formateur/internal/coalition"
	"github.com/talgya/formateur/internal/negotiation"
	"github.com/talgya/formateur/internal/politics"
)

// PartySpec is one party entry of a scenario file.
type PartySpec struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Votes      int64              `yaml:"votes"`
	Economic   float64            `yaml:"economic"`
	Social     float64            `yaml:"social"`
	Positions  map[string]float64 `yaml:"positions"`
	Exclusions []string           `yaml:"exclusions"`
}

// Scenario is a complete election setup: parties, chamber, the public
// importance of each issue, and optional engine tunable overrides.
type Scenario struct {
	Name         string             `yaml:"name"`
	TotalSeats   int                `yaml:"total_seats"`
	Threshold    float64            `yaml:"threshold"`
	Parties      []PartySpec        `yaml:"parties"`
	IssueWeights map[string]float64 `yaml:"issue_weights"`

	// Optional overrides; nil means engine defaults. Parse seeds these
	// with the defaults so files only name the fields they change.
	Search      *coalition.SearchConfig `yaml:"search"`
	Negotiation *negotiation.Config     `yaml:"negotiation"`
}

// Parse decodes and validates a scenario payload.
func Parse(data []byte) (Scenario, error) {
	// Pre-seeding the override sections gives partial-override
	// semantics: yaml fills only the keys present in the file.
	searchDef := coalition.DefaultSearchConfig()
	negDef := negotiation.DefaultConfig()
	sc := Scenario{
		Search:      &searchDef,
		Negotiation: &negDef,
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// LoadFile reads a scenario from disk.
func LoadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return sc, nil
}

// Validate checks structural soundness: unique IDs, axes and positions in
// range, exclusions referencing known parties.
func (sc Scenario) Validate() error {
	if sc.TotalSeats <= 0 {
		return fmt.Errorf("scenario: total_seats must be positive, got %d", sc.TotalSeats)
	}
	if sc.Threshold < 0 || sc.Threshold >= 1 {
		return fmt.Errorf("scenario: threshold must be in [0,1), got %v", sc.Threshold)
	}
	if len(sc.Parties) == 0 {
		return fmt.Errorf("scenario: no parties defined")
	}

	ids := make(map[string]bool, len(sc.Parties))
	for _, p := range sc.Parties {
		if p.ID == "" {
			return fmt.Errorf("scenario: party with empty id")
		}
		if ids[p.ID] {
			return fmt.Errorf("scenario: duplicate party id %q", p.ID)
		}
		ids[p.ID] = true

		if p.Votes < 0 {
			return fmt.Errorf("scenario: party %q has negative votes", p.ID)
		}
		if !inAxisRange(p.Economic) || !inAxisRange(p.Social) {
			return fmt.Errorf("scenario: party %q axis out of [-10,10]", p.ID)
		}
		for issue, pos := range p.Positions {
			if !inAxisRange(pos) {
				return fmt.Errorf("scenario: party %q position on %q out of [-10,10]", p.ID, issue)
			}
		}
	}

	for _, p := range sc.Parties {
		for _, ex := range p.Exclusions {
			if !ids[ex] {
				return fmt.Errorf("scenario: party %q excludes unknown party %q", p.ID, ex)
			}
		}
	}

	if s := sc.Search; s != nil {
		if s.MaxPartners < 2 {
			return fmt.Errorf("scenario: search.max_partners must be at least 2, got %d", s.MaxPartners)
		}
		if s.ViabilityFloor < 0 || s.ViabilityFloor > 1 {
			return fmt.Errorf("scenario: search.viability_floor must be in [0,1], got %v", s.ViabilityFloor)
		}
		if s.Workers < 1 {
			return fmt.Errorf("scenario: search.workers must be positive, got %d", s.Workers)
		}
	}
	if n := sc.Negotiation; n != nil {
		if n.MaxDays <= 0 {
			return fmt.Errorf("scenario: negotiation.max_days must be positive, got %d", n.MaxDays)
		}
		for name, v := range map[string]float64{
			"disruption_chance":   n.DisruptionChance,
			"severe_threshold":    n.SevereThreshold,
			"base_resolve_chance": n.BaseResolveChance,
		} {
			if v < 0 || v > 1 {
				return fmt.Errorf("scenario: negotiation.%s must be in [0,1], got %v", name, v)
			}
		}
		if n.DisruptionChance > 0 && len(n.Disruptions) == 0 {
			return fmt.Errorf("scenario: negotiation.disruption_chance %v requires a non-empty disruptions table", n.DisruptionChance)
		}
	}
	return nil
}

func inAxisRange(v float64) bool {
	return v >= -10 && v <= 10
}

// Build converts the scenario into the engine's data model. The issue list
// is the sorted union of weighted issues and party stances.
func (sc Scenario) Build() ([]politics.Party, politics.IssueWeights, []politics.IssueID) {
	parties := make([]politics.Party, 0, len(sc.Parties))
	issueSet := make(map[politics.IssueID]bool)

	for _, spec := range sc.Parties {
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		p := politics.Party{
			ID:             politics.PartyID(spec.ID),
			Name:           name,
			Votes:          spec.Votes,
			IssuePositions: make(map[politics.IssueID]float64, len(spec.Positions)),
			EconomicAxis:   spec.Economic,
			SocialAxis:     spec.Social,
		}
		for issue, pos := range spec.Positions {
			p.IssuePositions[politics.IssueID(issue)] = pos
			issueSet[politics.IssueID(issue)] = true
		}
		for _, ex := range spec.Exclusions {
			p.Exclusions = append(p.Exclusions, politics.PartyID(ex))
		}
		parties = append(parties, p)
	}

	weights := make(politics.IssueWeights, len(sc.IssueWeights))
	for issue, w := range sc.IssueWeights {
		weights[politics.IssueID(issue)] = w
		issueSet[politics.IssueID(issue)] = true
	}

	issues := make([]politics.IssueID, 0, len(issueSet))
	for issue := range issueSet {
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i] < issues[j] })

	return parties, weights, issues
}
