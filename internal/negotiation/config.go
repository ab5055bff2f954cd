// Package negotiation drives a chosen coalition candidate through the
// Scout, Informateur, and Formateur phases, one simulated day per tick.
package negotiation

// Disruption is one entry of the weighted disruption table.
type Disruption struct {
	Name      string  `yaml:"name" json:"name"`
	Weight    float64 `yaml:"weight" json:"weight"`
	Severity  float64 `yaml:"severity" json:"severity"`     // 0–1
	TrustLoss float64 `yaml:"trust_loss" json:"trust_loss"` // subtracted from table trust
	Reopens   bool    `yaml:"reopens" json:"reopens"`       // pulls a resolved issue back
}

// Config holds the tunable negotiation parameters. The defaults are the
// documented baseline; scenario files may override any of them.
type Config struct {
	// ScoutDays is the fixed length of the exploratory phase.
	ScoutDays int `yaml:"scout_days"`

	// FormateurDays is the fixed length of the finalization phase.
	FormateurDays int `yaml:"formateur_days"`

	// MaxDays is the hard ceiling over all phases. Exceeding it forces
	// failure no matter how the rolls went.
	MaxDays int `yaml:"max_days"`

	// DisruptionChance is the independent per-day probability of drawing
	// from the disruption table.
	DisruptionChance float64 `yaml:"disruption_chance"`

	// SevereThreshold: disruptions at or above this severity break off
	// the negotiation immediately.
	SevereThreshold float64 `yaml:"severe_threshold"`

	// BaseResolveChance is the floor probability of settling the day's
	// issue before compatibility and trust scaling.
	BaseResolveChance float64 `yaml:"base_resolve_chance"`

	// CompatResolveWeight scales how much pairwise agreement on the
	// issue adds to the resolution chance.
	CompatResolveWeight float64 `yaml:"compat_resolve_weight"`

	// MinTrust is the floor the table's trust level cannot sink below.
	MinTrust float64 `yaml:"min_trust"`

	Disruptions []Disruption `yaml:"disruptions"`
}

// DefaultConfig returns the baseline negotiation parameters.
func DefaultConfig() Config {
	return Config{
		ScoutDays:           2,
		FormateurDays:       3,
		MaxDays:             120,
		DisruptionChance:    0.05,
		SevereThreshold:     0.8,
		BaseResolveChance:   0.25,
		CompatResolveWeight: 0.5,
		MinTrust:            0.2,
		Disruptions: []Disruption{
			{Name: "minor leak to the press", Weight: 0.30, Severity: 0.15, TrustLoss: 0.05},
			{Name: "party withdraws an issue concession", Weight: 0.25, Severity: 0.30, TrustLoss: 0.05, Reopens: true},
			{Name: "backbench revolt over a draft chapter", Weight: 0.20, Severity: 0.45, TrustLoss: 0.10, Reopens: true},
			{Name: "external scandal hits a coalition partner", Weight: 0.15, Severity: 0.60, TrustLoss: 0.20},
			{Name: "party leadership crisis", Weight: 0.10, Severity: 0.85, TrustLoss: 0.40},
		},
	}
}
