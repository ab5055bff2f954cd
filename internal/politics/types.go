// Package politics holds the party data model shared by the allocator,
// the coalition search, and the negotiation machine.
package politics

// PartyID uniquely identifies a party within one formation cycle.
type PartyID string

// IssueID identifies a policy issue (e.g. "immigration", "climate").
type IssueID string

// Party is read-only for the duration of a formation cycle. Seats is the
// one field written after creation, by the electoral allocator.
type Party struct {
	ID    PartyID `json:"id"`
	Name  string  `json:"name"`
	Votes int64   `json:"votes"`
	Seats int     `json:"seats"`

	// Position on the two ideological axes, -10 to +10.
	EconomicAxis float64 `json:"economic_axis"`
	SocialAxis   float64 `json:"social_axis"`

	// Stance per issue, -10 to +10. Issues absent from the map carry
	// no stance and never contribute to disagreement.
	IssuePositions map[IssueID]float64 `json:"issue_positions"`

	// Parties this party refuses to govern with, whatever the numbers say.
	Exclusions []PartyID `json:"exclusions,omitempty"`
}

// Excludes reports whether the party has ruled out governing with other.
func (p *Party) Excludes(other PartyID) bool {
	for _, id := range p.Exclusions {
		if id == other {
			return true
		}
	}
	return false
}

// Position returns the party's stance on an issue and whether it holds one.
func (p *Party) Position(issue IssueID) (float64, bool) {
	pos, ok := p.IssuePositions[issue]
	return pos, ok
}

// IssueWeights maps issues to their public importance. Weights are relative;
// an issue missing from the map counts with weight 1.
type IssueWeights map[IssueID]float64

// Weight returns the importance of an issue, defaulting to 1.
func (w IssueWeights) Weight(issue IssueID) float64 {
	if w == nil {
		return 1
	}
	if v, ok := w[issue]; ok && v > 0 {
		return v
	}
	return 1
}

// AgreementPoint is one settled chapter of a coalition agreement: an issue
// and the compromise position the partners landed on.
type AgreementPoint struct {
	Issue    IssueID `json:"issue"`
	Position float64 `json:"position"`
}
