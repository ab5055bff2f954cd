// Negotiation phases, event log entries, and failure reasons.
package negotiation

import "github.com/talgya/formateur/internal/politics"

// Phase of the negotiation state machine.
type Phase uint8

const (
	PhaseScout Phase = iota
	PhaseInformateur
	PhaseFormateur
	PhaseSuccess
	PhaseFailure
)

var phaseNames = [...]string{"scout", "informateur", "formateur", "success", "failure"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Terminal reports whether the phase ends the negotiation.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseFailure
}

// EventKind classifies entries of the negotiation event log.
type EventKind string

const (
	EventPhaseChange   EventKind = "phase_change"
	EventIssueResolved EventKind = "issue_resolved"
	EventIssueReopened EventKind = "issue_reopened"
	EventDisruption    EventKind = "disruption"
	EventDayElapsed    EventKind = "day_elapsed"
	EventAgreement     EventKind = "agreement"
	EventBreakdown     EventKind = "breakdown"
)

// Event is one entry of the negotiation log. Failures always carry the log
// that led to them; an unexplained breakdown is a bug.
type Event struct {
	Day         int               `json:"day"`
	Kind        EventKind         `json:"kind"`
	Description string            `json:"description"`
	Phase       string            `json:"phase"`
	Issue       politics.IssueID  `json:"issue,omitempty"`
	Severity    float64           `json:"severity,omitempty"`
}

// FailureReason is the structured cause attached to a failed negotiation.
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonSevereDisruption FailureReason = "severe_disruption"
	ReasonTimeout          FailureReason = "timeout"
	ReasonAbandoned        FailureReason = "abandoned"
)

// Status is the per-tick progress report returned to the caller.
type Status struct {
	Phase       Phase         `json:"phase"`
	Day         int           `json:"day"`
	Outstanding int           `json:"outstanding"`
	Resolved    int           `json:"resolved"`
	Trust       float64       `json:"trust"`
	Done        bool          `json:"done"`
	Reason      FailureReason `json:"reason,omitempty"`
}

// Snapshot is an immutable copy of the negotiation state, published to
// observers at day boundaries. Observers never see the live state.
type Snapshot struct {
	Phase       Phase                     `json:"phase"`
	Day         int                       `json:"day"`
	Trust       float64                   `json:"trust"`
	Parties     []politics.PartyID        `json:"parties"`
	Outstanding []politics.IssueID        `json:"outstanding"`
	Resolved    []politics.IssueID        `json:"resolved"`
	Agreement   []politics.AgreementPoint `json:"agreement"`
	Reason      FailureReason             `json:"reason,omitempty"`
	Log         []Event                   `json:"log"`
}
