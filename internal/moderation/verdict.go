package moderation

import "time"

// Decision is the terminal tag of a Verdict.
type Decision string

const (
	DecisionReject      Decision = "reject"
	DecisionRateLimited Decision = "rate_limited"
	DecisionSpam        Decision = "spam"
	DecisionHold        Decision = "hold"
	DecisionApprove     Decision = "approve"
)

// Verdict is the single output of one pipeline run.
// IsApproved and IsSpam are never both true: hold and rate_limited are
// queued states that are neither approved nor spam.
type Verdict struct {
	Decision   Decision
	Reason     string
	IsApproved bool
	IsSpam     bool

	// Score is the behavioral service score when one was obtained.
	Score *float64
	// ServiceTip is an optional human-readable hint from the reputation service.
	ServiceTip string
}

func newVerdict(decision Decision, reason string) Verdict {
	return Verdict{
		Decision:   decision,
		Reason:     reason,
		IsApproved: decision == DecisionApprove,
		IsSpam:     decision == DecisionSpam || decision == DecisionReject,
	}
}

// AuditRecord is the append-only trace of one pipeline run.
type AuditRecord struct {
	Decision      Decision
	TargetType    string
	TargetID      string
	Reason        string
	SignalSummary string
	Timestamp     time.Time
}
