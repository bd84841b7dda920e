package moderation

import "strings"

// BlacklistMatches reports which deny-lists matched a submission.
type BlacklistMatches struct {
	KeywordHit bool
	EmailHit   bool
	IPHit      bool
	DomainHit  bool
}

// Any reports whether at least one deny-list matched.
func (m BlacklistMatches) Any() bool {
	return m.KeywordHit || m.EmailHit || m.IPHit || m.DomainHit
}

// ReputationResult is the raw verdict of the content-reputation service.
type ReputationResult struct {
	Spam bool
	Tip  string
}

// ReputationSignal is the degradation-aware outcome of one reputation
// service call. Configured=false means the credential was absent and no
// network call was made. Err is set on timeout or transport failure;
// absence of a verdict is not evidence either way.
type ReputationSignal struct {
	Configured bool
	Result     *ReputationResult
	Err        string
}

// BehavioralResult is the raw verdict of the behavioral scoring service.
type BehavioralResult struct {
	Score  float64
	Action string
}

// BehavioralSignal is the degradation-aware outcome of one behavioral
// service call, with the same contract as ReputationSignal.
type BehavioralSignal struct {
	Configured bool
	Result     *BehavioralResult
	Err        string
}

// SignalBundle is the set of signals gathered for one submission.
// Phase 1 produces a bundle without the external fields; Phase 2 builds
// a new merged snapshot instead of mutating the Phase-1 bundle, so the
// engine can be called on each without aliasing.
type SignalBundle struct {
	Content           string
	LinkCount         int
	ContentRejected   bool
	RejectReason      string
	Repetitive        bool
	RateLimited       bool
	HoneypotTriggered bool
	HasPriorApproved  bool
	Blacklist         BlacklistMatches

	// Absent until Phase 2 runs; the engine skips checks on nil fields.
	Reputation *ReputationSignal
	Behavioral *BehavioralSignal
}

// withExternal returns a copy of the bundle with the external signals merged in.
func (b SignalBundle) withExternal(rep *ReputationSignal, beh *BehavioralSignal) SignalBundle {
	merged := b
	merged.Reputation = rep
	merged.Behavioral = beh

	return merged
}

// Summary renders a compact signal trace for audit records.
func (b SignalBundle) Summary() string {
	var parts []string

	add := func(cond bool, tag string) {
		if cond {
			parts = append(parts, tag)
		}
	}

	add(b.ContentRejected, "content_rejected")
	add(b.RateLimited, "rate_limited")
	add(b.HoneypotTriggered, "honeypot")
	add(b.Blacklist.KeywordHit, "blacklist_keyword")
	add(b.Blacklist.EmailHit, "blacklist_email")
	add(b.Blacklist.IPHit, "blacklist_ip")
	add(b.Blacklist.DomainHit, "blacklist_domain")
	add(b.Repetitive, "repetitive")
	add(b.HasPriorApproved, "prior_approved")

	if b.LinkCount > 0 {
		parts = append(parts, "links")
	}

	if b.Reputation != nil {
		switch {
		case !b.Reputation.Configured:
			parts = append(parts, "reputation:unconfigured")
		case b.Reputation.Err != "":
			parts = append(parts, "reputation:error")
		case b.Reputation.Result != nil && b.Reputation.Result.Spam:
			parts = append(parts, "reputation:spam")
		default:
			parts = append(parts, "reputation:clean")
		}
	}

	if b.Behavioral != nil {
		switch {
		case !b.Behavioral.Configured:
			parts = append(parts, "behavioral:unconfigured")
		case b.Behavioral.Err != "":
			parts = append(parts, "behavioral:error")
		default:
			parts = append(parts, "behavioral:scored")
		}
	}

	if len(parts) == 0 {
		return "clean"
	}

	return strings.Join(parts, ",")
}
