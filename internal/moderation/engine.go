package moderation

import "fmt"

// Reason strings recorded in verdicts and audit records.
const (
	ReasonRateLimited    = "too many comments from this address, retry later"
	ReasonHoneypot       = "honeypot field filled"
	ReasonBlacklist      = "matched a configured deny-list"
	ReasonRepetitive     = "repetitive content"
	ReasonReputationSpam = "flagged by reputation service"
	ReasonLowScore       = "behavioral score below threshold"
	ReasonTooManyLinks   = "link count above moderation threshold"
	ReasonAllHold        = "moderation policy holds all comments"
	ReasonFirstTimeHold  = "first comment from this author"
	ReasonClean          = "passed all checks"
)

// Evaluate maps a signal bundle and policy to a Verdict. It is a pure
// function: no I/O, no clock, and identical inputs always yield identical
// output. The checks form a strict priority ladder; the first match wins.
//
// Evaluate is called once on the Phase-1 bundle and, unless the run
// short-circuits, again on the merged Phase-2 bundle. Checks on the
// external signals are skipped while those fields are nil, never treated
// as failing.
func Evaluate(bundle SignalBundle, policy Policy) Verdict {
	if bundle.ContentRejected {
		reason := bundle.RejectReason
		if reason == "" {
			reason = "content rejected"
		}

		return newVerdict(DecisionReject, reason)
	}

	if bundle.RateLimited {
		return newVerdict(DecisionRateLimited, ReasonRateLimited)
	}

	// Silent spam verdict so automated submitters get no feedback
	// distinguishing the trap from a normal rejection.
	if policy.HoneypotEnabled && bundle.HoneypotTriggered {
		return newVerdict(DecisionSpam, ReasonHoneypot)
	}

	if bundle.Blacklist.Any() {
		return newVerdict(DecisionSpam, ReasonBlacklist)
	}

	if bundle.Repetitive {
		return newVerdict(DecisionSpam, ReasonRepetitive)
	}

	if rep := bundle.Reputation; rep != nil && rep.Configured && rep.Err == "" && rep.Result != nil && rep.Result.Spam {
		v := newVerdict(DecisionSpam, ReasonReputationSpam)
		v.ServiceTip = rep.Result.Tip

		return v
	}

	if beh := bundle.Behavioral; beh != nil && beh.Configured && beh.Err == "" && beh.Result != nil {
		if beh.Result.Score < policy.BehavioralThreshold {
			v := newVerdict(DecisionHold, fmt.Sprintf("%s (%.2f < %.2f)", ReasonLowScore, beh.Result.Score, policy.BehavioralThreshold))
			score := beh.Result.Score
			v.Score = &score

			return v
		}
	}

	if bundle.LinkCount > policy.MaxLinks {
		return newVerdict(DecisionHold, ReasonTooManyLinks)
	}

	switch policy.Mode {
	case ModeAllHold:
		return newVerdict(DecisionHold, ReasonAllHold)
	case ModeFirstTimeHold:
		if !bundle.HasPriorApproved {
			return newVerdict(DecisionHold, ReasonFirstTimeHold)
		}
	case ModeAuto:
	}

	v := newVerdict(DecisionApprove, ReasonClean)
	if beh := bundle.Behavioral; beh != nil && beh.Configured && beh.Err == "" && beh.Result != nil {
		score := beh.Result.Score
		v.Score = &score
	}

	return v
}
