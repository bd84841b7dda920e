package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoPolicy() Policy {
	return Policy{
		Mode:                ModeAuto,
		MaxLinks:            2,
		MaxContentLength:    65535,
		HoneypotEnabled:     true,
		ReputationEnabled:   true,
		BehavioralEnabled:   true,
		BehavioralThreshold: 0.5,
		RateLimitPerMinute:  3,
	}
}

func cleanReputation() *ReputationSignal {
	return &ReputationSignal{Configured: true, Result: &ReputationResult{Spam: false}}
}

func cleanBehavioral() *BehavioralSignal {
	return &BehavioralSignal{Configured: true, Result: &BehavioralResult{Score: 1.0}}
}

func TestEvaluate_PriorityLadder(t *testing.T) {
	tests := []struct {
		name     string
		bundle   SignalBundle
		policy   Policy
		decision Decision
	}{
		{
			name: "content rejected wins over everything",
			bundle: SignalBundle{
				ContentRejected:   true,
				RejectReason:      "content is empty",
				RateLimited:       true,
				HoneypotTriggered: true,
				Blacklist:         BlacklistMatches{KeywordHit: true},
			},
			policy:   autoPolicy(),
			decision: DecisionReject,
		},
		{
			name:     "rate limited beats honeypot",
			bundle:   SignalBundle{RateLimited: true, HoneypotTriggered: true},
			policy:   autoPolicy(),
			decision: DecisionRateLimited,
		},
		{
			name: "honeypot beats blacklist",
			bundle: SignalBundle{
				HoneypotTriggered: true,
				Blacklist:         BlacklistMatches{EmailHit: true},
			},
			policy:   autoPolicy(),
			decision: DecisionSpam,
		},
		{
			name:     "honeypot ignored when policy disables it",
			bundle:   SignalBundle{HoneypotTriggered: true},
			policy:   func() Policy { p := autoPolicy(); p.HoneypotEnabled = false; return p }(),
			decision: DecisionApprove,
		},
		{
			name:     "blacklist hit is spam",
			bundle:   SignalBundle{Blacklist: BlacklistMatches{DomainHit: true}},
			policy:   autoPolicy(),
			decision: DecisionSpam,
		},
		{
			name:     "repetitive content is spam",
			bundle:   SignalBundle{Repetitive: true},
			policy:   autoPolicy(),
			decision: DecisionSpam,
		},
		{
			name: "reputation spam verdict",
			bundle: SignalBundle{
				Reputation: &ReputationSignal{Configured: true, Result: &ReputationResult{Spam: true, Tip: "discard"}},
			},
			policy:   autoPolicy(),
			decision: DecisionSpam,
		},
		{
			name: "low behavioral score is hold, not spam",
			bundle: SignalBundle{
				Behavioral: &BehavioralSignal{Configured: true, Result: &BehavioralResult{Score: 0.2}},
			},
			policy:   autoPolicy(),
			decision: DecisionHold,
		},
		{
			name:     "link count above threshold is hold",
			bundle:   SignalBundle{LinkCount: 3},
			policy:   autoPolicy(),
			decision: DecisionHold,
		},
		{
			name:     "link count at threshold passes",
			bundle:   SignalBundle{LinkCount: 2},
			policy:   autoPolicy(),
			decision: DecisionApprove,
		},
		{
			name:     "all-hold mode holds clean comments",
			bundle:   SignalBundle{},
			policy:   func() Policy { p := autoPolicy(); p.Mode = ModeAllHold; return p }(),
			decision: DecisionHold,
		},
		{
			name:     "first-time-hold without prior approval",
			bundle:   SignalBundle{},
			policy:   func() Policy { p := autoPolicy(); p.Mode = ModeFirstTimeHold; return p }(),
			decision: DecisionHold,
		},
		{
			name:     "first-time-hold with prior approval approves",
			bundle:   SignalBundle{HasPriorApproved: true},
			policy:   func() Policy { p := autoPolicy(); p.Mode = ModeFirstTimeHold; return p }(),
			decision: DecisionApprove,
		},
		{
			name:     "clean bundle approves",
			bundle:   SignalBundle{Content: "nice post"},
			policy:   autoPolicy(),
			decision: DecisionApprove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Evaluate(tt.bundle, tt.policy)
			assert.Equal(t, tt.decision, verdict.Decision)
			assert.NotEmpty(t, verdict.Reason)
		})
	}
}

func TestEvaluate_ApprovedAndSpamMutuallyExclusive(t *testing.T) {
	bundles := []SignalBundle{
		{ContentRejected: true},
		{RateLimited: true},
		{HoneypotTriggered: true},
		{Blacklist: BlacklistMatches{IPHit: true}},
		{Repetitive: true},
		{LinkCount: 10},
		{},
	}

	for _, bundle := range bundles {
		verdict := Evaluate(bundle, autoPolicy())
		assert.False(t, verdict.IsApproved && verdict.IsSpam,
			"decision %s must not be both approved and spam", verdict.Decision)
	}
}

func TestEvaluate_HoldStatesNeitherApprovedNorSpam(t *testing.T) {
	held := Evaluate(SignalBundle{LinkCount: 5}, autoPolicy())
	require.Equal(t, DecisionHold, held.Decision)
	assert.False(t, held.IsApproved)
	assert.False(t, held.IsSpam)

	limited := Evaluate(SignalBundle{RateLimited: true}, autoPolicy())
	require.Equal(t, DecisionRateLimited, limited.Decision)
	assert.False(t, limited.IsApproved)
	assert.False(t, limited.IsSpam)
}

func TestEvaluate_Deterministic(t *testing.T) {
	bundle := SignalBundle{
		Content:    "Buy cheap watches http://a http://b http://c",
		LinkCount:  3,
		Reputation: cleanReputation(),
		Behavioral: cleanBehavioral(),
	}

	first := Evaluate(bundle, autoPolicy())
	second := Evaluate(bundle, autoPolicy())
	assert.Equal(t, first, second)
}

func TestEvaluate_UnconfiguredReputationHasNoEffect(t *testing.T) {
	policy := autoPolicy()
	base := SignalBundle{Content: "hello"}

	withUnconfigured := base
	withUnconfigured.Reputation = &ReputationSignal{Configured: false}

	assert.Equal(t, Evaluate(base, policy).Decision, Evaluate(withUnconfigured, policy).Decision)
}

func TestEvaluate_ReputationErrorIsNotEvidence(t *testing.T) {
	policy := autoPolicy()
	bundle := SignalBundle{
		Content:    "hello",
		Reputation: &ReputationSignal{Configured: true, Err: "timeout"},
	}

	assert.Equal(t, DecisionApprove, Evaluate(bundle, policy).Decision)
}

func TestEvaluate_BehavioralTimeoutEqualsDisabled(t *testing.T) {
	policy := autoPolicy()

	timedOut := SignalBundle{
		Content:    "hello",
		Behavioral: &BehavioralSignal{Configured: true, Err: "siteverify request: context deadline exceeded"},
	}
	disabled := SignalBundle{Content: "hello"}

	assert.Equal(t, Evaluate(disabled, policy), Evaluate(timedOut, policy))
}

func TestEvaluate_HoneypotBeatsCleanExternalSignals(t *testing.T) {
	bundle := SignalBundle{
		HoneypotTriggered: true,
		Reputation:        cleanReputation(),
		Behavioral:        cleanBehavioral(),
	}

	verdict := Evaluate(bundle, autoPolicy())
	assert.Equal(t, DecisionSpam, verdict.Decision)
	assert.False(t, verdict.IsApproved)
}

func TestEvaluate_LinkBreachIsHoldNotSpam(t *testing.T) {
	bundle := SignalBundle{
		Content:   "Buy cheap watches http://a http://b http://c",
		LinkCount: 3,
	}

	verdict := Evaluate(bundle, autoPolicy())
	assert.Equal(t, DecisionHold, verdict.Decision)
	assert.False(t, verdict.IsSpam)
}

func TestEvaluate_DomainHitBeatsPerfectBehavioralScore(t *testing.T) {
	bundle := SignalBundle{
		Blacklist:  BlacklistMatches{DomainHit: true},
		Behavioral: &BehavioralSignal{Configured: true, Result: &BehavioralResult{Score: 1.0}},
	}

	verdict := Evaluate(bundle, autoPolicy())
	assert.Equal(t, DecisionSpam, verdict.Decision)
}

func TestEvaluate_BehavioralScoreAttachedToVerdict(t *testing.T) {
	low := Evaluate(SignalBundle{
		Behavioral: &BehavioralSignal{Configured: true, Result: &BehavioralResult{Score: 0.3}},
	}, autoPolicy())
	require.Equal(t, DecisionHold, low.Decision)
	require.NotNil(t, low.Score)
	assert.InDelta(t, 0.3, *low.Score, 1e-9)

	high := Evaluate(SignalBundle{
		Behavioral: &BehavioralSignal{Configured: true, Result: &BehavioralResult{Score: 0.9}},
	}, autoPolicy())
	require.Equal(t, DecisionApprove, high.Decision)
	require.NotNil(t, high.Score)
	assert.InDelta(t, 0.9, *high.Score, 1e-9)
}

func TestEvaluate_ReputationTipAttachedToVerdict(t *testing.T) {
	verdict := Evaluate(SignalBundle{
		Reputation: &ReputationSignal{Configured: true, Result: &ReputationResult{Spam: true, Tip: "discard"}},
	}, autoPolicy())

	assert.Equal(t, "discard", verdict.ServiceTip)
}

func TestEvaluate_RejectUsesNormalizerReason(t *testing.T) {
	verdict := Evaluate(SignalBundle{ContentRejected: true, RejectReason: "content exceeds maximum length"}, autoPolicy())
	assert.Equal(t, DecisionReject, verdict.Decision)
	assert.Equal(t, "content exceeds maximum length", verdict.Reason)
	assert.True(t, verdict.IsSpam)
}
