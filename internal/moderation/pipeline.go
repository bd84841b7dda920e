package moderation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyggecms/gatekeeper/internal/platform/observability"
)

const defaultPipelineDeadline = 20 * time.Second

// NormalizedContent is the output of the content normalizer collaborator.
type NormalizedContent struct {
	Text         string
	LinkCount    int
	Repetitive   bool
	Rejected     bool
	RejectReason string
}

// Normalizer sanitizes raw submission content. Consumed as a black box;
// the default implementation lives in internal/content.
type Normalizer interface {
	Normalize(raw string, maxLength int) NormalizedContent
}

// RateLimiter reserves one slot in the submitter's sliding window and
// reports whether the ceiling was already reached. Implementations fail
// open on store errors.
type RateLimiter interface {
	CheckAndReserve(ctx context.Context, ipHash, targetType, targetID string, ceiling int) bool
}

// ApprovalLookup reports whether a submitter already has an approved comment.
type ApprovalLookup interface {
	HasApprovedComment(ctx context.Context, submitterKey string) (bool, error)
}

// ReputationQuery is the input to the content-reputation service.
type ReputationQuery struct {
	ClientIP    string
	UserAgent   string
	Content     string
	AuthorName  string
	AuthorEmail string
	Permalink   string
}

// ReputationChecker calls the external content-reputation service.
// All failure modes resolve into the returned signal, never a Go error.
type ReputationChecker interface {
	Check(ctx context.Context, query ReputationQuery) ReputationSignal
}

// BehavioralChecker calls the external behavioral scoring service with
// the client-supplied token. Same degradation contract as ReputationChecker.
type BehavioralChecker interface {
	Verify(ctx context.Context, token string) BehavioralSignal
}

// AuditSink records one append-only entry per pipeline run. Sink failures
// must never change the Verdict; the pipeline logs and moves on.
type AuditSink interface {
	Append(ctx context.Context, record AuditRecord) error
}

// IPHasher derives the persisted rate-limit key from a client IP.
type IPHasher func(ip string) string

// Pipeline is the two-phase moderation orchestrator.
//
// Phase 1 gathers only local signals (normalization, blacklist, rate
// limit, prior approval) and evaluates. Decisions that external signals
// can never overturn (reject, rate_limited) short-circuit the run.
// Phase 2 invokes the enabled signal services concurrently, merges their
// results into a new bundle snapshot and re-evaluates. Exactly one audit
// record is written at the end of whichever phase terminates, and the
// caller always receives a Verdict.
type Pipeline struct {
	policy     Policy
	blacklist  *Blacklist
	normalizer Normalizer
	limiter    RateLimiter
	approvals  ApprovalLookup
	reputation ReputationChecker
	behavioral BehavioralChecker
	audit      AuditSink
	hashIP     IPHasher
	deadline   time.Duration
	logger     *zerolog.Logger
}

// PipelineOptions wires the pipeline's collaborators.
type PipelineOptions struct {
	Policy     Policy
	Blacklist  *Blacklist
	Normalizer Normalizer
	Limiter    RateLimiter
	Approvals  ApprovalLookup
	Reputation ReputationChecker
	Behavioral BehavioralChecker
	Audit      AuditSink
	HashIP     IPHasher
	Deadline   time.Duration
	Logger     *zerolog.Logger
}

// NewPipeline creates a Pipeline from the given options.
func NewPipeline(opts PipelineOptions) *Pipeline {
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultPipelineDeadline
	}

	hashIP := opts.HashIP
	if hashIP == nil {
		hashIP = func(ip string) string { return ip }
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{
		policy:     opts.Policy,
		blacklist:  opts.Blacklist,
		normalizer: opts.Normalizer,
		limiter:    opts.Limiter,
		approvals:  opts.Approvals,
		reputation: opts.Reputation,
		behavioral: opts.Behavioral,
		audit:      opts.Audit,
		hashIP:     hashIP,
		deadline:   deadline,
		logger:     logger,
	}
}

// Run executes the pipeline for one submission and returns its Verdict.
// It never returns an error: external unavailability degrades to
// local-only moderation and persistence failures fail open.
func (p *Pipeline) Run(ctx context.Context, sub SubmissionContext) Verdict {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	bundle := p.gatherLocal(ctx, sub)

	verdict := Evaluate(bundle, p.policy)
	if verdict.Decision == DecisionReject || verdict.Decision == DecisionRateLimited {
		observability.PipelineShortCircuits.Inc()
		p.finish(ctx, sub, bundle, verdict)

		return verdict
	}

	merged := bundle.withExternal(p.gatherExternal(ctx, sub))

	verdict = Evaluate(merged, p.policy)
	p.finish(ctx, sub, merged, verdict)

	return verdict
}

// gatherLocal runs the cheap Phase-1 signal collection sequentially.
func (p *Pipeline) gatherLocal(ctx context.Context, sub SubmissionContext) SignalBundle {
	norm := p.normalizer.Normalize(sub.Content, p.policy.MaxContentLength)

	bundle := SignalBundle{
		Content:           norm.Text,
		LinkCount:         norm.LinkCount,
		ContentRejected:   norm.Rejected,
		RejectReason:      norm.RejectReason,
		Repetitive:        norm.Repetitive,
		HoneypotTriggered: strings.TrimSpace(sub.Honeypot) != "",
	}

	bundle.Blacklist = Match(norm.Text, sub.AuthorEmail, sub.ClientIP, p.blacklist)

	bundle.RateLimited = p.limiter.CheckAndReserve(
		ctx, p.hashIP(sub.ClientIP), sub.TargetType, sub.TargetID, p.policy.RateLimitPerMinute)

	if p.policy.Mode == ModeFirstTimeHold && p.approvals != nil {
		approved, err := p.approvals.HasApprovedComment(ctx, SubmitterKey(sub))
		if err != nil {
			p.logger.Warn().Err(err).Msg("prior-approval lookup failed, treating submitter as first-time")
		}

		bundle.HasPriorApproved = approved
	}

	return bundle
}

// gatherExternal runs the enabled Phase-2 signal services concurrently.
// A slow or failed call on one service never blocks on the other beyond
// its own timeout; the pipeline deadline on ctx bounds the whole phase.
func (p *Pipeline) gatherExternal(ctx context.Context, sub SubmissionContext) (*ReputationSignal, *BehavioralSignal) {
	var (
		rep *ReputationSignal
		beh *BehavioralSignal
		wg  sync.WaitGroup
	)

	if p.policy.ReputationEnabled && p.reputation != nil {
		wg.Add(1)

		go func() {
			defer wg.Done()

			started := time.Now()
			signal := p.reputation.Check(ctx, ReputationQuery{
				ClientIP:    sub.ClientIP,
				UserAgent:   sub.UserAgent,
				Content:     sub.Content,
				AuthorName:  sub.AuthorName,
				AuthorEmail: sub.AuthorEmail,
				Permalink:   sub.Permalink,
			})
			observability.ObserveSignal("reputation", started, signal.Err)
			rep = &signal
		}()
	}

	if p.policy.BehavioralEnabled && p.behavioral != nil && sub.BehavioralToken != "" {
		wg.Add(1)

		go func() {
			defer wg.Done()

			started := time.Now()
			signal := p.behavioral.Verify(ctx, sub.BehavioralToken)
			observability.ObserveSignal("behavioral", started, signal.Err)
			beh = &signal
		}()
	}

	wg.Wait()

	return rep, beh
}

// finish records metrics and writes the single audit record for the run.
// The audit write uses a detached context so a cancelled caller does not
// lose the trace of an already-made decision.
func (p *Pipeline) finish(ctx context.Context, sub SubmissionContext, bundle SignalBundle, verdict Verdict) {
	observability.PipelineDecisions.WithLabelValues(string(verdict.Decision)).Inc()

	if p.audit == nil {
		return
	}

	record := AuditRecord{
		Decision:      verdict.Decision,
		TargetType:    sub.TargetType,
		TargetID:      sub.TargetID,
		Reason:        verdict.Reason,
		SignalSummary: bundle.Summary(),
		Timestamp:     time.Now().UTC(),
	}

	if err := p.audit.Append(context.WithoutCancel(ctx), record); err != nil {
		observability.AuditWriteFailures.Inc()
		p.logger.Error().Err(err).
			Str("target_type", sub.TargetType).
			Str("target_id", sub.TargetID).
			Msg("audit write failed")
	}
}

// SubmitterKey derives the identity key used both for the prior-approval
// lookup and for the stored comment row. Lookup and storage must agree on
// this key or first-time-hold never recognizes a returning submitter:
// the logged-in submitter id when present, otherwise the trimmed,
// lower-cased email.
func SubmitterKey(sub SubmissionContext) string {
	if sub.SubmitterID != "" {
		return sub.SubmitterID
	}

	return strings.ToLower(strings.TrimSpace(sub.AuthorEmail))
}
