// Package moderation implements the comment moderation decision pipeline.
//
// The package contains:
//   - SubmissionContext/Policy/Blacklist: inputs to one pipeline run
//   - Match: pure blacklist lookup
//   - Evaluate: pure decision engine mapping signals to a Verdict
//   - Pipeline: two-phase orchestrator with short-circuit on conclusive
//     local signals and concurrent external signal gathering
//
// External collaborators (content normalizer, rate-limit store, signal
// services, audit sink) are consumed through narrow interfaces so the
// engine and orchestrator stay testable without network or database.
package moderation

import "strings"

// ModerationMode selects how non-spam comments are admitted.
type ModerationMode string

const (
	// ModeAuto approves comments that pass all checks.
	ModeAuto ModerationMode = "auto"
	// ModeAllHold queues every comment for human review.
	ModeAllHold ModerationMode = "all-hold"
	// ModeFirstTimeHold queues comments from authors without a prior approved comment.
	ModeFirstTimeHold ModerationMode = "first-time-hold"
)

// SubmissionContext is the immutable input to one pipeline run.
// It is created once per request and never mutated.
type SubmissionContext struct {
	Content         string
	AuthorName      string
	AuthorEmail     string
	TargetType      string
	TargetID        string
	SubmitterID     string // empty for anonymous submitters
	ClientIP        string
	UserAgent       string
	Permalink       string
	Honeypot        string // hidden form field, empty for humans
	BehavioralToken string // optional, e.g. a reCAPTCHA response token
}

// Policy is the moderation configuration snapshot for one run.
// Loaded once per run and treated as read-only.
type Policy struct {
	Mode                ModerationMode
	MaxLinks            int
	MaxContentLength    int
	HoneypotEnabled     bool
	ReputationEnabled   bool
	BehavioralEnabled   bool
	BehavioralThreshold float64
	RateLimitPerMinute  int
}

// Blacklist holds the configured deny-lists. All values are lower-cased
// at construction so matching never allocates per lookup.
type Blacklist struct {
	Keywords []string
	Emails   map[string]struct{}
	IPs      map[string]struct{}
	Domains  map[string]struct{}
}

// NewBlacklist builds a Blacklist from raw entry lists, lower-casing
// every value.
func NewBlacklist(keywords, emails, ips, domains []string) *Blacklist {
	bl := &Blacklist{
		Keywords: make([]string, 0, len(keywords)),
		Emails:   make(map[string]struct{}, len(emails)),
		IPs:      make(map[string]struct{}, len(ips)),
		Domains:  make(map[string]struct{}, len(domains)),
	}

	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			bl.Keywords = append(bl.Keywords, k)
		}
	}

	fillSet(bl.Emails, emails)
	fillSet(bl.IPs, ips)
	fillSet(bl.Domains, domains)

	return bl
}

func fillSet(set map[string]struct{}, values []string) {
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
}
