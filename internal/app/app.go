// Package app wires configuration, storage, signal adapters and the
// moderation pipeline into the comment-submission HTTP service.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyggecms/gatekeeper/internal/content"
	"github.com/hyggecms/gatekeeper/internal/moderation"
	"github.com/hyggecms/gatekeeper/internal/platform/config"
	"github.com/hyggecms/gatekeeper/internal/platform/observability"
	"github.com/hyggecms/gatekeeper/internal/ratelimit"
	"github.com/hyggecms/gatekeeper/internal/signals"
	db "github.com/hyggecms/gatekeeper/internal/storage"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	maxBodyBytes      = 1 << 20
)

// App holds the wired application components.
type App struct {
	cfg      *config.Config
	database *db.DB
	pipeline *moderation.Pipeline
	logger   *zerolog.Logger
}

// New builds the application: the blacklist is the union of configured
// and persisted entries, and the pipeline gets its policy snapshot from
// the environment config.
func New(ctx context.Context, cfg *config.Config, database *db.DB, logger *zerolog.Logger) (*App, error) {
	stored, err := database.LoadBlacklist(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blacklist: %w", err)
	}

	blacklist := moderation.NewBlacklist(
		append(config.SplitList(cfg.BlacklistKeywords), stored.Keywords...),
		append(config.SplitList(cfg.BlacklistEmails), setValues(stored.Emails)...),
		append(config.SplitList(cfg.BlacklistIPs), setValues(stored.IPs)...),
		append(config.SplitList(cfg.BlacklistDomains), setValues(stored.Domains)...),
	)

	policy := moderation.Policy{
		Mode:                moderation.ModerationMode(cfg.ModerationMode),
		MaxLinks:            cfg.MaxLinks,
		MaxContentLength:    cfg.MaxContentLength,
		HoneypotEnabled:     cfg.HoneypotEnabled,
		ReputationEnabled:   cfg.AkismetEnabled,
		BehavioralEnabled:   cfg.RecaptchaEnabled,
		BehavioralThreshold: cfg.RecaptchaThreshold,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
	}

	pipeline := moderation.NewPipeline(moderation.PipelineOptions{
		Policy:     policy,
		Blacklist:  blacklist,
		Normalizer: content.New(),
		Limiter:    ratelimit.New(database, logger),
		Approvals:  database,
		Reputation: signals.NewAkismetClient(signals.AkismetConfig{
			Enabled:        cfg.AkismetEnabled,
			APIKey:         cfg.AkismetAPIKey,
			BlogURL:        cfg.AkismetBlogURL,
			RequestsPerMin: cfg.AkismetRPM,
			Timeout:        cfg.AkismetTimeout,
		}),
		Behavioral: signals.NewRecaptchaClient(signals.RecaptchaConfig{
			Enabled:        cfg.RecaptchaEnabled,
			Secret:         cfg.RecaptchaSecret,
			ExpectedAction: cfg.RecaptchaAction,
			Timeout:        cfg.RecaptchaTimeout,
		}),
		Audit:    database,
		HashIP:   ratelimit.HashIP,
		Deadline: cfg.PipelineDeadline,
		Logger:   logger,
	})

	return &App{
		cfg:      cfg,
		database: database,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

func setValues(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}

	return values
}

// StartHealthServer runs the liveness/readiness/metrics endpoint.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.database.Pool, a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunServer serves the comment submission endpoint until ctx is done.
func (a *App) RunServer(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /comments", a.handleSubmit)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.logger.Info().Int("port", a.cfg.HTTPPort).Msg("comment server started")

	select {
	case err := <-errCh:
		return fmt.Errorf("comment server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("comment server shutdown: %w", err)
	}

	return nil
}

type submitRequest struct {
	TargetType      string `json:"target_type"`
	TargetID        string `json:"target_id"`
	AuthorName      string `json:"author_name"`
	AuthorEmail     string `json:"author_email"`
	Content         string `json:"content"`
	Permalink       string `json:"permalink"`
	Honeypot        string `json:"website"` // hidden field, humans leave it empty
	BehavioralToken string `json:"captcha_token"`
	SubmitterID     string `json:"submitter_id"`
}

type submitResponse struct {
	Decision  string `json:"decision"`
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
}

// handleSubmit is the surrounding request handler from the pipeline's
// point of view: it builds the SubmissionContext, runs the pipeline once
// and maps the Verdict onto the response and comment storage.
func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if req.TargetType == "" || req.TargetID == "" {
		http.Error(w, "target_type and target_id are required", http.StatusBadRequest)

		return
	}

	sub := moderation.SubmissionContext{
		Content:         req.Content,
		AuthorName:      req.AuthorName,
		AuthorEmail:     req.AuthorEmail,
		TargetType:      req.TargetType,
		TargetID:        req.TargetID,
		SubmitterID:     req.SubmitterID,
		ClientIP:        clientIP(r),
		UserAgent:       r.UserAgent(),
		Permalink:       req.Permalink,
		Honeypot:        req.Honeypot,
		BehavioralToken: req.BehavioralToken,
	}

	verdict := a.pipeline.Run(r.Context(), sub)

	resp := submitResponse{
		Decision: string(verdict.Decision),
		Approved: verdict.IsApproved,
	}

	// Spam verdicts stay silent towards the submitter; the reason is
	// only persisted in the audit log.
	if !verdict.IsSpam {
		resp.Reason = verdict.Reason
	}

	if status, store := db.StatusForVerdict(verdict); store {
		id, err := a.database.InsertComment(r.Context(), db.Comment{
			TargetType:   sub.TargetType,
			TargetID:     sub.TargetID,
			AuthorName:   sub.AuthorName,
			AuthorEmail:  sub.AuthorEmail,
			AuthorIP:     sub.ClientIP,
			UserAgent:    sub.UserAgent,
			SubmitterKey: moderation.SubmitterKey(sub),
			Content:      sub.Content,
			Status:       status,
		})
		if err != nil {
			a.logger.Error().Err(err).Msg("comment insert failed")
		} else {
			resp.CommentID = id
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusFor(verdict))

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Error().Err(err).Msg("encode response failed")
	}
}

func httpStatusFor(verdict moderation.Verdict) int {
	switch verdict.Decision {
	case moderation.DecisionRateLimited:
		return http.StatusTooManyRequests
	case moderation.DecisionReject:
		return http.StatusUnprocessableEntity
	case moderation.DecisionHold:
		return http.StatusAccepted
	case moderation.DecisionSpam, moderation.DecisionApprove:
		return http.StatusCreated
	}

	return http.StatusCreated
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")

		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
