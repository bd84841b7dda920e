// Package signals implements the external signal service adapters:
// an Akismet client for content reputation and a reCAPTCHA client for
// behavioral scoring. Both share one degradation contract: a missing
// credential resolves to an unconfigured signal without any network
// call, and a timeout or transport failure resolves to an error reason
// inside the signal. Neither adapter ever surfaces a Go error to the
// decision engine; absence of a verdict is not evidence.
package signals

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyggecms/gatekeeper/internal/moderation"
)

const (
	akismetEndpointFmt    = "https://%s.rest.akismet.com/1.1/comment-check"
	akismetDefaultTimeout = 15 * time.Second
	akismetDefaultRPM     = 60
	akismetProTipHeader   = "X-Akismet-Pro-Tip"
	akismetCommentType    = "comment"

	secondsPerMinute = 60
)

// AkismetClient implements moderation.ReputationChecker against the
// Akismet comment-check API.
type AkismetClient struct {
	endpoint    string
	apiKey      string
	blogURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	enabled     bool
}

// AkismetConfig holds configuration for the Akismet adapter.
type AkismetConfig struct {
	Enabled        bool
	APIKey         string
	BlogURL        string
	RequestsPerMin int
	Timeout        time.Duration
}

// NewAkismetClient creates a new Akismet adapter instance.
func NewAkismetClient(cfg AkismetConfig) *AkismetClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = akismetDefaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = akismetDefaultRPM
	}

	return &AkismetClient{
		endpoint: fmt.Sprintf(akismetEndpointFmt, cfg.APIKey),
		apiKey:   cfg.APIKey,
		blogURL:  cfg.BlogURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		enabled:     cfg.Enabled && cfg.APIKey != "",
	}
}

// Check submits the comment to Akismet and folds every failure mode into
// the returned signal.
func (c *AkismetClient) Check(ctx context.Context, query moderation.ReputationQuery) moderation.ReputationSignal {
	if !c.enabled {
		return moderation.ReputationSignal{Configured: false}
	}

	signal := moderation.ReputationSignal{Configured: true}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		signal.Err = fmt.Sprintf("akismet rate limit: %v", err)

		return signal
	}

	form := url.Values{}
	form.Set("blog", c.blogURL)
	form.Set("user_ip", query.ClientIP)
	form.Set("user_agent", query.UserAgent)
	form.Set("comment_type", akismetCommentType)
	form.Set("comment_author", query.AuthorName)
	form.Set("comment_author_email", query.AuthorEmail)
	form.Set("comment_content", query.Content)
	form.Set("permalink", query.Permalink)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		signal.Err = fmt.Sprintf("create akismet request: %v", err)

		return signal
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		signal.Err = fmt.Sprintf("akismet request: %v", err)

		return signal
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		signal.Err = fmt.Sprintf("read akismet response: %v", err)

		return signal
	}

	if resp.StatusCode != http.StatusOK {
		signal.Err = fmt.Sprintf("akismet unexpected status: %d", resp.StatusCode)

		return signal
	}

	// The comment-check endpoint answers with a literal "true" or "false"
	// body; anything else is a service-side error description.
	switch strings.TrimSpace(string(body)) {
	case "true":
		signal.Result = &moderation.ReputationResult{
			Spam: true,
			Tip:  resp.Header.Get(akismetProTipHeader),
		}
	case "false":
		signal.Result = &moderation.ReputationResult{Spam: false}
	default:
		signal.Err = fmt.Sprintf("akismet error: %s", truncate(string(body)))
	}

	return signal
}

const responseTruncateLen = 200

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > responseTruncateLen {
		return s[:responseTruncateLen] + "..."
	}

	return s
}
