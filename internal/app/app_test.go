package app

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyggecms/gatekeeper/internal/moderation"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"single forwarded address", "203.0.113.5", "10.0.0.1:4321", "203.0.113.5"},
		{"first of forwarded chain", "203.0.113.5, 198.51.100.7, 10.0.0.1", "10.0.0.1:4321", "203.0.113.5"},
		{"forwarded chain with padding", "  203.0.113.5 ,198.51.100.7", "10.0.0.1:4321", "203.0.113.5"},
		{"no forwarded header", "", "198.51.100.7:4321", "198.51.100.7"},
		{"remote addr without port", "", "198.51.100.7", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/comments", nil)
			r.RemoteAddr = tt.remoteAddr

			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestHTTPStatusFor(t *testing.T) {
	tests := []struct {
		decision moderation.Decision
		status   int
	}{
		{moderation.DecisionApprove, 201},
		{moderation.DecisionSpam, 201},
		{moderation.DecisionHold, 202},
		{moderation.DecisionRateLimited, 429},
		{moderation.DecisionReject, 422},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			verdict := moderation.Verdict{Decision: tt.decision}
			assert.Equal(t, tt.status, httpStatusFor(verdict))
		})
	}
}
