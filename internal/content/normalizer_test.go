package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CleanContent(t *testing.T) {
	out := New().Normalize("  just a normal comment  ", 1000)

	assert.False(t, out.Rejected)
	assert.Equal(t, "just a normal comment", out.Text)
	assert.Zero(t, out.LinkCount)
	assert.False(t, out.Repetitive)
}

func TestNormalize_EmptyRejected(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		out := New().Normalize(raw, 1000)
		assert.True(t, out.Rejected, "raw %q", raw)
		assert.Equal(t, "content is empty", out.RejectReason)
	}
}

func TestNormalize_OversizeRejected(t *testing.T) {
	out := New().Normalize(strings.Repeat("abcdef ", 200), 100)

	assert.True(t, out.Rejected)
	assert.Equal(t, "content exceeds maximum length", out.RejectReason)
}

func TestNormalize_ZeroMaxLengthDisablesSizeCheck(t *testing.T) {
	out := New().Normalize(strings.Repeat("word ", 10000), 0)
	assert.False(t, out.Rejected)
}

func TestNormalize_LinkCounting(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		links int
	}{
		{"no links", "plain text", 0},
		{"http and https", "see http://a.example and https://b.example", 2},
		{"www prefix", "visit www.example.com today", 1},
		{"spam-looking text", "Buy cheap watches http://a http://b http://c", 3},
		{"version strings are not links", "upgraded to v2.0 and 3.14", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New().Normalize(tt.raw, 0)
			assert.Equal(t, tt.links, out.LinkCount)
		})
	}
}

func TestNormalize_CharFlood(t *testing.T) {
	assert.True(t, New().Normalize("loooooook at this", 0).Repetitive)
	assert.False(t, New().Normalize("loook at this", 0).Repetitive)
}

func TestNormalize_WordFlood(t *testing.T) {
	assert.True(t, New().Normalize("buy Buy BUY now", 0).Repetitive)
	assert.False(t, New().Normalize("buy it, buy it now", 0).Repetitive)
}

func TestNormalize_InvalidUTF8Stripped(t *testing.T) {
	out := New().Normalize("ok\xff\xfe text", 0)

	assert.False(t, out.Rejected)
	assert.Equal(t, "ok text", out.Text)
}
