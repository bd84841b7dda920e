// Package content implements the default content normalizer consumed by
// the moderation pipeline. It sanitizes raw text, counts links and flags
// repetitive or oversize submissions.
package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/hyggecms/gatekeeper/internal/core/errors"
	"github.com/hyggecms/gatekeeper/internal/moderation"
)

const (
	charFloodThreshold = 5
	wordFloodThreshold = 3
)

// urlPattern matches http/https URLs and www. URLs. Compiled once at
// package init and reused for every call, safe for concurrent use.
var urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)

// Normalizer is the production implementation of moderation.Normalizer.
type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Normalize sanitizes raw content and derives the local content signals.
// Empty (after trimming) or oversize content is rejected outright.
func (n *Normalizer) Normalize(raw string, maxLength int) moderation.NormalizedContent {
	text := strings.TrimSpace(sanitizeUTF8(raw))

	if text == "" {
		return moderation.NormalizedContent{Rejected: true, RejectReason: apperrors.ErrContentEmpty.Error()}
	}

	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		return moderation.NormalizedContent{Rejected: true, RejectReason: apperrors.ErrContentTooLong.Error()}
	}

	return moderation.NormalizedContent{
		Text:       text,
		LinkCount:  len(urlPattern.FindAllString(text, -1)),
		Repetitive: hasCharFlood(text) || hasWordFlood(text),
	}
}

func sanitizeUTF8(s string) string {
	if s == "" || utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, "")
}

// hasCharFlood returns true if text contains charFloodThreshold or more
// consecutive identical characters. RE2 has no backreferences, so this is
// a linear scan.
func hasCharFlood(text string) bool {
	count := 1
	prev := rune(-1)

	for _, r := range text {
		if r == prev {
			count++
			if count >= charFloodThreshold {
				return true
			}
		} else {
			count = 1
			prev = r
		}
	}

	return false
}

// hasWordFlood returns true if the same word appears wordFloodThreshold
// or more times consecutively, case-insensitive.
func hasWordFlood(text string) bool {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	if len(words) < wordFloodThreshold {
		return false
	}

	count := 1
	prev := ""

	for _, w := range words {
		lower := strings.ToLower(w)
		if lower == prev {
			count++
			if count >= wordFloodThreshold {
				return true
			}
		} else {
			count = 1
			prev = lower
		}
	}

	return false
}
