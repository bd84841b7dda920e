package moderation

import "strings"

// Match checks a submission against the configured deny-lists.
// Keyword matching is a case-insensitive substring search; email and IP
// are exact set membership; domain matching checks the lower-cased
// portion of the email after "@". Deterministic, no I/O.
func Match(content, email, ip string, bl *Blacklist) BlacklistMatches {
	var matches BlacklistMatches

	if bl == nil {
		return matches
	}

	lowered := strings.ToLower(content)
	for _, keyword := range bl.Keywords {
		if strings.Contains(lowered, keyword) {
			matches.KeywordHit = true
			break
		}
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := bl.Emails[email]; ok && email != "" {
		matches.EmailHit = true
	}

	if _, ok := bl.IPs[strings.ToLower(strings.TrimSpace(ip))]; ok && ip != "" {
		matches.IPHit = true
	}

	if domain := emailDomain(email); domain != "" {
		if _, ok := bl.Domains[domain]; ok {
			matches.DomainHit = true
		}
	}

	return matches
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}

	return email[at+1:]
}
