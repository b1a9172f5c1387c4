package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@*******.com")
func SanitizedEmail(email string) string {
	username, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	// Mask username: keep first char, mask rest
	if len(username) > 1 {
		username = username[:1] + strings.Repeat("*", len(username)-1)
	}

	// Mask domain: keep TLD, mask the rest
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

// sensitiveParams are query parameters whose values may carry personal data.
// Roster searches match against names and emails, so the search text is redacted.
var sensitiveParams = map[string]bool{
	"search": true,
	"q":      true,
	"email":  true,
	"name":   true,
}

// SanitizeQuery returns rawQuery with the values of sensitive parameters
// replaced by "[REDACTED]". Unparseable queries are redacted entirely.
func SanitizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[REDACTED]"
	}

	redacted := false
	for key := range values {
		if sensitiveParams[strings.ToLower(key)] {
			values[key] = []string{"[REDACTED]"}
			redacted = true
		}
	}
	if !redacted {
		return rawQuery
	}
	return values.Encode()
}
