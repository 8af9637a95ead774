package logger

import (
	"regexp"
	"strings"
)

// Field keys whose values are treated as subscriber addresses outright.
var piiKeys = []string{"email", "subscriber", "recipient"}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// RedactEmail masks the local part of an address, keeping at most two
// leading characters: "maria.lopez@example.com" becomes
// "ma***@example.com". Anything that does not look like an address
// collapses to "***@***".
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Contains(email[:at], "@") {
		return "***@***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}

// redactPIIValue masks subscriber addresses in a field value. Values under
// known PII keys are masked whole; other values only have embedded
// addresses rewritten.
func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range piiKeys {
		if strings.Contains(key, k) {
			return RedactEmail(val)
		}
	}
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}
