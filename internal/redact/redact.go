// Package redact scrubs sensitive fragments from strings before they
// reach logs or error responses: connection strings, bearer tokens,
// filesystem paths, and raw SQL.
package redact

import "regexp"

const (
	credentialPlaceholder = "[REDACTED_CREDENTIAL]"
	tokenPlaceholder      = "[REDACTED_TOKEN]"
	pathPlaceholder       = "[REDACTED_PATH]"
	sqlPlaceholder        = "[REDACTED_SQL]"
)

var (
	connStringRegex = regexp.MustCompile(`(?i)(postgres|postgresql|sqlite|file)://[^@\s]+@`)
	jwtRegex        = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
	secretRegex     = regexp.MustCompile(`(?i)(password|secret|token|api[_-]?key)(['"\s:=]+)[^'"&\s]{3,}`)
	unixPathRegex   = regexp.MustCompile(`(/[\w.-]+){2,}`)
	sqlRegex        = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)\b`,
	)
)

// String removes sensitive fragments from s.
func String(s string) string {
	if s == "" {
		return s
	}
	s = connStringRegex.ReplaceAllString(s, credentialPlaceholder)
	s = jwtRegex.ReplaceAllString(s, tokenPlaceholder)
	s = secretRegex.ReplaceAllString(s, "$1$2"+tokenPlaceholder)
	s = sqlRegex.ReplaceAllString(s, sqlPlaceholder)
	s = unixPathRegex.ReplaceAllString(s, pathPlaceholder)
	return s
}

// Error redacts an error's message. Returns the empty string for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
