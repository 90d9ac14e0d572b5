package redact

import (
	"regexp"
)

const placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for the credential shapes synrel handles.
var secretPatterns = []*regexp.Regexp{
	// Authorization header values
	regexp.MustCompile(`(?i)\b(Basic|Bearer)\s+[A-Za-z0-9._~+/=-]{8,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Atlassian API tokens
	regexp.MustCompile(`ATATT[A-Za-z0-9_=-]{20,}`),
	// Generic secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(api[_-]?token|auth[_-]?token|secret|token|password|passwd|credential)["']?\s*[:=]\s*["']?[^\s"',]{8,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// Error returns err's message with secrets removed. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Secrets(err.Error())
}
