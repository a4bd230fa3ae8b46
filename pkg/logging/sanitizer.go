// Package logging redacts secrets and bounds user text before it reaches logs.
package logging

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPromptLogLength bounds AI prompts in log lines.
	MaxPromptLogLength = 200
	// MaxQuestionLogLength bounds free-text reading questions in log lines.
	MaxQuestionLogLength = 80
	// RedactedText replaces sensitive values.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// any bearer credential, JWT or opaque
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-_.~+/]+=*`)

	// api_key=..., key=... query or form values
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9\-_]{20,}`)

	// provider secret keys such as sk-... and sk-ant-...
	secretKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9\-_]{16,}`)

	// user:pass@host in URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeConnectionString removes credentials from a database or Redis URL.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError redacts credentials from an error message. Use it for errors
// returned by AI providers, the function endpoint and the database.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redactSecrets(err.Error())
}

// SanitizePrompt truncates a prompt and redacts any credentials in it.
func SanitizePrompt(prompt string) string {
	if prompt == "" {
		return ""
	}
	return redactSecrets(TruncateString(prompt, MaxPromptLogLength))
}

// SanitizeQuestion flattens and truncates a user's question. Questions are
// personal, so logs only keep enough to recognize them.
func SanitizeQuestion(question string) string {
	flat := strings.Join(strings.Fields(question), " ")
	return TruncateString(flat, MaxQuestionLogLength)
}

func redactSecrets(s string) string {
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = secretKeyPattern.ReplaceAllString(s, RedactedText)
	s = connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
	return s
}

// TruncateString cuts s to at most maxLen bytes without splitting a rune and
// appends "..." when anything was removed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
