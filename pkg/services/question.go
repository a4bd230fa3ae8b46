package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
)

// DefaultQuestionMaxLength bounds the free-text question in runes.
const DefaultQuestionMaxLength = 500

// ValidateQuestion trims q and rejects questions that are too long or carry
// markup that would be dangerous to echo back. An empty question is valid.
func ValidateQuestion(q string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultQuestionMaxLength
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return "", nil
	}
	if n := utf8.RuneCountInString(q); n > maxLen {
		return "", fmt.Errorf("%w: %d characters exceeds limit of %d", apperrors.ErrInvalidQuestion, n, maxLen)
	}
	if !utf8.ValidString(q) {
		return "", fmt.Errorf("%w: not valid UTF-8", apperrors.ErrInvalidQuestion)
	}
	if libinjection.IsXSS(q) {
		return "", fmt.Errorf("%w: contains markup", apperrors.ErrInvalidQuestion)
	}
	return q, nil
}
