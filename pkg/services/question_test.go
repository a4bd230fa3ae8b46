package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
)

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxLen  int
		want    string
		wantErr bool
	}{
		{"empty", "", 0, "", false},
		{"whitespace only", "   \n\t", 0, "", false},
		{"trimmed", "  Will I find a new job?  ", 0, "Will I find a new job?", false},
		{"punctuation", "What comes next for my career, and why?", 0, "What comes next for my career, and why?", false},
		{"multibyte within limit", "Что меня ждёт?", 14, "Что меня ждёт?", false},
		{"too long", strings.Repeat("a", 11), 10, "", true},
		{"default limit", strings.Repeat("a", DefaultQuestionMaxLength+1), 0, "", true},
		{"script tag", "<script>alert('x')</script>", 0, "", true},
		{"event handler", `<img src=x onerror=alert(1)>`, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuestion(tt.input, tt.maxLen)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
