package llm

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object",
			input: `{"interpretation": "The Tower clears the ground."}`,
			want:  `{"interpretation": "The Tower clears the ground."}`,
		},
		{
			name:  "plain array",
			input: `[{"card": "fool"}, {"card": "star"}]`,
			want:  `[{"card": "fool"}, {"card": "star"}]`,
		},
		{
			name:  "nested",
			input: `{"reading": {"cards": [{"id": "sun", "positions": [1, 2]}]}}`,
			want:  `{"reading": {"cards": [{"id": "sun", "positions": [1, 2]}]}}`,
		},
		{
			name:  "leading think block",
			input: "  <think>\nThe querent asked about love...\n</think>\n{\"interpretation\": \"Open your heart.\"}",
			want:  `{"interpretation": "Open your heart."}`,
		},
		{
			name:  "markdown fence",
			input: "Here is the reading:\n```json\n{\"interpretation\": \"Patience.\"}\n```\nHope it helps.",
			want:  `{"interpretation": "Patience."}`,
		},
		{
			name:  "brackets inside strings",
			input: `{"interpretation": "Cups {overflow} and [spill]"}`,
			want:  `{"interpretation": "Cups {overflow} and [spill]"}`,
		},
		{
			name:  "escaped quotes",
			input: `{"interpretation": "She said \"wait\" and {waited}"}`,
			want:  `{"interpretation": "She said \"wait\" and {waited}"}`,
		},
		{
			name:  "array before object",
			input: `prefix [1, 2] then {"a": 1}`,
			want:  `[1, 2]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"The cards speak of change.",
		`{"interpretation": "unterminated`,
		`{"interpretation": bare words}`,
	} {
		if _, err := ExtractJSON(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestStripThinking(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Star brings hope.", "The Star brings hope."},
		{"<think>hmm</think>\nThe Star brings hope.", "The Star brings hope."},
		{"The Star <think>\nmulti\nline\n</think>brings hope.", "The Star brings hope."},
		{"<think>a</think>One<think>b</think> two", "One two"},
		{"<think>only thinking</think>", ""},
	}

	for _, tt := range tests {
		if got := StripThinking(tt.input); got != tt.want {
			t.Errorf("StripThinking(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractThinking(t *testing.T) {
	if got := ExtractThinking("<think>\n  weighing the Tower\n</think>answer"); got != "weighing the Tower" {
		t.Errorf("expected thinking content, got %q", got)
	}
	if got := ExtractThinking("no tags"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Interpretation string `json:"interpretation"`
		Confidence     int    `json:"confidence"`
	}

	got, err := ParseJSONResponse[payload](`<think>thinking</think>{"interpretation": "Rest now.", "confidence": 4}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Interpretation != "Rest now." {
		t.Errorf("expected interpretation 'Rest now.', got %q", got.Interpretation)
	}
	if got.Confidence != 4 {
		t.Errorf("expected confidence 4, got %d", got.Confidence)
	}

	if _, err := ParseJSONResponse[payload](`{"interpretation": 12}`); err == nil {
		t.Error("expected unmarshal error for wrong field type")
	}
}
