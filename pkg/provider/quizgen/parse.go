package quizgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// ParseQuestions extracts a question array from a raw model response.
// Models routinely wrap the JSON in markdown fences or preamble text despite
// instructions, so the parser cuts from the first '[' to the last ']' before
// unmarshalling, then validates every question.
func ParseQuestions(raw string) ([]types.Question, error) {
	payload := extractArray(raw)
	if payload == "" {
		return nil, fmt.Errorf("quizgen: no JSON array in model response")
	}

	var questions []types.Question
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, fmt.Errorf("quizgen: decode model response: %w", err)
	}

	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// extractArray strips markdown fences and returns the outermost JSON array
// in raw, or "" if none exists.
func extractArray(raw string) string {
	s := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// ValidateQuestions rejects an empty set and any structurally broken
// question: empty stem, fewer than two options, a blank option, or a correct
// index out of range.
func ValidateQuestions(questions []types.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("quizgen: model returned no questions")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("quizgen: question %d has an empty stem", i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("quizgen: question %d has %d options, need at least 2", i, len(q.Options))
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("quizgen: question %d option %d is blank", i, j)
			}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("quizgen: question %d correct index %d out of range [0,%d)", i, q.CorrectIndex, len(q.Options))
		}
	}
	return nil
}
