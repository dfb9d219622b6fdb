// Package quizgen defines the Generator interface for question-generation
// backends.
//
// A generator wraps a remote or local LLM API (e.g., Google Gemini, a local
// Ollama instance, or OpenAI) and exposes a uniform interface for turning a
// chunk of lecture transcript into multiple-choice poll questions, without
// coupling the session core to any specific SDK.
//
// Implementors must be safe for concurrent use: one generator instance serves
// every room in the process.
package quizgen

import (
	"context"
	"fmt"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// Defaults applied by [Request.Normalise].
const (
	DefaultQuestionCount = 5
	DefaultOptionCount   = 4
)

// Request describes one generation call.
type Request struct {
	// Text is the transcript excerpt the questions must be grounded in.
	Text string

	// Count is the number of questions to request. Zero means
	// [DefaultQuestionCount].
	Count int

	// Options is the number of answer choices per question. Zero means
	// [DefaultOptionCount].
	Options int

	// Difficulty is an optional free-form hint ("easy", "hard", "exam
	// level"). Empty means the prompt stays silent on difficulty.
	Difficulty string
}

// Normalise fills defaults and returns an error for an unusable request.
func (r *Request) Normalise() error {
	if r.Text == "" {
		return fmt.Errorf("quizgen: request text must not be empty")
	}
	if r.Count <= 0 {
		r.Count = DefaultQuestionCount
	}
	if r.Options <= 0 {
		r.Options = DefaultOptionCount
	}
	return nil
}

// Generator is the abstraction over any question-generation backend.
//
// GenerateQuestions must propagate context cancellation promptly and must
// return only questions that pass [ValidateQuestions]; a backend that cannot
// produce at least one valid question returns an error.
type Generator interface {
	// Name identifies the backend in logs and fallback-chain diagnostics,
	// e.g. "gemini" or "openai".
	Name() string

	GenerateQuestions(ctx context.Context, req Request) ([]types.Question, error)
}
