package resilience

import (
	"context"
	"log/slog"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/quizgen"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// QuizgenFallback implements [quizgen.Generator] with automatic failover
// across multiple generation backends. The intended chain is a hosted model
// first (Gemini), then a local Ollama instance, then Groq as the last resort.
type QuizgenFallback struct {
	group *FallbackGroup[quizgen.Generator]
}

// Compile-time interface assertion.
var _ quizgen.Generator = (*QuizgenFallback)(nil)

// NewQuizgenFallback creates a [QuizgenFallback] with primary as the
// preferred backend.
func NewQuizgenFallback(primary quizgen.Generator, logger *slog.Logger) *QuizgenFallback {
	return &QuizgenFallback{
		group: NewFallbackGroup(primary, primary.Name(), logger),
	}
}

// AddFallback registers an additional generator as a fallback.
func (f *QuizgenFallback) AddFallback(g quizgen.Generator) {
	f.group.AddFallback(g.Name(), g)
}

// Name implements quizgen.Generator.
func (f *QuizgenFallback) Name() string { return "fallback-chain" }

// Providers returns the backend names in try order.
func (f *QuizgenFallback) Providers() []string { return f.group.Names() }

// GenerateQuestions sends the request to the first backend that can serve it.
func (f *QuizgenFallback) GenerateQuestions(ctx context.Context, req quizgen.Request) ([]types.Question, error) {
	return ExecuteWithResult(f.group, func(g quizgen.Generator) ([]types.Question, error) {
		return g.GenerateQuestions(ctx, req)
	})
}
