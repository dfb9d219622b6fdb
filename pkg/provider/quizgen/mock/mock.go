// Package mock provides a test double for the quizgen.Generator interface.
//
// Use Generator in unit tests to verify generation requests and to feed
// controlled question sets without a live LLM backend.
//
// Example:
//
//	g := &mock.Generator{
//	    Questions: []types.Question{{Text: "?", Options: []string{"a", "b"}}},
//	}
//	qs, err := g.GenerateQuestions(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/quizgen"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// Call records a single invocation of GenerateQuestions.
type Call struct {
	// Ctx is the context passed to GenerateQuestions.
	Ctx context.Context
	// Req is the request passed to GenerateQuestions.
	Req quizgen.Request
}

// Generator is a mock implementation of quizgen.Generator.
// Zero values cause methods to return zero values and nil errors; set Err to
// inject failures.
type Generator struct {
	mu sync.Mutex

	// GeneratorName is returned by Name. Defaults to "mock".
	GeneratorName string

	// Questions is returned by every successful GenerateQuestions call.
	Questions []types.Question

	// Err, if non-nil, is returned instead of Questions.
	Err error

	// Calls records every invocation in order.
	Calls []Call
}

// Name implements quizgen.Generator.
func (g *Generator) Name() string {
	if g.GeneratorName == "" {
		return "mock"
	}
	return g.GeneratorName
}

// GenerateQuestions implements quizgen.Generator.
func (g *Generator) GenerateQuestions(ctx context.Context, req quizgen.Request) ([]types.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls = append(g.Calls, Call{Ctx: ctx, Req: req})
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Questions, nil
}

// CallCount returns the number of recorded invocations.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}
