// Package anyllm provides a question generator backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports Gemini, Ollama, Groq, OpenAI, Mistral, DeepSeek, and more.
//
// Usage:
//
//	g, err := anyllm.NewGemini("gemini-2.0-flash", anyllmlib.WithAPIKey("..."))
//	g, err := anyllm.NewOllama("llama3.2")
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/quizgen"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// Generator implements quizgen.Generator by wrapping any-llm-go.
type Generator struct {
	backend anyllmlib.Provider
	name    string
	model   string
}

// New creates a Generator backed by the given provider name.
//
// providerName is one of: "gemini", "ollama", "groq", "openai", "mistral",
// "deepseek". model is the specific model to use (e.g. "gemini-2.0-flash").
//
// opts are any-llm-go configuration options (e.g. anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL). Without an API key option the backend falls back to
// its environment variable (GEMINI_API_KEY, GROQ_API_KEY, and so on).
func New(providerName, model string, opts ...anyllmlib.Option) (*Generator, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Generator{backend: backend, name: strings.ToLower(providerName), model: model}, nil
}

// NewGemini creates a Generator backed by Google Gemini.
// Without options, it reads the GEMINI_API_KEY or GOOGLE_API_KEY environment variable.
func NewGemini(model string, opts ...anyllmlib.Option) (*Generator, error) {
	return New("gemini", model, opts...)
}

// NewOllama creates a Generator backed by Ollama (local inference).
// Without options, it connects to http://localhost:11434.
func NewOllama(model string, opts ...anyllmlib.Option) (*Generator, error) {
	return New("ollama", model, opts...)
}

// NewGroq creates a Generator backed by Groq.
// Without options, it reads the GROQ_API_KEY environment variable.
func NewGroq(model string, opts ...anyllmlib.Option) (*Generator, error) {
	return New("groq", model, opts...)
}

// createBackend creates the underlying any-llm-go provider.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "openai":
		return anyllmoai.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: gemini, ollama, groq, openai, mistral, deepseek", providerName)
	}
}

// Name implements quizgen.Generator.
func (g *Generator) Name() string { return g.name }

// GenerateQuestions implements quizgen.Generator.
func (g *Generator) GenerateQuestions(ctx context.Context, req quizgen.Request) ([]types.Question, error) {
	if err := req.Normalise(); err != nil {
		return nil, err
	}

	temp := 0.7
	params := anyllmlib.CompletionParams{
		Model:       g.model,
		Temperature: &temp,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: quizgen.SystemPrompt},
			{Role: anyllmlib.RoleUser, Content: quizgen.BuildPrompt(req)},
		},
	}

	resp, err := g.backend.Completion(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anyllm: %s completion: %w", g.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("anyllm: %s returned empty choices", g.name)
	}

	questions, err := quizgen.ParseQuestions(resp.Choices[0].Message.ContentString())
	if err != nil {
		return nil, fmt.Errorf("anyllm: %s: %w", g.name, err)
	}
	return questions, nil
}
