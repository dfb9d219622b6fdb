package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/archive"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/observe"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/session"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/quizgen"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/store/postgres"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// ErrGenerationDisabled is returned when no generation providers are
// configured.
var ErrGenerationDisabled = errors.New("app: question generation disabled, no providers configured")

// disabledQuestions satisfies session.QuestionService when the fallback
// chain is empty.
type disabledQuestions struct{}

func (disabledQuestions) Generate(context.Context, session.GenerationRequest) ([]types.Question, error) {
	return nil, ErrGenerationDisabled
}

// questionService adapts the quizgen fallback chain to the session core's
// question contract. Successful sets are archived for later review; an
// archiving failure never fails the generation.
type questionService struct {
	generator quizgen.Generator
	archive   *archive.Archive // nil when storage is disabled
	metrics   *observe.Metrics // nil when instrumentation is disabled
	log       *slog.Logger

	count      int
	options    int
	difficulty string
}

func newQuestionService(gen quizgen.Generator, arch *archive.Archive, metrics *observe.Metrics, tuning generationTuning, logger *slog.Logger) *questionService {
	return &questionService{
		generator:  gen,
		archive:    arch,
		metrics:    metrics,
		log:        logger.With("component", "questions"),
		count:      tuning.questionCount,
		options:    tuning.optionCount,
		difficulty: tuning.difficulty,
	}
}

// generationTuning carries the request parameters shared by every dispatch.
type generationTuning struct {
	questionCount int
	optionCount   int
	difficulty    string
}

// Generate implements session.QuestionService.
func (s *questionService) Generate(ctx context.Context, req session.GenerationRequest) ([]types.Question, error) {
	start := time.Now()
	questions, err := s.generator.GenerateQuestions(ctx, quizgen.Request{
		Text:       req.Text,
		Count:      s.count,
		Options:    s.options,
		Difficulty: s.difficulty,
	})
	if s.metrics != nil {
		s.metrics.RecordGeneration(ctx, string(req.Source), len(questions), time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("app: generate questions: %w", err)
	}

	if s.archive != nil {
		index := req.SegmentIndex
		if req.Source == types.SourceTimer {
			index = -1
		}
		set := postgres.QuestionSet{
			RoomID:       req.RoomID,
			Source:       req.Source,
			SegmentIndex: index,
			SessionID:    req.SessionID,
			Provider:     s.generator.Name(),
			Questions:    questions,
		}
		if err := s.archive.RecordQuestionSet(ctx, set); err != nil {
			s.log.Warn("question set not archived",
				"room_id", req.RoomID, "source", req.Source, "error", err)
		}
	}
	return questions, nil
}
