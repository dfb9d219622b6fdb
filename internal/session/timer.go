package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/transcript"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// DefaultGraceDelay is how long a completed timer waits before firing
// question generation, so a sentence in flight when the countdown hits zero
// still makes it into the accumulated text.
const DefaultGraceDelay = 2 * time.Second

// TimerConfig tunes the countdown timer engine.
type TimerConfig struct {
	// GraceDelay is the completion-to-generation delay.
	GraceDelay time.Duration
}

func (c *TimerConfig) applyDefaults() {
	if c.GraceDelay <= 0 {
		c.GraceDelay = DefaultGraceDelay
	}
}

// TimerFire is the generation trigger produced when a timer session ends
// with accumulated text.
type TimerFire struct {
	SessionID string
	Text      string
}

// TimerEngine accumulates transcript text over a fixed countdown and fires
// question generation exactly once per session, either after the grace delay
// following completion or immediately on manual stop.
//
// Like [SegmentationEngine] it is passive and tick-driven, and not safe for
// concurrent use on its own; the [Controller] serialises access.
type TimerEngine struct {
	cfg TimerConfig

	status      types.TimerStatus
	sessionID   string
	duration    time.Duration
	startedAt   time.Time
	completedAt time.Time

	accumulated  strings.Builder
	lastAppended string

	// questionsGenerated latches when generation is dispatched (or when a
	// session ends with nothing to generate). It guards the fire-once
	// property and is set at dispatch time, not on generation success, so
	// a failed generation cannot re-fire.
	questionsGenerated bool
}

// NewTimerEngine returns an idle engine with cfg applied over the defaults.
func NewTimerEngine(cfg TimerConfig) *TimerEngine {
	cfg.applyDefaults()
	return &TimerEngine{cfg: cfg, status: types.TimerIdle}
}

// Status returns the current lifecycle state.
func (t *TimerEngine) Status() types.TimerStatus { return t.status }

// SessionID returns the identifier of the current timer session, or the
// empty string before the first start.
func (t *TimerEngine) SessionID() string { return t.sessionID }

// Start begins a countdown of d. It fails with [ErrInvalidDuration] for
// non-positive d and [ErrAlreadyRunning] if a countdown is in progress;
// neither failure mutates any state.
func (t *TimerEngine) Start(d time.Duration, now time.Time) error {
	if d <= 0 {
		return ErrInvalidDuration
	}
	if t.status == types.TimerRunning {
		return ErrAlreadyRunning
	}

	t.status = types.TimerRunning
	t.sessionID = uuid.NewString()
	t.duration = d
	t.startedAt = now
	t.completedAt = time.Time{}
	t.accumulated.Reset()
	t.lastAppended = ""
	t.questionsGenerated = false
	return nil
}

// OnFinal appends a finalised line's text to the accumulated session text.
// Ignored unless the timer is running. An exact duplicate of the previously
// appended line is dropped, mirroring the segmentation engine's policy for
// re-transcribed text.
func (t *TimerEngine) OnFinal(text string) {
	if t.status != types.TimerRunning {
		return
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if t.lastAppended != "" && transcript.IsDuplicate(trimmed, t.lastAppended) {
		return
	}
	if t.accumulated.Len() > 0 {
		t.accumulated.WriteByte(' ')
	}
	t.accumulated.WriteString(trimmed)
	t.lastAppended = trimmed
}

// Tick advances the timer to now. It returns a non-nil fire exactly once per
// session, when the grace delay after completion has elapsed and accumulated
// text exists. changed reports whether the lifecycle state moved, so the
// caller knows to emit a timer event.
func (t *TimerEngine) Tick(now time.Time) (fire *TimerFire, changed bool) {
	if t.status == types.TimerRunning && now.Sub(t.startedAt) >= t.duration {
		t.status = types.TimerCompleted
		// Completion is anchored to the countdown's own deadline, not the
		// tick that observed it, so a sparse tick schedule cannot stretch
		// the grace delay.
		t.completedAt = t.startedAt.Add(t.duration)
		changed = true
	}
	if t.status == types.TimerCompleted &&
		!t.questionsGenerated && now.Sub(t.completedAt) >= t.cfg.GraceDelay {
		t.questionsGenerated = true
		changed = true
		if text := t.accumulated.String(); text != "" {
			fire = &TimerFire{SessionID: t.sessionID, Text: text}
		}
	}
	return fire, changed
}

// Stop ends a running countdown early. Generation fires immediately with
// whatever text has accumulated; an empty session stops without generating.
// Fails with [ErrTimerNotRunning] if no countdown is in progress.
func (t *TimerEngine) Stop(now time.Time) (*TimerFire, error) {
	if t.status != types.TimerRunning {
		return nil, ErrTimerNotRunning
	}

	t.status = types.TimerStopped
	t.completedAt = now

	var fire *TimerFire
	if !t.questionsGenerated {
		t.questionsGenerated = true
		if text := t.accumulated.String(); text != "" {
			fire = &TimerFire{SessionID: t.sessionID, Text: text}
		}
	}
	return fire, nil
}

// Reset returns the engine to idle. Fails with [ErrTimerRunning] while a
// countdown is in progress; a running timer must be stopped first.
func (t *TimerEngine) Reset() error {
	if t.status == types.TimerRunning {
		return ErrTimerRunning
	}

	t.status = types.TimerIdle
	t.sessionID = ""
	t.duration = 0
	t.startedAt = time.Time{}
	t.completedAt = time.Time{}
	t.accumulated.Reset()
	t.lastAppended = ""
	t.questionsGenerated = false
	return nil
}

// Remaining returns the time left on a running countdown, clamped at zero.
func (t *TimerEngine) Remaining(now time.Time) time.Duration {
	if t.status != types.TimerRunning {
		return 0
	}
	left := t.duration - now.Sub(t.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Snapshot returns the engine's externally visible state at now.
func (t *TimerEngine) Snapshot(now time.Time) TimerSnapshot {
	return TimerSnapshot{
		Status:             t.status,
		SessionID:          t.sessionID,
		Duration:           t.duration,
		Remaining:          t.Remaining(now),
		QuestionsGenerated: t.questionsGenerated,
	}
}
