// Package session implements the recording-session core: the transcript
// buffer, the silence-based segmentation engine, the countdown timer, and the
// controller that owns them.
//
// The controller is the single writer. Every mutation — transcript arrival,
// tick evaluation, lifecycle commands — runs under one mutex, so the engines
// themselves stay lock-free. Persistence is synchronous inside that critical
// path; question generation is the one asynchronous boundary, dispatched
// fire-and-forget with an epoch token so results arriving after a reset are
// discarded.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/transcript"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// Default collaborator timeouts.
const (
	DefaultConnectTimeout    = 15 * time.Second
	DefaultStoreTimeout      = 10 * time.Second
	DefaultGenerationTimeout = 45 * time.Second
)

// Source is the transcript producer for one room, typically the browser ASR
// relay on the other end of a websocket. Start must block until the source is
// ready or ctx expires.
type Source interface {
	Start(ctx context.Context) error
	Stop() error
}

// TranscriptStore persists transcript data. Both methods are called
// synchronously from the controller's critical path and must respect ctx.
type TranscriptStore interface {
	// SaveSegment durably stores a closed segment: its joined text and the
	// window lines it was built from.
	SaveSegment(ctx context.Context, roomID string, index int, text string, lines []types.TranscriptLine) error

	// SaveLines stores finalised lines that never made it into a committed
	// segment, used by the stop-time flush and by save retries.
	SaveLines(ctx context.Context, roomID string, lines []types.TranscriptLine) error
}

// GenerationRequest is one question-generation dispatch.
type GenerationRequest struct {
	RoomID string
	HostID string

	Source types.GenerationSource

	// SegmentIndex is set for segment-sourced requests.
	SegmentIndex int

	// SessionID is set for timer-sourced requests.
	SessionID string

	Text string
}

// QuestionService turns transcript text into poll questions. Generate is
// called from a dispatched goroutine, never under the controller's lock.
type QuestionService interface {
	Generate(ctx context.Context, req GenerationRequest) ([]types.Question, error)
}

// ControllerConfig wires a Controller's collaborators and tuning.
type ControllerConfig struct {
	RoomID string
	HostID string

	Source    Source
	Store     TranscriptStore
	Questions QuestionService

	Segmentation SegmentationConfig
	Timer        TimerConfig

	ConnectTimeout    time.Duration
	StoreTimeout      time.Duration
	GenerationTimeout time.Duration

	// Clock defaults to [SystemClock].
	Clock  Clock
	Logger *slog.Logger
}

func (c *ControllerConfig) applyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = DefaultGenerationTimeout
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Controller owns one room's recording session. All exported methods are safe
// for concurrent use.
type Controller struct {
	cfg ControllerConfig
	log *slog.Logger

	mu     sync.Mutex
	status types.RecordingStatus
	muted  bool
	cause  error // non-nil while status == error

	buffer *transcript.Buffer
	seg    *SegmentationEngine
	timer  *TimerEngine

	// epoch counts resets. Generation results carry the epoch they were
	// dispatched under; a mismatch on arrival means the session they belong
	// to no longer exists and the result is dropped.
	epoch uint64

	// unsaved holds finalised lines not yet durably stored: the open
	// segmentation window plus any lines whose save failed. Flushed on
	// stop, retriable on demand.
	unsaved []types.TranscriptLine

	// spawn indirection exists so tests can run dispatched generation
	// synchronously. Dispatches happen strictly after the mutex is
	// released, so a synchronous spawn cannot deadlock.
	spawn func(func())

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewController builds a Controller in the stopped state.
func NewController(cfg ControllerConfig) *Controller {
	cfg.applyDefaults()
	return &Controller{
		cfg:    cfg,
		log:    cfg.Logger.With("component", "session", "room_id", cfg.RoomID),
		status: types.RecordingStopped,
		buffer: transcript.NewBuffer(),
		seg:    NewSegmentationEngine(cfg.Segmentation),
		timer:  NewTimerEngine(cfg.Timer),
		spawn:  func(f func()) { go f() },
		subs:   make(map[int]func(Event)),
	}
}

// Subscribe registers fn for every emitted event and returns an unsubscribe
// function. Callbacks run on the controller's calling goroutine after its
// lock is released; they must not block.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) emit(events ...Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, ev := range events {
		ev.RoomID = c.cfg.RoomID
		for _, fn := range fns {
			fn(ev)
		}
	}
}

// ─── Recording lifecycle ─────────────────────────────────────────────────────

// Start acquires the transcript source and moves the session to recording.
// The connecting phase is bounded by ConnectTimeout; on failure the session
// lands in the error status, recoverable only via [Controller.Reset].
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case types.RecordingActive, types.RecordingConnecting:
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.status = types.RecordingConnecting
	c.cause = nil
	c.mu.Unlock()
	c.emit(Event{Type: EventStatusChanged, Status: types.RecordingConnecting})

	cctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	err := c.cfg.Source.Start(cctx)

	c.mu.Lock()
	if err != nil {
		c.status = types.RecordingError
		c.cause = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		c.mu.Unlock()
		c.log.Error("transcript source start failed", "error", err)
		c.emit(Event{Type: EventStatusChanged, Status: types.RecordingError, Error: err.Error()})
		return c.cause
	}
	c.status = types.RecordingActive
	c.muted = false
	c.seg.ResetSilence(c.cfg.Clock.Now())
	c.mu.Unlock()

	c.log.Info("recording started")
	c.emit(Event{Type: EventStatusChanged, Status: types.RecordingActive})
	return nil
}

// Stop ends the recording session in a fixed order: stop the timer (firing
// its generation if text accumulated), release the source, flush unsaved
// lines, clear the buffer, zero the segmentation counters, reset the timer,
// and clear any error cause. Partial failures are logged and surfaced as
// events but never abort the remaining steps.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.status == types.RecordingStopped {
		c.mu.Unlock()
		return ErrNotRecording
	}

	var events []Event
	var dispatch *GenerationRequest

	if fire, err := c.timer.Stop(c.cfg.Clock.Now()); err == nil {
		events = append(events, Event{Type: EventTimerUpdated, Timer: c.timerSnapshot()})
		if fire != nil {
			dispatch = c.timerRequest(fire)
		}
	}

	if err := c.cfg.Source.Stop(); err != nil {
		c.log.Warn("transcript source stop failed", "error", err)
	}

	if len(c.unsaved) > 0 {
		sctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
		err := c.cfg.Store.SaveLines(sctx, c.cfg.RoomID, c.unsaved)
		cancel()
		if err != nil {
			// Lines survive in c.unsaved for a later RetryUnsaved.
			c.log.Error("stop-time transcript flush failed", "lines", len(c.unsaved), "error", err)
			events = append(events, Event{Type: EventPersistenceFailed, Error: err.Error()})
		} else {
			c.unsaved = nil
		}
	}

	c.buffer.Clear()
	c.seg.Reset()
	if err := c.timer.Reset(); err != nil {
		// Unreachable: the timer was stopped above.
		c.log.Error("timer reset failed during stop", "error", err)
	}
	c.cause = nil
	c.muted = false
	c.status = types.RecordingStopped
	events = append(events,
		Event{Type: EventSegmentationUpdated, Segmentation: c.segSnapshot()},
		Event{Type: EventStatusChanged, Status: types.RecordingStopped},
	)
	c.mu.Unlock()

	c.log.Info("recording stopped")
	c.emit(events...)
	if dispatch != nil {
		c.dispatchGeneration(*dispatch)
	}
	return nil
}

// SetMuted toggles the mute flag. While muted, transcript lines are ignored
// and the silence clock is frozen; unmuting restarts the silence clock so
// muted time never closes a segment.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	if c.status != types.RecordingActive || c.muted == muted {
		c.mu.Unlock()
		return
	}
	c.muted = muted
	if !muted {
		c.seg.ResetSilence(c.cfg.Clock.Now())
	}
	status := c.status
	c.mu.Unlock()

	c.log.Info("mute toggled", "muted", muted)
	c.emit(Event{Type: EventStatusChanged, Status: status, Muted: muted})
}

// Reset is the single idempotent teardown every other failure path converges
// on: it releases the source if held, discards the timer without firing
// generation, clears the buffer and counters, drops unsaved lines, clears any
// error cause, and bumps the epoch so in-flight generation results are
// discarded on arrival. Calling Reset on an already-clean session is a no-op.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.epoch++

	if c.status == types.RecordingActive || c.status == types.RecordingConnecting {
		if err := c.cfg.Source.Stop(); err != nil {
			c.log.Warn("transcript source stop failed during reset", "error", err)
		}
	}

	// A running timer is force-stopped; reset discards its text rather
	// than generating from a session that no longer exists.
	_, _ = c.timer.Stop(c.cfg.Clock.Now())
	_ = c.timer.Reset()

	c.buffer.Clear()
	c.seg.Reset()
	c.unsaved = nil
	c.muted = false
	c.cause = nil
	changed := c.status != types.RecordingStopped
	c.status = types.RecordingStopped
	segSnap := c.segSnapshot()
	timerSnap := c.timerSnapshot()
	c.mu.Unlock()

	c.log.Info("session reset")
	events := []Event{
		{Type: EventSegmentationUpdated, Segmentation: segSnap},
		{Type: EventTimerUpdated, Timer: timerSnap},
	}
	if changed {
		events = append(events, Event{Type: EventStatusChanged, Status: types.RecordingStopped})
	}
	c.emit(events...)
}

// MarkDisconnected records that the source dropped without a clean stop. The
// timer, if running, is stopped and its generation fired; the session lands
// in the disconnected status.
func (c *Controller) MarkDisconnected() {
	c.mu.Lock()
	if c.status != types.RecordingActive && c.status != types.RecordingConnecting {
		c.mu.Unlock()
		return
	}
	c.status = types.RecordingDisconnected

	var events []Event
	var dispatch *GenerationRequest
	if fire, err := c.timer.Stop(c.cfg.Clock.Now()); err == nil {
		events = append(events, Event{Type: EventTimerUpdated, Timer: c.timerSnapshot()})
		if fire != nil {
			dispatch = c.timerRequest(fire)
		}
	}
	events = append(events, Event{Type: EventStatusChanged, Status: types.RecordingDisconnected})
	c.mu.Unlock()

	c.log.Warn("transcript source disconnected")
	c.emit(events...)
	if dispatch != nil {
		c.dispatchGeneration(*dispatch)
	}
}

// ─── Transcript intake ───────────────────────────────────────────────────────

// OnTranscript feeds a transcript line into the session. Lines are dropped
// unless the session is actively recording and unmuted. Final lines feed both
// the segmentation window and, when a countdown is running, the timer's
// accumulated text.
func (c *Controller) OnTranscript(line types.TranscriptLine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != types.RecordingActive || c.muted {
		return
	}

	c.buffer.Append(line)
	if !line.IsFinal {
		return
	}
	c.unsaved = append(c.unsaved, line)
	c.seg.OnFinal(line, c.cfg.Clock.Now())
	c.timer.OnFinal(line.Text)
}

// ─── Tick evaluation ─────────────────────────────────────────────────────────

// Tick evaluates both engines at the clock's current time. It is the only
// place segments close and timers complete. Persistence of a closed segment
// happens synchronously here; generation dispatches after the lock is
// released.
func (c *Controller) Tick(ctx context.Context) {
	now := c.cfg.Clock.Now()

	c.mu.Lock()
	if c.status != types.RecordingActive {
		c.mu.Unlock()
		return
	}

	var events []Event
	var dispatches []GenerationRequest

	if !c.muted {
		if seg := c.seg.Tick(now); seg != nil {
			events, dispatches = c.handleSegmentClose(ctx, seg, events, dispatches)
		}
	}

	fire, changed := c.timer.Tick(now)
	if changed {
		events = append(events, Event{Type: EventTimerUpdated, Timer: c.timerSnapshot()})
	}
	if fire != nil {
		dispatches = append(dispatches, *c.timerRequest(fire))
	}
	c.mu.Unlock()

	c.emit(events...)
	for _, req := range dispatches {
		c.dispatchGeneration(req)
	}
}

// handleSegmentClose persists a closed segment and commits it. Called with
// c.mu held.
func (c *Controller) handleSegmentClose(ctx context.Context, seg *Segment, events []Event, dispatches []GenerationRequest) ([]Event, []GenerationRequest) {
	if seg.Suppressed {
		// Re-transcribed duplicates are dropped entirely, including from
		// the unsaved flush set, so storage never sees them twice.
		c.dropUnsavedTail(len(seg.Lines))
		c.log.Info("segment suppressed as duplicate",
			"prospective_index", seg.Index,
			"lines", len(seg.Lines))
		return append(events, Event{Type: EventSegmentationUpdated, Segmentation: c.segSnapshot()}), dispatches
	}

	if seg.BelowMinimum {
		// Too short to generate from, so nothing commits and the index is
		// not consumed. The lines are persisted on their own; saving them
		// under the prospective index would let the next committed segment
		// overwrite them.
		sctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
		err := c.cfg.Store.SaveLines(sctx, c.cfg.RoomID, seg.Lines)
		cancel()
		if err != nil {
			c.log.Error("short segment save failed", "error", err)
			return append(events, Event{Type: EventPersistenceFailed, Error: err.Error()}), dispatches
		}
		c.dropUnsavedTail(len(seg.Lines))
		c.log.Debug("segment below generation minimum, lines persisted only",
			"chars", len(seg.Text))
		return append(events, Event{Type: EventSegmentationUpdated, Segmentation: c.segSnapshot()}), dispatches
	}

	sctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	err := c.cfg.Store.SaveSegment(sctx, c.cfg.RoomID, seg.Index, seg.Text, seg.Lines)
	cancel()
	if err != nil {
		// No commit: the count stays put and the lines stay in the
		// unsaved set. The next close gets the same prospective index.
		c.log.Error("segment save failed", "prospective_index", seg.Index, "error", err)
		return append(events, Event{Type: EventPersistenceFailed, Error: err.Error()}), dispatches
	}
	c.dropUnsavedTail(len(seg.Lines))

	c.seg.Commit(seg.Text)
	c.log.Info("segment committed",
		"index", seg.Index,
		"chars", len(seg.Text),
		"lines", len(seg.Lines))
	events = append(events, Event{Type: EventSegmentationUpdated, Segmentation: c.segSnapshot()})
	dispatches = append(dispatches, GenerationRequest{
		RoomID:       c.cfg.RoomID,
		HostID:       c.cfg.HostID,
		Source:       types.SourceSegment,
		SegmentIndex: seg.Index,
		Text:         seg.Text,
	})
	return events, dispatches
}

// dropUnsavedTail removes the n most recently buffered unsaved lines. The
// controller appends to unsaved in arrival order and segment windows always
// cover the newest lines, so the window is exactly the tail.
func (c *Controller) dropUnsavedTail(n int) {
	if n >= len(c.unsaved) {
		c.unsaved = nil
		return
	}
	c.unsaved = c.unsaved[:len(c.unsaved)-n]
}

// Run drives Tick at interval until ctx is cancelled. Use
// [DefaultTickInterval] unless testing.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// ─── Timer commands ──────────────────────────────────────────────────────────

// StartTimer begins a countdown of d, first starting the recording session
// if it is not already active. The duration is validated before anything
// else, so an invalid request leaves both recording and timer untouched.
func (c *Controller) StartTimer(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ErrInvalidDuration
	}

	c.mu.Lock()
	active := c.status == types.RecordingActive
	c.mu.Unlock()
	if !active {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	c.mu.Lock()
	err := c.timer.Start(d, c.cfg.Clock.Now())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	snap := c.timerSnapshot()
	c.mu.Unlock()

	c.log.Info("timer started", "session_id", snap.SessionID, "duration", d)
	c.emit(Event{Type: EventTimerUpdated, Timer: snap})
	return nil
}

// StopTimer ends a running countdown early, firing generation immediately
// with the accumulated text.
func (c *Controller) StopTimer() error {
	c.mu.Lock()
	fire, err := c.timer.Stop(c.cfg.Clock.Now())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	snap := c.timerSnapshot()
	var dispatch *GenerationRequest
	if fire != nil {
		dispatch = c.timerRequest(fire)
	}
	c.mu.Unlock()

	c.log.Info("timer stopped", "session_id", snap.SessionID)
	c.emit(Event{Type: EventTimerUpdated, Timer: snap})
	if dispatch != nil {
		c.dispatchGeneration(*dispatch)
	}
	return nil
}

// ResetTimer returns the timer to idle for the next countdown. Disallowed
// while a countdown is running.
func (c *Controller) ResetTimer() error {
	c.mu.Lock()
	if err := c.timer.Reset(); err != nil {
		c.mu.Unlock()
		return err
	}
	snap := c.timerSnapshot()
	c.mu.Unlock()

	c.emit(Event{Type: EventTimerUpdated, Timer: snap})
	return nil
}

// timerRequest builds the generation request for a timer fire. Called with
// c.mu held.
func (c *Controller) timerRequest(fire *TimerFire) *GenerationRequest {
	return &GenerationRequest{
		RoomID:    c.cfg.RoomID,
		HostID:    c.cfg.HostID,
		Source:    types.SourceTimer,
		SessionID: fire.SessionID,
		Text:      fire.Text,
	}
}

// ─── Segmentation commands ───────────────────────────────────────────────────

// SetSegmentation enables or disables silence-based segmentation.
func (c *Controller) SetSegmentation(enabled bool) {
	c.mu.Lock()
	c.seg.SetEnabled(enabled)
	if enabled && c.status == types.RecordingActive && !c.muted {
		c.seg.ResetSilence(c.cfg.Clock.Now())
	}
	snap := c.segSnapshot()
	c.mu.Unlock()

	c.emit(Event{Type: EventSegmentationUpdated, Segmentation: snap})
}

// ─── Generation dispatch ─────────────────────────────────────────────────────

// dispatchGeneration hands a request to the question service on a fresh
// goroutine. Must be called without c.mu held. The current epoch rides along;
// results that land after a reset are logged and dropped.
func (c *Controller) dispatchGeneration(req GenerationRequest) {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	c.log.Info("question generation dispatched",
		"source", req.Source,
		"chars", len(req.Text))

	c.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.GenerationTimeout)
		defer cancel()

		questions, err := c.cfg.Questions.Generate(ctx, req)

		c.mu.Lock()
		stale := epoch != c.epoch
		c.mu.Unlock()
		if stale {
			c.log.Debug("discarding generation result from a reset session", "source", req.Source)
			return
		}

		if err != nil {
			c.log.Error("question generation failed", "source", req.Source, "error", err)
			c.emit(Event{
				Type:         EventGenerationFailed,
				Source:       req.Source,
				SegmentIndex: req.SegmentIndex,
				SessionID:    req.SessionID,
				Error:        err.Error(),
			})
			return
		}

		c.log.Info("questions generated", "source", req.Source, "count", len(questions))
		c.emit(Event{
			Type:         EventQuestionsGenerated,
			Source:       req.Source,
			SegmentIndex: req.SegmentIndex,
			SessionID:    req.SessionID,
			Questions:    questions,
		})
	})
}

// ─── Persistence retry ───────────────────────────────────────────────────────

// RetryUnsaved attempts to persist any lines whose earlier save failed.
func (c *Controller) RetryUnsaved(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.unsaved) == 0 {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	defer cancel()
	if err := c.cfg.Store.SaveLines(sctx, c.cfg.RoomID, c.unsaved); err != nil {
		return fmt.Errorf("session: retrying unsaved lines: %w", err)
	}
	c.unsaved = nil
	return nil
}

// ─── Inspection ──────────────────────────────────────────────────────────────

// State is a complete externally visible snapshot of a session, used by the
// UI on (re)connect and by tests asserting reset completeness.
type State struct {
	Status        types.RecordingStatus `json:"status"`
	Muted         bool                  `json:"muted"`
	Error         string                `json:"error,omitempty"`
	BufferedLines int                   `json:"bufferedLines"`
	UnsavedLines  int                   `json:"unsavedLines"`
	Segmentation  SegmentationSnapshot  `json:"segmentation"`
	Timer         TimerSnapshot         `json:"timer"`
}

// Snapshot returns the session's current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Status:        c.status,
		Muted:         c.muted,
		BufferedLines: c.buffer.Len(),
		UnsavedLines:  len(c.unsaved),
		Segmentation:  c.seg.Snapshot(),
		Timer:         c.timer.Snapshot(c.cfg.Clock.Now()),
	}
	if c.cause != nil {
		s.Error = c.cause.Error()
	}
	return s
}

// Status returns the recording lifecycle state.
func (c *Controller) Status() types.RecordingStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Transcript returns a copy of all buffered lines, partial and final.
func (c *Controller) Transcript() []types.TranscriptLine {
	return c.buffer.Lines()
}

// segSnapshot and timerSnapshot are called with c.mu held.
func (c *Controller) segSnapshot() *SegmentationSnapshot {
	snap := c.seg.Snapshot()
	return &snap
}

func (c *Controller) timerSnapshot() *TimerSnapshot {
	snap := c.timer.Snapshot(c.cfg.Clock.Now())
	return &snap
}
