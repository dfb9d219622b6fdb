package session

import (
	"strings"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/transcript"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// Segmentation defaults. A single threshold governs both pause detection and
// segment close; the old split between a "pause" and a "close" threshold was
// collapsed because nothing ever acted on the intermediate state.
const (
	DefaultSilenceThreshold = 10 * time.Second
	DefaultMinSegmentChars  = 15
)

// SegmentationConfig tunes the silence-based segmentation engine.
type SegmentationConfig struct {
	// Threshold is the continuous-silence duration after which the open
	// window closes as a segment.
	Threshold time.Duration

	// MinChars is the minimum normalised length, in characters, a closed
	// segment must reach before it is dispatched for question generation.
	// Shorter segments are still persisted.
	MinChars int
}

func (c *SegmentationConfig) applyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = DefaultSilenceThreshold
	}
	if c.MinChars <= 0 {
		c.MinChars = DefaultMinSegmentChars
	}
}

// Segment is a closed window of final transcript lines, produced by
// [SegmentationEngine.Tick] when the silence threshold elapses.
type Segment struct {
	// Index is the prospective zero-based index of this segment. It only
	// becomes the segment's committed index once the caller persists the
	// segment and calls [SegmentationEngine.Commit].
	Index int

	// Lines are the raw window lines, before duplicate filtering.
	Lines []types.TranscriptLine

	// Text is the space-joined text of the deduplicated lines.
	Text string

	// Suppressed marks a segment whose deduplicated text is empty or an
	// exact duplicate of the previously committed segment. Suppressed
	// segments are neither persisted nor dispatched, and they do not
	// advance the segment count.
	Suppressed bool

	// BelowMinimum marks a segment shorter than the generation floor. It
	// is persisted but not dispatched, and does not advance the count.
	BelowMinimum bool
}

// SegmentationEngine groups final transcript lines into lecture segments
// bounded by silence. It is a passive state machine: final lines are fed via
// [SegmentationEngine.OnFinal] and time advances only through
// [SegmentationEngine.Tick].
//
// The engine is not safe for concurrent use; the owning [Controller]
// serialises all access under its own mutex.
type SegmentationEngine struct {
	cfg SegmentationConfig

	enabled      bool
	window       []types.TranscriptLine
	lastSpeechAt time.Time

	paused         bool
	pauseStartedAt time.Time

	segmentCount  int
	lastCommitted string // canonical text of the last committed segment
}

// NewSegmentationEngine returns a disabled engine with cfg applied over the
// package defaults.
func NewSegmentationEngine(cfg SegmentationConfig) *SegmentationEngine {
	cfg.applyDefaults()
	return &SegmentationEngine{cfg: cfg}
}

// SetEnabled turns segmentation on or off. Disabling does not clear the open
// window; a mid-lecture toggle resumes where it left off.
func (e *SegmentationEngine) SetEnabled(v bool) { e.enabled = v }

// Enabled reports whether the engine evaluates ticks.
func (e *SegmentationEngine) Enabled() bool { return e.enabled }

// SegmentCount returns the number of committed segments this session.
func (e *SegmentationEngine) SegmentCount() int { return e.segmentCount }

// OnFinal appends a finalised line to the open window and restarts the
// silence clock. Interim lines must not be fed here.
func (e *SegmentationEngine) OnFinal(line types.TranscriptLine, now time.Time) {
	if !e.enabled {
		return
	}
	e.window = append(e.window, line)
	e.lastSpeechAt = now
	e.paused = false
	e.pauseStartedAt = time.Time{}
}

// ResetSilence restarts the silence clock without touching the window. The
// controller calls this when recording starts and when the host unmutes, so
// time spent muted or disconnected never counts as lecture silence.
func (e *SegmentationEngine) ResetSilence(now time.Time) {
	e.lastSpeechAt = now
	e.paused = false
	e.pauseStartedAt = time.Time{}
}

// Tick evaluates the silence clock at now. It returns a non-nil Segment when
// the threshold has elapsed with a non-empty window; otherwise nil. The
// returned segment's window is already cleared from the engine — the caller
// decides persistence and, for countable segments, calls [Commit].
func (e *SegmentationEngine) Tick(now time.Time) *Segment {
	if !e.enabled || len(e.window) == 0 {
		return nil
	}

	silence := now.Sub(e.lastSpeechAt)
	if silence <= 0 {
		return nil
	}
	if !e.paused {
		// A pause is detected the moment silence is first observed; its
		// start is backdated to the end of the last speech.
		e.paused = true
		e.pauseStartedAt = e.lastSpeechAt
	}
	if silence < e.cfg.Threshold {
		return nil
	}

	seg := e.closeWindow()
	e.paused = false
	e.pauseStartedAt = time.Time{}
	return seg
}

// closeWindow drains the open window into a Segment, filtering exact
// duplicates: lines matching the previously committed segment's text and
// consecutive repeats within the window. Lines compare by their canonical
// word sequence, so a re-punctuated re-transcription is still a repeat.
func (e *SegmentationEngine) closeWindow() *Segment {
	seg := &Segment{Index: e.segmentCount, Lines: e.window}
	e.window = nil

	var kept []string
	lastKey := ""
	for _, l := range seg.Lines {
		key := transcript.Canonical(l.Text)
		if key == "" {
			continue
		}
		if e.lastCommitted != "" && key == e.lastCommitted {
			continue
		}
		if key == lastKey {
			continue
		}
		kept = append(kept, transcript.Normalize(l.Text))
		lastKey = key
	}
	seg.Text = strings.Join(kept, " ")

	switch {
	case seg.Text == "":
		seg.Suppressed = true
	case e.lastCommitted != "" && transcript.IsDuplicate(seg.Text, e.lastCommitted):
		seg.Suppressed = true
	case len(seg.Text) < e.cfg.MinChars:
		seg.BelowMinimum = true
	}
	return seg
}

// Commit records a segment as durably persisted and dispatched: the count
// advances and text becomes the duplicate-suppression reference for the next
// close. Call it only after the segment has been saved.
func (e *SegmentationEngine) Commit(text string) {
	e.segmentCount++
	e.lastCommitted = transcript.Canonical(text)
}

// Reset returns the engine to its initial state, keeping configuration and
// the enabled flag.
func (e *SegmentationEngine) Reset() {
	e.window = nil
	e.lastSpeechAt = time.Time{}
	e.paused = false
	e.pauseStartedAt = time.Time{}
	e.segmentCount = 0
	e.lastCommitted = ""
}

// Snapshot returns the engine's externally visible state.
func (e *SegmentationEngine) Snapshot() SegmentationSnapshot {
	return SegmentationSnapshot{
		Enabled:        e.enabled,
		Paused:         e.paused,
		PauseStartedAt: e.pauseStartedAt,
		Threshold:      e.cfg.Threshold,
		SegmentCount:   e.segmentCount,
		WindowLines:    len(e.window),
	}
}
