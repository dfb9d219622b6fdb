package session

import (
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// EventType discriminates the notifications a [Controller] emits.
type EventType string

const (
	// EventStatusChanged fires on every recording lifecycle transition,
	// including mute toggles.
	EventStatusChanged EventType = "status_changed"

	// EventSegmentationUpdated fires when a segment closes, is suppressed,
	// or the engine is enabled/disabled.
	EventSegmentationUpdated EventType = "segmentation_updated"

	// EventTimerUpdated fires on timer lifecycle transitions.
	EventTimerUpdated EventType = "timer_updated"

	// EventQuestionsGenerated carries the result of a successful
	// question-generation dispatch.
	EventQuestionsGenerated EventType = "questions_generated"

	// EventGenerationFailed reports a failed generation dispatch. Recording
	// continues; the failure is informational.
	EventGenerationFailed EventType = "generation_failed"

	// EventPersistenceFailed reports a failed transcript save. The affected
	// lines are retained for retry; recording continues.
	EventPersistenceFailed EventType = "persistence_failed"
)

// SegmentationSnapshot is a point-in-time view of the segmentation engine,
// suitable for pushing to the UI.
type SegmentationSnapshot struct {
	Enabled        bool          `json:"enabled"`
	Paused         bool          `json:"paused"`
	PauseStartedAt time.Time     `json:"pauseStartedAt,omitzero"`
	Threshold      time.Duration `json:"threshold"`
	SegmentCount   int           `json:"segmentCount"`
	WindowLines    int           `json:"windowLines"`
}

// TimerSnapshot is a point-in-time view of the timer engine.
type TimerSnapshot struct {
	Status             types.TimerStatus `json:"status"`
	SessionID          string            `json:"sessionId,omitempty"`
	Duration           time.Duration     `json:"duration"`
	Remaining          time.Duration     `json:"remaining"`
	QuestionsGenerated bool              `json:"questionsGenerated"`
}

// Event is a single state-change notification. Type decides which optional
// fields are populated.
type Event struct {
	Type   EventType             `json:"type"`
	RoomID string                `json:"roomId"`
	Status types.RecordingStatus `json:"status,omitempty"`
	Muted  bool                  `json:"muted,omitempty"`

	Segmentation *SegmentationSnapshot `json:"segmentation,omitempty"`
	Timer        *TimerSnapshot        `json:"timer,omitempty"`

	// Generation results.
	Source       types.GenerationSource `json:"source,omitempty"`
	SegmentIndex int                    `json:"segmentIndex,omitempty"`
	SessionID    string                 `json:"sessionId,omitempty"`
	Questions    []types.Question       `json:"questions,omitempty"`

	// Error is the human-readable cause for the failure event types.
	Error string `json:"error,omitempty"`
}
