// Package types defines the shared types used across all poll-generation packages.
//
// These types form the lingua franca between the ingest layer, the recording
// session core, the storage layer, and the question-generation providers. Each
// package defines its own domain types; cross-cutting data structures live here
// to avoid circular imports.
package types

import "time"

// Role identifies who produced a transcript line.
type Role string

const (
	// RoleHost is the room host (the speaker whose lecture is being polled).
	RoleHost Role = "host"

	// RoleParticipant is a signed-in student in the room.
	RoleParticipant Role = "participant"

	// RoleGuest is an anonymous attendee.
	RoleGuest Role = "guest"
)

// IsValid reports whether r is a recognised speaker role.
func (r Role) IsValid() bool {
	switch r {
	case RoleHost, RoleParticipant, RoleGuest:
		return true
	}
	return false
}

// TranscriptLine is a single speech-recognition result received from the
// browser ASR source. Both interim (partial) and finalised lines use this type.
type TranscriptLine struct {
	// ID is the opaque utterance identifier assigned by the ASR source.
	// A final line carries the same ID as the partial lines it supersedes.
	ID string

	// Role identifies the speaker.
	Role Role

	// Text is the raw recognised text.
	Text string

	// Timestamp is the wall-clock time at which the line was received.
	// Within a session timestamps are monotonically non-decreasing.
	Timestamp time.Time

	// IsFinal distinguishes a settled recognition from a still-mutable one.
	IsFinal bool

	// Start and End bound the speech the ASR attributes to this line,
	// relative to the start of the recording.
	Start time.Duration
	End   time.Duration
}

// RecordingStatus is the lifecycle state of a room's recording session.
type RecordingStatus string

const (
	RecordingStopped      RecordingStatus = "stopped"
	RecordingConnecting   RecordingStatus = "connecting"
	RecordingActive       RecordingStatus = "recording"
	RecordingError        RecordingStatus = "error"
	RecordingDisconnected RecordingStatus = "disconnected"
)

// TimerStatus is the lifecycle state of a timed quiz session.
type TimerStatus string

const (
	TimerIdle      TimerStatus = "idle"
	TimerRunning   TimerStatus = "running"
	TimerCompleted TimerStatus = "completed"
	TimerStopped   TimerStatus = "stopped"
)

// Question is a single generated poll question. The core never inspects
// question content beyond validation; it is produced by a generation provider
// and forwarded to the UI.
type Question struct {
	// Text is the question stem.
	Text string `json:"text"`

	// Options are the answer choices, in display order.
	Options []string `json:"options"`

	// CorrectIndex is the zero-based index of the correct option.
	CorrectIndex int `json:"correctIndex"`

	// Explanation is an optional rationale shown after the poll closes.
	Explanation string `json:"explanation,omitempty"`
}

// GenerationSource identifies which engine dispatched a generation request.
type GenerationSource string

const (
	// SourceSegment marks questions generated from a silence-bounded segment.
	SourceSegment GenerationSource = "segment"

	// SourceTimer marks questions generated at the end of a timed session.
	SourceTimer GenerationSource = "timer"
)
