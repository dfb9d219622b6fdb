package session

import "errors"

// Sentinel errors returned by the session core. Callers match them with
// errors.Is; transport layers translate them into user-facing messages.
var (
	// ErrInvalidDuration is returned when a timer is started with a
	// non-positive duration. Validation happens before any side effect, so
	// a rejected start never changes recording or timer state.
	ErrInvalidDuration = errors.New("session: timer duration must be positive")

	// ErrAlreadyRunning is returned by duplicate start requests, both for
	// the recording session and for the timer.
	ErrAlreadyRunning = errors.New("session: already running")

	// ErrTimerRunning is returned when a timer reset is requested while the
	// timer is still counting down. A running timer must be stopped first.
	ErrTimerRunning = errors.New("session: timer is running, stop it first")

	// ErrTimerNotRunning is returned when a timer stop is requested and no
	// timer is counting down.
	ErrTimerNotRunning = errors.New("session: timer is not running")

	// ErrNotRecording is returned when a stop is requested and no recording
	// session is active or connecting.
	ErrNotRecording = errors.New("session: no active recording to stop")

	// ErrSourceUnavailable wraps failures to acquire the transcript source.
	// The session lands in the error status and is recoverable via Reset.
	ErrSourceUnavailable = errors.New("session: transcript source unavailable")
)
