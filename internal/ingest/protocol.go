// Package ingest exposes the realtime WebSocket endpoint of the poll server.
// The host's browser streams recognised transcript lines and control commands
// in; every connected client of the room streams state-change and
// question-generation events out.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/session"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// FrameType discriminates client-to-server frames.
type FrameType string

const (
	// FrameTranscript carries one recognised transcript line.
	FrameTranscript FrameType = "transcript"

	// FrameCommand carries a session control command.
	FrameCommand FrameType = "command"
)

// CommandName identifies a session control command.
type CommandName string

const (
	CommandStart           CommandName = "start"
	CommandStop            CommandName = "stop"
	CommandMute            CommandName = "mute"
	CommandUnmute          CommandName = "unmute"
	CommandReset           CommandName = "reset"
	CommandStartTimer      CommandName = "start_timer"
	CommandStopTimer       CommandName = "stop_timer"
	CommandResetTimer      CommandName = "reset_timer"
	CommandSetSegmentation CommandName = "set_segmentation"
)

// ClientFrame is one JSON message received from a client. Exactly one of
// Transcript and Command is set, matching Type.
type ClientFrame struct {
	Type       FrameType        `json:"type"`
	Transcript *TranscriptFrame `json:"transcript,omitempty"`
	Command    *CommandFrame    `json:"command,omitempty"`
}

// TranscriptFrame is the wire form of a recognised transcript line.
type TranscriptFrame struct {
	// LineID is the utterance identifier assigned by the browser ASR. Finals
	// reuse the ID of the partials they supersede.
	LineID string `json:"line_id"`

	// Role identifies the speaker. Empty means host.
	Role string `json:"role,omitempty"`

	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`

	// StartMs and EndMs bound the recognised speech relative to the start of
	// the recording.
	StartMs int64 `json:"start_ms,omitempty"`
	EndMs   int64 `json:"end_ms,omitempty"`
}

// CommandFrame is the wire form of a control command. DurationSeconds applies
// to start_timer, Enabled to set_segmentation.
type CommandFrame struct {
	Name            CommandName `json:"name"`
	DurationSeconds int         `json:"duration_seconds,omitempty"`
	Enabled         *bool       `json:"enabled,omitempty"`
}

// ServerFrame is one JSON message sent to a client.
type ServerFrame struct {
	// Type is "state", "event", or "error".
	Type string `json:"type"`

	// State carries the full session snapshot, sent once on connect.
	State *session.State `json:"state,omitempty"`

	// Event carries one session event.
	Event *session.Event `json:"event,omitempty"`

	// Error describes a rejected frame or failed command.
	Error string `json:"error,omitempty"`
}

// DecodeClientFrame parses and validates one raw client message.
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return ClientFrame{}, fmt.Errorf("ingest: decode frame: %w", err)
	}

	switch f.Type {
	case FrameTranscript:
		if f.Transcript == nil {
			return ClientFrame{}, fmt.Errorf("ingest: transcript frame without transcript payload")
		}
		if f.Transcript.LineID == "" {
			return ClientFrame{}, fmt.Errorf("ingest: transcript frame without line_id")
		}
		if f.Transcript.Role != "" && !types.Role(f.Transcript.Role).IsValid() {
			return ClientFrame{}, fmt.Errorf("ingest: unknown role %q", f.Transcript.Role)
		}
	case FrameCommand:
		if f.Command == nil {
			return ClientFrame{}, fmt.Errorf("ingest: command frame without command payload")
		}
	default:
		return ClientFrame{}, fmt.Errorf("ingest: unknown frame type %q", f.Type)
	}
	return f, nil
}

// Line converts the frame into a transcript line stamped at now.
func (f *TranscriptFrame) Line(now time.Time) types.TranscriptLine {
	role := types.Role(f.Role)
	if role == "" {
		role = types.RoleHost
	}
	return types.TranscriptLine{
		ID:        f.LineID,
		Role:      role,
		Text:      f.Text,
		Timestamp: now,
		IsFinal:   f.IsFinal,
		Start:     time.Duration(f.StartMs) * time.Millisecond,
		End:       time.Duration(f.EndMs) * time.Millisecond,
	}
}

func stateFrame(s session.State) ServerFrame {
	return ServerFrame{Type: "state", State: &s}
}

func eventFrame(ev session.Event) ServerFrame {
	return ServerFrame{Type: "event", Event: &ev}
}

func errorFrame(err error) ServerFrame {
	return ServerFrame{Type: "error", Error: err.Error()}
}
