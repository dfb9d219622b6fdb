package ingest

import (
	"testing"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

func TestDecodeClientFrame(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "transcript frame",
			raw:  `{"type":"transcript","transcript":{"line_id":"u1","text":"hello","is_final":true}}`,
		},
		{
			name: "command frame",
			raw:  `{"type":"command","command":{"name":"start"}}`,
		},
		{
			name: "timer command with duration",
			raw:  `{"type":"command","command":{"name":"start_timer","duration_seconds":300}}`,
		},
		{
			name:    "malformed json",
			raw:     `{"type":`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			raw:     `{"type":"poll_vote"}`,
			wantErr: true,
		},
		{
			name:    "transcript without payload",
			raw:     `{"type":"transcript"}`,
			wantErr: true,
		},
		{
			name:    "transcript without line id",
			raw:     `{"type":"transcript","transcript":{"text":"hello"}}`,
			wantErr: true,
		},
		{
			name:    "transcript with unknown role",
			raw:     `{"type":"transcript","transcript":{"line_id":"u1","role":"moderator","text":"hi"}}`,
			wantErr: true,
		},
		{
			name:    "command without payload",
			raw:     `{"type":"command"}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClientFrame([]byte(tc.raw))
			if tc.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("DecodeClientFrame: %v", err)
			}
		})
	}
}

func TestTranscriptFrameLine(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	frame := TranscriptFrame{
		LineID:  "u7",
		Text:    "photosynthesis converts light into chemical energy",
		IsFinal: true,
		StartMs: 1500,
		EndMs:   4200,
	}

	line := frame.Line(now)
	if line.ID != "u7" || !line.IsFinal {
		t.Errorf("line = %+v", line)
	}
	if line.Role != types.RoleHost {
		t.Errorf("default role = %q, want host", line.Role)
	}
	if line.Timestamp != now {
		t.Errorf("timestamp = %v", line.Timestamp)
	}
	if line.Start != 1500*time.Millisecond || line.End != 4200*time.Millisecond {
		t.Errorf("bounds = %v..%v", line.Start, line.End)
	}

	frame.Role = "participant"
	if got := frame.Line(now).Role; got != types.RoleParticipant {
		t.Errorf("role = %q", got)
	}
}
