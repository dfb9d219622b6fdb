package transcript

import (
	"testing"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

func line(id, text string, final bool) types.TranscriptLine {
	return types.TranscriptLine{
		ID:        id,
		Role:      types.RoleHost,
		Text:      text,
		Timestamp: time.Now(),
		IsFinal:   final,
	}
}

func TestBuffer_Append(t *testing.T) {
	t.Run("final supersedes partial with same id", func(t *testing.T) {
		b := NewBuffer()
		b.Append(line("u1", "the sky", false))
		b.Append(line("u1", "the sky is blue", true))

		lines := b.Lines()
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(lines))
		}
		if !lines[0].IsFinal || lines[0].Text != "the sky is blue" {
			t.Errorf("expected final line to survive, got %+v", lines[0])
		}
	})

	t.Run("partial refines partial in place", func(t *testing.T) {
		b := NewBuffer()
		b.Append(line("u1", "the", false))
		b.Append(line("u2", "other speaker", true))
		b.Append(line("u1", "the sky", false))

		lines := b.Lines()
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		// Supersession keeps the original position.
		if lines[0].Text != "the sky" {
			t.Errorf("expected refined partial at index 0, got %q", lines[0].Text)
		}
		if lines[1].Text != "other speaker" {
			t.Errorf("expected unrelated final untouched, got %q", lines[1].Text)
		}
	})

	t.Run("final lines are never replaced", func(t *testing.T) {
		b := NewBuffer()
		b.Append(line("u1", "first final", true))
		b.Append(line("u1", "duplicate id", true))

		lines := b.Lines()
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		if lines[0].Text != "first final" {
			t.Errorf("existing final was modified: %q", lines[0].Text)
		}
	})
}

func TestBuffer_FinalLines(t *testing.T) {
	b := NewBuffer()
	b.Append(line("u1", "one", true))
	b.Append(line("u2", "in flight", false))
	b.Append(line("u3", "three", true))

	finals := b.FinalLines()
	if len(finals) != 2 {
		t.Fatalf("expected 2 final lines, got %d", len(finals))
	}
	if finals[0].Text != "one" || finals[1].Text != "three" {
		t.Errorf("final lines out of order: %q, %q", finals[0].Text, finals[1].Text)
	}
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer()
	b.Append(line("u1", "one", true))
	b.Append(line("u2", "two", false))

	b.Clear()

	if b.Len() != 0 {
		t.Errorf("expected empty buffer after Clear, got %d lines", b.Len())
	}

	// A partial ID from before the clear must not be treated as in-flight.
	b.Append(line("u2", "fresh", true))
	if got := len(b.FinalLines()); got != 1 {
		t.Errorf("expected 1 final line after re-append, got %d", got)
	}
}
