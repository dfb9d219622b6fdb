package transcript

import (
	"sync"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// Buffer is the ordered, append-only collection of transcript lines for one
// recording session. It holds both partial (interim) and final lines.
//
// A partial line is superseded in place when its final counterpart arrives
// with the same ID: the buffer holds at most one non-final line per ID, and
// supersession never reorders a line relative to its neighbours. Final lines
// are never removed by Append — if the ASR re-emits an ID that already has a
// final line, the new line is appended as a distinct entry.
//
// All methods are safe for concurrent use.
type Buffer struct {
	mu    sync.RWMutex
	lines []types.TranscriptLine

	// partials maps a line ID to the index of its current non-final entry.
	partials map[string]int
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{partials: make(map[string]int)}
}

// Append records a line. When a non-final line with the same ID already
// exists it is replaced wholesale at its original position; otherwise the
// line is appended.
func (b *Buffer) Append(line types.TranscriptLine) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, ok := b.partials[line.ID]; ok {
		b.lines[idx] = line
		if line.IsFinal {
			delete(b.partials, line.ID)
		}
		return
	}

	b.lines = append(b.lines, line)
	if !line.IsFinal {
		b.partials[line.ID] = len(b.lines) - 1
	}
}

// FinalLines returns all finalised lines in insertion order.
func (b *Buffer) FinalLines() []types.TranscriptLine {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.TranscriptLine, 0, len(b.lines))
	for _, l := range b.lines {
		if l.IsFinal {
			out = append(out, l)
		}
	}
	return out
}

// Lines returns a copy of every buffered line, partial and final, in
// insertion order.
func (b *Buffer) Lines() []types.TranscriptLine {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.TranscriptLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Clear empties the buffer. Used only by session reset.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = nil
	b.partials = make(map[string]int)
}
