package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/config"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Segmentation: config.SegmentationConfig{
			Enabled:            true,
			SilenceThresholdMs: 10000,
			MinSegmentChars:    15,
			TickIntervalMs:     50,
		},
		Timer: config.TimerConfig{GraceDelayMs: 2000},
	}
}

func TestRoomManager_CreatesLazily(t *testing.T) {
	m := NewRoomManager(testConfig(), nil, disabledQuestions{}, nil, discard())
	t.Cleanup(func() { m.Close(context.Background()) })

	if m.Count() != 0 {
		t.Fatalf("initial count = %d", m.Count())
	}
	if _, ok := m.Lookup("room-1"); ok {
		t.Fatal("Lookup created a room")
	}

	ctrl, err := m.Room("room-1")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}

	again, err := m.Room("room-1")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if again != ctrl {
		t.Error("second access returned a different controller")
	}

	// Config flows through to the session.
	snap := ctrl.Snapshot()
	if !snap.Segmentation.Enabled {
		t.Error("segmentation not enabled from config")
	}
	if snap.Segmentation.Threshold != 10*time.Second {
		t.Errorf("threshold = %v", snap.Segmentation.Threshold)
	}
}

func TestRoomManager_RejectsInvalidIDs(t *testing.T) {
	m := NewRoomManager(testConfig(), nil, disabledQuestions{}, nil, discard())
	t.Cleanup(func() { m.Close(context.Background()) })

	if _, err := m.Room(""); err == nil {
		t.Error("empty room id accepted")
	}
	if _, err := m.Room(strings.Repeat("x", maxRoomIDLength+1)); err == nil {
		t.Error("oversized room id accepted")
	}
}

func TestRoomManager_Destroy(t *testing.T) {
	m := NewRoomManager(testConfig(), nil, disabledQuestions{}, nil, discard())
	t.Cleanup(func() { m.Close(context.Background()) })

	ctrl, err := m.Room("room-1")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Destroy("room-1")
	if m.Count() != 0 {
		t.Errorf("count after destroy = %d", m.Count())
	}
	if ctrl.Status() != types.RecordingStopped {
		t.Errorf("status after destroy = %q", ctrl.Status())
	}

	// Unknown rooms are a no-op.
	m.Destroy("room-404")

	// A new access builds a fresh room.
	fresh, err := m.Room("room-1")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if fresh == ctrl {
		t.Error("destroyed controller was reused")
	}
}

func TestRoomManager_CloseStopsRecording(t *testing.T) {
	m := NewRoomManager(testConfig(), nil, disabledQuestions{}, nil, discard())

	ctrl, err := m.Room("room-1")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Close(context.Background())
	if m.Count() != 0 {
		t.Errorf("count after close = %d", m.Count())
	}
	if ctrl.Status() != types.RecordingStopped {
		t.Errorf("status after close = %q", ctrl.Status())
	}
}
