package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/config"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/observe"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/session"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// maxRoomIDLength bounds room identifiers coming from URLs.
const maxRoomIDLength = 128

// browserSource is the transcript source for rooms fed by a browser over the
// WebSocket endpoint. The browser pushes lines on its own; there is nothing
// to acquire, so the source is always ready.
type browserSource struct{}

func (browserSource) Start(context.Context) error { return nil }
func (browserSource) Stop() error                 { return nil }

// discardStore is the transcript store used when no database is configured.
// Sessions run fully in memory and nothing survives a restart.
type discardStore struct{}

func (discardStore) SaveSegment(context.Context, string, int, string, []types.TranscriptLine) error {
	return nil
}
func (discardStore) SaveLines(context.Context, string, []types.TranscriptLine) error { return nil }

// room pairs a controller with its tick loop and event subscription.
type room struct {
	ctrl        *session.Controller
	cancel      context.CancelFunc
	unsubscribe func()

	// active mirrors whether the room's recording status last reported
	// active, for the active-rooms gauge. Guarded by mu because events can
	// arrive from any mutating goroutine.
	mu     sync.Mutex
	active bool
}

// RoomManager creates and owns per-room session controllers. Rooms come into
// existence on first access and live until destroyed or until Close. Safe
// for concurrent use.
type RoomManager struct {
	cfg       *config.Config
	store     session.TranscriptStore
	questions session.QuestionService
	metrics   *observe.Metrics
	log       *slog.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

// NewRoomManager builds a RoomManager. store may be nil, which disables
// persistence; metrics may be nil, which disables instrumentation.
func NewRoomManager(cfg *config.Config, store session.TranscriptStore, questions session.QuestionService, metrics *observe.Metrics, logger *slog.Logger) *RoomManager {
	if store == nil {
		store = discardStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomManager{
		cfg:       cfg,
		store:     store,
		questions: questions,
		metrics:   metrics,
		log:       logger.With("component", "rooms"),
		rooms:     make(map[string]*room),
	}
}

// Room returns roomID's controller, creating the room on first access.
func (m *RoomManager) Room(roomID string) (*session.Controller, error) {
	if roomID == "" || len(roomID) > maxRoomIDLength {
		return nil, fmt.Errorf("rooms: invalid room id %q", roomID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[roomID]; ok {
		return r.ctrl, nil
	}

	ctrl := session.NewController(session.ControllerConfig{
		RoomID:    roomID,
		Source:    browserSource{},
		Store:     m.store,
		Questions: m.questions,
		Segmentation: session.SegmentationConfig{
			Threshold: m.cfg.Segmentation.SilenceThreshold(),
			MinChars:  m.cfg.Segmentation.MinSegmentChars,
		},
		Timer: session.TimerConfig{
			GraceDelay: m.cfg.Timer.GraceDelay(),
		},
		GenerationTimeout: m.cfg.Generation.Timeout(),
		Logger:            m.log,
	})
	ctrl.SetSegmentation(m.cfg.Segmentation.Enabled)

	r := &room{ctrl: ctrl}
	if m.metrics != nil {
		r.unsubscribe = ctrl.Subscribe(func(ev session.Event) {
			m.observeEvent(r, ev)
		})
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	interval := m.cfg.Segmentation.TickInterval()
	if interval <= 0 {
		interval = session.DefaultTickInterval
	}
	go ctrl.Run(tickCtx, interval)

	m.rooms[roomID] = r
	m.log.Info("room created", "room_id", roomID)
	return ctrl, nil
}

// Destroy tears a room down: the tick loop stops and the session is reset,
// discarding all in-memory state. Destroying an unknown room is a no-op.
func (m *RoomManager) Destroy(roomID string) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if ok {
		delete(m.rooms, roomID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.teardown(r)
	m.log.Info("room destroyed", "room_id", roomID)
}

// Close stops every room, flushing unsaved transcript lines through each
// controller's stop path before the tick loops die.
func (m *RoomManager) Close(ctx context.Context) {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*room)
	m.mu.Unlock()

	for id, r := range rooms {
		if err := r.ctrl.Stop(ctx); err != nil {
			m.log.Warn("room stop failed during close", "room_id", id, "error", err)
		}
		m.teardown(r)
	}
}

// Lookup returns roomID's controller without creating the room.
func (m *RoomManager) Lookup(roomID string) (*session.Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	return r.ctrl, true
}

// Count reports the number of live rooms.
func (m *RoomManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func (m *RoomManager) teardown(r *room) {
	r.cancel()
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.ctrl.Reset()

	r.mu.Lock()
	wasActive := r.active
	r.active = false
	r.mu.Unlock()
	if wasActive && m.metrics != nil {
		m.metrics.ActiveRooms.Add(context.Background(), -1)
	}
}

// observeEvent maps session events onto metric instruments.
func (m *RoomManager) observeEvent(r *room, ev session.Event) {
	ctx := context.Background()

	switch ev.Type {
	case session.EventStatusChanged:
		active := ev.Status == types.RecordingActive
		r.mu.Lock()
		changed := active != r.active
		r.active = active
		r.mu.Unlock()
		if changed {
			delta := int64(-1)
			if active {
				delta = 1
			}
			m.metrics.ActiveRooms.Add(ctx, delta)
		}
	case session.EventQuestionsGenerated, session.EventGenerationFailed:
		// Either way the segment made it through commit.
		if ev.Source == types.SourceSegment {
			m.metrics.RecordSegmentClosed(ctx, "committed")
		}
	case session.EventPersistenceFailed:
		m.metrics.RecordPersistFailure(ctx, "segment")
	}
}
