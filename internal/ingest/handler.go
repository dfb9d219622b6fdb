package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/observe"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/session"
)

// writeTimeout bounds a single outbound frame write.
const writeTimeout = 10 * time.Second

// Rooms resolves a room identifier to its session controller. The app's room
// manager satisfies it.
type Rooms interface {
	Room(roomID string) (*session.Controller, error)
}

// Option is a functional option for configuring the Handler.
type Option func(*Handler)

// WithAllowedOrigins sets the origin patterns accepted for the WebSocket
// upgrade. Empty means same-origin only.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.origins = origins
	}
}

// WithClock overrides the timestamp source for received transcript lines.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithMetrics enables connection and transcript-line instrumentation.
func WithMetrics(m *observe.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// Handler serves the room WebSocket endpoint. Register it on a mux as
// "GET /ws/{room}".
type Handler struct {
	rooms   Rooms
	hub     *Hub
	origins []string
	now     func() time.Time
	metrics *observe.Metrics
	log     *slog.Logger
}

// NewHandler builds a Handler fanning events out through hub.
func NewHandler(rooms Rooms, hub *Hub, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		rooms: rooms,
		hub:   hub,
		now:   time.Now,
		log:   logger.With("component", "ingest"),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// ServeHTTP upgrades the request and serves the connection until the client
// disconnects or stalls.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	if roomID == "" {
		roomID = r.URL.Query().Get("room")
	}
	if roomID == "" {
		http.Error(w, "missing room identifier", http.StatusBadRequest)
		return
	}

	ctrl, err := h.rooms.Room(roomID)
	if err != nil {
		h.log.Warn("room lookup failed", "room_id", roomID, "error", err)
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Warn("websocket accept failed", "room_id", roomID, "error", err)
		return
	}

	log := h.log.With("room_id", roomID)
	log.Info("client connected")
	if h.metrics != nil {
		h.metrics.ConnectedClients.Add(r.Context(), 1)
		defer h.metrics.ConnectedClients.Add(context.WithoutCancel(r.Context()), -1)
	}
	h.serve(r.Context(), conn, roomID, ctrl, log)
	log.Info("client disconnected")
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, roomID string, ctrl *session.Controller, log *slog.Logger) {
	c := newClient()
	h.hub.Add(roomID, c, ctrl)
	defer h.hub.Remove(roomID, c)

	// The write pump owns the connection's write side. It exits when the hub
	// closes the frame channel, closing the connection and so unblocking the
	// read loop too.
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for frame := range c.frames {
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := writeFrame(wctx, conn, frame)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "done")
	}()

	c.send(stateFrame(ctrl.Snapshot()))

	h.readLoop(ctx, conn, c, ctrl, log)

	h.hub.Remove(roomID, c)
	<-writeDone
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, c *client, ctrl *session.Controller, log *slog.Logger) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		frame, err := DecodeClientFrame(data)
		if err != nil {
			log.Debug("rejected frame", "error", err)
			c.send(errorFrame(err))
			continue
		}

		switch frame.Type {
		case FrameTranscript:
			if h.metrics != nil {
				h.metrics.RecordTranscriptLine(ctx, frame.Transcript.IsFinal)
			}
			ctrl.OnTranscript(frame.Transcript.Line(h.now()))
		case FrameCommand:
			if err := h.runCommand(ctx, ctrl, frame.Command); err != nil {
				log.Debug("command failed", "command", frame.Command.Name, "error", err)
				c.send(errorFrame(err))
			}
		}
	}
}

func (h *Handler) runCommand(ctx context.Context, ctrl *session.Controller, cmd *CommandFrame) error {
	switch cmd.Name {
	case CommandStart:
		return ctrl.Start(ctx)
	case CommandStop:
		return ctrl.Stop(ctx)
	case CommandMute:
		ctrl.SetMuted(true)
		return nil
	case CommandUnmute:
		ctrl.SetMuted(false)
		return nil
	case CommandReset:
		ctrl.Reset()
		return nil
	case CommandStartTimer:
		return ctrl.StartTimer(ctx, time.Duration(cmd.DurationSeconds)*time.Second)
	case CommandStopTimer:
		return ctrl.StopTimer()
	case CommandResetTimer:
		return ctrl.ResetTimer()
	case CommandSetSegmentation:
		if cmd.Enabled == nil {
			return errors.New("ingest: set_segmentation requires enabled")
		}
		ctrl.SetSegmentation(*cmd.Enabled)
		return nil
	default:
		return fmt.Errorf("ingest: unknown command %q", cmd.Name)
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame ServerFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("ingest: marshal frame: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
