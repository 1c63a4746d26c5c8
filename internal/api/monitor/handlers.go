package monitor

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel"
)

const (
	exclusiveTimeout = 2 * time.Second
	streamBuffer     = 64
	writeWait        = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the monitor binds to loopback by default
	},
}

func (s *Server) booted() bool {
	select {
	case <-s.kernel.Ready():
		return true
	default:
		return false
	}
}

// Health reports liveness and whether the kernel has booted.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"booted":       s.booted(),
		"live_handles": s.kernel.LiveHandles(),
	})
}

// Session returns a snapshot taken with interrupts masked.
func (s *Server) Session(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), exclusiveTimeout)
	defer cancel()

	var snap session.Snapshot
	err := s.kernel.Exclusive(ctx, func(_ context.Context, sess kernel.Session) {
		snap = sess.Snapshot()
	})
	switch {
	case errors.Is(err, kernel.ErrNotBooted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ConsoleLines returns the retained diagnostic history.
func (s *Server) ConsoleLines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"lines": s.kernel.Console().Lines()})
}

// Traces returns recently finished spans, newest first. ?limit bounds the
// count.
func (s *Server) Traces(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, gin.H{"spans": s.tracer.Recent(limit)})
}

// RaiseIRQ asserts the hardware line named in the path.
func (s *Server) RaiseIRQ(c *gin.Context) {
	line, err := strconv.ParseUint(c.Param("line"), 10, 8)
	if err != nil || line > 15 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line must be 0-15"})
		return
	}
	s.raiser.Raise(uint8(line))
	s.logger.Debug("irq injected", zap.Uint64("line", line))
	c.JSON(http.StatusAccepted, gin.H{"line": line})
}

// ConsoleStream upgrades to a websocket, replays the retained history and
// then forwards every new diagnostic line as a text message.
func (s *Server) ConsoleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	console := s.kernel.Console()
	lines, cancel := console.Subscribe(streamBuffer)
	defer cancel()

	for _, line := range console.Lines() {
		if err := s.write(conn, line); err != nil {
			return
		}
	}

	// The client never sends anything; reading only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := s.write(conn, line); err != nil {
				s.logger.Debug("console stream closed", zap.Error(err))
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, line string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(line))
}
