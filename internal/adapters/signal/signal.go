// Package signal is the WebSocket transport of the session relay: it
// upgrades authenticated connections, pumps frames, and dispatches
// inbound events to the application services.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/app"
	"github.com/socia-app/relay/internal/config"
	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/domain"
)

type Controller struct {
	Cfg      *config.Config
	Registry *app.Registry
	Rooms    *core.RoomIndex
	Relay    *app.Relay
	Calls    *app.Calls
	History  *app.History

	limiter *rateLimiter
}

func NewController(cfg *config.Config, reg *app.Registry, rooms *core.RoomIndex, relay *app.Relay, calls *app.Calls, history *app.History) *Controller {
	return &Controller{
		Cfg:      cfg,
		Registry: reg,
		Rooms:    rooms,
		Relay:    relay,
		Calls:    calls,
		History:  history,
		limiter:  newRateLimiter(cfg.RateLimit, cfg.RateInterval),
	}
}

// WsConn wraps a websocket connection with a buffered, never-blocking
// send channel.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and registers the connection. The
// auth middleware has already placed the verified user id in the gin
// context; binding happens later, on the setup event.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	if sid == "" {
		sid = core.SessionID(uuid.NewString())
	}
	verified := domain.UserID(c.GetString("user_id"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("user", string(verified)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	sess := core.NewSession(sid, conn)
	ctl.Registry.Register(sess)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess, verified, conn)
}
