package gamews

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/justanothervoicechat/server-go/internal/app"
	"github.com/justanothervoicechat/server-go/internal/core"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller is the websocket endpoint the embedding game server connects
// to. Commands arrive as JSON envelopes and map 1:1 onto orchestrator
// operations; lifecycle and talk events flow back over the same connection.
type Controller struct {
	Orch *app.Orchestrator

	readLimit int64
	callLimit *callRateLimiter

	mu      sync.RWMutex
	current *GameConn
}

func NewController(orch *app.Orchestrator, readLimit int64) *Controller {
	ctl := &Controller{
		Orch:      orch,
		readLimit: readLimit,
		callLimit: newCallRateLimiter(5, 10*time.Second),
	}
	ctl.subscribeEvents()
	return ctl
}

// subscribeEvents forwards engine events to whichever game connection is
// current. Emission must never fail the mutation, so delivery is TrySend.
func (ctl *Controller) subscribeEvents() {
	forward := func(ev core.Event) {
		ctl.pushEvent(ev)
	}
	for _, kind := range []core.EventKind{
		core.EventClientPrepared,
		core.EventClientConnected,
		core.EventClientDisconnected,
		core.EventTalkStarted,
		core.EventTalkStopped,
		core.EventMicrophoneChanged,
		core.EventSpeakersChanged,
		core.EventServerStarted,
		core.EventServerStopping,
	} {
		ctl.Orch.Bus.Subscribe(kind, forward)
	}
}

type eventMsg struct {
	Type         string `json:"type"`
	Kind         string `json:"kind"`
	Handle       string `json:"handle,omitempty"`
	HandshakeURL string `json:"handshake_url,omitempty"`
	Enabled      bool   `json:"enabled,omitempty"`
}

func (ctl *Controller) pushEvent(ev core.Event) {
	ctl.mu.RLock()
	conn := ctl.current
	ctl.mu.RUnlock()
	if conn == nil {
		return
	}
	ctl.sendJSON(conn, eventMsg{
		Type:         "event",
		Kind:         string(ev.Kind),
		Handle:       string(ev.Handle),
		HandshakeURL: ev.HandshakeURL,
		Enabled:      ev.Enabled,
	})
}

// HandleGame upgrades the request and runs the read/write pumps until the
// game server disconnects or the context ends.
func (ctl *Controller) HandleGame(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "gamews").Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	conn := newGameConn(ws, 64)

	ctl.mu.Lock()
	if ctl.current != nil {
		ctl.current.Close()
	}
	ctl.current = conn
	ctl.mu.Unlock()

	log.Info().Str("module", "gamews").Str("remote", ws.RemoteAddr().String()).Msg("game server connected")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}

func (ctl *Controller) writePump(ctx context.Context, c *GameConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "gamews").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "gamews").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *GameConn) {
	defer func() {
		log.Info().Str("module", "gamews").Msg("game connection closing")
		ctl.mu.Lock()
		if ctl.current == c {
			ctl.current = nil
		}
		ctl.mu.Unlock()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Warn().Err(err).Str("module", "gamews").Msg("readPump read error")
				return
			}
			ctl.handleCommand(c, data)
		}
	}
}

func (ctl *Controller) sendJSON(c *GameConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "gamews").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
