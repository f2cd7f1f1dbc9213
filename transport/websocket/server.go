package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	maxMessageSize = 4096
)

type sessionService interface {
	Open(ctx context.Context, id string) (entity.View, error)
	PlayMove(ctx context.Context, id string, cell int) (entity.View, error)
	JumpTo(ctx context.Context, id string, move int) (entity.View, error)
	ToggleOrder(ctx context.Context, id string) (entity.View, error)
	Reset(ctx context.Context, id string) (entity.View, error)
}

type handlerFunc func(ctx context.Context, sessionID string, message *Message) (entity.View, error)

type Server struct {
	logger   *slog.Logger
	sessions sessionService
	cookie   string
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

// New - the session id is read from the named cookie. The server is an http.Handler for the upgrade endpoint.
func New(logger *slog.Logger, sessions sessionService, cookie string) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		cookie:   cookie,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionGetSession] = server.handleGetSession
	server.handlers[actionCellClick] = server.handleCellClick
	server.handlers[actionMoveJump] = server.handleMoveJump
	server.handlers[actionOrderToggle] = server.handleOrderToggle
	server.handlers[actionReset] = server.handleReset

	return server
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	sessionID := ""
	if cookie, err := r.Cookie(that.cookie); err == nil {
		sessionID = cookie.Value
	}

	// the session is opened before the upgrade so a new id can still be sent as a cookie
	view, err := that.sessions.Open(r.Context(), sessionID)
	if err != nil {
		log.Error("failed to open session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	header := http.Header{}
	if view.SessionID != sessionID {
		header.Add("Set-Cookie", (&http.Cookie{
			Name:     that.cookie,
			Value:    view.SessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}).String())
	}

	conn, err := that.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already replied to the client
		log.Debug("failed to upgrade connection", "error", err)
		return
	}

	log.Info("websocket connection established", "sessionID", view.SessionID)

	that.serveConn(r.Context(), conn, view.SessionID)
}

// serveConn - handles messages one at a time until the client goes away.
func (that *Server) serveConn(ctx context.Context, conn *websocket.Conn, sessionID string) {
	log := that.logger.With("method", "serveConn", "sessionID", sessionID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writes := make(chan Response, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		that.writeLoop(ctx, conn, writes)
	}()

	defer func() {
		close(writes)
		<-done
		log.Info("websocket connection closed")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var response Response

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Debug("failed to unmarshal message", "error", err)
			response = Response{Error: errInvalidMessage}
		} else {
			response = that.processMessage(ctx, sessionID, &message)
		}

		select {
		case writes <- response:
		case <-done:
			return
		}
	}
}

func (that *Server) writeLoop(ctx context.Context, conn *websocket.Conn, writes <-chan Response) {
	log := that.logger.With("method", "writeLoop")

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// unblocks the reader when the writer gives up first
		_ = conn.Close()
	}()

	for {
		select {
		case response, ok := <-writes:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := conn.WriteJSON(response); err != nil {
				log.Error("failed to write response", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
