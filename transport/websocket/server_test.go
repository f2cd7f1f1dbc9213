package websocket

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/usecase"
)

const (
	testCookie = "ttt_session"

	tabSessionID    = "3c8e1f5a-6b2d-4e7f-a1c9-0d4b7e2f8a61"
	sharedSessionID = "9a2d6c1e-4f8b-47a3-b5e0-1c7f3d9e2b84"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	manager := usecase.NewSessionManager(logger, repository.NewMemorySessionRepository(0))

	srv := httptest.NewServer(New(logger, manager, testCookie))
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server, cookie string) (*websocket.Conn, *http.Response) {
	t.Helper()

	header := http.Header{}
	if cookie != "" {
		header.Add("Cookie", testCookie+"="+cookie)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn, resp
}

func send(t *testing.T, conn *websocket.Conn, message Message) Response {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteJSON(message))

	var response Response
	require.NoError(t, conn.ReadJSON(&response))
	require.Equal(t, message.Action, response.Action)

	return response
}

func TestServer_NewConnectionGetsACookie(t *testing.T) {
	// Given: a running server
	srv := newTestServer(t)

	// When: a client connects without a session cookie
	conn, resp := dial(t, srv, "")

	// Then: the handshake sets one and the session is empty
	var sessionID string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testCookie {
			sessionID = cookie.Value
		}
	}
	require.NotEmpty(t, sessionID)

	response := send(t, conn, Message{Action: actionGetSession})
	require.NotNil(t, response.View)
	assert.Equal(t, sessionID, response.View.SessionID)
	assert.Equal(t, "Next player: X", response.View.Status)
}

func TestServer_ForeignCookieGetsReplaced(t *testing.T) {
	// Given: a client with a cookie this server never issued
	srv := newTestServer(t)

	// When: it connects
	conn, resp := dial(t, srv, "not-a-session")

	// Then: a new uuid session is issued and used
	var sessionID string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testCookie {
			sessionID = cookie.Value
		}
	}
	_, err := uuid.Parse(sessionID)
	require.NoError(t, err)

	response := send(t, conn, Message{Action: actionGetSession})
	assert.Equal(t, sessionID, response.View.SessionID)
}

func TestServer_Events(t *testing.T) {
	srv := newTestServer(t)
	conn, _ := dial(t, srv, tabSessionID)

	t.Run("Cell clicks play moves", func(t *testing.T) {
		for _, cell := range []int{0, 4, 8} {
			response := send(t, conn, Message{Action: actionCellClick, Contents: map[string]any{"index": cell}})
			require.Empty(t, response.Error)
		}

		response := send(t, conn, Message{Action: actionGetSession})
		assert.Equal(t, "Next player: O", response.View.Status)
		assert.Len(t, response.View.Moves, 4)
	})

	t.Run("Jump then branch", func(t *testing.T) {
		response := send(t, conn, Message{Action: actionMoveJump, Contents: map[string]any{"move": 1}})
		require.Empty(t, response.Error)
		assert.Equal(t, 1, response.View.CurrentMove)

		response = send(t, conn, Message{Action: actionCellClick, Contents: map[string]any{"index": 2}})
		assert.Len(t, response.View.Moves, 3)
	})

	t.Run("Toggle and reset", func(t *testing.T) {
		response := send(t, conn, Message{Action: actionOrderToggle})
		assert.False(t, response.View.Ascending)

		response = send(t, conn, Message{Action: actionReset})
		assert.True(t, response.View.Ascending)
		assert.Len(t, response.View.Moves, 1)
	})

	t.Run("Rejected messages keep the connection open", func(t *testing.T) {
		testCases := []Message{
			{Action: "chat:send"},
			{Action: actionCellClick},
			{Action: actionCellClick, Contents: map[string]any{"index": "center"}},
			{Action: actionCellClick, Contents: map[string]any{"index": 1, "extra": true}},
			{Action: actionMoveJump, Contents: map[string]any{"move": 42}},
		}

		for _, message := range testCases {
			response := send(t, conn, message)
			assert.NotEmpty(t, response.Error, message.Action)
			assert.Nil(t, response.View)
		}

		response := send(t, conn, Message{Action: actionGetSession})
		assert.Empty(t, response.Error)
	})
}

func TestServer_MalformedFramesKeepTheConnectionOpen(t *testing.T) {
	// Given: a connected tab
	srv := newTestServer(t)
	conn, _ := dial(t, srv, tabSessionID)

	testCases := []string{
		`{"action": 5}`,
		`{"action": "cell:click", "contents": [1, 2]}`,
		`not json`,
	}

	for _, frame := range testCases {
		// When: a frame that is not a message arrives
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

		// Then: it is answered with an error
		var response Response
		require.NoError(t, conn.ReadJSON(&response), frame)
		assert.Equal(t, errInvalidMessage, response.Error, frame)
		assert.Nil(t, response.View, frame)
	}

	// Then: the connection still serves messages
	response := send(t, conn, Message{Action: actionGetSession})
	assert.Empty(t, response.Error)
	assert.Equal(t, "Next player: X", response.View.Status)
}

func TestServer_SharesSessionWithCookie(t *testing.T) {
	// Given: two tabs on the same session cookie
	srv := newTestServer(t)
	first, _ := dial(t, srv, sharedSessionID)
	second, _ := dial(t, srv, sharedSessionID)

	// When: the first tab plays
	send(t, first, Message{Action: actionCellClick, Contents: map[string]any{"index": 4}})

	// Then: the second tab sees the move
	response := send(t, second, Message{Action: actionGetSession})
	assert.Equal(t, "Next player: O", response.View.Status)
}

func TestServer_RejectsPlainHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
