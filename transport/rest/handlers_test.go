package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/usecase"
)

var errStorage = errors.New("storage unavailable")

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestRouter() http.Handler {
	logger := newTestLogger()
	manager := usecase.NewSessionManager(logger, repository.NewMemorySessionRepository(0))

	return NewRouter(logger, manager, nil)
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (that *client) do(method, target, body string) *httptest.ResponseRecorder {
	that.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if that.cookie != nil {
		req.AddCookie(that.cookie)
	}

	rec := httptest.NewRecorder()
	that.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookie && cookie.Value != "" {
			that.cookie = cookie
		}
	}

	return rec
}

func (that *client) view(rec *httptest.ResponseRecorder) entity.View {
	that.t.Helper()

	require.Equal(that.t, http.StatusOK, rec.Code, rec.Body.String())

	var view entity.View
	require.NoError(that.t, json.Unmarshal(rec.Body.Bytes(), &view))

	return view
}

func TestPing(t *testing.T) {
	c := &client{t: t, handler: newTestRouter()}

	rec := c.do(http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestPage(t *testing.T) {
	t.Run("First visit starts a session", func(t *testing.T) {
		// Given: a browser without a cookie
		c := &client{t: t, handler: newTestRouter()}

		// When: it loads the page
		rec := c.do(http.MethodGet, "/", "")

		// Then: the page shows the empty board and a session cookie is set
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, c.cookie)
		assert.NotEmpty(t, c.cookie.Value)
		assert.Contains(t, rec.Body.String(), "Next player: X")
		assert.Contains(t, rec.Body.String(), "You are at game start")
		assert.Contains(t, rec.Body.String(), "Sort moves descending")
		assert.Equal(t, 9, strings.Count(rec.Body.String(), `action="/squares/`))
	})

	t.Run("Form posts redirect back to the page", func(t *testing.T) {
		// Given: a browser with a session
		c := &client{t: t, handler: newTestRouter()}
		c.do(http.MethodGet, "/", "")

		// When: X plays 0 and O plays 4 through the forms
		rec := c.do(http.MethodPost, "/squares/0", "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		c.do(http.MethodPost, "/squares/4", "")

		// Then: the page shows X as next player and both moves
		body := c.do(http.MethodGet, "/", "").Body.String()
		assert.Contains(t, body, "Next player: X")
		assert.Contains(t, body, "Go to move #1 (row: 1, col: 1)")
		assert.Contains(t, body, "You are at move #2 (row: 2, col: 2)")
	})

	t.Run("Winning line is highlighted and the draw status renders", func(t *testing.T) {
		c := &client{t: t, handler: newTestRouter()}

		for _, cell := range []string{"0", "1", "3", "4", "6"} {
			c.do(http.MethodPost, "/squares/"+cell, "")
		}

		body := c.do(http.MethodGet, "/", "").Body.String()
		assert.Contains(t, body, "Winner: X")
		assert.Equal(t, 3, strings.Count(body, "square highlight"))

		c.do(http.MethodPost, "/reset", "")
		for _, cell := range []string{"0", "1", "2", "4", "3", "5", "7", "6", "8"} {
			c.do(http.MethodPost, "/squares/"+cell, "")
		}

		body = c.do(http.MethodGet, "/", "").Body.String()
		assert.Contains(t, body, "It&#39;s a draw!")
	})

	t.Run("Jump and toggle forms", func(t *testing.T) {
		c := &client{t: t, handler: newTestRouter()}
		c.do(http.MethodPost, "/squares/0", "")
		c.do(http.MethodPost, "/squares/4", "")

		assert.Equal(t, http.StatusSeeOther, c.do(http.MethodPost, "/moves/1", "").Code)
		assert.Equal(t, http.StatusSeeOther, c.do(http.MethodPost, "/order", "").Code)

		body := c.do(http.MethodGet, "/", "").Body.String()
		assert.Contains(t, body, "You are at move #1 (row: 1, col: 1)")
		assert.Contains(t, body, "Sort moves ascending")
		assert.Less(t, strings.Index(body, "move #2"), strings.Index(body, "game start"))
	})

	t.Run("Malformed form paths are rejected", func(t *testing.T) {
		c := &client{t: t, handler: newTestRouter()}

		assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/squares/abc", "").Code)
		assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/moves/abc", "").Code)
		assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/moves/7", "").Code)
	})

	t.Run("Foreign cookies are replaced by a new session", func(t *testing.T) {
		// Given: a browser sending a cookie this server never issued
		c := &client{t: t, handler: newTestRouter()}
		c.cookie = &http.Cookie{Name: SessionCookie, Value: strings.Repeat("x", 2048)}

		// When: it loads the page
		rec := c.do(http.MethodGet, "/", "")

		// Then: it gets a uuid session instead
		require.Equal(t, http.StatusOK, rec.Code)
		_, err := uuid.Parse(c.cookie.Value)
		require.NoError(t, err)
	})

	t.Run("Out of board clicks are ignored", func(t *testing.T) {
		c := &client{t: t, handler: newTestRouter()}

		assert.Equal(t, http.StatusSeeOther, c.do(http.MethodPost, "/squares/12", "").Code)

		view := c.view(c.do(http.MethodGet, "/api/session", ""))
		assert.Len(t, view.Moves, 1)
	})
}

func TestSessionAPI(t *testing.T) {
	t.Run("Scenario: branch discards the later moves", func(t *testing.T) {
		// Given: three moves played through the API
		c := &client{t: t, handler: newTestRouter()}
		for _, cell := range []string{"0", "4", "8"} {
			c.view(c.do(http.MethodPost, "/api/session/play", `{"index":`+cell+`}`))
		}

		// When: jumping to move 1 and playing another cell
		c.view(c.do(http.MethodPost, "/api/session/jump", `{"move":1}`))
		view := c.view(c.do(http.MethodPost, "/api/session/play", `{"index":2}`))

		// Then: the history has three entries
		assert.Len(t, view.Moves, 3)
		assert.Equal(t, "You are at move #2 (row: 1, col: 3)", view.Moves[2].Label)
	})

	t.Run("Toggle and reset", func(t *testing.T) {
		c := &client{t: t, handler: newTestRouter()}
		c.view(c.do(http.MethodPost, "/api/session/play", `{"index":4}`))

		view := c.view(c.do(http.MethodPost, "/api/session/toggle", ""))
		assert.False(t, view.Ascending)
		assert.Equal(t, 1, view.Moves[0].Move)

		view = c.view(c.do(http.MethodPost, "/api/session/reset", ""))
		assert.True(t, view.Ascending)
		assert.Len(t, view.Moves, 1)
	})

	t.Run("Bad requests", func(t *testing.T) {
		c := &client{t: t, handler: newTestRouter()}

		testCases := []struct {
			name   string
			target string
			body   string
		}{
			{name: "unknown action", target: "/api/session/undo", body: ""},
			{name: "play without index", target: "/api/session/play", body: `{}`},
			{name: "jump without move", target: "/api/session/jump", body: `{}`},
			{name: "jump out of range", target: "/api/session/jump", body: `{"move":4}`},
			{name: "malformed body", target: "/api/session/play", body: `{"index":`},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				rec := c.do(http.MethodPost, tc.target, tc.body)

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), `"error"`)
			})
		}
	})

	t.Run("Discard forgets the session", func(t *testing.T) {
		// Given: a session with a move
		c := &client{t: t, handler: newTestRouter()}
		first := c.view(c.do(http.MethodPost, "/api/session/play", `{"index":4}`))

		// When: it is discarded
		rec := c.do(http.MethodDelete, "/api/session", "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		// Then: the same cookie now opens a fresh game
		view := c.view(c.do(http.MethodGet, "/api/session", ""))
		assert.Equal(t, first.SessionID, view.SessionID)
		assert.Len(t, view.Moves, 1)
	})
}

type mockSessionService struct {
	mock.Mock
}

func (that *mockSessionService) Open(ctx context.Context, id string) (entity.View, error) {
	args := that.Called(ctx, id)
	return args.Get(0).(entity.View), args.Error(1)
}

func (that *mockSessionService) PlayMove(ctx context.Context, id string, cell int) (entity.View, error) {
	args := that.Called(ctx, id, cell)
	return args.Get(0).(entity.View), args.Error(1)
}

func (that *mockSessionService) JumpTo(ctx context.Context, id string, move int) (entity.View, error) {
	args := that.Called(ctx, id, move)
	return args.Get(0).(entity.View), args.Error(1)
}

func (that *mockSessionService) ToggleOrder(ctx context.Context, id string) (entity.View, error) {
	args := that.Called(ctx, id)
	return args.Get(0).(entity.View), args.Error(1)
}

func (that *mockSessionService) Reset(ctx context.Context, id string) (entity.View, error) {
	args := that.Called(ctx, id)
	return args.Get(0).(entity.View), args.Error(1)
}

func (that *mockSessionService) Discard(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func TestStorageFailures(t *testing.T) {
	// Given: a session service whose storage is down
	service := &mockSessionService{}
	service.On("Open", mock.Anything, "").Return(entity.View{}, errStorage)
	service.On("PlayMove", mock.Anything, "", 0).Return(entity.View{}, errStorage)
	service.On("Discard", mock.Anything, "").Return(errStorage)

	c := &client{t: t, handler: NewRouter(newTestLogger(), service, nil)}

	// Then: every surface answers with 500
	assert.Equal(t, http.StatusInternalServerError, c.do(http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusInternalServerError, c.do(http.MethodPost, "/squares/0", "").Code)
	assert.Equal(t, http.StatusInternalServerError, c.do(http.MethodGet, "/api/session", "").Code)
	assert.Equal(t, http.StatusInternalServerError, c.do(http.MethodDelete, "/api/session", "").Code)

	service.AssertExpectations(t)
}
