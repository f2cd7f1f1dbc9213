package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	SessionCookie = "ttt_session"

	sessionCookieAge = 24 * time.Hour
)

const (
	actionPlay   = "play"
	actionJump   = "jump"
	actionToggle = "toggle"
	actionReset  = "reset"
)

type sessionService interface {
	Open(ctx context.Context, id string) (entity.View, error)
	PlayMove(ctx context.Context, id string, cell int) (entity.View, error)
	JumpTo(ctx context.Context, id string, move int) (entity.View, error)
	ToggleOrder(ctx context.Context, id string) (entity.View, error)
	Reset(ctx context.Context, id string) (entity.View, error)
	Discard(ctx context.Context, id string) error
}

type handlers struct {
	logger   *slog.Logger
	sessions sessionService
	tpl      *pageTemplate
}

type actionRequest struct {
	Index *int `json:"index,omitempty"`
	Move  *int `json:"move,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newHandlers(logger *slog.Logger, sessions sessionService) *handlers {
	return &handlers{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
		tpl:      loadPageTemplate(),
	}
}

func (that *handlers) page(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "page")

	view, err := that.sessions.Open(r.Context(), sessionID(r))
	if err != nil {
		log.Error("failed to open session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, view.SessionID)

	body, err := that.tpl.render(view)
	if err != nil {
		log.Error("failed to render page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (that *handlers) playForm(w http.ResponseWriter, r *http.Request) {
	cell, err := pathInt(r, "index", apperror.ErrInvalidCell)
	if err != nil {
		that.fail(w, "playForm", err, false)
		return
	}

	that.redirect(w, r, "playForm", func(ctx context.Context, id string) (entity.View, error) {
		return that.sessions.PlayMove(ctx, id, cell)
	})
}

func (that *handlers) jumpForm(w http.ResponseWriter, r *http.Request) {
	move, err := pathInt(r, "move", apperror.ErrMoveOutOfRange)
	if err != nil {
		that.fail(w, "jumpForm", err, false)
		return
	}

	that.redirect(w, r, "jumpForm", func(ctx context.Context, id string) (entity.View, error) {
		return that.sessions.JumpTo(ctx, id, move)
	})
}

func (that *handlers) toggleForm(w http.ResponseWriter, r *http.Request) {
	that.redirect(w, r, "toggleForm", that.sessions.ToggleOrder)
}

func (that *handlers) resetForm(w http.ResponseWriter, r *http.Request) {
	that.redirect(w, r, "resetForm", that.sessions.Reset)
}

// redirect - applies a form event and sends the browser back to the page.
func (that *handlers) redirect(
	w http.ResponseWriter,
	r *http.Request,
	method string,
	event func(ctx context.Context, id string) (entity.View, error),
) {
	view, err := event(r.Context(), sessionID(r))
	if err != nil {
		that.fail(w, method, err, false)
		return
	}

	setSessionCookie(w, view.SessionID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (that *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := that.sessions.Open(r.Context(), sessionID(r))
	if err != nil {
		that.fail(w, "getSession", err, true)
		return
	}

	setSessionCookie(w, view.SessionID)
	writeJSON(w, http.StatusOK, view)
}

func (that *handlers) discardSession(w http.ResponseWriter, r *http.Request) {
	if err := that.sessions.Discard(r.Context(), sessionID(r)); err != nil {
		that.fail(w, "discardSession", err, true)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) sessionAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sessionID(r)

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var (
		view entity.View
		err  error
	)

	switch action := chi.URLParam(r, "action"); action {
	case actionPlay:
		if req.Index == nil {
			err = fmt.Errorf("%w: index is required", apperror.ErrInvalidCell)
			break
		}
		view, err = that.sessions.PlayMove(ctx, id, *req.Index)
	case actionJump:
		if req.Move == nil {
			err = fmt.Errorf("%w: move is required", apperror.ErrMoveOutOfRange)
			break
		}
		view, err = that.sessions.JumpTo(ctx, id, *req.Move)
	case actionToggle:
		view, err = that.sessions.ToggleOrder(ctx, id)
	case actionReset:
		view, err = that.sessions.Reset(ctx, id)
	default:
		err = fmt.Errorf("%w: %s", apperror.ErrUnknownAction, action)
	}

	if err != nil {
		that.fail(w, "sessionAction", err, true)
		return
	}

	setSessionCookie(w, view.SessionID)
	writeJSON(w, http.StatusOK, view)
}

// fail - maps an error to a status code. Client errors are not logged as errors.
func (that *handlers) fail(w http.ResponseWriter, method string, err error, asJSON bool) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	switch {
	case errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrMoveOutOfRange),
		errors.Is(err, apperror.ErrUnknownAction):
		status = http.StatusBadRequest
		message = err.Error()
		that.logger.Debug("bad request", "method", method, "error", err)
	default:
		that.logger.Error("request failed", "method", method, "error", err)
	}

	if asJSON {
		writeJSON(w, status, errorResponse{Error: message})
		return
	}

	http.Error(w, message, status)
}

func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}

	return cookie.Value
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func pathInt(r *http.Request, name string, sentinel error) (int, error) {
	raw := chi.URLParam(r, name)

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", sentinel, raw)
	}

	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
