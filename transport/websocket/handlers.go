package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// processMessage - dispatches a message to its handler and turns the outcome into a response.
func (that *Server) processMessage(ctx context.Context, sessionID string, message *Message) Response {
	log := that.logger.With("method", "processMessage", "sessionID", sessionID, "action", message.Action)

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Debug("unknown action")
		return Response{Action: message.Action, Error: apperror.ErrUnknownAction.Error()}
	}

	view, err := handler(ctx, sessionID, message)
	if err != nil {
		if isClientError(err) {
			log.Debug("rejected message", "error", err)
			return Response{Action: message.Action, Error: err.Error()}
		}

		log.Error("failed to process message", "error", err)
		return Response{Action: message.Action, Error: "internal error"}
	}

	return Response{Action: message.Action, View: &view}
}

func (that *Server) handleGetSession(ctx context.Context, sessionID string, _ *Message) (entity.View, error) {
	return that.sessions.Open(ctx, sessionID)
}

func (that *Server) handleCellClick(ctx context.Context, sessionID string, message *Message) (entity.View, error) {
	var contents cellContents
	if err := decodeContents(message.Contents, &contents); err != nil {
		return entity.View{}, fmt.Errorf("%w: %w", apperror.ErrInvalidCell, err)
	}

	if contents.Index == nil {
		return entity.View{}, fmt.Errorf("%w: index is required", apperror.ErrInvalidCell)
	}

	return that.sessions.PlayMove(ctx, sessionID, *contents.Index)
}

func (that *Server) handleMoveJump(ctx context.Context, sessionID string, message *Message) (entity.View, error) {
	var contents moveContents
	if err := decodeContents(message.Contents, &contents); err != nil {
		return entity.View{}, fmt.Errorf("%w: %w", apperror.ErrMoveOutOfRange, err)
	}

	if contents.Move == nil {
		return entity.View{}, fmt.Errorf("%w: move is required", apperror.ErrMoveOutOfRange)
	}

	return that.sessions.JumpTo(ctx, sessionID, *contents.Move)
}

func (that *Server) handleOrderToggle(ctx context.Context, sessionID string, _ *Message) (entity.View, error) {
	return that.sessions.ToggleOrder(ctx, sessionID)
}

func (that *Server) handleReset(ctx context.Context, sessionID string, _ *Message) (entity.View, error) {
	return that.sessions.Reset(ctx, sessionID)
}

func isClientError(err error) bool {
	return errors.Is(err, apperror.ErrInvalidCell) ||
		errors.Is(err, apperror.ErrMoveOutOfRange) ||
		errors.Is(err, apperror.ErrUnknownAction)
}
