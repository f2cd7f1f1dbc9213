package apperror

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMoveOutOfRange  = errors.New("move is out of history range")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrUnknownAction   = errors.New("unknown action")
)
