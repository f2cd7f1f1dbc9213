package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

const lockStripes = 64

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

// SessionManager applies browser events to stored sessions. Events for the same
// session are handled one at a time, in arrival order.
type SessionManager struct {
	logger      *slog.Logger
	sessionRepo sessionRepo

	locks [lockStripes]sync.Mutex
	newID func() string
	now   func() time.Time
}

func NewSessionManager(logger *slog.Logger, sessionRepo sessionRepo) *SessionManager {
	return &SessionManager{
		logger:      logger.With("component", "session_manager"),
		sessionRepo: sessionRepo,

		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Open - returns the view of the session, starting a new one when id is empty or unknown.
func (that *SessionManager) Open(ctx context.Context, id string) (entity.View, error) {
	return that.apply(ctx, id, "Open", func(*entity.Session) (bool, error) {
		return false, nil
	})
}

func (that *SessionManager) PlayMove(ctx context.Context, id string, cell int) (entity.View, error) {
	return that.apply(ctx, id, "PlayMove", func(session *entity.Session) (bool, error) {
		if !tictactoe.PlayMove(session, cell) {
			that.logger.Debug("move ignored", "sessionID", session.ID, "cell", cell, "currentMove", session.CurrentMove)
			return false, nil
		}

		return true, nil
	})
}

func (that *SessionManager) JumpTo(ctx context.Context, id string, move int) (entity.View, error) {
	return that.apply(ctx, id, "JumpTo", func(session *entity.Session) (bool, error) {
		if err := tictactoe.JumpTo(session, move); err != nil {
			return false, err
		}

		return true, nil
	})
}

func (that *SessionManager) ToggleOrder(ctx context.Context, id string) (entity.View, error) {
	return that.apply(ctx, id, "ToggleOrder", func(session *entity.Session) (bool, error) {
		tictactoe.ToggleOrder(session)
		return true, nil
	})
}

func (that *SessionManager) Reset(ctx context.Context, id string) (entity.View, error) {
	return that.apply(ctx, id, "Reset", func(session *entity.Session) (bool, error) {
		tictactoe.Reset(session)
		return true, nil
	})
}

// Discard - forgets the session. Unknown sessions are not an error.
func (that *SessionManager) Discard(ctx context.Context, id string) error {
	log := that.logger.With("method", "Discard", "sessionID", id)

	if !validSessionID(id) {
		return nil
	}

	unlock := that.lock(id)
	defer unlock()

	err := that.sessionRepo.DeleteByID(ctx, id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	log.Info("session discarded")

	return nil
}

// apply - loads the session under its lock, runs change and stores the result if anything changed.
func (that *SessionManager) apply(
	ctx context.Context,
	id, method string,
	change func(session *entity.Session) (bool, error),
) (entity.View, error) {
	if !validSessionID(id) {
		id = that.newID()
	}

	log := that.logger.With("method", method, "sessionID", id)

	unlock := that.lock(id)
	defer unlock()

	session, created, err := that.getOrCreateSession(ctx, log, id)
	if err != nil {
		return entity.View{}, err
	}

	if created {
		log.Info("session started")
	}

	changed, err := change(session)
	if err != nil {
		return entity.View{}, fmt.Errorf("failed to %s: %w", method, err)
	}

	if changed || created {
		if err = that.updateSession(ctx, session); err != nil {
			return entity.View{}, err
		}
	}

	return tictactoe.Render(session), nil
}

func (that *SessionManager) getOrCreateSession(
	ctx context.Context,
	log *slog.Logger,
	id string,
) (*entity.Session, bool, error) {
	session, err := that.sessionRepo.GetByID(ctx, id)

	switch {
	case err == nil:
		return session, false, nil
	case errors.Is(err, apperror.ErrSessionNotFound):
	case errors.Is(err, entity.ErrCorruptHistory):
		log.Warn("stored session is corrupt, starting over", "error", err)
	default:
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}

	return entity.NewSession(id), true, nil
}

func (that *SessionManager) updateSession(ctx context.Context, session *entity.Session) error {
	session.UpdatedAt = that.now().UTC()

	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

func (that *SessionManager) lock(id string) func() {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(id))

	mu := &that.locks[hash.Sum32()%lockStripes]
	mu.Lock()

	return mu.Unlock
}

// validSessionID - ids come from cookies, only ones this service could have minted are used as keys.
func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
