package entity

import (
	"errors"
	"fmt"
	"time"
)

var ErrCorruptHistory = errors.New("corrupt session history")

// Session is the state of one browser game: every board snapshot played so far,
// the snapshot currently on screen and the order the move list is shown in.
type Session struct {
	ID          string    `json:"id"`
	History     []Board   `json:"history"`
	CurrentMove int       `json:"current_move"`
	Ascending   bool      `json:"ascending"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:          id,
		History:     []Board{{}},
		CurrentMove: 0,
		Ascending:   true,
	}
}

func (that *Session) CurrentBoard() Board {
	return that.History[that.CurrentMove]
}

func (that *Session) LastMove() int {
	return len(that.History) - 1
}

// NextMark - X moves on even move numbers, O on odd ones.
func (that *Session) NextMark() Mark {
	if that.CurrentMove%2 == 0 {
		return PlayerX
	}
	return PlayerO
}

// Clone returns a deep copy so stores never share the history slice with callers.
func (that *Session) Clone() *Session {
	clone := *that
	clone.History = append([]Board(nil), that.History...)

	return &clone
}

// Validate checks the structural invariants of a session loaded from storage.
func (that *Session) Validate() error {
	if len(that.History) == 0 || !that.History[0].IsEmpty() {
		return fmt.Errorf("%w: history must start with an empty board", ErrCorruptHistory)
	}

	if that.CurrentMove < 0 || that.CurrentMove >= len(that.History) {
		return fmt.Errorf("%w: current move %d of %d", ErrCorruptHistory, that.CurrentMove, len(that.History))
	}

	for move := 1; move < len(that.History); move++ {
		index, ok := ChangedCell(that.History[move-1], that.History[move])
		if !ok {
			return fmt.Errorf("%w: move %d must change exactly one cell", ErrCorruptHistory, move)
		}

		if that.History[move-1][index] != EmptyCell || that.History[move][index] != moverMark(move) {
			return fmt.Errorf("%w: move %d places an unexpected mark", ErrCorruptHistory, move)
		}
	}

	return nil
}

// moverMark - the mark placed by the given history index; move 1 is X.
func moverMark(move int) Mark {
	if move%2 == 1 {
		return PlayerX
	}
	return PlayerO
}

// ChangedCell finds the single index where two consecutive snapshots differ.
func ChangedCell(prev, next Board) (int, bool) {
	changed := -1

	for i := range next {
		if prev[i] == next[i] {
			continue
		}

		if changed != -1 {
			return -1, false
		}
		changed = i
	}

	return changed, changed != -1
}
