package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// PlayMove - places the next mark on the current board. Clicks on an occupied cell,
// outside the board or after a win are ignored and reported as false.
func PlayMove(session *entity.Session, cell int) bool {
	if !entity.ValidIndex(cell) {
		return false
	}

	board := session.CurrentBoard()
	if Evaluate(board).HasWinner() || board[cell] != entity.EmptyCell {
		return false
	}

	next := board.WithMark(cell, session.NextMark())

	// playing from a past snapshot drops the moves that followed it
	history := session.History[:session.CurrentMove+1:session.CurrentMove+1]
	session.History = append(history, next)
	session.CurrentMove = session.LastMove()

	return true
}

// JumpTo - moves the view pointer to another snapshot without touching the history.
func JumpTo(session *entity.Session, move int) error {
	if move < 0 || move > session.LastMove() {
		return fmt.Errorf("%w: move %d, last move %d", apperror.ErrMoveOutOfRange, move, session.LastMove())
	}

	session.CurrentMove = move

	return nil
}

// Reset - back to a single empty board, ascending order.
func Reset(session *entity.Session) {
	session.History = []entity.Board{{}}
	session.CurrentMove = 0
	session.Ascending = true
}

func ToggleOrder(session *entity.Session) {
	session.Ascending = !session.Ascending
}

// Location - the 1-indexed row and column of the cell played at the given move.
// The game start has no location.
func Location(session *entity.Session, move int) (int, int, bool) {
	if move <= 0 || move > session.LastMove() {
		return 0, 0, false
	}

	index, ok := entity.ChangedCell(session.History[move-1], session.History[move])
	if !ok {
		return 0, 0, false
	}

	row, col := entity.Position(index)

	return row, col, true
}
