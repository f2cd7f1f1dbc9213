package tictactoe

import "github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"

// Evaluate - scans the winning lines in priority order and reports the first complete one.
func Evaluate(board entity.Board) entity.WinResult {
	for _, line := range entity.WinLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != entity.EmptyCell && a == b && b == c {
			winning := line
			return entity.WinResult{Winner: a, Line: &winning}
		}
	}

	return entity.WinResult{}
}

// IsDraw - the board is full and nobody has a line.
func IsDraw(board entity.Board) bool {
	return !Evaluate(board).HasWinner() && board.IsFull()
}
