package tictactoe

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	statusWinner = "Winner: %s"
	statusDraw   = "It's a draw!"
	statusNext   = "Next player: %s"

	orderDescending = "Sort moves descending"
	orderAscending  = "Sort moves ascending"
)

// Render - derives the status line, the squares and the move list from the session.
func Render(session *entity.Session) entity.View {
	board := session.CurrentBoard()
	result := Evaluate(board)

	view := entity.View{
		SessionID:   session.ID,
		Winner:      result.Winner,
		WinningLine: result.Line,
		CurrentMove: session.CurrentMove,
		Ascending:   session.Ascending,
		Squares:     renderSquares(board, result),
		Moves:       renderMoves(session),
	}

	switch {
	case result.HasWinner():
		view.Status = fmt.Sprintf(statusWinner, result.Winner)
	case IsDraw(board):
		view.Draw = true
		view.Status = statusDraw
	default:
		view.NextPlayer = session.NextMark()
		view.Status = fmt.Sprintf(statusNext, view.NextPlayer)
	}

	if session.Ascending {
		view.OrderLabel = orderDescending
	} else {
		view.OrderLabel = orderAscending
	}

	return view
}

func renderSquares(board entity.Board, result entity.WinResult) []entity.Square {
	squares := make([]entity.Square, 0, len(board))

	for index, mark := range board {
		row, col := entity.Position(index)
		squares = append(squares, entity.Square{
			Index:     index,
			Row:       row,
			Col:       col,
			Mark:      mark,
			Highlight: result.Line != nil && result.Line.Contains(index),
		})
	}

	return squares
}

func renderMoves(session *entity.Session) []entity.Move {
	moves := make([]entity.Move, 0, len(session.History))

	for move := range session.History {
		entry := entity.Move{
			Move:    move,
			Current: move == session.CurrentMove,
		}

		if row, col, ok := Location(session, move); ok {
			entry.Row, entry.Col = row, col
		}

		entry.Label = moveLabel(entry)
		moves = append(moves, entry)
	}

	if !session.Ascending {
		slices.Reverse(moves)
	}

	return moves
}

func moveLabel(move entity.Move) string {
	if move.Move == 0 {
		if move.Current {
			return "You are at game start"
		}
		return "Go to game start"
	}

	if move.Current {
		return fmt.Sprintf("You are at move #%d (row: %d, col: %d)", move.Move, move.Row, move.Col)
	}

	return fmt.Sprintf("Go to move #%d (row: %d, col: %d)", move.Move, move.Row, move.Col)
}
