package entity

type Mark string

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"

	EmptyCell Mark = ""
)

const (
	BoardSize = 9
	BoardSide = 3
)

// Line is a triple of board indices that wins when all three cells hold the same mark.
type Line [3]int

// WinLines - all winning lines in priority order: rows top to bottom, columns left to right, then diagonals.
var WinLines = [8]Line{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a row-major 3x3 grid. It is a value type, so a copy never aliases a stored snapshot.
type Board [BoardSize]Mark

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that Board) IsEmpty() bool {
	return that == Board{}
}

// WithMark returns a copy of the board with the cell at index set to mark.
func (that Board) WithMark(index int, mark Mark) Board {
	that[index] = mark
	return that
}

func ValidIndex(index int) bool {
	return index >= 0 && index < BoardSize
}

// Position converts a board index to a 1-indexed row and column.
func Position(index int) (int, int) {
	return index/BoardSide + 1, index%BoardSide + 1
}

// Contains reports whether index is one of the line's cells.
func (that Line) Contains(index int) bool {
	for _, cell := range that {
		if cell == index {
			return true
		}
	}

	return false
}

// WinResult is derived from a board and never stored.
type WinResult struct {
	Winner Mark  `json:"winner,omitempty"`
	Line   *Line `json:"line,omitempty"`
}

func (that WinResult) HasWinner() bool {
	return that.Winner != EmptyCell
}
