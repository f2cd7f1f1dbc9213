package entity

// View is everything the page needs to draw a session. It is derived on every read.
type View struct {
	SessionID   string   `json:"session_id"`
	Status      string   `json:"status"`
	Winner      Mark     `json:"winner,omitempty"`
	WinningLine *Line    `json:"winning_line,omitempty"`
	NextPlayer  Mark     `json:"next_player,omitempty"`
	Draw        bool     `json:"draw"`
	Squares     []Square `json:"squares"`
	Moves       []Move   `json:"moves"`
	CurrentMove int      `json:"current_move"`
	Ascending   bool     `json:"ascending"`
	OrderLabel  string   `json:"order_label"`
}

type Square struct {
	Index     int  `json:"index"`
	Row       int  `json:"row"`
	Col       int  `json:"col"`
	Mark      Mark `json:"mark"`
	Highlight bool `json:"highlight"`
}

// Move describes one history entry. Row and Col are 1-indexed and zero for the game start.
type Move struct {
	Move    int    `json:"move"`
	Current bool   `json:"current"`
	Label   string `json:"label"`
	Row     int    `json:"row,omitempty"`
	Col     int    `json:"col,omitempty"`
}

// Rows groups the squares into board rows for templates.
func (that View) Rows() [][]Square {
	rows := make([][]Square, 0, BoardSide)
	for start := 0; start+BoardSide <= len(that.Squares); start += BoardSide {
		rows = append(rows, that.Squares[start:start+BoardSide])
	}

	return rows
}
