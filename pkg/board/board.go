package board

import "errors"

const (
	TypeFree   = "free"
	TypeNotice = "notice"
)

var ErrUnknownBoard = errors.New("board: unknown board type")

type Board struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

var boards = map[string]string{
	TypeFree:   "Free Board",
	TypeNotice: "Notice Board",
}

// Resolve validates a board type from the URL and returns its display
// metadata. The two boards are fixed; anything else is a 404 for callers.
func Resolve(boardType string) (Board, error) {
	title, ok := boards[boardType]
	if !ok {
		return Board{}, ErrUnknownBoard
	}
	return Board{Type: boardType, Title: title}, nil
}
