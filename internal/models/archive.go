package models

import (
	"fmt"
	"time"

	"github.com/chdb/checkers/internal/board"
)

// ArchivedGame is a finished game stored in the PDN archive.
type ArchivedGame struct {
	ID          int64     `json:"id"`
	Event       string    `json:"event"`
	Site        string    `json:"site"`
	Date        string    `json:"date"`
	Round       string    `json:"round"`
	Red         string    `json:"red"`
	Black       string    `json:"black"`
	Result      string    `json:"result"`
	TimeControl string    `json:"time_control,omitempty"`
	SourceGame  string    `json:"source_game,omitempty"`
	PDN         string    `json:"pdn"`
	Moves       string    `json:"moves"`
	Plies       int       `json:"plies"`
	FinalBoard  string    `json:"final_board,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SearchParams struct {
	Red          string   `json:"red,omitempty"`
	Black        string   `json:"black,omitempty"`
	Either       string   `json:"either,omitempty"`
	Event        string   `json:"event,omitempty"`
	Result       string   `json:"result,omitempty"`
	DateFrom     string   `json:"date_from,omitempty"`
	DateTo       string   `json:"date_to,omitempty"`
	MinPlies     int      `json:"min_plies,omitempty"`
	MaxPlies     int      `json:"max_plies,omitempty"`
	Position     string   `json:"position,omitempty"`
	SideToMove   string   `json:"side_to_move,omitempty"`
	Pattern      *Pattern `json:"pattern,omitempty"`
	IncludeMoves bool     `json:"include_moves,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Offset       int      `json:"offset,omitempty"`
}

type Pattern struct {
	Board      [8][8]SquarePattern `json:"board"`
	SideToMove string              `json:"side_to_move,omitempty"`
}

type SquarePattern struct {
	Pieces []string `json:"pieces,omitempty"`
	Empty  bool     `json:"empty,omitempty"`
	Any    bool     `json:"any,omitempty"`
}

// Material counts pieces by kind; it is the key of the material index.
type Material struct {
	RedMen     int `json:"red_men"`
	RedKings   int `json:"red_kings"`
	BlackMen   int `json:"black_men"`
	BlackKings int `json:"black_kings"`
}

type ImportResult struct {
	TotalGames     int      `json:"total_games"`
	ImportedGames  int      `json:"imported_games"`
	FailedGames    int      `json:"failed_games"`
	Errors         []string `json:"errors,omitempty"`
	ProcessingTime float64  `json:"processing_time_seconds"`
}

// MaterialOf counts the pieces on b.
func MaterialOf(b board.Board) Material {
	var m Material
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			switch b.Get(row, col) {
			case board.RedMan:
				m.RedMen++
			case board.RedKing:
				m.RedKings++
			case board.BlackMan:
				m.BlackMen++
			case board.BlackKing:
				m.BlackKings++
			}
		}
	}
	return m
}

// Signature renders m as "r:8 R:0 b:7 B:1".
func (m Material) Signature() string {
	return fmt.Sprintf("r:%d R:%d b:%d B:%d", m.RedMen, m.RedKings, m.BlackMen, m.BlackKings)
}
