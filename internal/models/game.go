package models

import (
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/clock"
)

// AIPlayer is the synthetic player id bound to a computer-controlled side.
const AIPlayer = "AI"

type GameStatus string

const (
	GamePending  GameStatus = "pending"
	GameActive   GameStatus = "active"
	GameFinished GameStatus = "finished"
)

type GameResult string

const (
	ResultNone      GameResult = ""
	ResultRedWins   GameResult = "red_wins"
	ResultBlackWins GameResult = "black_wins"
	ResultDraw      GameResult = "draw"
)

// WinFor returns the result in which side s wins.
func WinFor(s board.Side) GameResult {
	if s == board.Red {
		return ResultRedWins
	}
	return ResultBlackWins
}

// LossFor returns the result in which side s loses.
func LossFor(s board.Side) GameResult {
	return WinFor(s.Opposite())
}

type PlayerType string

const (
	Human PlayerType = "human"
	AI    PlayerType = "ai"
)

type ColorPreference string

const (
	PreferRed    ColorPreference = "red"
	PreferBlack  ColorPreference = "black"
	PreferRandom ColorPreference = "random"
)

type DrawOffer string

const (
	DrawOfferNone      DrawOffer = ""
	DrawOfferedByRed   DrawOffer = "offered_by_red"
	DrawOfferedByBlack DrawOffer = "offered_by_black"
)

// DrawOfferFrom returns the offer state for an offer made by side s.
func DrawOfferFrom(s board.Side) DrawOffer {
	if s == board.Red {
		return DrawOfferedByRed
	}
	return DrawOfferedByBlack
}

type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Move struct {
	From      Square  `json:"from"`
	To        Square  `json:"to"`
	Captured  *Square `json:"captured,omitempty"`
	Promoted  bool    `json:"promoted,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

func (m Move) IsCapture() bool {
	return m.Captured != nil
}

type Game struct {
	ID                 string          `json:"id"`
	RedPlayer          string          `json:"red_player,omitempty"`
	BlackPlayer        string          `json:"black_player,omitempty"`
	RedPlayerType      PlayerType      `json:"red_player_type"`
	BlackPlayerType    PlayerType      `json:"black_player_type"`
	Board              board.Board     `json:"board"`
	CurrentTurn        board.Side      `json:"current_turn"`
	ContinueFrom       *Square         `json:"continue_from,omitempty"`
	Moves              []Move          `json:"moves"`
	MoveCount          int             `json:"move_count"`
	Status             GameStatus      `json:"status"`
	Result             GameResult      `json:"result,omitempty"`
	CreatedAt          int64           `json:"created_at"`
	UpdatedAt          int64           `json:"updated_at"`
	Clock              *clock.Clock    `json:"clock,omitempty"`
	DrawOffer          DrawOffer       `json:"draw_offer,omitempty"`
	IsRated            bool            `json:"is_rated"`
	ColorPreference    ColorPreference `json:"color_preference"`
	CreatorWantsRandom bool            `json:"creator_wants_random,omitempty"`
	TournamentID       string          `json:"tournament_id,omitempty"`
	TournamentMatchID  string          `json:"tournament_match_id,omitempty"`
}

// NewGame returns a pending game on the starting position with Red to move.
func NewGame(id string, now int64) *Game {
	return &Game{
		ID:              id,
		RedPlayerType:   Human,
		BlackPlayerType: Human,
		Board:           board.Starting(),
		CurrentTurn:     board.Red,
		Moves:           []Move{},
		Status:          GamePending,
		CreatedAt:       now,
		UpdatedAt:       now,
		IsRated:         true,
		ColorPreference: PreferRed,
	}
}

func (g *Game) Player(s board.Side) string {
	if s == board.Red {
		return g.RedPlayer
	}
	return g.BlackPlayer
}

func (g *Game) PlayerType(s board.Side) PlayerType {
	if s == board.Red {
		return g.RedPlayerType
	}
	return g.BlackPlayerType
}

// SideOf returns the side bound to player.
func (g *Game) SideOf(player string) (board.Side, bool) {
	switch {
	case player == "":
		return board.Red, false
	case g.RedPlayer == player:
		return board.Red, true
	case g.BlackPlayer == player:
		return board.Black, true
	}
	return board.Red, false
}

// CanPlayerMove reports whether player controls the side to move.
func (g *Game) CanPlayerMove(player string) bool {
	return player != "" && g.Player(g.CurrentTurn) == player
}

func (g *Game) IsAI(s board.Side) bool {
	return g.Player(s) == AIPlayer || g.PlayerType(s) == AI
}

func (g *Game) Finish(result GameResult) {
	g.Status = GameFinished
	g.Result = result
	g.ContinueFrom = nil
}

func (g *Game) IsTournamentGame() bool {
	return g.TournamentID != "" && g.TournamentMatchID != ""
}

// Winner returns the winning player id, or "" for draws and unfinished games.
func (g *Game) Winner() string {
	switch g.Result {
	case ResultRedWins:
		return g.RedPlayer
	case ResultBlackWins:
		return g.BlackPlayer
	}
	return ""
}

func (g *Game) Clone() *Game {
	c := *g
	c.Moves = make([]Move, len(g.Moves))
	copy(c.Moves, g.Moves)
	if g.ContinueFrom != nil {
		sq := *g.ContinueFrom
		c.ContinueFrom = &sq
	}
	if g.Clock != nil {
		clk := *g.Clock
		c.Clock = &clk
	}
	return &c
}
