package service

import (
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
)

// Request is one of the operation structs in this file.
type Request interface {
	operation() string
}

type CreateGame struct {
	PlayerID        string                 `json:"player_id"`
	VsAI            bool                   `json:"vs_ai"`
	TimeControl     clock.TimeControl      `json:"time_control,omitempty"`
	ColorPreference models.ColorPreference `json:"color_preference,omitempty"`
	IsRated         *bool                  `json:"is_rated,omitempty"`
}

type JoinGame struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type MakeMove struct {
	GameID   string        `json:"game_id"`
	PlayerID string        `json:"player_id"`
	From     models.Square `json:"from"`
	To       models.Square `json:"to"`
}

type Resign struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type RequestAIMove struct {
	GameID string `json:"game_id"`
}

type JoinQueue struct {
	PlayerID    string            `json:"player_id"`
	TimeControl clock.TimeControl `json:"time_control"`
}

type LeaveQueue struct {
	PlayerID string `json:"player_id"`
}

type OfferDraw struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type AcceptDraw struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type DeclineDraw struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type ClaimTimeWin struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type CreateTournament struct {
	PlayerID       string            `json:"player_id"`
	Name           string            `json:"name"`
	TimeControl    clock.TimeControl `json:"time_control,omitempty"`
	MaxPlayers     int               `json:"max_players"`
	IsPublic       bool              `json:"is_public"`
	ScheduledStart int64             `json:"scheduled_start,omitempty"`
}

type JoinTournament struct {
	TournamentID string `json:"tournament_id"`
	PlayerID     string `json:"player_id"`
}

type JoinTournamentByCode struct {
	InviteCode string `json:"invite_code"`
	PlayerID   string `json:"player_id"`
}

type LeaveTournament struct {
	TournamentID string `json:"tournament_id"`
	PlayerID     string `json:"player_id"`
}

type StartTournament struct {
	TournamentID string `json:"tournament_id"`
	PlayerID     string `json:"player_id"`
}

type StartTournamentMatch struct {
	TournamentID string `json:"tournament_id"`
	MatchID      string `json:"match_id"`
	PlayerID     string `json:"player_id"`
}

type ForfeitTournamentMatch struct {
	TournamentID string `json:"tournament_id"`
	MatchID      string `json:"match_id"`
	PlayerID     string `json:"player_id"`
}

type CancelTournament struct {
	TournamentID string `json:"tournament_id"`
	PlayerID     string `json:"player_id"`
}

func (CreateGame) operation() string             { return "create_game" }
func (JoinGame) operation() string               { return "join_game" }
func (MakeMove) operation() string               { return "make_move" }
func (Resign) operation() string                 { return "resign" }
func (RequestAIMove) operation() string          { return "request_ai_move" }
func (JoinQueue) operation() string              { return "join_queue" }
func (LeaveQueue) operation() string             { return "leave_queue" }
func (OfferDraw) operation() string              { return "offer_draw" }
func (AcceptDraw) operation() string             { return "accept_draw" }
func (DeclineDraw) operation() string            { return "decline_draw" }
func (ClaimTimeWin) operation() string           { return "claim_time_win" }
func (CreateTournament) operation() string       { return "create_tournament" }
func (JoinTournament) operation() string         { return "join_tournament" }
func (JoinTournamentByCode) operation() string   { return "join_tournament_by_code" }
func (LeaveTournament) operation() string        { return "leave_tournament" }
func (StartTournament) operation() string        { return "start_tournament" }
func (StartTournamentMatch) operation() string   { return "start_tournament_match" }
func (ForfeitTournamentMatch) operation() string { return "forfeit_tournament_match" }
func (CancelTournament) operation() string       { return "cancel_tournament" }

const (
	KindGameCreated              = "game_created"
	KindGameJoined               = "game_joined"
	KindMoveMade                 = "move_made"
	KindResigned                 = "resigned"
	KindAIMoveMade               = "ai_move_made"
	KindQueueJoined              = "queue_joined"
	KindQueueLeft                = "queue_left"
	KindMatchFound               = "match_found"
	KindDrawOffered              = "draw_offered"
	KindDrawAccepted             = "draw_accepted"
	KindDrawDeclined             = "draw_declined"
	KindTimeWinClaimed           = "time_win_claimed"
	KindTournamentCreated        = "tournament_created"
	KindTournamentJoined         = "tournament_joined"
	KindTournamentJoinedByCode   = "tournament_joined_by_code"
	KindTournamentLeft           = "tournament_left"
	KindTournamentStarted        = "tournament_started"
	KindTournamentMatchStarted   = "tournament_match_started"
	KindTournamentMatchForfeited = "tournament_match_forfeited"
	KindTournamentCancelled      = "tournament_cancelled"
)

// Result describes the outcome of a request. Only the fields relevant to
// Kind are set.
type Result struct {
	Kind           string            `json:"kind"`
	GameID         string            `json:"game_id,omitempty"`
	GameOver       bool              `json:"game_over,omitempty"`
	Move           *models.Move      `json:"move,omitempty"`
	Opponent       string            `json:"opponent,omitempty"`
	TimeControl    clock.TimeControl `json:"time_control,omitempty"`
	TournamentID   string            `json:"tournament_id,omitempty"`
	TournamentName string            `json:"tournament_name,omitempty"`
	InviteCode     string            `json:"invite_code,omitempty"`
	MatchID        string            `json:"match_id,omitempty"`
	Winner         string            `json:"winner,omitempty"`
	Left           bool              `json:"left,omitempty"`
}
