package models

import (
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/clock"
)

type QueueEntry struct {
	PlayerID    string            `json:"player_id"`
	TimeControl clock.TimeControl `json:"time_control"`
	JoinedAt    int64             `json:"joined_at"`
}

type QueueStatus struct {
	TimeControl clock.TimeControl `json:"time_control"`
	PlayerCount int               `json:"player_count"`
}

type NotificationType string

const (
	NotifyMoveMade     NotificationType = "move_made"
	NotifyGameStarted  NotificationType = "game_started"
	NotifyMatchFound   NotificationType = "match_found"
	NotifyDrawOffered  NotificationType = "draw_offered"
	NotifyDrawDeclined NotificationType = "draw_declined"
	NotifyDrawAccepted NotificationType = "draw_accepted"
	NotifyGameEnded    NotificationType = "game_ended"
)

// Notification is the outbound state change handed to the delivery layer.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Recipient string           `json:"recipient"`
	GameID    string           `json:"game_id"`
	Move      *Move            `json:"move,omitempty"`
	Board     board.Board      `json:"board"`
	Turn      board.Side       `json:"turn"`
	Status    GameStatus       `json:"status"`
	Result    GameResult       `json:"result,omitempty"`
	Opponent  string           `json:"opponent,omitempty"`
	SentAt    int64            `json:"sent_at"`
}
