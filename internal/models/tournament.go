package models

import "github.com/chdb/checkers/internal/clock"

type TournamentStatus string

const (
	TournamentRegistration TournamentStatus = "registration"
	TournamentInProgress   TournamentStatus = "in_progress"
	TournamentFinished     TournamentStatus = "finished"
	TournamentCancelled    TournamentStatus = "cancelled"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchReady      MatchStatus = "ready"
	MatchInProgress MatchStatus = "in_progress"
	MatchFinished   MatchStatus = "finished"
	MatchBye        MatchStatus = "bye"
)

type TournamentMatch struct {
	ID          string      `json:"id"`
	Round       int         `json:"round"`
	MatchNumber int         `json:"match_number"`
	Player1     string      `json:"player1,omitempty"`
	Player2     string      `json:"player2,omitempty"`
	GameID      string      `json:"game_id,omitempty"`
	Winner      string      `json:"winner,omitempty"`
	Status      MatchStatus `json:"status"`
}

// Resolved reports whether the match no longer blocks round completion.
func (m *TournamentMatch) Resolved() bool {
	return m.Status == MatchFinished || m.Status == MatchBye
}

func (m *TournamentMatch) HasPlayer(player string) bool {
	return player != "" && (m.Player1 == player || m.Player2 == player)
}

// Opponent returns the other slot, or "" if player is not in the match.
func (m *TournamentMatch) Opponent(player string) string {
	switch player {
	case "":
		return ""
	case m.Player1:
		return m.Player2
	case m.Player2:
		return m.Player1
	}
	return ""
}

type SwissParticipant struct {
	PlayerID  string   `json:"player_id"`
	Score     int      `json:"score"`
	Opponents []string `json:"opponents"`
	HasBye    bool     `json:"has_bye"`
}

func (p *SwissParticipant) HasPlayed(player string) bool {
	for _, o := range p.Opponents {
		if o == player {
			return true
		}
	}
	return false
}

type TournamentRound struct {
	RoundNumber int               `json:"round_number"`
	Matches     []TournamentMatch `json:"matches"`
	Completed   bool              `json:"completed"`
}

type Tournament struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Creator           string             `json:"creator"`
	Status            TournamentStatus   `json:"status"`
	TimeControl       clock.TimeControl  `json:"time_control"`
	MaxPlayers        int                `json:"max_players"`
	RegisteredPlayers []string           `json:"registered_players"`
	Matches           []TournamentMatch  `json:"matches"`
	Rounds            []TournamentRound  `json:"rounds"`
	Participants      []SwissParticipant `json:"participants"`
	CurrentRound      int                `json:"current_round"`
	TotalRounds       int                `json:"total_rounds"`
	NumRounds         int                `json:"num_rounds"`
	Winner            string             `json:"winner,omitempty"`
	IsPublic          bool               `json:"is_public"`
	InviteCode        string             `json:"invite_code,omitempty"`
	ScheduledStart    int64              `json:"scheduled_start,omitempty"`
	CreatedAt         int64              `json:"created_at"`
	StartedAt         int64              `json:"started_at,omitempty"`
	FinishedAt        int64              `json:"finished_at,omitempty"`
}

func (t *Tournament) IsRegistered(player string) bool {
	for _, p := range t.RegisteredPlayers {
		if p == player {
			return true
		}
	}
	return false
}

// Match returns the index of matchID in the flat match list, or -1.
func (t *Tournament) Match(matchID string) int {
	for i := range t.Matches {
		if t.Matches[i].ID == matchID {
			return i
		}
	}
	return -1
}

func (t *Tournament) Participant(player string) *SwissParticipant {
	for i := range t.Participants {
		if t.Participants[i].PlayerID == player {
			return &t.Participants[i]
		}
	}
	return nil
}

func (t *Tournament) Round(number int) *TournamentRound {
	for i := range t.Rounds {
		if t.Rounds[i].RoundNumber == number {
			return &t.Rounds[i]
		}
	}
	return nil
}

func (t *Tournament) Clone() *Tournament {
	c := *t
	c.RegisteredPlayers = append([]string{}, t.RegisteredPlayers...)
	c.Matches = append([]TournamentMatch{}, t.Matches...)
	c.Rounds = make([]TournamentRound, len(t.Rounds))
	for i, r := range t.Rounds {
		r.Matches = append([]TournamentMatch{}, r.Matches...)
		c.Rounds[i] = r
	}
	c.Participants = make([]SwissParticipant, len(t.Participants))
	for i, p := range t.Participants {
		p.Opponents = append([]string{}, p.Opponents...)
		c.Participants[i] = p
	}
	return &c
}

type TournamentFilter string

const (
	FilterAll    TournamentFilter = "all"
	FilterPublic TournamentFilter = "public"
	FilterActive TournamentFilter = "active"
)

func (f TournamentFilter) Matches(t *Tournament) bool {
	switch f {
	case FilterPublic:
		return t.IsPublic
	case FilterActive:
		return t.Status == TournamentRegistration || t.Status == TournamentInProgress
	}
	return true
}
