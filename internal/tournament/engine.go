// Package tournament runs Swiss-system tournaments: registration, round
// pairing, bye handling, result recording and round advancement.
//
// Functions mutate the *models.Tournament they are given and never touch
// storage; callers persist the tournament afterwards. Timestamps are
// milliseconds.
package tournament

import (
	"fmt"
	"math"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
)

const (
	MinPlayers = 2
	MaxPlayers = 64

	winPoints  = 2
	drawPoints = 1
	byePoints  = 2
)

type Options struct {
	ID             string
	Name           string
	Creator        string
	TimeControl    clock.TimeControl
	MaxPlayers     int
	IsPublic       bool
	ScheduledStart int64
}

// Validate checks the options that do not depend on the tournament id.
func (opts Options) Validate() error {
	if opts.MaxPlayers < MinPlayers || opts.MaxPlayers > MaxPlayers {
		return apperrors.Validation("Max players must be between 2 and 64", fmt.Sprintf("max_players=%d", opts.MaxPlayers))
	}
	if opts.Creator == "" {
		return apperrors.Validation("Creator is required", "")
	}
	if opts.TimeControl != "" && !opts.TimeControl.Valid() {
		return apperrors.Validation("Invalid time control", string(opts.TimeControl))
	}
	return nil
}

// New creates a tournament in registration with the creator registered.
func New(opts Options, now int64) (*models.Tournament, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	tc := opts.TimeControl
	if tc == "" {
		tc = clock.DefaultTimeControl
	}

	t := &models.Tournament{
		ID:                opts.ID,
		Name:              opts.Name,
		Creator:           opts.Creator,
		Status:            models.TournamentRegistration,
		TimeControl:       tc,
		MaxPlayers:        opts.MaxPlayers,
		RegisteredPlayers: []string{opts.Creator},
		Matches:           []models.TournamentMatch{},
		Rounds:            []models.TournamentRound{},
		Participants:      []models.SwissParticipant{},
		TotalRounds:       int(math.Log2(float64(opts.MaxPlayers))),
		IsPublic:          opts.IsPublic,
		ScheduledStart:    opts.ScheduledStart,
		CreatedAt:         now,
	}
	if !opts.IsPublic {
		t.InviteCode = InviteCode(opts.ID, now)
	}
	return t, nil
}

// Join registers player in a public tournament.
func Join(t *models.Tournament, player string) error {
	if !t.IsPublic {
		return apperrors.Rejected("Private tournament - use invite code to join")
	}
	return register(t, player)
}

// JoinWithCode registers player in a private tournament found by code.
func JoinWithCode(t *models.Tournament, code, player string) error {
	if t.IsPublic || t.InviteCode != NormalizeCode(code) {
		return apperrors.ErrInvalidInviteCode
	}
	return register(t, player)
}

func register(t *models.Tournament, player string) error {
	if t.Status != models.TournamentRegistration {
		return apperrors.ErrNotAcceptingRegistrations
	}
	if t.IsRegistered(player) {
		return apperrors.ErrAlreadyRegistered
	}
	if len(t.RegisteredPlayers) >= t.MaxPlayers {
		return apperrors.ErrTournamentFull
	}
	t.RegisteredPlayers = append(t.RegisteredPlayers, player)
	return nil
}

func Leave(t *models.Tournament, player string) error {
	if t.Status != models.TournamentRegistration {
		return apperrors.Rejected("Cannot leave after tournament started")
	}
	if t.Creator == player {
		return apperrors.Rejected("Creator cannot leave tournament")
	}

	kept := t.RegisteredPlayers[:0]
	for _, p := range t.RegisteredPlayers {
		if p != player {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(t.RegisteredPlayers) {
		return apperrors.Rejected("Not registered in this tournament")
	}
	t.RegisteredPlayers = kept
	return nil
}

// RequiredPlayers is a quarter of capacity, never fewer than two.
func RequiredPlayers(maxPlayers int) int {
	if n := maxPlayers / 4; n > MinPlayers {
		return n
	}
	return MinPlayers
}

// Start closes registration, seeds the field in registration order and
// builds round 1. Byes in round 1 are resolved immediately.
func Start(t *models.Tournament, player string, now int64) error {
	if t.Creator != player {
		return apperrors.Forbidden("Only creator can start tournament")
	}
	if t.Status != models.TournamentRegistration {
		return apperrors.Rejected("Tournament already started")
	}
	if need := RequiredPlayers(t.MaxPlayers); len(t.RegisteredPlayers) < need {
		return apperrors.Rejected(fmt.Sprintf("Need at least %d players (25%% of max) to start", need))
	}
	if t.ScheduledStart > 0 && now < t.ScheduledStart {
		return apperrors.Rejected("Tournament cannot start before scheduled time")
	}

	t.Status = models.TournamentInProgress
	t.StartedAt = now
	t.CurrentRound = 1

	t.Participants = make([]models.SwissParticipant, 0, len(t.RegisteredPlayers))
	for _, p := range t.RegisteredPlayers {
		t.Participants = append(t.Participants, models.SwissParticipant{PlayerID: p, Opponents: []string{}})
	}
	t.NumRounds = SwissRounds(len(t.RegisteredPlayers))
	t.TotalRounds = t.NumRounds

	t.Matches = []models.TournamentMatch{}
	t.Rounds = []models.TournamentRound{}
	addRound(t, 1, FirstRoundPairings(t.RegisteredPlayers))

	ProcessByes(t, now)
	return nil
}

// Cancel ends a tournament that never started. It has no winner.
func Cancel(t *models.Tournament, player string, now int64) error {
	if t.Creator != player {
		return apperrors.Forbidden("Only creator can cancel tournament")
	}
	if t.Status != models.TournamentRegistration {
		return apperrors.Rejected("Can only cancel during registration")
	}
	t.Status = models.TournamentCancelled
	t.FinishedAt = now
	return nil
}

// ClaimMatch binds gameID to a ready match and returns its two players.
// A match can be claimed once.
func ClaimMatch(t *models.Tournament, matchID, player, gameID string) (string, string, error) {
	idx := t.Match(matchID)
	if idx < 0 {
		return "", "", apperrors.ErrMatchNotFound
	}
	m := &t.Matches[idx]
	if m.Status != models.MatchReady {
		return "", "", apperrors.ErrMatchNotReady
	}
	if m.GameID != "" {
		return "", "", apperrors.Rejected("Match already started")
	}
	if !m.HasPlayer(player) {
		return "", "", apperrors.ErrNotInThisMatch
	}
	if m.Player1 == "" {
		return "", "", apperrors.Rejected("Player 1 not set")
	}
	if m.Player2 == "" {
		return "", "", apperrors.Rejected("Player 2 not set")
	}

	m.GameID = gameID
	m.Status = models.MatchInProgress
	syncRoundMatch(t, *m)
	return m.Player1, m.Player2, nil
}

// Forfeit concedes an active match on behalf of player and returns the
// opponent, who is credited with the win.
func Forfeit(t *models.Tournament, matchID, player string, now int64) (string, error) {
	idx := t.Match(matchID)
	if idx < 0 {
		return "", apperrors.ErrMatchNotFound
	}
	m := t.Matches[idx]
	if m.Status != models.MatchReady && m.Status != models.MatchInProgress {
		return "", apperrors.Rejected("Match not active")
	}
	if !m.HasPlayer(player) {
		return "", apperrors.ErrNotInThisMatch
	}
	winner := m.Opponent(player)
	if winner == "" {
		return "", apperrors.Rejected("Cannot determine winner")
	}

	finishMatch(t, idx, winner, player, false, now)
	return winner, nil
}

// RecordGameResult applies the outcome of the game played for matchID.
// It reports false when the match is unknown or already resolved.
func RecordGameResult(t *models.Tournament, matchID, winner, loser string, draw bool, now int64) bool {
	idx := t.Match(matchID)
	if idx < 0 || t.Matches[idx].Resolved() {
		return false
	}
	finishMatch(t, idx, winner, loser, draw, now)
	return true
}

func finishMatch(t *models.Tournament, idx int, winner, loser string, draw bool, now int64) {
	m := &t.Matches[idx]
	m.Status = models.MatchFinished
	if !draw {
		m.Winner = winner
	}
	recordSwissResult(t, winner, loser, draw)
	syncRoundMatch(t, *m)
	Advance(t, now)
}

// recordSwissResult awards 2 points for a win or 1 each for a draw and
// marks the two players as having met.
func recordSwissResult(t *models.Tournament, winner, loser string, draw bool) {
	for i := range t.Participants {
		p := &t.Participants[i]
		switch p.PlayerID {
		case winner:
			if draw {
				p.Score += drawPoints
			} else {
				p.Score += winPoints
			}
			if !p.HasPlayed(loser) {
				p.Opponents = append(p.Opponents, loser)
			}
		case loser:
			if draw {
				p.Score += drawPoints
			}
			if !p.HasPlayed(winner) {
				p.Opponents = append(p.Opponents, winner)
			}
		}
	}
}

// syncRoundMatch copies m over its entry in the round list.
func syncRoundMatch(t *models.Tournament, m models.TournamentMatch) {
	r := t.Round(m.Round)
	if r == nil {
		return
	}
	for i := range r.Matches {
		if r.Matches[i].ID == m.ID {
			r.Matches[i] = m
			return
		}
	}
}

// ProcessByes resolves the bye matches of the current round, credits
// their players and then tries to advance.
func ProcessByes(t *models.Tournament, now int64) {
	for i := range t.Matches {
		m := &t.Matches[i]
		if m.Round != t.CurrentRound || m.Status != models.MatchBye {
			continue
		}
		m.Status = models.MatchFinished
		m.Winner = m.Player1
		syncRoundMatch(t, *m)

		if p := t.Participant(m.Player1); p != nil {
			p.Score += byePoints
		}
	}
	Advance(t, now)
}

// Advance moves the tournament on once every match in the current round
// is resolved: it either finishes the tournament after the last round or
// pairs the next one.
func Advance(t *models.Tournament, now int64) {
	if t.Status != models.TournamentInProgress {
		return
	}

	current := t.Round(t.CurrentRound)
	if current == nil {
		return
	}
	for i := range current.Matches {
		if !current.Matches[i].Resolved() {
			return
		}
	}

	if t.CurrentRound >= t.NumRounds {
		current.Completed = true
		t.Status = models.TournamentFinished
		t.Winner = leader(t.Participants)
		t.FinishedAt = now
		return
	}

	current.Completed = true
	next := t.CurrentRound + 1
	addRound(t, next, SwissPairings(t.Participants))
	t.CurrentRound = next

	ProcessByes(t, now)
}

// leader returns the top scorer; equal scores go to the smaller id.
func leader(participants []models.SwissParticipant) string {
	var best *models.SwissParticipant
	for i := range participants {
		p := &participants[i]
		if best == nil || p.Score > best.Score || (p.Score == best.Score && p.PlayerID < best.PlayerID) {
			best = p
		}
	}
	if best == nil {
		return ""
	}
	return best.PlayerID
}

// Standings returns the participants ordered by score, then id.
func Standings(t *models.Tournament) []models.SwissParticipant {
	out := make([]models.SwissParticipant, len(t.Participants))
	copy(out, t.Participants)
	sortStandings(out)
	return out
}
