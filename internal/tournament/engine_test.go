package tournament

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/models"
)

const now = int64(1_700_000_000_000)

func newTournament(t *testing.T, maxPlayers int, players ...string) *models.Tournament {
	t.Helper()
	tour, err := New(Options{
		ID:          "t000001",
		Name:        "Friday Swiss",
		Creator:     players[0],
		TimeControl: clock.Blitz3_0,
		MaxPlayers:  maxPlayers,
		IsPublic:    true,
	}, now)
	require.NoError(t, err)
	for _, p := range players[1:] {
		require.NoError(t, Join(tour, p))
	}
	return tour
}

func pairsOf(matches []models.TournamentMatch) [][2]string {
	out := make([][2]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, [2]string{m.Player1, m.Player2})
	}
	return out
}

func scores(tour *models.Tournament) map[string]int {
	out := map[string]int{}
	for _, p := range tour.Participants {
		out[p.PlayerID] = p.Score
	}
	return out
}

func TestNewValidatesCapacity(t *testing.T) {
	for _, max := range []int{0, 1, 65} {
		_, err := New(Options{ID: "t000001", Creator: "alice", MaxPlayers: max}, now)
		assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err), "max=%d", max)
	}

	tour, err := New(Options{ID: "t000001", Creator: "alice", MaxPlayers: 10, IsPublic: true}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, tour.RegisteredPlayers)
	assert.Equal(t, 3, tour.TotalRounds)
	assert.Equal(t, clock.DefaultTimeControl, tour.TimeControl)
	assert.Empty(t, tour.InviteCode)
}

func TestInviteCode(t *testing.T) {
	assert.Equal(t, "ABZJVG", InviteCode("t000001", now))
	assert.Equal(t, "ABBPAC", InviteCode("t000002", now))

	tour, err := New(Options{ID: "t000001", Creator: "alice", MaxPlayers: 4}, now)
	require.NoError(t, err)
	assert.Equal(t, "ABZJVG", tour.InviteCode)

	assert.ErrorIs(t, Join(tour, "bob"), apperrors.ErrInvalidOperation)
	assert.ErrorIs(t, JoinWithCode(tour, "NOPE42", "bob"), apperrors.ErrInvalidInviteCode)
	require.NoError(t, JoinWithCode(tour, " abzjvg ", "bob"))
	assert.True(t, tour.IsRegistered("bob"))

	public := newTournament(t, 4, "alice")
	assert.ErrorIs(t, JoinWithCode(public, "", "bob"), apperrors.ErrInvalidInviteCode)
}

func TestJoinGuards(t *testing.T) {
	tour := newTournament(t, 2, "alice")

	assert.ErrorIs(t, Join(tour, "alice"), apperrors.ErrAlreadyRegistered)
	require.NoError(t, Join(tour, "bob"))
	assert.ErrorIs(t, Join(tour, "carol"), apperrors.ErrTournamentFull)

	require.NoError(t, Start(tour, "alice", now))
	assert.ErrorIs(t, Join(tour, "carol"), apperrors.ErrNotAcceptingRegistrations)
}

func TestLeave(t *testing.T) {
	tour := newTournament(t, 8, "alice", "bob")

	assert.EqualError(t, Leave(tour, "alice"), "[INVALID_OPERATION] Creator cannot leave tournament")
	assert.EqualError(t, Leave(tour, "carol"), "[INVALID_OPERATION] Not registered in this tournament")
	require.NoError(t, Leave(tour, "bob"))
	assert.Equal(t, []string{"alice"}, tour.RegisteredPlayers)

	require.NoError(t, Join(tour, "bob"))
	require.NoError(t, Start(tour, "alice", now))
	assert.EqualError(t, Leave(tour, "bob"), "[INVALID_OPERATION] Cannot leave after tournament started")
}

func TestStartGuards(t *testing.T) {
	tour := newTournament(t, 16, "alice", "bob", "carol")

	assert.ErrorIs(t, Start(tour, "bob", now), apperrors.ErrForbidden)
	assert.EqualError(t, Start(tour, "alice", now), "[INVALID_OPERATION] Need at least 4 players (25% of max) to start")

	require.NoError(t, Join(tour, "dave"))
	tour.ScheduledStart = now + 1000
	assert.EqualError(t, Start(tour, "alice", now), "[INVALID_OPERATION] Tournament cannot start before scheduled time")

	require.NoError(t, Start(tour, "alice", now+1000))
	assert.Equal(t, models.TournamentInProgress, tour.Status)
	assert.Equal(t, 1, tour.CurrentRound)
	assert.Equal(t, now+1000, tour.StartedAt)
	assert.EqualError(t, Start(tour, "alice", now), "[INVALID_OPERATION] Tournament already started")
}

func TestRequiredPlayers(t *testing.T) {
	assert.Equal(t, 2, RequiredPlayers(2))
	assert.Equal(t, 2, RequiredPlayers(8))
	assert.Equal(t, 3, RequiredPlayers(12))
	assert.Equal(t, 16, RequiredPlayers(64))
}

func TestSwissRounds(t *testing.T) {
	assert.Equal(t, 3, SwissRounds(2))
	assert.Equal(t, 3, SwissRounds(8))
	assert.Equal(t, 4, SwissRounds(9))
	assert.Equal(t, 6, SwissRounds(64))
}

func TestFirstRoundFoldEightPlayers(t *testing.T) {
	tour := newTournament(t, 8, "A", "B", "C", "D", "E", "F", "G", "H")
	require.NoError(t, Start(tour, "A", now))

	want := [][2]string{{"A", "H"}, {"B", "G"}, {"C", "F"}, {"D", "E"}}
	if diff := cmp.Diff(want, pairsOf(tour.Matches)); diff != "" {
		t.Errorf("round 1 pairings mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, tour.NumRounds)
	assert.Equal(t, 3, tour.TotalRounds)
	for _, m := range tour.Matches {
		assert.Equal(t, models.MatchReady, m.Status)
	}
	assert.Equal(t, "t000001_r1_m1", tour.Matches[0].ID)
	assert.Equal(t, tour.Matches, tour.Rounds[0].Matches)
}

func TestFirstRoundByeFivePlayers(t *testing.T) {
	tour := newTournament(t, 8, "P1", "P2", "P3", "P4", "P5")
	require.NoError(t, Start(tour, "P1", now))

	want := [][2]string{{"P1", "P4"}, {"P2", "P3"}, {"P5", ""}}
	if diff := cmp.Diff(want, pairsOf(tour.Matches)); diff != "" {
		t.Errorf("round 1 pairings mismatch (-want +got):\n%s", diff)
	}

	bye := tour.Matches[2]
	assert.Equal(t, models.MatchFinished, bye.Status)
	assert.Equal(t, "P5", bye.Winner)
	assert.Equal(t, bye, tour.Rounds[0].Matches[2])
	assert.Equal(t, 2, tour.Participant("P5").Score)
	assert.True(t, tour.Participant("P5").HasBye)
	assert.Equal(t, 1, tour.CurrentRound)
}

func TestFullTournamentFourPlayers(t *testing.T) {
	tour := newTournament(t, 4, "A", "B", "C", "D")
	require.NoError(t, Start(tour, "A", now))
	require.Equal(t, [][2]string{{"A", "D"}, {"B", "C"}}, pairsOf(tour.Rounds[0].Matches))

	assert.True(t, RecordGameResult(tour, "t000001_r1_m1", "A", "D", false, now))
	assert.Equal(t, 1, tour.CurrentRound, "round advances only when every match is resolved")
	assert.True(t, RecordGameResult(tour, "t000001_r1_m2", "B", "C", false, now))

	require.Equal(t, 2, tour.CurrentRound)
	assert.True(t, tour.Rounds[0].Completed)
	require.Equal(t, [][2]string{{"A", "B"}, {"C", "D"}}, pairsOf(tour.Round(2).Matches))

	RecordGameResult(tour, "t000001_r2_m1", "A", "B", false, now)
	RecordGameResult(tour, "t000001_r2_m2", "C", "D", false, now)

	require.Equal(t, 3, tour.CurrentRound)
	require.Equal(t, [][2]string{{"A", "C"}, {"B", "D"}}, pairsOf(tour.Round(3).Matches))

	RecordGameResult(tour, "t000001_r3_m1", "A", "C", false, now)
	RecordGameResult(tour, "t000001_r3_m2", "D", "B", false, now+5)

	assert.Equal(t, models.TournamentFinished, tour.Status)
	assert.Equal(t, "A", tour.Winner)
	assert.Equal(t, now+5, tour.FinishedAt)
	assert.Equal(t, map[string]int{"A": 6, "B": 2, "C": 2, "D": 2}, scores(tour))
	assert.Len(t, tour.Matches, 6)
	assert.ElementsMatch(t, []string{"D", "B", "C"}, tour.Participant("A").Opponents)

	assert.False(t, RecordGameResult(tour, "t000001_r3_m1", "C", "A", false, now), "resolved matches are not recorded twice")
}

func TestOddFieldRotatesByes(t *testing.T) {
	tour := newTournament(t, 4, "A", "B", "C")
	require.NoError(t, Start(tour, "A", now))
	assert.Equal(t, [][2]string{{"A", "B"}, {"C", ""}}, pairsOf(tour.Matches))

	RecordGameResult(tour, "t000001_r1_m1", "A", "B", false, now)
	require.Equal(t, 2, tour.CurrentRound)
	assert.Equal(t, [][2]string{{"B", ""}, {"A", "C"}}, pairsOf(tour.Round(2).Matches))
	assert.Equal(t, 2, tour.Participant("B").Score)

	RecordGameResult(tour, "t000001_r2_m2", "A", "C", false, now)
	require.Equal(t, 3, tour.CurrentRound)
	assert.Equal(t, [][2]string{{"A", ""}, {"B", "C"}}, pairsOf(tour.Round(3).Matches))

	RecordGameResult(tour, "t000001_r3_m2", "B", "C", false, now)
	assert.Equal(t, models.TournamentFinished, tour.Status)
	assert.Equal(t, "A", tour.Winner)
	assert.Equal(t, map[string]int{"A": 6, "B": 4, "C": 2}, scores(tour))
}

func TestDrawsAndTieBreak(t *testing.T) {
	tour := newTournament(t, 2, "bob", "alice")
	require.NoError(t, Start(tour, "bob", now))

	for round := 1; round <= 3; round++ {
		require.Equal(t, round, tour.CurrentRound)
		m := tour.Round(round).Matches[0]
		require.True(t, RecordGameResult(tour, m.ID, m.Player1, m.Player2, true, now))
	}

	assert.Equal(t, models.TournamentFinished, tour.Status)
	assert.Equal(t, map[string]int{"alice": 3, "bob": 3}, scores(tour))
	assert.Equal(t, "alice", tour.Winner)
	assert.Equal(t, []string{"alice"}, tour.Participant("bob").Opponents)
}

func TestClaimMatch(t *testing.T) {
	tour := newTournament(t, 4, "alice", "bob")
	require.NoError(t, Start(tour, "alice", now))
	id := "t000001_r1_m1"

	_, _, err := ClaimMatch(tour, "nope", "alice", "game_000001")
	assert.ErrorIs(t, err, apperrors.ErrMatchNotFound)

	_, _, err = ClaimMatch(tour, id, "carol", "game_000001")
	assert.ErrorIs(t, err, apperrors.ErrNotInThisMatch)

	p1, p2, err := ClaimMatch(tour, id, "bob", "game_000001")
	require.NoError(t, err)
	assert.Equal(t, "alice", p1)
	assert.Equal(t, "bob", p2)
	assert.Equal(t, models.MatchInProgress, tour.Matches[0].Status)
	assert.Equal(t, "game_000001", tour.Rounds[0].Matches[0].GameID)

	_, _, err = ClaimMatch(tour, id, "alice", "game_000002")
	assert.ErrorIs(t, err, apperrors.ErrMatchNotReady)

	tour.Matches[0].Status = models.MatchReady
	_, _, err = ClaimMatch(tour, id, "alice", "game_000002")
	assert.EqualError(t, err, "[INVALID_OPERATION] Match already started")
}

func TestForfeit(t *testing.T) {
	tour := newTournament(t, 4, "alice", "bob")
	require.NoError(t, Start(tour, "alice", now))
	id := "t000001_r1_m1"

	_, err := Forfeit(tour, id, "carol", now)
	assert.ErrorIs(t, err, apperrors.ErrNotInThisMatch)

	winner, err := Forfeit(tour, id, "alice", now)
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)
	assert.Equal(t, 2, tour.Participant("bob").Score)
	assert.Equal(t, models.MatchFinished, tour.Rounds[0].Matches[0].Status)
	assert.Equal(t, 2, tour.CurrentRound)

	_, err = Forfeit(tour, id, "bob", now)
	assert.EqualError(t, err, "[INVALID_OPERATION] Match not active")
}

func TestCancel(t *testing.T) {
	tour := newTournament(t, 4, "alice", "bob")

	assert.ErrorIs(t, Cancel(tour, "bob", now), apperrors.ErrForbidden)
	require.NoError(t, Cancel(tour, "alice", now+1))
	assert.Equal(t, models.TournamentCancelled, tour.Status)
	assert.Equal(t, now+1, tour.FinishedAt)
	assert.Empty(t, tour.Winner)

	assert.EqualError(t, Cancel(tour, "alice", now), "[INVALID_OPERATION] Can only cancel during registration")
}

func TestStandings(t *testing.T) {
	tour := newTournament(t, 4, "A", "B", "C", "D")
	require.NoError(t, Start(tour, "A", now))
	RecordGameResult(tour, "t000001_r1_m2", "C", "B", false, now)

	got := Standings(tour)
	require.Len(t, got, 4)
	assert.Equal(t, "C", got[0].PlayerID)
	assert.Equal(t, "A", got[1].PlayerID)
}
