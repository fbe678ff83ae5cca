package tournament

import (
	"fmt"
	"math"
	"sort"

	"github.com/chdb/checkers/internal/models"
)

// Pairing is one board of a round. A bye has an empty Player2.
type Pairing struct {
	Player1 string
	Player2 string
}

func (p Pairing) IsBye() bool {
	return p.Player2 == ""
}

// SwissRounds returns max(3, ceil(log2(players))).
func SwissRounds(players int) int {
	if players < 2 {
		return 3
	}
	rounds := int(math.Ceil(math.Log2(float64(players))))
	if rounds < 3 {
		return 3
	}
	return rounds
}

// FirstRoundPairings folds the seed list: seed i meets seed n-1-i. With
// an odd field the last seed sits out with a bye and the rest are folded.
func FirstRoundPairings(players []string) []Pairing {
	n := len(players)
	folded := players
	var bye string
	if n%2 == 1 {
		folded = players[:n-1]
		bye = players[n-1]
	}

	pairings := make([]Pairing, 0, n/2+1)
	m := len(folded)
	for i := 0; i < m/2; i++ {
		pairings = append(pairings, Pairing{Player1: folded[i], Player2: folded[m-1-i]})
	}
	if bye != "" {
		pairings = append(pairings, Pairing{Player1: bye})
	}
	return pairings
}

// SwissPairings orders participants by score (desc) then id, hands a bye
// to the lowest placed participant without one when the field is odd, and
// pairs the rest top-down, avoiding rematches where possible. It sorts
// participants in place and flags the bye recipient.
func SwissPairings(participants []models.SwissParticipant) []Pairing {
	sortStandings(participants)

	n := len(participants)
	paired := make([]bool, n)
	var pairings []Pairing

	if n%2 == 1 {
		byeIdx := n - 1
		for i := n - 1; i >= 0; i-- {
			if !participants[i].HasBye {
				byeIdx = i
				break
			}
		}
		participants[byeIdx].HasBye = true
		paired[byeIdx] = true
		pairings = append(pairings, Pairing{Player1: participants[byeIdx].PlayerID})
	}

	for i := 0; i < n; i++ {
		if paired[i] {
			continue
		}

		opponent := -1
		for j := i + 1; j < n; j++ {
			if !paired[j] && !participants[i].HasPlayed(participants[j].PlayerID) {
				opponent = j
				break
			}
		}
		if opponent < 0 {
			for j := i + 1; j < n; j++ {
				if !paired[j] {
					opponent = j
					break
				}
			}
		}
		if opponent < 0 {
			continue
		}

		pairings = append(pairings, Pairing{
			Player1: participants[i].PlayerID,
			Player2: participants[opponent].PlayerID,
		})
		paired[i] = true
		paired[opponent] = true
	}
	return pairings
}

func sortStandings(participants []models.SwissParticipant) {
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Score != participants[j].Score {
			return participants[i].Score > participants[j].Score
		}
		return participants[i].PlayerID < participants[j].PlayerID
	})
}

func matchID(tournamentID string, round, number int) string {
	return fmt.Sprintf("%s_r%d_m%d", tournamentID, round, number)
}

// addRound appends a round built from pairings to both the flat match list
// and the round list.
func addRound(t *models.Tournament, round int, pairings []Pairing) {
	matches := make([]models.TournamentMatch, 0, len(pairings))
	for i, p := range pairings {
		m := models.TournamentMatch{
			ID:          matchID(t.ID, round, i+1),
			Round:       round,
			MatchNumber: i + 1,
			Player1:     p.Player1,
			Player2:     p.Player2,
			Status:      models.MatchReady,
		}
		if p.IsBye() {
			m.Status = models.MatchBye
			m.Winner = p.Player1
			if part := t.Participant(p.Player1); part != nil {
				part.HasBye = true
			}
		}
		matches = append(matches, m)
	}

	t.Matches = append(t.Matches, matches...)
	t.Rounds = append(t.Rounds, models.TournamentRound{
		RoundNumber: round,
		Matches:     append([]models.TournamentMatch{}, matches...),
	})
}
