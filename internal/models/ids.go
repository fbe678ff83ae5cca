package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	gameIDPrefix       = "game_"
	tournamentIDPrefix = "t"
)

func GameID(seq uint64) string {
	return fmt.Sprintf("%s%06d", gameIDPrefix, seq)
}

func TournamentID(seq uint64) string {
	return fmt.Sprintf("%s%06d", tournamentIDPrefix, seq)
}

// GameSeq extracts the sequence number from a game id.
func GameSeq(id string) (uint32, bool) {
	return parseSeq(id, gameIDPrefix)
}

// TournamentSeq extracts the sequence number from a tournament id.
func TournamentSeq(id string) (uint32, bool) {
	return parseSeq(id, tournamentIDPrefix)
}

func parseSeq(id, prefix string) (uint32, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
