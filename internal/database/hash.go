package database

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chdb/checkers/internal/board"
)

// HashPosition identifies a board together with the side to move.
func HashPosition(b board.Board, side board.Side) string {
	return hashString(b.Encode() + " " + side.String())
}

func HashPattern(pattern string) string {
	return hashString(pattern)
}

func hashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
