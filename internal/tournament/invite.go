package tournament

import "strings"

const (
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteLength   = 6
)

// InviteCode derives the join code of a private tournament from its id
// and creation time. The alphabet leaves out 0/O and 1/I.
func InviteCode(tournamentID string, timestamp int64) string {
	var idHash uint64
	for i := 0; i < len(tournamentID); i++ {
		idHash = idHash*31 + uint64(tournamentID[i])
	}
	seed := uint64(timestamp) * idHash

	code := make([]byte, inviteLength)
	for i := range code {
		code[i] = inviteAlphabet[(seed>>(uint(i)*5))%uint64(len(inviteAlphabet))]
		seed = seed*1103515245 + 12345
	}
	return string(code)
}

// NormalizeCode makes invite code lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
