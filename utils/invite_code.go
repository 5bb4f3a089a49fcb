package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateInviteCode creates an uppercase alphanumeric code with given length.
// Look-alike characters (0/O, 1/I) are left out.
func GenerateInviteCode(n int) string {
	if n <= 0 {
		n = 6
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// fallback to time based modulo if crypto fails
			v = big.NewInt(time.Now().UnixNano() % int64(len(inviteAlphabet)))
		}
		out[i] = inviteAlphabet[v.Int64()]
	}
	return string(out)
}
