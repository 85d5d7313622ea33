package room

import (
	"math/rand"
	"strings"
)

// Room codes are short enough to read out loud and type on a phone.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// NormalizeCode maps whatever the client typed onto the canonical
// uppercase form used as the registry key.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
