package state

import (
	"math/rand"
	"strings"
)

const (
	// CodeLength is the number of characters in a room code.
	CodeLength = 4
	// CodeAlphabet holds the characters a room code is drawn from.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeSpace is the number of distinct room codes.
var CodeSpace = pow(len(CodeAlphabet), CodeLength)

// CodeGenerator produces candidate room codes. Uniqueness against live rooms
// is enforced by the store, which calls Generate while holding its lock.
type CodeGenerator interface {
	Generate() string
}

// RandomCodeGenerator draws every character independently and uniformly from CodeAlphabet.
type RandomCodeGenerator struct{}

func NewRandomCodeGenerator() *RandomCodeGenerator {
	return &RandomCodeGenerator{}
}

func (g *RandomCodeGenerator) Generate() string {
	var sb strings.Builder
	sb.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		sb.WriteByte(CodeAlphabet[rand.Intn(len(CodeAlphabet))])
	}
	return sb.String()
}

// IsValidCode reports whether s has the shape of a room code.
func IsValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(CodeAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

func pow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
