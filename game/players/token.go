// Package players tracks the people playing: token issuance and lookup,
// per-player scoring, and the play/stop accounting that drives retirement.
package players

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
)

// Token authenticates one player. It is 32 lowercase hex characters.
type Token string

const tokenLength = 32

// TokenGenerator produces fresh auth tokens.
type TokenGenerator func() Token

// NewTokenGenerator builds the default generator: two independent PRNG
// streams seeded from OS entropy, each contributing 64 bits per token.
func NewTokenGenerator() TokenGenerator {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("players: seeding token generator: %v", err))
	}
	first := rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:8]))))
	second := rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[8:]))))
	return func() Token {
		return Token(fmt.Sprintf("%016x%016x", first.Uint64(), second.Uint64()))
	}
}

// IsValid reports whether t has the wire format of a token.
func (t Token) IsValid() bool {
	if len(t) != tokenLength {
		return false
	}
	for _, c := range t {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// ParseBearerToken extracts the token from an Authorization header value.
// The Bearer prefix is strict; the hex digits may come in either case and
// are normalized to lowercase. ok is false when the header is missing the
// scheme or the token is malformed.
func ParseBearerToken(header string) (Token, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	t := Token(strings.ToLower(header[len(prefix):]))
	if !t.IsValid() {
		return "", false
	}
	return t, true
}
