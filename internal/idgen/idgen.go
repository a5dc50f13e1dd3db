// Package idgen generates short content-hash bead ids like "fl-7k2p".
package idgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultLength is the suffix length used for generated ids.
const DefaultLength = 4

// NewID creates a hash-based id from the bead's content. The nonce
// disambiguates collisions: callers bump it and retry while the id is
// already taken.
func NewID(prefix, title, creator string, ts time.Time, nonce int) string {
	content := fmt.Sprintf("%s|%s|%d|%d", title, creator, ts.UnixNano(), nonce)
	sum := sha256.Sum256([]byte(content))
	// 3 bytes = 24 bits, enough for a 4-5 char base36 suffix.
	return fmt.Sprintf("%s-%s", prefix, encodeBase36(sum[:3], DefaultLength))
}

// encodeBase36 converts bytes to a fixed-length base36 string, padding with
// zeros and keeping the least significant digits on overflow.
func encodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Sign() > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}
	for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
		chars[i], chars[j] = chars[j], chars[i]
	}

	s := string(chars)
	if len(s) < length {
		s = strings.Repeat("0", length-len(s)) + s
	}
	if len(s) > length {
		s = s[len(s)-length:]
	}
	return s
}
