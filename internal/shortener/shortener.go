package shortener

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Base62 character set (0-9, a-z, A-Z) - 62 characters total.
// Using base62 instead of base64 avoids special characters that might
// cause URL issues. Digits sort first so Encode(1) == "1".
const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Encode converts a numeric id to its base62 short code.
// No padding is applied: id 1 encodes to "1", id 62 to "10".
// Deriving codes from auto-increment ids eliminates collision risk
// at the cost of exposing sequential patterns.
func Encode(id int64) string {
	if id == 0 {
		return string(base62Chars[0])
	}

	var b [11]byte // 62^11 > MaxInt64
	i := len(b)
	for id > 0 {
		i--
		b[i] = base62Chars[id%62]
		id /= 62
	}

	return string(b[i:])
}

// Decode converts a base62 short code back to its numeric id
func Decode(code string) (int64, error) {
	var id int64
	for _, ch := range code {
		idx := strings.IndexRune(base62Chars, ch)
		if idx < 0 {
			return 0, fmt.Errorf("invalid base62 character %q", ch)
		}
		id = id*62 + int64(idx)
	}
	return id, nil
}

// RandomCode generates a random base62 code of the given length using
// crypto/rand. Used as the provisional code during id-derived creation
// and available for collision-resistant standalone generation.
func RandomCode(length int) string {
	result := make([]byte, length)
	max := big.NewInt(int64(len(base62Chars)))

	for i := range result {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is effectively unrecoverable; fall
			// back to a position-derived byte rather than panicking
			num = big.NewInt(int64(i % len(base62Chars)))
		}
		result[i] = base62Chars[num.Int64()]
	}

	return string(result)
}
