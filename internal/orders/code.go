package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// CodePrefix is the human-readable order code prefix.
const CodePrefix = "AT-"

const codeRandomBytes = 4

// CodePattern validates the full order code shape before any lookup.
var CodePattern = regexp.MustCompile(`^AT-[A-Z0-9]{8}$`)

// GenerateCode produces a candidate order code: AT- plus 8 uppercase hex
// characters from a cryptographically strong source. Four random bytes give
// 32 bits of entropy, so uniqueness is not guaranteed by construction — the
// creation loop treats a code-column conflict as recoverable and regenerates.
func GenerateCode() (string, error) {
	buf := make([]byte, codeRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order code: %w", err)
	}
	return CodePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// ValidCode reports whether the input matches the order code shape.
func ValidCode(code string) bool {
	return CodePattern.MatchString(code)
}
