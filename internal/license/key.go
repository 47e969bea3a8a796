package license

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// KeyPattern matches the XXX-XXXX-XXXX-XXXX license key format.
var KeyPattern = regexp.MustCompile(`^[A-Z0-9]{3}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// keyAlphabet excludes easily-confused characters (0/O, 1/I/L).
const keyAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// keyPrefix maps a license type to the key's three-letter prefix, so a key's
// commercial shape can be read at a glance in support tickets.
func keyPrefix(t Type) string {
	switch t {
	case TypePermanente:
		return "PRM"
	case TypeTrial:
		return "TRL"
	case TypeAbbonamentoMensile, TypeMensile:
		return "MEN"
	case TypeAbbonamentoAnnuale, TypeAnnuale:
		return "ANN"
	default:
		return "LIC"
	}
}

// GenerateKey generates a new license key for the given license type.
func GenerateKey(t Type) string {
	groups := make([]string, 3)
	for i := range groups {
		groups[i] = randomGroup(4)
	}
	return fmt.Sprintf("%s-%s", keyPrefix(t), strings.Join(groups, "-"))
}

// NormalizeKey uppercases and trims a user-supplied key.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// IsValidKeyFormat reports whether key matches the expected format.
func IsValidKeyFormat(key string) bool {
	return KeyPattern.MatchString(NormalizeKey(key))
}

func randomGroup(n int) string {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		// crypto/rand failing means the OS entropy source is gone; a
		// predictable key must never be issued in that state.
		panic(fmt.Sprintf("license key entropy unavailable: %v", err))
	}
	out := make([]byte, n)
	for i, v := range b {
		out[i] = keyAlphabet[int(v)%len(keyAlphabet)]
	}
	return string(out)
}
