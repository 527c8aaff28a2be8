// Package credentials generates human-friendly codes for tutor invites.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Spanish word lists, ASCII only so codes are easy to type
var adjectives = []string{
	"alegre", "audaz", "bravo", "claro", "dulce", "feliz", "firme", "fuerte",
	"grande", "listo", "lento", "noble", "nuevo", "rapido", "sabio", "suave",
	"tierno", "valiente", "veloz", "vivo", "amable", "astuto", "brillante", "calmo",
}

var nouns = []string{
	"gato", "perro", "lobo", "oso", "zorro", "halcon", "delfin", "tigre",
	"leon", "buho", "caballo", "conejo", "raton", "toro", "pato", "cuervo",
	"volcan", "rio", "sol", "mar", "cometa", "trueno", "bosque", "puente",
}

const codeDigits = 4

// GenerateInviteCode returns a code such as "sabio-halcon-4821"
func GenerateInviteCode() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%0*d", adjective, noun, codeDigits, n.Int64()), nil
}

// NormalizeInviteCode canonicalizes user input before lookup
func NormalizeInviteCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
