// Package identity issues record identifiers. An identifier is the base58 text of a freshly
// generated ed25519 public key, the same shape as a Solana account address, so a record id
// can also receive the proof-of-interaction transfer.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
)

// KeySize is the decoded length of a well-formed identifier.
const KeySize = ed25519.PublicKeySize

// Generator produces record identifiers from an entropy source.
type Generator struct {
	entropy io.Reader
}

// NewGenerator returns a Generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy is used by tests that need deterministic keys.
func NewGeneratorWithEntropy(r io.Reader) *Generator {
	return &Generator{entropy: r}
}

// New returns a new identifier.
func (g *Generator) New() (string, error) {
	pub, _, err := ed25519.GenerateKey(g.entropy)
	if err != nil {
		return "", fmt.Errorf("generating identifier key: %w", err)
	}
	return Encode(pub), nil
}

// Encode renders raw key bytes as an identifier.
func Encode(key []byte) string {
	return base58.Encode(key)
}

// Decode parses an identifier back into its key bytes.
func Decode(id string) ([]byte, error) {
	raw, err := base58.Decode(id)
	if err != nil {
		return nil, fmt.Errorf("decoding identifier %q: %w", id, err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("identifier %q decodes to %d bytes, want %d", id, len(raw), KeySize)
	}
	return raw, nil
}

// IsValid reports whether s has the identifier shape.
func IsValid(s string) bool {
	if s == "" || len(s) > 44 {
		return false
	}
	_, err := Decode(s)
	return err == nil
}
