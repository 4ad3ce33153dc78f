// Package blockchain sends proof-of-interaction transfers on Solana. A small System
// Program transfer from the service wallet to a new record's public key anchors the
// record on chain; the returned signature is stored on the record.
package blockchain

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/afero"
)

// Wallet is the fee payer and sender of proof transfers.
type Wallet struct {
	key       ed25519.PrivateKey
	generated bool
}

// NewWallet wraps an existing 64-byte ed25519 secret key.
func NewWallet(key ed25519.PrivateKey) (*Wallet, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	return &Wallet{key: key}, nil
}

// LoadWallet resolves secret as a keypair file (a JSON array of 64 bytes, as written by
// solana-keygen) and then as a base58 secret key. An empty or unusable secret yields a
// freshly generated wallet, which has no funds until airdropped.
func LoadWallet(logger *slog.Logger, fsys afero.Fs, secret string) (*Wallet, error) {
	secret = strings.TrimSpace(secret)
	if secret != "" {
		w, err := loadWallet(fsys, secret)
		if err == nil {
			logger.Info("Solana wallet loaded", "public_key", w.PublicKey())
			return w, nil
		}
		logger.Warn("Failed to load Solana wallet, generating a new one", "error", err)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating wallet key: %w", err)
	}
	w := &Wallet{key: key, generated: true}
	logger.Warn("Using generated Solana wallet, fund it before proofs can be sent", "public_key", w.PublicKey())
	return w, nil
}

func loadWallet(fsys afero.Fs, secret string) (*Wallet, error) {
	if exists, _ := afero.Exists(fsys, secret); exists {
		data, err := afero.ReadFile(fsys, secret)
		if err != nil {
			return nil, fmt.Errorf("reading keypair file: %w", err)
		}
		var raw []byte
		var numbers []int
		if err := json.Unmarshal(data, &numbers); err != nil {
			return nil, fmt.Errorf("keypair file is not a JSON byte array: %w", err)
		}
		for _, n := range numbers {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("keypair file contains %d, not a byte", n)
			}
			raw = append(raw, byte(n))
		}
		return NewWallet(raw)
	}

	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("secret is neither a keypair file nor base58: %w", err)
	}
	return NewWallet(raw)
}

// PublicKey returns the base58 address of the wallet.
func (w *Wallet) PublicKey() string {
	return base58.Encode(w.key.Public().(ed25519.PublicKey))
}

// Generated reports whether the wallet was created at startup.
func (w *Wallet) Generated() bool {
	return w.generated
}

func (w *Wallet) publicKeyBytes() []byte {
	return w.key.Public().(ed25519.PublicKey)
}

func (w *Wallet) sign(message []byte) []byte {
	return ed25519.Sign(w.key, message)
}
