package blockchain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr-tron/base58"

	"github.com/rice-supply-chain-api/internal/identity"
)

// Anchorer sends a fixed-amount transfer from the wallet to a record's public key.
type Anchorer struct {
	client   *Client
	wallet   *Wallet
	lamports uint64
	logger   *slog.Logger
}

func NewAnchorer(client *Client, wallet *Wallet, lamports uint64, logger *slog.Logger) *Anchorer {
	return &Anchorer{
		client:   client,
		wallet:   wallet,
		lamports: lamports,
		logger:   logger.With("component", "solana_anchorer"),
	}
}

// SendProof transfers the proof amount to recipient and returns the transaction signature.
func (a *Anchorer) SendProof(ctx context.Context, recipient string) (string, error) {
	to, err := identity.Decode(recipient)
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}

	hash, err := a.client.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	blockhash, err := base58.Decode(hash)
	if err != nil {
		return "", fmt.Errorf("decoding blockhash %q: %w", hash, err)
	}

	tx, err := buildTransfer(a.wallet, to, a.lamports, blockhash)
	if err != nil {
		return "", err
	}

	signature, err := a.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}

	a.logger.Debug("Proof transfer submitted", "recipient", recipient, "lamports", a.lamports, "signature", signature)
	return signature, nil
}
