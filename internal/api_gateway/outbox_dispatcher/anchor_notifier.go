package outbox_dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rice-supply-chain-api/internal/domain/outbox"
)

// ProofSender submits the proof-of-interaction transfer to a recipient public key and
// returns the transaction signature.
type ProofSender interface {
	SendProof(ctx context.Context, recipient string) (string, error)
}

// AnchorRecorder stores the signature on the record it anchors.
type AnchorRecorder interface {
	SetBlockchainTx(ctx context.Context, kind, id, signature string) error
}

// AnchorNotifier anchors newly created records on chain. Other events are ignored.
// Transfers are attempted once; every failure is reported as outbox.ErrPermanent.
type AnchorNotifier struct {
	sender   ProofSender
	recorder AnchorRecorder
	logger   *slog.Logger
}

func NewAnchorNotifier(sender ProofSender, recorder AnchorRecorder, logger *slog.Logger) *AnchorNotifier {
	return &AnchorNotifier{
		sender:   sender,
		recorder: recorder,
		logger:   logger.With("component", "anchor_notifier"),
	}
}

func (n *AnchorNotifier) Name() string {
	return "solana_anchor"
}

func (n *AnchorNotifier) Notify(ctx context.Context, message *outbox.Message) error {
	if message.Event != outbox.EventRecordCreated {
		return nil
	}

	signature, err := n.sender.SendProof(ctx, message.RecordID)
	if err != nil {
		return outbox.ErrPermanent{Err: fmt.Errorf("sending proof for %s %s: %w", message.Kind, message.RecordID, err)}
	}

	n.logger.Info("Record anchored on chain",
		"kind", message.Kind, "record_id", message.RecordID, "signature", signature)

	if err := n.recorder.SetBlockchainTx(ctx, message.Kind, message.RecordID, signature); err != nil {
		return outbox.ErrPermanent{Err: fmt.Errorf("recording signature %s: %w", signature, err)}
	}
	return nil
}
