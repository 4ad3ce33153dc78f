package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rice-supply-chain-api/internal/metrics"
)

// BalanceReader is the part of Client the monitor uses.
type BalanceReader interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// BalanceMonitor logs the wallet balance and exports it as a gauge.
type BalanceMonitor struct {
	reader   BalanceReader
	address  string
	lamports uint64 // per-proof cost, used for the low balance warning
	timeout  time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewBalanceMonitor(reader BalanceReader, address string, proofLamports uint64, logger *slog.Logger) *BalanceMonitor {
	return &BalanceMonitor{
		reader:   reader,
		address:  address,
		lamports: proofLamports,
		timeout:  10 * time.Second,
		logger:   logger.With("component", "wallet_balance_monitor"),
	}
}

// Check reads the balance once.
func (m *BalanceMonitor) Check(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	balance, err := m.reader.GetBalance(ctx, m.address)
	if err != nil {
		m.logger.Warn("Failed to read wallet balance", "address", m.address, "error", err)
		return 0, err
	}

	metrics.SetWalletBalance(balance)
	if balance < m.lamports {
		m.logger.Warn("Wallet balance below one proof transfer", "address", m.address, "lamports", balance)
	} else {
		m.logger.Info("Wallet balance", "address", m.address, "lamports", balance)
	}
	return balance, nil
}

// Start schedules Check on a standard five-field cron spec. An empty spec does nothing.
func (m *BalanceMonitor) Start(schedule string) error {
	if schedule == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		_, _ = m.Check(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid balance check schedule %q: %w", schedule, err)
	}
	c.Start()
	m.cron = c
	m.logger.Info("Wallet balance monitor scheduled", "schedule", schedule)
	return nil
}

// Stop waits for a running check to finish or ctx to expire.
func (m *BalanceMonitor) Stop(ctx context.Context) {
	if m.cron == nil {
		return
	}
	select {
	case <-m.cron.Stop().Done():
	case <-ctx.Done():
		m.logger.Warn("Wallet balance monitor did not stop in time")
	}
}
