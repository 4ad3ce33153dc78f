package service

import (
	"context"
	"fmt"

	"github.com/rice-supply-chain-api/internal/domain/trace"
	"github.com/rice-supply-chain-api/internal/pagination"
)

// HistoryServiceImpl implements HistoryService on the trace repository
type HistoryServiceImpl struct {
	traceRepo trace.Repository
}

func NewHistoryService(traceRepo trace.Repository) *HistoryServiceImpl {
	return &HistoryServiceImpl{traceRepo: traceRepo}
}

func (s *HistoryServiceImpl) GetHistory(ctx context.Context, kind, id string, params pagination.Params) ([]*trace.Entry, int64, error) {
	total, err := s.traceRepo.CountByRecordID(ctx, kind, id)
	if err != nil {
		return nil, 0, fmt.Errorf("counting events for %s %s: %w", kind, id, err)
	}
	if total == 0 {
		return []*trace.Entry{}, 0, nil
	}

	entries, err := s.traceRepo.GetByRecordID(ctx, kind, id, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("reading events for %s %s: %w", kind, id, err)
	}
	return entries, total, nil
}
