package services

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// mostUsedLimit caps ConsultationStats.MostUsedRules.
const mostUsedLimit = 10

// HistoryService exposes the consultation log.
type HistoryService struct {
	log driven.ConsultationLog
}

// NewHistoryService creates a history service.
func NewHistoryService(log driven.ConsultationLog) *HistoryService {
	return &HistoryService{log: log}
}

// List returns recent consultations, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.ConsultationRecord, error) {
	if s.log == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.log.List(ctx, limit)
}

// Get retrieves a logged consultation.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.ConsultationRecord, error) {
	if s.log == nil {
		return nil, domain.ErrNotImplemented
	}
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.log.Get(ctx, id)
}

// Stats summarises the log.
func (s *HistoryService) Stats(ctx context.Context) (*domain.ConsultationStats, error) {
	if s.log == nil {
		return nil, domain.ErrNotImplemented
	}
	records, err := s.log.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	usage, err := s.log.RuleUsage(ctx)
	if err != nil {
		return nil, err
	}

	out := &domain.ConsultationStats{
		Total:       len(records),
		ByDiagnosis: make(map[string]int),
		RuleUsage:   usage,
	}

	topCFs := make(stats.Float64Data, 0, len(records))
	for _, rec := range records {
		if rec.TopDiagnosis == "" {
			out.NoConclusion++
		} else {
			out.ByDiagnosis[rec.TopDiagnosis]++
			topCFs = append(topCFs, rec.TopCF)
		}
		if rec.Timestamp.After(out.LastTimestamp) {
			out.LastTimestamp = rec.Timestamp
		}
	}
	if len(topCFs) > 0 {
		out.AverageTopCF, _ = topCFs.Mean()
		out.MedianTopCF, _ = topCFs.Median()
	}

	for id, n := range usage {
		out.MostUsedRules = append(out.MostUsedRules, domain.RuleUsage{RuleID: id, Count: n})
	}
	sort.Slice(out.MostUsedRules, func(i, j int) bool {
		a, b := out.MostUsedRules[i], out.MostUsedRules[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.RuleID < b.RuleID
	})
	if len(out.MostUsedRules) > mostUsedLimit {
		out.MostUsedRules = out.MostUsedRules[:mostUsedLimit]
	}
	return out, nil
}
