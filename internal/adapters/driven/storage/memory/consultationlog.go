package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
)

// Ensure ConsultationLog implements the interface.
var _ driven.ConsultationLog = (*ConsultationLog)(nil)

// ConsultationLog is an in-memory implementation of driven.ConsultationLog.
type ConsultationLog struct {
	mu      sync.RWMutex
	records map[string]domain.ConsultationRecord
}

// NewConsultationLog creates a new in-memory consultation log.
func NewConsultationLog() *ConsultationLog {
	return &ConsultationLog{
		records: make(map[string]domain.ConsultationRecord),
	}
}

// Record stores a consultation.
func (l *ConsultationLog) Record(_ context.Context, record domain.ConsultationRecord) error {
	if record.ID == "" {
		return domain.ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[record.ID] = record
	return nil
}

// Get retrieves a consultation by ID.
func (l *ConsultationLog) Get(_ context.Context, id string) (*domain.ConsultationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// List returns the most recent consultations, newest first.
func (l *ConsultationLog) List(_ context.Context, limit int) ([]domain.ConsultationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]domain.ConsultationRecord, 0, len(l.records))
	for _, rec := range l.records {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// RuleUsage counts rule firings across all consultations.
func (l *ConsultationLog) RuleUsage(_ context.Context) (map[string]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	usage := make(map[string]int)
	for _, rec := range l.records {
		for _, id := range rec.UsedRules {
			usage[id]++
		}
	}
	return usage, nil
}

// Close is a no-op.
func (l *ConsultationLog) Close() error {
	return nil
}
