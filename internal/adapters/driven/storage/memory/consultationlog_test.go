package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

func TestConsultationLog_RecordGetList(t *testing.T) {
	ctx := context.Background()
	log := NewConsultationLog()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, log.Record(ctx, domain.ConsultationRecord{
			ID:        id,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			UsedRules: []string{"R1"},
		}))
	}

	rec, err := log.Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "c2", rec.ID)

	_, err = log.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	recent, err := log.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c3", recent[0].ID)
	assert.Equal(t, "c2", recent[1].ID)

	all, err := log.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	usage, err := log.RuleUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"R1": 3}, usage)
	assert.NoError(t, log.Close())
}

func TestConsultationLog_RejectsEmptyID(t *testing.T) {
	err := NewConsultationLog().Record(context.Background(), domain.ConsultationRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
