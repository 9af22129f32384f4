package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driptide/irrigationd/internal/controller"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

	transitions := []Transition{
		{OccurredAt: base, From: controller.StateIdle, To: controller.StateWatering, Reason: controller.ReasonSoilDry, Raw: 430, Average: 441},
		{OccurredAt: base.Add(45 * time.Second), From: controller.StateWatering, To: controller.StateCooldown, Reason: controller.ReasonSoilWet, Raw: 560, Average: 531},
		{OccurredAt: base.Add(105 * time.Second), From: controller.StateCooldown, To: controller.StateIdle, Reason: controller.ReasonCooldownOver, Raw: 540, Average: 538},
	}
	for _, tr := range transitions {
		require.NoError(t, s.Record(ctx, tr))
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, controller.StateIdle, got[0].To)
	assert.Equal(t, controller.ReasonCooldownOver, got[0].Reason)
	assert.Equal(t, controller.StateCooldown, got[1].To)
	assert.True(t, got[0].OccurredAt.Equal(base.Add(105*time.Second)))
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestRecordKeepsCallerID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, s.Record(ctx, Transition{
		ID:         id,
		OccurredAt: time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC),
		From:       controller.StateIdle,
		To:         controller.StateCooldown,
		Reason:     controller.ReasonManualStop,
	}))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
}

func TestRecentOnEmptyStore(t *testing.T) {
	s := setupStore(t)

	got, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNoopStore(t *testing.T) {
	var s NoopStore
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Transition{From: controller.StateIdle, To: controller.StateWatering}))
	got, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, s.Close())
}
