package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
)

func testRecord(id string) *core.ScanRecord {
	return &core.ScanRecord{
		ID:                id,
		Timestamp:         time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC),
		MessageType:       core.MessageEmail,
		Content:           "please verify your password",
		Verdict:           core.VerdictSuspicious,
		Confidence:        0.82,
		RiskLevel:         core.RiskMedium,
		TriggeredFeatures: []string{"Credential Request"},
		OperatorDecision:  core.DecisionPending,
		Explainability: &core.Explainability{
			Explanations: []core.ExplanationEntry{
				{Feature: "credential_request", Value: 8.8, Reason: "Credential harvesting language", ContributionPercent: 100},
			},
			ClassPercentages: map[core.Verdict]float64{
				core.VerdictSafe: 10, core.VerdictSuspicious: 70, core.VerdictPhishing: 20,
			},
		},
	}
}

func TestMemoryStoreAddAndGetAll(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, testRecord("one")))
	require.NoError(t, s.Add(ctx, testRecord("two")))

	records, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMemoryStoreAddDuplicate(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, testRecord("one")))
	err := s.Add(ctx, testRecord("one"))
	require.Error(t, err)

	var storeErr *core.StoreError
	assert.True(t, errors.As(err, &storeErr))
}

func TestMemoryStoreReturnsClones(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	original := testRecord("one")
	require.NoError(t, s.Add(ctx, original))

	// Mutating the original after Add must not affect the store.
	original.Verdict = core.VerdictPhishing
	original.TriggeredFeatures[0] = "changed"

	records, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.VerdictSuspicious, records[0].Verdict)
	assert.Equal(t, "Credential Request", records[0].TriggeredFeatures[0])

	// Mutating a returned record must not affect later reads.
	records[0].Verdict = core.VerdictSafe
	again, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.VerdictSuspicious, again[0].Verdict)
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, testRecord("one")))

	verdict := core.VerdictPhishing
	decision := core.DecisionIncident
	require.NoError(t, s.Update(ctx, "one", core.ScanPatch{
		Verdict:          &verdict,
		OperatorDecision: &decision,
	}))

	records, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.VerdictPhishing, records[0].Verdict)
	assert.Equal(t, core.DecisionIncident, records[0].OperatorDecision)
	// Unpatched fields survive.
	assert.InDelta(t, 0.82, records[0].Confidence, 0.0001)
	assert.Equal(t, core.RiskMedium, records[0].RiskLevel)
}

func TestMemoryStoreUpdateMissingRecord(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())

	verdict := core.VerdictPhishing
	err := s.Update(context.Background(), "ghost", core.ScanPatch{Verdict: &verdict})
	require.Error(t, err)

	var storeErr *core.StoreError
	assert.True(t, errors.As(err, &storeErr))
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, testRecord("one")))
	require.NoError(t, s.Delete(ctx, "one"))

	records, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Deleting a missing record is a no-op.
	require.NoError(t, s.Delete(ctx, "one"))
}
