package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRemote struct {
	classifyFn func(ctx context.Context, content string) (*ClassificationResult, error)
	batchFn    func(ctx context.Context, texts []string) (*BatchResult, error)
	healthFn   func(ctx context.Context) (*HealthStatus, error)
	calls      int
}

func (s *stubRemote) Classify(ctx context.Context, content string) (*ClassificationResult, error) {
	s.calls++
	return s.classifyFn(ctx, content)
}

func (s *stubRemote) ClassifyBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	s.calls++
	return s.batchFn(ctx, texts)
}

func (s *stubRemote) Health(ctx context.Context) (*HealthStatus, error) {
	s.calls++
	return s.healthFn(ctx)
}

type stubFallback struct {
	classifyFn func(ctx context.Context, content string) (*ClassificationResult, error)
	calls      int
}

func (s *stubFallback) Classify(ctx context.Context, content string) (*ClassificationResult, error) {
	s.calls++
	return s.classifyFn(ctx, content)
}

func safeResult() *ClassificationResult {
	return &ClassificationResult{
		Prediction: VerdictSafe,
		Confidence: 0.9,
		RiskLevel:  RiskLow,
		ClassPercentages: map[Verdict]float64{
			VerdictSafe: 100, VerdictSuspicious: 0, VerdictPhishing: 0,
		},
	}
}

func TestAnalyzeEmptyContent(t *testing.T) {
	remote := &stubRemote{}
	fallback := &stubFallback{}
	engine := NewEngine(remote, fallback, zap.NewNop(), 4)

	result, err := engine.Analyze(context.Background(), "   \n")
	require.Error(t, err)
	assert.Nil(t, result)

	var invalidErr *InvalidInputError
	assert.True(t, errors.As(err, &invalidErr))
	assert.Zero(t, remote.calls)
	assert.Zero(t, fallback.calls)
}

func TestAnalyzeRemoteSuccess(t *testing.T) {
	want := safeResult()
	remote := &stubRemote{
		classifyFn: func(_ context.Context, _ string) (*ClassificationResult, error) {
			return want, nil
		},
	}
	fallback := &stubFallback{}
	engine := NewEngine(remote, fallback, zap.NewNop(), 4)

	result, err := engine.Analyze(context.Background(), "hello")
	require.NoError(t, err)
	assert.Same(t, want, result)
	assert.Zero(t, fallback.calls)
}

func TestAnalyzeFallsBackWhenRemoteUnavailable(t *testing.T) {
	remote := &stubRemote{
		classifyFn: func(_ context.Context, _ string) (*ClassificationResult, error) {
			return nil, &ServiceUnavailableError{Op: "scan", Err: errors.New("connection refused")}
		},
	}
	want := safeResult()
	fallback := &stubFallback{
		classifyFn: func(_ context.Context, _ string) (*ClassificationResult, error) {
			return want, nil
		},
	}
	engine := NewEngine(remote, fallback, zap.NewNop(), 4)

	result, err := engine.Analyze(context.Background(), "hello")
	require.NoError(t, err)
	assert.Same(t, want, result)
	assert.Equal(t, 1, fallback.calls)
}

func TestAnalyzePropagatesNonFallbackErrors(t *testing.T) {
	wantErr := errors.New("boom")
	remote := &stubRemote{
		classifyFn: func(_ context.Context, _ string) (*ClassificationResult, error) {
			return nil, wantErr
		},
	}
	fallback := &stubFallback{}
	engine := NewEngine(remote, fallback, zap.NewNop(), 4)

	result, err := engine.Analyze(context.Background(), "hello")
	require.ErrorIs(t, err, wantErr)
	assert.Nil(t, result)
	assert.Zero(t, fallback.calls)
}

func TestAnalyzeBatchRemoteSuccess(t *testing.T) {
	want := &BatchResult{
		Results:      []BatchItem{{TextPreview: "a"}, {TextPreview: "b"}},
		TotalScanned: 2,
	}
	remote := &stubRemote{
		batchFn: func(_ context.Context, _ []string) (*BatchResult, error) {
			return want, nil
		},
	}
	engine := NewEngine(remote, &stubFallback{}, zap.NewNop(), 4)

	result, err := engine.AnalyzeBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Same(t, want, result)
}

func TestAnalyzeBatchFallbackPreservesOrder(t *testing.T) {
	remote := &stubRemote{
		batchFn: func(_ context.Context, _ []string) (*BatchResult, error) {
			return nil, &ServiceUnavailableError{Op: "batch-scan", Err: errors.New("timeout")}
		},
	}
	fallback := &stubFallback{
		classifyFn: func(_ context.Context, content string) (*ClassificationResult, error) {
			return &ClassificationResult{
				Prediction:  VerdictSafe,
				Confidence:  0.9,
				RiskLevel:   RiskLow,
				Explanation: "ok: " + content,
			}, nil
		},
	}
	engine := NewEngine(remote, fallback, zap.NewNop(), 2)

	texts := []string{"first message", "second message", "third message"}
	result, err := engine.AnalyzeBatch(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Equal(t, 3, result.TotalScanned)
	for i, item := range result.Results {
		assert.Equal(t, texts[i], item.TextPreview)
		assert.Empty(t, item.Err)
	}
	assert.Equal(t, 3, fallback.calls)
}

func TestAnalyzeBatchRecordsPerMessageFailures(t *testing.T) {
	remote := &stubRemote{
		batchFn: func(_ context.Context, _ []string) (*BatchResult, error) {
			return nil, &ServiceUnavailableError{Op: "batch-scan", Err: errors.New("timeout")}
		},
	}
	fallback := &stubFallback{
		classifyFn: func(_ context.Context, content string) (*ClassificationResult, error) {
			if strings.TrimSpace(content) == "" {
				return nil, &InvalidInputError{Reason: "content must not be empty"}
			}
			return safeResult(), nil
		},
	}
	engine := NewEngine(remote, fallback, zap.NewNop(), 4)

	result, err := engine.AnalyzeBatch(context.Background(), []string{"ok", "", "also ok"})
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Empty(t, result.Results[0].Err)
	assert.NotEmpty(t, result.Results[1].Err)
	assert.Contains(t, result.Results[1].Err, "invalid input")
	assert.Empty(t, result.Results[2].Err)
	assert.Equal(t, 3, result.TotalScanned)
}

func TestAnalyzeBatchScalesExplanationValues(t *testing.T) {
	remote := &stubRemote{
		batchFn: func(_ context.Context, _ []string) (*BatchResult, error) {
			return nil, &ServiceUnavailableError{Op: "batch-scan", Err: errors.New("down")}
		},
	}
	fallback := &stubFallback{
		classifyFn: func(_ context.Context, _ string) (*ClassificationResult, error) {
			return &ClassificationResult{
				Prediction: VerdictPhishing,
				Confidence: 0.9,
				RiskLevel:  RiskHigh,
				TriggeredFeatures: []FeatureFinding{
					{Name: "urgency", Detected: true, Severity: 0.85, Reason: "Urgent language", ContributionPercent: 100},
					{Name: "spoofed_domain", Detected: false, Severity: 0.1},
				},
			}, nil
		},
	}
	engine := NewEngine(remote, fallback, zap.NewNop(), 4)

	result, err := engine.AnalyzeBatch(context.Background(), []string{"act now"})
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	require.Len(t, result.Results[0].Explanations, 1, "undetected features are omitted")
	entry := result.Results[0].Explanations[0]
	assert.Equal(t, "urgency", entry.Feature)
	assert.InDelta(t, 0.85*ExplanationValueScale, entry.Value, 1e-9)
}

func TestAnalyzeBatchTruncatesPreviews(t *testing.T) {
	remote := &stubRemote{
		batchFn: func(_ context.Context, _ []string) (*BatchResult, error) {
			return nil, &ServiceUnavailableError{Op: "batch-scan", Err: errors.New("down")}
		},
	}
	fallback := &stubFallback{
		classifyFn: func(_ context.Context, _ string) (*ClassificationResult, error) {
			return safeResult(), nil
		},
	}
	engine := NewEngine(remote, fallback, zap.NewNop(), 4)

	long := strings.Repeat("phishing awareness training ", 20)
	result, err := engine.AnalyzeBatch(context.Background(), []string{long})
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	preview := result.Results[0].TextPreview
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.LessOrEqual(t, len(preview), PreviewLen+3)
}

func TestServiceHealth(t *testing.T) {
	want := &HealthStatus{Status: "healthy", ModelLoaded: true}
	remote := &stubRemote{
		healthFn: func(_ context.Context) (*HealthStatus, error) {
			return want, nil
		},
	}
	engine := NewEngine(remote, &stubFallback{}, zap.NewNop(), 4)

	status, err := engine.ServiceHealth(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, status)
}

func TestIsServiceUnavailable(t *testing.T) {
	base := &ServiceUnavailableError{Op: "scan", Err: errors.New("refused")}
	assert.True(t, IsServiceUnavailable(base))
	assert.True(t, IsServiceUnavailable(fmt.Errorf("wrapped: %w", base)))
	assert.False(t, IsServiceUnavailable(errors.New("other")))
	assert.False(t, IsServiceUnavailable(nil))
}
