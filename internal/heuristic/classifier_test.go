package heuristic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/patterns"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return New(patterns.DefaultLibrary(), zap.NewNop())
}

func TestClassifyEmptyContent(t *testing.T) {
	c := newTestClassifier(t)

	for _, content := range []string{"", "   ", "\n\t "} {
		result, err := c.Classify(context.Background(), content)
		require.Error(t, err)
		assert.Nil(t, result)

		var invalidErr *core.InvalidInputError
		assert.True(t, errors.As(err, &invalidErr))
	}
}

func TestClassifyTiers(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantVerdict    core.Verdict
		wantRisk       core.RiskLevel
		wantConfidence float64
	}{
		{
			name:           "benign message",
			content:        "Hi Bob, are we still on for lunch tomorrow at noon?",
			wantVerdict:    core.VerdictSafe,
			wantRisk:       core.RiskLow,
			wantConfidence: 0.85,
		},
		{
			name:           "two indicators is suspicious",
			content:        "URGENT: verify your account at bit.ly/abc",
			wantVerdict:    core.VerdictSuspicious,
			wantRisk:       core.RiskLow,
			wantConfidence: 0.845,
		},
		{
			name:           "many indicators is phishing with critical risk",
			content:        "URGENT dear customer: your paypa1 password expires, wire transfer required",
			wantVerdict:    core.VerdictPhishing,
			wantRisk:       core.RiskCritical,
			wantConfidence: 0.95,
		},
	}

	c := newTestClassifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(context.Background(), tt.content)
			require.NoError(t, err)

			assert.Equal(t, tt.wantVerdict, result.Prediction)
			assert.Equal(t, tt.wantRisk, result.RiskLevel)
			assert.InDelta(t, tt.wantConfidence, result.Confidence, 0.001)
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 0.99)
			assert.NotEmpty(t, result.Explanation)
		})
	}
}

func TestClassifyPercentagesSumTo100(t *testing.T) {
	c := newTestClassifier(t)

	messages := []string{
		"Hi Bob, are we still on for lunch tomorrow at noon?",
		"URGENT: verify your account at bit.ly/abc",
		"Dear customer, your refund is pending, confirm your details",
		"URGENT dear customer: your paypa1 password expires, wire transfer required",
		"Meeting notes attached, see you Thursday",
	}

	for _, msg := range messages {
		result, err := c.Classify(context.Background(), msg)
		require.NoError(t, err)

		var sum float64
		for _, pct := range result.ClassPercentages {
			assert.GreaterOrEqual(t, pct, 0.0)
			sum += pct
		}
		assert.InDelta(t, 100.0, sum, 0.1, "message %q", msg)
	}
}

func TestClassifyContributionPercentages(t *testing.T) {
	c := newTestClassifier(t)

	result, err := c.Classify(context.Background(), "URGENT: verify your account at bit.ly/abc")
	require.NoError(t, err)

	var sum float64
	for _, f := range result.TriggeredFeatures {
		if f.Detected {
			assert.Greater(t, f.ContributionPercent, 0.0)
			sum += f.ContributionPercent
		} else {
			assert.Zero(t, f.ContributionPercent)
		}
	}
	assert.InDelta(t, 100.0, sum, 0.1)
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier(t)
	content := "Dear customer, your account is locked. Verify your identity at http://bit.ly/x"

	first, err := c.Classify(context.Background(), content)
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClassifyNeverSafeWhenIndicatorsDetected(t *testing.T) {
	c := newTestClassifier(t)

	result, err := c.Classify(context.Background(), "URGENT: click bit.ly/claim")
	require.NoError(t, err)
	assert.NotEqual(t, core.VerdictSafe, result.Prediction)
}

func TestClassifyHighlightedLines(t *testing.T) {
	c := newTestClassifier(t)
	content := "Hello,\n\nURGENT: your account is suspended\nplease send your password\n\nThanks"

	result, err := c.Classify(context.Background(), content)
	require.NoError(t, err)

	require.Len(t, result.HighlightedLines, 2)
	assert.Equal(t, 3, result.HighlightedLines[0].LineNumber)
	assert.Contains(t, result.HighlightedLines[0].Indicators, "urgency")
	assert.Equal(t, 4, result.HighlightedLines[1].LineNumber)
	assert.Contains(t, result.HighlightedLines[1].Indicators, "credential_request")
}

func TestClassifyFindingsCoverEveryCategory(t *testing.T) {
	c := newTestClassifier(t)

	result, err := c.Classify(context.Background(), "Nothing interesting here")
	require.NoError(t, err)

	require.Len(t, result.TriggeredFeatures, 6)
	for _, f := range result.TriggeredFeatures {
		assert.False(t, f.Detected)
		assert.Greater(t, f.Severity, 0.0)
	}
}
