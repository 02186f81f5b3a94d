package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, zap.NewNop()), server
}

func TestClassify(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scan", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "verify your password now", req["text"])

		_, _ = w.Write([]byte(`{
			"is_phishing": true,
			"confidence": 0.93,
			"risk_level": "high",
			"explanations": [
				{"feature": "credential_request", "value": 8.8, "reason": "Credential harvesting language", "contribution_percent": 60},
				{"feature": "urgency", "value": 8.5, "reason": "Urgent call to action", "contribution_percent": 40}
			],
			"highlighted_lines": [
				{"line_number": 1, "line": "verify your password now", "indicators": ["credential_request", "urgency"]}
			],
			"class_percentages": {"safe": 2, "suspicious": 10, "phishing": 88}
		}`))
	})

	result, err := client.Classify(context.Background(), "verify your password now")
	require.NoError(t, err)

	assert.Equal(t, core.VerdictPhishing, result.Prediction)
	assert.InDelta(t, 0.93, result.Confidence, 0.0001)
	assert.Equal(t, core.RiskHigh, result.RiskLevel)
	assert.Equal(t, "Credential harvesting language; Urgent call to action", result.Explanation)

	require.Len(t, result.TriggeredFeatures, 2)
	assert.Equal(t, "credential_request", result.TriggeredFeatures[0].Name)
	assert.True(t, result.TriggeredFeatures[0].Detected)
	assert.InDelta(t, 60, result.TriggeredFeatures[0].ContributionPercent, 0.0001)

	require.Len(t, result.HighlightedLines, 1)
	assert.Equal(t, 1, result.HighlightedLines[0].LineNumber)

	assert.InDelta(t, 88, result.ClassPercentages[core.VerdictPhishing], 0.0001)
}

func TestClassifyVerdictFromRiskLevel(t *testing.T) {
	tests := []struct {
		name        string
		riskLevel   string
		wantVerdict core.Verdict
		wantRisk    core.RiskLevel
	}{
		{"critical maps to phishing", "critical", core.VerdictPhishing, core.RiskCritical},
		{"high maps to phishing", "high", core.VerdictPhishing, core.RiskHigh},
		{"medium maps to suspicious", "medium", core.VerdictSuspicious, core.RiskMedium},
		{"low maps to safe", "low", core.VerdictSafe, core.RiskLow},
		{"unknown maps to safe", "weird", core.VerdictSafe, core.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				resp := map[string]any{
					"is_phishing": false,
					"confidence":  0.5,
					"risk_level":  tt.riskLevel,
				}
				_ = json.NewEncoder(w).Encode(resp)
			})

			result, err := client.Classify(context.Background(), "hello")
			require.NoError(t, err)
			assert.Equal(t, tt.wantVerdict, result.Prediction)
			assert.Equal(t, tt.wantRisk, result.RiskLevel)
		})
	}
}

func TestClassifySynthesizesPercentages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"is_phishing": true, "confidence": 0.8, "risk_level": "high"}`))
	})

	result, err := client.Classify(context.Background(), "hello")
	require.NoError(t, err)

	assert.InDelta(t, 80, result.ClassPercentages[core.VerdictPhishing], 0.0001)
	assert.InDelta(t, 0, result.ClassPercentages[core.VerdictSuspicious], 0.0001)
	assert.InDelta(t, 20, result.ClassPercentages[core.VerdictSafe], 0.0001)

	var sum float64
	for _, pct := range result.ClassPercentages {
		sum += pct
	}
	assert.InDelta(t, 100, sum, 0.1)
}

func TestClassifyMissingRequiredFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"is_phishing": false}`))
	})

	result, err := client.Classify(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, core.IsServiceUnavailable(err))
}

func TestClassifyServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Classify(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, core.IsServiceUnavailable(err))
}

func TestClassifyUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(server.URL, time.Second, zap.NewNop())

	_, err := client.Classify(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, core.IsServiceUnavailable(err))
}

func TestClassifyBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/batch-scan", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"batch_results": [
				{"text_preview": "a", "is_phishing": false, "confidence": 0.2, "risk_level": "low"},
				{"text_preview": "b", "is_phishing": true, "confidence": 0.9, "risk_level": "critical"},
				{"text_preview": "c", "error": "text is empty"}
			],
			"total_scanned": 3
		}`))
	})

	result, err := client.ClassifyBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Equal(t, 3, result.TotalScanned)

	assert.False(t, result.Results[0].IsPhishing)
	assert.Equal(t, core.RiskLow, result.Results[0].RiskLevel)
	assert.NotNil(t, result.Results[0].ClassPercentages)

	assert.True(t, result.Results[1].IsPhishing)
	assert.Equal(t, core.RiskCritical, result.Results[1].RiskLevel)

	assert.Equal(t, "text is empty", result.Results[2].Err)
	assert.Nil(t, result.Results[2].ClassPercentages)
}

func TestClassifyBatchLengthMismatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"batch_results": [], "total_scanned": 0}`))
	})

	result, err := client.ClassifyBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, core.IsServiceUnavailable(err))
}

func TestHealth(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "healthy", "model_loaded": true, "vectorizer_loaded": true, "api_version": "1.4.2"}`))
	})

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.ModelLoaded)
	assert.True(t, status.VectorizerLoaded)
	assert.Equal(t, "1.4.2", status.Version)
}

func TestCheckUpdates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/updates/check", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"status": "up_to_date",
			"model_loaded": true,
			"vectorizer_loaded": true,
			"model_version": "2024-11-02",
			"last_updated": "2024-11-02T10:30:00Z"
		}`))
	})

	status, err := client.CheckUpdates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "up_to_date", status.Status)
	assert.Equal(t, "2024-11-02", status.Version)
	require.NotNil(t, status.LastUpdated)
	assert.Equal(t, 2024, status.LastUpdated.Year())
}

func TestRecent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"id": 42, "created_at": "2024-11-02T10:30:00Z", "mode": "single", "text_preview": "hello", "risk_level": "low", "confidence": 0.1},
			{"id": 43, "created_at": "not-a-timestamp", "mode": "single", "text_preview": "bad", "risk_level": "low", "confidence": 0.1},
			{"id": 44, "created_at": "2024-11-03T08:00:00Z", "mode": "batch", "text_preview": "wire transfer", "risk_level": "high", "confidence": 0.95}
		]`))
	})

	records, err := client.Recent(context.Background(), 25)
	require.NoError(t, err)

	// The record with the unparseable timestamp is skipped.
	require.Len(t, records, 2)
	assert.Equal(t, int64(42), records[0].ID)
	assert.Equal(t, int64(44), records[1].ID)
	assert.Equal(t, "batch", records[1].Mode)
	assert.Equal(t, "high", records[1].RiskLevel)
}
