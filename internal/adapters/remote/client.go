// Package remote is the HTTP adapter for the external classification
// service. It maps the service's wire shapes into the engine's unified
// result types and reports every failure as a ServiceUnavailableError so
// the orchestrator can fall back. It never retries.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
)

// Client talks to the classification backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type scanRequest struct {
	Text string `json:"text"`
}

type batchScanRequest struct {
	Texts []string `json:"texts"`
}

type scanResponse struct {
	IsPhishing       *bool                    `json:"is_phishing"`
	Confidence       *float64                 `json:"confidence"`
	RiskLevel        *string                  `json:"risk_level"`
	Explanations     []core.ExplanationEntry  `json:"explanations"`
	HighlightedLines []core.HighlightedLine   `json:"highlighted_lines"`
	ClassPercentages map[core.Verdict]float64 `json:"class_percentages"`
}

type batchItemResponse struct {
	TextPreview      string                   `json:"text_preview"`
	IsPhishing       bool                     `json:"is_phishing"`
	Confidence       float64                  `json:"confidence"`
	RiskLevel        string                   `json:"risk_level"`
	Explanations     []core.ExplanationEntry  `json:"explanations"`
	HighlightedLines []core.HighlightedLine   `json:"highlighted_lines"`
	ClassPercentages map[core.Verdict]float64 `json:"class_percentages"`
	Error            string                   `json:"error"`
}

type batchScanResponse struct {
	BatchResults []batchItemResponse `json:"batch_results"`
	TotalScanned int                 `json:"total_scanned"`
}

type healthResponse struct {
	Status           string `json:"status"`
	ModelLoaded      bool   `json:"model_loaded"`
	VectorizerLoaded bool   `json:"vectorizer_loaded"`
	APIVersion       string `json:"api_version"`
}

type updateCheckResponse struct {
	Status           string  `json:"status"`
	ModelLoaded      bool    `json:"model_loaded"`
	VectorizerLoaded bool    `json:"vectorizer_loaded"`
	ModelVersion     string  `json:"model_version"`
	LastUpdated      *string `json:"last_updated"`
}

type auditRecordResponse struct {
	ID               int64                    `json:"id"`
	CreatedAt        string                   `json:"created_at"`
	Mode             string                   `json:"mode"`
	TextPreview      string                   `json:"text_preview"`
	RiskLevel        string                   `json:"risk_level"`
	Confidence       float64                  `json:"confidence"`
	Explanations     []core.ExplanationEntry  `json:"explanations"`
	HighlightedLines []core.HighlightedLine   `json:"highlighted_lines"`
	ClassPercentages map[core.Verdict]float64 `json:"class_percentages"`
}

// Classify sends a single message to the /scan endpoint.
func (c *Client) Classify(ctx context.Context, content string) (*core.ClassificationResult, error) {
	var resp scanResponse
	if err := c.postJSON(ctx, "/scan", scanRequest{Text: content}, &resp); err != nil {
		return nil, &core.ServiceUnavailableError{Op: "scan", Err: err}
	}
	if resp.RiskLevel == nil || resp.Confidence == nil {
		return nil, &core.ServiceUnavailableError{Op: "scan", Err: fmt.Errorf("response missing risk_level or confidence")}
	}

	isPhishing := resp.IsPhishing != nil && *resp.IsPhishing
	prediction := predictionFromRisk(*resp.RiskLevel, isPhishing)

	result := &core.ClassificationResult{
		Prediction:        prediction,
		Confidence:        *resp.Confidence,
		RiskLevel:         riskLevelFromString(*resp.RiskLevel),
		TriggeredFeatures: findingsFromExplanations(resp.Explanations),
		Explanation:       joinReasons(resp.Explanations),
		HighlightedLines:  resp.HighlightedLines,
		ClassPercentages:  resp.ClassPercentages,
	}
	if result.ClassPercentages == nil {
		result.ClassPercentages = synthesizePercentages(*resp.Confidence)
	}
	return result, nil
}

// ClassifyBatch sends texts to the /batch-scan endpoint in one call.
func (c *Client) ClassifyBatch(ctx context.Context, texts []string) (*core.BatchResult, error) {
	var resp batchScanResponse
	if err := c.postJSON(ctx, "/batch-scan", batchScanRequest{Texts: texts}, &resp); err != nil {
		return nil, &core.ServiceUnavailableError{Op: "batch-scan", Err: err}
	}
	if len(resp.BatchResults) != len(texts) {
		return nil, &core.ServiceUnavailableError{
			Op:  "batch-scan",
			Err: fmt.Errorf("expected %d batch results, got %d", len(texts), len(resp.BatchResults)),
		}
	}

	results := make([]core.BatchItem, 0, len(resp.BatchResults))
	for _, item := range resp.BatchResults {
		out := core.BatchItem{
			TextPreview:      item.TextPreview,
			IsPhishing:       item.IsPhishing,
			Confidence:       item.Confidence,
			RiskLevel:        riskLevelFromString(item.RiskLevel),
			Explanations:     item.Explanations,
			HighlightedLines: item.HighlightedLines,
			ClassPercentages: item.ClassPercentages,
			Err:              item.Error,
		}
		if out.ClassPercentages == nil && item.Error == "" {
			out.ClassPercentages = synthesizePercentages(item.Confidence)
		}
		results = append(results, out)
	}
	return &core.BatchResult{Results: results, TotalScanned: len(results)}, nil
}

// Health probes the /health endpoint.
func (c *Client) Health(ctx context.Context) (*core.HealthStatus, error) {
	var resp healthResponse
	if err := c.getJSON(ctx, "/health", nil, &resp); err != nil {
		return nil, &core.ServiceUnavailableError{Op: "health", Err: err}
	}
	return &core.HealthStatus{
		Status:           resp.Status,
		ModelLoaded:      resp.ModelLoaded,
		VectorizerLoaded: resp.VectorizerLoaded,
		Version:          resp.APIVersion,
	}, nil
}

// CheckUpdates probes the /updates/check endpoint for model freshness.
func (c *Client) CheckUpdates(ctx context.Context) (*core.HealthStatus, error) {
	var resp updateCheckResponse
	if err := c.getJSON(ctx, "/updates/check", nil, &resp); err != nil {
		return nil, &core.ServiceUnavailableError{Op: "updates-check", Err: err}
	}
	status := &core.HealthStatus{
		Status:           resp.Status,
		ModelLoaded:      resp.ModelLoaded,
		VectorizerLoaded: resp.VectorizerLoaded,
		Version:          resp.ModelVersion,
	}
	if resp.LastUpdated != nil {
		if ts, err := time.Parse(time.RFC3339, *resp.LastUpdated); err == nil {
			status.LastUpdated = &ts
		}
	}
	return status, nil
}

// Recent fetches up to limit audit records from the /history endpoint.
func (c *Client) Recent(ctx context.Context, limit int) ([]core.AuditRecord, error) {
	var resp []auditRecordResponse
	query := url.Values{"limit": []string{fmt.Sprintf("%d", limit)}}
	if err := c.getJSON(ctx, "/history", query, &resp); err != nil {
		return nil, &core.ServiceUnavailableError{Op: "history", Err: err}
	}

	records := make([]core.AuditRecord, 0, len(resp))
	for _, item := range resp {
		rec := core.AuditRecord{
			ID:               item.ID,
			Mode:             item.Mode,
			TextPreview:      item.TextPreview,
			RiskLevel:        item.RiskLevel,
			Confidence:       item.Confidence,
			Explanations:     item.Explanations,
			HighlightedLines: item.HighlightedLines,
			ClassPercentages: item.ClassPercentages,
		}
		ts, err := time.Parse(time.RFC3339, item.CreatedAt)
		if err != nil {
			c.logger.Warn("Skipping audit record with unparseable timestamp",
				zap.Int64("id", item.ID),
				zap.String("created_at", item.CreatedAt))
			continue
		}
		rec.CreatedAt = ts
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// predictionFromRisk maps the service's risk tier string to a verdict:
// high and critical map to phishing, medium to suspicious, anything else
// to safe. An explicit is_phishing flag overrides.
func predictionFromRisk(risk string, isPhishing bool) core.Verdict {
	if isPhishing {
		return core.VerdictPhishing
	}
	switch strings.ToLower(risk) {
	case "high", "critical":
		return core.VerdictPhishing
	case "medium":
		return core.VerdictSuspicious
	default:
		return core.VerdictSafe
	}
}

func riskLevelFromString(risk string) core.RiskLevel {
	switch strings.ToLower(risk) {
	case "critical":
		return core.RiskCritical
	case "high":
		return core.RiskHigh
	case "medium":
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}

func findingsFromExplanations(entries []core.ExplanationEntry) []core.FeatureFinding {
	findings := make([]core.FeatureFinding, 0, len(entries))
	for _, e := range entries {
		name := e.Feature
		if name == "" {
			name = "feature"
		}
		findings = append(findings, core.FeatureFinding{
			Name:                name,
			Detected:            true,
			Severity:            0.8,
			Reason:              e.Reason,
			ContributionPercent: e.ContributionPercent,
		})
	}
	return findings
}

func joinReasons(entries []core.ExplanationEntry) string {
	if len(entries) == 0 {
		return "Analysis complete"
	}
	reasons := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Reason != "" {
			reasons = append(reasons, e.Reason)
		}
	}
	if len(reasons) == 0 {
		return "Analysis complete"
	}
	return strings.Join(reasons, "; ")
}

// synthesizePercentages builds a degraded but schema-valid percentage map
// when the service omits one: all non-phishing weight goes to safe.
func synthesizePercentages(confidence float64) map[core.Verdict]float64 {
	phishing := confidence * 100
	if phishing < 0 {
		phishing = 0
	}
	if phishing > 100 {
		phishing = 100
	}
	return map[core.Verdict]float64{
		core.VerdictPhishing:   phishing,
		core.VerdictSuspicious: 0,
		core.VerdictSafe:       100 - phishing,
	}
}
