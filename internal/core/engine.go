package core

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PreviewLen is the maximum length of a batch item's text preview.
const PreviewLen = 120

// Engine is the classification orchestrator. It prefers the remote
// service and falls back to the local heuristic classifier whenever the
// service is unreachable, transparently to the caller.
type Engine struct {
	remote           RemoteClassifier
	fallback         Classifier
	logger           *zap.Logger
	batchConcurrency int
}

// NewEngine creates a classification engine.
func NewEngine(remote RemoteClassifier, fallback Classifier, logger *zap.Logger, batchConcurrency int) *Engine {
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &Engine{
		remote:           remote,
		fallback:         fallback,
		logger:           logger,
		batchConcurrency: batchConcurrency,
	}
}

// Analyze classifies a single message, remote first.
func (e *Engine) Analyze(ctx context.Context, content string) (*ClassificationResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &InvalidInputError{Reason: "content must not be empty"}
	}

	result, err := e.remote.Classify(ctx, content)
	if err == nil {
		return result, nil
	}
	if !IsServiceUnavailable(err) {
		return nil, err
	}

	e.logger.Warn("Remote classification unavailable, using heuristic fallback", zap.Error(err))
	return e.fallback.Classify(ctx, content)
}

// AnalyzeBatch classifies texts, preferring a single remote batch call.
// When that fails, each message is classified concurrently through the
// fallback path. Results always match input order, and a failure on one
// message becomes an error entry at its index rather than aborting the
// batch.
func (e *Engine) AnalyzeBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	result, err := e.remote.ClassifyBatch(ctx, texts)
	if err == nil {
		return result, nil
	}
	if !IsServiceUnavailable(err) {
		return nil, err
	}

	e.logger.Warn("Remote batch classification unavailable, fanning out to heuristic fallback",
		zap.Int("batch_size", len(texts)),
		zap.Error(err))

	items := make([]BatchItem, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchConcurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			res, classifyErr := e.fallback.Classify(gctx, text)
			if classifyErr != nil {
				items[i] = BatchItem{
					TextPreview: preview(text),
					Err:         classifyErr.Error(),
				}
				return nil
			}
			items[i] = batchItemFromResult(text, res)
			return nil
		})
	}
	// Workers never return errors; per-message failures are recorded
	// at their index instead.
	_ = g.Wait()

	return &BatchResult{Results: items, TotalScanned: len(items)}, nil
}

// ServiceHealth probes the remote service. Display only; a failed probe
// never gates classification.
func (e *Engine) ServiceHealth(ctx context.Context) (*HealthStatus, error) {
	return e.remote.Health(ctx)
}

func batchItemFromResult(text string, res *ClassificationResult) BatchItem {
	explanations := make([]ExplanationEntry, 0, len(res.TriggeredFeatures))
	for _, f := range res.TriggeredFeatures {
		if !f.Detected {
			continue
		}
		reason := f.Reason
		if reason == "" {
			reason = res.Explanation
		}
		explanations = append(explanations, ExplanationEntry{
			Feature:             f.Name,
			Value:               f.Severity * ExplanationValueScale,
			Reason:              reason,
			ContributionPercent: f.ContributionPercent,
		})
	}
	return BatchItem{
		TextPreview:      preview(text),
		IsPhishing:       res.Prediction == VerdictPhishing,
		Confidence:       res.Confidence,
		RiskLevel:        res.RiskLevel,
		Explanations:     explanations,
		HighlightedLines: res.HighlightedLines,
		ClassPercentages: res.ClassPercentages,
	}
}

func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) <= PreviewLen {
		return flat
	}
	cut := flat[:PreviewLen]
	for len(cut) > 0 && cut[len(cut)-1] >= 0x80 && cut[len(cut)-1] < 0xC0 {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
