// Package heuristic implements the local fallback classifier. It mirrors
// the output shape of the remote classification service so callers cannot
// tell which path served a request.
package heuristic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/patterns"
)

// Risk score tier thresholds. First match wins, upper bounds exclusive.
const (
	safeMax     = 0.3
	phishingMin = 0.6
)

// Classifier evaluates the pattern library against message content.
// It is deterministic: identical content yields identical results.
type Classifier struct {
	library *patterns.Library
	logger  *zap.Logger
}

// New creates a heuristic classifier over the given pattern library.
func New(library *patterns.Library, logger *zap.Logger) *Classifier {
	return &Classifier{
		library: library,
		logger:  logger,
	}
}

// Classify scans content against every indicator category and derives a
// verdict, risk tier, confidence, and explainability data.
func (c *Classifier) Classify(_ context.Context, content string) (*core.ClassificationResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &core.InvalidInputError{Reason: "content must not be empty"}
	}

	findings := c.evaluate(content)

	riskScore := 0.0
	detected := make([]core.FeatureFinding, 0, len(findings))
	for _, f := range findings {
		if f.Detected {
			riskScore += f.Severity
			detected = append(detected, f)
		}
	}
	normalizedScore := math.Min(riskScore/3, 1)

	var (
		prediction core.Verdict
		riskLevel  core.RiskLevel
		confidence float64
	)
	switch {
	case normalizedScore < safeMax:
		prediction = core.VerdictSafe
		riskLevel = core.RiskLow
		confidence = 0.85 + (normalizedScore/safeMax)*0.10
	case normalizedScore < phishingMin:
		prediction = core.VerdictSuspicious
		if len(detected) > 2 {
			riskLevel = core.RiskMedium
		} else {
			riskLevel = core.RiskLow
		}
		confidence = 0.70 + ((normalizedScore-safeMax)/(phishingMin-safeMax))*0.15
	default:
		prediction = core.VerdictPhishing
		if len(detected) > 3 {
			riskLevel = core.RiskCritical
		} else {
			riskLevel = core.RiskHigh
		}
		confidence = 0.80 + ((normalizedScore-phishingMin)/(1-phishingMin))*0.15
	}
	confidence = math.Min(confidence, 0.99)

	// Attribute each detected category's share of the total risk.
	if riskScore > 0 {
		for i := range findings {
			if findings[i].Detected {
				findings[i].ContributionPercent = round2(findings[i].Severity / riskScore * 100)
			}
		}
	}

	c.logger.Debug("Heuristic classification complete",
		zap.String("prediction", string(prediction)),
		zap.Float64("normalized_score", normalizedScore),
		zap.Int("detected_categories", len(detected)))

	return &core.ClassificationResult{
		Prediction:        prediction,
		Confidence:        confidence,
		RiskLevel:         riskLevel,
		TriggeredFeatures: findings,
		Explanation:       explanation(prediction, detected),
		HighlightedLines:  c.highlightLines(content),
		ClassPercentages:  classPercentages(normalizedScore),
	}, nil
}

// evaluate produces one finding per category, in library order.
func (c *Classifier) evaluate(content string) []core.FeatureFinding {
	categories := c.library.Categories()
	findings := make([]core.FeatureFinding, 0, len(categories))
	for _, cat := range categories {
		f := core.FeatureFinding{Name: cat.Label}
		if cat.Matches(content) {
			f.Detected = true
			f.Severity = cat.DetectedWeight
			f.Reason = fmt.Sprintf("Message content matched the %s indicator set", strings.ToLower(cat.Label))
		} else {
			f.Severity = cat.IdleWeight
		}
		findings = append(findings, f)
	}
	return findings
}

// highlightLines reports per-line evidence so the fallback path matches
// the remote path's explainability shape.
func (c *Classifier) highlightLines(content string) []core.HighlightedLine {
	matched := c.library.MatchLines(content)
	lines := make([]core.HighlightedLine, 0, len(matched))
	for _, m := range matched {
		lines = append(lines, core.HighlightedLine{
			LineNumber: m.Number,
			LineText:   m.Text,
			Indicators: m.Indicators,
		})
	}
	return lines
}

func explanation(prediction core.Verdict, detected []core.FeatureFinding) string {
	names := make([]string, 0, len(detected))
	for _, f := range detected {
		names = append(names, f.Name)
	}
	switch prediction {
	case core.VerdictSuspicious:
		return fmt.Sprintf("Detected %d suspicious indicator(s): %s. Exercise caution.",
			len(detected), strings.Join(names, ", "))
	case core.VerdictPhishing:
		return fmt.Sprintf("High-confidence phishing attempt. Multiple red flags detected: %s. Do not interact.",
			strings.Join(names, ", "))
	default:
		return "No significant phishing indicators detected. Message appears legitimate."
	}
}

// classPercentages maps the normalized risk score onto a safe/suspicious/
// phishing weight triple and normalizes it to sum to 100. The suspicious
// weight peaks midway between the two tier thresholds.
func classPercentages(score float64) map[core.Verdict]float64 {
	safeRaw := math.Max(0, 1-score/safeMax)
	phishingRaw := math.Max(0, (score-safeMax)/(1-safeMax))

	var suspiciousRaw float64
	switch {
	case score <= safeMax:
		suspiciousRaw = score / safeMax
	case score >= phishingMin:
		suspiciousRaw = math.Max(0, (1-score)/(1-phishingMin))
	default:
		midpoint := (safeMax + phishingMin) / 2
		radius := (phishingMin - safeMax) / 2
		suspiciousRaw = math.Max(0, 1-math.Abs(score-midpoint)/radius)
	}

	total := safeRaw + suspiciousRaw + phishingRaw
	if total <= 0 {
		safeRaw, suspiciousRaw, phishingRaw = 1, 1, 1
		total = 3
	}

	return map[core.Verdict]float64{
		core.VerdictSafe:       round2(safeRaw / total * 100),
		core.VerdictSuspicious: round2(suspiciousRaw / total * 100),
		core.VerdictPhishing:   round2(phishingRaw / total * 100),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
