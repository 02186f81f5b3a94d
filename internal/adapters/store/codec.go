// Package store provides ScanStore implementations backed by memory,
// SQLite, and MySQL. Structured columns hold the scalar fields; feature
// lists and explainability blocks are stored as JSON.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/technova/phishing-shield/internal/core"
)

func encodeFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("failed to encode triggered features: %w", err)
	}
	return string(raw), nil
}

func decodeFeatures(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var features []string
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		return nil, fmt.Errorf("failed to decode triggered features: %w", err)
	}
	return features, nil
}

func encodeExplainability(ex *core.Explainability) (*string, error) {
	if ex == nil {
		return nil, nil
	}
	raw, err := json.Marshal(ex)
	if err != nil {
		return nil, fmt.Errorf("failed to encode explainability: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func decodeExplainability(raw *string) (*core.Explainability, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var ex core.Explainability
	if err := json.Unmarshal([]byte(*raw), &ex); err != nil {
		return nil, fmt.Errorf("failed to decode explainability: %w", err)
	}
	return &ex, nil
}

// applyPatch merges a patch into an existing record. Nil patch fields
// leave the record untouched.
func applyPatch(rec *core.ScanRecord, patch core.ScanPatch) {
	if patch.Verdict != nil {
		rec.Verdict = *patch.Verdict
	}
	if patch.Confidence != nil {
		rec.Confidence = *patch.Confidence
	}
	if patch.RiskLevel != nil {
		rec.RiskLevel = *patch.RiskLevel
	}
	if patch.OperatorDecision != nil {
		rec.OperatorDecision = *patch.OperatorDecision
	}
}

func cloneRecord(rec *core.ScanRecord) *core.ScanRecord {
	out := *rec
	if rec.TriggeredFeatures != nil {
		out.TriggeredFeatures = append([]string(nil), rec.TriggeredFeatures...)
	}
	if rec.Explainability != nil {
		ex := *rec.Explainability
		out.Explainability = &ex
	}
	return &out
}
