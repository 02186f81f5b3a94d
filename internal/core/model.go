package core

import (
	"strings"
	"time"
)

// Verdict is the three-way classification outcome for a scanned message.
type Verdict string

const (
	VerdictSafe       Verdict = "safe"
	VerdictSuspicious Verdict = "suspicious"
	VerdictPhishing   Verdict = "phishing"
)

// RiskLevel is the four-level severity tier attached to a verdict.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// MessageType identifies where a scanned message came from.
type MessageType string

const (
	MessageEmail MessageType = "email"
	MessageSMS   MessageType = "sms"
	MessageChat  MessageType = "chat"
	MessageFile  MessageType = "file"
)

// OperatorDecision records how an operator triaged a scan.
type OperatorDecision string

const (
	DecisionPending       OperatorDecision = "pending"
	DecisionIncident      OperatorDecision = "incident"
	DecisionFalsePositive OperatorDecision = "false-positive"
)

// RemoteIDPrefix marks scan records that originate from the backend audit
// log. Records carrying this prefix are read-only for local consumers.
const RemoteIDPrefix = "api-"

// FeatureFinding is a per-category detection produced by a single scan.
type FeatureFinding struct {
	Name                string
	Detected            bool
	Severity            float64
	Reason              string
	ContributionPercent float64
}

// HighlightedLine points at a line of the scanned message that triggered
// one or more indicator categories.
type HighlightedLine struct {
	LineNumber int      `json:"line_number"`
	LineText   string   `json:"line"`
	Indicators []string `json:"indicators"`
}

// ClassificationResult is the unified output of both classification paths.
// Instances are immutable once returned.
type ClassificationResult struct {
	Prediction        Verdict
	Confidence        float64
	RiskLevel         RiskLevel
	TriggeredFeatures []FeatureFinding
	Explanation       string
	HighlightedLines  []HighlightedLine
	ClassPercentages  map[Verdict]float64
}

// ExplanationValueScale converts a feature severity in [0,1] to the
// 0-10 scale the backend uses for ExplanationEntry.Value. Locally
// produced entries apply the same scale so both origins compare.
const ExplanationValueScale = 10

// ExplanationEntry is a structured justification for a feature's
// contribution to a verdict.
type ExplanationEntry struct {
	Feature             string  `json:"feature"`
	Value               float64 `json:"value"`
	Reason              string  `json:"reason"`
	ContributionPercent float64 `json:"contribution_percent"`
}

// BatchItem is the per-message entry of a BatchResult. Err is set when the
// message at this index failed to classify; the rest of the batch is
// unaffected.
type BatchItem struct {
	TextPreview      string
	IsPhishing       bool
	Confidence       float64
	RiskLevel        RiskLevel
	Explanations     []ExplanationEntry
	HighlightedLines []HighlightedLine
	ClassPercentages map[Verdict]float64
	Err              string
}

// BatchResult holds per-message results in input order.
// TotalScanned always equals len(Results).
type BatchResult struct {
	Results      []BatchItem
	TotalScanned int
}

// Explainability is the optional evidence block embedded in a ScanRecord.
type Explainability struct {
	Explanations     []ExplanationEntry  `json:"explanations"`
	HighlightedLines []HighlightedLine   `json:"highlighted_lines"`
	ClassPercentages map[Verdict]float64 `json:"class_percentages"`
}

// ScanRecord is the persisted or retrieved unit of scan history.
type ScanRecord struct {
	ID                string
	Timestamp         time.Time
	MessageType       MessageType
	Content           string
	Verdict           Verdict
	Confidence        float64
	RiskLevel         RiskLevel
	TriggeredFeatures []string
	OperatorDecision  OperatorDecision
	Explainability    *Explainability
}

// ReadOnly reports whether the record originates from the backend audit
// log and must not be mutated or deleted locally.
func (r *ScanRecord) ReadOnly() bool {
	return strings.HasPrefix(r.ID, RemoteIDPrefix)
}

// ScanPatch is an update-merge patch for a local scan record. Nil fields
// are left untouched so a partial update never loses data.
type ScanPatch struct {
	Verdict          *Verdict
	Confidence       *float64
	RiskLevel        *RiskLevel
	OperatorDecision *OperatorDecision
}

// AuditRecord is one entry of the backend audit log, as returned by the
// remote history endpoint.
type AuditRecord struct {
	ID               int64
	CreatedAt        time.Time
	Mode             string
	TextPreview      string
	RiskLevel        string
	Confidence       float64
	Explanations     []ExplanationEntry
	HighlightedLines []HighlightedLine
	ClassPercentages map[Verdict]float64
}

// HealthStatus reports the remote service's model and ruleset load state.
// Display only; classification never gates on it.
type HealthStatus struct {
	Status           string
	ModelLoaded      bool
	VectorizerLoaded bool
	Version          string
	LastUpdated      *time.Time
}
