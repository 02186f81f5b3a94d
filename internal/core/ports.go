package core

import (
	"context"
)

// Classifier classifies a single free-text message.
type Classifier interface {
	Classify(ctx context.Context, content string) (*ClassificationResult, error)
}

// RemoteClassifier is the external classification service. All methods
// fail with ServiceUnavailableError when the service cannot be reached or
// returns a malformed payload; no method retries internally.
type RemoteClassifier interface {
	Classifier

	// ClassifyBatch classifies texts in one remote call, preserving order.
	ClassifyBatch(ctx context.Context, texts []string) (*BatchResult, error)

	// Health probes the service's model and ruleset load status.
	Health(ctx context.Context) (*HealthStatus, error)
}

// ScanStore is the local durable store for scan records.
type ScanStore interface {
	// Add persists a new scan record.
	Add(ctx context.Context, rec *ScanRecord) error

	// GetAll returns every stored scan record.
	GetAll(ctx context.Context) ([]*ScanRecord, error)

	// Update applies an update-merge patch to an existing record.
	Update(ctx context.Context, id string, patch ScanPatch) error

	// Delete removes a record.
	Delete(ctx context.Context, id string) error
}

// AuditLog is the remote backend audit log, fetch-only.
type AuditLog interface {
	// Recent returns up to limit audit records, newest first.
	Recent(ctx context.Context, limit int) ([]AuditRecord, error)
}
