// Package history reconciles scan history from the local store and the
// backend audit log into one consistent, filterable timeline. Either
// source may fail independently without failing the overall view.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
)

// DefaultRemoteTimeout bounds the audit log fetch so an unreachable
// backend cannot stall a history load.
const DefaultRemoteTimeout = 2500 * time.Millisecond

// DefaultRemoteLimit is the number of audit records requested per load.
const DefaultRemoteLimit = 200

// Filters narrows a history view. Zero values match everything.
type Filters struct {
	// Search is a case-insensitive substring matched against record
	// content and each triggered feature.
	Search string

	// Verdict keeps only records with this verdict; empty or "all"
	// keeps every verdict. Filters compose with AND.
	Verdict string

	// Risk keeps only records with this risk level; empty or "all"
	// keeps every level. Filters compose with AND.
	Risk string
}

// Sources reports per-source reachability for the last load.
type Sources struct {
	LocalOK  bool
	RemoteOK bool
}

// Reduced reports whether the view is missing one source.
func (s Sources) Reduced() bool {
	return s.LocalOK != s.RemoteOK
}

// View is a merged, sorted, filtered history snapshot.
type View struct {
	Records []*core.ScanRecord
	Sources Sources

	// Partial is set when exactly one source failed. Observability
	// only; the view still renders.
	Partial *core.PartialHistoryError
}

// Reconciler merges local scan records with remote audit records.
type Reconciler struct {
	store         core.ScanStore
	audit         core.AuditLog
	logger        *zap.Logger
	remoteTimeout time.Duration
	remoteLimit   int
}

// NewReconciler creates a history reconciler over the two sources.
func NewReconciler(store core.ScanStore, audit core.AuditLog, logger *zap.Logger, remoteTimeout time.Duration, remoteLimit int) *Reconciler {
	if remoteTimeout <= 0 {
		remoteTimeout = DefaultRemoteTimeout
	}
	if remoteLimit <= 0 {
		remoteLimit = DefaultRemoteLimit
	}
	return &Reconciler{
		store:         store,
		audit:         audit,
		logger:        logger,
		remoteTimeout: remoteTimeout,
		remoteLimit:   remoteLimit,
	}
}

// Load fetches both sources concurrently, merges them newest-first, and
// applies filters. One source failing yields a partial view; only when
// both fail is an error returned.
func (r *Reconciler) Load(ctx context.Context, filters Filters) (*View, error) {
	var (
		wg        sync.WaitGroup
		local     []*core.ScanRecord
		localErr  error
		remote    []core.AuditRecord
		remoteErr error
	)

	// Both branches always run to completion; neither failure cancels
	// the other.
	wg.Add(2)
	go func() {
		defer wg.Done()
		local, localErr = r.store.GetAll(ctx)
	}()
	go func() {
		defer wg.Done()
		remoteCtx, cancel := context.WithTimeout(ctx, r.remoteTimeout)
		defer cancel()
		remote, remoteErr = r.audit.Recent(remoteCtx, r.remoteLimit)
	}()
	wg.Wait()

	if localErr != nil && remoteErr != nil {
		return nil, fmt.Errorf("both history sources failed: %w", errors.Join(localErr, remoteErr))
	}

	view := &View{
		Sources: Sources{LocalOK: localErr == nil, RemoteOK: remoteErr == nil},
	}
	if localErr != nil {
		r.logger.Warn("Local history source unavailable", zap.Error(localErr))
		view.Partial = &core.PartialHistoryError{Source: "local", Err: localErr}
	}
	if remoteErr != nil {
		r.logger.Warn("Remote history source unavailable", zap.Error(remoteErr))
		view.Partial = &core.PartialHistoryError{Source: "remote", Err: remoteErr}
	}

	merged := make([]*core.ScanRecord, 0, len(local)+len(remote))
	merged = append(merged, local...)
	for i := range remote {
		merged = append(merged, mapAuditRecord(&remote[i]))
	}

	// Newest first; ties keep their original relative order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	view.Records = applyFilters(merged, filters)
	return view, nil
}

// Update applies an update-merge patch to a local record. Remote-origin
// records are rejected before the store is touched.
func (r *Reconciler) Update(ctx context.Context, id string, patch core.ScanPatch) error {
	if strings.HasPrefix(id, core.RemoteIDPrefix) {
		return &core.ReadOnlyRecordError{ID: id}
	}
	return r.store.Update(ctx, id, patch)
}

// Delete removes a local record. Remote-origin records are rejected
// before the store is touched.
func (r *Reconciler) Delete(ctx context.Context, id string) error {
	if strings.HasPrefix(id, core.RemoteIDPrefix) {
		return &core.ReadOnlyRecordError{ID: id}
	}
	return r.store.Delete(ctx, id)
}

// NewRecordID returns a collision-resistant id for a locally originated
// scan record.
func NewRecordID() string {
	return uuid.New().String()
}

// mapAuditRecord converts a backend audit record into the unified scan
// record shape, marking it read-only via the reserved id prefix.
func mapAuditRecord(rec *core.AuditRecord) *core.ScanRecord {
	features := make([]string, 0, len(rec.Explanations))
	for _, e := range rec.Explanations {
		switch {
		case e.Feature != "":
			features = append(features, e.Feature)
		case e.Reason != "":
			features = append(features, e.Reason)
		}
	}

	messageType := core.MessageEmail
	if rec.Mode == "batch" {
		messageType = core.MessageChat
	}

	out := &core.ScanRecord{
		ID:                fmt.Sprintf("%s%d", core.RemoteIDPrefix, rec.ID),
		Timestamp:         rec.CreatedAt,
		MessageType:       messageType,
		Content:           rec.TextPreview,
		Verdict:           verdictFromAudit(rec.RiskLevel, rec.Confidence),
		Confidence:        rec.Confidence,
		RiskLevel:         riskLevelFromAudit(rec.RiskLevel),
		TriggeredFeatures: features,
		OperatorDecision:  core.DecisionPending,
	}
	if len(rec.HighlightedLines) > 0 || len(rec.ClassPercentages) > 0 {
		out.Explainability = &core.Explainability{
			Explanations:     rec.Explanations,
			HighlightedLines: rec.HighlightedLines,
			ClassPercentages: rec.ClassPercentages,
		}
	}
	return out
}

func verdictFromAudit(risk string, confidence float64) core.Verdict {
	switch strings.ToLower(risk) {
	case "high", "critical":
		return core.VerdictPhishing
	case "medium":
		return core.VerdictSuspicious
	}
	if confidence >= 0.5 {
		return core.VerdictSuspicious
	}
	return core.VerdictSafe
}

func riskLevelFromAudit(risk string) core.RiskLevel {
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

func applyFilters(records []*core.ScanRecord, filters Filters) []*core.ScanRecord {
	verdict := strings.ToLower(filters.Verdict)
	risk := strings.ToLower(filters.Risk)
	search := strings.ToLower(strings.TrimSpace(filters.Search))
	if (verdict == "" || verdict == "all") && (risk == "" || risk == "all") && search == "" {
		return records
	}

	filtered := make([]*core.ScanRecord, 0, len(records))
	for _, rec := range records {
		if verdict != "" && verdict != "all" && string(rec.Verdict) != verdict {
			continue
		}
		if risk != "" && risk != "all" && string(rec.RiskLevel) != risk {
			continue
		}
		if search != "" && !matchesSearch(rec, search) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

func matchesSearch(rec *core.ScanRecord, search string) bool {
	if strings.Contains(strings.ToLower(rec.Content), search) {
		return true
	}
	for _, feature := range rec.TriggeredFeatures {
		if strings.Contains(strings.ToLower(feature), search) {
			return true
		}
	}
	return false
}
