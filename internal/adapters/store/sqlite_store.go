package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
)

// SQLiteStore is a SQLite implementation of the ScanStore interface.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed initializes) a SQLite scan store.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			message_type TEXT NOT NULL,
			content TEXT NOT NULL,
			verdict TEXT NOT NULL,
			confidence REAL NOT NULL,
			risk_level TEXT NOT NULL,
			triggered_features TEXT NOT NULL,
			operator_decision TEXT NOT NULL DEFAULT 'pending',
			explainability TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create scans table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Add persists a new scan record.
func (s *SQLiteStore) Add(ctx context.Context, rec *core.ScanRecord) error {
	features, err := encodeFeatures(rec.TriggeredFeatures)
	if err != nil {
		return &core.StoreError{Op: "add", Err: err}
	}
	explainability, err := encodeExplainability(rec.Explainability)
	if err != nil {
		return &core.StoreError{Op: "add", Err: err}
	}

	decision := rec.OperatorDecision
	if decision == "" {
		decision = core.DecisionPending
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scans (id, created_at, message_type, content, verdict, confidence, risk_level, triggered_features, operator_decision, explainability)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Timestamp.UTC().Format(time.RFC3339Nano), string(rec.MessageType), rec.Content,
		string(rec.Verdict), rec.Confidence, string(rec.RiskLevel), features, string(decision), explainability)
	if err != nil {
		return &core.StoreError{Op: "add", Err: err}
	}
	return nil
}

// GetAll returns every stored scan record, newest first.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]*core.ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, message_type, content, verdict, confidence, risk_level, triggered_features, operator_decision, explainability
		FROM scans
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, &core.StoreError{Op: "get-all", Err: err}
	}
	defer rows.Close()

	var records []*core.ScanRecord
	for rows.Next() {
		rec, err := s.scanRow(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "get-all", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "get-all", Err: err}
	}
	return records, nil
}

// Update reads the existing record, merges the patch, and writes the full
// row back so no field is ever partially lost.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch core.ScanPatch) error {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, message_type, content, verdict, confidence, risk_level, triggered_features, operator_decision, explainability
		FROM scans
		WHERE id = ?
	`, id)
	rec, err := s.scanRow(row)
	if err == sql.ErrNoRows {
		return &core.StoreError{Op: "update", Err: fmt.Errorf("record %q not found", id)}
	}
	if err != nil {
		return &core.StoreError{Op: "update", Err: err}
	}

	applyPatch(rec, patch)

	features, err := encodeFeatures(rec.TriggeredFeatures)
	if err != nil {
		return &core.StoreError{Op: "update", Err: err}
	}
	explainability, err := encodeExplainability(rec.Explainability)
	if err != nil {
		return &core.StoreError{Op: "update", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE scans
		SET verdict = ?, confidence = ?, risk_level = ?, triggered_features = ?, operator_decision = ?, explainability = ?
		WHERE id = ?
	`, string(rec.Verdict), rec.Confidence, string(rec.RiskLevel), features, string(rec.OperatorDecision), explainability, id)
	if err != nil {
		return &core.StoreError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes a record. Deleting a missing record is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return &core.StoreError{Op: "delete", Err: err}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanRow(row rowScanner) (*core.ScanRecord, error) {
	var (
		rec            core.ScanRecord
		createdAt      string
		messageType    string
		verdict        string
		riskLevel      string
		features       string
		decision       string
		explainability *string
	)
	err := row.Scan(&rec.ID, &createdAt, &messageType, &rec.Content, &verdict,
		&rec.Confidence, &riskLevel, &features, &decision, &explainability)
	if err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	rec.Timestamp = ts
	rec.MessageType = core.MessageType(messageType)
	rec.Verdict = core.Verdict(verdict)
	rec.RiskLevel = core.RiskLevel(riskLevel)
	rec.OperatorDecision = core.OperatorDecision(decision)

	if rec.TriggeredFeatures, err = decodeFeatures(features); err != nil {
		return nil, err
	}
	if rec.Explainability, err = decodeExplainability(explainability); err != nil {
		return nil, err
	}
	return &rec, nil
}
