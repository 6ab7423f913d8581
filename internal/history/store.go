// Package history persists completed studies and their per-feature results
// in SQLite so that earlier runs can be listed, reopened and compared per
// element.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/capstudy/internal/models"
)

// ErrStudyNotFound is returned when no stored study matches an id.
var ErrStudyNotFound = errors.New("study not found")

// ErrAmbiguousID is returned when an id prefix matches several studies.
var ErrAmbiguousID = errors.New("study id prefix is ambiguous")

// StudyRecord is a stored study header as shown by listings.
type StudyRecord struct {
	ID                  string
	StartedAt           time.Time
	Duration            time.Duration
	Source              string
	TotalElements       int
	Good                int
	Bad                 int
	SuccessfulAnalyses  int
	FailedAnalyses      int
	NormalityPercentage float64
}

// ElementResult is one stored result of an element across studies.
type ElementResult struct {
	StudyID        string
	StartedAt      time.Time
	Status         string
	Mean           float64
	StdDev         float64
	OutOfSpecCount int
	Cpk            *float64
	Ppk            *float64
}

// Store manages the SQLite history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and
// applies pending migrations. ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry retries a statement with exponential backoff while the
// database reports it is locked.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullableCap(c *models.CapabilityFields, f func(*models.CapabilityFields) float64) interface{} {
	if c == nil {
		return nil
	}
	return f(c)
}

// SaveStudy stores a study and all its feature records in one transaction.
// source records where the inputs came from (file names, "mcp", ...).
func (s *Store) SaveStudy(ctx context.Context, study *models.StudyResult, source string) error {
	if study == nil || study.Summary.StudyID == "" {
		return errors.New("study must have an id")
	}

	summaryJSON, err := json.Marshal(study.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := study.Summary
	_, err = tx.ExecContext(ctx, `INSERT INTO studies
		(id, started_at, duration_ms, source, total_elements, good, bad, successful_analyses, failed_analyses, normality_percentage, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.StudyID, sum.StartedAt.UTC(), sum.Duration.Milliseconds(), source,
		sum.TotalElements, sum.Good, sum.Bad, sum.SuccessfulAnalyses, sum.FailedAnalyses,
		sum.NormalityPercentage, string(summaryJSON))
	if err != nil {
		return fmt.Errorf("insert study: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO feature_results
		(study_id, position, element_id, batch, cavity, status, feature_type, nominal, effective_lower, effective_upper,
		 mean, std_dev, out_of_spec_count, record_json, cp, cpk, pp, ppk, p_value, is_normal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare feature insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range study.Records {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.ElementID, err)
		}
		c := rec.Capability
		var isNormal interface{}
		if c != nil {
			isNormal = c.IsNormal
		}
		_, err = stmt.ExecContext(ctx,
			sum.StudyID, i, rec.ElementID, rec.Batch, rec.Cavity, rec.Status, rec.FeatureType,
			rec.Nominal, rec.EffectiveLowerTolerance, rec.EffectiveUpperTolerance,
			rec.Mean, rec.StdDev, rec.OutOfSpecCount, string(recordJSON),
			nullableCap(c, func(c *models.CapabilityFields) float64 { return c.Cp }),
			nullableCap(c, func(c *models.CapabilityFields) float64 { return c.Cpk }),
			nullableCap(c, func(c *models.CapabilityFields) float64 { return c.Pp }),
			nullableCap(c, func(c *models.CapabilityFields) float64 { return c.Ppk }),
			nullableCap(c, func(c *models.CapabilityFields) float64 { return c.PValue }),
			isNormal)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ElementID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit study: %w", err)
	}
	return nil
}

// ListStudies returns the most recent studies first. limit <= 0 lists all.
func (s *Store) ListStudies(ctx context.Context, limit int) ([]StudyRecord, error) {
	query := `SELECT id, started_at, duration_ms, COALESCE(source, ''), total_elements, good, bad,
		successful_analyses, failed_analyses, normality_percentage
		FROM studies ORDER BY started_at DESC, created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query studies: %w", err)
	}
	defer rows.Close()

	var studies []StudyRecord
	for rows.Next() {
		var r StudyRecord
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &durationMS, &r.Source, &r.TotalElements, &r.Good, &r.Bad,
			&r.SuccessfulAnalyses, &r.FailedAnalyses, &r.NormalityPercentage); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		studies = append(studies, r)
	}
	return studies, rows.Err()
}

// ResolveID expands a unique id prefix to the full study id.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrStudyNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM studies WHERE id = ? OR id LIKE ? || '%' LIMIT 2`, prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("query study id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan study id: %w", err)
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrStudyNotFound, prefix)
	case 1:
		return ids[0], nil
	}
	return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
}

// GetStudy loads a stored study by id or unique id prefix.
func (s *Store) GetStudy(ctx context.Context, idOrPrefix string) (*models.StudyResult, error) {
	id, err := s.ResolveID(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	var summaryJSON string
	err = s.db.QueryRowContext(ctx, `SELECT summary_json FROM studies WHERE id = ?`, id).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query study: %w", err)
	}

	study := &models.StudyResult{}
	if err := json.Unmarshal([]byte(summaryJSON), &study.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM feature_results WHERE study_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec models.OutputRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		study.Records = append(study.Records, rec)
	}
	return study, rows.Err()
}

// ElementHistory returns the stored results of one element across studies,
// newest first. limit <= 0 returns all.
func (s *Store) ElementHistory(ctx context.Context, elementID string, limit int) ([]ElementResult, error) {
	query := `SELECT f.study_id, s.started_at, f.status, f.mean, f.std_dev, f.out_of_spec_count, f.cpk, f.ppk
		FROM feature_results f JOIN studies s ON s.id = f.study_id
		WHERE f.element_id = ?
		ORDER BY s.started_at DESC`
	args := []interface{}{elementID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query element history: %w", err)
	}
	defer rows.Close()

	var results []ElementResult
	for rows.Next() {
		var r ElementResult
		var cpk, ppk sql.NullFloat64
		if err := rows.Scan(&r.StudyID, &r.StartedAt, &r.Status, &r.Mean, &r.StdDev, &r.OutOfSpecCount, &cpk, &ppk); err != nil {
			return nil, fmt.Errorf("scan element result: %w", err)
		}
		if cpk.Valid {
			r.Cpk = &cpk.Float64
		}
		if ppk.Valid {
			r.Ppk = &ppk.Float64
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteStudy removes a study and its records.
func (s *Store) DeleteStudy(ctx context.Context, idOrPrefix string) error {
	id, err := s.ResolveID(ctx, idOrPrefix)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM studies WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete study: %w", err)
	}
	return nil
}
