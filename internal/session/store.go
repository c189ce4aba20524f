package session

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

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/casegen/internal/models"
)

// ErrNotFound is returned when no session exists for a work item.
var ErrNotFound = errors.New("session not found")

// Operation names recorded in the run log.
const (
	OperationGenerate = "generate"
	OperationRefine   = "refine"
	OperationCoverage = "coverage"
)

// GenerationRun is one provider-backed operation in the run log.
type GenerationRun struct {
	ID           string
	WorkItemID   int
	Operation    string
	Provider     string
	Model        string
	Attempts     int
	Success      bool
	ErrorMessage string
	Duration     time.Duration
	StartedAt    time.Time
}

// Summary describes a stored session for listings.
type Summary struct {
	WorkItemID  int
	Type        string
	Title       string
	Refinements int
	UpdatedAt   time.Time
}

// Store persists sessions, refinement history and the run log in SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens or creates the database at dbPath. ":memory:" is accepted.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each new connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return s, nil
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

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveState upserts the session row. History entries are persisted
// separately through AppendHistory.
func (s *Store) SaveState(ctx context.Context, st State) error {
	itemJSON, err := json.Marshal(st.WorkItem)
	if err != nil {
		return fmt.Errorf("marshal work item: %w", err)
	}
	messagesJSON, err := marshalList(st.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	coverageJSON, err := marshalNullable(st.Coverage)
	if err != nil {
		return fmt.Errorf("marshal coverage: %w", err)
	}
	criteriaJSON, err := marshalNullable(st.Criteria)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}

	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	query := `INSERT INTO sessions (work_item_id, work_item_json, content, messages, coverage_json, criteria_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(work_item_id) DO UPDATE SET
			work_item_json = excluded.work_item_json,
			content = excluded.content,
			messages = excluded.messages,
			coverage_json = excluded.coverage_json,
			criteria_json = excluded.criteria_json,
			updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, st.WorkItem.ID, string(itemJSON), st.Content,
		messagesJSON, coverageJSON, criteriaJSON, updated); err != nil {
		return fmt.Errorf("save session %d: %w", st.WorkItem.ID, err)
	}
	return nil
}

// LoadState reads the session and its full refinement history.
func (s *Store) LoadState(ctx context.Context, workItemID int) (State, error) {
	var (
		st           State
		itemJSON     string
		messagesJSON string
		coverageJSON sql.NullString
		criteriaJSON sql.NullString
	)
	query := `SELECT work_item_json, content, messages, coverage_json, criteria_json, updated_at
		FROM sessions WHERE work_item_id = ?`
	err := s.db.QueryRowContext(ctx, query, workItemID).Scan(
		&itemJSON, &st.Content, &messagesJSON, &coverageJSON, &criteriaJSON, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, fmt.Errorf("work item %d: %w", workItemID, ErrNotFound)
	}
	if err != nil {
		return State{}, fmt.Errorf("load session %d: %w", workItemID, err)
	}

	if err := json.Unmarshal([]byte(itemJSON), &st.WorkItem); err != nil {
		return State{}, fmt.Errorf("unmarshal work item: %w", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &st.Messages); err != nil {
		return State{}, fmt.Errorf("unmarshal messages: %w", err)
	}
	if coverageJSON.Valid {
		st.Coverage = &models.CoverageMap{}
		if err := json.Unmarshal([]byte(coverageJSON.String), st.Coverage); err != nil {
			return State{}, fmt.Errorf("unmarshal coverage: %w", err)
		}
	}
	if criteriaJSON.Valid {
		if err := json.Unmarshal([]byte(criteriaJSON.String), &st.Criteria); err != nil {
			return State{}, fmt.Errorf("unmarshal criteria: %w", err)
		}
	}

	st.History, err = s.History(ctx, workItemID)
	if err != nil {
		return State{}, err
	}
	return st, nil
}

// AppendHistory stores one refinement history entry.
func (s *Store) AppendHistory(ctx context.Context, e models.RefinementHistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	refs, err := marshalList(e.AttachedImageRefs)
	if err != nil {
		return fmt.Errorf("marshal image refs: %w", err)
	}
	query := `INSERT INTO refinement_history
		(id, work_item_id, instruction, image_refs, change_summary, added, removed, kept, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, e.ID, e.WorkItemID, e.Instruction, refs,
		e.ChangeSummary, e.Added, e.Removed, e.Kept, e.Timestamp); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ClearHistory drops the refinement history of a work item. Regenerating
// from scratch supersedes every earlier refinement.
func (s *Store) ClearHistory(ctx context.Context, workItemID int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refinement_history WHERE work_item_id = ?`, workItemID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// History returns the refinement history of a work item, oldest first.
func (s *Store) History(ctx context.Context, workItemID int) ([]models.RefinementHistoryEntry, error) {
	query := `SELECT id, work_item_id, instruction, image_refs, change_summary, added, removed, kept, timestamp
		FROM refinement_history WHERE work_item_id = ? ORDER BY timestamp ASC, rowid ASC`
	rows, err := s.db.QueryContext(ctx, query, workItemID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.RefinementHistoryEntry
	for rows.Next() {
		var (
			e       models.RefinementHistoryEntry
			refs    string
			summary sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.WorkItemID, &e.Instruction, &refs, &summary,
			&e.Added, &e.Removed, &e.Kept, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.ChangeSummary = summary.String
		if err := json.Unmarshal([]byte(refs), &e.AttachedImageRefs); err != nil {
			return nil, fmt.Errorf("unmarshal image refs: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordRun appends to the run log. A missing ID is generated.
func (s *Store) RecordRun(ctx context.Context, run *GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	query := `INSERT INTO generation_runs
		(id, work_item_id, operation, provider, model, attempts, success, error_message, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, run.ID, run.WorkItemID, run.Operation, run.Provider, run.Model,
		run.Attempts, run.Success, run.ErrorMessage, run.Duration.Milliseconds(), run.StartedAt); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs for a work item, newest first.
// limit <= 0 returns all runs.
func (s *Store) Runs(ctx context.Context, workItemID, limit int) ([]GenerationRun, error) {
	query := `SELECT id, work_item_id, operation, provider, model, attempts, success, error_message, duration_ms, started_at
		FROM generation_runs WHERE work_item_id = ? ORDER BY started_at DESC, rowid DESC`
	args := []any{workItemID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []GenerationRun
	for rows.Next() {
		var (
			r      GenerationRun
			errMsg sql.NullString
			ms     int64
		)
		if err := rows.Scan(&r.ID, &r.WorkItemID, &r.Operation, &r.Provider, &r.Model,
			&r.Attempts, &r.Success, &errMsg, &ms, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ErrorMessage = errMsg.String
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// List returns every stored session, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	query := `SELECT s.work_item_id, s.work_item_json, s.updated_at,
			(SELECT COUNT(*) FROM refinement_history h WHERE h.work_item_id = s.work_item_id)
		FROM sessions s ORDER BY s.updated_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum      Summary
			itemJSON string
			item     models.WorkItem
		)
		if err := rows.Scan(&sum.WorkItemID, &itemJSON, &sum.UpdatedAt, &sum.Refinements); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(itemJSON), &item); err == nil {
			sum.Type = item.Type
			sum.Title = item.Title
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a session with its history and run log.
func (s *Store) Delete(ctx context.Context, workItemID int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"refinement_history", "generation_runs", "sessions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE work_item_id = ?", workItemID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	return string(data), err
}

func marshalNullable(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case *models.CoverageMap:
		if x == nil {
			return sql.NullString{}, nil
		}
	case []models.CriterionCoverage:
		if x == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
