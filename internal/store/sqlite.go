package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/storyforge/storyforge/internal/domain"
)

// SQLiteStore implements Store on SQLite. It is the durable-storage
// collaborator behind the same contract MemoryStore defines.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, now: time.Now}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// NewInMemorySQLiteStore creates an in-memory SQLite store (for testing).
func NewInMemorySQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStore(":memory:")
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(initialMigration)
	if err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

const initialMigration = `
CREATE TABLE IF NOT EXISTS stories (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    definition_of_done TEXT NOT NULL DEFAULT '',
    invest_independent INTEGER NOT NULL DEFAULT 0,
    invest_negotiable INTEGER NOT NULL DEFAULT 0,
    invest_valuable INTEGER NOT NULL DEFAULT 0,
    invest_estimable INTEGER NOT NULL DEFAULT 0,
    invest_small INTEGER NOT NULL DEFAULT 0,
    invest_testable INTEGER NOT NULL DEFAULT 0,
    acceptance_criteria TEXT NOT NULL DEFAULT '[]',
    test_status TEXT NOT NULL DEFAULT 'not_tested',
    created_at TEXT NOT NULL,
    updated_at TEXT,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stories_position ON stories(position);
CREATE INDEX IF NOT EXISTS idx_stories_test_status ON stories(test_status);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert stores a new story, assigning an identifier when missing.
func (s *SQLiteStore) Insert(ctx context.Context, story domain.UserStory) (domain.UserStory, error) {
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	if story.TestStatus == "" {
		story.TestStatus = domain.StatusNotTested
	}
	story.CreatedAt = s.now()
	story.UpdatedAt = nil

	criteria, err := json.Marshal(story.AcceptanceCriteria)
	if err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to encode acceptance criteria: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories WHERE id = ?", story.ID).Scan(&exists)
	if err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to check identifier: %w", err)
	}
	if exists > 0 {
		return domain.UserStory{}, ErrDuplicateID
	}

	var position int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), 0) + 1 FROM stories").Scan(&position); err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to compute position: %w", err)
	}

	flags := story.InvestCriteria.Flags()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO stories (id, title, description, definition_of_done,
			invest_independent, invest_negotiable, invest_valuable,
			invest_estimable, invest_small, invest_testable,
			acceptance_criteria, test_status, created_at, updated_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		story.ID,
		story.Title,
		story.Description,
		story.DefinitionOfDone,
		flags[0], flags[1], flags[2], flags[3], flags[4], flags[5],
		string(criteria),
		string(story.TestStatus),
		story.CreatedAt.Format(time.RFC3339Nano),
		nil,
		position,
	)
	if err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to insert story: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return story, nil
}

// Get returns the story with the given identifier.
func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.UserStory, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM stories WHERE id = ?", id)
	story, err := scanStory(row)
	if err != nil {
		return domain.UserStory{}, err
	}
	return story, nil
}

// UpdateTestStatus sets the story's test status and refreshes
// updated_at.
func (s *SQLiteStore) UpdateTestStatus(ctx context.Context, id string, status domain.TestStatus) (domain.UserStory, error) {
	updated := s.now()
	res, err := s.db.ExecContext(ctx,
		"UPDATE stories SET test_status = ?, updated_at = ? WHERE id = ?",
		string(status), updated.Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to update test status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.UserStory{}, err
	}
	if affected == 0 {
		return domain.UserStory{}, ErrNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes the story permanently.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM stories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all stories in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.UserStory, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" FROM stories ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query stories: %w", err)
	}
	defer rows.Close()

	stories := make([]domain.UserStory, 0)
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// Count returns the number of stored stories.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories").Scan(&count)
	return count, err
}

const selectColumns = `SELECT id, title, description, definition_of_done,
	invest_independent, invest_negotiable, invest_valuable,
	invest_estimable, invest_small, invest_testable,
	acceptance_criteria, test_status, created_at, updated_at`

// scanner abstracts sql.Row and sql.Rows for scanStory.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (domain.UserStory, error) {
	var story domain.UserStory
	var criteria string
	var status, createdAt string
	var updatedAt sql.NullString

	err := row.Scan(
		&story.ID,
		&story.Title,
		&story.Description,
		&story.DefinitionOfDone,
		&story.InvestCriteria.Independent,
		&story.InvestCriteria.Negotiable,
		&story.InvestCriteria.Valuable,
		&story.InvestCriteria.Estimable,
		&story.InvestCriteria.Small,
		&story.InvestCriteria.Testable,
		&criteria,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.UserStory{}, ErrNotFound
		}
		return domain.UserStory{}, err
	}

	if err := json.Unmarshal([]byte(criteria), &story.AcceptanceCriteria); err != nil {
		return domain.UserStory{}, fmt.Errorf("failed to decode acceptance criteria: %w", err)
	}

	story.TestStatus = domain.TestStatus(status)
	story.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if updatedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, updatedAt.String)
		story.UpdatedAt = &t
	}

	return story, nil
}

// DatabasePath returns the default database path under dataDir.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "storyforge.db")
}
