package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/askedlabs/asked-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Store is the SQLite-backed persistence layer. It holds the subject
// registry and the metadata half of the dual-store index in a single
// database file; the vector half lives in per-subject flat files next
// to it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.asked/data/asked.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".asked", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "asked.db")

	// WAL mode for better concurrency across parallel subject ingestions.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RegistryStore returns a RegistryStore interface backed by this store.
func (s *Store) RegistryStore() driven.RegistryStore {
	return &registryStore{store: s}
}

// MetadataStore returns a MetadataStore interface backed by this store.
func (s *Store) MetadataStore() driven.MetadataStore {
	return &metadataStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Registry Store ====================

// registryStore implements driven.RegistryStore.
type registryStore struct {
	store *Store
}

var _ driven.RegistryStore = (*registryStore)(nil)

// Get retrieves the registry entry for a subject.
func (s *registryStore) Get(ctx context.Context, subject string) (*domain.RegistryEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT subject, video_count, audio_count, article_count, question_count, last_indexed_at
		FROM subjects WHERE slug = ?
	`, domain.Slug(subject))

	return scanRegistryEntry(row)
}

// Upsert creates or additively updates a subject's entry. Counts are
// deltas applied on top of what is already recorded.
func (s *registryStore) Upsert(ctx context.Context, subject string, sources domain.SourceCounts, questions int, now time.Time) (*domain.RegistryEntry, error) {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO subjects (slug, subject, video_count, audio_count, article_count, question_count, last_indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			video_count = video_count + excluded.video_count,
			audio_count = audio_count + excluded.audio_count,
			article_count = article_count + excluded.article_count,
			question_count = question_count + excluded.question_count,
			last_indexed_at = excluded.last_indexed_at
	`, domain.Slug(subject), subject, sources.Video, sources.Audio, sources.Article,
		questions, now.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return nil, fmt.Errorf("upserting subject: %w", err)
	}

	return s.Get(ctx, subject)
}

// List returns all registry entries.
func (s *registryStore) List(ctx context.Context) ([]domain.RegistryEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT subject, video_count, audio_count, article_count, question_count, last_indexed_at
		FROM subjects ORDER BY subject
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subjects: %w", err)
	}
	defer rows.Close()

	var entries []domain.RegistryEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanRegistryEntryRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subjects: %w", err)
	}

	return entries, nil
}

// Reset removes a subject's entry.
func (s *registryStore) Reset(ctx context.Context, subject string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM subjects WHERE slug = ?", domain.Slug(subject))
	if err != nil {
		return fmt.Errorf("resetting subject: %w", err)
	}
	return nil
}

// ==================== Metadata Store ====================

// metadataStore implements driven.MetadataStore.
type metadataStore struct {
	store *Store
}

var _ driven.MetadataStore = (*metadataStore)(nil)

// Put stores a record under the given id. Re-putting the same record
// under the same id is the idempotent retry path; a different record
// under an existing id is an error.
func (s *metadataStore) Put(ctx context.Context, subject string, id int64, record domain.QuestionRecord) error {
	slug := domain.Slug(subject)

	var existing string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT text FROM questions WHERE subject_slug = ? AND id = ?", slug, id).Scan(&existing)
	switch {
	case err == nil:
		if existing != record.Text {
			return fmt.Errorf("%w: id %d already holds a different record", domain.ErrInvalidInput, id)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking existing record: %w", err)
	}

	sourcesJSON, err := json.Marshal(record.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO questions (subject_slug, id, subject, text, sources, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, slug, id, record.Subject, record.Text, string(sourcesJSON),
		record.CapturedAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("saving question: %w", err)
	}
	return nil
}

// Get retrieves the record for an id.
func (s *metadataStore) Get(ctx context.Context, subject string, id int64) (*domain.QuestionRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, subject, text, sources, captured_at
		FROM questions WHERE subject_slug = ? AND id = ?
	`, domain.Slug(subject), id)

	return scanQuestion(row)
}

// GetBatch retrieves records for multiple ids, preserving input order.
// Missing ids yield nil entries.
func (s *metadataStore) GetBatch(ctx context.Context, subject string, ids []int64) ([]*domain.QuestionRecord, error) {
	out := make([]*domain.QuestionRecord, len(ids))
	for i, id := range ids {
		record, err := s.Get(ctx, subject, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[i] = record
	}
	return out, nil
}

// Count returns the number of records stored for a subject.
func (s *metadataStore) Count(ctx context.Context, subject string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM questions WHERE subject_slug = ?", domain.Slug(subject)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return count, nil
}

// PruneAbove removes records with id >= minID, returning the number
// removed. Recovery path for metadata rows orphaned by a crash before
// the matching vector flush.
func (s *metadataStore) PruneAbove(ctx context.Context, subject string, minID int64) (int, error) {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM questions WHERE subject_slug = ? AND id >= ?", domain.Slug(subject), minID)
	if err != nil {
		return 0, fmt.Errorf("pruning orphaned questions: %w", err)
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning orphaned questions: %w", err)
	}
	return int(pruned), nil
}

// Reset removes all records for a subject.
func (s *metadataStore) Reset(ctx context.Context, subject string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM questions WHERE subject_slug = ?", domain.Slug(subject))
	if err != nil {
		return fmt.Errorf("resetting questions: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistryEntry(row *sql.Row) (*domain.RegistryEntry, error) {
	entry, err := scanRegistryFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return entry, err
}

func scanRegistryEntryRows(rows *sql.Rows) (*domain.RegistryEntry, error) {
	return scanRegistryFields(rows)
}

func scanRegistryFields(row rowScanner) (*domain.RegistryEntry, error) {
	var entry domain.RegistryEntry
	var lastIndexedAt string

	if err := row.Scan(&entry.Subject, &entry.SourceCounts.Video, &entry.SourceCounts.Audio,
		&entry.SourceCounts.Article, &entry.QuestionCount, &lastIndexedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryCorrupt, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, lastIndexedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad last_indexed_at %q", domain.ErrRegistryCorrupt, lastIndexedAt)
	}
	entry.LastIndexedAt = ts

	if entry.QuestionCount > 0 {
		entry.Status = domain.StatusIndexed
	} else {
		entry.Status = domain.StatusEmpty
	}

	return &entry, nil
}

func scanQuestion(row *sql.Row) (*domain.QuestionRecord, error) {
	var record domain.QuestionRecord
	var sourcesJSON, capturedAt string

	if err := row.Scan(&record.ID, &record.Subject, &record.Text, &sourcesJSON, &capturedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning question: %w", err)
	}

	if err := json.Unmarshal([]byte(sourcesJSON), &record.Sources); err != nil {
		return nil, fmt.Errorf("unmarshaling sources: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing captured_at: %w", err)
	}
	record.CapturedAt = ts

	return &record, nil
}
