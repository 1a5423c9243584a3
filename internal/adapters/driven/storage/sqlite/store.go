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

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
)

// DatabaseFileName is the database created inside the data directory.
const DatabaseFileName = "consultations.db"

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed store that provides the consultation log.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.diagnosa/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".diagnosa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection serialises writers; WAL readers never need more here.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
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

// ConsultationLog returns a ConsultationLog backed by this store.
// Closing the log closes the store.
func (s *Store) ConsultationLog() driven.ConsultationLog {
	return &consultationLog{store: s}
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting current version: %w", err)
	}
	return version, nil
}

// migrate runs all pending migrations, each in its own transaction.
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

	currentVersion, err := s.SchemaVersion(context.Background())
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_consultations.up.sql" -> 1
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

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Consultation Log ====================

// consultationLog implements driven.ConsultationLog.
type consultationLog struct {
	store *Store
}

var _ driven.ConsultationLog = (*consultationLog)(nil)

// Record stores a consultation, replacing any earlier record with the same ID.
func (l *consultationLog) Record(ctx context.Context, rec domain.ConsultationRecord) error {
	if rec.ID == "" {
		return domain.ErrInvalidInput
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	facts, err := json.Marshal(orEmptySlice(rec.Facts))
	if err != nil {
		return fmt.Errorf("marshalling facts: %w", err)
	}
	evidence, err := json.Marshal(orEmptyMap(rec.EvidenceCF))
	if err != nil {
		return fmt.Errorf("marshalling evidence: %w", err)
	}
	conclusions := rec.Conclusions
	if conclusions == nil {
		conclusions = []domain.Conclusion{}
	}
	conclusionsJSON, err := json.Marshal(conclusions)
	if err != nil {
		return fmt.Errorf("marshalling conclusions: %w", err)
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO consultations (id, timestamp, phase, facts, evidence_cf, top_diagnosis, top_cf, conclusions, total_iterations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp = excluded.timestamp,
			phase = excluded.phase,
			facts = excluded.facts,
			evidence_cf = excluded.evidence_cf,
			top_diagnosis = excluded.top_diagnosis,
			top_cf = excluded.top_cf,
			conclusions = excluded.conclusions,
			total_iterations = excluded.total_iterations
	`, rec.ID, rec.Timestamp.UTC().Format(timeLayout), rec.Phase, string(facts), string(evidence),
		rec.TopDiagnosis, rec.TopCF, string(conclusionsJSON), rec.TotalIterations)
	if err != nil {
		return fmt.Errorf("saving consultation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM consultation_rules WHERE consultation_id = ?", rec.ID); err != nil {
		return fmt.Errorf("clearing used rules: %w", err)
	}
	for i, ruleID := range rec.UsedRules {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO consultation_rules (consultation_id, position, rule_id) VALUES (?, ?, ?)",
			rec.ID, i, ruleID); err != nil {
			return fmt.Errorf("saving used rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing consultation: %w", err)
	}
	return nil
}

// Get retrieves a consultation by ID.
func (l *consultationLog) Get(ctx context.Context, id string) (*domain.ConsultationRecord, error) {
	row := l.store.db.QueryRowContext(ctx, `
		SELECT id, timestamp, phase, facts, evidence_cf, top_diagnosis, top_cf, conclusions, total_iterations
		FROM consultations WHERE id = ?
	`, id)

	rec, err := scanConsultation(row)
	if err != nil {
		return nil, err
	}
	if rec.UsedRules, err = l.usedRules(ctx, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the most recent consultations, newest first.
func (l *consultationLog) List(ctx context.Context, limit int) ([]domain.ConsultationRecord, error) {
	query := `
		SELECT id, timestamp, phase, facts, evidence_cf, top_diagnosis, top_cf, conclusions, total_iterations
		FROM consultations ORDER BY timestamp DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying consultations: %w", err)
	}
	defer rows.Close()

	records := []domain.ConsultationRecord{}
	for rows.Next() {
		rec, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating consultations: %w", err)
	}
	rows.Close()

	for i := range records {
		used, err := l.usedRules(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].UsedRules = used
	}
	return records, nil
}

// RuleUsage counts rule firings across all consultations.
func (l *consultationLog) RuleUsage(ctx context.Context) (map[string]int, error) {
	rows, err := l.store.db.QueryContext(ctx,
		"SELECT rule_id, COUNT(*) FROM consultation_rules GROUP BY rule_id")
	if err != nil {
		return nil, fmt.Errorf("querying rule usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scanning rule usage: %w", err)
		}
		usage[id] = count
	}
	return usage, rows.Err()
}

// Close closes the underlying store.
func (l *consultationLog) Close() error {
	return l.store.Close()
}

func (l *consultationLog) usedRules(ctx context.Context, id string) ([]string, error) {
	rows, err := l.store.db.QueryContext(ctx,
		"SELECT rule_id FROM consultation_rules WHERE consultation_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("querying used rules: %w", err)
	}
	defer rows.Close()

	used := []string{}
	for rows.Next() {
		var ruleID string
		if err := rows.Scan(&ruleID); err != nil {
			return nil, fmt.Errorf("scanning used rule: %w", err)
		}
		used = append(used, ruleID)
	}
	return used, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConsultation(row scanner) (*domain.ConsultationRecord, error) {
	var rec domain.ConsultationRecord
	var ts, facts, evidence, conclusions string
	if err := row.Scan(&rec.ID, &ts, &rec.Phase, &facts, &evidence,
		&rec.TopDiagnosis, &rec.TopCF, &conclusions, &rec.TotalIterations); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning consultation: %w", err)
	}

	t, err := time.Parse(timeLayout, ts)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}
	rec.Timestamp = t

	if err := json.Unmarshal([]byte(facts), &rec.Facts); err != nil {
		return nil, fmt.Errorf("unmarshaling facts: %w", err)
	}
	if err := json.Unmarshal([]byte(evidence), &rec.EvidenceCF); err != nil {
		return nil, fmt.Errorf("unmarshaling evidence: %w", err)
	}
	if len(rec.EvidenceCF) == 0 {
		rec.EvidenceCF = nil
	}
	if err := json.Unmarshal([]byte(conclusions), &rec.Conclusions); err != nil {
		return nil, fmt.Errorf("unmarshaling conclusions: %w", err)
	}
	return &rec, nil
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
