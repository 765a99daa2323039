package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/screenveil/screenveil/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.SQLiteDriver{}

const journalDBName = "violations.db"

// EncryptedJournal implements domain.ViolationJournal using a SQLCipher
// encrypted SQLite database. It is the reference violation-reporting
// collaborator: violation records may contain timing patterns worth
// protecting at rest.
type EncryptedJournal struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedJournal opens (or creates) an encrypted journal database.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedJournal(dataDir string, key []byte) (*EncryptedJournal, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, journalDBName)
	keyHex := hex.EncodeToString(key)

	// Open with SQLCipher key as DSN parameter
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Verify encryption works by running a query
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	j := &EncryptedJournal{
		db:     db,
		dbPath: dbPath,
	}

	if err := j.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return j, nil
}

// createTables creates the schema if it doesn't exist.
func (j *EncryptedJournal) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS violations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		state TEXT NOT NULL,
		occurred_at INTEGER NOT NULL
	);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends one violation event.
func (j *EncryptedJournal) Record(ev domain.ViolationEvent) error {
	_, err := j.db.Exec(
		`INSERT INTO violations (kind, state, occurred_at) VALUES (?, ?, ?)`,
		string(ev.Kind), ev.State.String(), ev.OccurredAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record violation: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *EncryptedJournal) Recent(limit int) ([]domain.ViolationEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(
		`SELECT kind, state, occurred_at FROM violations ORDER BY occurred_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	var events []domain.ViolationEvent
	for rows.Next() {
		var kind, state string
		var occurredAt int64
		if err := rows.Scan(&kind, &state, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		events = append(events, domain.ViolationEvent{
			Kind:       domain.ViolationKind(kind),
			State:      parseState(state),
			OccurredAt: time.UnixMilli(occurredAt),
		})
	}
	return events, rows.Err()
}

// Close releases the database connection.
func (j *EncryptedJournal) Close() error {
	return j.db.Close()
}

// JournalPath returns the database file path (for tests and status).
func (j *EncryptedJournal) JournalPath() string {
	return j.dbPath
}

func parseState(s string) domain.CaptureState {
	switch s {
	case domain.StateRecording.String():
		return domain.StateRecording
	case domain.StateScreenshotTaken.String():
		return domain.StateScreenshotTaken
	default:
		return domain.StateIdle
	}
}

// Ensure EncryptedJournal implements domain.ViolationJournal.
var _ domain.ViolationJournal = (*EncryptedJournal)(nil)
