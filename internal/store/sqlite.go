package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/autojob/internal/model"
	_ "modernc.org/sqlite"
)

// Ensure SQLiteStore implements model.RecordStore.
var _ model.RecordStore = (*SQLiteStore)(nil)

// SQLiteStore keeps job records in a SQLite table. Insertion order is the
// autoincrement id. Matching is the same linear scan as JSONFileStore.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	openErr error // set when the database file is unusable; db is nil
	now     func() time.Time
	logger  *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// job_records table exists. An unusable database file (not SQLite, wrong
// schema) does not fail the caller: the store reads as empty and every Save
// returns *model.StorageError until the file is repaired.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	s, err := openSQLite(dbPath)
	if err != nil {
		logger.Warn("job store unusable, treating as empty", "path", dbPath, "error", err)
		return &SQLiteStore{path: dbPath, openErr: err, now: time.Now, logger: logger}, nil
	}
	s.logger = logger
	return s, nil
}

func openSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection serializes writers inside this process.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS job_records (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		company  TEXT NOT NULL,
		role     TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		salary   TEXT NOT NULL DEFAULT '',
		content  TEXT NOT NULL DEFAULT '',
		tags     TEXT NOT NULL DEFAULT '[]',
		date     TEXT NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating job_records table: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath, now: time.Now}, nil
}

// Query returns every record matching any token of tags. Read failures are
// logged and reported as an empty store.
func (s *SQLiteStore) Query(tags string) model.QueryResult {
	return runQuery(s.load(), tags)
}

// Save validates in and inserts the new record.
func (s *SQLiteStore) Save(in model.RecordInput) (model.JobRecord, error) {
	rec, err := model.NewJobRecord(in, s.now())
	if err != nil {
		return model.JobRecord{}, err
	}
	if s.openErr != nil {
		return model.JobRecord{}, &model.StorageError{Op: "open", Path: s.path, Err: s.openErr}
	}

	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return model.JobRecord{}, &model.StorageError{Op: "encode", Path: s.path, Err: err}
	}

	_, err = s.db.Exec(
		"INSERT INTO job_records (company, role, location, salary, content, tags, date) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.Company, rec.Role, rec.Location, rec.Salary, rec.Content, string(tags), rec.Date,
	)
	if err != nil {
		return model.JobRecord{}, &model.StorageError{Op: "insert", Path: s.path, Err: err}
	}

	s.logger.Debug("job record saved", "company", rec.Company, "role", rec.Role, "path", s.path)
	return rec, nil
}

// All returns every stored record in insertion order.
func (s *SQLiteStore) All() []model.JobRecord {
	return s.load()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) load() []model.JobRecord {
	if s.db == nil {
		return nil
	}
	rows, err := s.db.Query("SELECT company, role, location, salary, content, tags, date FROM job_records ORDER BY id")
	if err != nil {
		s.logger.Warn("job store unreadable, treating as empty", "path", s.path, "error", err)
		return nil
	}
	defer rows.Close()

	var records []model.JobRecord
	for rows.Next() {
		var rec model.JobRecord
		var rawTags string
		if err := rows.Scan(&rec.Company, &rec.Role, &rec.Location, &rec.Salary, &rec.Content, &rawTags, &rec.Date); err != nil {
			s.logger.Warn("job store row unreadable, treating as empty", "path", s.path, "error", err)
			return nil
		}
		if err := json.Unmarshal([]byte(rawTags), &rec.Tags); err != nil {
			s.logger.Warn("job record tags corrupt", "company", rec.Company, "role", rec.Role, "error", err)
			rec.Tags = nil
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("job store unreadable, treating as empty", "path", s.path, "error", err)
		return nil
	}
	return records
}
