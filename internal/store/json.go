package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/amishk599/autojob/internal/model"
)

// Ensure JSONFileStore implements model.RecordStore.
var _ model.RecordStore = (*JSONFileStore)(nil)

// JSONFileStore keeps job records in a single indented JSON array on disk.
// Every operation reloads the file, so edits made between calls are seen.
//
// The mutex serializes load-modify-store within this process. Writers in
// other processes are not coordinated with.
type JSONFileStore struct {
	mu     sync.Mutex
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// NewJSONFileStore returns a store backed by the JSON file at path. The file
// is created lazily on first access.
func NewJSONFileStore(path string, logger *slog.Logger) *JSONFileStore {
	return &JSONFileStore{
		path:   path,
		now:    time.Now,
		logger: logger,
	}
}

// Path returns the backing file path.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Query returns every record matching any token of tags. It never fails:
// a missing or corrupt file reads as an empty store.
func (s *JSONFileStore) Query(tags string) model.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return runQuery(s.load(), tags)
}

// Save validates in, appends the new record and rewrites the whole file.
// Returns *model.ValidationError for bad input and *model.StorageError when
// the file cannot be written; in both cases the file is left as it was.
func (s *JSONFileStore) Save(in model.RecordInput) (model.JobRecord, error) {
	rec, err := model.NewJobRecord(in, s.now())
	if err != nil {
		return model.JobRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.load(), rec)
	if err := s.write(records); err != nil {
		return model.JobRecord{}, err
	}

	s.logger.Debug("job record saved", "company", rec.Company, "role", rec.Role, "records", len(records), "path", s.path)
	return rec, nil
}

// All returns every stored record in insertion order, content untruncated.
func (s *JSONFileStore) All() []model.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.load())
}

// load reads the file. Absence, read errors and parse errors all yield an
// empty sequence; the latter two are logged since they hide data.
func (s *JSONFileStore) load() []model.JobRecord {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.ensureFile()
		return nil
	}
	if err != nil {
		s.logger.Warn("job store unreadable, treating as empty", "path", s.path, "error", err)
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		s.logger.Warn("job store corrupt, treating as empty", "path", s.path, "error", err)
		return nil
	}

	records := make([]model.JobRecord, 0, len(elems))
	for i, elem := range elems {
		rec, repaired, err := decodeRecord(elem)
		if err != nil {
			s.logger.Warn("job record unreadable, skipping", "path", s.path, "index", i, "error", err)
			continue
		}
		if repaired {
			s.logger.Warn("job record has malformed fields, repaired", "path", s.path, "index", i, "company", rec.Company)
		}
		records = append(records, rec)
	}
	return records
}

// decodeRecord decodes one array element. An object whose fields have the
// wrong JSON types is repaired field by field: non-string scalars keep their
// literal text, non-string tags are dropped, and a tags value that is not an
// array becomes empty. Elements that are not objects are rejected.
func decodeRecord(elem json.RawMessage) (rec model.JobRecord, repaired bool, err error) {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.JobRecord{}, false, errors.New("record is not a JSON object")
	}

	if err := json.Unmarshal(trimmed, &rec); err == nil {
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		return rec, false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return model.JobRecord{}, false, err
	}
	return model.JobRecord{
		Company:  scalarField(fields["company"]),
		Role:     scalarField(fields["role"]),
		Location: scalarField(fields["location"]),
		Salary:   scalarField(fields["salary"]),
		Content:  scalarField(fields["content"]),
		Tags:     tagsField(fields["tags"]),
		Date:     scalarField(fields["date"]),
	}, true, nil
}

func scalarField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

func tagsField(raw json.RawMessage) []string {
	tags := []string{}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return tags
	}
	for _, item := range items {
		var tag string
		if err := json.Unmarshal(item, &tag); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ensureFile creates the backing file as an empty array if it does not exist.
func (s *JSONFileStore) ensureFile() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.logger.Debug("could not create job store directory", "path", s.path, "error", err)
		return
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if !errors.Is(err, fs.ErrExist) {
			s.logger.Debug("could not create job store file", "path", s.path, "error", err)
		}
		return
	}
	defer f.Close()
	if _, err := f.Write([]byte("[]\n")); err != nil {
		s.logger.Debug("could not initialize job store file", "path", s.path, "error", err)
	}
}

// write serializes records and atomically replaces the backing file.
func (s *JSONFileStore) write(records []model.JobRecord) error {
	data, err := encodeRecords(records)
	if err != nil {
		return &model.StorageError{Op: "encode", Path: s.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &model.StorageError{Op: "mkdir", Path: s.path, Err: err}
	}

	// Write to a temp file first so an interrupted write never truncates the store.
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return &model.StorageError{Op: "write", Path: tempPath, Err: err}
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return &model.StorageError{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}

// encodeRecords renders records as two-space indented JSON. HTML characters
// are not escaped; non-ASCII text is written as-is.
func encodeRecords(records []model.JobRecord) ([]byte, error) {
	if records == nil {
		records = []model.JobRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
