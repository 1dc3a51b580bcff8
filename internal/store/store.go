// Package store persists analysis results as a single JSON document:
// one indent-formatted array holding every record ever produced, in
// order. The store is the only writer of that document.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// PersistenceError reports an I/O failure reading or writing the result
// document. Fatal for the triggering request, not for the service.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("result store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// AnalysisRecord is one analysis of one asset. AssetID always refers to
// an asset that was ready when the record was created. Timestamp is unix
// seconds.
type AnalysisRecord struct {
	ID        string `json:"id"`
	CameraID  string `json:"cameraId"`
	AssetID   string `json:"assetId"`
	Analysis  string `json:"analysis"`
	Timestamp int64  `json:"timestamp"`
}

// Store serializes all access to the backing document. Append is a
// read-modify-write; without the lock two concurrent appends would lose
// one record.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// ReadAll returns the full ordered collection. An absent document reads
// as an empty collection, not an error.
func (s *Store) ReadAll() ([]AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Append adds one record to the end of the collection.
func (s *Store) Append(record AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	records = append(records, record)
	return s.write(records)
}

// ReplaceAll overwrites the document with a new collection. The sweep
// flow uses this: its results are the new authoritative set.
func (s *Store) ReplaceAll(records []AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(records)
}

func (s *Store) read() ([]AnalysisRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []AnalysisRecord{}, nil
		}
		return nil, &PersistenceError{Op: "read document", Err: err}
	}

	var records []AnalysisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &PersistenceError{Op: "parse document", Err: err}
	}
	return records, nil
}

func (s *Store) write(records []AnalysisRecord) error {
	if records == nil {
		records = []AnalysisRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode document", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &PersistenceError{Op: "create data dir", Err: err}
	}

	// Write-then-rename keeps readers from ever seeing a torn document.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &PersistenceError{Op: "write document", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &PersistenceError{Op: "replace document", Err: err}
	}

	if s.logger != nil {
		s.logger.Debug("result document written", "path", s.path, "records", len(records))
	}
	return nil
}
