package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is a filesystem-backed, content-addressable artifact store.
// Layout:
//
//	<base>/
//	  objects/
//	    ab/
//	      cd1234... (first 2 chars = subdir, rest = filename)
//	  refs/
//	    runs/
//	      <run-id>.json (published bundle records)
type Store struct {
	basePath string
	mu       sync.RWMutex
}

// Record is one published artifact under a run ref.
type Record struct {
	Bundle      string    `json:"bundle"`
	Hash        string    `json:"hash"`
	Size        int64     `json:"size"`
	PublishedAt time.Time `json:"published_at"`
}

// NewStore creates the store directory structure.
func NewStore(basePath string) (*Store, error) {
	dirs := []string{
		filepath.Join(basePath, "objects"),
		filepath.Join(basePath, "refs", "runs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &Store{basePath: basePath}, nil
}

// Publish stores the built bundle's bytes and records it under the run
// ref. Returns the content hash.
func (s *Store) Publish(ctx context.Context, runID string, built Built) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash, err := s.writeObject(built.Path)
	if err != nil {
		return "", fmt.Errorf("store object: %w", err)
	}

	records, err := s.readRunRecords(runID)
	if err != nil {
		return "", err
	}
	records = append(records, Record{
		Bundle:      built.Name,
		Hash:        hash,
		Size:        built.Size,
		PublishedAt: time.Now().UTC(),
	})
	if err := s.writeRunRecords(runID, records); err != nil {
		return "", err
	}
	return hash, nil
}

// RunRecords returns all artifacts published under a run.
func (s *Store) RunRecords(runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readRunRecords(runID)
}

// ObjectPath returns the on-disk path of a stored object.
func (s *Store) ObjectPath(hash string) string {
	return filepath.Join(s.basePath, "objects", hash[:2], hash[2:])
}

// writeObject hashes the file and copies it into the object layout.
// Existing objects are left untouched (content-addressed dedupe).
func (s *Store) writeObject(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	hash := hex.EncodeToString(h.Sum(nil))

	objectPath := s.ObjectPath(hash)
	if _, err := os.Stat(objectPath); err == nil {
		return hash, nil
	}
	if err := os.MkdirAll(filepath.Dir(objectPath), 0o750); err != nil {
		return "", err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	tmp := objectPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, f); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return hash, os.Rename(tmp, objectPath)
}

func (s *Store) runRefPath(runID string) string {
	return filepath.Join(s.basePath, "refs", "runs", runID+".json")
}

func (s *Store) readRunRecords(runID string) ([]Record, error) {
	data, err := os.ReadFile(s.runRefPath(runID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode run ref %s: %w", runID, err)
	}
	return records, nil
}

func (s *Store) writeRunRecords(runID string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.runRefPath(runID), data, 0o640)
}
