package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
)

// FileStore keeps credential records as a JSON array snapshot on disk.
// Appends read the whole file and rewrite it; mu allows one writer at a time.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed record store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ ports.RecordStore = (*FileStore)(nil)

// Append adds record to the end of the snapshot
func (s *FileStore) Append(ctx context.Context, record core.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return s.write(data)
}

// List returns every stored record in append order
func (s *FileStore) List(ctx context.Context) ([]core.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

func (s *FileStore) read() ([]core.CredentialRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []core.CredentialRecord{}, nil
		}
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var records []core.CredentialRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records file: %w", err)
	}
	return records, nil
}

// write replaces the snapshot through a temp file so a failed write never
// truncates existing records
func (s *FileStore) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create records dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("create temp records file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp records file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp records file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace records file: %w", err)
	}
	return nil
}
