package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/predictrisk/engine/internal/domain"
)

// FileStore persists the ledger as a single JSON array, newest record first,
// capped at maxRecords. Every mutation rewrites the whole file, matching the
// ledger's replace-the-list contract.
type FileStore struct {
	path       string
	maxRecords int

	mu sync.Mutex
}

var _ domain.BetStore = (*FileStore)(nil)

// NewFileStore creates a file-backed bet store at path. A missing file reads
// as an empty ledger.
func NewFileStore(path string, maxRecords int) *FileStore {
	return &FileStore{path: path, maxRecords: maxRecords}
}

// List returns all records, newest first. A missing or corrupt file yields
// an empty list rather than an error, so a damaged ledger never blocks the
// engine.
func (s *FileStore) List(ctx context.Context) ([]domain.BetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

// Replace rewrites the complete ledger, enforcing the record cap.
func (s *FileStore) Replace(ctx context.Context, bets []domain.BetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(bets) > s.maxRecords {
		bets = bets[:s.maxRecords]
	}

	data, err := json.MarshalIndent(bets, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode: %w", err)
	}

	// write-then-rename so a crash mid-write cannot truncate the ledger
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ledger: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("ledger: rename: %w", err)
	}
	return nil
}

func (s *FileStore) read() []domain.BetRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var bets []domain.BetRecord
	if err := json.Unmarshal(data, &bets); err != nil {
		return nil
	}
	return bets
}
