// Package history keeps the most recent analysis results for the
// presentation layer. The store caps retained entries and treats a
// corrupted state file as empty rather than failing; history is a
// convenience, never a source of truth.
package history

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go-chart-analyzer/internal/logger"
	"go-chart-analyzer/internal/pipeline"

	"github.com/google/uuid"
)

// MaxEntries is the retention cap; the least recent entry is evicted first.
const MaxEntries = 10

// Entry is one recorded analysis. The annotated image is dropped from the
// stored copy to keep the state file small.
type Entry struct {
	ID        string                  `json:"id"`
	Timestamp time.Time               `json:"timestamp"`
	Result    pipeline.AnalysisResult `json:"result"`
}

// Store is a file-backed, capped history of analysis results.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// NewStore loads the history file at path. A missing or unreadable file
// resets the store to empty.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.entries = load(path)
	return s
}

func load(path string) []Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.WithError(err).Warn("history file is corrupted, resetting to empty")
		return nil
	}
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}
	return entries
}

// Add records a result, evicting the oldest entry beyond the cap, and
// returns the stored entry.
func (s *Store) Add(result pipeline.AnalysisResult) Entry {
	stored := result
	stored.AnnotatedImage = ""

	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Result:    stored,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[len(s.entries)-MaxEntries:]
	}
	s.persist()
	return entry
}

// List returns entries newest first.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e
	}
	return out
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.persist()
}

// persist writes the state file. Failures are logged and otherwise
// ignored; the in-memory copy stays authoritative for this process.
func (s *Store) persist() {
	data, err := json.Marshal(s.entries)
	if err != nil {
		logger.WithError(err).Warn("failed to encode history")
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		logger.WithError(err).Warn("failed to write history file")
	}
}
