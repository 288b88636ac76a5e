package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"school_points_bot/internal/domain/ledger"

	"github.com/sirupsen/logrus"
)

const backupTimestampLayout = "20060102-150405"

// seedStudents is written out the first time the bot starts against a path
// with no data file, so a fresh deployment has something to demo with.
var seedStudents = []*ledger.Student{
	{ID: "1", FullName: "Богдан Кокушко", PIN: "1111", Class: "7-А", Age: 13, Year: 2, Points: 25},
	{ID: "2", FullName: "Данило Шутяк", PIN: "2222", Class: "7-А", Age: 13, Year: 2, Points: 40},
	{ID: "3", FullName: "Захар Дідун", PIN: "3333", Class: "7-Б", Age: 13, Year: 2, Points: 15},
}

// JSONFileStore persists the ledger document as a single JSON file, the
// format shared with the dashboard process. A mutex serializes every
// load-mutate-save cycle within this process; there is no cross-process
// lock on the file, which keeps the original last-writer-wins contract.
type JSONFileStore struct {
	path   string
	mu     sync.Mutex
	logger *logrus.Entry
}

func NewJSONFileStore(path string, logger *logrus.Entry) *JSONFileStore {
	return &JSONFileStore{
		path:   path,
		logger: logger.WithField("component", "json_store"),
	}
}

// Load reads the document. A missing file seeds the demo roster; an
// unreadable or unparseable file degrades to an empty state. Neither case
// is an error to the caller.
func (s *JSONFileStore) Load(ctx context.Context) (*ledger.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *JSONFileStore) loadLocked() (*ledger.State, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		st := seededState()
		if saveErr := s.saveLocked(st); saveErr != nil {
			s.logger.WithError(saveErr).Warn("Could not persist seeded initial state")
		}
		s.logger.WithField("path", s.path).Info("Data file absent, seeded initial state")
		return st, nil
	}
	if err != nil {
		s.logger.WithError(err).Error("Could not read data file, continuing with empty state")
		return ledger.NewState(), nil
	}

	st := ledger.NewState()
	if err := json.Unmarshal(raw, st); err != nil {
		s.logger.WithError(err).Error("Data file is not valid JSON, continuing with empty state")
		return ledger.NewState(), nil
	}
	st.Normalize()
	return st, nil
}

// Save writes the full document back, first copying the prior file content
// to a timestamped backup. Backup failures are logged and otherwise
// ignored; they must never block the save itself.
func (s *JSONFileStore) Save(ctx context.Context, st *ledger.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(st)
}

func (s *JSONFileStore) saveLocked(st *ledger.State) error {
	if prior, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.backupPath(time.Now()), prior, 0o644); err != nil {
			s.logger.WithError(err).Warn("Could not write backup copy")
		}
	}

	data, err := encodeState(st)
	if err != nil {
		return fmt.Errorf("error encoding ledger state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing data file: %w", err)
	}
	return nil
}

// Update runs a load-mutate-save cycle under the store mutex. If mutate
// returns an error nothing is written.
func (s *JSONFileStore) Update(ctx context.Context, mutate func(*ledger.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err := mutate(st); err != nil {
		return err
	}
	return s.saveLocked(st)
}

func (s *JSONFileStore) backupPath(now time.Time) string {
	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s.backup-%s.json", stem, now.Format(backupTimestampLayout)))
}

// encodeState renders the document two-space indented with HTML escaping
// off, so the Cyrillic names stay readable in the file.
func encodeState(st *ledger.State) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func seededState() *ledger.State {
	st := ledger.NewState()
	for _, s := range seedStudents {
		dup := *s
		st.Students[s.ID] = &dup
	}
	return st
}
