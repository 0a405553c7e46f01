package state

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Snapshot is the ledger state persisted across restarts.
type Snapshot struct {
	RunID        string    `json:"run_id"`
	Symbol       string    `json:"symbol"`
	Fund         float64   `json:"fund"`
	Unit         float64   `json:"unit"`
	Baseline     float64   `json:"baseline"`
	Gain         float64   `json:"gain"`
	Orders       int       `json:"orders"`
	LastTickTime time.Time `json:"last_tick_time"`
	SavedAt      time.Time `json:"saved_at"`
}

type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func NewStore(runID, symbol string) *Store {
	return &Store{
		snapshot: Snapshot{RunID: runID, Symbol: symbol},
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Set replaces the ledger fields while keeping the run identity.
func (s *Store) Set(fund, unit, baseline, gain float64, orders int, lastTick time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Fund = fund
	s.snapshot.Unit = unit
	s.snapshot.Baseline = baseline
	s.snapshot.Gain = gain
	s.snapshot.Orders = orders
	s.snapshot.LastTickTime = lastTick
}

func (s *Store) Save(path string) error {
	s.mu.Lock()
	s.snapshot.SavedAt = time.Now().UTC()
	snapshot := s.snapshot
	s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal checkpoint")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write checkpoint %s", path)
	}
	return nil
}

func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read checkpoint %s", path)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return errors.Wrapf(err, "parse checkpoint %s", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	return nil
}
