// Package overrides is a read-only view of the manually calibrated location coordinates.
package overrides

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/lintang-b-s/indoornav/pkg"
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"go.uber.org/zap"
)

// Store. location id -> explicit planar coordinate. overrides take precedence over geometry-derived centroids.
type Store interface {
	Lookup(id string) (datastructure.PlanarPoint, bool)
	Snapshot() map[string]datastructure.PlanarPoint
}

// MapStore. fixed in-memory Store.
type MapStore map[string]datastructure.PlanarPoint

func (m MapStore) Lookup(id string) (datastructure.PlanarPoint, bool) {
	p, ok := m[id]
	return p, ok
}

func (m MapStore) Snapshot() map[string]datastructure.PlanarPoint {
	out := make(map[string]datastructure.PlanarPoint, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FileStore. Store backed by a json file of { "<id>": {"x": .., "y": ..} }. Reload swaps the whole table.
type FileStore struct {
	path string
	log  *zap.Logger

	mu      sync.RWMutex
	entries map[string]datastructure.PlanarPoint
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	return &FileStore{
		path:    path,
		log:     log,
		entries: make(map[string]datastructure.PlanarPoint),
	}
}

// LoadFileStore. NewFileStore followed by Reload.
func LoadFileStore(path string, log *zap.Logger) (*FileStore, error) {
	s := NewFileStore(path, log)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) GetPath() string {
	return s.path
}

// Reload. re-reads the file. a missing or empty file yields an empty table.
func (s *FileStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("override file not found, using empty overrides", zap.String("path", s.path))
		data = nil
	} else if err != nil {
		return fmt.Errorf("read overrides %s: %w", s.path, err)
	}

	entries, err := Parse(data, s.log)
	if err != nil {
		return fmt.Errorf("parse overrides %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Lookup(id string) (datastructure.PlanarPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.entries[id]
	return p, ok
}

func (s *FileStore) Snapshot() map[string]datastructure.PlanarPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MapStore(s.entries).Snapshot()
}

type rawPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

/*
Parse. decodes an override table.

keys starting with "_" are metadata and skipped. entries missing x or y, entries that are not objects,
and entries outside the accepted planar bounds are skipped with a warning. an empty document is an
empty table.
*/
func Parse(data []byte, log *zap.Logger) (map[string]datastructure.PlanarPoint, error) {
	entries := make(map[string]datastructure.PlanarPoint)
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for id, msg := range raw {
		if strings.HasPrefix(id, "_") {
			continue
		}
		var rp rawPoint
		if err := json.Unmarshal(msg, &rp); err != nil || rp.X == nil || rp.Y == nil {
			log.Warn("skipping override without x/y", zap.String("id", id))
			continue
		}
		p := datastructure.NewPlanarPoint(*rp.X, *rp.Y)
		if !InBounds(p) {
			log.Warn("skipping override outside planar bounds", zap.String("id", id),
				zap.Float64("x", p.X), zap.Float64("y", p.Y))
			continue
		}
		entries[id] = p
	}
	return entries, nil
}

// InBounds. true when p is finite and both axes lie in the accepted planar range.
func InBounds(p datastructure.PlanarPoint) bool {
	if !p.IsFinite() {
		return false
	}
	return inRange(p.X) && inRange(p.Y)
}

func inRange(v float64) bool {
	return v >= pkg.MIN_PLANAR_COORD && v <= pkg.MAX_PLANAR_COORD && !math.IsNaN(v)
}
