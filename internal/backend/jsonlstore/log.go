package jsonlstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fooleryhq/foolery/internal/types"
)

// Log record ops. Put carries a full bead snapshot; the last put for an id
// wins on replay.
const (
	opPut    = "put"
	opDelete = "delete"
	opDep    = "dep"
	opUndep  = "undep"
)

// record is one line of the bead log.
type record struct {
	Op      string               `json:"op"`
	Bead    *types.Bead          `json:"bead,omitempty"`
	ID      string               `json:"id,omitempty"`
	Blocker string               `json:"blocker,omitempty"`
	Blocked string               `json:"blocked,omitempty"`
	DepType types.DependencyType `json:"dep_type,omitempty"`
}

// maxLineSize bounds a single log line. Beads carry free-form notes, so the
// default scanner buffer is too small.
const maxLineSize = 4 * 1024 * 1024

// reload rebuilds the in-memory index from disk. Caller holds the write
// lock.
func (s *Store) reload() error {
	s.beads = make(map[string]*types.Bead)
	s.order = nil
	s.deps = nil

	f, err := os.Open(s.path) // #nosec G304 - controlled path
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open bead log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("bead log %s line %d: %w", s.path, line, err)
		}
		s.apply(rec)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read bead log: %w", err)
	}
	return nil
}

// apply folds one record into the index.
func (s *Store) apply(rec record) {
	switch rec.Op {
	case opPut:
		if rec.Bead == nil || rec.Bead.ID == "" {
			return
		}
		b := rec.Bead.Clone()
		b.SetDefaults()
		if _, exists := s.beads[b.ID]; !exists {
			s.order = append(s.order, b.ID)
		}
		s.beads[b.ID] = b
	case opDelete:
		s.applyDelete(rec.ID)
	case opDep:
		for _, e := range s.deps {
			if e.BlockerID == rec.Blocker && e.BlockedID == rec.Blocked {
				return
			}
		}
		depType := rec.DepType
		if depType == "" {
			depType = types.DepBlocks
		}
		s.deps = append(s.deps, types.DependencyEdge{
			BlockerID: rec.Blocker,
			BlockedID: rec.Blocked,
			Type:      depType,
		})
	case opUndep:
		for i, e := range s.deps {
			if e.BlockerID == rec.Blocker && e.BlockedID == rec.Blocked {
				s.deps = append(s.deps[:i], s.deps[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) applyDelete(id string) {
	if _, ok := s.beads[id]; !ok {
		return
	}
	delete(s.beads, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// applyUndepAll drops every edge touching id from the index.
func (s *Store) applyUndepAll(id string) {
	kept := s.deps[:0]
	for _, e := range s.deps {
		if !e.Touches(id) {
			kept = append(kept, e)
		}
	}
	s.deps = kept
}

// appendLocked writes one record and fsyncs. Caller holds the write lock.
func (s *Store) appendLocked(rec record) error {
	if s.file == nil {
		return fmt.Errorf("bead log %s is closed", s.path)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode log record: %w", err)
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append bead log: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync bead log: %w", err)
	}
	return nil
}

// persistPutLocked appends a put record and updates the index. Caller holds
// the write lock.
func (s *Store) persistPutLocked(b *types.Bead) error {
	if err := s.appendLocked(record{Op: opPut, Bead: b}); err != nil {
		return err
	}
	stored := b.Clone()
	if _, exists := s.beads[stored.ID]; !exists {
		s.order = append(s.order, stored.ID)
	}
	s.beads[stored.ID] = stored
	return nil
}
