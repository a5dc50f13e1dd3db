// Package jsonlstore implements the backend port on an append-only JSONL
// file with an in-memory index.
//
// Every write appends a record and fsyncs before returning, so the store's
// state survives a process-cache reset: reloading the log rebuilds the
// index exactly. Dependency edges live in the same log.
package jsonlstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/idgen"
	"github.com/fooleryhq/foolery/internal/query"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// BackendName is the registry name of this adapter.
const BackendName = "jsonl"

// DefaultFileName is the bead log name inside the foolery directory.
const DefaultFileName = "beads.jsonl"

func init() {
	backend.Register(BackendName, func(cfg backend.Config) (backend.Backend, error) {
		return Open(cfg)
	})
}

// Store is the JSONL-file-backed adapter.
type Store struct {
	path   string
	actor  string
	prefix string

	mu    sync.RWMutex
	file  *os.File // append handle, synced on every write
	beads map[string]*types.Bead
	order []string // insertion order of live bead ids
	deps  []types.DependencyEdge

	watchCancel context.CancelFunc
	log         *slog.Logger
}

var _ backend.Backend = (*Store)(nil)

// Open creates or loads a store from cfg.
func Open(cfg backend.Config) (*Store, error) {
	path := cfg.JSONLPath
	if path == "" {
		dir := cfg.Dir
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 - controlled path
	if err != nil {
		return nil, fmt.Errorf("open bead log: %w", err)
	}

	prefix := cfg.IDPrefix
	if prefix == "" {
		prefix = "fl"
	}
	s := &Store{
		path:   path,
		actor:  cfg.Actor,
		prefix: prefix,
		file:   f,
		log:    slog.With("backend", BackendName, "path", path),
	}
	if err := s.reload(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Name implements backend.Backend.
func (s *Store) Name() string { return BackendName }

// Capabilities implements backend.Backend. The file store supports the full
// contract except cross-store sync.
func (s *Store) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		CanCreate:             true,
		CanUpdate:             true,
		CanDelete:             true,
		CanClose:              true,
		CanSearch:             true,
		CanQuery:              true,
		CanListReady:          true,
		CanManageDependencies: true,
		CanManageLabels:       true,
		CanSync:               false,
		MaxConcurrency:        4,
	}
}

// Close releases the file handle and stops the watcher if running.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// ResetCache drops the in-memory index and rebuilds it from disk. The
// contract suite uses it to prove flush-on-write durability.
func (s *Store) ResetCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

// ListBeads implements backend.Backend.
func (s *Store) ListBeads(ctx context.Context, filter backend.ListFilter) ([]*types.Bead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(filter, nil), nil
}

// ListReady implements backend.Backend. Ready means an agent-claimable
// queue state with no open blockers.
func (s *Store) ListReady(ctx context.Context, filter backend.ListFilter) ([]*types.Bead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(filter, func(b *types.Bead, rs workflow.RuntimeState) bool {
		return rs.AgentClaimable && !s.blockedLocked(b.ID)
	}), nil
}

// SearchBeads implements backend.Backend with a case-insensitive substring
// match over title, description, and notes.
func (s *Store) SearchBeads(ctx context.Context, text string, filter backend.ListFilter) ([]*types.Bead, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(filter, func(b *types.Bead, _ workflow.RuntimeState) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Description), needle) ||
			strings.Contains(strings.ToLower(b.Notes), needle)
	}), nil
}

// QueryBeads implements backend.Backend.
func (s *Store) QueryBeads(ctx context.Context, expr string, filter backend.ListFilter) ([]*types.Bead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(filter, func(b *types.Bead, _ workflow.RuntimeState) bool {
		return query.Matches(expr, backend.QueryRecord(b))
	}), nil
}

// GetBead implements backend.Backend.
func (s *Store) GetBead(ctx context.Context, id string) (*types.Bead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beads[id]
	if !ok {
		return nil, backenderr.NotFoundf("bead %s not found", id)
	}
	return b.Clone(), nil
}

// CreateBead implements backend.Backend.
func (s *Store) CreateBead(ctx context.Context, req backend.CreateRequest) (*types.Bead, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, backenderr.Invalidf("title is required")
	}
	beadType := req.Type
	if beadType == "" {
		beadType = types.TypeTask
	}
	if !beadType.IsValid() {
		return nil, backenderr.Invalidf("invalid bead type %q", req.Type)
	}
	priority := 2
	if req.Priority != nil {
		priority = *req.Priority
	}
	if priority < 0 || priority > 4 {
		return nil, backenderr.Invalidf("priority must be between 0 and 4 (got %d)", priority)
	}

	profileID := workflow.DefaultProfileID
	if req.ProfileID != "" {
		if !workflow.IsSupportedProfile(req.ProfileID) {
			return nil, backenderr.Invalidf("unsupported profile %q", req.ProfileID)
		}
		profileID = workflow.CanonicalProfileID(req.ProfileID)
	}
	wf := workflow.BuiltinProfileDescriptor(profileID)
	state := wf.InitialState

	now := time.Now().UTC()
	labels := workflow.WithStateLabel(req.Labels, state)
	labels = workflow.WithProfileLabel(labels, profileID)

	metadata := map[string]string{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	b := &types.Bead{
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		AcceptanceCriteria: req.AcceptanceCriteria,
		Notes:              req.Notes,
		Status:             workflow.MapWorkflowStateToCompatStatus(state),
		Priority:           priority,
		BeadType:           beadType,
		Labels:             labels,
		Assignee:           req.Assignee,
		Owner:              req.Owner,
		Parent:             req.Parent,
		EstimatedMinutes:   req.EstimatedMinutes,
		WorkflowID:         wf.BackingWorkflowID,
		ProfileID:          profileID,
		WorkflowState:      state,
		CreatedAt:          now,
		UpdatedAt:          now,
		Metadata:           metadata,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for nonce := 0; ; nonce++ {
		id := idgen.NewID(s.prefix, b.Title, s.actor, now, nonce)
		if _, taken := s.beads[id]; !taken {
			b.ID = id
			break
		}
	}
	if err := b.Validate(); err != nil {
		return nil, backenderr.Invalidf("%v", err)
	}
	if err := s.persistPutLocked(b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// UpdateBead implements backend.Backend. Workflow state and status are
// recomputed for consistency whenever state or profile changes.
func (s *Store) UpdateBead(ctx context.Context, id string, req backend.UpdateRequest) (*types.Bead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.beads[id]
	if !ok {
		return nil, backenderr.NotFoundf("bead %s not found", id)
	}
	b := existing.Clone()

	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.AcceptanceCriteria != nil {
		b.AcceptanceCriteria = *req.AcceptanceCriteria
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, backenderr.Invalidf("invalid bead type %q", *req.Type)
		}
		b.BeadType = *req.Type
	}
	if req.Priority != nil {
		if *req.Priority < 0 || *req.Priority > 4 {
			return nil, backenderr.Invalidf("priority must be between 0 and 4 (got %d)", *req.Priority)
		}
		b.Priority = *req.Priority
	}
	if req.Assignee != nil {
		b.Assignee = *req.Assignee
	}
	if req.Owner != nil {
		b.Owner = *req.Owner
	}
	if req.Parent != nil {
		b.Parent = *req.Parent
	}
	if req.EstimatedMinutes != nil {
		b.EstimatedMinutes = req.EstimatedMinutes
	}

	// Subtractive labels first, then additive, so an add in the same call
	// wins over a remove of the same tag.
	if len(req.RemoveLabels) > 0 {
		b.Labels = removeLabels(b.Labels, req.RemoveLabels)
	}
	for _, l := range req.Labels {
		if !b.HasLabel(l) {
			b.Labels = append(b.Labels, l)
		}
	}

	profileChanged := false
	if req.ProfileID != nil {
		if !workflow.IsSupportedProfile(*req.ProfileID) {
			return nil, backenderr.Invalidf("unsupported profile %q", *req.ProfileID)
		}
		canonical := workflow.CanonicalProfileID(*req.ProfileID)
		if canonical != b.ProfileID {
			b.ProfileID = canonical
			profileChanged = true
		}
	}
	if req.State != nil || profileChanged {
		wf := workflow.BuiltinProfileDescriptor(b.ProfileID)
		raw := b.WorkflowState
		if req.State != nil {
			raw = *req.State
		}
		state := workflow.NormalizeStateForWorkflow(raw, wf)
		b.WorkflowID = wf.BackingWorkflowID
		b.WorkflowState = state
		b.Status = workflow.MapWorkflowStateToCompatStatus(state)
		b.Labels = workflow.WithStateLabel(b.Labels, state)
		b.Labels = workflow.WithProfileLabel(b.Labels, b.ProfileID)
		syncClosedAt(b)
	}

	for k, v := range req.Metadata {
		if b.Metadata == nil {
			b.Metadata = map[string]string{}
		}
		b.Metadata[k] = v
	}

	b.UpdatedAt = time.Now().UTC()
	if err := b.Validate(); err != nil {
		return nil, backenderr.Invalidf("%v", err)
	}
	if err := s.persistPutLocked(b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// CloseBead implements backend.Backend.
func (s *Store) CloseBead(ctx context.Context, id string, opts backend.CloseOptions) (*types.Bead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.beads[id]
	if !ok {
		return nil, backenderr.NotFoundf("bead %s not found", id)
	}
	b := existing.Clone()
	wf := workflow.BuiltinProfileDescriptor(b.ProfileID)

	now := time.Now().UTC()
	b.WorkflowState = wf.ClosedState()
	b.Status = types.StatusClosed
	b.ClosedAt = &now
	b.UpdatedAt = now
	b.Labels = workflow.WithStateLabel(b.Labels, b.WorkflowState)
	if opts.Reason != "" {
		if b.Metadata == nil {
			b.Metadata = map[string]string{}
		}
		b.Metadata[types.MetadataCloseReason] = opts.Reason
	}
	if err := s.persistPutLocked(b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// DeleteBead implements backend.Backend. Children keep their parent
// reference (no cascading delete); edges touching the bead are dropped.
func (s *Store) DeleteBead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.beads[id]; !ok {
		return backenderr.NotFoundf("bead %s not found", id)
	}
	for _, e := range s.deps {
		if e.Touches(id) {
			if err := s.appendLocked(record{Op: opUndep, Blocker: e.BlockerID, Blocked: e.BlockedID}); err != nil {
				return err
			}
		}
	}
	if err := s.appendLocked(record{Op: opDelete, ID: id}); err != nil {
		return err
	}
	s.applyDelete(id)
	s.applyUndepAll(id)
	return nil
}

// AddDependency implements backend.Backend.
func (s *Store) AddDependency(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return backenderr.Invalidf("bead %s cannot block itself", blockerID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range []string{blockerID, blockedID} {
		if _, ok := s.beads[id]; !ok {
			return backenderr.NotFoundf("bead %s not found", id)
		}
	}
	for _, e := range s.deps {
		if e.BlockerID == blockerID && e.BlockedID == blockedID {
			return backenderr.New(backenderr.AlreadyExists, "dependency %s -> %s already exists", blockerID, blockedID)
		}
	}
	if err := s.appendLocked(record{Op: opDep, Blocker: blockerID, Blocked: blockedID, DepType: types.DepBlocks}); err != nil {
		return err
	}
	s.deps = append(s.deps, types.DependencyEdge{BlockerID: blockerID, BlockedID: blockedID, Type: types.DepBlocks})
	return nil
}

// RemoveDependency implements backend.Backend.
func (s *Store) RemoveDependency(ctx context.Context, blockerID, blockedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.deps {
		if e.BlockerID == blockerID && e.BlockedID == blockedID {
			if err := s.appendLocked(record{Op: opUndep, Blocker: blockerID, Blocked: blockedID}); err != nil {
				return err
			}
			s.deps = append(s.deps[:i], s.deps[i+1:]...)
			return nil
		}
	}
	return backenderr.NotFoundf("dependency %s -> %s not found", blockerID, blockedID)
}

// ListDependencies implements backend.Backend: edges touching id from
// either direction, normalized relative to id.
func (s *Store) ListDependencies(ctx context.Context, id string) ([]types.Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.beads[id]; !ok {
		return nil, backenderr.NotFoundf("bead %s not found", id)
	}
	var out []types.Dependency
	for _, e := range s.deps {
		if e.Touches(id) {
			out = append(out, e.Normalize(id))
		}
	}
	return out, nil
}

// BuildTakePrompt implements backend.Backend.
func (s *Store) BuildTakePrompt(ctx context.Context, id string) (string, error) {
	b, wf, children, err := s.promptInputs(id)
	if err != nil {
		return "", err
	}
	return backend.TakePrompt(b, wf, children), nil
}

// BuildPollPrompt implements backend.Backend.
func (s *Store) BuildPollPrompt(ctx context.Context, id string) (string, error) {
	b, wf, children, err := s.promptInputs(id)
	if err != nil {
		return "", err
	}
	return backend.PollPrompt(b, wf, children), nil
}

// ListWorkflows implements backend.Backend.
func (s *Store) ListWorkflows(ctx context.Context) ([]*workflow.Descriptor, error) {
	return workflow.BuiltinDescriptors(), nil
}

func (s *Store) promptInputs(id string) (*types.Bead, *workflow.Descriptor, []*types.Bead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beads[id]
	if !ok {
		return nil, nil, nil, backenderr.NotFoundf("bead %s not found", id)
	}
	var children []*types.Bead
	for _, cid := range s.order {
		c := s.beads[cid]
		if c.Parent == id && c.Status != types.StatusClosed {
			children = append(children, c.Clone())
		}
	}
	return b.Clone(), workflow.BuiltinProfileDescriptor(b.ProfileID), children, nil
}

// collect returns clones of beads passing the filter and the extra
// predicate, sorted and limited. Callers hold at least the read lock.
func (s *Store) collect(filter backend.ListFilter, extra func(*types.Bead, workflow.RuntimeState) bool) []*types.Bead {
	var out []*types.Bead
	for _, id := range s.order {
		b := s.beads[id]
		_, rs := backend.RuntimeFor(b)
		if !filter.Matches(b, rs) {
			continue
		}
		if extra != nil && !extra(b, rs) {
			continue
		}
		out = append(out, b.Clone())
	}
	types.SortBeads(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// blockedLocked reports whether any open bead blocks id.
func (s *Store) blockedLocked(id string) bool {
	for _, e := range s.deps {
		if e.BlockedID != id {
			continue
		}
		if blocker, ok := s.beads[e.BlockerID]; ok && blocker.Status != types.StatusClosed {
			return true
		}
	}
	return false
}

func removeLabels(labels, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, l := range remove {
		drop[l] = struct{}{}
	}
	out := labels[:0:0]
	for _, l := range labels {
		if _, ok := drop[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}

// syncClosedAt keeps the closed_at invariant aligned with status.
func syncClosedAt(b *types.Bead) {
	if b.Status == types.StatusClosed && b.ClosedAt == nil {
		now := time.Now().UTC()
		b.ClosedAt = &now
	}
	if b.Status != types.StatusClosed {
		b.ClosedAt = nil
	}
}
