package beadscli

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/query"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// BackendName is the registry name of this adapter.
const BackendName = "bd"

func init() {
	backend.Register(BackendName, func(cfg backend.Config) (backend.Backend, error) {
		return New(cfg), nil
	})
}

// Backend shells out to the bd CLI for every operation.
type Backend struct {
	c *client
}

var _ backend.Backend = (*Backend)(nil)

// New creates a bd-backed adapter using the real subprocess runner.
func New(cfg backend.Config) *Backend {
	return NewWithRunner(cfg, ExecRunner{})
}

// NewWithRunner creates an adapter with an injected runner. Tests script
// the runner instead of needing a bd binary.
func NewWithRunner(cfg backend.Config, runner Runner) *Backend {
	return &Backend{c: newClient(runner, cfg.BDBinary, cfg.Dir, cfg.BDDBPath, cfg.Timeout)}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return BackendName }

// Capabilities implements backend.Backend. bd supports the full contract,
// including JSONL sync.
func (b *Backend) Capabilities() backend.Capabilities {
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
		CanSync:               true,
		MaxConcurrency:        4,
	}
}

// Close implements backend.Backend. The adapter holds no resources beyond
// per-call subprocesses.
func (b *Backend) Close() error { return nil }

// ListBeads implements backend.Backend. bd filters by status server-side;
// everything else is applied client-side.
func (b *Backend) ListBeads(ctx context.Context, filter backend.ListFilter) ([]*types.Bead, error) {
	args := []string{"list", "--json", "--limit", "0"}
	if filter.Status != nil {
		args = append(args, "--status", string(*filter.Status))
	}
	return b.fetch(ctx, args, filter, nil)
}

// ListReady implements backend.Backend via bd's own ready computation.
func (b *Backend) ListReady(ctx context.Context, filter backend.ListFilter) ([]*types.Bead, error) {
	return b.fetch(ctx, []string{"ready", "--json", "--limit", "0"}, filter, nil)
}

// SearchBeads implements backend.Backend with client-side substring
// matching over the full listing.
func (b *Backend) SearchBeads(ctx context.Context, text string, filter backend.ListFilter) ([]*types.Bead, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	return b.fetch(ctx, []string{"list", "--json", "--limit", "0"}, filter, func(bead *types.Bead) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(bead.Title), needle) ||
			strings.Contains(strings.ToLower(bead.Description), needle) ||
			strings.Contains(strings.ToLower(bead.Notes), needle)
	})
}

// QueryBeads implements backend.Backend.
func (b *Backend) QueryBeads(ctx context.Context, expr string, filter backend.ListFilter) ([]*types.Bead, error) {
	return b.fetch(ctx, []string{"list", "--json", "--limit", "0"}, filter, func(bead *types.Bead) bool {
		return query.Matches(expr, backend.QueryRecord(bead))
	})
}

// GetBead implements backend.Backend.
func (b *Backend) GetBead(ctx context.Context, id string) (*types.Bead, error) {
	out, err := b.c.runRead(ctx, "show", id, "--json")
	if err != nil {
		return nil, err
	}
	issue, err := decodeIssue(out)
	if err != nil {
		return nil, backenderr.Internalf("%v", err)
	}
	return issue.toBead(), nil
}

// CreateBead implements backend.Backend. The workflow profile and initial
// state are recorded as bd labels at creation time.
func (b *Backend) CreateBead(ctx context.Context, req backend.CreateRequest) (*types.Bead, error) {
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
	labels := workflow.WithStateLabel(req.Labels, wf.InitialState)
	labels = workflow.WithProfileLabel(labels, profileID)

	args := []string{"create", strings.TrimSpace(req.Title), "--json",
		"-t", string(beadType),
		"-p", strconv.Itoa(priority),
		"--labels", strings.Join(labels, ","),
	}
	if req.Description != "" {
		args = append(args, "-d", req.Description)
	}
	if req.AcceptanceCriteria != "" {
		args = append(args, "--acceptance", req.AcceptanceCriteria)
	}
	if req.Assignee != "" {
		args = append(args, "--assignee", req.Assignee)
	}
	if req.Parent != "" {
		args = append(args, "--parent", req.Parent)
	}
	if req.EstimatedMinutes != nil {
		args = append(args, "--estimate", strconv.Itoa(*req.EstimatedMinutes))
	}

	out, err := b.c.runWrite(ctx, args...)
	if err != nil {
		return nil, err
	}
	id, err := parseCreatedID(out)
	if err != nil {
		return nil, backenderr.Internalf("%v", err)
	}
	if req.Notes != "" {
		if _, err := b.c.runWrite(ctx, "update", id, "--append-notes", req.Notes); err != nil {
			return nil, err
		}
	}
	return b.GetBead(ctx, id)
}

// UpdateBead implements backend.Backend. Field changes go through bd
// update; workflow state and profile changes ride on labels plus a coarse
// --status for bd's own views. Metadata cannot be stored in bd and is
// dropped.
func (b *Backend) UpdateBead(ctx context.Context, id string, req backend.UpdateRequest) (*types.Bead, error) {
	current, err := b.GetBead(ctx, id)
	if err != nil {
		return nil, err
	}

	args := []string{"update", id}
	if req.Title != nil {
		args = append(args, "--title", *req.Title)
	}
	if req.Description != nil {
		args = append(args, "--description", *req.Description)
	}
	if req.AcceptanceCriteria != nil {
		args = append(args, "--acceptance", *req.AcceptanceCriteria)
	}
	if req.Notes != nil {
		args = append(args, "--notes", *req.Notes)
	}
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, backenderr.Invalidf("invalid bead type %q", *req.Type)
		}
		args = append(args, "--type", string(*req.Type))
	}
	if req.Priority != nil {
		if *req.Priority < 0 || *req.Priority > 4 {
			return nil, backenderr.Invalidf("priority must be between 0 and 4 (got %d)", *req.Priority)
		}
		args = append(args, "--priority", strconv.Itoa(*req.Priority))
	}
	if req.Assignee != nil {
		args = append(args, "--assignee", *req.Assignee)
	}
	if req.EstimatedMinutes != nil {
		args = append(args, "--estimate", strconv.Itoa(*req.EstimatedMinutes))
	}

	addLabels := append([]string(nil), req.Labels...)
	removeLabels := append([]string(nil), req.RemoveLabels...)

	profileID := current.ProfileID
	if req.ProfileID != nil {
		if !workflow.IsSupportedProfile(*req.ProfileID) {
			return nil, backenderr.Invalidf("unsupported profile %q", *req.ProfileID)
		}
		profileID = workflow.CanonicalProfileID(*req.ProfileID)
	}
	profileChanged := profileID != current.ProfileID

	if req.State != nil || profileChanged {
		wf := workflow.BuiltinProfileDescriptor(profileID)
		raw := current.WorkflowState
		if req.State != nil {
			raw = *req.State
		}
		state := workflow.NormalizeStateForWorkflow(raw, wf)
		args = append(args, "--status", string(workflow.MapWorkflowStateToCompatStatus(state)))

		if old := workflow.ExtractStateLabel(current.Labels); old != "" && old != state {
			removeLabels = append(removeLabels, workflow.LabelStatePrefix+old)
		}
		addLabels = append(addLabels, workflow.LabelStatePrefix+state)
		if profileChanged {
			if old := workflow.ExtractProfileLabel(current.Labels); old != "" {
				removeLabels = append(removeLabels, workflow.LabelProfilePrefix+old)
			}
			addLabels = append(addLabels, workflow.LabelProfilePrefix+profileID)
		}
	}

	if len(args) > 2 {
		if _, err := b.c.runWrite(ctx, args...); err != nil {
			return nil, err
		}
	}
	if len(removeLabels) > 0 {
		if _, err := b.c.runWrite(ctx, append([]string{"label", "remove", id}, removeLabels...)...); err != nil {
			return nil, err
		}
	}
	if len(addLabels) > 0 {
		if _, err := b.c.runWrite(ctx, append([]string{"label", "add", id}, addLabels...)...); err != nil {
			return nil, err
		}
	}
	return b.GetBead(ctx, id)
}

// CloseBead implements backend.Backend via bd close; the reason surfaces as
// close_reason metadata on the returned bead. bd only flips its coarse
// status, so the wf:state label is rewritten to the profile's closed state
// here or the reread bead would still derive the pre-close state.
func (b *Backend) CloseBead(ctx context.Context, id string, opts backend.CloseOptions) (*types.Bead, error) {
	current, err := b.GetBead(ctx, id)
	if err != nil {
		return nil, err
	}
	closed := workflow.BuiltinProfileDescriptor(current.ProfileID).ClosedState()

	args := []string{"close", id}
	if opts.Reason != "" {
		args = append(args, "--reason", opts.Reason)
	}
	if _, err := b.c.runWrite(ctx, args...); err != nil {
		return nil, err
	}
	if old := workflow.ExtractStateLabel(current.Labels); old != closed {
		if old != "" {
			if _, err := b.c.runWrite(ctx, "label", "remove", id, workflow.LabelStatePrefix+old); err != nil {
				return nil, err
			}
		}
		if _, err := b.c.runWrite(ctx, "label", "add", id, workflow.LabelStatePrefix+closed); err != nil {
			return nil, err
		}
	}
	return b.GetBead(ctx, id)
}

// DeleteBead implements backend.Backend.
func (b *Backend) DeleteBead(ctx context.Context, id string) error {
	_, err := b.c.runWrite(ctx, "delete", id, "--force")
	return err
}

// AddDependency implements backend.Backend. bd's argument order is the
// blocked issue first: `bd dep add <blocked> <blocker>`.
func (b *Backend) AddDependency(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return backenderr.Invalidf("bead %s cannot block itself", blockerID)
	}
	_, err := b.c.runWrite(ctx, "dep", "add", blockedID, blockerID)
	return err
}

// RemoveDependency implements backend.Backend.
func (b *Backend) RemoveDependency(ctx context.Context, blockerID, blockedID string) error {
	_, err := b.c.runWrite(ctx, "dep", "remove", blockedID, blockerID)
	return err
}

// ListDependencies implements backend.Backend. Both directions are fetched
// concurrently and normalized relative to id.
func (b *Backend) ListDependencies(ctx context.Context, id string) ([]types.Dependency, error) {
	if _, err := b.GetBead(ctx, id); err != nil {
		return nil, err
	}

	var blockers, dependents []string
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Capabilities().MaxConcurrency)
	g.Go(func() error {
		ids, err := b.depDirection(gctx, id, "down")
		blockers = ids
		return err
	})
	g.Go(func() error {
		ids, err := b.depDirection(gctx, id, "up")
		dependents = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.Dependency
	for _, blocker := range blockers {
		e := types.DependencyEdge{BlockerID: blocker, BlockedID: id, Type: types.DepBlocks}
		out = append(out, e.Normalize(id))
	}
	for _, dependent := range dependents {
		e := types.DependencyEdge{BlockerID: id, BlockedID: dependent, Type: types.DepBlocks}
		out = append(out, e.Normalize(id))
	}
	return out, nil
}

func (b *Backend) depDirection(ctx context.Context, id, direction string) ([]string, error) {
	out, err := b.c.runRead(ctx, "dep", "list", id, "--direction="+direction, "--json")
	if err != nil {
		// bd reports an error when the issue has no edges in a direction.
		if backenderr.IsCode(err, backenderr.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	issues, err := decodeIssues(out)
	if err != nil {
		return nil, backenderr.Internalf("%v", err)
	}
	ids := make([]string, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
	}
	return ids, nil
}

// BuildTakePrompt implements backend.Backend.
func (b *Backend) BuildTakePrompt(ctx context.Context, id string) (string, error) {
	bead, wf, children, err := b.promptInputs(ctx, id)
	if err != nil {
		return "", err
	}
	return backend.TakePrompt(bead, wf, children), nil
}

// BuildPollPrompt implements backend.Backend.
func (b *Backend) BuildPollPrompt(ctx context.Context, id string) (string, error) {
	bead, wf, children, err := b.promptInputs(ctx, id)
	if err != nil {
		return "", err
	}
	return backend.PollPrompt(bead, wf, children), nil
}

// ListWorkflows implements backend.Backend. bd has no profile registry of
// its own; the builtin descriptors are the contract.
func (b *Backend) ListWorkflows(ctx context.Context) ([]*workflow.Descriptor, error) {
	return workflow.BuiltinDescriptors(), nil
}

func (b *Backend) promptInputs(ctx context.Context, id string) (*types.Bead, *workflow.Descriptor, []*types.Bead, error) {
	bead, err := b.GetBead(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	all, err := b.fetch(ctx, []string{"list", "--json", "--limit", "0"}, backend.ListFilter{}, func(c *types.Bead) bool {
		return c.Parent == id && c.Status != types.StatusClosed
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return bead, workflow.BuiltinProfileDescriptor(bead.ProfileID), all, nil
}

// fetch runs a listing invocation and applies filtering, sorting, and the
// limit client-side.
func (b *Backend) fetch(ctx context.Context, args []string, filter backend.ListFilter, extra func(*types.Bead) bool) ([]*types.Bead, error) {
	out, err := b.c.runRead(ctx, args...)
	if err != nil {
		return nil, err
	}
	issues, err := decodeIssues(out)
	if err != nil {
		return nil, backenderr.Internalf("%v", err)
	}
	var beads []*types.Bead
	for _, issue := range issues {
		bead := issue.toBead()
		_, rs := backend.RuntimeFor(bead)
		if !filter.Matches(bead, rs) {
			continue
		}
		if extra != nil && !extra(bead) {
			continue
		}
		beads = append(beads, bead)
	}
	types.SortBeads(beads)
	if filter.Limit > 0 && len(beads) > filter.Limit {
		beads = beads[:filter.Limit]
	}
	return beads, nil
}
