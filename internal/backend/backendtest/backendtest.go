// Package backendtest is the reusable contract suite for backend adapters.
//
// Adapter packages call Run with a factory; the suite drives every port
// operation, asserting the shared semantics where the adapter's declared
// capabilities allow and the uniform UNAVAILABLE answer where they do not.
// One suite, three adapters, zero per-adapter drift.
package backendtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// Factory builds a fresh, empty backend per subtest. Cleanup runs via
// t.Cleanup inside the factory.
type Factory func(t *testing.T) backend.Backend

// CacheResetter is implemented by adapters with a process-local cache over
// durable storage. The suite uses it to prove writes survive a cache drop.
type CacheResetter interface {
	ResetCache() error
}

// Run executes the full contract suite against the adapter.
func Run(t *testing.T, newBackend Factory) {
	t.Run("Identity", func(t *testing.T) { testIdentity(t, newBackend) })
	t.Run("CreateGetRoundTrip", func(t *testing.T) { testCreateGet(t, newBackend) })
	t.Run("GetNotFound", func(t *testing.T) { testGetNotFound(t, newBackend) })
	t.Run("UpdateFields", func(t *testing.T) { testUpdateFields(t, newBackend) })
	t.Run("UpdateStateTransition", func(t *testing.T) { testUpdateState(t, newBackend) })
	t.Run("UpdateRejectsUnknownProfile", func(t *testing.T) { testUpdateBadProfile(t, newBackend) })
	t.Run("CloseWithReason", func(t *testing.T) { testCloseReason(t, newBackend) })
	t.Run("CloseWithoutReason", func(t *testing.T) { testCloseNoReason(t, newBackend) })
	t.Run("DeleteRemoves", func(t *testing.T) { testDelete(t, newBackend) })
	t.Run("Labels", func(t *testing.T) { testLabels(t, newBackend) })
	t.Run("Query", func(t *testing.T) { testQuery(t, newBackend) })
	t.Run("Search", func(t *testing.T) { testSearch(t, newBackend) })
	t.Run("DependencySymmetry", func(t *testing.T) { testDependencies(t, newBackend) })
	t.Run("ListReadyExcludesBlocked", func(t *testing.T) { testListReady(t, newBackend) })
	t.Run("ListWorkflows", func(t *testing.T) { testListWorkflows(t, newBackend) })
	t.Run("PersistenceAcrossCacheReset", func(t *testing.T) { testPersistence(t, newBackend) })
	t.Run("UnsupportedOpsAnswerUnavailable", func(t *testing.T) { testUnsupported(t, newBackend) })
}

// mustCreate creates a task bead or skips the subtest when the adapter
// cannot create.
func mustCreate(t *testing.T, b backend.Backend, req backend.CreateRequest) *types.Bead {
	t.Helper()
	if !b.Capabilities().CanCreate {
		t.Skipf("%s backend cannot create beads", b.Name())
	}
	bead, err := b.CreateBead(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, bead)
	return bead
}

func testIdentity(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	require.NotEmpty(t, b.Name())
	require.Equal(t, b.Capabilities(), b.Capabilities(), "capabilities must be stable")
}

func testCreateGet(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()

	created := mustCreate(t, b, backend.CreateRequest{
		Title:              "Wire the widget",
		Description:        "Connect the widget to the frobnicator.",
		AcceptanceCriteria: "Widget frobnicates.",
		Type:               types.TypeFeature,
		Labels:             []string{"area:widgets"},
	})
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Wire the widget", created.Title)
	require.Equal(t, types.TypeFeature, created.BeadType)
	require.Equal(t, 2, created.Priority, "default priority")
	require.Equal(t, workflow.DefaultProfileID, created.ProfileID)

	wf := workflow.BuiltinProfileDescriptor(created.ProfileID)
	require.Equal(t, wf.InitialState, created.WorkflowState)
	require.Equal(t, types.StatusOpen, created.Status)
	require.True(t, created.HasLabel("area:widgets"))
	require.Equal(t, created.WorkflowState, workflow.ExtractStateLabel(created.Labels))
	require.Equal(t, created.ProfileID, workflow.ExtractProfileLabel(created.Labels))

	got, err := b.GetBead(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.Title, got.Title)
	require.Equal(t, created.WorkflowState, got.WorkflowState)
}

func testGetNotFound(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	_, err := b.GetBead(context.Background(), "fl-nope")
	require.Error(t, err)
	require.Equal(t, backenderr.NotFound, backenderr.CodeOf(err))
}

func testUpdateFields(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanUpdate {
		t.Skipf("%s backend cannot update beads", b.Name())
	}
	created := mustCreate(t, b, backend.CreateRequest{Title: "Before"})

	title := "After"
	prio := 1
	got, err := b.UpdateBead(ctx, created.ID, backend.UpdateRequest{
		Title:    &title,
		Priority: &prio,
	})
	require.NoError(t, err)
	require.Equal(t, "After", got.Title)
	require.Equal(t, 1, got.Priority)
}

func testUpdateState(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanUpdate {
		t.Skipf("%s backend cannot update beads", b.Name())
	}
	created := mustCreate(t, b, backend.CreateRequest{Title: "Advance me"})
	wf := workflow.BuiltinProfileDescriptor(created.ProfileID)
	target := wf.FirstActionState()
	require.NotEmpty(t, target)

	got, err := b.UpdateBead(ctx, created.ID, backend.UpdateRequest{State: &target})
	require.NoError(t, err)
	require.Equal(t, target, got.WorkflowState)
	require.Equal(t, types.StatusInProgress, got.Status)
	require.Equal(t, target, workflow.ExtractStateLabel(got.Labels))
}

func testUpdateBadProfile(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanUpdate {
		t.Skipf("%s backend cannot update beads", b.Name())
	}
	created := mustCreate(t, b, backend.CreateRequest{Title: "Profile check"})

	bogus := "no-such-profile"
	_, err := b.UpdateBead(ctx, created.ID, backend.UpdateRequest{ProfileID: &bogus})
	require.Error(t, err)
	require.Equal(t, backenderr.InvalidInput, backenderr.CodeOf(err))
}

func testCloseReason(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanClose {
		t.Skipf("%s backend cannot close beads", b.Name())
	}
	created := mustCreate(t, b, backend.CreateRequest{Title: "Close me"})

	got, err := b.CloseBead(ctx, created.ID, backend.CloseOptions{Reason: "done"})
	require.NoError(t, err)
	require.Equal(t, types.StatusClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
	wf := workflow.BuiltinProfileDescriptor(got.ProfileID)
	require.True(t, wf.IsTerminal(got.WorkflowState))
	require.Equal(t, "done", got.Metadata[types.MetadataCloseReason])
}

func testCloseNoReason(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanClose {
		t.Skipf("%s backend cannot close beads", b.Name())
	}
	created := mustCreate(t, b, backend.CreateRequest{Title: "Close quietly"})

	got, err := b.CloseBead(ctx, created.ID, backend.CloseOptions{})
	require.NoError(t, err)
	require.Equal(t, types.StatusClosed, got.Status)
	_, present := got.Metadata[types.MetadataCloseReason]
	require.False(t, present, "close without reason must not set close_reason")
}

func testDelete(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanDelete {
		t.Skipf("%s backend cannot delete beads", b.Name())
	}
	created := mustCreate(t, b, backend.CreateRequest{Title: "Delete me"})

	require.NoError(t, b.DeleteBead(ctx, created.ID))
	_, err := b.GetBead(ctx, created.ID)
	require.Equal(t, backenderr.NotFound, backenderr.CodeOf(err))

	err = b.DeleteBead(ctx, created.ID)
	require.Equal(t, backenderr.NotFound, backenderr.CodeOf(err))
}

func testLabels(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanManageLabels || !b.Capabilities().CanUpdate {
		t.Skipf("%s backend cannot manage labels", b.Name())
	}
	created := mustCreate(t, b, backend.CreateRequest{Title: "Label me", Labels: []string{"keep"}})

	got, err := b.UpdateBead(ctx, created.ID, backend.UpdateRequest{
		Labels:       []string{"added"},
		RemoveLabels: []string{"keep"},
	})
	require.NoError(t, err)
	require.True(t, got.HasLabel("added"))
	require.False(t, got.HasLabel("keep"))
	require.NotEmpty(t, workflow.ExtractStateLabel(got.Labels), "workflow tags must survive label edits")
}

func testQuery(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanQuery {
		t.Skipf("%s backend cannot query beads", b.Name())
	}
	task := mustCreate(t, b, backend.CreateRequest{Title: "A task", Type: types.TypeTask})
	mustCreate(t, b, backend.CreateRequest{Title: "A bug", Type: types.TypeBug})

	got, err := b.QueryBeads(ctx, "type:task", backend.ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, task.ID, got[0].ID)

	// Unknown fields never filter.
	got, err = b.QueryBeads(ctx, "foo:bar", backend.ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func testSearch(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanSearch {
		t.Skipf("%s backend cannot search beads", b.Name())
	}
	hit := mustCreate(t, b, backend.CreateRequest{Title: "Frobnicator latency fix"})
	mustCreate(t, b, backend.CreateRequest{Title: "Unrelated chore"})

	got, err := b.SearchBeads(ctx, "frobnicator", backend.ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, hit.ID, got[0].ID)
}

func testDependencies(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	if !b.Capabilities().CanManageDependencies {
		t.Skipf("%s backend cannot manage dependencies", b.Name())
	}
	blocker := mustCreate(t, b, backend.CreateRequest{Title: "Blocker"})
	blocked := mustCreate(t, b, backend.CreateRequest{Title: "Blocked"})

	require.NoError(t, b.AddDependency(ctx, blocker.ID, blocked.ID))

	// Both endpoints see the same edge, normalized to their own view.
	fromBlocker, err := b.ListDependencies(ctx, blocker.ID)
	require.NoError(t, err)
	require.Len(t, fromBlocker, 1)
	require.Equal(t, blocked.ID, fromBlocker[0].ID)
	require.Equal(t, blocker.ID, fromBlocker[0].Source)
	require.Equal(t, blocked.ID, fromBlocker[0].Target)

	fromBlocked, err := b.ListDependencies(ctx, blocked.ID)
	require.NoError(t, err)
	require.Len(t, fromBlocked, 1)
	require.Equal(t, blocker.ID, fromBlocked[0].ID)
	require.Equal(t, blocker.ID, fromBlocked[0].Source)

	require.NoError(t, b.RemoveDependency(ctx, blocker.ID, blocked.ID))
	fromBlocker, err = b.ListDependencies(ctx, blocker.ID)
	require.NoError(t, err)
	require.Empty(t, fromBlocker)
}

func testListReady(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	caps := b.Capabilities()
	if !caps.CanListReady || !caps.CanManageDependencies {
		t.Skipf("%s backend cannot compute readiness", b.Name())
	}
	blocker := mustCreate(t, b, backend.CreateRequest{Title: "First"})
	blocked := mustCreate(t, b, backend.CreateRequest{Title: "Second"})
	require.NoError(t, b.AddDependency(ctx, blocker.ID, blocked.ID))

	ready, err := b.ListReady(ctx, backend.ListFilter{})
	require.NoError(t, err)
	ids := beadIDs(ready)
	require.Contains(t, ids, blocker.ID)
	require.NotContains(t, ids, blocked.ID, "blocked bead must not be ready")
}

func testListWorkflows(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	wfs, err := b.ListWorkflows(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, wfs)
	def := workflow.DescriptorByID(workflow.DefaultProfileID, wfs)
	require.NotNil(t, def, "default profile must be listed")
	for _, wf := range wfs {
		require.NoError(t, wf.Validate())
	}
}

func testPersistence(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	resetter, ok := b.(CacheResetter)
	if !ok {
		t.Skipf("%s backend has no process cache", b.Name())
	}
	caps := b.Capabilities()
	created := mustCreate(t, b, backend.CreateRequest{Title: "Durable"})

	var blocked *types.Bead
	if caps.CanManageDependencies {
		blocked = mustCreate(t, b, backend.CreateRequest{Title: "Durable dependent"})
		require.NoError(t, b.AddDependency(ctx, created.ID, blocked.ID))
	}
	if caps.CanClose {
		_, err := b.CloseBead(ctx, created.ID, backend.CloseOptions{Reason: "wrapped up"})
		require.NoError(t, err)
	}

	require.NoError(t, resetter.ResetCache())

	got, err := b.GetBead(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, got.Title)
	if caps.CanClose {
		require.Equal(t, types.StatusClosed, got.Status)
		require.Equal(t, "wrapped up", got.Metadata[types.MetadataCloseReason],
			"close reason must survive a cache reset")
	} else {
		require.Equal(t, created.WorkflowState, got.WorkflowState)
	}
	if caps.CanManageDependencies {
		deps, err := b.ListDependencies(ctx, blocked.ID)
		require.NoError(t, err)
		require.Len(t, deps, 1)
		require.Equal(t, created.ID, deps[0].Source, "dependency edges must survive a cache reset")
	}
}

func testUnsupported(t *testing.T, newBackend Factory) {
	b := newBackend(t)
	ctx := context.Background()
	caps := b.Capabilities()

	if !caps.CanCreate {
		_, err := b.CreateBead(ctx, backend.CreateRequest{Title: "x"})
		requireUnavailable(t, err)
	}
	if !caps.CanUpdate {
		_, err := b.UpdateBead(ctx, "fl-x", backend.UpdateRequest{})
		requireUnavailable(t, err)
	}
	if !caps.CanClose {
		_, err := b.CloseBead(ctx, "fl-x", backend.CloseOptions{})
		requireUnavailable(t, err)
	}
	if !caps.CanDelete {
		requireUnavailable(t, b.DeleteBead(ctx, "fl-x"))
	}
	if !caps.CanManageDependencies {
		requireUnavailable(t, b.AddDependency(ctx, "fl-a", "fl-b"))
		requireUnavailable(t, b.RemoveDependency(ctx, "fl-a", "fl-b"))
	}
	// Prompt rendering presupposes a store that can hold beads; a backend
	// with no create capability must refuse rather than answer NOT_FOUND.
	if !caps.CanCreate {
		_, err := b.BuildTakePrompt(ctx, "fl-x")
		requireUnavailable(t, err)
		_, err = b.BuildPollPrompt(ctx, "fl-x")
		requireUnavailable(t, err)
	}
}

func requireUnavailable(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, backenderr.Unavailable, backenderr.CodeOf(err), "unsupported ops must answer UNAVAILABLE, got: %v", err)
	require.False(t, backenderr.IsCode(err, backenderr.Internal))
}

func beadIDs(beads []*types.Bead) []string {
	ids := make([]string, len(beads))
	for i, b := range beads {
		ids[i] = b.ID
	}
	return ids
}
