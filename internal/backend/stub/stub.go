// Package stub is the no-op backend used by UI development and tests that
// need a wired port without real storage. Reads succeed with empty results;
// every write and prompt operation answers UNAVAILABLE.
package stub

import (
	"context"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// BackendName is the registry name of this adapter.
const BackendName = "stub"

func init() {
	backend.Register(BackendName, func(backend.Config) (backend.Backend, error) {
		return New(), nil
	})
}

// Stub implements the backend port with no storage behind it.
type Stub struct{}

var _ backend.Backend = (*Stub)(nil)

// New returns the stub backend.
func New() *Stub { return &Stub{} }

// Name implements backend.Backend.
func (s *Stub) Name() string { return BackendName }

// Capabilities implements backend.Backend: everything off.
func (s *Stub) Capabilities() backend.Capabilities {
	return backend.Capabilities{}
}

// Close implements backend.Backend.
func (s *Stub) Close() error { return nil }

func (s *Stub) ListBeads(ctx context.Context, filter backend.ListFilter) ([]*types.Bead, error) {
	return nil, nil
}

func (s *Stub) ListReady(ctx context.Context, filter backend.ListFilter) ([]*types.Bead, error) {
	return nil, nil
}

func (s *Stub) SearchBeads(ctx context.Context, text string, filter backend.ListFilter) ([]*types.Bead, error) {
	return nil, nil
}

func (s *Stub) QueryBeads(ctx context.Context, expr string, filter backend.ListFilter) ([]*types.Bead, error) {
	return nil, nil
}

func (s *Stub) GetBead(ctx context.Context, id string) (*types.Bead, error) {
	return nil, backenderr.NotFoundf("bead %s not found", id)
}

func (s *Stub) CreateBead(ctx context.Context, req backend.CreateRequest) (*types.Bead, error) {
	return nil, backenderr.Unsupported(BackendName, "CreateBead")
}

func (s *Stub) UpdateBead(ctx context.Context, id string, req backend.UpdateRequest) (*types.Bead, error) {
	return nil, backenderr.Unsupported(BackendName, "UpdateBead")
}

func (s *Stub) CloseBead(ctx context.Context, id string, opts backend.CloseOptions) (*types.Bead, error) {
	return nil, backenderr.Unsupported(BackendName, "CloseBead")
}

func (s *Stub) DeleteBead(ctx context.Context, id string) error {
	return backenderr.Unsupported(BackendName, "DeleteBead")
}

func (s *Stub) AddDependency(ctx context.Context, blockerID, blockedID string) error {
	return backenderr.Unsupported(BackendName, "AddDependency")
}

func (s *Stub) RemoveDependency(ctx context.Context, blockerID, blockedID string) error {
	return backenderr.Unsupported(BackendName, "RemoveDependency")
}

func (s *Stub) ListDependencies(ctx context.Context, id string) ([]types.Dependency, error) {
	return nil, nil
}

func (s *Stub) BuildTakePrompt(ctx context.Context, id string) (string, error) {
	return "", backenderr.Unsupported(BackendName, "BuildTakePrompt")
}

func (s *Stub) BuildPollPrompt(ctx context.Context, id string) (string, error) {
	return "", backenderr.Unsupported(BackendName, "BuildPollPrompt")
}

func (s *Stub) ListWorkflows(ctx context.Context) ([]*workflow.Descriptor, error) {
	return workflow.BuiltinDescriptors(), nil
}
