// Package backend defines the port every bead store adapter implements.
//
// Consumers depend on the Backend interface and its capability descriptor
// rather than on concrete adapters, so the JSONL file store, the bd CLI
// wrapper, and the stub can be swapped without callers knowing which one is
// behind the port. Modeled on the storage/tracker split in bd itself.
package backend

import (
	"context"
	"time"

	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// Backend is the port contract. Every call site must consult Capabilities
// before invoking a write/search/query/dependency operation; adapters answer
// unsupported operations with UNAVAILABLE, never a crash.
type Backend interface {
	// Name returns the adapter identifier (e.g. "jsonl", "bd", "stub").
	Name() string

	// Capabilities returns the static capability descriptor. The value is
	// fixed per instance and never mutated at runtime.
	Capabilities() Capabilities

	// Reads
	ListBeads(ctx context.Context, filter ListFilter) ([]*types.Bead, error)
	ListReady(ctx context.Context, filter ListFilter) ([]*types.Bead, error)
	SearchBeads(ctx context.Context, text string, filter ListFilter) ([]*types.Bead, error)
	QueryBeads(ctx context.Context, expr string, filter ListFilter) ([]*types.Bead, error)
	GetBead(ctx context.Context, id string) (*types.Bead, error)

	// Writes
	CreateBead(ctx context.Context, req CreateRequest) (*types.Bead, error)
	UpdateBead(ctx context.Context, id string, req UpdateRequest) (*types.Bead, error)
	CloseBead(ctx context.Context, id string, opts CloseOptions) (*types.Bead, error)
	DeleteBead(ctx context.Context, id string) error

	// Dependencies
	AddDependency(ctx context.Context, blockerID, blockedID string) error
	RemoveDependency(ctx context.Context, blockerID, blockedID string) error
	// ListDependencies returns edges touching id from either direction,
	// each normalized relative to id.
	ListDependencies(ctx context.Context, id string) ([]types.Dependency, error)

	// Prompts
	BuildTakePrompt(ctx context.Context, id string) (string, error)
	BuildPollPrompt(ctx context.Context, id string) (string, error)

	// Workflows
	ListWorkflows(ctx context.Context) ([]*workflow.Descriptor, error)

	// Close releases adapter resources. It does not close beads.
	Close() error
}

// Capabilities declares which operations a backend supports. Immutable per
// backend instance.
type Capabilities struct {
	CanCreate             bool `json:"can_create"`
	CanUpdate             bool `json:"can_update"`
	CanDelete             bool `json:"can_delete"`
	CanClose              bool `json:"can_close"`
	CanSearch             bool `json:"can_search"`
	CanQuery              bool `json:"can_query"`
	CanListReady          bool `json:"can_list_ready"`
	CanManageDependencies bool `json:"can_manage_dependencies"`
	CanManageLabels       bool `json:"can_manage_labels"`
	CanSync               bool `json:"can_sync"`
	MaxConcurrency        int  `json:"max_concurrency"`
}

// Gate returns nil when supported is true and the uniform UNAVAILABLE
// contract error otherwise.
func Gate(backendName, op string, supported bool) error {
	if supported {
		return nil
	}
	return backenderr.Unsupported(backendName, op)
}

// ListFilter narrows read operations. Nil pointer fields mean "any".
type ListFilter struct {
	Status              *types.Status
	Type                *types.BeadType
	Priority            *int
	Assignee            *string
	Owner               *string
	Parent              *string
	NextOwnerKind       *workflow.OwnerKind
	RequiresHumanAction *bool
	WorkflowID          *string
	ProfileID           *string
	Labels              []string // AND semantics
	Limit               int      // 0 = no limit
}

// Matches reports whether a bead (with its derived runtime state) passes
// the filter. Adapters without server-side filtering apply this client-side.
func (f ListFilter) Matches(b *types.Bead, rs workflow.RuntimeState) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.Type != nil && b.BeadType != *f.Type {
		return false
	}
	if f.Priority != nil && b.Priority != *f.Priority {
		return false
	}
	if f.Assignee != nil && b.Assignee != *f.Assignee {
		return false
	}
	if f.Owner != nil && b.Owner != *f.Owner {
		return false
	}
	if f.Parent != nil && b.Parent != *f.Parent {
		return false
	}
	if f.NextOwnerKind != nil && rs.NextActionOwnerKind != *f.NextOwnerKind {
		return false
	}
	if f.RequiresHumanAction != nil && rs.RequiresHumanAction != *f.RequiresHumanAction {
		return false
	}
	if f.WorkflowID != nil && b.WorkflowID != *f.WorkflowID {
		return false
	}
	if f.ProfileID != nil && b.ProfileID != *f.ProfileID {
		return false
	}
	for _, l := range f.Labels {
		if !b.HasLabel(l) {
			return false
		}
	}
	return true
}

// CreateRequest carries the fields of a new bead. One explicit options
// struct per operation; no flag-vs-options overloads.
type CreateRequest struct {
	Title              string
	Description        string
	AcceptanceCriteria string
	Notes              string
	Type               types.BeadType
	Priority           *int // nil = default (2)
	Labels             []string
	Assignee           string
	Owner              string
	Parent             string
	ProfileID          string // "" = default profile
	EstimatedMinutes   *int
	Metadata           map[string]string
}

// UpdateRequest is a partial field replace. Nil pointers leave fields
// untouched. Labels are additive and RemoveLabels subtractive; both may be
// set in one call.
type UpdateRequest struct {
	Title              *string
	Description        *string
	AcceptanceCriteria *string
	Notes              *string
	Type               *types.BeadType
	Priority           *int
	Assignee           *string
	Owner              *string
	Parent             *string
	State              *string
	ProfileID          *string
	EstimatedMinutes   *int
	Labels             []string
	RemoveLabels       []string
	Metadata           map[string]string // merged key-by-key
}

// Empty reports whether the update changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.AcceptanceCriteria == nil &&
		r.Notes == nil && r.Type == nil && r.Priority == nil && r.Assignee == nil &&
		r.Owner == nil && r.Parent == nil && r.State == nil && r.ProfileID == nil &&
		r.EstimatedMinutes == nil && len(r.Labels) == 0 && len(r.RemoveLabels) == 0 &&
		len(r.Metadata) == 0
}

// CloseOptions configures CloseBead. An empty Reason leaves
// metadata.close_reason unset.
type CloseOptions struct {
	Reason string
}

// Config carries the adapter settings a factory needs. The zero value plus
// Dir is enough for the JSONL store.
type Config struct {
	// Dir is the project data directory (e.g. ".foolery").
	Dir string
	// JSONLPath overrides the default beads.jsonl location.
	JSONLPath string
	// BDBinary is the bd executable for the CLI adapter.
	BDBinary string
	// BDDBPath is passed to bd via --db when set.
	BDDBPath string
	// Timeout bounds each subprocess invocation.
	Timeout time.Duration
	// Actor is recorded as the creator of new beads.
	Actor string
	// IDPrefix prefixes generated bead ids (default "fl").
	IDPrefix string
}
