// Package types defines the core data structures for foolery beads.
package types

import (
	"fmt"
	"time"
)

// Bead represents one unit of trackable work.
//
// Status is the legacy coarse status and is always kept derivable from
// WorkflowState; backends recompute it on every write so the two never
// diverge.
type Bead struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	AcceptanceCriteria string     `json:"acceptance_criteria,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Status             Status     `json:"status,omitempty"`
	Priority           int        `json:"priority"` // No omitempty: 0 is valid (P0/critical)
	BeadType           BeadType   `json:"bead_type,omitempty"`
	Labels             []string   `json:"labels,omitempty"`
	Assignee           string     `json:"assignee,omitempty"`
	Owner              string     `json:"owner,omitempty"`
	Parent             string     `json:"parent,omitempty"` // Referential only; no cascading delete
	EstimatedMinutes   *int       `json:"estimated_minutes,omitempty"`
	WorkflowID         string     `json:"workflow_id,omitempty"`
	ProfileID          string     `json:"profile_id,omitempty"`
	WorkflowState      string     `json:"workflow_state,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`

	// Metadata carries free-form adapter data. The "close_reason" key is
	// set by CloseBead when a reason is provided.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MetadataCloseReason is the metadata key recording why a bead was closed.
const MetadataCloseReason = "close_reason"

// Validate checks that the bead has valid field values.
func (b *Bead) Validate() error {
	if len(b.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(b.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(b.Title))
	}
	if b.Priority < 0 || b.Priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", b.Priority)
	}
	if !b.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", b.Status)
	}
	if !b.BeadType.IsValid() {
		return fmt.Errorf("invalid bead type: %s", b.BeadType)
	}
	if b.EstimatedMinutes != nil && *b.EstimatedMinutes < 0 {
		return fmt.Errorf("estimated_minutes cannot be negative")
	}
	if b.Status == StatusClosed && b.ClosedAt == nil {
		return fmt.Errorf("closed beads must have closed_at timestamp")
	}
	if b.Status != StatusClosed && b.ClosedAt != nil {
		return fmt.Errorf("non-closed beads cannot have closed_at timestamp")
	}
	return nil
}

// SetDefaults applies default values for fields omitted during JSONL import.
// Priority 0 is a valid value (P0) and is left untouched; the default of 2
// applies only to newly created beads, not imported ones.
func (b *Bead) SetDefaults() {
	if b.Status == "" {
		b.Status = StatusOpen
	}
	if b.BeadType == "" {
		b.BeadType = TypeTask
	}
}

// Clone returns a deep copy of the bead.
func (b *Bead) Clone() *Bead {
	out := *b
	if b.Labels != nil {
		out.Labels = append([]string(nil), b.Labels...)
	}
	if b.EstimatedMinutes != nil {
		v := *b.EstimatedMinutes
		out.EstimatedMinutes = &v
	}
	if b.ClosedAt != nil {
		t := *b.ClosedAt
		out.ClosedAt = &t
	}
	if b.Metadata != nil {
		out.Metadata = make(map[string]string, len(b.Metadata))
		for k, v := range b.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// HasLabel reports whether the bead carries the given label.
func (b *Bead) HasLabel(label string) bool {
	for _, l := range b.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Status represents the legacy coarse state of a bead.
type Status string

// Bead status constants
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusClosed     Status = "closed"
)

// IsValid checks if the status value is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred, StatusClosed:
		return true
	}
	return false
}

// BeadType categorizes the kind of work.
type BeadType string

// Bead type constants
const (
	TypeBug          BeadType = "bug"
	TypeFeature      BeadType = "feature"
	TypeTask         BeadType = "task"
	TypeEpic         BeadType = "epic"
	TypeChore        BeadType = "chore"
	TypeMergeRequest BeadType = "merge-request"
	TypeMolecule     BeadType = "molecule"
	TypeGate         BeadType = "gate"
)

// IsValid checks if the bead type value is valid.
func (t BeadType) IsValid() bool {
	switch t {
	case TypeBug, TypeFeature, TypeTask, TypeEpic, TypeChore, TypeMergeRequest, TypeMolecule, TypeGate:
		return true
	}
	return false
}

// DependencyType categorizes a dependency relationship.
type DependencyType string

// Dependency type constants. Only "blocks" affects readiness today.
const (
	DepBlocks DependencyType = "blocks"
)

// IsValid checks if the dependency type value is valid.
func (d DependencyType) IsValid() bool {
	return d == DepBlocks
}

// DependencyEdge is a directed (blocker, blocked) pair as stored by a backend.
type DependencyEdge struct {
	BlockerID string         `json:"blocker_id"`
	BlockedID string         `json:"blocked_id"`
	Type      DependencyType `json:"type"`
}

// Dependency is an edge as reported to callers: normalized relative to the
// bead it was listed for. ID names the other endpoint; Source and Target
// preserve the edge direction.
type Dependency struct {
	ID     string         `json:"id"`
	Type   DependencyType `json:"type"`
	Source string         `json:"source"`
	Target string         `json:"target"`
}

// Normalize converts a stored edge into the caller-facing shape, relative
// to the bead with the given id.
func (e DependencyEdge) Normalize(relativeTo string) Dependency {
	other := e.BlockerID
	if relativeTo == e.BlockerID {
		other = e.BlockedID
	}
	return Dependency{
		ID:     other,
		Type:   e.Type,
		Source: e.BlockerID,
		Target: e.BlockedID,
	}
}

// Touches reports whether the edge involves the given bead id.
func (e DependencyEdge) Touches(id string) bool {
	return e.BlockerID == id || e.BlockedID == id
}
