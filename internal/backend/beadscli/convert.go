package beadscli

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fooleryhq/foolery/internal/types"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// rawIssue mirrors the JSON bd emits for list/ready/show.
type rawIssue struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	AcceptanceCriteria string     `json:"acceptance_criteria,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Status             string     `json:"status,omitempty"`
	Priority           int        `json:"priority"`
	IssueType          string     `json:"issue_type,omitempty"`
	Assignee           string     `json:"assignee,omitempty"`
	EstimatedMinutes   *int       `json:"estimated_minutes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
	CloseReason        string     `json:"close_reason,omitempty"`
	Labels             []string   `json:"labels,omitempty"`
}

// toBead converts a bd issue into the domain model. Profile and workflow
// state are derived from bd labels; bd itself only knows coarse status.
func (r *rawIssue) toBead() *types.Bead {
	profileID := workflow.DeriveProfileID(r.Labels, nil)
	wf := workflow.BuiltinProfileDescriptor(profileID)
	state := workflow.DeriveWorkflowState(types.Status(r.Status), r.Labels, wf)

	b := &types.Bead{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		AcceptanceCriteria: r.AcceptanceCriteria,
		Notes:              r.Notes,
		Status:             types.Status(r.Status),
		Priority:           r.Priority,
		BeadType:           types.BeadType(r.IssueType),
		Labels:             append([]string(nil), r.Labels...),
		Assignee:           r.Assignee,
		Parent:             inferParentID(r.ID),
		EstimatedMinutes:   r.EstimatedMinutes,
		WorkflowID:         wf.BackingWorkflowID,
		ProfileID:          profileID,
		WorkflowState:      state,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		ClosedAt:           r.ClosedAt,
	}
	if r.CloseReason != "" {
		b.Metadata = map[string]string{types.MetadataCloseReason: r.CloseReason}
	}
	b.SetDefaults()
	return b
}

// inferParentID recovers hierarchy from bd's dotted child ids: "fl-a3.1" is
// a child of "fl-a3". Undotted ids have no parent.
func inferParentID(id string) string {
	if i := strings.LastIndex(id, "."); i > 0 {
		return id[:i]
	}
	return ""
}

func decodeIssues(out string) ([]*rawIssue, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == "null" {
		return nil, nil
	}
	var issues []*rawIssue
	if err := json.Unmarshal([]byte(out), &issues); err != nil {
		return nil, fmt.Errorf("parse bd issue list: %w", err)
	}
	return issues, nil
}

func decodeIssue(out string) (*rawIssue, error) {
	out = strings.TrimSpace(out)
	var issue rawIssue
	if err := json.Unmarshal([]byte(out), &issue); err == nil && issue.ID != "" {
		return &issue, nil
	}
	// bd show --json wraps single issues in an array in some versions.
	issues, err := decodeIssues(out)
	if err == nil && len(issues) == 1 {
		return issues[0], nil
	}
	return nil, fmt.Errorf("parse bd issue: unexpected output %.80q", out)
}

var createdIDRe = regexp.MustCompile(`\b([a-z][a-z0-9]*-[a-z0-9.]+)\b`)

// parseCreatedID extracts the new issue id from bd create output: JSON
// object when --json worked, otherwise the human "Created issue: <id>" line.
func parseCreatedID(out string) (string, error) {
	trimmed := strings.TrimSpace(out)
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(trimmed), &created); err == nil && created.ID != "" {
		return created.ID, nil
	}
	for _, line := range strings.Split(trimmed, "\n") {
		if !strings.Contains(strings.ToLower(line), "created") {
			continue
		}
		if m := createdIDRe.FindStringSubmatch(line); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("parse bd create output: no issue id in %.80q", out)
}
