package query

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want []Term
	}{
		{"", nil},
		{"status:open", []Term{{Field: "status", Value: "open"}}},
		{"status:open type:task", []Term{
			{Field: "status", Value: "open"},
			{Field: "type", Value: "task"},
		}},
		{"STATUS:Open", []Term{{Field: "status", Value: "Open"}}},
		{"bareword", []Term{{Value: "bareword"}}},
		{"label:wf:state:planning", []Term{{Field: "label", Value: "wf:state:planning"}}},
		{"  status:open   ", []Term{{Field: "status", Value: "open"}}},
	}
	for _, tt := range tests {
		if got := Parse(tt.expr); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.expr, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	rec := Record{
		Status:              "open",
		State:               "ready_for_implementation",
		Type:                "task",
		Priority:            2,
		Assignee:            "casey",
		Parent:              "fl-a1",
		Labels:              []string{"area:ui", "wf:state:ready_for_implementation"},
		NextOwnerKind:       "agent",
		RequiresHumanAction: false,
		WorkflowID:          "knots-granular-autonomous",
		ProfileID:           "autopilot",
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty matches", "", true},
		{"status hit", "status:open", true},
		{"status miss", "status:closed", false},
		{"case-insensitive value", "status:OPEN", true},
		{"state field", "state:ready_for_implementation", true},
		{"workflowstate alias", "workflowstate:ready_for_implementation", true},
		{"type", "type:task", true},
		{"priority string compare", "priority:2", true},
		{"priority miss", "priority:1", false},
		{"assignee", "assignee:casey", true},
		{"parent", "parent:fl-a1", true},
		{"label membership", "label:area:ui", true},
		{"label with nested colons", "label:wf:state:ready_for_implementation", true},
		{"label miss", "label:area:server", false},
		{"nextowner", "nextowner:agent", true},
		{"human false", "human:false", true},
		{"human true misses", "human:true", false},
		{"human unparsable matches", "human:maybe", true},
		{"workflow", "workflow:knots-granular-autonomous", true},
		{"profile", "profile:autopilot", true},
		{"and semantics", "status:open type:task", true},
		{"and short-circuits", "status:open type:bug", false},
		{"unknown field matches", "foo:bar", true},
		{"unknown field with miss still fails", "foo:bar status:closed", false},
		{"bare word matches", "anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.expr, rec); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}
