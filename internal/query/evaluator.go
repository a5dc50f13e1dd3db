package query

import (
	"strconv"
	"strings"
)

// Record is the flattened view of a bead that terms are matched against.
// Backends populate it from the bead plus its derived runtime state.
type Record struct {
	Status              string
	State               string
	Type                string
	Priority            int
	Assignee            string
	Owner               string
	Parent              string
	Labels              []string
	NextOwnerKind       string
	RequiresHumanAction bool
	WorkflowID          string
	ProfileID           string
}

// Matches evaluates an expression against a record. Terms are ANDed;
// unknown fields match true.
func Matches(expr string, r Record) bool {
	for _, term := range Parse(expr) {
		if !matchTerm(term, r) {
			return false
		}
	}
	return true
}

func matchTerm(t Term, r Record) bool {
	switch t.Field {
	case "status":
		return eq(r.Status, t.Value)
	case "state", "workflowstate":
		return eq(r.State, t.Value)
	case "type":
		return eq(r.Type, t.Value)
	case "priority":
		// String comparison on the rendered priority, matching the
		// label-era behavior.
		return strconv.Itoa(r.Priority) == t.Value
	case "assignee":
		return eq(r.Assignee, t.Value)
	case "owner":
		return eq(r.Owner, t.Value)
	case "parent":
		return eq(r.Parent, t.Value)
	case "label":
		for _, l := range r.Labels {
			if eq(l, t.Value) {
				return true
			}
		}
		return false
	case "nextowner", "nextownerkind":
		return eq(r.NextOwnerKind, t.Value)
	case "requireshumanaction", "human":
		want, err := strconv.ParseBool(strings.ToLower(t.Value))
		if err != nil {
			return true
		}
		return r.RequiresHumanAction == want
	case "workflow", "workflowid":
		return eq(r.WorkflowID, t.Value)
	case "profile", "profileid":
		return eq(r.ProfileID, t.Value)
	default:
		return true
	}
}

func eq(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
