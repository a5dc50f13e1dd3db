package types

import "sort"

// SortBeads orders beads by priority (P0 first), then by creation time
// (oldest first), then by id for a stable tiebreak.
func SortBeads(beads []*Bead) {
	sort.SliceStable(beads, func(i, j int) bool {
		if beads[i].Priority != beads[j].Priority {
			return beads[i].Priority < beads[j].Priority
		}
		if !beads[i].CreatedAt.Equal(beads[j].CreatedAt) {
			return beads[i].CreatedAt.Before(beads[j].CreatedAt)
		}
		return beads[i].ID < beads[j].ID
	})
}
