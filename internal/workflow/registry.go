package workflow

import (
	"sort"
	"strings"
)

// Canonical profile ids.
const (
	ProfileAutopilot       = "autopilot"
	ProfileAutopilotXpress = "autopilot-express"
	ProfileSemiauto        = "semiauto"
	ProfileSemiautoXpress  = "semiauto-express"
)

// DefaultProfileID is the profile used when nothing else resolves.
const DefaultProfileID = ProfileAutopilot

// builtins holds the static profile table. Never mutated after init; all
// public accessors return clones.
var builtins = []*Descriptor{
	{
		ID:                ProfileAutopilot,
		BackingWorkflowID: "knots-granular-autonomous",
		LegacyAliases:     []string{"beads-coarse", "knots-granular-autonomous"},
		Label:             "Autopilot",
		Mode:              ModeGranularAutonomous,
		InitialState:      StateReadyForPlanning,
		States: []string{
			StateReadyForPlanning, StatePlanning,
			StateReadyForPlanReview, StatePlanReview,
			StateReadyForImplementation, StateImplementation,
			StateReadyForImplementationReview, StateImplementationReview,
			StateReadyForShipment, StateShipment,
			StateReadyForShipmentReview, StateShipmentReview,
			StateShipped, StateRework, StateDeferred,
		},
		ActionStates: []string{
			StatePlanning, StatePlanReview,
			StateImplementation, StateImplementationReview,
			StateShipment, StateShipmentReview,
		},
		TerminalStates:  []string{StateShipped},
		RetakeState:     StateRework,
		PromptProfileID: "granular",
		Owners: map[Step]OwnerKind{
			StepPlanning:             OwnerAgent,
			StepPlanReview:           OwnerAgent,
			StepImplementation:       OwnerAgent,
			StepImplementationReview: OwnerAgent,
			StepShipment:             OwnerAgent,
			StepShipmentReview:       OwnerAgent,
		},
	},
	{
		ID:                ProfileAutopilotXpress,
		BackingWorkflowID: "knots-granular-express",
		LegacyAliases:     []string{"beads-granular-express"},
		Label:             "Autopilot Express",
		Mode:              ModeGranularAutonomous,
		InitialState:      StateReadyForImplementation,
		States: []string{
			StateReadyForImplementation, StateImplementation,
			StateReadyForImplementationReview, StateImplementationReview,
			StateReadyForShipment, StateShipment,
			StateReadyForShipmentReview, StateShipmentReview,
			StateShipped, StateRework, StateDeferred,
		},
		ActionStates: []string{
			StateImplementation, StateImplementationReview,
			StateShipment, StateShipmentReview,
		},
		TerminalStates:  []string{StateShipped},
		RetakeState:     StateRework,
		PromptProfileID: "granular",
		Owners: map[Step]OwnerKind{
			StepImplementation:       OwnerAgent,
			StepImplementationReview: OwnerAgent,
			StepShipment:             OwnerAgent,
			StepShipmentReview:       OwnerAgent,
		},
	},
	{
		ID:                ProfileSemiauto,
		BackingWorkflowID: "knots-coarse-human-gated",
		LegacyAliases:     []string{"knots-coarse-human-gated"},
		Label:             "Semiauto",
		Mode:              ModeCoarseHumanGated,
		InitialState:      StateReadyForPlanning,
		States: []string{
			StateReadyForPlanning, StatePlanning,
			StateReadyForPlanReview, StatePlanReview,
			StateReadyForImplementation, StateImplementation,
			StateReadyForImplementationReview, StateImplementationReview,
			StateReadyForShipment, StateShipment,
			StateReadyForShipmentReview, StateShipmentReview,
			StateShipped, StateRework, StateDeferred,
		},
		ActionStates: []string{
			StatePlanning, StatePlanReview,
			StateImplementation, StateImplementationReview,
			StateShipment, StateShipmentReview,
		},
		TerminalStates:  []string{StateShipped},
		RetakeState:     StateRework,
		FinalCutState:   StateShipmentReview,
		PromptProfileID: "coarse",
		Owners: map[Step]OwnerKind{
			StepPlanning:             OwnerAgent,
			StepPlanReview:           OwnerHuman,
			StepImplementation:       OwnerAgent,
			StepImplementationReview: OwnerHuman,
			StepShipment:             OwnerAgent,
			StepShipmentReview:       OwnerHuman,
		},
	},
	{
		ID:                ProfileSemiautoXpress,
		BackingWorkflowID: "knots-coarse-express",
		LegacyAliases:     []string{"beads-coarse-express"},
		Label:             "Semiauto Express",
		Mode:              ModeCoarseHumanGated,
		InitialState:      StateReadyForImplementation,
		States: []string{
			StateReadyForImplementation, StateImplementation,
			StateReadyForImplementationReview, StateImplementationReview,
			StateShipped, StateRework, StateDeferred,
		},
		ActionStates: []string{
			StateImplementation, StateImplementationReview,
		},
		TerminalStates:  []string{StateShipped},
		RetakeState:     StateRework,
		FinalCutState:   StateImplementationReview,
		PromptProfileID: "coarse",
		Owners: map[Step]OwnerKind{
			StepImplementation:       OwnerAgent,
			StepImplementationReview: OwnerHuman,
		},
	},
}

// aliasIndex maps canonical ids, backing ids, and every legacy alias to the
// canonical descriptor. Built once at package init; consulted by one
// normalization function rather than inline alias checks at call sites.
var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]*Descriptor {
	idx := make(map[string]*Descriptor)
	for _, d := range builtins {
		if err := d.Validate(); err != nil {
			panic(err)
		}
		idx[d.ID] = d
		idx[d.BackingWorkflowID] = d
		for _, alias := range d.LegacyAliases {
			idx[alias] = d
		}
	}
	return idx
}

// BuiltinDescriptors returns deep copies of all builtin profiles.
func BuiltinDescriptors() []*Descriptor {
	out := make([]*Descriptor, len(builtins))
	for i, d := range builtins {
		out[i] = d.Clone()
	}
	return out
}

// DefaultDescriptor returns a copy of the default profile.
func DefaultDescriptor() *Descriptor {
	return aliasIndex[DefaultProfileID].Clone()
}

// BuiltinProfileDescriptor resolves a profile id, backing workflow id, or
// legacy alias to a copy of its descriptor. Unknown ids resolve to the
// default profile: records tagged with retired profile names keep working
// instead of erroring.
func BuiltinProfileDescriptor(id string) *Descriptor {
	if d, ok := aliasIndex[normalizeID(id)]; ok {
		return d.Clone()
	}
	return DefaultDescriptor()
}

// CanonicalProfileID resolves any known id or alias to the canonical
// profile id, falling back to the default profile id.
func CanonicalProfileID(id string) string {
	if d, ok := aliasIndex[normalizeID(id)]; ok {
		return d.ID
	}
	return DefaultProfileID
}

// IsSupportedProfile reports whether id resolves to a builtin profile
// without falling back to the default.
func IsSupportedProfile(id string) bool {
	_, ok := aliasIndex[normalizeID(id)]
	return ok
}

// DescriptorByID finds a descriptor in the given list by canonical id,
// backing id, or alias. Returns nil when absent.
func DescriptorByID(id string, list []*Descriptor) *Descriptor {
	want := normalizeID(id)
	for _, d := range list {
		if d.ID == want || d.BackingWorkflowID == want {
			return d
		}
		for _, alias := range d.LegacyAliases {
			if alias == want {
				return d
			}
		}
	}
	return nil
}

// SortDescriptors orders a descriptor list for display: the default profile
// first, then by id.
func SortDescriptors(list []*Descriptor) {
	sort.SliceStable(list, func(i, j int) bool {
		if (list[i].ID == DefaultProfileID) != (list[j].ID == DefaultProfileID) {
			return list[i].ID == DefaultProfileID
		}
		return list[i].ID < list[j].ID
	})
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
