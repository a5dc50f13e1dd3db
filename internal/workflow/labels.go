package workflow

import (
	"strconv"
	"strings"
)

// Namespaced label tags. Labels are the backward-compatible serialization
// channel for workflow state; this codec is the single boundary where that
// string convention is read or written.
const (
	LabelStatePrefix   = "wf:state:"
	LabelProfilePrefix = "wf:profile:"

	LabelStageVerification = "stage:verification"
	LabelStageRetry        = "stage:retry"
	LabelAttemptsPrefix    = "attempts:"
)

// ExtractStateLabel returns the value of the first wf:state: tag, skipping
// empty-valued tags. First match wins; label order is significant for ties.
func ExtractStateLabel(labels []string) string {
	return extractTag(labels, LabelStatePrefix)
}

// ExtractProfileLabel returns the value of the first wf:profile: tag.
func ExtractProfileLabel(labels []string) string {
	return extractTag(labels, LabelProfilePrefix)
}

func extractTag(labels []string, prefix string) string {
	for _, l := range labels {
		if !strings.HasPrefix(l, prefix) {
			continue
		}
		if v := strings.TrimSpace(strings.TrimPrefix(l, prefix)); v != "" {
			return v
		}
	}
	return ""
}

// WithStateLabel strips all wf:state: tags, appends the canonical one, and
// de-duplicates while preserving the insertion order of other labels.
func WithStateLabel(labels []string, state string) []string {
	return withTag(labels, LabelStatePrefix, state)
}

// WithProfileLabel strips all wf:profile: tags and appends the canonical one.
func WithProfileLabel(labels []string, profile string) []string {
	return withTag(labels, LabelProfilePrefix, profile)
}

func withTag(labels []string, prefix, value string) []string {
	out := make([]string, 0, len(labels)+1)
	seen := make(map[string]struct{}, len(labels)+1)
	for _, l := range labels {
		if strings.HasPrefix(l, prefix) {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if value != "" {
		out = append(out, prefix+value)
	}
	return out
}

// AttemptCount returns the value of the first attempts:<n> tag, or 0.
func AttemptCount(labels []string) int {
	v := extractTag(labels, LabelAttemptsPrefix)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// AttemptLabel formats an attempts:<n> tag.
func AttemptLabel(n int) string {
	return LabelAttemptsPrefix + strconv.Itoa(n)
}
