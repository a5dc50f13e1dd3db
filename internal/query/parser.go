// Package query implements the small field:value expression language used
// to filter beads.
//
// An expression is a whitespace-separated list of field:value terms combined
// with AND semantics:
//
//	status:open type:task
//	profile:autopilot human:true
//
// Unknown fields match every record. That permissiveness is deliberate: a
// newer caller can send a field an older evaluator has never heard of
// without suddenly filtering everything out.
package query

import "strings"

// Term is a single field:value comparison.
type Term struct {
	Field string
	Value string
}

// Parse splits an expression into its terms. Field names are lowercased;
// values keep their case. A bare word without a colon becomes a term with
// an empty field, which matches everything.
func Parse(expr string) []Term {
	var terms []Term
	for _, raw := range strings.Fields(expr) {
		field, value, ok := strings.Cut(raw, ":")
		if !ok {
			terms = append(terms, Term{Value: raw})
			continue
		}
		terms = append(terms, Term{
			Field: strings.ToLower(strings.TrimSpace(field)),
			Value: strings.TrimSpace(value),
		})
	}
	return terms
}
