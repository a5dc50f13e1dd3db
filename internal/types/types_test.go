package types

import (
	"testing"
	"time"
)

func validBead() *Bead {
	return &Bead{
		ID:        "fl-a1",
		Title:     "A bead",
		Status:    StatusOpen,
		Priority:  2,
		BeadType:  TypeTask,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()
	neg := -5

	tests := []struct {
		name    string
		mutate  func(*Bead)
		wantErr bool
	}{
		{"valid", func(b *Bead) {}, false},
		{"missing title", func(b *Bead) { b.Title = "" }, true},
		{"title too long", func(b *Bead) {
			long := make([]byte, 501)
			for i := range long {
				long[i] = 'x'
			}
			b.Title = string(long)
		}, true},
		{"priority too high", func(b *Bead) { b.Priority = 5 }, true},
		{"priority negative", func(b *Bead) { b.Priority = -1 }, true},
		{"bad status", func(b *Bead) { b.Status = "nope" }, true},
		{"bad type", func(b *Bead) { b.BeadType = "nope" }, true},
		{"negative estimate", func(b *Bead) { b.EstimatedMinutes = &neg }, true},
		{"closed without closed_at", func(b *Bead) { b.Status = StatusClosed }, true},
		{"open with closed_at", func(b *Bead) { b.ClosedAt = &now }, true},
		{"closed with closed_at", func(b *Bead) {
			b.Status = StatusClosed
			b.ClosedAt = &now
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBead()
			tt.mutate(b)
			err := b.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	b := &Bead{Title: "x"}
	b.SetDefaults()
	if b.Status != StatusOpen {
		t.Errorf("Status = %q, want open", b.Status)
	}
	if b.BeadType != TypeTask {
		t.Errorf("BeadType = %q, want task", b.BeadType)
	}

	// P0 must survive defaulting.
	p0 := &Bead{Title: "x", Priority: 0, Status: StatusOpen, BeadType: TypeBug}
	p0.SetDefaults()
	if p0.Priority != 0 || p0.BeadType != TypeBug {
		t.Errorf("SetDefaults() overwrote explicit fields: %+v", p0)
	}
}

func TestCloneIsDeep(t *testing.T) {
	est := 30
	closed := time.Now()
	b := validBead()
	b.Labels = []string{"a"}
	b.EstimatedMinutes = &est
	b.Status = StatusClosed
	b.ClosedAt = &closed
	b.Metadata = map[string]string{"close_reason": "done"}

	c := b.Clone()
	c.Labels[0] = "mutated"
	*c.EstimatedMinutes = 99
	c.Metadata["close_reason"] = "mutated"
	*c.ClosedAt = closed.Add(time.Hour)

	if b.Labels[0] != "a" {
		t.Error("labels shared between clone and original")
	}
	if *b.EstimatedMinutes != 30 {
		t.Error("estimate shared between clone and original")
	}
	if b.Metadata["close_reason"] != "done" {
		t.Error("metadata shared between clone and original")
	}
	if !b.ClosedAt.Equal(closed) {
		t.Error("closed_at shared between clone and original")
	}
}

func TestSortBeads(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	beads := []*Bead{
		{ID: "fl-c", Priority: 2, CreatedAt: t0},
		{ID: "fl-a", Priority: 0, CreatedAt: t0.Add(time.Hour)},
		{ID: "fl-d", Priority: 2, CreatedAt: t0},
		{ID: "fl-b", Priority: 2, CreatedAt: t0.Add(-time.Hour)},
	}
	SortBeads(beads)
	want := []string{"fl-a", "fl-b", "fl-c", "fl-d"}
	for i, id := range want {
		if beads[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(beads), want)
		}
	}
}

func ids(beads []*Bead) []string {
	out := make([]string, len(beads))
	for i, b := range beads {
		out[i] = b.ID
	}
	return out
}

func TestDependencyEdgeNormalize(t *testing.T) {
	e := DependencyEdge{BlockerID: "fl-a", BlockedID: "fl-b", Type: DepBlocks}

	fromBlocker := e.Normalize("fl-a")
	if fromBlocker.ID != "fl-b" || fromBlocker.Source != "fl-a" || fromBlocker.Target != "fl-b" {
		t.Errorf("Normalize(blocker) = %+v", fromBlocker)
	}
	fromBlocked := e.Normalize("fl-b")
	if fromBlocked.ID != "fl-a" || fromBlocked.Source != "fl-a" || fromBlocked.Target != "fl-b" {
		t.Errorf("Normalize(blocked) = %+v", fromBlocked)
	}

	if !e.Touches("fl-a") || !e.Touches("fl-b") || e.Touches("fl-c") {
		t.Error("Touches() misreported edge endpoints")
	}
}
