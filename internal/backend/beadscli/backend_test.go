package beadscli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fooleryhq/foolery/internal/backend"
	"github.com/fooleryhq/foolery/internal/backenderr"
	"github.com/fooleryhq/foolery/internal/workflow"
)

// fakeRunner scripts bd invocations and records every argv for assertions.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	handler func(args []string) (RunResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	return f.handler(args)
}

func (f *fakeRunner) argvs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c, " ")
	}
	return out
}

func newFakeBackend(runner Runner) *Backend {
	return NewWithRunner(backend.Config{BDBinary: "bd", Timeout: 5 * time.Second}, runner)
}

const showJSON = `{
	"id": "fl-a1",
	"title": "Wire the widget",
	"status": "open",
	"priority": 2,
	"issue_type": "task",
	"labels": ["wf:state:ready_for_planning", "wf:profile:autopilot"],
	"created_at": "2026-01-02T03:04:05Z",
	"updated_at": "2026-01-02T03:04:05Z"
}`

func TestGetBeadDerivesWorkflowFromLabels(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		return RunResult{Stdout: showJSON}, nil
	}}
	b := newFakeBackend(runner)

	got, err := b.GetBead(context.Background(), "fl-a1")
	if err != nil {
		t.Fatalf("GetBead() error = %v", err)
	}
	if got.ProfileID != workflow.ProfileAutopilot {
		t.Errorf("ProfileID = %q, want %q", got.ProfileID, workflow.ProfileAutopilot)
	}
	if got.WorkflowState != workflow.StateReadyForPlanning {
		t.Errorf("WorkflowState = %q, want %q", got.WorkflowState, workflow.StateReadyForPlanning)
	}
	if got.WorkflowID != "knots-granular-autonomous" {
		t.Errorf("WorkflowID = %q, want backing id", got.WorkflowID)
	}
}

func TestOutOfSyncTriggersSingleResyncRetry(t *testing.T) {
	attempt := 0
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		if args[0] == "sync" {
			return RunResult{}, nil
		}
		attempt++
		if attempt == 1 {
			return RunResult{
				ExitCode: 1,
				Stderr:   "Error: Database out of sync with JSONL. Run 'bd sync --import-only' to fix.",
			}, nil
		}
		return RunResult{Stdout: showJSON}, nil
	}}
	b := newFakeBackend(runner)

	got, err := b.GetBead(context.Background(), "fl-a1")
	if err != nil {
		t.Fatalf("GetBead() after resync error = %v", err)
	}
	if got.ID != "fl-a1" {
		t.Errorf("ID = %q, want fl-a1", got.ID)
	}

	want := []string{
		"show fl-a1 --json",
		"sync --import-only",
		"show fl-a1 --json",
	}
	if argvs := runner.argvs(); !equalSlices(argvs, want) {
		t.Errorf("invocations = %v, want %v", argvs, want)
	}
}

func TestOutOfSyncRetriesExactlyOnce(t *testing.T) {
	outOfSync := RunResult{
		ExitCode: 1,
		Stderr:   "Error: Database out of sync with JSONL. Run 'bd sync --import-only' to fix.",
	}
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		if args[0] == "sync" {
			return RunResult{}, nil
		}
		return outOfSync, nil
	}}
	b := newFakeBackend(runner)

	_, err := b.GetBead(context.Background(), "fl-a1")
	if err == nil {
		t.Fatal("GetBead() = nil error, want persistent out-of-sync failure")
	}
	if code := backenderr.CodeOf(err); code != backenderr.Unavailable {
		t.Errorf("code = %v, want UNAVAILABLE", code)
	}
	// show, sync, show: never a second resync round.
	if got := len(runner.argvs()); got != 3 {
		t.Errorf("invocations = %d (%v), want 3", got, runner.argvs())
	}
}

func TestTimeoutMapsToTimeoutCode(t *testing.T) {
	runner := &fakeRunner{handler: nil}
	runner.handler = func(args []string) (RunResult, error) {
		time.Sleep(50 * time.Millisecond)
		return RunResult{}, context.DeadlineExceeded
	}
	b := NewWithRunner(backend.Config{Timeout: time.Millisecond}, runner)

	_, err := b.GetBead(context.Background(), "fl-a1")
	if code := backenderr.CodeOf(err); code != backenderr.Timeout {
		t.Errorf("code = %v, want TIMEOUT", code)
	}
	if !backenderr.IsRetryable(err) {
		t.Error("timeout must be retryable")
	}
}

func TestLockedDatabaseMapsToLocked(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		return RunResult{ExitCode: 1, Stderr: "Error: database is locked"}, nil
	}}
	b := newFakeBackend(runner)

	err := b.DeleteBead(context.Background(), "fl-a1")
	if code := backenderr.CodeOf(err); code != backenderr.Locked {
		t.Errorf("code = %v, want LOCKED", code)
	}
	if !backenderr.IsRetryable(err) {
		t.Error("lock contention must be retryable")
	}
}

func TestNotFoundMapsToNotFound(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		return RunResult{ExitCode: 1, Stderr: "Error: issue fl-zz not found"}, nil
	}}
	b := newFakeBackend(runner)

	_, err := b.GetBead(context.Background(), "fl-zz")
	if code := backenderr.CodeOf(err); code != backenderr.NotFound {
		t.Errorf("code = %v, want NOT_FOUND", code)
	}
}

func TestCreateTagsWorkflowLabels(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		switch args[0] {
		case "create":
			return RunResult{Stdout: `{"id":"fl-a1"}`}, nil
		case "show":
			return RunResult{Stdout: showJSON}, nil
		}
		return RunResult{}, nil
	}}
	b := newFakeBackend(runner)

	_, err := b.CreateBead(context.Background(), backend.CreateRequest{
		Title:     "Wire the widget",
		ProfileID: "beads-coarse", // legacy alias for autopilot
	})
	if err != nil {
		t.Fatalf("CreateBead() error = %v", err)
	}

	createArgv := runner.argvs()[0]
	for _, want := range []string{
		"wf:state:ready_for_planning",
		"wf:profile:autopilot",
	} {
		if !strings.Contains(createArgv, want) {
			t.Errorf("create argv %q missing label %q", createArgv, want)
		}
	}
}

func TestCreateParsesHumanOutputFallback(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		switch args[0] {
		case "create":
			return RunResult{Stdout: "Created issue: fl-7k2p\n"}, nil
		case "show":
			return RunResult{Stdout: strings.Replace(showJSON, "fl-a1", "fl-7k2p", 1)}, nil
		}
		return RunResult{}, nil
	}}
	b := newFakeBackend(runner)

	got, err := b.CreateBead(context.Background(), backend.CreateRequest{Title: "Fallback"})
	if err != nil {
		t.Fatalf("CreateBead() error = %v", err)
	}
	if got.ID != "fl-7k2p" {
		t.Errorf("ID = %q, want fl-7k2p", got.ID)
	}
}

func TestUpdateStateRewritesLabelsAndStatus(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		if args[0] == "show" {
			return RunResult{Stdout: showJSON}, nil
		}
		return RunResult{}, nil
	}}
	b := newFakeBackend(runner)

	state := workflow.StateImplementation
	if _, err := b.UpdateBead(context.Background(), "fl-a1", backend.UpdateRequest{State: &state}); err != nil {
		t.Fatalf("UpdateBead() error = %v", err)
	}

	argvs := runner.argvs()
	var sawStatus, sawRemove, sawAdd bool
	for _, argv := range argvs {
		switch {
		case strings.HasPrefix(argv, "update fl-a1") && strings.Contains(argv, "--status in_progress"):
			sawStatus = true
		case strings.HasPrefix(argv, "label remove fl-a1") && strings.Contains(argv, "wf:state:ready_for_planning"):
			sawRemove = true
		case strings.HasPrefix(argv, "label add fl-a1") && strings.Contains(argv, "wf:state:implementation"):
			sawAdd = true
		}
	}
	if !sawStatus || !sawRemove || !sawAdd {
		t.Errorf("state change invocations incomplete: status=%v remove=%v add=%v (%v)",
			sawStatus, sawRemove, sawAdd, argvs)
	}
}

func TestWritesAreSerialized(t *testing.T) {
	var inflight, maxInflight atomic.Int32
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		if args[0] == "close" {
			n := inflight.Add(1)
			for {
				m := maxInflight.Load()
				if n <= m || maxInflight.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inflight.Add(-1)
		}
		if args[0] == "show" {
			return RunResult{Stdout: showJSON}, nil
		}
		return RunResult{}, nil
	}}
	b := newFakeBackend(runner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = b.CloseBead(context.Background(), fmt.Sprintf("fl-%d", i), backend.CloseOptions{})
		}(i)
	}
	wg.Wait()

	if got := maxInflight.Load(); got > 1 {
		t.Errorf("max concurrent writes = %d, want 1", got)
	}
}

func TestListDependenciesMergesBothDirections(t *testing.T) {
	runner := &fakeRunner{handler: func(args []string) (RunResult, error) {
		if args[0] == "show" {
			return RunResult{Stdout: showJSON}, nil
		}
		if args[0] == "dep" {
			for _, a := range args {
				if a == "--direction=down" {
					return RunResult{Stdout: `[{"id":"fl-up"}]`}, nil
				}
			}
			return RunResult{Stdout: `[{"id":"fl-dn"}]`}, nil
		}
		return RunResult{}, nil
	}}
	b := newFakeBackend(runner)

	deps, err := b.ListDependencies(context.Background(), "fl-a1")
	if err != nil {
		t.Fatalf("ListDependencies() error = %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("deps = %d, want 2", len(deps))
	}
	byID := map[string]bool{}
	for _, d := range deps {
		byID[d.ID] = true
		if d.Source != "fl-a1" && d.Target != "fl-a1" {
			t.Errorf("edge %+v does not touch fl-a1", d)
		}
	}
	if !byID["fl-up"] || !byID["fl-dn"] {
		t.Errorf("deps = %+v, want both directions", deps)
	}
}

func TestInferParentID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"fl-a3.1", "fl-a3"},
		{"fl-a3.1.2", "fl-a3.1"},
		{"fl-a3", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := inferParentID(tt.id); got != tt.want {
			t.Errorf("inferParentID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
