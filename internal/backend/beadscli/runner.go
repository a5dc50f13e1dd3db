// Package beadscli implements the backend port by shelling out to the bd
// issue-tracker CLI.
//
// Every operation is a subprocess invocation with --json output where bd
// supports it. Workflow state rides on bd labels since bd itself only
// tracks coarse status.
package beadscli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// RunResult carries the outcome of one subprocess invocation.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes the bd binary. Tests inject a scripted implementation;
// production uses the exec-based one.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		err = nil // exit status is reported through ExitCode
	}
	return res, err
}
