package beadscli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fooleryhq/foolery/internal/backenderr"
)

// outOfSyncMarker is the signature bd prints when its database trails the
// JSONL file. The fix is `bd sync --import-only` followed by one retry.
const outOfSyncMarker = "out of sync with JSONL"

// resyncDelay spaces the single retry after an import-only sync.
const resyncDelay = 50 * time.Millisecond

// client owns the subprocess plumbing shared by all bd operations: argv
// assembly, timeouts, error classification, write serialization, and the
// out-of-sync recovery loop.
type client struct {
	runner  Runner
	bin     string
	dir     string
	dbPath  string
	timeout time.Duration
	log     *slog.Logger

	// bd serializes writers on a SQLite database; running our own writes
	// one at a time avoids tripping its lock under concurrent calls.
	writeMu sync.Mutex
}

func newClient(runner Runner, bin, dir, dbPath string, timeout time.Duration) *client {
	if runner == nil {
		runner = ExecRunner{}
	}
	if bin == "" {
		bin = "bd"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		runner:  runner,
		bin:     bin,
		dir:     dir,
		dbPath:  dbPath,
		timeout: timeout,
		log:     slog.With("backend", BackendName, "bin", bin),
	}
}

// run invokes bd once and classifies the outcome.
func (c *client) run(ctx context.Context, args ...string) (string, error) {
	argv := args
	if c.dbPath != "" {
		argv = append([]string{"--db", c.dbPath}, args...)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.runner.Run(ctx, c.dir, c.bin, argv...)
	c.log.Debug("bd invocation",
		"args", strings.Join(args, " "),
		"exit", res.ExitCode,
		"duration", time.Since(start))

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", backenderr.Timeoutf("bd %s timed out after %s", firstArg(args), c.timeout)
		}
		return "", backenderr.Wrap(backenderr.Unavailable, err, "running bd %s", firstArg(args))
	}
	if res.ExitCode != 0 {
		return "", classifyFailure(args, res)
	}
	return res.Stdout, nil
}

// runRead invokes bd and, on the out-of-sync signature, runs an import-only
// sync and retries exactly once.
func (c *client) runRead(ctx context.Context, args ...string) (string, error) {
	resynced := false
	op := func() (string, error) {
		out, err := c.run(ctx, args...)
		if err == nil {
			return out, nil
		}
		if !resynced && isOutOfSync(err) {
			resynced = true
			c.log.Warn("bd database out of sync, running import-only sync")
			if _, serr := c.run(ctx, "sync", "--import-only"); serr != nil {
				return "", backoff.Permanent(serr)
			}
			return "", err // retry the original read once
		}
		return "", backoff.Permanent(err)
	}
	return backoff.RetryWithData(op,
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(resyncDelay), 1), ctx))
}

// runWrite serializes mutating invocations behind the write lock.
func (c *client) runWrite(ctx context.Context, args ...string) (string, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.run(ctx, args...)
}

// classifyFailure maps a nonzero bd exit into the backend error taxonomy.
func classifyFailure(args []string, res RunResult) *backenderr.Error {
	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(detail, outOfSyncMarker):
		e := backenderr.New(backenderr.Unavailable, "bd %s: %s", firstArg(args), detail)
		e.Retryable = true
		return e
	case strings.Contains(lower, "database is locked"):
		e := backenderr.New(backenderr.Locked, "bd %s: %s", firstArg(args), detail)
		e.Retryable = true
		return e
	case strings.Contains(lower, "not found") || strings.Contains(lower, "no such issue"):
		return backenderr.NotFoundf("bd %s: %s", firstArg(args), detail)
	case strings.Contains(lower, "already exists"):
		return backenderr.New(backenderr.AlreadyExists, "bd %s: %s", firstArg(args), detail)
	case strings.Contains(lower, "permission denied"):
		return backenderr.New(backenderr.PermissionDenied, "bd %s: %s", firstArg(args), detail)
	case strings.Contains(lower, "invalid"):
		return backenderr.Invalidf("bd %s: %s", firstArg(args), detail)
	}
	return backenderr.Internalf("bd %s exited %d: %s", firstArg(args), res.ExitCode, detail)
}

func isOutOfSync(err error) bool {
	var be *backenderr.Error
	return errors.As(err, &be) && strings.Contains(be.Message, outOfSyncMarker)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return "?"
	}
	// "dep add", "label remove" etc. read better with the subcommand.
	if len(args) > 1 && (args[0] == "dep" || args[0] == "label" || args[0] == "sync") {
		if !strings.HasPrefix(args[1], "-") {
			return fmt.Sprintf("%s %s", args[0], args[1])
		}
	}
	return args[0]
}
