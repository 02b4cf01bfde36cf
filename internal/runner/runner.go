// Package runner executes toolchain commands inside a repository checkout.
//
// Commands are interpreted through a shell because the command strings come
// from our own toolchain table, not from user input. Callers must never pass
// untrusted text here.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout is the wall-clock limit for a single command.
// Long enough for a cold npm install, short enough that a hung build
// cannot pin an analysis forever.
const DefaultTimeout = 300 * time.Second

// Result is the outcome of one command execution. Output holds stdout on
// success and stderr (or a diagnostic message) on failure.
type Result struct {
	Success bool
	Output  string
}

// CommandRunner runs a shell command in a working directory and reports
// success or failure. It exists as an interface so the health builder can be
// tested without spawning processes.
type CommandRunner interface {
	Run(ctx context.Context, command, workingDir string) Result
}

// Runner is the process-spawning CommandRunner.
type Runner struct {
	// Timeout bounds each command. Zero means DefaultTimeout.
	Timeout time.Duration

	// Shell is the shell binary used to interpret commands.
	// Empty means "sh".
	Shell string
}

// New returns a Runner with the default timeout.
func New() *Runner {
	return &Runner{Timeout: DefaultTimeout}
}

// Run executes command in workingDir and waits for it to finish.
//
// The directory is checked before anything is spawned: a missing working
// directory yields a failure Result without a child process. Exactly one
// child process is started per call and there are no retries. On timeout the
// process is killed and a timeout-specific message is returned.
func (r *Runner) Run(ctx context.Context, command, workingDir string) Result {
	info, err := os.Stat(workingDir)
	if err != nil || !info.IsDir() {
		return Result{
			Success: false,
			Output:  fmt.Sprintf("working directory does not exist: %s", workingDir),
		}
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, shell, "-c", command)
	cmd.Dir = workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	slog.Debug("command finished",
		"command", command,
		"dir", workingDir,
		"duration", elapsed,
		"err", err)

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{
			Success: false,
			Output:  fmt.Sprintf("command timed out after %s", timeout),
		}
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Nonzero exit: the command ran but failed. stderr is the report.
			return Result{Success: false, Output: stderr.String()}
		}
		// Spawn fault (shell missing, permission denied, ...). Surface the
		// error text instead of crashing the pipeline.
		return Result{Success: false, Output: err.Error()}
	}

	return Result{Success: true, Output: stdout.String()}
}
