// Package clone materializes a remote repository into a local directory
// using the git CLI. The rest of the system treats it as an opaque
// clone(url) -> path collaborator.
package clone

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Error is a clone-layer failure: bad URL, network trouble, auth failure.
// Callers surface the message but do not branch on the cause.
type Error struct {
	URL    string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("failed to clone %s: %s", e.URL, e.Stderr)
	}
	return fmt.Sprintf("failed to clone %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cloner clones repositories with the git CLI.
type Cloner struct {
	gitPath string

	// Timeout bounds a single clone. Zero means no extra bound beyond the
	// caller's context.
	Timeout time.Duration
}

// NewCloner locates git and verifies it runs. Construction fails when git
// is unavailable so the problem shows up at startup.
func NewCloner(ctx context.Context) (*Cloner, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}

	return &Cloner{gitPath: gitPath}, nil
}

// Clone materializes url into dest. The URL's query string is stripped
// first; hosting UIs commonly append ?tab=... fragments that git rejects.
// On failure the returned *Error carries git's stderr.
func (c *Cloner) Clone(ctx context.Context, url, dest string) error {
	cleanURL := SanitizeURL(url)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.gitPath, "clone", cleanURL, dest)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return &Error{
			URL:    cleanURL,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	slog.Debug("clone finished", "url", cleanURL, "dest", dest, "duration", time.Since(start))
	return nil
}

// SanitizeURL drops everything from the first '?' onward.
func SanitizeURL(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
