package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the sampling budget used when the caller has no
// opinion. Roughly a few thousand tokens of model context.
const DefaultMaxChars = 15000

// sourceExtensions are the file types worth showing to the model.
var sourceExtensions = []string{
	".js", ".py", ".html", ".css", ".jsx", ".ts", ".tsx", ".java", ".go", ".rs",
}

// ignoreDirs are subtrees pruned from the sampling walk: VCS metadata,
// dependency trees, virtualenvs, and bytecode caches.
var ignoreDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"venv":         true,
	"__pycache__":  true,
}

// FileOutcome records what happened to one candidate file during sampling.
// The sample text itself is unaffected by this bookkeeping; outcomes exist
// so callers can log or report skipped files instead of losing them
// silently.
type FileOutcome struct {
	Path   string
	Read   bool
	Reason string
}

// Sampler concatenates a repository's source files into one bounded blob.
type Sampler struct {
	// MaxChars is the hard budget in bytes of UTF-8 text. The returned
	// sample is never longer than this; truncation may cut mid-file.
	MaxChars int
}

// NewSampler returns a Sampler with the default budget.
func NewSampler() *Sampler {
	return &Sampler{MaxChars: DefaultMaxChars}
}

var errBudgetReached = errors.New("budget reached")

// Sample walks the tree under dir in deterministic lexical order, appending
// each source file as a delimited block:
//
//	--- File: name.ext ---
//	<content>
//	<blank line>
//
// Files are decoded permissively: invalid UTF-8 sequences are dropped.
// Unreadable files are skipped and recorded in the outcomes. After each
// append the accumulated length is checked against MaxChars; once exceeded,
// the sample is truncated to the budget and the walk stops.
func (s *Sampler) Sample(dir string) (string, []FileOutcome) {
	var sb strings.Builder
	var outcomes []FileOutcome

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && ignoreDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !hasSourceExtension(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			outcomes = append(outcomes, FileOutcome{Path: path, Reason: err.Error()})
			return nil
		}
		outcomes = append(outcomes, FileOutcome{Path: path, Read: true})

		content := strings.ToValidUTF8(string(data), "")
		fmt.Fprintf(&sb, "--- File: %s ---\n%s\n\n", d.Name(), content)

		if sb.Len() > s.MaxChars {
			return errBudgetReached
		}
		return nil
	})

	if err != nil && !errors.Is(err, errBudgetReached) {
		slog.Debug("sample walk stopped early", "dir", dir, "err", err)
	}

	sample := sb.String()
	if len(sample) > s.MaxChars {
		sample = truncateUTF8(sample, s.MaxChars)
	}
	return sample, outcomes
}

func hasSourceExtension(name string) bool {
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// truncateUTF8 cuts s to at most max bytes without splitting a multi-byte
// rune, backing off to the previous boundary when needed.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	truncated := s[:max]
	for i := 0; i < utf8.UTFMax && len(truncated) > 0; i++ {
		if utf8.ValidString(truncated) {
			return truncated
		}
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}
