// Package health produces the repository health report: documentation
// presence, buildability, and test status.
package health

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/repolens/repolens/internal/project"
	"github.com/repolens/repolens/internal/runner"
	"github.com/repolens/repolens/internal/scan"
)

// Report is the wire-format health summary. The field names are a contract
// with downstream consumers; do not rename them.
type Report struct {
	ReadmeIsPresent     bool `json:"readme_is_present"`
	BuildSuccessful     bool `json:"build_successful"`
	TestsFoundAndPassed bool `json:"tests_found_and_passed"`
}

// Toolchain holds the build and test commands selected for a repository.
type Toolchain struct {
	BuildCommand string
	TestCommand  string
}

// ToolchainFor maps a project type to its commands. Unknown projects get
// the Python toolchain on purpose: for a repository with no recognizable
// manifest, attempting pip/pytest and recording the failure tells the
// caller more than refusing to try. Tighten this only with a matching
// change to the classifier.
func ToolchainFor(t project.Type) Toolchain {
	if t == project.TypeNodeJS {
		return Toolchain{
			BuildCommand: "npm install",
			TestCommand:  "npm test",
		}
	}
	return Toolchain{
		BuildCommand: "pip install -r requirements.txt",
		TestCommand:  "pytest",
	}
}

// Builder orchestrates classification, build, and test steps into a Report.
type Builder struct {
	Runner runner.CommandRunner
}

// NewBuilder returns a Builder backed by the given command runner.
func NewBuilder(r runner.CommandRunner) *Builder {
	return &Builder{Runner: r}
}

// Build produces a health report for the checkout at dir, along with the
// README content (empty when absent) and the detected project type.
//
// The report is always fully populated: sub-step failures become false
// fields, never errors. Build and test run independently; a failed build
// does not skip the test step. The test command only runs when test files
// were detected, so tests_found_and_passed requires both detection and a
// passing run.
func (b *Builder) Build(ctx context.Context, dir string) (Report, string, project.Type) {
	var report Report

	readmePath := filepath.Join(dir, "README.md")
	var readme string
	if info, err := os.Stat(readmePath); err == nil && !info.IsDir() {
		report.ReadmeIsPresent = true
		readme = readReadme(dir)
	}

	projectType := project.Classify(dir)
	tc := ToolchainFor(projectType)

	buildRes := b.Runner.Run(ctx, tc.BuildCommand, dir)
	report.BuildSuccessful = buildRes.Success
	if !buildRes.Success {
		slog.Debug("build step failed", "dir", dir, "command", tc.BuildCommand,
			"output", firstLine(buildRes.Output))
	}

	if scan.HasTests(dir) {
		testRes := b.Runner.Run(ctx, tc.TestCommand, dir)
		report.TestsFoundAndPassed = testRes.Success
	}

	return report, readme, projectType
}

// readReadme returns the root README.md content, decoded permissively.
// A missing or unreadable README reads as absent.
func readReadme(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		return ""
	}
	return strings.ToValidUTF8(string(data), "")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
