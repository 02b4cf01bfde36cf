package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/health"
	"github.com/repolens/repolens/internal/project"
	"github.com/repolens/repolens/internal/runner"
	"github.com/repolens/repolens/internal/storage"
)

// fakeCloner copies a prepared fixture tree into the destination.
type fakeCloner struct {
	fixture string
	err     error
	cloned  bool
}

func (f *fakeCloner) Clone(_ context.Context, _, dest string) error {
	if f.err != nil {
		return f.err
	}
	f.cloned = true
	return os.CopyFS(dest, os.DirFS(f.fixture))
}

// fakeSummarizer returns a canned response and captures the prompt.
type fakeSummarizer struct {
	response string
	err      error
	prompt   string
}

func (f *fakeSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

// fakeCommands succeeds for every command without spawning anything.
type fakeCommands struct {
	calls []string
}

func (f *fakeCommands) Run(_ context.Context, command, _ string) runner.Result {
	f.calls = append(f.calls, command)
	return runner.Result{Success: true, Output: "ok"}
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func nodeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write(t, dir, "package.json", `{"name":"widget"}`)
	write(t, dir, "README.md", "# Widget\n\n## Usage\n")
	write(t, dir, "index.js", "console.log('hi')")
	write(t, dir, filepath.Join("tests", "index.test.js"), "ok")
	return dir
}

func TestAnalyzeFullPipeline(t *testing.T) {
	cloner := &fakeCloner{fixture: nodeFixture(t)}
	summarizer := &fakeSummarizer{
		response: `Here it is: {"project_overview":{"elevator_pitch":"A widget."}}`,
	}
	commands := &fakeCommands{}

	svc, err := New(Config{
		Cloner:        cloner,
		Summarizer:    summarizer,
		Runner:        commands,
		WorkspaceRoot: t.TempDir(),
	})
	require.NoError(t, err)

	result, err := svc.Analyze(context.Background(), "https://example.com/org/widget")
	require.NoError(t, err)

	assert.True(t, cloner.cloned)
	assert.Equal(t, project.TypeNodeJS, result.ProjectType)
	assert.True(t, result.Health.ReadmeIsPresent)
	assert.True(t, result.Health.BuildSuccessful)
	assert.True(t, result.Health.TestsFoundAndPassed)
	assert.Equal(t, []string{"npm install", "npm test"}, commands.calls)

	// The prompt carries README and sampled source.
	assert.Contains(t, summarizer.prompt, "# Widget")
	assert.Contains(t, summarizer.prompt, "--- File: index.js ---")

	overview, ok := result.Summary["project_overview"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "A widget.", overview["elevator_pitch"])
}

func TestAnalyzeCloneFailureIsBadInput(t *testing.T) {
	cloner := &fakeCloner{err: errors.New("repository not found")}
	svc, err := New(Config{
		Cloner:        cloner,
		Summarizer:    &fakeSummarizer{response: "{}"},
		Runner:        &fakeCommands{},
		WorkspaceRoot: t.TempDir(),
	})
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "https://example.com/org/missing")
	require.Error(t, err)

	var badInput *BadInputError
	assert.True(t, errors.As(err, &badInput))
}

func TestAnalyzeSummarizerFailureIsInternal(t *testing.T) {
	svc, err := New(Config{
		Cloner:        &fakeCloner{fixture: nodeFixture(t)},
		Summarizer:    &fakeSummarizer{err: errors.New("api unavailable")},
		Runner:        &fakeCommands{},
		WorkspaceRoot: t.TempDir(),
	})
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "https://example.com/org/widget")
	require.Error(t, err)

	var badInput *BadInputError
	assert.False(t, errors.As(err, &badInput))
}

func TestAnalyzeMalformedSummaryDegrades(t *testing.T) {
	svc, err := New(Config{
		Cloner:        &fakeCloner{fixture: nodeFixture(t)},
		Summarizer:    &fakeSummarizer{response: "I could not produce JSON, sorry."},
		Runner:        &fakeCommands{},
		WorkspaceRoot: t.TempDir(),
	})
	require.NoError(t, err)

	result, err := svc.Analyze(context.Background(), "https://example.com/org/widget")
	require.NoError(t, err)

	assert.Equal(t, "failed to parse model summary", result.Summary["error"])
	assert.Equal(t, "I could not produce JSON, sorry.", result.Summary["raw_response"])
}

func TestAnalyzeCleansUpWorkspace(t *testing.T) {
	root := t.TempDir()
	svc, err := New(Config{
		Cloner:        &fakeCloner{fixture: nodeFixture(t)},
		Summarizer:    &fakeSummarizer{response: "{}"},
		Runner:        &fakeCommands{},
		WorkspaceRoot: root,
	})
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "https://example.com/org/widget")
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeCleansUpOnCloneFailure(t *testing.T) {
	root := t.TempDir()
	svc, err := New(Config{
		Cloner:        &fakeCloner{err: errors.New("boom")},
		Summarizer:    &fakeSummarizer{response: "{}"},
		Runner:        &fakeCommands{},
		WorkspaceRoot: root,
	})
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "https://example.com/org/widget")
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeKeepWorkspaces(t *testing.T) {
	root := t.TempDir()
	svc, err := New(Config{
		Cloner:         &fakeCloner{fixture: nodeFixture(t)},
		Summarizer:     &fakeSummarizer{response: "{}"},
		Runner:         &fakeCommands{},
		WorkspaceRoot:  root,
		KeepWorkspaces: true,
	})
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "https://example.com/org/widget")
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	svc, err := New(Config{
		Cloner:        &fakeCloner{fixture: nodeFixture(t)},
		Summarizer:    &fakeSummarizer{response: `{"project_overview":{}}`},
		Runner:        &fakeCommands{},
		WorkspaceRoot: t.TempDir(),
		Store:         store,
	})
	require.NoError(t, err)

	result, err := svc.Analyze(context.Background(), "https://example.com/org/widget")
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), result.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "https://example.com/org/widget", rec.RepoURL)
	assert.True(t, rec.Health.BuildSuccessful)
}

func TestResultJSONMergesSummaryWithHealthReport(t *testing.T) {
	result := &Result{
		Health: health.Report{ReadmeIsPresent: true, BuildSuccessful: true},
		Summary: map[string]any{
			"project_overview": map[string]any{"elevator_pitch": "neat"},
			"health_report":    "cannot shadow the real one",
		},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	hr, ok := decoded["health_report"].(map[string]any)
	require.True(t, ok, "health_report must be the report object")
	assert.Equal(t, true, hr["readme_is_present"])
	assert.Equal(t, true, hr["build_successful"])
	assert.Equal(t, false, hr["tests_found_and_passed"])
	assert.Contains(t, decoded, "project_overview")
}
