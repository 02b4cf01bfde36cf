// Package analyzer orchestrates a repository analysis: clone, health
// report, source sampling, model summarization, and the merge of all of it
// into one JSON result.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/repolens/repolens/internal/ai"
	"github.com/repolens/repolens/internal/health"
	"github.com/repolens/repolens/internal/project"
	"github.com/repolens/repolens/internal/runner"
	"github.com/repolens/repolens/internal/scan"
	"github.com/repolens/repolens/internal/storage"
	"github.com/repolens/repolens/internal/workspace"
)

// Summarizer is the opaque summarize(prompt) -> text collaborator.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Cloner is the opaque clone(url) -> local path collaborator.
type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
}

// BadInputError marks failures caused by the caller's input (unreachable or
// invalid repository URL) as opposed to internal faults. The surrounding
// surface maps it to a client-facing error.
type BadInputError struct {
	Err error
}

func (e *BadInputError) Error() string { return e.Err.Error() }
func (e *BadInputError) Unwrap() error { return e.Err }

// Config wires the analyzer's collaborators. Cloner and Summarizer are
// injected at construction: the service owns no global client state and a
// single instance is reused across analyses.
type Config struct {
	Cloner     Cloner
	Summarizer Summarizer

	// Runner executes build/test commands. Nil means the default
	// process-spawning runner.
	Runner runner.CommandRunner

	// SampleMaxChars is the sampling budget. Zero means the default.
	SampleMaxChars int

	// WorkspaceRoot is where analysis temp directories live.
	WorkspaceRoot string

	// Store, when set, records completed analyses.
	Store *storage.Store

	// KeepWorkspaces leaves the checkout on disk after analysis, for
	// debugging.
	KeepWorkspaces bool
}

// Service runs analyses. Safe for sequential reuse; each analysis works in
// its own locked workspace.
type Service struct {
	cloner         Cloner
	summarizer     Summarizer
	builder        *health.Builder
	sampler        *scan.Sampler
	workspaces     *workspace.Manager
	store          *storage.Store
	keepWorkspaces bool
}

// New validates the wiring and returns a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Cloner == nil {
		return nil, fmt.Errorf("cloner is required")
	}
	if cfg.Summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}

	r := cfg.Runner
	if r == nil {
		r = runner.New()
	}

	maxChars := cfg.SampleMaxChars
	if maxChars == 0 {
		maxChars = scan.DefaultMaxChars
	}

	return &Service{
		cloner:         cfg.Cloner,
		summarizer:     cfg.Summarizer,
		builder:        health.NewBuilder(r),
		sampler:        &scan.Sampler{MaxChars: maxChars},
		workspaces:     &workspace.Manager{Root: cfg.WorkspaceRoot},
		store:          cfg.Store,
		keepWorkspaces: cfg.KeepWorkspaces,
	}, nil
}

// Result is a completed analysis. Its JSON form is the wire contract: a
// "health_report" object plus the model summary's top-level keys merged
// alongside it.
type Result struct {
	ID             string
	RepoURL        string
	ProjectType    project.Type
	Health         health.Report
	Summary        map[string]any
	SampleOutcomes []scan.FileOutcome
}

// MarshalJSON merges the health report and the model summary into a single
// object. A summary key named health_report cannot shadow the real report.
func (r *Result) MarshalJSON() ([]byte, error) {
	merged := make(map[string]any, len(r.Summary)+1)
	for k, v := range r.Summary {
		merged[k] = v
	}
	merged["health_report"] = r.Health
	return json.Marshal(merged)
}

// Analyze clones repoURL into a fresh workspace and analyzes it. The
// workspace is removed on every exit path unless KeepWorkspaces is set.
// Clone failures come back as *BadInputError; anything else is internal.
func (s *Service) Analyze(ctx context.Context, repoURL string) (*Result, error) {
	ws, err := s.workspaces.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquiring workspace: %w", err)
	}
	defer func() {
		if s.keepWorkspaces {
			ws.Detach()
			slog.Info("workspace kept", "path", ws.Path)
			return
		}
		if err := ws.Release(); err != nil {
			slog.Warn("workspace cleanup failed", "path", ws.Path, "err", err)
		}
	}()

	if err := s.cloner.Clone(ctx, repoURL, ws.RepoDir); err != nil {
		return nil, &BadInputError{Err: err}
	}

	result, err := s.AnalyzePath(ctx, ws.RepoDir)
	if err != nil {
		return nil, err
	}
	result.RepoURL = repoURL

	s.record(ctx, result)
	return result, nil
}

// AnalyzePath analyzes an already-materialized checkout. Sub-step failures
// (commands, unreadable files) are absorbed into the health report; only
// the summarization call itself can fail the analysis.
func (s *Service) AnalyzePath(ctx context.Context, dir string) (*Result, error) {
	report, readme, projectType := s.builder.Build(ctx, dir)
	facts := project.Gather(dir)
	sample, outcomes := s.sampler.Sample(dir)

	for _, o := range outcomes {
		if !o.Read {
			slog.Debug("sample skipped file", "path", o.Path, "reason", o.Reason)
		}
	}

	prompt := ai.BuildAnalysisPrompt(readme, facts, sample)
	response, err := s.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarization failed: %w", err)
	}

	return &Result{
		ID:             uuid.NewString(),
		ProjectType:    projectType,
		Health:         report,
		Summary:        ai.ParseSummary(response),
		SampleOutcomes: outcomes,
	}, nil
}

// record saves the result to the history store. History is auxiliary: a
// failed save is logged, never fatal to an analysis that already succeeded.
func (s *Service) record(ctx context.Context, result *Result) {
	if s.store == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("failed to encode analysis for history", "id", result.ID, "err", err)
		return
	}

	rec := &storage.Record{
		ID:          result.ID,
		RepoURL:     result.RepoURL,
		ProjectType: result.ProjectType,
		Health:      result.Health,
		SummaryJSON: string(data),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		slog.Warn("failed to save analysis history", "id", result.ID, "err", err)
	}
}
