package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/ai"
	"github.com/repolens/repolens/internal/analyzer"
	"github.com/repolens/repolens/internal/clone"
	"github.com/repolens/repolens/internal/runner"
	"github.com/repolens/repolens/internal/storage"
)

var (
	analyzeJSON          bool
	analyzeKeepWorkspace bool
	analyzeMaxChars      int
	analyzeModel         string
	analyzeNoHistory     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repository-url>",
	Short: "Clone and analyze a public repository",
	Long: `Clone a public repository, build it, run its tests, sample its source,
and produce a model-written summary for prospective contributors.

Examples:
  # Analyze a repository and print a readable report
  repolens analyze https://github.com/org/widget

  # Print the raw merged JSON instead
  repolens analyze --json https://github.com/org/widget

  # Keep the cloned checkout on disk for inspection
  repolens analyze --keep-workspace https://github.com/org/widget`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the merged analysis JSON")
	analyzeCmd.Flags().BoolVar(&analyzeKeepWorkspace, "keep-workspace", false, "Leave the cloned checkout on disk")
	analyzeCmd.Flags().IntVar(&analyzeMaxChars, "max-chars", 0, "Source sampling budget in characters (0 = config default)")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Summarization model (overrides config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoHistory, "no-history", false, "Skip recording this analysis in the history database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repoURL := args[0]

	cloner, err := clone.NewCloner(ctx)
	if err != nil {
		return err
	}

	model := cfg.Model
	if analyzeModel != "" {
		model = analyzeModel
	}
	summarizer, err := ai.NewClient(ai.Config{
		Model:              model,
		MaxTokens:          cfg.MaxTokens,
		MaxConcurrentCalls: cfg.MaxConcurrentCalls,
		RequestsPerMinute:  cfg.RequestsPerMinute,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Make sure ANTHROPIC_API_KEY is set in your environment\n")
		return err
	}

	var store *storage.Store
	if !analyzeNoHistory {
		store, err = storage.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	maxChars := cfg.SampleMaxChars
	if analyzeMaxChars > 0 {
		maxChars = analyzeMaxChars
	}

	svc, err := analyzer.New(analyzer.Config{
		Cloner:         cloner,
		Summarizer:     summarizer,
		Runner:         &runner.Runner{Timeout: cfg.CommandTimeout()},
		SampleMaxChars: maxChars,
		WorkspaceRoot:  cfg.WorkspaceRoot,
		Store:          store,
		KeepWorkspaces: analyzeKeepWorkspace,
	})
	if err != nil {
		return err
	}

	result, err := svc.Analyze(ctx, repoURL)
	if err != nil {
		var badInput *analyzer.BadInputError
		if errors.As(err, &badInput) {
			return fmt.Errorf("could not fetch repository: %w", badInput.Err)
		}
		return err
	}

	if analyzeJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printResult(result)
	return nil
}

func printResult(result *analyzer.Result) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	bold.Printf("Analysis %s\n", result.ID)
	fmt.Printf("  Repository:   %s\n", result.RepoURL)
	fmt.Printf("  Project type: %s\n", result.ProjectType)
	fmt.Println()

	bold.Println("Health report")
	printCheck(green, red, "README present", result.Health.ReadmeIsPresent)
	printCheck(green, red, "Build successful", result.Health.BuildSuccessful)
	printCheck(green, red, "Tests found and passed", result.Health.TestsFoundAndPassed)
	fmt.Println()

	bold.Println("Summary")
	data, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		fmt.Printf("  (unprintable: %v)\n", err)
		return
	}
	fmt.Println(string(data))
}

func printCheck(green, red *color.Color, label string, ok bool) {
	if ok {
		green.Printf("  ✓ %s\n", label)
	} else {
		red.Printf("  ✗ %s\n", label)
	}
}
