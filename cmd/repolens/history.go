package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/storage"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses",
	Long: `List analyses recorded in the history database, newest first.

Examples:
  # Show the last 20 analyses
  repolens history

  # Show everything
  repolens history --limit 0`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Print one stored analysis in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum analyses to list (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print records as JSON")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No analyses recorded yet.")
		return nil
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	for _, rec := range records {
		status := green.Sprint("ok")
		if !rec.Health.BuildSuccessful {
			status = red.Sprint("build failed")
		} else if !rec.Health.TestsFoundAndPassed {
			status = red.Sprint("tests not passing")
		}
		fmt.Printf("%s  %s  %-8s %-18s %s\n",
			rec.ID,
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.ProjectType,
			status,
			rec.RepoURL)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no analysis with ID %s", args[0])
	}

	fmt.Println(rec.SummaryJSON)
	return nil
}
