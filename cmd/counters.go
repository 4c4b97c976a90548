package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/branch-greeter/internal/config"
)

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Show the branch counter catalog and category priorities",
	RunE:  runCounters,
}

func init() {
	rootCmd.AddCommand(countersCmd)
}

func runCounters(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COUNTER\tDESCRIPTION")
	for _, c := range cfg.Branch.Counters {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	categories := make([]string, 0, len(cfg.Branch.Priorities))
	for category := range cfg.Branch.Priorities {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return cfg.Branch.Priorities[categories[i]] < cfg.Branch.Priorities[categories[j]]
	})

	fmt.Println("\nPriorities (lower = served first):")
	for _, category := range categories {
		fmt.Printf("  %d  %s\n", cfg.Branch.Priorities[category], category)
	}
	return nil
}
