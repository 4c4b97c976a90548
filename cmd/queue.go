package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/branch-greeter/internal/config"
	"github.com/kozaktomas/branch-greeter/internal/queue"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and operate the service queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active queue entries in service order",
	RunE:  runQueueList,
}

var queueAssignCmd = &cobra.Command{
	Use:   "assign <entry-id> <counter>",
	Short: "Assign a queue entry to a counter",
	Args:  cobra.ExactArgs(2),
	RunE:  runQueueAssign,
}

var queueCompleteCmd = &cobra.Command{
	Use:   "complete <entry-id>",
	Short: "Complete a queue entry and record the visit",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueComplete,
}

func init() {
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueAssignCmd)
	queueCmd.AddCommand(queueCompleteCmd)
	rootCmd.AddCommand(queueCmd)
}

// newQueueManager wires a manager over the database repositories.
func newQueueManager(cfg *config.Config, repos *repositories) *queue.Manager {
	return queue.NewManager(repos.customers, repos.visits, repos.queue, &cfg.Branch, nil)
}

func runQueueList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	entries, err := repos.queue.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing queue: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tSTATUS\tCOUNTER\tWAITING\tPURPOSE\tENTRY ID")
	for _, e := range entries {
		counter := e.Counter
		if counter == "" {
			counter = "-"
		}
		waiting := time.Since(e.CreatedAt).Round(time.Second)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Priority, e.Status, counter, waiting, e.Purpose, e.ID)
	}
	return w.Flush()
}

func runQueueAssign(cmd *cobra.Command, args []string) error {
	entryID, counter := args[0], args[1]

	ctx := context.Background()
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	manager := newQueueManager(cfg, repos)
	entry, err := manager.AssignCounter(ctx, entryID, counter)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrUnknownCounter):
			return fmt.Errorf("unknown counter %q, see 'branch-greeter counters'", counter)
		case errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("queue entry %s not found or already completed", entryID)
		}
		return err
	}

	fmt.Printf("Assigned to %s: %s\n", entry.Counter, entry.Purpose)
	return nil
}

func runQueueComplete(cmd *cobra.Command, args []string) error {
	entryID := args[0]

	ctx := context.Background()
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	manager := newQueueManager(cfg, repos)
	entry, visit, err := manager.Complete(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("queue entry %s not found", entryID)
		}
		return err
	}

	fmt.Printf("Completed: %s\n", entry.Purpose)
	fmt.Printf("Visit recorded: %s -> %s\n", visit.Purpose, visit.Outcome)
	return nil
}
