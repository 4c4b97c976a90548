package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/branch-greeter/internal/config"
	"github.com/kozaktomas/branch-greeter/internal/descriptor"
	"github.com/kozaktomas/branch-greeter/internal/detector"
	"github.com/kozaktomas/branch-greeter/internal/queue"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize a customer from a photo",
	Long: `Recognize a customer from a single photo against the enrolled descriptors.

Prints the matched customer and distance, or reports an unknown face.
With --enqueue the matched customer is also placed into the service queue,
exactly as the webcam endpoint would do.

Examples:
  branch-greeter recognize ./frame.jpg
  branch-greeter recognize ./frame.jpg --enqueue
  branch-greeter recognize ./frame.jpg --threshold 0.4`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	recognizeCmd.Flags().Float64("threshold", 0, "Match threshold override (0 = use MATCH_THRESHOLD)")
	recognizeCmd.Flags().Bool("enqueue", false, "Enqueue the matched customer")
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	enqueue := mustGetBool(cmd, "enqueue")

	imageData, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	ctx := context.Background()
	cfg := config.Load()
	if threshold == 0 {
		threshold = cfg.Match.Threshold
	}

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	det := detector.NewClient(cfg.Detector.URL, time.Duration(cfg.Detector.TimeoutSeconds)*time.Second)

	desc, err := det.Detect(ctx, imageData)
	if err != nil {
		if errors.Is(err, detector.ErrNoFace) {
			fmt.Println("No face detected in the image")
			return nil
		}
		return err
	}

	candidates, err := repos.customers.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("loading candidates: %w", err)
	}

	match, err := descriptor.BestMatch(desc, candidates, threshold)
	if err != nil {
		return err
	}
	if match == nil {
		fmt.Printf("Unknown face: no enrolled customer within distance %.2f\n", threshold)
		return nil
	}

	customer, err := repos.customers.Get(ctx, match.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return fmt.Errorf("matched customer %s no longer enrolled", match.CustomerID)
	}

	fmt.Printf("Matched: %s (%s)\n", customer.FullName, customer.Category)
	fmt.Printf("  Distance: %.4f (%s descriptor)\n", match.Distance, match.Source)

	if !enqueue {
		return nil
	}

	manager := queue.NewManager(repos.customers, repos.visits, repos.queue, &cfg.Branch, nil)
	entry, created, err := manager.Enqueue(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("enqueueing customer: %w", err)
	}
	if created {
		fmt.Printf("Enqueued with priority %d: %s\n", entry.Priority, entry.Purpose)
	} else {
		fmt.Printf("Already queued since %s: %s\n", entry.CreatedAt.Format(time.RFC3339), entry.Purpose)
	}
	return nil
}
