package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/branch-greeter/internal/config"
	"github.com/kozaktomas/branch-greeter/internal/descriptor"
	"github.com/kozaktomas/branch-greeter/internal/detector"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <directory>",
	Short: "Enroll customers from a directory of portrait photos",
	Long: `Enroll customers in bulk from a directory of portrait photos.

Each file becomes one customer: the file name without extension is the full
name, with underscores read as spaces (Jana_Novakova.jpg -> "Jana Novakova").
Photos run through the face detection server to compute the reference
descriptor. Files without a detectable face are reported and skipped, and
names that are already enrolled are skipped.

Examples:
  # Enroll everyone as Regular from uploaded photos
  branch-greeter enroll ./portraits

  # Enroll the private banking portfolio
  branch-greeter enroll ./vip-portraits --category VIP`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	enrollCmd.Flags().String("category", string(store.CategoryRegular), "Customer category (VIP, HighNetWorth, Elderly, Regular)")
	enrollCmd.Flags().String("source", string(descriptor.SourceUploaded), "Descriptor source to store (webcam, uploaded_image)")
	enrollCmd.Flags().Int("concurrency", 5, "Number of parallel detector calls")
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	dir := args[0]
	category := store.Category(mustGetString(cmd, "category"))
	source := descriptor.Source(mustGetString(cmd, "source"))
	concurrency := mustGetInt(cmd, "concurrency")

	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	if source != descriptor.SourceWebcam && source != descriptor.SourceUploaded {
		return fmt.Errorf("unknown descriptor source %q", source)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	photos, err := listPhotos(dir)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		fmt.Println("No photos found, nothing to enroll")
		return nil
	}

	ctx := context.Background()
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	det := detector.NewClient(cfg.Detector.URL, time.Duration(cfg.Detector.TimeoutSeconds)*time.Second)

	existing, err := repos.customers.Search(ctx, "")
	if err != nil {
		return fmt.Errorf("listing enrolled customers: %w", err)
	}
	enrolled := make(map[string]bool, len(existing))
	for _, c := range existing {
		enrolled[store.NormalizeName(c.FullName)] = true
	}

	fmt.Printf("Photos to process: %d (already enrolled: %d)\n\n", len(photos), len(existing))

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Enrolling customers"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var createdCount, skippedCount, noFaceCount, errorCount int
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, photo := range photos {
		fullName := nameFromFile(photo)
		if enrolled[store.NormalizeName(fullName)] {
			skippedCount++
			bar.Add(1)
			continue
		}

		wg.Add(1)
		go func(path, fullName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			imageData, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				errorCount++
				mu.Unlock()
				return
			}

			desc, err := det.Detect(ctx, imageData)
			if err != nil {
				mu.Lock()
				if errors.Is(err, detector.ErrNoFace) {
					noFaceCount++
				} else {
					errorCount++
				}
				mu.Unlock()
				return
			}

			customer := &store.Customer{
				FullName: fullName,
				Category: category,
			}
			if source == descriptor.SourceWebcam {
				customer.Webcam = desc
			} else {
				customer.Uploaded = desc
			}

			// Enrollment is serialized here, concurrency only covers detection.
			mu.Lock()
			defer mu.Unlock()
			if err := repos.customers.Create(ctx, customer); err != nil {
				errorCount++
				return
			}
			createdCount++
		}(photo, fullName)
	}

	wg.Wait()
	fmt.Println()

	fmt.Printf("\nEnrolled: %d customers\n", createdCount)
	fmt.Printf("Skipped (already enrolled): %d\n", skippedCount)
	fmt.Printf("Skipped (no face detected): %d\n", noFaceCount)
	if errorCount > 0 {
		fmt.Printf("Errors: %d\n", errorCount)
	}

	return nil
}

// listPhotos returns the image files in dir, non-recursive, sorted by name.
func listPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var photos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			photos = append(photos, filepath.Join(dir, entry.Name()))
		}
	}
	return photos, nil
}

// nameFromFile derives a customer name from a photo file name.
func nameFromFile(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
}
