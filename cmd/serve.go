package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/branch-greeter/internal/config"
	"github.com/kozaktomas/branch-greeter/internal/detector"
	"github.com/kozaktomas/branch-greeter/internal/insights"
	"github.com/kozaktomas/branch-greeter/internal/queue"
	"github.com/kozaktomas/branch-greeter/internal/store/postgres"
	"github.com/kozaktomas/branch-greeter/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the branch dashboard API server",
	Long: `Start the HTTP server for the branch dashboard. Serves face recognition,
customer management, the live queue and server-sent queue events.`,
	Run: func(cmd *cobra.Command, args []string) {
		port := mustGetInt(cmd, "port")
		host := mustGetString(cmd, "host")
		noIndex := mustGetBool(cmd, "no-index")

		cfg := config.Load()
		if cfg.Database.URL == "" {
			log.Fatal("DATABASE_URL environment variable is required")
		}

		if err := runServer(cfg, host, port, noIndex); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to run the server on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind the server to")
	serveCmd.Flags().Bool("no-index", false, "Skip building the in-memory descriptor index")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cfg *config.Config, host string, port int, noIndex bool) error {
	ctx := context.Background()

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer pool.Close()

	customers := postgres.NewCustomerRepository(pool)
	visits := postgres.NewVisitRepository(pool)
	entries := postgres.NewQueueRepository(pool)

	if !noIndex {
		if err := customers.EnableIndex(ctx); err != nil {
			return fmt.Errorf("building descriptor index: %w", err)
		}
	}

	manager := queue.NewManager(customers, visits, entries, &cfg.Branch, queue.NewBroadcaster())

	det := detector.NewClient(cfg.Detector.URL, time.Duration(cfg.Detector.TimeoutSeconds)*time.Second)
	recognizer := queue.NewRecognizer(det, customers, manager, cfg.Match.Threshold)

	provider := newInsightsProvider(ctx, cfg)

	server := web.NewServer(cfg, host, port, web.Deps{
		Customers:  customers,
		Visits:     visits,
		Queue:      manager,
		Recognizer: recognizer,
		Insights:   provider,
	})

	// Forward NOTIFY events from other instances to local SSE listeners.
	listenCtx, cancelListen := context.WithCancel(ctx)
	defer cancelListen()
	listener, err := postgres.NewQueueListener(pool.URL())
	if err != nil {
		log.Printf("Queue listener unavailable, SSE limited to this instance: %v", err)
	} else {
		go listener.Run(listenCtx)
		go func() {
			for entryID := range listener.Events() {
				manager.Notifier().Send(queue.Event{Type: queue.EventChanged, EntryID: entryID})
			}
		}()
		defer listener.Close()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newInsightsProvider picks the advisory note backend from configuration.
// OpenAI wins when both are configured; no configuration means no insights.
func newInsightsProvider(ctx context.Context, cfg *config.Config) insights.Provider {
	if cfg.OpenAI.Token != "" {
		log.Println("Using OpenAI for customer insights")
		return insights.NewOpenAIProvider(cfg.OpenAI.Token)
	}
	if cfg.Gemini.APIKey != "" {
		provider, err := insights.NewGeminiProvider(ctx, cfg.Gemini.APIKey)
		if err != nil {
			log.Printf("Gemini provider unavailable: %v", err)
			return nil
		}
		log.Println("Using Gemini for customer insights")
		return provider
	}
	log.Println("No insights provider configured")
	return nil
}
