package cmd

import (
	"fmt"

	"github.com/kozaktomas/branch-greeter/internal/config"
	"github.com/kozaktomas/branch-greeter/internal/store/postgres"
)

// repositories bundles the database-backed stores used by CLI commands.
type repositories struct {
	pool      *postgres.Pool
	customers *postgres.CustomerRepository
	visits    *postgres.VisitRepository
	queue     *postgres.QueueRepository
}

func (r *repositories) Close() {
	r.pool.Close()
}

// openRepositories connects to PostgreSQL, applies pending migrations and
// returns the repository set. Caller must Close.
func openRepositories(cfg *config.Config) (*repositories, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	return &repositories{
		pool:      pool,
		customers: postgres.NewCustomerRepository(pool),
		visits:    postgres.NewVisitRepository(pool),
		queue:     postgres.NewQueueRepository(pool),
	}, nil
}
