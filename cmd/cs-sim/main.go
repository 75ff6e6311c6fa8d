// Command cs-sim runs the CloudStack API simulator, backed either by an
// in-memory store or by a database. It exists so the load balancer modules
// can be exercised end to end without a management server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/caarlos0/env/v9"
	"github.com/rs/zerolog"

	"github.com/DazWorrall/ansible-modules-extras/internal/simulator"
	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state"
	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state/memory"
	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state/sql"
)

type settings struct {
	Listen string `env:"CSSIM_LISTEN" envDefault:":8089"`
	// DBDriver selects the backing store: sqlite3 or postgres. Empty means
	// in-memory, which is also what the tests use.
	DBDriver string `env:"CSSIM_DB_DRIVER"`
	DBDSN    string `env:"CSSIM_DB_DSN"`
	SeedFile string `env:"CSSIM_SEED"`
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "cs-sim").Logger()
	if err := run(log); err != nil {
		log.Error().Err(err).Msg("simulator stopped")
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	var store state.Store
	if cfg.DBDriver != "" {
		var err error
		store, err = sql.New(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("opening %s database: %w", cfg.DBDriver, err)
		}
	} else {
		store = memory.New()
	}
	defer store.Close()

	if cfg.SeedFile != "" {
		seed, err := simulator.LoadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := seed.Apply(context.Background(), store); err != nil {
			return err
		}
		log.Info().Str("file", cfg.SeedFile).Msg("seed applied")
	}

	srv := simulator.New(store, log)
	log.Info().Str("listen", cfg.Listen).Msg("simulator listening")
	return http.ListenAndServe(cfg.Listen, srv.Handler())
}
