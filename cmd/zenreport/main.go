/*
main.go - Application entry point

PURPOSE:
  Loads the zenclass seed data into a document store and prints the answers
  to the six questions. One bounded run per invocation.

RUN SEQUENCE:
  1. Parse flags, load config (.env, config.yaml, environment)
  2. Open the store (closed on every exit path)
  3. Read seed JSON and replace each collection
  4. Run the six questions in order
  5. Render the report to stdout

COMMAND-LINE:
  zenreport [-driver mongo|sqlite|memory] [-seed dir] [-db path] [uri]

  uri is used when neither MONGODB_URI nor MONGO_URI is set.

EXIT STATUS:
  0 on success, 1 on any load or query failure.

EXAMPLES:
  # Against a local MongoDB
  ./zenreport

  # Without a server
  ./zenreport -driver=memory
  ./zenreport -driver=sqlite -db=./zenclass.db

SEE ALSO:
  - config/config.go: Configuration keys
  - zenclass/questions.go: The questions
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/zenclass/zenreport/config"
	"github.com/zenclass/zenreport/engine"
	"github.com/zenclass/zenreport/engine/store"
	"github.com/zenclass/zenreport/factory"
	"github.com/zenclass/zenreport/logger"
	"github.com/zenclass/zenreport/report"
	"github.com/zenclass/zenreport/store/mongo"
	"github.com/zenclass/zenreport/store/sqlite"
	"github.com/zenclass/zenreport/zenclass"
)

func main() {
	driver := flag.String("driver", "", "store driver: mongo, sqlite or memory")
	seedDir := flag.String("seed", "", "directory holding the seed JSON files")
	dbPath := flag.String("db", "", "SQLite database path (driver=sqlite)")
	flag.Parse()

	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		log := logger.New()
		log.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if *driver != "" {
		cfg.Store.Driver = *driver
	}
	if *seedDir != "" {
		cfg.Seed.Dir = *seedDir
	}
	if *dbPath != "" {
		cfg.Store.SQLitePath = *dbPath
	}

	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error().Err(err).Msg("Error running queries")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
			return
		}
		log.Info().Msg("Finished. Store connection closed.")
	}()

	seed, err := factory.LoadSeed(cfg.Seed.Dir, zenclass.Collections)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}

	loader := engine.NewLoader(db, log)
	if _, err := loader.LoadAll(ctx, zenclass.Collections, seed); err != nil {
		return err
	}

	rep, err := zenclass.NewReporter(db, log).Run(ctx)
	if err != nil {
		return err
	}

	return report.Render(os.Stdout, rep)
}

func openStore(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (engine.Store, error) {
	switch cfg.Driver {
	case "memory":
		log.Info().Msg("Using in-memory store")
		return store.NewMemory(), nil
	case "sqlite":
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("Connected to SQLite")
		return s, nil
	case "mongo", "":
		s, err := mongo.New(ctx, mongo.Options{URI: cfg.URI, Database: cfg.Database, Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		log.Info().Str("uri", config.RedactURI(cfg.URI)).Str("database", cfg.Database).Msg("Connected to MongoDB")
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
