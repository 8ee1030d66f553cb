// Command bootstrap seeds the owner account, workspace and general
// channel against the configured backend, then prints a JSON report.
// Flags override the BOOTSTRAP_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/lalith-99/galynx/internal/bootstrap"
	"github.com/lalith-99/galynx/internal/config"
	"github.com/lalith-99/galynx/internal/db"
	"github.com/lalith-99/galynx/internal/observ"
	"github.com/lalith-99/galynx/internal/repository"
	memstore "github.com/lalith-99/galynx/internal/repository/memory"
	mongostore "github.com/lalith-99/galynx/internal/repository/mongo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	workspaceName := flag.String("workspace", cfg.BootstrapWorkspaceName, "workspace name to seed")
	email := flag.String("email", cfg.BootstrapEmail, "owner email")
	password := flag.String("password", cfg.BootstrapPassword, "owner password")
	flag.Parse()

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var stores *repository.Stores
	switch cfg.PersistenceBackend {
	case config.BackendMongo:
		mongoDB, err := db.NewMongo(ctx, cfg.MongoURI, logger)
		if err != nil {
			return fmt.Errorf("connect to mongo: %w", err)
		}
		defer mongoDB.Close(ctx)
		stores = mongostore.NewStores(mongoDB.Database())
	default:
		// An in-memory seed only lives for this process; still useful to
		// validate configuration and print the would-be report.
		stores = memstore.NewStores()
	}

	report, err := bootstrap.Seed(ctx, stores, bootstrap.Params{
		WorkspaceName: *workspaceName,
		Email:         *email,
		Password:      *password,
	}, logger)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
