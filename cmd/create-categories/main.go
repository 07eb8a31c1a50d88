// Command create-categories installs the default blog categories. Running it
// again only reports the categories that already exist.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"blogpress/internal/config"
	"blogpress/internal/database"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	results, err := database.SeedCategories(db)
	for _, r := range results {
		if r.Created {
			fmt.Printf("Created category: %s\n", r.Name)
		} else {
			fmt.Printf("Category already exists: %s\n", r.Name)
		}
	}
	if err != nil {
		slog.Error("failed to create categories", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d new categories created!\n", database.CreatedCount(results))
}
