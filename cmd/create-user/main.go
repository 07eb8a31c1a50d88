// Command create-user adds a login account.
//
//	create-user -email jane@example.com -password secret -name Jane [-admin]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"blogpress/internal/config"
	"blogpress/internal/database"
	"blogpress/internal/models"
	"blogpress/internal/store"
)

func main() {
	email := flag.String("email", "", "login email (required)")
	password := flag.String("password", "", "password (required)")
	name := flag.String("name", "", "display name, defaults to the email's local part")
	admin := flag.Bool("admin", false, "grant the admin role")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *name == "" {
		*name, _, _ = strings.Cut(*email, "@")
	}

	role := models.RoleAuthor
	if *admin {
		role = models.RoleAdmin
	}

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

	u, err := store.NewUserStore(db).Create(strings.TrimSpace(*email), *password, *name, role)
	if errors.Is(err, store.ErrEmailTaken) {
		fmt.Fprintf(os.Stderr, "User already exists: %s\n", *email)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s user: %s (%s)\n", u.Role, u.Email, u.ID)
}
