// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Dev admin credentials created by Seed on an empty database.
const (
	DevAdminEmail    = "admin@blogpress.local"
	DevAdminPassword = "admin"
)

// Seed populates the database with initial development data: a default
// admin user if none exists, plus the default categories.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(DevAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed bcrypt: %w", err)
		}

		_, err = db.Exec(`
			INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
			VALUES ($1, $2, $3, $4, $5)
		`, DevAdminEmail, string(hash), "Admin", "admin", false)
		if err != nil {
			return fmt.Errorf("seed insert admin: %w", err)
		}

		slog.Info("database seeded with default admin user",
			"email", DevAdminEmail,
			"password", DevAdminPassword,
		)
	}

	results, err := SeedCategories(db)
	if err != nil {
		return err
	}
	if n := CreatedCount(results); n > 0 {
		slog.Info("default categories created", "count", n)
	}

	return nil
}
