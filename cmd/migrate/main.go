// Command migrate applies the database schema and optionally seeds an
// admin account.
//
// Usage:
//
//	go run cmd/migrate/main.go up
//	go run cmd/migrate/main.go seed-admin <username> <email> <password>
package main

import (
	"fmt"
	"os"

	"webforge/internal/auth"
	"webforge/internal/config"
	"webforge/internal/db"
	"webforge/internal/logging"
	"webforge/pkg/models"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	logging.Init()
	defer logging.Sync()
	log := logging.S()

	gdb, err := db.Open(cfg.DatabaseURL, cfg.SQLitePath, cfg.IsProduction())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}

	switch os.Args[1] {
	case "up":
		if err := db.Migrate(gdb); err != nil {
			log.Fatalw("migration failed", "error", err)
		}
		log.Info("schema migrated")

	case "seed-admin":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: migrate seed-admin <username> <email> <password>")
			os.Exit(1)
		}
		username, email, password := os.Args[2], os.Args[3], os.Args[4]

		if err := auth.ValidatePasswordStrength(password); err != nil {
			log.Fatalw("weak password", "error", err)
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatalw("hash password", "error", err)
		}

		if err := db.Migrate(gdb); err != nil {
			log.Fatalw("migration failed", "error", err)
		}

		var existing models.User
		if err := gdb.Where("email = ?", email).First(&existing).Error; err == nil {
			log.Fatalw("user already exists", "email", email)
		}

		user := models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := gdb.Create(&user).Error; err != nil {
			log.Fatalw("create admin user", "error", err)
		}
		log.Infow("admin user created", "id", user.ID, "username", username)

	case "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`webforge database tool

Usage:
  migrate <command> [arguments]

Commands:
  up                                       Apply the database schema
  seed-admin <username> <email> <password> Create an initial admin account
  help                                     Show this help message

Environment:
  DATABASE_URL  Postgres DSN; when empty the embedded sqlite store is used
  SQLITE_PATH   Path of the sqlite database file (default webforge.db)
`)
}
