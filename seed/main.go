package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/sharegate/seed/seeders"
	"github.com/lac-hong-legacy/sharegate/services"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, users, files")
		driver   = flag.String("driver", "", "Database driver, postgres or sqlite (overrides DB_DRIVER)")
		dsn      = flag.String("dsn", "", "DSN or sqlite path (overrides the environment)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	envDriver, envDSN := services.DatabaseFromEnv()
	if *driver == "" {
		*driver = envDriver
	}
	if *dsn == "" {
		*dsn = envDSN
	}

	db, err := services.OpenDatabase(*driver, *dsn)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := services.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	log.WithField("driver", *driver).Info("Connected to database")

	mainSeeder := seeders.NewMainSeeder(db)

	switch *seedType {
	case "all":
		err = mainSeeder.SeedAll()
	case "users":
		err = mainSeeder.SeedUsersOnly()
	case "files":
		err = mainSeeder.SeedFilesOnly()
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'users' or 'files'", *seedType)
	}
	if err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}

	log.Info("Seeding operation completed successfully!")
}

func showHelp() {
	fmt.Fprintf(os.Stderr, `
Database seeding tool for sharegate

Usage: go run ./seed [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, users, files
  -driver string
        postgres or sqlite (default from DB_DRIVER)
  -dsn string
        Connection string or sqlite path (default from the environment)
  -help
        Show this help message

Seeded accounts use the password %q; password-protected files use %q.
`, seeders.DemoPassword, seeders.DemoFilePassword)
}
