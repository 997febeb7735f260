package main

import (
	"database/sql"
	"os"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/wolfman30/vendor-inquiry/internal/config"
	"github.com/wolfman30/vendor-inquiry/migrations"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

// Usage: migrate [up] | migrate force <version>
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).Component("migrate")

	databaseURL := strings.TrimSpace(cfg.DatabaseURL)
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("ping db", "error", err)
		os.Exit(1)
	}

	if len(os.Args) >= 3 && os.Args[1] == "force" {
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			logger.Error("invalid version", "error", err)
			os.Exit(1)
		}
		if err := migrations.Force(db, version); err != nil {
			logger.Error("force version", "error", err)
			os.Exit(1)
		}
		logger.Info("forced migration version", "version", version)
		return
	}

	if err := migrations.Up(db); err != nil {
		logger.Error("migrate up", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations complete")
}
