// Package main is the migration runner for the Wayfare database schema.
// It drives the embedded goose migrations, so deploys need neither the goose
// CLI nor a copy of the SQL files next to the binary.
//
// Usage: migrate [up|down|status]. The default command is "up".
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/wayfare-app/api/migrations"
)

func main() {
	// A .env file is a development convenience; production sets the real
	// environment and no file is present.
	_ = godotenv.Load()

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [up|down|status]")
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		slog.Error("DATABASE_URL is not set")
		os.Exit(1)
	}

	if err := run(context.Background(), command, dsn); err != nil {
		slog.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command, dsn string) error {
	// goose needs database/sql, so the pool the API server uses does not
	// apply here.
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			slog.Info("database is up to date")
		}
		for _, res := range results {
			slog.Info("applied migration", "version", res.Source.Version, "path", res.Source.Path)
		}
	case "down":
		res, err := provider.Down(ctx)
		if err != nil {
			return err
		}
		slog.Info("rolled back migration", "version", res.Source.Version, "path", res.Source.Path)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			slog.Info("migration", "version", st.Source.Version, "path", st.Source.Path, "state", string(st.State))
		}
	default:
		return fmt.Errorf("unknown command %q (want up, down, or status)", command)
	}
	return nil
}
