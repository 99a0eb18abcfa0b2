package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/installments/backend/internal/infrastructure/logger"
	"github.com/installments/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(config.LogConfig{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(args, dir, log); err != nil {
		log.Fatal("migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(args []string, dir string, log *zap.Logger) error {
	command := args[0]

	switch command {
	case "create":
		if dir == "" {
			dir = "migrations"
		}
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description, time.Now())
		if err != nil {
			return err
		}
		log.Info("migration created", zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return nil

	case "list":
		if dir == "" {
			dir = "migrations"
		}
		names, err := migration.ListMigrations(dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	src := migration.Embedded()
	if dir != "" {
		src = migration.Dir(dir)
	}
	m, err := migration.New(db, src, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(n))
	case "force":
		n, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}

	usage()
	return fmt.Errorf("unknown command %q", command)
}

func intArg(args []string, form string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: migrate %s", form)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[1])
	}
	return n, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `Installments schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    apply all pending migrations
  down                  roll back all migrations
  step <n>              apply n migrations, negative rolls back
  goto <version>        migrate to a version
  version               print the applied version
  force <version>       mark a version as applied without running it
  create <name> [desc]  write a new numbered migration pair
  list                  list migration files

Flags:
  -dir string           read migrations from a directory (default: embedded)
  -log-level string     debug, info, warn, error (default: info)

Database settings come from INST_DATABASE_* environment variables or config.yaml.`)
}
