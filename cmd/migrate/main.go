package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/freakyfit/freakyfit-api/internal/logging"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type migrateConfig struct {
	DBUrl         string `env:"DB_URL,required"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`
	AppEnv        string `env:"APP_ENV" envDefault:"production"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// searchDepth bounds how many parent directories are checked for migrations/.
const searchDepth = 6

func main() {
	_ = godotenv.Load()

	var cfg migrateConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := run(cfg, cmd, logger); err != nil {
		logger.Fatal("migration failed", zap.String("command", cmd), zap.Error(err))
	}
}

func run(cfg migrateConfig, cmd string, logger *zap.Logger) error {
	switch cmd {
	case "up", "down", "version":
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", cmd)
	}

	dir := cfg.MigrationsDir
	if dir == "" {
		var err error
		if dir, err = findMigrationsDir(searchRoots()); err != nil {
			return err
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+abs, cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	switch cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return err
		}
		logger.Info("migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}

	logger.Info("migration applied", zap.String("command", cmd), zap.String("dir", abs))
	return nil
}

// searchRoots lists the working directory and the binary's directory, the
// two places a checkout or a deployed image keeps migrations/.
func searchRoots() []string {
	var roots []string
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	return roots
}

// findMigrationsDir returns the first migrations/ directory found walking up
// from each root in turn.
func findMigrationsDir(roots []string) (string, error) {
	for _, root := range roots {
		current := root
		for i := 0; i < searchDepth; i++ {
			candidate := filepath.Join(current, "migrations")
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				return candidate, nil
			}
			parent := filepath.Dir(current)
			if parent == current {
				break
			}
			current = parent
		}
	}
	return "", errors.New("migrations directory not found")
}
