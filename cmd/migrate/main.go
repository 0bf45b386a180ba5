// Command migrate manages the PostgreSQL schema.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	path     string
	logLevel string
	log      *zap.Logger
}

func rootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Procurement database migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(config.LogConfig{Level: c.logLevel, Format: "console", Output: "stdout"})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			c.log = log
			c.path = resolvePath(c.path)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.path, "path", "", "migrations directory (default ./migrations)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		c.dbCommand("up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		c.dbCommand("down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		c.dbCommand("steps N", "Apply N migrations (negative rolls back)", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		c.dbCommand("force V", "Mark version V as applied and clear the dirty flag", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		c.dbCommand("version", "Show the applied schema version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if v == 0 {
					c.log.Info("No migrations applied")
					return nil
				}
				c.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
				return nil
			}),
		c.createCommand(),
		c.listCommand(),
	)
	return root
}

// dbCommand wraps a subcommand that needs a database connection
func (c *cli) dbCommand(use, short string, args cobra.PositionalArgs, run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			m, err := migration.Open(cfg.Database.DSN(), c.path, c.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					c.log.Warn("Failed to close migrator", zap.Error(err))
				}
			}()
			c.log.Info("Running migration command",
				zap.String("command", cmd.Name()),
				zap.String("migrations_path", c.path))
			return run(m, a)
		},
	}
}

func (c *cli) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := migration.Create(c.path, args[0])
			if err != nil {
				return err
			}
			c.log.Info("Migration created",
				zap.Uint64("version", f.Version),
				zap.String("up_file", f.UpPath),
				zap.String("down_file", f.DownPath))
			return nil
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := migration.List(c.path)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				c.log.Info("No migrations found")
				return nil
			}
			for _, f := range files {
				paired := "paired"
				if f.UpPath == "" || f.DownPath == "" {
					paired = "UNPAIRED"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %06d  %-40s %s\n", f.Version, f.Name, paired)
			}
			return nil
		},
	}
}

// resolvePath falls back to ./migrations, then to migrations two levels above
// the executable
func resolvePath(path string) string {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
