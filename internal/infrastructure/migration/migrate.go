// Package migration applies the SQL schema in migrations/ with golang-migrate.
package migration

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator runs schema migrations against one database
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Open connects to databaseURL (postgres://...) and reads migrations from dir
func Open(databaseURL, dir string, logger *zap.Logger) (*Migrator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations dir: %w", err)
	}
	m, err := migrate.New("file://"+filepath.ToSlash(abs), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m.Log = migrateLogger{logger.Sugar()}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration
func (r *Migrator) Up() error {
	return r.run("up", r.m.Up)
}

// Down reverts every applied migration
func (r *Migrator) Down() error {
	return r.run("down", r.m.Down)
}

// Steps applies n migrations forward, or -n backward
func (r *Migrator) Steps(n int) error {
	return r.run(fmt.Sprintf("steps %d", n), func() error { return r.m.Steps(n) })
}

// Version reports the applied version; 0 means an empty database
func (r *Migrator) Version() (uint, bool, error) {
	v, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Force records version as applied and clears the dirty flag without running
// anything
func (r *Migrator) Force(version int) error {
	r.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := r.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database connection
func (r *Migrator) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (r *Migrator) run(name string, fn func() error) error {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("Schema already current", zap.String("command", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", name, err)
	}
	v, dirty, err := r.Version()
	if err != nil {
		return err
	}
	r.logger.Info("Migrations applied",
		zap.String("command", name),
		zap.Uint("version", v),
		zap.Bool("dirty", dirty))
	return nil
}

// migrateLogger adapts zap to migrate.Logger
type migrateLogger struct {
	s *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) { l.s.Debugf(format, v...) }

func (l migrateLogger) Verbose() bool { return false }
