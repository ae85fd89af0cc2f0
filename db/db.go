package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minefield/players"
)

//go:embed migrations/*.sql
var migrations embed.FS

var log = logrus.New()

// SetLogger replaces the package logger.
func SetLogger(logger *logrus.Logger) {
	log = logger
}

type SQLStore struct {
	DB  *sql.DB
	ctx context.Context
}

// Open opens the sqlite database at path with foreign keys enforced.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		return nil, err
	}
	// Need to ping the database to check if the file could be opened
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	log.WithField("path", path).Debug("opened database")
	return &SQLStore{DB: db, ctx: context.Background()}, nil
}

func InitStore() (*SQLStore, error) {
	path := os.Getenv("DB_PATH")
	if path == "" {
		return nil, fmt.Errorf("DB_PATH not set in environment")
	}
	return Open(path)
}

// Migrate applies the embedded schema migrations. It is safe to call on an
// up to date database.
func (s *SQLStore) Migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite3migrate.WithInstance(s.DB, &sqlite3migrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	// Closing m would close s.DB through the driver.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("database schema ready")
	return nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func (s *SQLStore) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.DB.PingContext(ctx) == nil
}

func (s *SQLStore) CreatePlayer(name, hash string) error {
	_, err := s.DB.ExecContext(s.ctx,
		`INSERT INTO players (username, password_hash) VALUES (?, ?)`, name, hash)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return players.ErrPlayerExists
	}
	return err
}

func (s *SQLStore) FindPlayerByName(name string) (*players.Player, error) {
	row := s.DB.QueryRowContext(s.ctx,
		`SELECT id, username, password_hash FROM players WHERE username = ?`, name)
	var id int64
	plr := &players.Player{}
	if err := row.Scan(&id, &plr.Name, &plr.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, players.ErrPlayerNotFound
		}
		return nil, err
	}
	plr.ID = uint32(id)
	return plr, nil
}
