package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so lexical order equals chronological order.
const timeLayout = "2006-01-02 15:04:05"

// columns whitelists the SQL column of every filterable field.
var columns = map[flight.Field]string{
	flight.FieldAirline:      "airline",
	flight.FieldFlightNumber: "flight_number",
	flight.FieldOriginCity:   "origin_city",
	flight.FieldOriginCode:   "origin_code",
	flight.FieldDestCity:     "dest_city",
	flight.FieldDestCode:     "dest_code",
	flight.FieldDepartureAt:  "departure_at",
	flight.FieldCreatedAt:    "created_at",
}

// Config holds SQLite store configuration.
type Config struct {
	Path         string
	MaxOpenConns int
	BusyTimeout  time.Duration
	Logger       *slog.Logger
}

// Store implements ports.RecordStore using SQLite.
type Store struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger

	// writeMu serialises writers inside this process; busy_timeout covers other processes.
	writeMu sync.Mutex
}

// New creates a store. Call Init and Migrate (or use Open) before use.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 8
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{cfg: cfg, logger: logger}, nil
}

// Open creates, initializes and migrates a store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Init opens the database connection and enables WAL mode.
func (s *Store) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		s.cfg.Path, s.cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Migrate runs the embedded migrations up to the latest version.
func (s *Store) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// The migrate instance is not closed: that would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		s.logger.Debug("flight store migrated", "path", s.cfg.Path, "version", version, "dirty", dirty)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// Insert appends records in one transaction.
func (s *Store) Insert(ctx context.Context, records []domain.FlightRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flights (airline, departure_at, flight_number, origin_city, origin_code, dest_city, dest_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		created := r.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			r.Airline,
			formatTime(r.DepartureAt),
			r.FlightNumber,
			r.OriginCity,
			strings.ToUpper(r.OriginCode),
			r.DestCity,
			strings.ToUpper(r.DestCode),
			formatTime(created),
		)
		if err != nil {
			return fmt.Errorf("failed to insert flight %d (%s): %w", i, r.FlightNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flights: %w", err)
	}
	return nil
}

// Query compiles the filter into a parameterised statement over whitelisted columns.
func (s *Store) Query(ctx context.Context, filter flight.Filter) ([]domain.FlightRecord, error) {
	where, args, err := compile(filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT airline, departure_at, flight_number, origin_city, origin_code, dest_city, dest_code, created_at FROM flights`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY departure_at, rowid"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var out []domain.FlightRecord
	for rows.Next() {
		var r domain.FlightRecord
		var departure, created string
		if err := rows.Scan(&r.Airline, &departure, &r.FlightNumber, &r.OriginCity, &r.OriginCode, &r.DestCity, &r.DestCode, &created); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		if r.DepartureAt, err = time.Parse(timeLayout, departure); err != nil {
			return nil, fmt.Errorf("corrupt departure_at %q: %w", departure, err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("corrupt created_at %q: %w", created, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flights: %w", err)
	}
	return out, nil
}

// compile turns a validated filter into a WHERE clause and its arguments.
func compile(filter flight.Filter) (string, []any, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}

	var clauses []string
	var args []any
	for _, c := range filter.Conditions {
		col := columns[c.Field]
		placeholders := make([]string, len(c.Values))
		for i, v := range c.Values {
			placeholders[i] = "?"
			if t, ok := v.(time.Time); ok {
				args = append(args, formatTime(t))
			} else {
				args = append(args, v)
			}
		}

		collate := ""
		if !c.Field.IsTime() {
			collate = " COLLATE NOCASE"
		}
		switch c.Op {
		case flight.OpEq:
			clauses = append(clauses, fmt.Sprintf("%s%s = ?", col, collate))
		case flight.OpIn:
			clauses = append(clauses, fmt.Sprintf("%s%s IN (%s)", col, collate, strings.Join(placeholders, ", ")))
		case flight.OpGte:
			clauses = append(clauses, col+" >= ?")
		case flight.OpLt:
			clauses = append(clauses, col+" < ?")
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
