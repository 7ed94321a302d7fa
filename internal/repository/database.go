package repository

import (
	"context"
	"fmt"
	"time"

	"pickem/ingestion/internal/metrics"
	"pickem/ingestion/internal/models"
	"pickem/ingestion/internal/registry"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Database holds the database connection pool and provides access to repositories
type Database struct {
	Pool *pgxpool.Pool

	// Repositories
	Teams     *TeamRepository
	Pickers   *PickerRepository
	Seasons   *SeasonRepository
	Snapshots *SnapshotRepository
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDatabase creates a new database connection pool and initializes repositories
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Runs are short and sequential; the worker may overlap a few.
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Successfully connected to database")

	db := &Database{
		Pool: pool,
	}

	db.Teams = &TeamRepository{db: db}
	db.Pickers = &PickerRepository{db: db}
	db.Seasons = &SeasonRepository{db: db}
	db.Snapshots = &SnapshotRepository{db: db}

	return db, nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// PoolStats returns database pool statistics
func (db *Database) PoolStats() map[string]interface{} {
	stat := db.Pool.Stat()
	return map[string]interface{}{
		"total_conns":    stat.TotalConns(),
		"acquired_conns": stat.AcquiredConns(),
		"idle_conns":     stat.IdleConns(),
		"max_conns":      stat.MaxConns(),
	}
}

// ListEntities implements registry.Source over the teams and pickers tables
func (db *Database) ListEntities(ctx context.Context, kind registry.Kind) ([]registry.Entity, error) {
	switch kind {
	case registry.Team:
		teams, err := db.Teams.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]registry.Entity, len(teams))
		for i, t := range teams {
			out[i] = t.ToEntity()
		}
		return out, nil

	case registry.Picker:
		pickers, err := db.Pickers.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]registry.Entity, len(pickers))
		for i, p := range pickers {
			out[i] = p.ToEntity()
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// WriteRatings implements ingest.Store
func (db *Database) WriteRatings(ctx context.Context, snap *models.RatingSnapshot, ratings []models.Rating) error {
	return db.Snapshots.WriteRatings(ctx, snap, ratings)
}

// WriteSchedules implements ingest.Store
func (db *Database) WriteSchedules(ctx context.Context, snap *models.ScheduleSnapshot, schedules []models.TeamSchedule) error {
	return db.Snapshots.WriteSchedules(ctx, snap, schedules)
}

// WriteStreaks implements ingest.Store
func (db *Database) WriteStreaks(ctx context.Context, snap *models.StreakSnapshot, streaks []models.Streak) error {
	return db.Snapshots.WriteStreaks(ctx, snap, streaks)
}

// inTx runs fn in a transaction that commits only if fn succeeds
func (db *Database) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// observe records query metrics for one statement
func observe(operation, table string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordDBQuery(operation, table, status, time.Since(start).Seconds())
}
