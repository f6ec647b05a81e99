// Package database provides PostgreSQL persistence for heritage items, multimedia,
// annotations and users.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
	"github.com/heritago/backend/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("conflict")

	// ErrInvalid is returned when a value does not fit its column.
	ErrInvalid = errors.New("invalid value")
)

// HeritageRepository defines the heritage data operations.
type HeritageRepository interface {
	CreateHeritage(ctx context.Context, req *models.CreateHeritageRequest) (*models.Heritage, error)
	GetHeritage(ctx context.Context, id string) (*models.Heritage, error)
	ListHeritages(ctx context.Context) ([]models.Heritage, error)
	UpdateHeritage(ctx context.Context, id string, req *models.UpdateHeritageRequest) (*models.Heritage, error)

	// DeleteHeritage removes the heritage; its multimedia rows go with it.
	DeleteHeritage(ctx context.Context, id string) error
}

// MultimediaRepository defines the multimedia data operations.
type MultimediaRepository interface {
	CreateMultimedia(ctx context.Context, m *models.Multimedia) (*models.Multimedia, error)
	GetMultimedia(ctx context.Context, id string) (*models.Multimedia, error)
	ListMultimedia(ctx context.Context, heritageID string) ([]models.Multimedia, error)
	DeleteMultimedia(ctx context.Context, id string) error
}

// AnnotationRepository defines the annotation data operations.
type AnnotationRepository interface {
	CreateAnnotation(ctx context.Context, a *models.Annotation) (*models.Annotation, error)
	GetAnnotation(ctx context.Context, id string) (*models.Annotation, error)
	ListAnnotations(ctx context.Context) ([]models.Annotation, error)
	UpdateAnnotation(ctx context.Context, id string, changes *models.AnnotationChanges) (*models.Annotation, error)
	DeleteAnnotation(ctx context.Context, id string) error
}

// UserRepository defines the user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) (*models.User, error)
}

// dbPool is the part of *pgxpool.Pool the repository uses.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresRepository implements every repository on a single pgx pool.
type PostgresRepository struct {
	pool   dbPool
	logger *zap.Logger
}

func newRepository(pool dbPool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool:   pool,
		logger: logger,
	}
}

// NewPostgresRepository connects to PostgreSQL and runs the schema migration.
func NewPostgresRepository(cfg *config.Config, logger *zap.Logger) (*PostgresRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := newRepository(pool, logger)

	if err := repo.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL database")
	return repo, nil
}

// migrate creates the necessary database tables if they don't exist.
func (r *PostgresRepository) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS heritages (
			id UUID PRIMARY KEY,
			title VARCHAR(256) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			origin VARCHAR(256) NOT NULL DEFAULT '',
			location VARCHAR(256) NOT NULL DEFAULT '',
			start_date VARCHAR(64) NOT NULL DEFAULT '',
			end_date VARCHAR(64) NOT NULL DEFAULT '',
			exact_date VARCHAR(64) NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS multimedia (
			id UUID PRIMARY KEY,
			heritage_id UUID NOT NULL REFERENCES heritages(id) ON DELETE CASCADE,
			type VARCHAR(16) NOT NULL,
			url VARCHAR(512) NOT NULL DEFAULT '',
			meta_info VARCHAR(1024) NOT NULL DEFAULT '',
			file_name VARCHAR(256) NOT NULL DEFAULT '',
			content_type VARCHAR(128) NOT NULL DEFAULT '',
			size BIGINT NOT NULL DEFAULT 0,
			storage_key VARCHAR(512) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_multimedia_heritage_id ON multimedia(heritage_id);

		CREATE TABLE IF NOT EXISTS annotations (
			id UUID PRIMARY KEY,
			motivation VARCHAR(64) NOT NULL DEFAULT '',
			creator VARCHAR(256) NOT NULL DEFAULT '',
			body_type VARCHAR(64) NOT NULL DEFAULT '',
			body_value TEXT NOT NULL,
			body_format VARCHAR(64) NOT NULL DEFAULT '',
			target_id TEXT NOT NULL,
			target_type VARCHAR(64) NOT NULL DEFAULT '',
			heritage_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		ALTER TABLE annotations ALTER COLUMN heritage_id TYPE TEXT;

		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(150) NOT NULL UNIQUE,
			email VARCHAR(254) NOT NULL DEFAULT '',
			first_name VARCHAR(150) NOT NULL DEFAULT '',
			last_name VARCHAR(150) NOT NULL DEFAULT '',
			password_hash VARCHAR(128) NOT NULL,
			date_joined TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_heritages_created_at ON heritages(created_at);
		CREATE INDEX IF NOT EXISTS idx_annotations_created_at ON annotations(created_at);
	`

	_, err := r.pool.Exec(ctx, query)
	return err
}

// Ping checks database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
	r.logger.Info("Closed database connection")
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "22P02":
			// invalid uuid text never matches a row
			return ErrNotFound
		case "22001":
			return fmt.Errorf("%w: %s", ErrInvalid, pgErr.Message)
		}
	}
	return err
}

// now is the timestamp source for writes.
func now() time.Time {
	return time.Now().UTC()
}
