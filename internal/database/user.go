package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, date_joined, updated_at`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.DateJoined,
		&u.UpdatedAt,
	)
}

// CreateUser inserts a user whose password is already hashed.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	user := *u
	user.ID = uuid.New().String()
	user.DateJoined = now()
	user.UpdatedAt = user.DateJoined

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.DateJoined,
		user.UpdatedAt,
	)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		r.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("Created user", zap.String("id", user.ID))
	return &user, nil
}

// GetUser retrieves a user by ID.
func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	return r.getUserBy(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUserBy(ctx, "username", username)
}

// column is always a literal chosen by the callers above.
func (r *PostgresRepository) getUserBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	var user models.User
	if err := scanUser(r.pool.QueryRow(ctx, query, value), &user); err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		r.logger.Error("Failed to get user", zap.String(column, value), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdateUser writes every mutable column of u.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *models.User) (*models.User, error) {
	user := *u
	user.UpdatedAt = now()

	query := `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5, password_hash = $6, updated_at = $7
		WHERE id = $1
		RETURNING date_joined
	`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.UpdatedAt,
	).Scan(&user.DateJoined)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return nil, err
		}
		r.logger.Error("Failed to update user", zap.String("id", u.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	r.logger.Info("Updated user", zap.String("id", user.ID))
	return &user, nil
}
