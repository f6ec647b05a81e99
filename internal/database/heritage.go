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

const heritageColumns = `id, title, description, origin, location, start_date, end_date, exact_date, tags, created_at, updated_at`

func scanHeritage(row pgx.Row, h *models.Heritage) error {
	return row.Scan(
		&h.ID,
		&h.Title,
		&h.Description,
		&h.Origin,
		&h.Location,
		&h.StartDate,
		&h.EndDate,
		&h.ExactDate,
		&h.Tags,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
}

// CreateHeritage creates a new heritage item.
func (r *PostgresRepository) CreateHeritage(ctx context.Context, req *models.CreateHeritageRequest) (*models.Heritage, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	heritage := &models.Heritage{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Origin:      req.Origin,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ExactDate:   req.ExactDate,
		Tags:        tags,
		CreatedAt:   now(),
	}
	heritage.UpdatedAt = heritage.CreatedAt

	query := `
		INSERT INTO heritages (` + heritageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		heritage.ID,
		heritage.Title,
		heritage.Description,
		heritage.Origin,
		heritage.Location,
		heritage.StartDate,
		heritage.EndDate,
		heritage.ExactDate,
		heritage.Tags,
		heritage.CreatedAt,
		heritage.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create heritage", zap.Error(err))
		return nil, fmt.Errorf("failed to create heritage: %w", translate(err))
	}

	r.logger.Info("Created heritage", zap.String("id", heritage.ID))
	return heritage, nil
}

// GetHeritage retrieves a heritage item by its ID.
func (r *PostgresRepository) GetHeritage(ctx context.Context, id string) (*models.Heritage, error) {
	query := `SELECT ` + heritageColumns + ` FROM heritages WHERE id = $1`

	var heritage models.Heritage
	if err := scanHeritage(r.pool.QueryRow(ctx, query, id), &heritage); err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		r.logger.Error("Failed to get heritage", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get heritage: %w", err)
	}

	return &heritage, nil
}

// ListHeritages retrieves all heritage items in insertion order.
func (r *PostgresRepository) ListHeritages(ctx context.Context) ([]models.Heritage, error) {
	query := `SELECT ` + heritageColumns + ` FROM heritages ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list heritages", zap.Error(err))
		return nil, fmt.Errorf("failed to list heritages: %w", err)
	}
	defer rows.Close()

	heritages := []models.Heritage{}
	for rows.Next() {
		var heritage models.Heritage
		if err := scanHeritage(rows, &heritage); err != nil {
			r.logger.Error("Failed to scan heritage row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan heritage: %w", err)
		}
		heritages = append(heritages, heritage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list heritages: %w", err)
	}

	return heritages, nil
}

// UpdateHeritage applies the set fields of req to an existing heritage item.
func (r *PostgresRepository) UpdateHeritage(ctx context.Context, id string, req *models.UpdateHeritageRequest) (*models.Heritage, error) {
	existing, err := r.GetHeritage(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(existing)
	if existing.Tags == nil {
		existing.Tags = []string{}
	}
	existing.UpdatedAt = now()

	query := `
		UPDATE heritages
		SET title = $2, description = $3, origin = $4, location = $5,
			start_date = $6, end_date = $7, exact_date = $8, tags = $9, updated_at = $10
		WHERE id = $1
	`

	_, err = r.pool.Exec(ctx, query,
		existing.ID,
		existing.Title,
		existing.Description,
		existing.Origin,
		existing.Location,
		existing.StartDate,
		existing.EndDate,
		existing.ExactDate,
		existing.Tags,
		existing.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update heritage", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update heritage: %w", translate(err))
	}

	r.logger.Info("Updated heritage", zap.String("id", id))
	return existing, nil
}

// DeleteHeritage removes a heritage item by its ID.
func (r *PostgresRepository) DeleteHeritage(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM heritages WHERE id = $1`, id)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return err
		}
		r.logger.Error("Failed to delete heritage", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete heritage: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Deleted heritage", zap.String("id", id))
	return nil
}
