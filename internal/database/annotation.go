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

const annotationColumns = `id, motivation, creator, body_type, body_value, body_format, target_id, target_type, heritage_id, created_at, updated_at`

func scanAnnotation(row pgx.Row, a *models.Annotation) error {
	return row.Scan(
		&a.ID,
		&a.Motivation,
		&a.Creator,
		&a.BodyType,
		&a.BodyValue,
		&a.BodyFormat,
		&a.TargetID,
		&a.TargetType,
		&a.HeritageID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// CreateAnnotation inserts a new annotation and returns it with its ID and timestamps.
func (r *PostgresRepository) CreateAnnotation(ctx context.Context, a *models.Annotation) (*models.Annotation, error) {
	annotation := *a
	annotation.ID = uuid.New().String()
	annotation.CreatedAt = now()
	annotation.UpdatedAt = annotation.CreatedAt

	query := `
		INSERT INTO annotations (` + annotationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		annotation.ID,
		annotation.Motivation,
		annotation.Creator,
		annotation.BodyType,
		annotation.BodyValue,
		annotation.BodyFormat,
		annotation.TargetID,
		annotation.TargetType,
		annotation.HeritageID,
		annotation.CreatedAt,
		annotation.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create annotation", zap.Error(err))
		return nil, fmt.Errorf("failed to create annotation: %w", translate(err))
	}

	r.logger.Info("Created annotation",
		zap.String("id", annotation.ID),
		zap.String("target_id", annotation.TargetID),
	)
	return &annotation, nil
}

// GetAnnotation retrieves an annotation by its ID.
func (r *PostgresRepository) GetAnnotation(ctx context.Context, id string) (*models.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations WHERE id = $1`

	var annotation models.Annotation
	if err := scanAnnotation(r.pool.QueryRow(ctx, query, id), &annotation); err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		r.logger.Error("Failed to get annotation", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get annotation: %w", err)
	}

	return &annotation, nil
}

// ListAnnotations retrieves all annotations in insertion order.
func (r *PostgresRepository) ListAnnotations(ctx context.Context) ([]models.Annotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM annotations ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to get annotations", zap.Error(err))
		return nil, fmt.Errorf("failed to get annotations: %w", err)
	}
	defer rows.Close()

	annotations := []models.Annotation{}
	for rows.Next() {
		var annotation models.Annotation
		if err := scanAnnotation(rows, &annotation); err != nil {
			r.logger.Error("Failed to scan annotation row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, annotation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get annotations: %w", err)
	}

	return annotations, nil
}

// UpdateAnnotation applies changes to an existing annotation.
func (r *PostgresRepository) UpdateAnnotation(ctx context.Context, id string, changes *models.AnnotationChanges) (*models.Annotation, error) {
	existing, err := r.GetAnnotation(ctx, id)
	if err != nil {
		return nil, err
	}

	changes.Apply(existing)
	existing.UpdatedAt = now()

	query := `
		UPDATE annotations
		SET motivation = $2, creator = $3, body_type = $4, body_value = $5,
			body_format = $6, target_type = $7, updated_at = $8
		WHERE id = $1
	`

	_, err = r.pool.Exec(ctx, query,
		existing.ID,
		existing.Motivation,
		existing.Creator,
		existing.BodyType,
		existing.BodyValue,
		existing.BodyFormat,
		existing.TargetType,
		existing.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update annotation", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update annotation: %w", translate(err))
	}

	r.logger.Info("Updated annotation", zap.String("id", id))
	return existing, nil
}

// DeleteAnnotation removes an annotation by its ID.
func (r *PostgresRepository) DeleteAnnotation(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return err
		}
		r.logger.Error("Failed to delete annotation", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete annotation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Deleted annotation", zap.String("id", id))
	return nil
}
