package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/models"
)

const multimediaColumns = `id, heritage_id, type, url, meta_info, file_name, content_type, size, storage_key, created_at`

func scanMultimedia(row pgx.Row, m *models.Multimedia) error {
	return row.Scan(
		&m.ID,
		&m.HeritageID,
		&m.Type,
		&m.URL,
		&m.MetaInfo,
		&m.FileName,
		&m.ContentType,
		&m.Size,
		&m.StorageKey,
		&m.CreatedAt,
	)
}

// CreateMultimedia inserts a multimedia record. The caller assigns the ID so that the
// stored file key can be derived from it before the row exists.
func (r *PostgresRepository) CreateMultimedia(ctx context.Context, m *models.Multimedia) (*models.Multimedia, error) {
	created := *m
	created.CreatedAt = now()

	query := `
		INSERT INTO multimedia (` + multimediaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		created.ID,
		created.HeritageID,
		created.Type,
		created.URL,
		created.MetaInfo,
		created.FileName,
		created.ContentType,
		created.Size,
		created.StorageKey,
		created.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create multimedia", zap.String("heritage_id", m.HeritageID), zap.Error(err))
		return nil, fmt.Errorf("failed to create multimedia: %w", translate(err))
	}

	r.logger.Info("Created multimedia",
		zap.String("id", created.ID),
		zap.String("heritage_id", created.HeritageID),
	)
	return &created, nil
}

// GetMultimedia retrieves a multimedia record by its ID.
func (r *PostgresRepository) GetMultimedia(ctx context.Context, id string) (*models.Multimedia, error) {
	query := `SELECT ` + multimediaColumns + ` FROM multimedia WHERE id = $1`

	var m models.Multimedia
	if err := scanMultimedia(r.pool.QueryRow(ctx, query, id), &m); err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		r.logger.Error("Failed to get multimedia", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get multimedia: %w", err)
	}

	return &m, nil
}

// ListMultimedia retrieves the multimedia records owned by a heritage item.
func (r *PostgresRepository) ListMultimedia(ctx context.Context, heritageID string) ([]models.Multimedia, error) {
	query := `SELECT ` + multimediaColumns + ` FROM multimedia WHERE heritage_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, heritageID)
	if err != nil {
		if err = translate(err); errors.Is(err, ErrNotFound) {
			return []models.Multimedia{}, nil
		}
		r.logger.Error("Failed to list multimedia", zap.String("heritage_id", heritageID), zap.Error(err))
		return nil, fmt.Errorf("failed to list multimedia: %w", err)
	}
	defer rows.Close()

	items := []models.Multimedia{}
	for rows.Next() {
		var m models.Multimedia
		if err := scanMultimedia(rows, &m); err != nil {
			r.logger.Error("Failed to scan multimedia row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan multimedia: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		if err = translate(err); errors.Is(err, ErrNotFound) {
			return []models.Multimedia{}, nil
		}
		return nil, fmt.Errorf("failed to list multimedia: %w", err)
	}

	return items, nil
}

// DeleteMultimedia removes a multimedia record by its ID.
func (r *PostgresRepository) DeleteMultimedia(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM multimedia WHERE id = $1`, id)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return err
		}
		r.logger.Error("Failed to delete multimedia", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete multimedia: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Deleted multimedia", zap.String("id", id))
	return nil
}
