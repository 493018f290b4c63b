package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bancalot/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type drawRepo struct{}

// NewDrawRepository returns a pgx-backed DrawRepository.
func NewDrawRepository() DrawRepository {
	return &drawRepo{}
}

func (r *drawRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Draw, error) {
	var d domain.Draw
	err := db.QueryRow(ctx, `
		SELECT id, name, scheduled_at, status
		FROM draws WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.ScheduledAt, &d.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan draw: %w", err)
	}
	return &d, nil
}
