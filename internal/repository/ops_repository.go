package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

// OpsRepository serves the operator reports.
type OpsRepository struct {
	db *gorm.DB
}

func NewOpsRepository(db *gorm.DB) *OpsRepository {
	return &OpsRepository{db: db}
}

func (r *OpsRepository) CountFreightsByStatus(ctx context.Context) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) AS total
		FROM freights
		GROUP BY status
		ORDER BY status
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStaleFreights returns non-terminal freights untouched since before.
func (r *OpsRepository) ListStaleFreights(ctx context.Context, before time.Time, limit int) ([]model.StaleFreight, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []model.StaleFreight
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, status, updated_at
		FROM freights
		WHERE status NOT IN ('COMPLETED', 'CANCELLED')
			AND updated_at < ?
		ORDER BY updated_at ASC
		LIMIT ?
	`, before, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
