package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

type ServiceRequestRepository struct {
	db *gorm.DB
}

func NewServiceRequestRepository(db *gorm.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

const serviceRequestColumns = `
	id,
	service_type,
	status,
	client_id,
	provider_id,
	price,
	origin,
	destination,
	created_at,
	updated_at
`

func (r *ServiceRequestRepository) GetServiceRequest(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+serviceRequestColumns+`
		FROM service_requests
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&req).Error
	if err != nil {
		return nil, err
	}
	if req.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

// ListOpen returns every unclaimed request, oldest first.
func (r *ServiceRequestRepository) ListOpen(ctx context.Context) ([]model.ServiceRequest, error) {
	var reqs []model.ServiceRequest
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+serviceRequestColumns+`
		FROM service_requests
		WHERE status = 'OPEN'
		ORDER BY created_at ASC
	`).Scan(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *ServiceRequestRepository) GetLatestPayment(ctx context.Context, serviceID uuid.UUID) (*model.PaymentRecord, error) {
	var payment model.PaymentRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, freight_id, assignment_id, service_id, amount, status, payer_id, payee_id, created_at
		FROM payments
		WHERE service_id = ?
		ORDER BY version DESC
		LIMIT 1
	`, serviceID).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == uuid.Nil {
		return nil, nil
	}
	return &payment, nil
}

func (r *ServiceRequestRepository) ListRatings(ctx context.Context, serviceID uuid.UUID) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, rater_id, rated_id, freight_id, service_id, score, comment, created_at
		FROM ratings
		WHERE service_id = ?
		ORDER BY created_at ASC
	`, serviceID).Scan(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

type ServiceTransition struct {
	ServiceID uuid.UUID
	From      model.ServiceStatus
	To        model.ServiceStatus
	// ProviderID is recorded when a provider claims the request.
	ProviderID *uuid.UUID
}

func (r *ServiceRequestRepository) ApplyServiceTransition(ctx context.Context, t ServiceTransition) (*model.ServiceRequest, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE service_requests
		SET status = ?, provider_id = COALESCE(?, provider_id), updated_at = NOW()
		WHERE id = ?
			AND status = ?
			AND status NOT IN ('COMPLETED', 'CANCELLED')
	`, t.To, t.ProviderID, t.ServiceID, t.From)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStaleStatus
	}
	return r.GetServiceRequest(ctx, t.ServiceID)
}

func (r *ServiceRequestRepository) InsertRating(ctx context.Context, rating model.Rating) (*model.Rating, error) {
	var saved model.Rating
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO ratings (rater_id, rated_id, freight_id, service_id, score, comment)
		VALUES (?, ?, NULL, ?, ?, ?)
		RETURNING id, rater_id, rated_id, freight_id, service_id, score, comment, created_at
	`, rating.RaterID, rating.RatedID, rating.ServiceID, rating.Score, rating.Comment).Scan(&saved).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateRating
	}
	if err != nil {
		return nil, fmt.Errorf("insert rating: %w", err)
	}
	return &saved, nil
}
