package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

type FreightRepository struct {
	db *gorm.DB
}

func NewFreightRepository(db *gorm.DB) *FreightRepository {
	return &FreightRepository{db: db}
}

func (r *FreightRepository) GetFreight(ctx context.Context, id uuid.UUID) (*model.Freight, error) {
	var freight model.Freight
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			total_price,
			required_units,
			producer_id,
			driver_id,
			carrier_id,
			cargo,
			origin,
			destination,
			created_at,
			updated_at
		FROM freights
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&freight).Error
	if err != nil {
		return nil, err
	}
	if freight.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &freight, nil
}

// ListAssignments returns the freight's truck-loads with the status of each
// one's latest payment version.
func (r *FreightRepository) ListAssignments(ctx context.Context, freightID uuid.UUID) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			a.id,
			a.freight_id,
			a.driver_id,
			a.agreed_unit_price,
			a.status,
			p.status AS payment_status,
			a.created_at
		FROM freight_assignments a
		LEFT JOIN LATERAL (
			SELECT status
			FROM payments
			WHERE assignment_id = a.id
			ORDER BY version DESC
			LIMIT 1
		) p ON TRUE
		WHERE a.freight_id = ?
		ORDER BY a.created_at ASC
	`, freightID).Scan(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// GetLatestPayment returns the newest payment version for a freight, or for
// one of its assignments when assignmentID is set. It returns nil when no
// payment exists yet.
func (r *FreightRepository) GetLatestPayment(ctx context.Context, freightID uuid.UUID, assignmentID *uuid.UUID) (*model.PaymentRecord, error) {
	query := `
		SELECT id, freight_id, assignment_id, service_id, amount, status, payer_id, payee_id, created_at
		FROM payments
		WHERE freight_id = ? AND assignment_id IS NULL
		ORDER BY version DESC
		LIMIT 1
	`
	args := []interface{}{freightID}
	if assignmentID != nil {
		query = `
			SELECT id, freight_id, assignment_id, service_id, amount, status, payer_id, payee_id, created_at
			FROM payments
			WHERE freight_id = ? AND assignment_id = ?
			ORDER BY version DESC
			LIMIT 1
		`
		args = append(args, *assignmentID)
	}

	var payment model.PaymentRecord
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&payment).Error; err != nil {
		return nil, err
	}
	if payment.ID == uuid.Nil {
		return nil, nil
	}
	return &payment, nil
}

func (r *FreightRepository) ListRatings(ctx context.Context, freightID uuid.UUID) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, rater_id, rated_id, freight_id, service_id, score, comment, created_at
		FROM ratings
		WHERE freight_id = ?
		ORDER BY created_at ASC
	`, freightID).Scan(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

type FreightTransition struct {
	FreightID uuid.UUID
	From      model.FreightStatus
	To        model.FreightStatus
	ActorID   uuid.UUID
	ActorRole model.Role
	// DriverID and CarrierID are recorded when a hauler claims the freight;
	// nil keeps the stored value.
	DriverID  *uuid.UUID
	CarrierID *uuid.UUID
}

// ApplyFreightTransition is a compare-and-set on the freight status: the row
// only changes if it still holds From and is not terminal.
func (r *FreightRepository) ApplyFreightTransition(ctx context.Context, t FreightTransition) (*model.Freight, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE freights
			SET status = ?,
				driver_id = COALESCE(?, driver_id),
				carrier_id = COALESCE(?, carrier_id),
				updated_at = NOW()
			WHERE id = ?
				AND status = ?
				AND status NOT IN ('COMPLETED', 'CANCELLED')
		`, t.To, t.DriverID, t.CarrierID, t.FreightID, t.From)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		// Assignments follow the parent until they are individually closed.
		if err := tx.Exec(`
			UPDATE freight_assignments
			SET status = ?
			WHERE freight_id = ? AND status = ?
		`, t.To, t.FreightID, t.From).Error; err != nil {
			return err
		}

		return tx.Exec(`
			INSERT INTO freight_status_history (freight_id, from_status, to_status, actor_id, actor_role)
			VALUES (?, ?, ?, ?, ?)
		`, t.FreightID, t.From, t.To, nullableUUID(t.ActorID), t.ActorRole).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetFreight(ctx, t.FreightID)
}

type PaymentTransition struct {
	FreightID    uuid.UUID
	AssignmentID *uuid.UUID
	// From is the status the caller validated against; nil means no
	// payment existed.
	From    *model.PaymentStatus
	To      model.PaymentStatus
	Amount  decimal.Decimal
	PayerID uuid.UUID
	PayeeID uuid.UUID
}

// ApplyPaymentTransition appends a new payment version. The unique
// (scope, version) index turns a concurrent append into ErrStaleStatus.
func (r *FreightRepository) ApplyPaymentTransition(ctx context.Context, t PaymentTransition) (*model.PaymentRecord, error) {
	var saved model.PaymentRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current struct {
			Version int
			Status  *model.PaymentStatus
			Amount  decimal.Decimal
		}
		err := tx.Raw(`
			SELECT COALESCE(MAX(version), 0) AS version,
				(SELECT status FROM payments
					WHERE freight_id = ? AND assignment_id IS NOT DISTINCT FROM ?
					ORDER BY version DESC LIMIT 1) AS status,
				(SELECT amount FROM payments
					WHERE freight_id = ? AND assignment_id IS NOT DISTINCT FROM ?
					ORDER BY version DESC LIMIT 1) AS amount
			FROM payments
			WHERE freight_id = ? AND assignment_id IS NOT DISTINCT FROM ?
		`, t.FreightID, t.AssignmentID, t.FreightID, t.AssignmentID, t.FreightID, t.AssignmentID).Scan(&current).Error
		if err != nil {
			return err
		}
		if !sameStatus(current.Status, t.From) {
			return ErrStaleStatus
		}

		amount := t.Amount
		if amount.IsZero() {
			amount = current.Amount
		}
		err = tx.Raw(`
			INSERT INTO payments (freight_id, assignment_id, version, amount, status, payer_id, payee_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id, freight_id, assignment_id, service_id, amount, status, payer_id, payee_id, created_at
		`, t.FreightID, t.AssignmentID, current.Version+1, amount, t.To, t.PayerID, t.PayeeID).Scan(&saved).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrStaleStatus
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *FreightRepository) InsertRating(ctx context.Context, rating model.Rating) (*model.Rating, error) {
	var saved model.Rating
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO ratings (rater_id, rated_id, freight_id, service_id, score, comment)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, rater_id, rated_id, freight_id, service_id, score, comment, created_at
	`, rating.RaterID, rating.RatedID, rating.FreightID, rating.ServiceID, rating.Score, rating.Comment).Scan(&saved).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateRating
	}
	if err != nil {
		return nil, fmt.Errorf("insert rating: %w", err)
	}
	return &saved, nil
}

func sameStatus(current, expected *model.PaymentStatus) bool {
	if expected == nil {
		return current == nil
	}
	return current != nil && *current == *expected
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
