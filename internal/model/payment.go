package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusProposed          PaymentStatus = "proposed"
	PaymentStatusPaidByProducer    PaymentStatus = "paid_by_producer"
	PaymentStatusConfirmedByDriver PaymentStatus = "confirmed_by_driver"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusRejected          PaymentStatus = "rejected"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusDisputed          PaymentStatus = "disputed"
)

func AllPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusProposed,
		PaymentStatusPaidByProducer,
		PaymentStatusConfirmedByDriver,
		PaymentStatusCompleted,
		PaymentStatusRejected,
		PaymentStatusCancelled,
		PaymentStatusDisputed,
	}
}

func (s PaymentStatus) Valid() bool {
	for _, candidate := range AllPaymentStatuses() {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusRejected, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// Settled reports whether the driver has acknowledged receipt.
func (s PaymentStatus) Settled() bool {
	return s == PaymentStatusConfirmedByDriver || s == PaymentStatusCompleted
}

// PaymentRecord is append-only; a status change is recorded as a new version
// by the repository.
type PaymentRecord struct {
	ID           uuid.UUID
	FreightID    *uuid.UUID
	AssignmentID *uuid.UUID
	ServiceID    *uuid.UUID
	Amount       decimal.Decimal
	Status       PaymentStatus
	PayerID      uuid.UUID
	PayeeID      uuid.UUID
	CreatedAt    time.Time
}

type Rating struct {
	ID        uuid.UUID
	RaterID   uuid.UUID
	RatedID   uuid.UUID
	FreightID *uuid.UUID
	ServiceID *uuid.UUID
	Score     int
	Comment   string
	CreatedAt time.Time
}
