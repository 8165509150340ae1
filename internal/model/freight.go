package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FreightStatus string

const (
	FreightStatusNew                          FreightStatus = "NEW"
	FreightStatusApproved                     FreightStatus = "APPROVED"
	FreightStatusOpen                         FreightStatus = "OPEN"
	FreightStatusAccepted                     FreightStatus = "ACCEPTED"
	FreightStatusLoading                      FreightStatus = "LOADING"
	FreightStatusLoaded                       FreightStatus = "LOADED"
	FreightStatusInTransit                    FreightStatus = "IN_TRANSIT"
	FreightStatusDeliveredPendingConfirmation FreightStatus = "DELIVERED_PENDING_CONFIRMATION"
	FreightStatusDelivered                    FreightStatus = "DELIVERED"
	FreightStatusCompleted                    FreightStatus = "COMPLETED"
	FreightStatusCancelled                    FreightStatus = "CANCELLED"
)

// freightStatusOrder is the required linear order of the freight lifecycle.
// CANCELLED sits outside the chain.
var freightStatusOrder = [...]FreightStatus{
	FreightStatusNew,
	FreightStatusApproved,
	FreightStatusOpen,
	FreightStatusAccepted,
	FreightStatusLoading,
	FreightStatusLoaded,
	FreightStatusInTransit,
	FreightStatusDeliveredPendingConfirmation,
	FreightStatusDelivered,
	FreightStatusCompleted,
}

func FreightStatusOrder() []FreightStatus {
	out := make([]FreightStatus, len(freightStatusOrder))
	copy(out, freightStatusOrder[:])
	return out
}

// AllFreightStatuses is the chain followed by CANCELLED.
func AllFreightStatuses() []FreightStatus {
	return append(FreightStatusOrder(), FreightStatusCancelled)
}

// FreightStatusIndex returns the position in the linear chain, or -1 for
// CANCELLED and unknown values.
func FreightStatusIndex(s FreightStatus) int {
	for i, candidate := range freightStatusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (s FreightStatus) Valid() bool {
	return s == FreightStatusCancelled || FreightStatusIndex(s) >= 0
}

func (s FreightStatus) Terminal() bool {
	return s == FreightStatusCompleted || s == FreightStatusCancelled
}

type Freight struct {
	ID            uuid.UUID
	Status        FreightStatus
	TotalPrice    decimal.Decimal
	RequiredUnits int
	ProducerID    uuid.UUID
	DriverID      *uuid.UUID
	CarrierID     *uuid.UUID
	Cargo         string
	Origin        string
	Destination   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MultiUnit reports whether the freight decomposes into assignments.
func (f Freight) MultiUnit() bool {
	return f.RequiredUnits > 1
}

// Assignment is one truck-load of a multi-unit freight.
type Assignment struct {
	ID              uuid.UUID
	FreightID       uuid.UUID
	DriverID        uuid.UUID
	AgreedUnitPrice decimal.Decimal
	Status          FreightStatus
	PaymentStatus   *PaymentStatus
	CreatedAt       time.Time
}
