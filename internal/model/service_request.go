package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceStatus string

const (
	ServiceStatusOpen       ServiceStatus = "OPEN"
	ServiceStatusAccepted   ServiceStatus = "ACCEPTED"
	ServiceStatusOnTheWay   ServiceStatus = "ON_THE_WAY"
	ServiceStatusInProgress ServiceStatus = "IN_PROGRESS"
	ServiceStatusCompleted  ServiceStatus = "COMPLETED"
	ServiceStatusCancelled  ServiceStatus = "CANCELLED"
)

var serviceStatusOrder = [...]ServiceStatus{
	ServiceStatusOpen,
	ServiceStatusAccepted,
	ServiceStatusOnTheWay,
	ServiceStatusInProgress,
	ServiceStatusCompleted,
}

func ServiceStatusOrder() []ServiceStatus {
	out := make([]ServiceStatus, len(serviceStatusOrder))
	copy(out, serviceStatusOrder[:])
	return out
}

func AllServiceStatuses() []ServiceStatus {
	return append(ServiceStatusOrder(), ServiceStatusCancelled)
}

func ServiceStatusIndex(s ServiceStatus) int {
	for i, candidate := range serviceStatusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (s ServiceStatus) Valid() bool {
	return s == ServiceStatusCancelled || ServiceStatusIndex(s) >= 0
}

func (s ServiceStatus) Terminal() bool {
	return s == ServiceStatusCompleted || s == ServiceStatusCancelled
}

type ServiceType string

const (
	ServiceTypeTowing          ServiceType = "TOWING"
	ServiceTypeMotoFreight     ServiceType = "MOTO_FREIGHT"
	ServiceTypePackageDelivery ServiceType = "PACKAGE_DELIVERY"
	ServiceTypeUrbanFreight    ServiceType = "URBAN_FREIGHT"
	ServiceTypeMoving          ServiceType = "MOVING"
	ServiceTypePetTransport    ServiceType = "PET_TRANSPORT"
)

type ServiceRequest struct {
	ID          uuid.UUID
	ServiceType ServiceType
	Status      ServiceStatus
	ClientID    *uuid.UUID // nil for guest requests
	ProviderID  *uuid.UUID
	Price       decimal.Decimal
	Origin      string
	Destination string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
