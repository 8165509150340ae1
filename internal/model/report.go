package model

import (
	"time"

	"github.com/google/uuid"
)

// ConsistencyReport is the operator view of the action table's health.
type ConsistencyReport struct {
	GeneratedAt   time.Time
	Consistent    bool
	Issues        []ConsistencyIssue
	Cells         []MatrixCell
	StuckStatuses []FreightStatus
	StatusCounts  []StatusCount
	Stale         []StaleFreight
}

// ConsistencyIssue is one status/role/action triple on which the action
// table and the guards disagree.
type ConsistencyIssue struct {
	Status  FreightStatus
	Role    Role
	Action  Action
	InTable bool
	ByGuard bool
}

type MatrixCell struct {
	Status  FreightStatus
	Role    Role
	Actions []Action
}

type StatusCount struct {
	Status FreightStatus
	Total  int64
}

type StaleFreight struct {
	ID        uuid.UUID
	Status    FreightStatus
	UpdatedAt time.Time
}

// FreightStatement is the closure document of one freight as seen by one
// viewer.
type FreightStatement struct {
	Freight     Freight
	Assignments []Assignment
	Payment     *PaymentRecord
	Ratings     []Rating
	Viewer      Principal
	GeneratedAt time.Time
}
