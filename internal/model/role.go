package model

import (
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDriver           Role = "DRIVER"
	RoleAffiliatedDriver Role = "AFFILIATED_DRIVER"
	RoleCarrier          Role = "CARRIER"
	RoleProducer         Role = "PRODUCER"
	RoleAdmin            Role = "ADMIN"
	RoleGuest            Role = "GUEST"
)

var allRoles = [...]Role{
	RoleDriver,
	RoleAffiliatedDriver,
	RoleCarrier,
	RoleProducer,
	RoleAdmin,
	RoleGuest,
}

// AllRoles returns every role in declaration order. Guards are expected to
// handle each of them explicitly.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles[:])
	return out
}

// FreightRoles are the roles that may act on a rural freight. Guests only
// exist for urban service requests.
func FreightRoles() []Role {
	return []Role{RoleDriver, RoleAffiliatedDriver, RoleCarrier, RoleProducer, RoleAdmin}
}

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	return role, role.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleAffiliatedDriver, RoleCarrier, RoleProducer, RoleAdmin, RoleGuest:
		return true
	default:
		return false
	}
}

// IsDriver reports whether the role physically performs a truck-load.
func (r Role) IsDriver() bool {
	switch r {
	case RoleDriver, RoleAffiliatedDriver:
		return true
	case RoleCarrier, RoleProducer, RoleAdmin, RoleGuest:
		return false
	default:
		return false
	}
}

type Principal struct {
	UserID uuid.UUID
	OrgID  *uuid.UUID
	Role   Role
}

func GuestPrincipal() Principal {
	return Principal{Role: RoleGuest}
}

func (p Principal) IsDriver() bool   { return p.Role.IsDriver() }
func (p Principal) IsCarrier() bool  { return p.Role == RoleCarrier }
func (p Principal) IsProducer() bool { return p.Role == RoleProducer }
func (p Principal) IsAdmin() bool    { return p.Role == RoleAdmin }
func (p Principal) IsGuest() bool    { return p.Role == RoleGuest }
