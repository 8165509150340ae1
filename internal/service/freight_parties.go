package service

import "github.com/Anthonyboth/agriroute-connect-sub007/internal/model"

// carrierMatches reports whether the principal is, or belongs to, the
// carrier holding the freight. Carriers are booked under their organization.
func carrierMatches(principal model.Principal, f *model.Freight) bool {
	if f.CarrierID == nil {
		return false
	}
	return *f.CarrierID == principal.UserID || (principal.OrgID != nil && *f.CarrierID == *principal.OrgID)
}

// crewMember reports whether the principal is an affiliated driver of the
// carrier holding the freight.
func crewMember(principal model.Principal, f *model.Freight) bool {
	return principal.Role == model.RoleAffiliatedDriver &&
		principal.OrgID != nil && f.CarrierID != nil && *f.CarrierID == *principal.OrgID
}

func drivesFreight(principal model.Principal, f *model.Freight, assignments []model.Assignment) bool {
	if f.DriverID != nil && *f.DriverID == principal.UserID {
		return true
	}
	for _, a := range assignments {
		if a.DriverID == principal.UserID {
			return true
		}
	}
	return false
}

// claimable is a published single-unit freight no hauler has taken yet.
// Multi-unit loads are booked through assignments instead.
func claimable(f *model.Freight) bool {
	return f.Status == model.FreightStatusOpen && !f.MultiUnit() && f.DriverID == nil && f.CarrierID == nil
}

// isParty reports whether the principal takes part in the freight and may
// therefore change it. Seeing an open freight is not enough: outsiders may
// only claim it.
func isParty(principal model.Principal, f *model.Freight, assignments []model.Assignment, action model.Action) bool {
	switch principal.Role {
	case model.RoleAdmin:
		return true
	case model.RoleProducer:
		return f.ProducerID == principal.UserID
	case model.RoleCarrier:
		return carrierMatches(principal, f) || (action == model.ActionAccept && claimable(f))
	case model.RoleDriver, model.RoleAffiliatedDriver:
		if drivesFreight(principal, f, assignments) {
			return true
		}
		if crewMember(principal, f) && f.DriverID == nil {
			return true
		}
		return action == model.ActionAccept && claimable(f)
	case model.RoleGuest:
		return false
	default:
		return false
	}
}

func canViewFreight(principal model.Principal, f *model.Freight, assignments []model.Assignment) bool {
	switch principal.Role {
	case model.RoleAdmin:
		return true
	case model.RoleProducer:
		return f.ProducerID == principal.UserID
	case model.RoleCarrier:
		return f.Status == model.FreightStatusOpen || carrierMatches(principal, f)
	case model.RoleDriver, model.RoleAffiliatedDriver:
		if f.Status == model.FreightStatusOpen || drivesFreight(principal, f, assignments) {
			return true
		}
		return crewMember(principal, f) && f.DriverID == nil
	case model.RoleGuest:
		return false
	default:
		return false
	}
}
