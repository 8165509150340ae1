package workflow

import (
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

const defaultExpirationHours = 24

var defaultServiceExpiration = map[model.ServiceType]int{
	model.ServiceTypeTowing:          2,
	model.ServiceTypeMotoFreight:     4,
	model.ServiceTypePackageDelivery: 24,
	model.ServiceTypeUrbanFreight:    24,
	model.ServiceTypeMoving:          72,
	model.ServiceTypePetTransport:    48,
}

type ServiceStep = Step[model.ServiceStatus]

// ServiceGuard is the urban-job counterpart of FreightGuard.
type ServiceGuard struct {
	chain      chain[model.ServiceStatus]
	loc        *i18n.Guard
	expiration map[model.ServiceType]int
}

// NewServiceGuard builds the guard; overrides replace the built-in expiry
// windows per service type and are copied.
func NewServiceGuard(loc *i18n.Guard, overrides map[model.ServiceType]int) *ServiceGuard {
	expiration := make(map[model.ServiceType]int, len(defaultServiceExpiration)+len(overrides))
	for k, v := range defaultServiceExpiration {
		expiration[k] = v
	}
	for k, v := range overrides {
		if v > 0 {
			expiration[k] = v
		}
	}
	return &ServiceGuard{
		chain: chain[model.ServiceStatus]{
			order:     model.ServiceStatusOrder(),
			cancelled: model.ServiceStatusCancelled,
			loc:       loc,
		},
		loc:        loc,
		expiration: expiration,
	}
}

func (g *ServiceGuard) CanTransition(from, to model.ServiceStatus) TransitionResult {
	return g.chain.check(from, to)
}

func (g *ServiceGuard) AssertValidTransition(from, to model.ServiceStatus) error {
	return g.chain.check(from, to).Err()
}

func (g *ServiceGuard) NextAllowedStatus(status model.ServiceStatus) (model.ServiceStatus, bool) {
	return g.chain.next(status)
}

func (g *ServiceGuard) UserAllowedActions(role model.Role, status model.ServiceStatus) AllowedActions[model.ServiceStatus] {
	var out AllowedActions[model.ServiceStatus]
	if !status.Valid() || status.Terminal() {
		return out
	}
	if next, ok := g.chain.next(status); ok && isHauler(role) {
		out.CanAdvance = true
		out.NextStatus = next
		out.Action, _ = serviceStepAction(status)
	}
	out.CanCancel = serviceCancelAllowed(role, status)
	return out
}

func (g *ServiceGuard) StepForAction(action model.Action) (ServiceStep, bool) {
	for _, from := range model.ServiceStatusOrder() {
		a, ok := serviceStepAction(from)
		if !ok || a != action {
			continue
		}
		to, _ := g.chain.next(from)
		return ServiceStep{Action: action, From: from, To: to}, true
	}
	return ServiceStep{}, false
}

// CanAutoExpire is true only for unclaimed requests. Once a provider has
// claimed a job, only a person may cancel it.
func (g *ServiceGuard) CanAutoExpire(status model.ServiceStatus) bool {
	return status == model.ServiceStatusOpen
}

// CheckAutoExpire is CanAutoExpire with a localized reason.
func (g *ServiceGuard) CheckAutoExpire(status model.ServiceStatus) guard.Result {
	if g.CanAutoExpire(status) {
		return guard.Allow()
	}
	return guard.Deny(guard.ErrInvalidTransition, guard.CodeWrongState,
		g.loc.Message(i18n.MsgCannotAutoExpire, g.loc.LabelForStatus(string(status))))
}

func (g *ServiceGuard) ExpirationHours(serviceType model.ServiceType) int {
	if hours, ok := g.expiration[serviceType]; ok {
		return hours
	}
	return defaultExpirationHours
}

func serviceStepAction(from model.ServiceStatus) (model.Action, bool) {
	switch from {
	case model.ServiceStatusOpen:
		return model.ActionAccept, true
	case model.ServiceStatusAccepted:
		return model.ActionDepart, true
	case model.ServiceStatusOnTheWay:
		return model.ActionStartService, true
	case model.ServiceStatusInProgress:
		return model.ActionFinishService, true
	case model.ServiceStatusCompleted, model.ServiceStatusCancelled:
		return "", false
	default:
		return "", false
	}
}

func serviceCancelAllowed(role model.Role, status model.ServiceStatus) bool {
	switch role {
	case model.RoleProducer, model.RoleCarrier, model.RoleAdmin:
		return true
	case model.RoleGuest:
		// An anonymous requester can only withdraw a request nobody claimed.
		return status == model.ServiceStatusOpen
	case model.RoleDriver, model.RoleAffiliatedDriver:
		return false
	default:
		return false
	}
}
