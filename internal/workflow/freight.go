package workflow

import (
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

// Step is one forward edge of a lifecycle chain and the action that drives it.
type Step[S ~string] struct {
	Action model.Action
	From   S
	To     S
}

type FreightStep = Step[model.FreightStatus]

// AllowedActions is the role-gated view of what an actor may do right now.
type AllowedActions[S ~string] struct {
	CanAdvance bool
	NextStatus S
	Action     model.Action
	CanCancel  bool
}

type FreightGuard struct {
	chain chain[model.FreightStatus]
	loc   *i18n.Guard
}

func NewFreightGuard(loc *i18n.Guard) *FreightGuard {
	return &FreightGuard{
		chain: chain[model.FreightStatus]{
			order:     model.FreightStatusOrder(),
			cancelled: model.FreightStatusCancelled,
			loc:       loc,
		},
		loc: loc,
	}
}

func (g *FreightGuard) CanTransition(from, to model.FreightStatus) TransitionResult {
	return g.chain.check(from, to)
}

func (g *FreightGuard) AssertValidTransition(from, to model.FreightStatus) error {
	return g.chain.check(from, to).Err()
}

// NextAllowedStatus returns the single forward successor, or false for
// terminal and unknown states.
func (g *FreightGuard) NextAllowedStatus(status model.FreightStatus) (model.FreightStatus, bool) {
	return g.chain.next(status)
}

func (g *FreightGuard) UserAllowedActions(role model.Role, status model.FreightStatus) AllowedActions[model.FreightStatus] {
	var out AllowedActions[model.FreightStatus]
	if !status.Valid() || status.Terminal() {
		return out
	}
	if next, ok := g.chain.next(status); ok && freightAdvanceAllowed(role, status) {
		out.CanAdvance = true
		out.NextStatus = next
		out.Action, _ = freightStepAction(status)
	}
	out.CanCancel = freightCancelAllowed(role)
	return out
}

// StepForAction returns the transition an action implies. Payment and rating
// actions do not move the freight status and report false.
func (g *FreightGuard) StepForAction(action model.Action) (FreightStep, bool) {
	for _, from := range model.FreightStatusOrder() {
		a, ok := freightStepAction(from)
		if !ok || a != action {
			continue
		}
		to, _ := g.chain.next(from)
		return FreightStep{Action: action, From: from, To: to}, true
	}
	return FreightStep{}, false
}

func (g *FreightGuard) Steps() []FreightStep {
	steps := make([]FreightStep, 0, len(model.FreightStatusOrder()))
	for _, from := range model.FreightStatusOrder() {
		a, ok := freightStepAction(from)
		if !ok {
			continue
		}
		to, _ := g.chain.next(from)
		steps = append(steps, FreightStep{Action: a, From: from, To: to})
	}
	return steps
}

func (g *FreightGuard) CanReportDelivery(status model.FreightStatus) guard.Result {
	return requireStatus(g.loc, status, model.FreightStatusInTransit)
}

func (g *FreightGuard) CanConfirmDelivery(status model.FreightStatus) guard.Result {
	if status == model.FreightStatusInTransit {
		return guard.Deny(guard.ErrInvalidTransition, guard.CodeDeliveryNotReported,
			g.loc.Message(i18n.MsgReportDeliveryFirst, g.loc.LabelForStatus(string(status))))
	}
	return requireStatus(g.loc, status, model.FreightStatusDeliveredPendingConfirmation)
}

// CanConfirmPayment is true only while the producer's payment awaits the
// driver's acknowledgement.
func (g *FreightGuard) CanConfirmPayment(paymentStatus *model.PaymentStatus) bool {
	return paymentStatus != nil && *paymentStatus == model.PaymentStatusPaidByProducer
}

func freightStepAction(from model.FreightStatus) (model.Action, bool) {
	switch from {
	case model.FreightStatusNew:
		return model.ActionApprove, true
	case model.FreightStatusApproved:
		return model.ActionPublish, true
	case model.FreightStatusOpen:
		return model.ActionAccept, true
	case model.FreightStatusAccepted:
		return model.ActionStartLoading, true
	case model.FreightStatusLoading:
		return model.ActionFinishLoading, true
	case model.FreightStatusLoaded:
		return model.ActionStartTransit, true
	case model.FreightStatusInTransit:
		return model.ActionReportDelivery, true
	case model.FreightStatusDeliveredPendingConfirmation:
		return model.ActionConfirmDelivery, true
	case model.FreightStatusDelivered:
		return model.ActionComplete, true
	case model.FreightStatusCompleted, model.FreightStatusCancelled:
		return "", false
	default:
		return "", false
	}
}

func freightAdvanceAllowed(role model.Role, from model.FreightStatus) bool {
	switch from {
	case model.FreightStatusNew:
		return role == model.RoleAdmin
	case model.FreightStatusApproved,
		model.FreightStatusDeliveredPendingConfirmation,
		model.FreightStatusDelivered:
		return role == model.RoleProducer || role == model.RoleAdmin
	case model.FreightStatusOpen,
		model.FreightStatusAccepted,
		model.FreightStatusLoading,
		model.FreightStatusLoaded,
		model.FreightStatusInTransit:
		return isHauler(role)
	default:
		return false
	}
}

func freightCancelAllowed(role model.Role) bool {
	switch role {
	case model.RoleProducer, model.RoleCarrier, model.RoleAdmin:
		return true
	case model.RoleDriver, model.RoleAffiliatedDriver, model.RoleGuest:
		return false
	default:
		return false
	}
}

// isHauler covers every role that operates trucks.
func isHauler(role model.Role) bool {
	switch role {
	case model.RoleDriver, model.RoleAffiliatedDriver, model.RoleCarrier:
		return true
	case model.RoleProducer, model.RoleAdmin, model.RoleGuest:
		return false
	default:
		return false
	}
}
