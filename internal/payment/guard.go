// Package payment governs what happens after delivery: the external payment
// chain, contract closure and ratings.
package payment

import (
	"github.com/google/uuid"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

var transitions = map[model.PaymentStatus][]model.PaymentStatus{
	model.PaymentStatusProposed: {
		model.PaymentStatusPaidByProducer,
		model.PaymentStatusRejected,
		model.PaymentStatusCancelled,
	},
	model.PaymentStatusPaidByProducer: {
		model.PaymentStatusConfirmedByDriver,
		model.PaymentStatusDisputed,
	},
	model.PaymentStatusConfirmedByDriver: {
		model.PaymentStatusCompleted,
	},
	model.PaymentStatusDisputed: {
		model.PaymentStatusConfirmedByDriver,
		model.PaymentStatusCancelled,
	},
}

type Guard struct {
	loc *i18n.Guard
}

func NewGuard(loc *i18n.Guard) *Guard {
	return &Guard{loc: loc}
}

// CanTransition validates one step of the payment chain. Repeating the
// current status is accepted as a no-op.
func (g *Guard) CanTransition(from, to model.PaymentStatus) guard.Result {
	switch {
	case !from.Valid():
		return g.deny(guard.CodeUnknownStatus, g.loc.Message(i18n.MsgUnknownStatus, g.label(from)))
	case !to.Valid():
		return g.deny(guard.CodeUnknownStatus, g.loc.Message(i18n.MsgUnknownStatus, g.label(to)))
	case from == to:
		return guard.Allow()
	case from.Terminal():
		return g.deny(guard.CodeTerminal, g.loc.Message(i18n.MsgTerminal, g.label(from)))
	}
	for _, next := range transitions[from] {
		if next == to {
			return guard.Allow()
		}
	}
	return g.deny(guard.CodePaymentOutOfOrder, g.loc.Message(i18n.MsgPaymentOutOfOrder, g.label(from), g.label(to)))
}

func (g *Guard) AssertValidPaymentTransition(from, to model.PaymentStatus) error {
	return g.CanTransition(from, to).Err()
}

// CanCreateExternalPayment allows the paying side to register a payment
// once the producer has confirmed delivery.
func (g *Guard) CanCreateExternalPayment(freightStatus model.FreightStatus, role model.Role) guard.Result {
	if !isPayer(role) {
		return g.roleDenied(role, model.ActionCreatePayment, freightStatus)
	}
	return g.requireDelivered(freightStatus)
}

func (g *Guard) CanMarkPaidByProducer(paymentStatus *model.PaymentStatus) guard.Result {
	return g.requirePayment(paymentStatus, model.PaymentStatusProposed)
}

func (g *Guard) CanConfirmReceivedByDriver(paymentStatus *model.PaymentStatus, role model.Role) guard.Result {
	if !role.IsDriver() {
		return guard.Deny(guard.ErrRoleNotPermitted, guard.CodeRoleNotPermitted,
			g.loc.Message(i18n.MsgRoleNotPermitted, g.loc.LabelForRole(string(role)),
				g.loc.LabelForAction(string(model.ActionConfirmPayment)), g.paymentLabel(paymentStatus)))
	}
	return g.requirePayment(paymentStatus, model.PaymentStatusPaidByProducer)
}

// ActionInput is everything needed to judge a money action on a freight or
// on one of its assignments.
type ActionInput struct {
	Action        model.Action
	FreightStatus model.FreightStatus
	Role          model.Role
	PaymentStatus *model.PaymentStatus
}

// CheckAction evaluates a money action and returns the payment status it
// would produce.
func (g *Guard) CheckAction(in ActionInput) (model.PaymentStatus, guard.Result) {
	switch in.Action {
	case model.ActionCreatePayment:
		if res := g.CanCreateExternalPayment(in.FreightStatus, in.Role); !res.Allowed {
			return "", res
		}
		if in.PaymentStatus != nil && !reopens(*in.PaymentStatus) {
			return "", g.deny(guard.CodePaymentOutOfOrder, g.loc.Message(i18n.MsgPaymentOutOfOrder,
				g.label(*in.PaymentStatus), g.label(model.PaymentStatusProposed)))
		}
		return model.PaymentStatusProposed, guard.Allow()

	case model.ActionMarkPaid:
		if !isPayer(in.Role) {
			return "", g.roleDenied(in.Role, in.Action, in.FreightStatus)
		}
		if res := g.requireDelivered(in.FreightStatus); !res.Allowed {
			return "", res
		}
		if res := g.CanMarkPaidByProducer(in.PaymentStatus); !res.Allowed {
			return "", res
		}
		return model.PaymentStatusPaidByProducer, guard.Allow()

	case model.ActionConfirmPayment:
		if !in.Role.IsDriver() {
			return "", g.roleDenied(in.Role, in.Action, in.FreightStatus)
		}
		if res := g.requireDelivered(in.FreightStatus); !res.Allowed {
			return "", res
		}
		if res := g.CanConfirmReceivedByDriver(in.PaymentStatus, in.Role); !res.Allowed {
			return "", res
		}
		return model.PaymentStatusConfirmedByDriver, guard.Allow()

	default:
		return "", guard.Deny(guard.ErrInvalidTransition, guard.CodeUnknownAction,
			g.loc.Message(i18n.MsgUnknownAction, g.loc.LabelForAction(string(in.Action))))
	}
}

// ExpectedPaymentStatus is the payment status a money action starts from.
// A nil status means no payment has been registered yet.
func ExpectedPaymentStatus(action model.Action) (*model.PaymentStatus, bool) {
	var status model.PaymentStatus
	switch action {
	case model.ActionCreatePayment:
		return nil, true
	case model.ActionMarkPaid:
		status = model.PaymentStatusProposed
	case model.ActionConfirmPayment:
		status = model.PaymentStatusPaidByProducer
	default:
		return nil, false
	}
	return &status, true
}

// TargetStatus is the payment status a money action produces.
func TargetStatus(action model.Action) (model.PaymentStatus, bool) {
	switch action {
	case model.ActionCreatePayment:
		return model.PaymentStatusProposed, true
	case model.ActionMarkPaid:
		return model.PaymentStatusPaidByProducer, true
	case model.ActionConfirmPayment:
		return model.PaymentStatusConfirmedByDriver, true
	default:
		return "", false
	}
}

func (g *Guard) CanCloseFreightAsCompleted(freightStatus model.FreightStatus, paymentStatus *model.PaymentStatus) guard.Result {
	if res := g.requireDelivered(freightStatus); !res.Allowed {
		return res
	}
	if paymentStatus == nil {
		return g.deny(guard.CodePaymentMissing, g.loc.Message(i18n.MsgPaymentMissing))
	}
	if !paymentStatus.Settled() {
		return g.deny(guard.CodePaymentNotSettled, g.loc.Message(i18n.MsgPaymentNotSettled, g.label(*paymentStatus)))
	}
	return guard.Allow()
}

// CanCloseServiceRequest allows closing a finished urban job. Payment is
// optional there; only an open dispute blocks closure.
func (g *Guard) CanCloseServiceRequest(status model.ServiceStatus, paymentStatus *model.PaymentStatus) guard.Result {
	if status != model.ServiceStatusCompleted {
		return g.deny(guard.CodeNotCompleted, g.loc.Message(i18n.MsgWrongState,
			g.loc.LabelForStatus(string(model.ServiceStatusCompleted)), g.loc.LabelForStatus(string(status))))
	}
	if paymentStatus != nil && *paymentStatus == model.PaymentStatusDisputed {
		return g.deny(guard.CodePaymentNotSettled, g.loc.Message(i18n.MsgPaymentDisputed))
	}
	return guard.Allow()
}

// CanCloseMultiTruckFreight requires every live assignment to have its
// payment acknowledged by the driver. Cancelled assignments are ignored.
func (g *Guard) CanCloseMultiTruckFreight(assignments []model.Assignment) guard.Result {
	live, pending := 0, 0
	for _, a := range assignments {
		if a.Status == model.FreightStatusCancelled {
			continue
		}
		live++
		if a.PaymentStatus == nil || !a.PaymentStatus.Settled() {
			pending++
		}
	}
	if live == 0 {
		return g.deny(guard.CodePaymentMissing, g.loc.Message(i18n.MsgNoAssignments))
	}
	if pending > 0 {
		return g.deny(guard.CodeFleetNotSettled, g.loc.Message(i18n.MsgFleetNotSettled, pending, live))
	}
	return guard.Allow()
}

// RatingInput describes one rating attempt. Parties, when set, restricts
// raters to the contract's participants.
type RatingInput struct {
	RaterID  uuid.UUID
	Role     model.Role
	Parties  []uuid.UUID
	Existing []model.Rating
}

func (g *Guard) CanRateFreight(status model.FreightStatus, in RatingInput) guard.Result {
	if status != model.FreightStatusCompleted {
		return g.deny(guard.CodeNotCompleted, g.loc.Message(i18n.MsgRatingNotCompleted, g.loc.LabelForStatus(string(status))))
	}
	return g.canRate(in)
}

func (g *Guard) CanRateServiceRequest(status model.ServiceStatus, in RatingInput) guard.Result {
	if status != model.ServiceStatusCompleted {
		return g.deny(guard.CodeNotCompleted, g.loc.Message(i18n.MsgRatingNotCompleted, g.loc.LabelForStatus(string(status))))
	}
	return g.canRate(in)
}

func (g *Guard) canRate(in RatingInput) guard.Result {
	if !isRater(in.Role) || (len(in.Parties) > 0 && !contains(in.Parties, in.RaterID)) {
		return guard.Deny(guard.ErrRoleNotPermitted, guard.CodeRoleNotPermitted,
			g.loc.Message(i18n.MsgRatingNotParty, g.loc.LabelForRole(string(in.Role))))
	}
	for _, r := range in.Existing {
		if r.RaterID == in.RaterID {
			return g.deny(guard.CodeAlreadyRated, g.loc.Message(i18n.MsgAlreadyRated))
		}
	}
	return guard.Allow()
}

func (g *Guard) requireDelivered(status model.FreightStatus) guard.Result {
	if status == model.FreightStatusDelivered {
		return guard.Allow()
	}
	return g.deny(guard.CodeWrongState, g.loc.Message(i18n.MsgWrongState,
		g.loc.LabelForStatus(string(model.FreightStatusDelivered)), g.loc.LabelForStatus(string(status))))
}

func (g *Guard) requirePayment(current *model.PaymentStatus, required model.PaymentStatus) guard.Result {
	if current == nil {
		return g.deny(guard.CodePaymentMissing, g.loc.Message(i18n.MsgPaymentMissing))
	}
	if *current != required {
		return g.deny(guard.CodeWrongState, g.loc.Message(i18n.MsgWrongState, g.label(required), g.label(*current)))
	}
	return guard.Allow()
}

func (g *Guard) roleDenied(role model.Role, action model.Action, status model.FreightStatus) guard.Result {
	return guard.Deny(guard.ErrRoleNotPermitted, guard.CodeRoleNotPermitted,
		g.loc.Message(i18n.MsgRoleNotPermitted, g.loc.LabelForRole(string(role)),
			g.loc.LabelForAction(string(action)), g.loc.LabelForStatus(string(status))))
}

func (g *Guard) deny(code guard.Code, msg string) guard.Result {
	return guard.Deny(guard.ErrPaymentSequence, code, msg)
}

func (g *Guard) label(s model.PaymentStatus) string {
	return g.loc.LabelForStatus(string(s))
}

func (g *Guard) paymentLabel(s *model.PaymentStatus) string {
	if s == nil {
		return g.loc.Message(i18n.MsgNotInformed)
	}
	return g.label(*s)
}

// reopens reports whether a new proposal may replace a payment in status s.
func reopens(s model.PaymentStatus) bool {
	switch s {
	case model.PaymentStatusRejected, model.PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

func isPayer(role model.Role) bool {
	switch role {
	case model.RoleProducer, model.RoleCarrier:
		return true
	case model.RoleDriver, model.RoleAffiliatedDriver, model.RoleAdmin, model.RoleGuest:
		return false
	default:
		return false
	}
}

func isRater(role model.Role) bool {
	switch role {
	case model.RoleProducer, model.RoleDriver, model.RoleAffiliatedDriver, model.RoleCarrier:
		return true
	case model.RoleAdmin, model.RoleGuest:
		return false
	default:
		return false
	}
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
