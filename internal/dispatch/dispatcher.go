// Package dispatch is the last check before a freight mutation is issued.
// It holds no state and performs no I/O: a permitted result authorizes the
// caller to execute the change, it does not execute it.
package dispatch

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/matrix"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/payment"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pricing"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/workflow"
)

// PriceContext carries the figures a money action is validated against.
type PriceContext struct {
	TotalPrice      decimal.Decimal
	RequiredUnits   int
	AgreedUnitPrice *decimal.Decimal
}

type Request struct {
	FreightID     uuid.UUID
	Action        model.Action
	CurrentStatus model.FreightStatus
	Role          model.Role
	PaymentStatus *model.PaymentStatus
	Assignments   []model.Assignment
	Rating        payment.RatingInput
	Price         *PriceContext
}

type Result struct {
	Permitted bool
	Kind      error
	Code      guard.Code
	// Reason is a diagnostic for logs; DisplayMessage is what a user sees.
	Reason              string
	DisplayMessage      string
	ExpectedNext        string
	SafeMode            bool
	TargetStatus        *model.FreightStatus
	TargetPaymentStatus *model.PaymentStatus
}

// Err returns the rejection as a *guard.Error, or nil when permitted.
func (r Result) Err() error {
	if r.Permitted {
		return nil
	}
	return &guard.Error{Kind: r.Kind, Code: r.Code, Message: r.DisplayMessage, ExpectedNext: r.ExpectedNext}
}

type ConsistencyInput struct {
	Status model.FreightStatus
	Role   model.Role
	// Claimed lists the actions the caller is about to offer; nil skips
	// that comparison.
	Claimed []model.Action
}

type ConsistencyCheck struct {
	Consistent     bool
	SafeMode       bool
	Discrepancies  []matrix.Discrepancy
	DisplayMessage string
}

// Observer sees every dispatch decision. It must not block.
type Observer func(Request, Result)

type Option func(*Dispatcher)

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observe = o
	}
}

type Dispatcher struct {
	loc      *i18n.Guard
	workflow *workflow.FreightGuard
	matrix   *matrix.Matrix
	prices   *pricing.Guard
	observe  Observer
}

func New(loc *i18n.Guard, wf *workflow.FreightGuard, m *matrix.Matrix, prices *pricing.Guard, opts ...Option) *Dispatcher {
	d := &Dispatcher{loc: loc, workflow: wf, matrix: m, prices: prices}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Dispatch(req Request) Result {
	res := d.dispatch(req)
	if d.observe != nil {
		d.observe(req, res)
	}
	return res
}

func (d *Dispatcher) dispatch(req Request) Result {
	action, known := model.ParseFreightAction(string(req.Action))
	if !known {
		return d.reject(guard.ErrInvalidTransition, guard.CodeUnknownAction,
			d.loc.Message(i18n.MsgUnknownAction, d.loc.LabelForAction(string(req.Action))))
	}

	if d.matrix.ShouldEnterSafeMode(matrix.SafeModeInput{Action: action, Status: req.CurrentStatus, Role: req.Role}) {
		return d.safeMode()
	}

	if !d.matrix.IsActionAllowed(action, req.CurrentStatus, req.Role) {
		return d.explainRefusal(action, req)
	}

	snap := matrix.Snapshot{
		Status:        req.CurrentStatus,
		Role:          req.Role,
		PaymentStatus: req.PaymentStatus,
		Assignments:   req.Assignments,
		Rating:        req.Rating,
	}
	if req.Price != nil {
		snap.RequiredUnits = req.Price.RequiredUnits
	}
	if check := d.matrix.Check(action, snap); !check.Allowed {
		return d.fromResult(check)
	}

	out := Result{Permitted: true}
	switch {
	case action == model.ActionCancel:
		if err := d.workflow.AssertValidTransition(req.CurrentStatus, model.FreightStatusCancelled); err != nil {
			return d.fromError(err)
		}
		target := model.FreightStatusCancelled
		out.TargetStatus = &target

	case action.TouchesMoney():
		if res := d.validatePrice(req.Price); !res.Permitted {
			return res
		}
		target, _ := payment.TargetStatus(action)
		out.TargetPaymentStatus = &target

	case action == model.ActionRate:
		// Ratings are appended; the freight stays COMPLETED.

	default:
		step, ok := d.workflow.StepForAction(action)
		if !ok {
			return d.safeMode()
		}
		if err := d.workflow.AssertValidTransition(req.CurrentStatus, step.To); err != nil {
			return d.fromError(err)
		}
		target := step.To
		out.TargetStatus = &target
	}
	return out
}

// CheckStateConsistency cross-checks the action table against the guards
// for one status and role, independently of any dispatch attempt.
func (d *Dispatcher) CheckStateConsistency(in ConsistencyInput) ConsistencyCheck {
	out := ConsistencyCheck{Consistent: true}
	if !in.Status.Valid() || !in.Role.Valid() {
		out.Consistent = false
	} else {
		out.Discrepancies = d.matrix.ReconcileCell(in.Status, in.Role)
		if len(out.Discrepancies) > 0 {
			out.Consistent = false
		}
		for _, a := range in.Claimed {
			yes := true
			if d.matrix.ShouldEnterSafeMode(matrix.SafeModeInput{Action: a, Status: in.Status, Role: in.Role, ClaimedAllowed: &yes}) {
				out.Consistent = false
				break
			}
		}
	}
	if !out.Consistent {
		out.SafeMode = true
		out.DisplayMessage = d.loc.Message(i18n.MsgSafeMode)
	}
	return out
}

func (d *Dispatcher) validatePrice(pc *PriceContext) Result {
	if pc == nil {
		return d.reject(guard.ErrPriceIntegrity, guard.CodeMissingPrice, d.loc.Message(i18n.MsgMissingPrice))
	}
	unit := pricing.UnitPrice(pc.TotalPrice, pc.RequiredUnits, nil)
	if pc.AgreedUnitPrice != nil {
		unit = *pc.AgreedUnitPrice
	}
	err := d.prices.ValidateConsistency(pricing.ConsistencyInput{
		TotalPrice:      pc.TotalPrice,
		AgreedUnitPrice: unit,
		RequiredUnits:   pc.RequiredUnits,
	})
	if err != nil {
		return d.fromError(err)
	}
	return Result{Permitted: true}
}

// explainRefusal tells apart an action that exists at this status for other
// roles from one that is simply not available yet.
func (d *Dispatcher) explainRefusal(action model.Action, req Request) Result {
	if len(d.matrix.RolesFor(action, req.CurrentStatus)) > 0 {
		return d.reject(guard.ErrRoleNotPermitted, guard.CodeRoleNotPermitted,
			d.loc.Message(i18n.MsgRoleNotPermitted, d.loc.LabelForRole(string(req.Role)),
				d.loc.LabelForAction(string(action)), d.loc.LabelForStatus(string(req.CurrentStatus))))
	}
	if action == model.ActionCancel {
		return d.fromError(d.workflow.AssertValidTransition(req.CurrentStatus, model.FreightStatusCancelled))
	}
	required, ok := d.matrix.RequiredStatus(action)
	if !ok {
		return d.safeMode()
	}
	if action == model.ActionConfirmDelivery && req.CurrentStatus == model.FreightStatusInTransit {
		return d.fromResult(d.workflow.CanConfirmDelivery(req.CurrentStatus))
	}
	res := d.reject(guard.ErrInvalidTransition, guard.CodeWrongState,
		d.loc.Message(i18n.MsgWrongState, d.loc.LabelForStatus(string(required)), d.loc.LabelForStatus(string(req.CurrentStatus))))
	res.ExpectedNext = string(required)
	return res
}

func (d *Dispatcher) safeMode() Result {
	res := d.reject(guard.ErrConsistency, guard.CodeSafeMode, d.loc.Message(i18n.MsgSafeMode))
	res.SafeMode = true
	return res
}

func (d *Dispatcher) fromResult(r guard.Result) Result {
	return d.reject(r.Kind, r.Code, r.Reason)
}

func (d *Dispatcher) fromError(err error) Result {
	if err == nil {
		return d.safeMode()
	}
	var gerr *guard.Error
	if !errors.As(err, &gerr) {
		return d.reject(guard.ErrConsistency, guard.CodeSafeMode, d.loc.Message(i18n.MsgSafeMode))
	}
	res := d.reject(gerr.Kind, gerr.Code, gerr.Message)
	res.ExpectedNext = gerr.ExpectedNext
	return res
}

func (d *Dispatcher) reject(kind error, code guard.Code, display string) Result {
	reason := string(code)
	if kind != nil {
		reason = kind.Error() + ": " + string(code)
	}
	return Result{
		Kind:           kind,
		Code:           code,
		Reason:         reason,
		DisplayMessage: d.loc.Sanitize(display),
	}
}
