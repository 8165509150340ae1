// Package matrix answers "which actions can this role take on a freight in
// this status". The table is a denormalized copy of the workflow and payment
// rules; Reconcile proves the two never drift apart.
package matrix

import (
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/payment"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/workflow"
)

// Snapshot is the live state an entry's predicate is evaluated against.
type Snapshot struct {
	Status        model.FreightStatus
	Role          model.Role
	RequiredUnits int
	PaymentStatus *model.PaymentStatus
	Assignments   []model.Assignment
	Rating        payment.RatingInput
}

type Predicate func(Snapshot) guard.Result

type Entry struct {
	Action model.Action
	Label  string
	Check  Predicate
}

type QueryResult struct {
	AllowedActions []model.Action
	Labels         map[model.Action]string
}

type Discrepancy struct {
	Status model.FreightStatus
	Role   model.Role
	Action model.Action
	Matrix bool
	Guard  bool
}

type SafeModeInput struct {
	Action model.Action
	Status model.FreightStatus
	Role   model.Role
	// ClaimedAllowed is what the caller believes; nil skips that comparison.
	ClaimedAllowed *bool
}

type cell struct {
	status model.FreightStatus
	role   model.Role
}

type Matrix struct {
	loc      *i18n.Guard
	workflow *workflow.FreightGuard
	payments *payment.Guard
	cells    map[cell][]model.Action
}

func New(loc *i18n.Guard, wf *workflow.FreightGuard, payments *payment.Guard) *Matrix {
	m := &Matrix{
		loc:      loc,
		workflow: wf,
		payments: payments,
		cells:    make(map[cell][]model.Action),
	}
	// Iterate in vocabulary order so every cell lists actions the same way.
	for _, action := range model.FreightActions() {
		for _, r := range table {
			if r.Action != action {
				continue
			}
			for _, s := range r.Statuses {
				for _, role := range r.Roles {
					key := cell{s, role}
					m.cells[key] = append(m.cells[key], action)
				}
			}
		}
	}
	return m
}

func (m *Matrix) Query(status model.FreightStatus, role model.Role) QueryResult {
	actions := m.cells[cell{status, role}]
	out := QueryResult{
		AllowedActions: make([]model.Action, len(actions)),
		Labels:         make(map[model.Action]string, len(actions)),
	}
	copy(out.AllowedActions, actions)
	for _, a := range actions {
		out.Labels[a] = m.loc.LabelForAction(string(a))
	}
	return out
}

// Entries is Query with the predicate each action must re-pass before it is
// dispatched.
func (m *Matrix) Entries(status model.FreightStatus, role model.Role) []Entry {
	actions := m.cells[cell{status, role}]
	out := make([]Entry, 0, len(actions))
	for _, a := range actions {
		out = append(out, Entry{
			Action: a,
			Label:  m.loc.LabelForAction(string(a)),
			Check:  m.predicate(a),
		})
	}
	return out
}

func (m *Matrix) IsActionAllowed(action model.Action, status model.FreightStatus, role model.Role) bool {
	for _, a := range m.cells[cell{status, role}] {
		if a == action {
			return true
		}
	}
	return false
}

// RolesWithActions lists the roles that can do anything at status. An empty
// result means the freight is stuck and needs an operator.
func (m *Matrix) RolesWithActions(status model.FreightStatus) []model.Role {
	var out []model.Role
	for _, role := range model.AllRoles() {
		if len(m.cells[cell{status, role}]) > 0 {
			out = append(out, role)
		}
	}
	return out
}

// RolesFor lists the roles the table allows to perform action at status.
func (m *Matrix) RolesFor(action model.Action, status model.FreightStatus) []model.Role {
	var out []model.Role
	for _, role := range model.AllRoles() {
		if m.IsActionAllowed(action, status, role) {
			out = append(out, role)
		}
	}
	return out
}

// RequiredStatus returns the first status in which the table offers action.
func (m *Matrix) RequiredStatus(action model.Action) (model.FreightStatus, bool) {
	for _, r := range table {
		if r.Action == action && len(r.Statuses) > 0 {
			return r.Statuses[0], true
		}
	}
	return "", false
}

// Check evaluates action's live predicate. Role membership is the table's
// job and is not repeated here.
func (m *Matrix) Check(action model.Action, snap Snapshot) guard.Result {
	return m.predicate(action)(snap)
}

// GuardAllows asks the workflow and payment guards directly whether role may
// perform action at status, assuming the payment chain is where the action
// expects it.
func (m *Matrix) GuardAllows(action model.Action, status model.FreightStatus, role model.Role) bool {
	switch {
	case action == model.ActionCancel:
		return m.workflow.UserAllowedActions(role, status).CanCancel
	case action.TouchesMoney():
		expected, _ := payment.ExpectedPaymentStatus(action)
		_, res := m.payments.CheckAction(payment.ActionInput{
			Action:        action,
			FreightStatus: status,
			Role:          role,
			PaymentStatus: expected,
		})
		return res.Allowed
	case action == model.ActionRate:
		return m.payments.CanRateFreight(status, payment.RatingInput{Role: role}).Allowed
	}
	step, ok := m.workflow.StepForAction(action)
	if !ok {
		return false
	}
	allowed := m.workflow.UserAllowedActions(role, status)
	return allowed.CanAdvance && allowed.Action == action && allowed.NextStatus == step.To
}

func (m *Matrix) ShouldEnterSafeMode(in SafeModeInput) bool {
	if !in.Status.Valid() || !in.Role.Valid() {
		return true
	}
	if _, known := model.ParseFreightAction(string(in.Action)); !known {
		return in.ClaimedAllowed != nil && *in.ClaimedAllowed
	}
	guardSays := m.GuardAllows(in.Action, in.Status, in.Role)
	if m.IsActionAllowed(in.Action, in.Status, in.Role) != guardSays {
		return true
	}
	return in.ClaimedAllowed != nil && *in.ClaimedAllowed != guardSays
}

// Reconcile compares the table with the guards over every status, role and
// action. A non-empty result is a programming defect.
func (m *Matrix) Reconcile() []Discrepancy {
	var out []Discrepancy
	for _, status := range model.AllFreightStatuses() {
		for _, role := range model.AllRoles() {
			out = append(out, m.reconcileCell(status, role)...)
		}
	}
	return out
}

func (m *Matrix) reconcileCell(status model.FreightStatus, role model.Role) []Discrepancy {
	var out []Discrepancy
	for _, action := range model.FreightActions() {
		inTable := m.IsActionAllowed(action, status, role)
		byGuard := m.GuardAllows(action, status, role)
		if inTable != byGuard {
			out = append(out, Discrepancy{Status: status, Role: role, Action: action, Matrix: inTable, Guard: byGuard})
		}
	}
	return out
}

// ReconcileCell is Reconcile restricted to one status and role.
func (m *Matrix) ReconcileCell(status model.FreightStatus, role model.Role) []Discrepancy {
	return m.reconcileCell(status, role)
}

func (m *Matrix) predicate(action model.Action) Predicate {
	switch action {
	case model.ActionCancel:
		return func(s Snapshot) guard.Result {
			return m.workflow.CanTransition(s.Status, model.FreightStatusCancelled).Result()
		}
	case model.ActionCreatePayment, model.ActionMarkPaid, model.ActionConfirmPayment:
		return func(s Snapshot) guard.Result {
			_, res := m.payments.CheckAction(payment.ActionInput{
				Action:        action,
				FreightStatus: s.Status,
				Role:          s.Role,
				PaymentStatus: s.PaymentStatus,
			})
			return res
		}
	case model.ActionComplete:
		return func(s Snapshot) guard.Result {
			if s.RequiredUnits > 1 {
				if res := m.payments.CanCloseFreightAsCompleted(s.Status, settled()); !res.Allowed {
					return res
				}
				return m.payments.CanCloseMultiTruckFreight(s.Assignments)
			}
			return m.payments.CanCloseFreightAsCompleted(s.Status, s.PaymentStatus)
		}
	case model.ActionRate:
		return func(s Snapshot) guard.Result {
			in := s.Rating
			in.Role = s.Role
			return m.payments.CanRateFreight(s.Status, in)
		}
	case model.ActionReportDelivery:
		return func(s Snapshot) guard.Result {
			return m.workflow.CanReportDelivery(s.Status)
		}
	case model.ActionConfirmDelivery:
		return func(s Snapshot) guard.Result {
			return m.workflow.CanConfirmDelivery(s.Status)
		}
	}
	step, ok := m.workflow.StepForAction(action)
	if !ok {
		return func(Snapshot) guard.Result {
			return guard.Deny(guard.ErrInvalidTransition, guard.CodeUnknownAction,
				m.loc.Message(i18n.MsgUnknownAction, m.loc.LabelForAction(string(action))))
		}
	}
	return func(s Snapshot) guard.Result {
		if s.Status != step.From {
			return guard.Deny(guard.ErrInvalidTransition, guard.CodeWrongState,
				m.loc.Message(i18n.MsgWrongState, m.loc.LabelForStatus(string(step.From)), m.loc.LabelForStatus(string(s.Status))))
		}
		return m.workflow.CanTransition(s.Status, step.To).Result()
	}
}

// settled stands in for the parent payment of a multi-truck freight, whose
// money moves per assignment.
func settled() *model.PaymentStatus {
	s := model.PaymentStatusConfirmedByDriver
	return &s
}
