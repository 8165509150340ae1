package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/dispatch"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/matrix"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/payment"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pricing"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/repository"
)

type FreightStore interface {
	GetFreight(ctx context.Context, id uuid.UUID) (*model.Freight, error)
	ListAssignments(ctx context.Context, freightID uuid.UUID) ([]model.Assignment, error)
	GetLatestPayment(ctx context.Context, freightID uuid.UUID, assignmentID *uuid.UUID) (*model.PaymentRecord, error)
	ListRatings(ctx context.Context, freightID uuid.UUID) ([]model.Rating, error)
	ApplyFreightTransition(ctx context.Context, t repository.FreightTransition) (*model.Freight, error)
	ApplyPaymentTransition(ctx context.Context, t repository.PaymentTransition) (*model.PaymentRecord, error)
	InsertRating(ctx context.Context, rating model.Rating) (*model.Rating, error)
}

type StatementRenderer interface {
	Generate(doc model.FreightStatement) ([]byte, error)
}

type FreightService struct {
	store      FreightStore
	dispatcher *dispatch.Dispatcher
	matrix     *matrix.Matrix
	prices     *pricing.Guard
	loc        *i18n.Guard
	statements StatementRenderer
	now        func() time.Time
}

func NewFreightService(
	store FreightStore,
	dispatcher *dispatch.Dispatcher,
	m *matrix.Matrix,
	prices *pricing.Guard,
	loc *i18n.Guard,
	statements StatementRenderer,
) *FreightService {
	return &FreightService{
		store:      store,
		dispatcher: dispatcher,
		matrix:     m,
		prices:     prices,
		loc:        loc,
		statements: statements,
		now:        time.Now,
	}
}

type PerformInput struct {
	Principal model.Principal
	FreightID uuid.UUID
	Action    string
	// AssignmentID selects the truck-load a producer or carrier is paying
	// on a multi-unit freight. Drivers are always scoped to their own load.
	AssignmentID *uuid.UUID
	Score        int
	Comment      string
}

type PerformResult struct {
	Action        string       `json:"action"`
	Status        string       `json:"status"`
	PaymentStatus string       `json:"payment_status,omitempty"`
	Actions       *ActionsView `json:"actions"`
}

type DocumentResult struct {
	FileName string
	Content  []byte
}

// freightState is everything loaded for one decision. It is discarded after
// use; the store stays authoritative.
type freightState struct {
	freight     *model.Freight
	assignments []model.Assignment
	scope       *model.Assignment
	payment     *model.PaymentRecord
	ratings     []model.Rating
}

func (s *FreightService) Actions(ctx context.Context, principal model.Principal, freightID uuid.UUID) (*ActionsView, error) {
	st, err := s.load(ctx, principal, freightID, nil)
	if err != nil {
		return nil, err
	}
	return s.view(principal, st), nil
}

func (s *FreightService) Perform(ctx context.Context, input PerformInput) (*PerformResult, error) {
	st, err := s.load(ctx, input.Principal, input.FreightID, input.AssignmentID)
	if err != nil {
		return nil, err
	}

	action := model.Action(strings.ToUpper(strings.TrimSpace(input.Action)))
	if !isParty(input.Principal, st.freight, st.assignments, action) {
		return nil, ErrPermissionDenied
	}
	res := s.dispatcher.Dispatch(s.request(input.Principal, action, st))
	if !res.Permitted {
		return nil, fmt.Errorf("%w: %w", ErrActionRejected, res.Err())
	}

	switch {
	case res.TargetStatus != nil:
		err = s.applyTransition(ctx, input.Principal, st, action, *res.TargetStatus)
	case res.TargetPaymentStatus != nil:
		err = s.applyPayment(ctx, input.Principal, st, *res.TargetPaymentStatus)
	case action == model.ActionRate:
		err = s.rate(ctx, input, st)
	}
	if err != nil {
		return nil, storeError(err)
	}

	// The write already happened; an actor that just handed the freight over
	// still gets the resulting state back.
	st, err = s.fetch(ctx, input.Principal, input.FreightID, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	out := &PerformResult{
		Action:  string(action),
		Status:  string(st.freight.Status),
		Actions: s.view(input.Principal, st),
	}
	if st.payment != nil {
		out.PaymentStatus = string(st.payment.Status)
	}
	return out, nil
}

// Statement renders the closure document of a freight that can no longer
// change.
func (s *FreightService) Statement(ctx context.Context, principal model.Principal, freightID uuid.UUID) (*DocumentResult, error) {
	st, err := s.load(ctx, principal, freightID, nil)
	if err != nil {
		return nil, err
	}
	if !st.freight.Status.Terminal() {
		return nil, fmt.Errorf("%w: statement is only available for closed freights", ErrInvalidInput)
	}

	content, err := s.statements.Generate(model.FreightStatement{
		Freight:     *st.freight,
		Assignments: st.assignments,
		Payment:     st.payment,
		Ratings:     st.ratings,
		Viewer:      principal,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &DocumentResult{
		FileName: fmt.Sprintf("frete_%s.pdf", st.freight.ID),
		Content:  content,
	}, nil
}

func (s *FreightService) load(ctx context.Context, principal model.Principal, freightID uuid.UUID, assignmentID *uuid.UUID) (*freightState, error) {
	if freightID == uuid.Nil {
		return nil, fmt.Errorf("%w: freight id is required", ErrInvalidInput)
	}
	st, err := s.fetch(ctx, principal, freightID, assignmentID)
	if err != nil {
		return nil, err
	}
	if !canViewFreight(principal, st.freight, st.assignments) {
		return nil, ErrPermissionDenied
	}
	return st, nil
}

func (s *FreightService) fetch(ctx context.Context, principal model.Principal, freightID uuid.UUID, assignmentID *uuid.UUID) (*freightState, error) {
	freight, err := s.store.GetFreight(ctx, freightID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	assignments, err := s.store.ListAssignments(ctx, freightID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.store.ListRatings(ctx, freightID)
	if err != nil {
		return nil, err
	}

	st := &freightState{freight: freight, assignments: assignments, ratings: ratings}
	if freight.MultiUnit() {
		st.scope, err = pickAssignment(principal, assignments, assignmentID)
		if err != nil {
			return nil, err
		}
		if st.scope == nil {
			return st, nil
		}
		scopeID := st.scope.ID
		st.payment, err = s.store.GetLatestPayment(ctx, freightID, &scopeID)
	} else {
		st.payment, err = s.store.GetLatestPayment(ctx, freightID, nil)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *FreightService) request(principal model.Principal, action model.Action, st *freightState) dispatch.Request {
	f := st.freight
	return dispatch.Request{
		FreightID:     f.ID,
		Action:        action,
		CurrentStatus: f.Status,
		Role:          principal.Role,
		PaymentStatus: st.paymentStatus(),
		Assignments:   st.assignments,
		Rating: payment.RatingInput{
			RaterID:  principal.UserID,
			Role:     principal.Role,
			Parties:  st.parties(principal),
			Existing: st.ratings,
		},
		Price: &dispatch.PriceContext{
			TotalPrice:      f.TotalPrice,
			RequiredUnits:   f.RequiredUnits,
			AgreedUnitPrice: st.agreedUnitPrice(),
		},
	}
}

func (s *FreightService) view(principal model.Principal, st *freightState) *ActionsView {
	f := st.freight
	out := &ActionsView{
		ID:          f.ID,
		Status:      string(f.Status),
		StatusLabel: s.loc.LabelForStatus(string(f.Status)),
		Price: NewPriceView(s.prices.PresentPrice(pricing.PresentInput{
			TotalPrice:      f.TotalPrice,
			RequiredUnits:   f.RequiredUnits,
			AgreedUnitPrice: st.agreedUnitPrice(),
			ViewerRole:      principal.Role,
		})),
		Actions: []ActionView{},
	}

	query := s.matrix.Query(f.Status, principal.Role)
	check := s.dispatcher.CheckStateConsistency(dispatch.ConsistencyInput{
		Status:  f.Status,
		Role:    principal.Role,
		Claimed: query.AllowedActions,
	})
	if check.SafeMode {
		out.SafeMode = true
		out.Message = check.DisplayMessage
		return out
	}

	req := s.request(principal, "", st)
	snap := matrix.Snapshot{
		Status:        f.Status,
		Role:          principal.Role,
		RequiredUnits: f.RequiredUnits,
		PaymentStatus: req.PaymentStatus,
		Assignments:   req.Assignments,
		Rating:        req.Rating,
	}
	for _, entry := range s.matrix.Entries(f.Status, principal.Role) {
		res := entry.Check(snap)
		if res.Allowed && !isParty(principal, f, st.assignments, entry.Action) {
			res = guard.Deny(guard.ErrRoleNotPermitted, guard.CodeNotParty,
				s.loc.Message(i18n.MsgRatingNotParty, s.loc.LabelForRole(string(principal.Role))))
		}
		out.Actions = append(out.Actions, actionView(string(entry.Action), entry.Label, res))
	}
	return out
}

func (s *FreightService) applyTransition(ctx context.Context, principal model.Principal, st *freightState, action model.Action, to model.FreightStatus) error {
	t := repository.FreightTransition{
		FreightID: st.freight.ID,
		From:      st.freight.Status,
		To:        to,
		ActorID:   principal.UserID,
		ActorRole: principal.Role,
	}
	// Multi-unit loads are booked per assignment; only a single-unit freight
	// records its hauler.
	if !st.freight.MultiUnit() {
		id := principal.UserID
		switch {
		case action == model.ActionAccept && principal.IsCarrier():
			// the carrier's affiliated drivers haul and confirm the payment
			if principal.OrgID == nil {
				return fmt.Errorf("%w: carrier has no organization to dispatch a driver from", ErrInvalidInput)
			}
			org := *principal.OrgID
			t.CarrierID = &org
		case action == model.ActionAccept && principal.IsDriver():
			t.DriverID = &id
		case principal.IsDriver() && st.freight.DriverID == nil:
			// first crew driver to move a carrier's freight takes the load
			t.DriverID = &id
		}
	}
	_, err := s.store.ApplyFreightTransition(ctx, t)
	return err
}

func (s *FreightService) applyPayment(ctx context.Context, principal model.Principal, st *freightState, to model.PaymentStatus) error {
	f := st.freight
	t := repository.PaymentTransition{
		FreightID: f.ID,
		From:      st.paymentStatus(),
		To:        to,
		Amount:    f.TotalPrice,
		PayerID:   f.ProducerID,
	}
	if principal.IsCarrier() {
		t.PayerID = principal.UserID
	}
	if st.payment != nil {
		t.PayerID = st.payment.PayerID
	}

	switch {
	case st.scope != nil:
		id := st.scope.ID
		t.AssignmentID = &id
		t.PayeeID = st.scope.DriverID
		t.Amount = pricing.UnitPrice(f.TotalPrice, f.RequiredUnits, st.agreedUnitPrice())
	case f.MultiUnit():
		return fmt.Errorf("%w: assignment_id is required for multi-unit payments", ErrInvalidInput)
	case f.DriverID != nil:
		t.PayeeID = *f.DriverID
	case f.CarrierID != nil:
		t.PayeeID = *f.CarrierID
	default:
		return fmt.Errorf("%w: freight has no driver to pay", ErrInvalidInput)
	}

	_, err := s.store.ApplyPaymentTransition(ctx, t)
	return err
}

func (s *FreightService) rate(ctx context.Context, input PerformInput, st *freightState) error {
	if input.Score < 1 || input.Score > 5 {
		return fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidInput)
	}
	rated := st.ratedBy(input.Principal)
	if rated == uuid.Nil {
		return fmt.Errorf("%w: nobody to rate on this freight", ErrInvalidInput)
	}
	freightID := st.freight.ID
	_, err := s.store.InsertRating(ctx, model.Rating{
		RaterID:   input.Principal.UserID,
		RatedID:   rated,
		FreightID: &freightID,
		Score:     input.Score,
		Comment:   strings.TrimSpace(input.Comment),
	})
	return err
}

func (st *freightState) paymentStatus() *model.PaymentStatus {
	if st.payment == nil {
		return nil
	}
	status := st.payment.Status
	return &status
}

func (st *freightState) agreedUnitPrice() *decimal.Decimal {
	if st.scope == nil || !st.scope.AgreedUnitPrice.IsPositive() {
		return nil
	}
	price := st.scope.AgreedUnitPrice
	return &price
}

// parties are the users allowed to rate the freight. A carrier is booked
// under its organization, so its own members count as well.
func (st *freightState) parties(principal model.Principal) []uuid.UUID {
	f := st.freight
	out := []uuid.UUID{f.ProducerID}
	if principal.IsCarrier() && carrierMatches(principal, f) {
		out = append(out, principal.UserID)
	}
	if f.DriverID != nil {
		out = append(out, *f.DriverID)
	}
	if f.CarrierID != nil {
		out = append(out, *f.CarrierID)
	}
	for _, a := range st.assignments {
		out = append(out, a.DriverID)
	}
	return out
}

// ratedBy picks the counterparty of the rater.
func (st *freightState) ratedBy(principal model.Principal) uuid.UUID {
	f := st.freight
	if !principal.IsProducer() {
		return f.ProducerID
	}
	switch {
	case st.scope != nil:
		return st.scope.DriverID
	case f.CarrierID != nil:
		return *f.CarrierID
	case f.DriverID != nil:
		return *f.DriverID
	case len(st.assignments) > 0:
		return st.assignments[0].DriverID
	}
	return uuid.Nil
}

func pickAssignment(principal model.Principal, assignments []model.Assignment, requested *uuid.UUID) (*model.Assignment, error) {
	for i := range assignments {
		a := &assignments[i]
		if principal.IsDriver() && a.DriverID == principal.UserID {
			return a, nil
		}
		if !principal.IsDriver() && requested != nil && a.ID == *requested {
			return a, nil
		}
	}
	if requested != nil && !principal.IsDriver() {
		return nil, fmt.Errorf("%w: assignment does not belong to this freight", ErrInvalidInput)
	}
	return nil, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStaleStatus):
		return fmt.Errorf("%w: record changed, reload and try again", ErrConflict)
	case errors.Is(err, repository.ErrDuplicateRating):
		return fmt.Errorf("%w: already rated", ErrConflict)
	}
	return err
}
