package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/payment"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/repository"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/workflow"
)

type ServiceRequestStore interface {
	GetServiceRequest(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error)
	ListOpen(ctx context.Context) ([]model.ServiceRequest, error)
	GetLatestPayment(ctx context.Context, serviceID uuid.UUID) (*model.PaymentRecord, error)
	ListRatings(ctx context.Context, serviceID uuid.UUID) ([]model.Rating, error)
	ApplyServiceTransition(ctx context.Context, t repository.ServiceTransition) (*model.ServiceRequest, error)
	InsertRating(ctx context.Context, rating model.Rating) (*model.Rating, error)
}

type ServiceRequestService struct {
	store     ServiceRequestStore
	workflow  *workflow.ServiceGuard
	payments  *payment.Guard
	loc       *i18n.Guard
	log       zerolog.Logger
	onExpired func(model.ServiceRequest)
	now       func() time.Time
}

func NewServiceRequestService(
	store ServiceRequestStore,
	wf *workflow.ServiceGuard,
	payments *payment.Guard,
	loc *i18n.Guard,
	log zerolog.Logger,
) *ServiceRequestService {
	return &ServiceRequestService{
		store:    store,
		workflow: wf,
		payments: payments,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// OnExpired registers a callback run for every request the expiry sweep
// cancels.
func (s *ServiceRequestService) OnExpired(fn func(model.ServiceRequest)) {
	s.onExpired = fn
}

type ServicePerformInput struct {
	Principal model.Principal
	ServiceID uuid.UUID
	Action    string
	Score     int
	Comment   string
}

type ServicePerformResult struct {
	Action  string       `json:"action"`
	Status  string       `json:"status"`
	Actions *ActionsView `json:"actions"`
}

type serviceState struct {
	request *model.ServiceRequest
	payment *model.PaymentRecord
	ratings []model.Rating
}

func (s *ServiceRequestService) Actions(ctx context.Context, principal model.Principal, serviceID uuid.UUID) (*ActionsView, error) {
	st, err := s.load(ctx, principal, serviceID)
	if err != nil {
		return nil, err
	}
	return s.view(principal, st), nil
}

func (s *ServiceRequestService) Perform(ctx context.Context, input ServicePerformInput) (*ServicePerformResult, error) {
	st, err := s.load(ctx, input.Principal, input.ServiceID)
	if err != nil {
		return nil, err
	}

	raw := strings.ToUpper(strings.TrimSpace(input.Action))
	action, known := model.ParseServiceAction(raw)
	if !known {
		return nil, s.reject(guard.Deny(guard.ErrInvalidTransition, guard.CodeUnknownAction,
			s.loc.Message(i18n.MsgUnknownAction, s.loc.LabelForAction(raw))), "")
	}

	if action == model.ActionCancel && !serviceParty(input.Principal, st.request) {
		return nil, ErrPermissionDenied
	}
	if res := s.check(input.Principal, action, st); !res.Allowed {
		var expectedNext string
		if step, ok := s.workflow.StepForAction(action); ok {
			expectedNext = s.workflow.CanTransition(st.request.Status, step.To).ExpectedNext
		}
		return nil, s.reject(res, expectedNext)
	}

	req := st.request
	switch action {
	case model.ActionRate:
		err = s.rate(ctx, input, st)
	case model.ActionCancel:
		_, err = s.store.ApplyServiceTransition(ctx, repository.ServiceTransition{
			ServiceID: req.ID,
			From:      req.Status,
			To:        model.ServiceStatusCancelled,
		})
	default:
		step, _ := s.workflow.StepForAction(action)
		t := repository.ServiceTransition{ServiceID: req.ID, From: req.Status, To: step.To}
		if action == model.ActionAccept {
			provider := input.Principal.UserID
			t.ProviderID = &provider
		}
		_, err = s.store.ApplyServiceTransition(ctx, t)
	}
	if err != nil {
		return nil, storeError(err)
	}

	st, err = s.load(ctx, input.Principal, input.ServiceID)
	if err != nil {
		return nil, err
	}
	return &ServicePerformResult{
		Action:  string(action),
		Status:  string(st.request.Status),
		Actions: s.view(input.Principal, st),
	}, nil
}

// ExpireStale cancels unclaimed requests older than their type's window and
// returns how many were cancelled. A request claimed meanwhile is skipped.
func (s *ServiceRequestService) ExpireStale(ctx context.Context) (int, error) {
	open, err := s.store.ListOpen(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	expired := 0
	for _, req := range open {
		if !s.workflow.CanAutoExpire(req.Status) {
			continue
		}
		window := time.Duration(s.workflow.ExpirationHours(req.ServiceType)) * time.Hour
		if now.Sub(req.CreatedAt) < window {
			continue
		}

		_, err := s.store.ApplyServiceTransition(ctx, repository.ServiceTransition{
			ServiceID: req.ID,
			From:      req.Status,
			To:        model.ServiceStatusCancelled,
		})
		if errors.Is(err, repository.ErrStaleStatus) {
			continue
		}
		if err != nil {
			return expired, err
		}

		expired++
		s.log.Info().
			Str("service_id", req.ID.String()).
			Str("service_type", string(req.ServiceType)).
			Msg("service request expired")
		if s.onExpired != nil {
			s.onExpired(req)
		}
	}
	return expired, nil
}

func (s *ServiceRequestService) load(ctx context.Context, principal model.Principal, serviceID uuid.UUID) (*serviceState, error) {
	if serviceID == uuid.Nil {
		return nil, fmt.Errorf("%w: service request id is required", ErrInvalidInput)
	}
	req, err := s.store.GetServiceRequest(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canViewServiceRequest(principal, req) {
		return nil, ErrPermissionDenied
	}
	pay, err := s.store.GetLatestPayment(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.store.ListRatings(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return &serviceState{request: req, payment: pay, ratings: ratings}, nil
}

// check is the service-request counterpart of a freight dispatch.
func (s *ServiceRequestService) check(principal model.Principal, action model.Action, st *serviceState) guard.Result {
	req := st.request
	allowed := s.workflow.UserAllowedActions(principal.Role, req.Status)

	switch action {
	case model.ActionRate:
		if res := s.payments.CanRateServiceRequest(req.Status, st.ratingInput(principal)); !res.Allowed {
			return res
		}
		return s.payments.CanCloseServiceRequest(req.Status, st.paymentStatus())

	case model.ActionCancel:
		if !allowed.CanCancel {
			return s.refuse(principal.Role, action, req.Status)
		}
		if !serviceParty(principal, req) {
			return guard.Deny(guard.ErrRoleNotPermitted, guard.CodeNotParty,
				s.loc.Message(i18n.MsgRatingNotParty, s.loc.LabelForRole(string(principal.Role))))
		}
		return s.workflow.CanTransition(req.Status, model.ServiceStatusCancelled).Result()
	}

	step, ok := s.workflow.StepForAction(action)
	if !ok {
		return s.refuse(principal.Role, action, req.Status)
	}
	if step.From != req.Status {
		return s.workflow.CanTransition(req.Status, step.To).Result()
	}
	if !allowed.CanAdvance || allowed.Action != action {
		return s.refuse(principal.Role, action, req.Status)
	}
	// Once claimed, only the provider who accepted the job moves it on.
	if req.ProviderID != nil && *req.ProviderID != principal.UserID && !principal.IsAdmin() {
		return s.refuse(principal.Role, action, req.Status)
	}
	return s.workflow.CanTransition(req.Status, step.To).Result()
}

func (s *ServiceRequestService) view(principal model.Principal, st *serviceState) *ActionsView {
	req := st.request
	out := &ActionsView{
		ID:          req.ID,
		Status:      string(req.Status),
		StatusLabel: s.loc.LabelForStatus(string(req.Status)),
		Actions:     []ActionView{},
	}
	if !req.Status.Valid() || !principal.Role.Valid() {
		out.SafeMode = true
		out.Message = s.loc.Message(i18n.MsgSafeMode)
		return out
	}

	allowed := s.workflow.UserAllowedActions(principal.Role, req.Status)
	if allowed.CanAdvance {
		out.Actions = append(out.Actions, actionView(string(allowed.Action),
			s.loc.LabelForAction(string(allowed.Action)), s.check(principal, allowed.Action, st)))
	}
	if allowed.CanCancel {
		out.Actions = append(out.Actions, actionView(string(model.ActionCancel),
			s.loc.LabelForAction(string(model.ActionCancel)), s.check(principal, model.ActionCancel, st)))
	}
	if req.Status == model.ServiceStatusCompleted && !principal.IsGuest() {
		out.Actions = append(out.Actions, actionView(string(model.ActionRate),
			s.loc.LabelForAction(string(model.ActionRate)), s.check(principal, model.ActionRate, st)))
	}
	return out
}

func (s *ServiceRequestService) rate(ctx context.Context, input ServicePerformInput, st *serviceState) error {
	if input.Score < 1 || input.Score > 5 {
		return fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidInput)
	}
	req := st.request
	var rated uuid.UUID
	switch {
	case input.Principal.IsDriver() && req.ClientID != nil:
		rated = *req.ClientID
	case !input.Principal.IsDriver() && req.ProviderID != nil:
		rated = *req.ProviderID
	}
	if rated == uuid.Nil {
		return fmt.Errorf("%w: nobody to rate on this request", ErrInvalidInput)
	}
	serviceID := req.ID
	_, err := s.store.InsertRating(ctx, model.Rating{
		RaterID:   input.Principal.UserID,
		RatedID:   rated,
		ServiceID: &serviceID,
		Score:     input.Score,
		Comment:   strings.TrimSpace(input.Comment),
	})
	return err
}

func (s *ServiceRequestService) refuse(role model.Role, action model.Action, status model.ServiceStatus) guard.Result {
	return guard.Deny(guard.ErrRoleNotPermitted, guard.CodeRoleNotPermitted,
		s.loc.Message(i18n.MsgRoleNotPermitted, s.loc.LabelForRole(string(role)),
			s.loc.LabelForAction(string(action)), s.loc.LabelForStatus(string(status))))
}

func (s *ServiceRequestService) reject(res guard.Result, expectedNext string) error {
	gerr := guard.NewError(res.Kind, res.Code, s.loc.Sanitize(res.Reason))
	gerr.ExpectedNext = expectedNext
	return fmt.Errorf("%w: %w", ErrActionRejected, gerr)
}

func (st *serviceState) paymentStatus() *model.PaymentStatus {
	if st.payment == nil {
		return nil
	}
	status := st.payment.Status
	return &status
}

func (st *serviceState) ratingInput(principal model.Principal) payment.RatingInput {
	var parties []uuid.UUID
	if st.request.ClientID != nil {
		parties = append(parties, *st.request.ClientID)
	}
	if st.request.ProviderID != nil {
		parties = append(parties, *st.request.ProviderID)
	}
	return payment.RatingInput{
		RaterID:  principal.UserID,
		Role:     principal.Role,
		Parties:  parties,
		Existing: st.ratings,
	}
}

// serviceParty reports whether the principal is the requester or the
// provider of the job. Guest requests belong to whoever holds the link.
func serviceParty(principal model.Principal, req *model.ServiceRequest) bool {
	switch {
	case principal.IsAdmin():
		return true
	case principal.IsGuest():
		return req.ClientID == nil
	case req.ClientID != nil && *req.ClientID == principal.UserID:
		return true
	case req.ProviderID != nil && *req.ProviderID == principal.UserID:
		return true
	}
	return false
}

func canViewServiceRequest(principal model.Principal, req *model.ServiceRequest) bool {
	switch principal.Role {
	case model.RoleAdmin:
		return true
	case model.RoleGuest:
		return req.ClientID == nil
	case model.RoleDriver, model.RoleAffiliatedDriver, model.RoleCarrier:
		if req.Status == model.ServiceStatusOpen {
			return true
		}
		if req.ProviderID != nil && *req.ProviderID == principal.UserID {
			return true
		}
		return req.ClientID != nil && *req.ClientID == principal.UserID
	case model.RoleProducer:
		return req.ClientID != nil && *req.ClientID == principal.UserID
	default:
		return false
	}
}
