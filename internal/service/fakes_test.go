package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/dispatch"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/matrix"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/payment"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pricing"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/repository"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/workflow"
)

type fakeFreightStore struct {
	freights    map[uuid.UUID]*model.Freight
	assignments map[uuid.UUID][]model.Assignment
	payments    []model.PaymentRecord
	ratings     []model.Rating
	history     []repository.FreightTransition
	// stale forces the next write to lose a race.
	stale bool
}

func newFakeFreightStore() *fakeFreightStore {
	return &fakeFreightStore{
		freights:    make(map[uuid.UUID]*model.Freight),
		assignments: make(map[uuid.UUID][]model.Assignment),
	}
}

func (f *fakeFreightStore) GetFreight(_ context.Context, id uuid.UUID) (*model.Freight, error) {
	freight, ok := f.freights[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *freight
	return &copied, nil
}

func (f *fakeFreightStore) ListAssignments(_ context.Context, freightID uuid.UUID) ([]model.Assignment, error) {
	out := make([]model.Assignment, 0, len(f.assignments[freightID]))
	for _, a := range f.assignments[freightID] {
		scope := a.ID
		if latest := f.latest(freightID, &scope); latest != nil {
			status := latest.Status
			a.PaymentStatus = &status
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeFreightStore) GetLatestPayment(_ context.Context, freightID uuid.UUID, assignmentID *uuid.UUID) (*model.PaymentRecord, error) {
	return f.latest(freightID, assignmentID), nil
}

func (f *fakeFreightStore) ListRatings(_ context.Context, freightID uuid.UUID) ([]model.Rating, error) {
	var out []model.Rating
	for _, r := range f.ratings {
		if r.FreightID != nil && *r.FreightID == freightID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFreightStore) ApplyFreightTransition(_ context.Context, t repository.FreightTransition) (*model.Freight, error) {
	freight, ok := f.freights[t.FreightID]
	if !ok || f.stale || freight.Status != t.From || freight.Status.Terminal() {
		return nil, repository.ErrStaleStatus
	}
	freight.Status = t.To
	if t.DriverID != nil {
		freight.DriverID = t.DriverID
	}
	if t.CarrierID != nil {
		freight.CarrierID = t.CarrierID
	}
	for i := range f.assignments[t.FreightID] {
		if f.assignments[t.FreightID][i].Status == t.From {
			f.assignments[t.FreightID][i].Status = t.To
		}
	}
	f.history = append(f.history, t)
	copied := *freight
	return &copied, nil
}

func (f *fakeFreightStore) ApplyPaymentTransition(_ context.Context, t repository.PaymentTransition) (*model.PaymentRecord, error) {
	if f.stale {
		return nil, repository.ErrStaleStatus
	}
	var current *model.PaymentStatus
	if latest := f.latest(t.FreightID, t.AssignmentID); latest != nil {
		current = &latest.Status
	}
	if (current == nil) != (t.From == nil) || (current != nil && *current != *t.From) {
		return nil, repository.ErrStaleStatus
	}
	freightID := t.FreightID
	record := model.PaymentRecord{
		ID:           uuid.New(),
		FreightID:    &freightID,
		AssignmentID: t.AssignmentID,
		Amount:       t.Amount,
		Status:       t.To,
		PayerID:      t.PayerID,
		PayeeID:      t.PayeeID,
		CreatedAt:    time.Now(),
	}
	f.payments = append(f.payments, record)
	return &record, nil
}

func (f *fakeFreightStore) InsertRating(_ context.Context, rating model.Rating) (*model.Rating, error) {
	for _, r := range f.ratings {
		if r.RaterID == rating.RaterID && r.FreightID != nil && rating.FreightID != nil && *r.FreightID == *rating.FreightID {
			return nil, repository.ErrDuplicateRating
		}
	}
	rating.ID = uuid.New()
	f.ratings = append(f.ratings, rating)
	return &rating, nil
}

func (f *fakeFreightStore) latest(freightID uuid.UUID, assignmentID *uuid.UUID) *model.PaymentRecord {
	var found *model.PaymentRecord
	for i := range f.payments {
		p := &f.payments[i]
		if p.FreightID == nil || *p.FreightID != freightID {
			continue
		}
		if (p.AssignmentID == nil) != (assignmentID == nil) {
			continue
		}
		if p.AssignmentID != nil && *p.AssignmentID != *assignmentID {
			continue
		}
		found = p
	}
	if found == nil {
		return nil
	}
	copied := *found
	return &copied
}

type fakeServiceStore struct {
	requests map[uuid.UUID]*model.ServiceRequest
	payments map[uuid.UUID]*model.PaymentRecord
	ratings  []model.Rating
}

func newFakeServiceStore() *fakeServiceStore {
	return &fakeServiceStore{
		requests: make(map[uuid.UUID]*model.ServiceRequest),
		payments: make(map[uuid.UUID]*model.PaymentRecord),
	}
}

func (f *fakeServiceStore) GetServiceRequest(_ context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	return &copied, nil
}

func (f *fakeServiceStore) ListOpen(_ context.Context) ([]model.ServiceRequest, error) {
	var out []model.ServiceRequest
	for _, req := range f.requests {
		if req.Status == model.ServiceStatusOpen {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeServiceStore) GetLatestPayment(_ context.Context, serviceID uuid.UUID) (*model.PaymentRecord, error) {
	return f.payments[serviceID], nil
}

func (f *fakeServiceStore) ListRatings(_ context.Context, serviceID uuid.UUID) ([]model.Rating, error) {
	var out []model.Rating
	for _, r := range f.ratings {
		if r.ServiceID != nil && *r.ServiceID == serviceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeServiceStore) ApplyServiceTransition(_ context.Context, t repository.ServiceTransition) (*model.ServiceRequest, error) {
	req, ok := f.requests[t.ServiceID]
	if !ok || req.Status != t.From || req.Status.Terminal() {
		return nil, repository.ErrStaleStatus
	}
	req.Status = t.To
	if t.ProviderID != nil {
		req.ProviderID = t.ProviderID
	}
	copied := *req
	return &copied, nil
}

func (f *fakeServiceStore) InsertRating(_ context.Context, rating model.Rating) (*model.Rating, error) {
	rating.ID = uuid.New()
	f.ratings = append(f.ratings, rating)
	return &rating, nil
}

type fakeRenderer struct {
	docs []model.FreightStatement
}

func (r *fakeRenderer) Generate(doc model.FreightStatement) ([]byte, error) {
	r.docs = append(r.docs, doc)
	return []byte("%PDF-fake"), nil
}

type fakeWorkbook struct {
	reports []model.ConsistencyReport
}

func (w *fakeWorkbook) Generate(report model.ConsistencyReport) ([]byte, error) {
	w.reports = append(w.reports, report)
	return []byte("xlsx"), nil
}

type fakeOpsStore struct {
	counts   []model.StatusCount
	countErr error
	before   time.Time
}

func (f *fakeOpsStore) CountFreightsByStatus(context.Context) ([]model.StatusCount, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.counts, nil
}

func (f *fakeOpsStore) ListStaleFreights(_ context.Context, before time.Time, _ int) ([]model.StaleFreight, error) {
	f.before = before
	return nil, nil
}

type guards struct {
	loc      *i18n.Guard
	workflow *workflow.FreightGuard
	payments *payment.Guard
	prices   *pricing.Guard
	matrix   *matrix.Matrix
}

func newGuards() guards {
	g := guards{loc: i18n.NewDefault()}
	g.workflow = workflow.NewFreightGuard(g.loc)
	g.payments = payment.NewGuard(g.loc)
	g.prices = pricing.NewGuard(g.loc)
	g.matrix = matrix.New(g.loc, g.workflow, g.payments)
	return g
}

func newFreightService(store FreightStore, renderer StatementRenderer) *FreightService {
	g := newGuards()
	d := dispatch.New(g.loc, g.workflow, g.matrix, g.prices)
	return NewFreightService(store, d, g.matrix, g.prices, g.loc, renderer)
}
