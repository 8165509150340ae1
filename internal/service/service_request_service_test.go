package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/workflow"
)

func newServiceRequestService(store ServiceRequestStore, overrides map[model.ServiceType]int) *ServiceRequestService {
	g := newGuards()
	return NewServiceRequestService(store, workflow.NewServiceGuard(g.loc, overrides), g.payments, g.loc, zerolog.Nop())
}

func seedRequest(store *fakeServiceStore, serviceType model.ServiceType, status model.ServiceStatus, client *uuid.UUID, age time.Duration, now time.Time) *model.ServiceRequest {
	req := &model.ServiceRequest{
		ID:          uuid.New(),
		ServiceType: serviceType,
		Status:      status,
		ClientID:    client,
		CreatedAt:   now.Add(-age),
	}
	store.requests[req.ID] = req
	return req
}

func TestServiceRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeServiceStore()
	svc := newServiceRequestService(store, nil)
	client := model.Principal{UserID: uuid.New(), Role: model.RoleProducer}
	driver := model.Principal{UserID: uuid.New(), Role: model.RoleDriver}
	rival := model.Principal{UserID: uuid.New(), Role: model.RoleDriver}
	req := seedRequest(store, model.ServiceTypeTowing, model.ServiceStatusOpen, &client.UserID, time.Minute, time.Now())

	res, err := svc.Perform(ctx, ServicePerformInput{Principal: driver, ServiceID: req.ID, Action: "ACCEPT"})
	if err != nil || res.Status != string(model.ServiceStatusAccepted) {
		t.Fatalf("accept: %v %+v", err, res)
	}
	if store.requests[req.ID].ProviderID == nil || *store.requests[req.ID].ProviderID != driver.UserID {
		t.Fatalf("provider was not recorded")
	}

	if _, err := svc.Perform(ctx, ServicePerformInput{Principal: rival, ServiceID: req.ID, Action: "DEPART"}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("another driver must not see a claimed job, got %v", err)
	}

	for _, action := range []string{"DEPART", "START_SERVICE", "FINISH_SERVICE"} {
		if _, err := svc.Perform(ctx, ServicePerformInput{Principal: driver, ServiceID: req.ID, Action: action}); err != nil {
			t.Fatalf("%s: %v", action, err)
		}
	}
	if store.requests[req.ID].Status != model.ServiceStatusCompleted {
		t.Fatalf("expected completed, got %s", store.requests[req.ID].Status)
	}

	if _, err := svc.Perform(ctx, ServicePerformInput{Principal: client, ServiceID: req.ID, Action: "RATE", Score: 4}); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if len(store.ratings) != 1 || store.ratings[0].RatedID != driver.UserID {
		t.Fatalf("unexpected ratings %+v", store.ratings)
	}
}

func TestServiceRequestRejectsSkip(t *testing.T) {
	store := newFakeServiceStore()
	svc := newServiceRequestService(store, nil)
	driver := model.Principal{UserID: uuid.New(), Role: model.RoleDriver}
	req := seedRequest(store, model.ServiceTypeMoving, model.ServiceStatusAccepted, nil, time.Minute, time.Now())
	req.ProviderID = &driver.UserID

	_, err := svc.Perform(context.Background(), ServicePerformInput{Principal: driver, ServiceID: req.ID, Action: "START_SERVICE"})
	var gerr *guard.Error
	if !errors.Is(err, ErrActionRejected) || !errors.As(err, &gerr) || gerr.Code != guard.CodeSkip {
		t.Fatalf("expected skip rejection, got %v", err)
	}
	if gerr.ExpectedNext != string(model.ServiceStatusOnTheWay) {
		t.Fatalf("expected next %q, got %q", model.ServiceStatusOnTheWay, gerr.ExpectedNext)
	}

	_, err = svc.Perform(context.Background(), ServicePerformInput{Principal: driver, ServiceID: req.ID, Action: "TELEPORT"})
	if !errors.As(err, &gerr) || gerr.Code != guard.CodeUnknownAction {
		t.Fatalf("expected unknown action, got %v", err)
	}
}

func TestGuestCancelsOnlyUnclaimedRequest(t *testing.T) {
	ctx := context.Background()
	store := newFakeServiceStore()
	svc := newServiceRequestService(store, nil)
	guest := model.GuestPrincipal()
	driver := model.Principal{UserID: uuid.New(), Role: model.RoleDriver}

	open := seedRequest(store, model.ServiceTypePackageDelivery, model.ServiceStatusOpen, nil, time.Minute, time.Now())
	view, err := svc.Actions(ctx, guest, open.ID)
	if err != nil || len(view.Actions) != 1 || view.Actions[0].Action != "CANCEL" || !view.Actions[0].Enabled {
		t.Fatalf("guest should be offered cancellation, got %v %+v", err, view)
	}
	if _, err := svc.Perform(ctx, ServicePerformInput{Principal: guest, ServiceID: open.ID, Action: "CANCEL"}); err != nil {
		t.Fatalf("guest cancel: %v", err)
	}

	claimed := seedRequest(store, model.ServiceTypePackageDelivery, model.ServiceStatusAccepted, nil, time.Minute, time.Now())
	claimed.ProviderID = &driver.UserID
	_, err = svc.Perform(ctx, ServicePerformInput{Principal: guest, ServiceID: claimed.ID, Action: "CANCEL"})
	if !errors.Is(err, guard.ErrRoleNotPermitted) {
		t.Fatalf("guest must not cancel a claimed request, got %v", err)
	}
}

func TestExpireStale(t *testing.T) {
	store := newFakeServiceStore()
	svc := newServiceRequestService(store, map[model.ServiceType]int{model.ServiceTypeMoving: 96})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	var expired []uuid.UUID
	svc.OnExpired(func(req model.ServiceRequest) { expired = append(expired, req.ID) })

	towing := seedRequest(store, model.ServiceTypeTowing, model.ServiceStatusOpen, nil, 3*time.Hour, now)
	moving := seedRequest(store, model.ServiceTypeMoving, model.ServiceStatusOpen, nil, 80*time.Hour, now)
	claimed := seedRequest(store, model.ServiceTypeTowing, model.ServiceStatusAccepted, nil, 10*time.Hour, now)

	n, err := svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 || len(expired) != 1 || expired[0] != towing.ID {
		t.Fatalf("expected only the towing request to expire, got %d %v", n, expired)
	}
	if store.requests[moving.ID].Status != model.ServiceStatusOpen {
		t.Fatalf("moving request is inside its overridden window")
	}
	if store.requests[claimed.ID].Status != model.ServiceStatusAccepted {
		t.Fatalf("claimed request must never auto-expire")
	}
}

func TestServiceRequestCancelNeedsParty(t *testing.T) {
	client := model.Principal{UserID: uuid.New(), Role: model.RoleCarrier}
	provider := model.Principal{UserID: uuid.New(), Role: model.RoleCarrier}
	stranger := model.Principal{UserID: uuid.New(), Role: model.RoleCarrier}
	otherClient := model.Principal{UserID: uuid.New(), Role: model.RoleProducer}
	admin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}

	tests := []struct {
		name    string
		actor   model.Principal
		status  model.ServiceStatus
		wantErr error
	}{
		{name: "carrier cancels someone else's open request", actor: stranger, status: model.ServiceStatusOpen, wantErr: ErrPermissionDenied},
		{name: "producer cancels someone else's open request", actor: otherClient, status: model.ServiceStatusOpen, wantErr: ErrPermissionDenied},
		{name: "requester cancels its open request", actor: client, status: model.ServiceStatusOpen},
		{name: "provider drops a job it claimed", actor: provider, status: model.ServiceStatusAccepted},
		{name: "admin cancels", actor: admin, status: model.ServiceStatusOnTheWay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeServiceStore()
			svc := newServiceRequestService(store, nil)
			req := seedRequest(store, model.ServiceTypeTowing, tt.status, &client.UserID, time.Minute, time.Now())
			if tt.status != model.ServiceStatusOpen {
				req.ProviderID = &provider.UserID
			}

			_, err := svc.Perform(context.Background(), ServicePerformInput{Principal: tt.actor, ServiceID: req.ID, Action: "CANCEL"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if store.requests[req.ID].Status != tt.status {
					t.Fatalf("refused cancel changed the request to %s", store.requests[req.ID].Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if store.requests[req.ID].Status != model.ServiceStatusCancelled {
				t.Fatalf("expected cancelled, got %s", store.requests[req.ID].Status)
			}
		})
	}
}

func TestServiceRequestViewDisablesCancelForOutsider(t *testing.T) {
	store := newFakeServiceStore()
	svc := newServiceRequestService(store, nil)
	client := model.Principal{UserID: uuid.New(), Role: model.RoleProducer}
	stranger := model.Principal{UserID: uuid.New(), Role: model.RoleCarrier}
	req := seedRequest(store, model.ServiceTypeMoving, model.ServiceStatusOpen, &client.UserID, time.Minute, time.Now())

	view, err := svc.Actions(context.Background(), stranger, req.ID)
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	for _, a := range view.Actions {
		if a.Action == "CANCEL" && (a.Enabled || a.Reason == "") {
			t.Fatalf("outsider must see cancel disabled with a reason, got %+v", a)
		}
	}
}
