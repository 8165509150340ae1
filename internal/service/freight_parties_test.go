package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

func carrierWithCrew() (carrier, crew model.Principal) {
	org := uuid.New()
	carrier = model.Principal{UserID: uuid.New(), OrgID: &org, Role: model.RoleCarrier}
	crew = model.Principal{UserID: uuid.New(), OrgID: &org, Role: model.RoleAffiliatedDriver}
	return carrier, crew
}

func TestOutsidersCannotChangeFreight(t *testing.T) {
	p := newParties()
	holder, crew := carrierWithCrew()
	rival, rivalCrew := carrierWithCrew()
	otherDriver := model.Principal{UserID: uuid.New(), Role: model.RoleDriver}
	otherProducer := model.Principal{UserID: uuid.New(), Role: model.RoleProducer}
	secondCrew := model.Principal{UserID: uuid.New(), OrgID: crew.OrgID, Role: model.RoleAffiliatedDriver}

	tests := []struct {
		name   string
		actor  model.Principal
		action model.Action
		status model.FreightStatus
		units  int
		setup  func(f *model.Freight)
	}{
		{name: "carrier cancels an open freight it does not hold", actor: rival, action: model.ActionCancel, status: model.FreightStatusOpen, units: 1},
		{name: "carrier cancels an open multi-unit freight", actor: rival, action: model.ActionCancel, status: model.FreightStatusOpen, units: 3},
		{name: "producer cancels another producer's freight", actor: otherProducer, action: model.ActionCancel, status: model.FreightStatusApproved, units: 1},
		{name: "producer publishes another producer's freight", actor: otherProducer, action: model.ActionPublish, status: model.FreightStatusApproved, units: 1},
		{name: "driver accepts a multi-unit freight without a load", actor: otherDriver, action: model.ActionAccept, status: model.FreightStatusOpen, units: 2},
		{
			name: "carrier cancels a freight held by another carrier", actor: rival, action: model.ActionCancel, status: model.FreightStatusLoading, units: 1,
			setup: func(f *model.Freight) { f.CarrierID = holder.OrgID },
		},
		{
			name: "carrier advances a freight held by another carrier", actor: rival, action: model.ActionStartLoading, status: model.FreightStatusAccepted, units: 1,
			setup: func(f *model.Freight) { f.CarrierID = holder.OrgID },
		},
		{
			name: "another carrier's crew advances the freight", actor: rivalCrew, action: model.ActionStartLoading, status: model.FreightStatusAccepted, units: 1,
			setup: func(f *model.Freight) { f.CarrierID = holder.OrgID },
		},
		{
			name: "second crew driver takes over a load already driven", actor: secondCrew, action: model.ActionFinishLoading, status: model.FreightStatusLoading, units: 1,
			setup: func(f *model.Freight) { f.CarrierID = holder.OrgID; f.DriverID = &crew.UserID },
		},
		{
			name: "driver advances a freight driven by someone else", actor: otherDriver, action: model.ActionStartLoading, status: model.FreightStatusAccepted, units: 1,
			setup: func(f *model.Freight) { f.DriverID = &p.driver.UserID },
		},
		{
			name: "carrier registers payment on a freight it does not hold", actor: rival, action: model.ActionCreatePayment, status: model.FreightStatusDelivered, units: 1,
			setup: func(f *model.Freight) { f.DriverID = &p.driver.UserID },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeFreightStore()
			svc := newFreightService(store, &fakeRenderer{})
			freight := seedFreight(store, p.producer.UserID, tt.status, tt.units, 9000)
			if tt.setup != nil {
				tt.setup(freight)
			}

			res, err := svc.Perform(context.Background(), PerformInput{Principal: tt.actor, FreightID: freight.ID, Action: string(tt.action)})
			if !errors.Is(err, ErrPermissionDenied) || res != nil {
				t.Fatalf("expected permission denied, got %v %+v", err, res)
			}
			if len(store.history) != 0 || len(store.payments) != 0 {
				t.Fatalf("refused action must not write, history %+v", store.history)
			}
			if got := store.freights[freight.ID].Status; got != tt.status {
				t.Fatalf("status changed to %s", got)
			}
		})
	}
}

func TestOpenFreightOffersOutsiderOnlyTheClaim(t *testing.T) {
	store := newFakeFreightStore()
	svc := newFreightService(store, &fakeRenderer{})
	p := newParties()
	rival, _ := carrierWithCrew()
	freight := seedFreight(store, p.producer.UserID, model.FreightStatusOpen, 1, 9000)

	view, err := svc.Actions(context.Background(), rival, freight.ID)
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	byAction := make(map[string]ActionView)
	for _, a := range view.Actions {
		byAction[a.Action] = a
	}
	if !byAction["ACCEPT"].Enabled {
		t.Fatalf("an open freight should be claimable, got %+v", view.Actions)
	}
	if cancel, ok := byAction["CANCEL"]; !ok || cancel.Enabled || cancel.Reason == "" {
		t.Fatalf("cancel must be disabled with a reason for an outsider, got %+v", cancel)
	}

	view, err = svc.Actions(context.Background(), p.producer, freight.ID)
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	for _, a := range view.Actions {
		if a.Action == "CANCEL" && !a.Enabled {
			t.Fatalf("owner should be able to cancel, got %+v", a)
		}
	}
}

func TestCarrierAcceptedFreightReachesCompletion(t *testing.T) {
	ctx := context.Background()
	store := newFakeFreightStore()
	svc := newFreightService(store, &fakeRenderer{})
	p := newParties()
	carrier, crew := carrierWithCrew()
	freight := seedFreight(store, p.producer.UserID, model.FreightStatusOpen, 1, 9000)

	steps := []struct {
		actor  model.Principal
		action model.Action
		want   model.FreightStatus
	}{
		{carrier, model.ActionAccept, model.FreightStatusAccepted},
		{crew, model.ActionStartLoading, model.FreightStatusLoading},
		{carrier, model.ActionFinishLoading, model.FreightStatusLoaded},
		{crew, model.ActionStartTransit, model.FreightStatusInTransit},
		{carrier, model.ActionReportDelivery, model.FreightStatusDeliveredPendingConfirmation},
		{p.producer, model.ActionConfirmDelivery, model.FreightStatusDelivered},
		{p.producer, model.ActionCreatePayment, model.FreightStatusDelivered},
		{p.producer, model.ActionMarkPaid, model.FreightStatusDelivered},
		{crew, model.ActionConfirmPayment, model.FreightStatusDelivered},
		{p.producer, model.ActionComplete, model.FreightStatusCompleted},
	}
	for _, step := range steps {
		res, err := svc.Perform(ctx, PerformInput{Principal: step.actor, FreightID: freight.ID, Action: string(step.action)})
		if err != nil {
			t.Fatalf("%s by %s: %v", step.action, step.actor.Role, err)
		}
		if res.Status != string(step.want) {
			t.Fatalf("%s: expected %s, got %s", step.action, step.want, res.Status)
		}
	}

	stored := store.freights[freight.ID]
	if stored.CarrierID == nil || *stored.CarrierID != *carrier.OrgID {
		t.Fatalf("carrier should be booked under its organization, got %v", stored.CarrierID)
	}
	if stored.DriverID == nil || *stored.DriverID != crew.UserID {
		t.Fatalf("crew driver who took the load was not recorded")
	}
	if store.payments[0].PayeeID != crew.UserID {
		t.Fatalf("payment should go to the driver hauling the load, got %s", store.payments[0].PayeeID)
	}

	for _, rater := range []model.Principal{carrier, crew, p.producer} {
		if _, err := svc.Perform(ctx, PerformInput{Principal: rater, FreightID: freight.ID, Action: "RATE", Score: 5}); err != nil {
			t.Fatalf("rate by %s: %v", rater.Role, err)
		}
	}
}

func TestCarrierIsPaidWhenNoCrewDriverTookTheLoad(t *testing.T) {
	ctx := context.Background()
	store := newFakeFreightStore()
	svc := newFreightService(store, &fakeRenderer{})
	p := newParties()
	carrier, crew := carrierWithCrew()
	freight := seedFreight(store, p.producer.UserID, model.FreightStatusDelivered, 1, 9000)
	freight.CarrierID = carrier.OrgID

	for _, step := range []struct {
		actor  model.Principal
		action string
	}{{p.producer, "CREATE_PAYMENT"}, {p.producer, "MARK_PAID"}, {crew, "CONFIRM_PAYMENT"}, {p.producer, "COMPLETE"}} {
		if _, err := svc.Perform(ctx, PerformInput{Principal: step.actor, FreightID: freight.ID, Action: step.action}); err != nil {
			t.Fatalf("%s by %s: %v", step.action, step.actor.Role, err)
		}
	}
	if store.payments[0].PayeeID != *carrier.OrgID {
		t.Fatalf("carrier should be the payee, got %s", store.payments[0].PayeeID)
	}
	if !store.payments[0].Amount.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("unexpected amount %s", store.payments[0].Amount)
	}
	if store.freights[freight.ID].Status != model.FreightStatusCompleted {
		t.Fatalf("freight should be completed")
	}
}

func TestCarrierWithoutOrganizationCannotAccept(t *testing.T) {
	store := newFakeFreightStore()
	svc := newFreightService(store, &fakeRenderer{})
	p := newParties()
	freight := seedFreight(store, p.producer.UserID, model.FreightStatusOpen, 1, 9000)
	solo := model.Principal{UserID: uuid.New(), Role: model.RoleCarrier}

	_, err := svc.Perform(context.Background(), PerformInput{Principal: solo, FreightID: freight.ID, Action: "ACCEPT"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(store.history) != 0 || store.freights[freight.ID].Status != model.FreightStatusOpen {
		t.Fatalf("freight must stay open")
	}
}
