package payment

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

func status(s model.PaymentStatus) *model.PaymentStatus { return &s }

func newGuard() *Guard { return NewGuard(i18n.NewDefault()) }

func TestPaymentTransitions(t *testing.T) {
	g := newGuard()

	valid := [][2]model.PaymentStatus{
		{model.PaymentStatusProposed, model.PaymentStatusPaidByProducer},
		{model.PaymentStatusPaidByProducer, model.PaymentStatusConfirmedByDriver},
		{model.PaymentStatusConfirmedByDriver, model.PaymentStatusCompleted},
		{model.PaymentStatusProposed, model.PaymentStatusRejected},
		{model.PaymentStatusPaidByProducer, model.PaymentStatusDisputed},
		{model.PaymentStatusDisputed, model.PaymentStatusConfirmedByDriver},
		{model.PaymentStatusProposed, model.PaymentStatusProposed},
	}
	for _, c := range valid {
		if err := g.AssertValidPaymentTransition(c[0], c[1]); err != nil {
			t.Errorf("%s -> %s: %v", c[0], c[1], err)
		}
	}

	invalid := []struct {
		from, to model.PaymentStatus
		code     guard.Code
	}{
		{model.PaymentStatusProposed, model.PaymentStatusConfirmedByDriver, guard.CodePaymentOutOfOrder},
		{model.PaymentStatusPaidByProducer, model.PaymentStatusProposed, guard.CodePaymentOutOfOrder},
		{model.PaymentStatusCompleted, model.PaymentStatusDisputed, guard.CodeTerminal},
		{model.PaymentStatusRejected, model.PaymentStatusProposed, guard.CodeTerminal},
		{"refunded", model.PaymentStatusProposed, guard.CodeUnknownStatus},
	}
	for _, c := range invalid {
		err := g.AssertValidPaymentTransition(c.from, c.to)
		var gerr *guard.Error
		if !errors.As(err, &gerr) || gerr.Code != c.code || !errors.Is(err, guard.ErrPaymentSequence) {
			t.Errorf("%s -> %s: %v", c.from, c.to, err)
		}
	}
}

func TestCanCreateExternalPayment(t *testing.T) {
	g := newGuard()

	for _, role := range model.AllRoles() {
		res := g.CanCreateExternalPayment(model.FreightStatusDelivered, role)
		want := role == model.RoleProducer || role == model.RoleCarrier
		if res.Allowed != want {
			t.Errorf("%s: %+v", role, res)
		}
		if !want && !errors.Is(res.Err(), guard.ErrRoleNotPermitted) {
			t.Errorf("%s: kind %v", role, res.Kind)
		}
	}

	res := g.CanCreateExternalPayment(model.FreightStatusDeliveredPendingConfirmation, model.RoleProducer)
	if res.Allowed || res.Code != guard.CodeWrongState {
		t.Fatalf("before delivery confirmation: %+v", res)
	}
}

func TestMarkPaidAndConfirm(t *testing.T) {
	g := newGuard()

	if !g.CanMarkPaidByProducer(status(model.PaymentStatusProposed)).Allowed {
		t.Fatal("proposed payment should be markable")
	}
	if res := g.CanMarkPaidByProducer(nil); res.Code != guard.CodePaymentMissing {
		t.Fatalf("nil payment: %+v", res)
	}
	if res := g.CanMarkPaidByProducer(status(model.PaymentStatusPaidByProducer)); res.Allowed {
		t.Fatal("already paid")
	}

	paid := status(model.PaymentStatusPaidByProducer)
	if !g.CanConfirmReceivedByDriver(paid, model.RoleDriver).Allowed || !g.CanConfirmReceivedByDriver(paid, model.RoleAffiliatedDriver).Allowed {
		t.Fatal("drivers should confirm a paid payment")
	}
	if res := g.CanConfirmReceivedByDriver(paid, model.RoleProducer); res.Code != guard.CodeRoleNotPermitted {
		t.Fatalf("producer confirming: %+v", res)
	}
	if res := g.CanConfirmReceivedByDriver(status(model.PaymentStatusProposed), model.RoleDriver); res.Allowed {
		t.Fatal("cannot confirm before the producer pays")
	}
}

func TestCheckAction(t *testing.T) {
	g := newGuard()

	target, res := g.CheckAction(ActionInput{Action: model.ActionCreatePayment, FreightStatus: model.FreightStatusDelivered, Role: model.RoleProducer})
	if !res.Allowed || target != model.PaymentStatusProposed {
		t.Fatalf("create: %s %+v", target, res)
	}

	_, res = g.CheckAction(ActionInput{Action: model.ActionCreatePayment, FreightStatus: model.FreightStatusDelivered, Role: model.RoleProducer, PaymentStatus: status(model.PaymentStatusProposed)})
	if res.Allowed || res.Code != guard.CodePaymentOutOfOrder {
		t.Fatalf("duplicate create: %+v", res)
	}

	target, res = g.CheckAction(ActionInput{Action: model.ActionCreatePayment, FreightStatus: model.FreightStatusDelivered, Role: model.RoleCarrier, PaymentStatus: status(model.PaymentStatusRejected)})
	if !res.Allowed || target != model.PaymentStatusProposed {
		t.Fatalf("re-proposal after rejection: %+v", res)
	}

	target, res = g.CheckAction(ActionInput{Action: model.ActionConfirmPayment, FreightStatus: model.FreightStatusDelivered, Role: model.RoleDriver, PaymentStatus: status(model.PaymentStatusPaidByProducer)})
	if !res.Allowed || target != model.PaymentStatusConfirmedByDriver {
		t.Fatalf("confirm: %+v", res)
	}

	for _, a := range []model.Action{model.ActionCreatePayment, model.ActionMarkPaid, model.ActionConfirmPayment} {
		want, ok := TargetStatus(a)
		if !ok || want == "" {
			t.Errorf("TargetStatus(%s) missing", a)
		}
		if _, ok := ExpectedPaymentStatus(a); !ok {
			t.Errorf("ExpectedPaymentStatus(%s) missing", a)
		}
	}
	if _, res := g.CheckAction(ActionInput{Action: model.ActionComplete}); res.Code != guard.CodeUnknownAction {
		t.Fatalf("non-money action: %+v", res)
	}
}

func TestCanCloseFreightAsCompleted(t *testing.T) {
	g := newGuard()

	tests := []struct {
		name   string
		status model.FreightStatus
		pay    *model.PaymentStatus
		want   guard.Code
	}{
		{"confirmed", model.FreightStatusDelivered, status(model.PaymentStatusConfirmedByDriver), guard.CodeOK},
		{"completed payment", model.FreightStatusDelivered, status(model.PaymentStatusCompleted), guard.CodeOK},
		{"no payment", model.FreightStatusDelivered, nil, guard.CodePaymentMissing},
		{"only paid", model.FreightStatusDelivered, status(model.PaymentStatusPaidByProducer), guard.CodePaymentNotSettled},
		{"not delivered", model.FreightStatusInTransit, status(model.PaymentStatusConfirmedByDriver), guard.CodeWrongState},
	}
	for _, tt := range tests {
		res := g.CanCloseFreightAsCompleted(tt.status, tt.pay)
		if res.Allowed != (tt.want == guard.CodeOK) || res.Code != tt.want {
			t.Errorf("%s: %+v", tt.name, res)
		}
	}
}

func TestCanCloseServiceRequest(t *testing.T) {
	g := newGuard()

	if !g.CanCloseServiceRequest(model.ServiceStatusCompleted, nil).Allowed {
		t.Fatal("payment is optional for urban jobs")
	}
	if g.CanCloseServiceRequest(model.ServiceStatusCompleted, status(model.PaymentStatusDisputed)).Allowed {
		t.Fatal("a disputed payment blocks closure")
	}
	if g.CanCloseServiceRequest(model.ServiceStatusInProgress, nil).Allowed {
		t.Fatal("unfinished job cannot close")
	}
}

func TestCanCloseMultiTruckFreight(t *testing.T) {
	g := newGuard()
	assignments := []model.Assignment{
		{Status: model.FreightStatusDelivered, PaymentStatus: status(model.PaymentStatusConfirmedByDriver)},
		{Status: model.FreightStatusDelivered, PaymentStatus: status(model.PaymentStatusConfirmedByDriver)},
		{Status: model.FreightStatusDelivered, PaymentStatus: status(model.PaymentStatusPaidByProducer)},
	}

	res := g.CanCloseMultiTruckFreight(assignments)
	if res.Allowed || res.Code != guard.CodeFleetNotSettled {
		t.Fatalf("partial fleet: %+v", res)
	}
	if res.Reason != "1 de 3 carretas ainda não confirmaram o recebimento." {
		t.Fatalf("reason %q", res.Reason)
	}

	assignments[2].PaymentStatus = status(model.PaymentStatusConfirmedByDriver)
	if res := g.CanCloseMultiTruckFreight(assignments); !res.Allowed {
		t.Fatalf("full fleet: %+v", res)
	}

	withCancelled := append(assignments, model.Assignment{Status: model.FreightStatusCancelled})
	if !g.CanCloseMultiTruckFreight(withCancelled).Allowed {
		t.Fatal("cancelled assignments are ignored")
	}
	if g.CanCloseMultiTruckFreight(nil).Allowed {
		t.Fatal("no assignments cannot close")
	}
}

func TestRatings(t *testing.T) {
	g := newGuard()
	producer, driver, stranger := uuid.New(), uuid.New(), uuid.New()
	parties := []uuid.UUID{producer, driver}

	if res := g.CanRateFreight(model.FreightStatusDelivered, RatingInput{RaterID: producer, Role: model.RoleProducer}); res.Code != guard.CodeNotCompleted {
		t.Fatalf("before completion: %+v", res)
	}

	var existing []model.Rating
	for _, rater := range []struct {
		id   uuid.UUID
		role model.Role
	}{{producer, model.RoleProducer}, {driver, model.RoleDriver}} {
		in := RatingInput{RaterID: rater.id, Role: rater.role, Parties: parties, Existing: existing}
		if res := g.CanRateFreight(model.FreightStatusCompleted, in); !res.Allowed {
			t.Fatalf("%s first rating: %+v", rater.role, res)
		}
		existing = append(existing, model.Rating{RaterID: rater.id})
	}

	res := g.CanRateFreight(model.FreightStatusCompleted, RatingInput{RaterID: producer, Role: model.RoleProducer, Parties: parties, Existing: existing})
	if res.Allowed || res.Code != guard.CodeAlreadyRated {
		t.Fatalf("second rating: %+v", res)
	}

	if res := g.CanRateFreight(model.FreightStatusCompleted, RatingInput{RaterID: stranger, Role: model.RoleDriver, Parties: parties}); res.Code != guard.CodeRoleNotPermitted {
		t.Fatalf("stranger: %+v", res)
	}
	if res := g.CanRateServiceRequest(model.ServiceStatusCompleted, RatingInput{Role: model.RoleGuest}); res.Allowed {
		t.Fatal("guests cannot rate")
	}
	if !g.CanRateServiceRequest(model.ServiceStatusCompleted, RatingInput{RaterID: driver, Role: model.RoleDriver}).Allowed {
		t.Fatal("provider should rate a completed request")
	}
}
