package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name   string
		total  decimal.Decimal
		units  int
		agreed *decimal.Decimal
		want   decimal.Decimal
	}{
		{"agreed wins", d(10000), 5, ptr(d(2500)), d(2500)},
		{"split evenly", d(10000), 5, nil, d(2000)},
		{"single unit", d(10000), 1, nil, d(10000)},
		{"single unit ignores agreed", d(10000), 1, ptr(d(300)), d(10000)},
		{"all absent", decimal.Decimal{}, 0, nil, decimal.Zero},
		{"agreed above total ignored", d(10000), 5, ptr(d(15000)), d(2000)},
		{"non-positive agreed ignored", d(10000), 4, ptr(d(0)), d(2500)},
		{"rounds to cents", d(10000), 3, nil, decimal.RequireFromString("3333.33")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnitPrice(tt.total, tt.units, tt.agreed); !got.Equal(tt.want) {
				t.Fatalf("UnitPrice = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAssertUnitPriceIsNotTotal(t *testing.T) {
	g := NewGuard(i18n.NewDefault())

	err := g.AssertUnitPriceIsNotTotal(DisplayCheck{DisplayPrice: d(10000), TotalPrice: d(10000), RequiredUnits: 5})
	if !errors.Is(err, guard.ErrPriceIntegrity) {
		t.Fatalf("expected price integrity error, got %v", err)
	}
	var gerr *guard.Error
	if !errors.As(err, &gerr) || gerr.Code != guard.CodeUnitPriceIsTotal || gerr.Message == "" {
		t.Fatalf("unexpected error shape: %#v", err)
	}

	if err := g.AssertUnitPriceIsNotTotal(DisplayCheck{DisplayPrice: d(10000), TotalPrice: d(10000), RequiredUnits: 1}); err != nil {
		t.Fatalf("single unit must not fail: %v", err)
	}
	if err := g.AssertUnitPriceIsNotTotal(DisplayCheck{DisplayPrice: d(2000), TotalPrice: d(10000), RequiredUnits: 5}); err != nil {
		t.Fatalf("unit share must pass: %v", err)
	}
	if err := g.AssertUnitPriceIsNotTotal(DisplayCheck{DisplayPrice: d(0), TotalPrice: d(0), RequiredUnits: 5}); !errors.Is(err, guard.ErrPriceIntegrity) {
		t.Fatalf("an unpriced multi-unit total must not pass as a share, got %v", err)
	}
}

func TestValidateConsistency(t *testing.T) {
	g := NewGuard(i18n.NewDefault())

	tests := []struct {
		name     string
		in       ConsistencyInput
		wantCode guard.Code
	}{
		{"zero agreed", ConsistencyInput{TotalPrice: d(10000), AgreedUnitPrice: d(0), RequiredUnits: 5}, guard.CodeNonPositiveUnitPrice},
		{"negative agreed", ConsistencyInput{TotalPrice: d(10000), AgreedUnitPrice: d(-1), RequiredUnits: 1}, guard.CodeNonPositiveUnitPrice},
		{"unit above total", ConsistencyInput{TotalPrice: d(10000), AgreedUnitPrice: d(15000), RequiredUnits: 5}, guard.CodeUnitExceedsTotal},
		{"unit equals total", ConsistencyInput{TotalPrice: d(10000), AgreedUnitPrice: d(10000), RequiredUnits: 5}, guard.CodeUnitPriceIsTotal},
		{"single unit", ConsistencyInput{TotalPrice: d(5000), AgreedUnitPrice: d(5000), RequiredUnits: 1}, guard.CodeOK},
		{"valid share", ConsistencyInput{TotalPrice: d(10000), AgreedUnitPrice: d(2500), RequiredUnits: 5}, guard.CodeOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateConsistency(tt.in)
			if tt.wantCode == guard.CodeOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var gerr *guard.Error
			if !errors.As(err, &gerr) {
				t.Fatalf("expected *guard.Error, got %v", err)
			}
			if gerr.Code != tt.wantCode || !errors.Is(err, guard.ErrPriceIntegrity) {
				t.Fatalf("got code %s kind %v, want %s", gerr.Code, gerr.Kind, tt.wantCode)
			}
		})
	}
}

func TestPresentPrice(t *testing.T) {
	g := NewGuard(i18n.NewDefault())
	in := PresentInput{TotalPrice: d(10000), RequiredUnits: 5, AgreedUnitPrice: ptr(d(2500))}

	for _, role := range []model.Role{model.RoleDriver, model.RoleAffiliatedDriver, model.RoleGuest} {
		in.ViewerRole = role
		p := g.PresentPrice(in)
		if !p.DisplayPrice.Equal(d(2500)) || !p.IsPerUnit || p.TotalPrice != nil {
			t.Fatalf("%s: got %+v", role, p)
		}
		if p.Label != "R$ 2.500,00 por carreta" {
			t.Fatalf("%s: label %q", role, p.Label)
		}
	}

	for _, role := range []model.Role{model.RoleProducer, model.RoleCarrier, model.RoleAdmin} {
		in.ViewerRole = role
		p := g.PresentPrice(in)
		if !p.DisplayPrice.Equal(d(10000)) || p.TotalPrice == nil || !p.TotalPrice.Equal(d(10000)) || p.IsPerUnit {
			t.Fatalf("%s: got %+v", role, p)
		}
		if !p.UnitPrice.Equal(d(2500)) {
			t.Fatalf("%s: unit price %s", role, p.UnitPrice)
		}
	}
}

func TestPresentPriceSingleUnitIgnoresRole(t *testing.T) {
	g := NewGuard(i18n.NewDefault())

	for _, role := range model.AllRoles() {
		p := g.PresentPrice(PresentInput{TotalPrice: d(4200), RequiredUnits: 1, ViewerRole: role})
		if !p.DisplayPrice.Equal(d(4200)) || p.TotalPrice == nil || p.IsPerUnit {
			t.Fatalf("%s: got %+v", role, p)
		}
	}
}

func TestPresentPriceNeverShowsTotalToDriver(t *testing.T) {
	g := NewGuard(i18n.NewDefault())

	// A corrupted agreed price equal to the total falls back to an even split.
	p := g.PresentPrice(PresentInput{
		TotalPrice:      d(10000),
		RequiredUnits:   5,
		AgreedUnitPrice: ptr(d(10000)),
		ViewerRole:      model.RoleDriver,
	})
	if !p.DisplayPrice.Equal(d(2000)) || p.TotalPrice != nil {
		t.Fatalf("got %+v", p)
	}
}
