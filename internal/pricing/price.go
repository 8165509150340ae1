// Package pricing keeps per-truck and contract-total figures apart. It does
// not compute prices; it only checks that an already-computed total and an
// already-computed unit price agree, and decides which one a viewer sees.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

// UnitPrice returns the per-truck value of a contract. Missing inputs count
// as zero. An agreed unit price wins when it is positive and not larger than
// the total; otherwise the total is split evenly.
func UnitPrice(totalPrice decimal.Decimal, requiredUnits int, agreedUnitPrice *decimal.Decimal) decimal.Decimal {
	if requiredUnits <= 1 {
		return totalPrice
	}
	if agreedUnitPrice != nil && agreedUnitPrice.IsPositive() {
		if totalPrice.IsZero() || agreedUnitPrice.LessThanOrEqual(totalPrice) {
			return *agreedUnitPrice
		}
	}
	return totalPrice.DivRound(decimal.NewFromInt(int64(requiredUnits)), 2)
}

type DisplayCheck struct {
	DisplayPrice  decimal.Decimal
	TotalPrice    decimal.Decimal
	RequiredUnits int
}

type ConsistencyInput struct {
	TotalPrice      decimal.Decimal
	AgreedUnitPrice decimal.Decimal
	RequiredUnits   int
}

type PresentInput struct {
	TotalPrice      decimal.Decimal
	RequiredUnits   int
	AgreedUnitPrice *decimal.Decimal
	ViewerRole      model.Role
}

type Presentation struct {
	DisplayPrice decimal.Decimal
	UnitPrice    decimal.Decimal
	IsPerUnit    bool
	// TotalPrice is nil whenever the viewer may not see the contract total.
	TotalPrice *decimal.Decimal
	Label      string
}

type Guard struct {
	loc *i18n.Guard
}

func NewGuard(loc *i18n.Guard) *Guard {
	return &Guard{loc: loc}
}

// AssertUnitPriceIsNotTotal fails when a multi-unit contract is about to show
// its whole value as a single truck's share.
func (g *Guard) AssertUnitPriceIsNotTotal(in DisplayCheck) error {
	if in.RequiredUnits <= 1 {
		return nil
	}
	if in.DisplayPrice.Equal(in.TotalPrice) {
		return guard.NewError(guard.ErrPriceIntegrity, guard.CodeUnitPriceIsTotal,
			g.loc.Message(i18n.MsgUnitPriceIsTotal, in.RequiredUnits))
	}
	return nil
}

// ValidateConsistency checks an agreed unit price against its contract.
func (g *Guard) ValidateConsistency(in ConsistencyInput) error {
	if !in.AgreedUnitPrice.IsPositive() {
		return guard.NewError(guard.ErrPriceIntegrity, guard.CodeNonPositiveUnitPrice,
			g.loc.Message(i18n.MsgNonPositiveUnitPrice))
	}
	if in.RequiredUnits <= 1 {
		return nil
	}
	switch {
	case in.AgreedUnitPrice.GreaterThan(in.TotalPrice):
		return guard.NewError(guard.ErrPriceIntegrity, guard.CodeUnitExceedsTotal,
			g.loc.Message(i18n.MsgUnitExceedsTotal, g.loc.FormatMoney(in.AgreedUnitPrice), g.loc.FormatMoney(in.TotalPrice)))
	case in.AgreedUnitPrice.Equal(in.TotalPrice):
		return guard.NewError(guard.ErrPriceIntegrity, guard.CodeUnitPriceIsTotal,
			g.loc.Message(i18n.MsgUnitPriceIsTotal, in.RequiredUnits))
	}
	return nil
}

// PresentPrice is the only formatting entry point for prices shown to users.
func (g *Guard) PresentPrice(in PresentInput) Presentation {
	unit := UnitPrice(in.TotalPrice, in.RequiredUnits, in.AgreedUnitPrice)
	total := in.TotalPrice

	if in.RequiredUnits <= 1 {
		return Presentation{
			DisplayPrice: total,
			UnitPrice:    total,
			TotalPrice:   &total,
			Label:        g.loc.Message(i18n.MsgPriceLabelSingle, g.loc.FormatMoney(total)),
		}
	}

	if seesTotal(in.ViewerRole) {
		return Presentation{
			DisplayPrice: total,
			UnitPrice:    unit,
			TotalPrice:   &total,
			Label:        g.loc.Message(i18n.MsgPriceLabelTotal, g.loc.FormatMoney(total), in.RequiredUnits),
		}
	}

	if g.AssertUnitPriceIsNotTotal(DisplayCheck{DisplayPrice: unit, TotalPrice: total, RequiredUnits: in.RequiredUnits}) != nil {
		unit = UnitPrice(total, in.RequiredUnits, nil)
	}
	return Presentation{
		DisplayPrice: unit,
		UnitPrice:    unit,
		IsPerUnit:    true,
		Label:        g.loc.Message(i18n.MsgPriceLabelPerUnit, g.loc.FormatMoney(unit)),
	}
}

func seesTotal(role model.Role) bool {
	switch role {
	case model.RoleProducer, model.RoleCarrier, model.RoleAdmin:
		return true
	case model.RoleDriver, model.RoleAffiliatedDriver, model.RoleGuest:
		return false
	default:
		return false
	}
}
