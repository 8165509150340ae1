package service

import (
	"github.com/google/uuid"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/guard"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pricing"
)

// ActionView is one button the caller may be shown. Disabled actions carry
// the localized reason they cannot run yet.
type ActionView struct {
	Action  string `json:"action"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

type ActionsView struct {
	ID          uuid.UUID    `json:"id"`
	Status      string       `json:"status"`
	StatusLabel string       `json:"status_label"`
	Price       *PriceView   `json:"price,omitempty"`
	Actions     []ActionView `json:"actions"`
	SafeMode    bool         `json:"safe_mode"`
	Message     string       `json:"message,omitempty"`
}

// PriceView is the wire form of a price presentation. Total is omitted for
// viewers who only see their own truck's share.
type PriceView struct {
	Label        string  `json:"label"`
	DisplayPrice string  `json:"display_price"`
	UnitPrice    string  `json:"unit_price"`
	IsPerUnit    bool    `json:"is_per_unit"`
	TotalPrice   *string `json:"total_price,omitempty"`
}

func NewPriceView(p pricing.Presentation) *PriceView {
	v := &PriceView{
		Label:        p.Label,
		DisplayPrice: p.DisplayPrice.StringFixed(2),
		UnitPrice:    p.UnitPrice.StringFixed(2),
		IsPerUnit:    p.IsPerUnit,
	}
	if p.TotalPrice != nil {
		total := p.TotalPrice.StringFixed(2)
		v.TotalPrice = &total
	}
	return v
}

func actionView(action, label string, res guard.Result) ActionView {
	v := ActionView{Action: action, Label: label, Enabled: res.Allowed}
	if !res.Allowed {
		v.Reason = res.Reason
	}
	return v
}
