package matrix

import "github.com/Anthonyboth/agriroute-connect-sub007/internal/model"

// Rule is one row of the action table: the statuses in which an action is
// offered and the roles that may perform it there.
type Rule struct {
	Action   model.Action
	Statuses []model.FreightStatus
	Roles    []model.Role
}

var (
	haulers    = []model.Role{model.RoleDriver, model.RoleAffiliatedDriver, model.RoleCarrier}
	shippers   = []model.Role{model.RoleProducer, model.RoleAdmin}
	payers     = []model.Role{model.RoleProducer, model.RoleCarrier}
	drivers    = []model.Role{model.RoleDriver, model.RoleAffiliatedDriver}
	cancellers = []model.Role{model.RoleProducer, model.RoleCarrier, model.RoleAdmin}
	raters     = []model.Role{model.RoleProducer, model.RoleDriver, model.RoleAffiliatedDriver, model.RoleCarrier}

	openStatuses = []model.FreightStatus{
		model.FreightStatusNew,
		model.FreightStatusApproved,
		model.FreightStatusOpen,
		model.FreightStatusAccepted,
		model.FreightStatusLoading,
		model.FreightStatusLoaded,
		model.FreightStatusInTransit,
		model.FreightStatusDeliveredPendingConfirmation,
		model.FreightStatusDelivered,
	}
)

func at(statuses ...model.FreightStatus) []model.FreightStatus { return statuses }

var table = []Rule{
	{Action: model.ActionApprove, Statuses: at(model.FreightStatusNew), Roles: []model.Role{model.RoleAdmin}},
	{Action: model.ActionPublish, Statuses: at(model.FreightStatusApproved), Roles: shippers},
	{Action: model.ActionAccept, Statuses: at(model.FreightStatusOpen), Roles: haulers},
	{Action: model.ActionStartLoading, Statuses: at(model.FreightStatusAccepted), Roles: haulers},
	{Action: model.ActionFinishLoading, Statuses: at(model.FreightStatusLoading), Roles: haulers},
	{Action: model.ActionStartTransit, Statuses: at(model.FreightStatusLoaded), Roles: haulers},
	{Action: model.ActionReportDelivery, Statuses: at(model.FreightStatusInTransit), Roles: haulers},
	{Action: model.ActionConfirmDelivery, Statuses: at(model.FreightStatusDeliveredPendingConfirmation), Roles: shippers},
	{Action: model.ActionCreatePayment, Statuses: at(model.FreightStatusDelivered), Roles: payers},
	{Action: model.ActionMarkPaid, Statuses: at(model.FreightStatusDelivered), Roles: payers},
	{Action: model.ActionConfirmPayment, Statuses: at(model.FreightStatusDelivered), Roles: drivers},
	{Action: model.ActionComplete, Statuses: at(model.FreightStatusDelivered), Roles: shippers},
	{Action: model.ActionCancel, Statuses: openStatuses, Roles: cancellers},
	{Action: model.ActionRate, Statuses: at(model.FreightStatusCompleted), Roles: raters},
}

// Rules returns a copy of the action table.
func Rules() []Rule {
	out := make([]Rule, len(table))
	for i, r := range table {
		out[i] = Rule{
			Action:   r.Action,
			Statuses: append([]model.FreightStatus(nil), r.Statuses...),
			Roles:    append([]model.Role(nil), r.Roles...),
		}
	}
	return out
}
