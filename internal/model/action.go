package model

// Action is a user-triggerable operation on a freight or service request.
type Action string

const (
	ActionApprove         Action = "APPROVE"
	ActionPublish         Action = "PUBLISH"
	ActionAccept          Action = "ACCEPT"
	ActionStartLoading    Action = "START_LOADING"
	ActionFinishLoading   Action = "FINISH_LOADING"
	ActionStartTransit    Action = "START_TRANSIT"
	ActionReportDelivery  Action = "REPORT_DELIVERY"
	ActionConfirmDelivery Action = "CONFIRM_DELIVERY"
	ActionCreatePayment   Action = "CREATE_PAYMENT"
	ActionMarkPaid        Action = "MARK_PAID"
	ActionConfirmPayment  Action = "CONFIRM_PAYMENT"
	ActionComplete        Action = "COMPLETE"
	ActionCancel          Action = "CANCEL"
	ActionRate            Action = "RATE"

	ActionDepart        Action = "DEPART"
	ActionStartService  Action = "START_SERVICE"
	ActionFinishService Action = "FINISH_SERVICE"
)

// FreightActions is the closed action vocabulary for rural freights.
func FreightActions() []Action {
	return []Action{
		ActionApprove,
		ActionPublish,
		ActionAccept,
		ActionStartLoading,
		ActionFinishLoading,
		ActionStartTransit,
		ActionReportDelivery,
		ActionConfirmDelivery,
		ActionCreatePayment,
		ActionMarkPaid,
		ActionConfirmPayment,
		ActionComplete,
		ActionCancel,
		ActionRate,
	}
}

func ServiceActions() []Action {
	return []Action{
		ActionAccept,
		ActionDepart,
		ActionStartService,
		ActionFinishService,
		ActionCancel,
		ActionRate,
	}
}

// TouchesMoney reports whether the action moves or acknowledges money.
func (a Action) TouchesMoney() bool {
	switch a {
	case ActionCreatePayment, ActionMarkPaid, ActionConfirmPayment:
		return true
	default:
		return false
	}
}

func ParseFreightAction(raw string) (Action, bool) {
	for _, a := range FreightActions() {
		if string(a) == raw {
			return a, true
		}
	}
	return "", false
}

func ParseServiceAction(raw string) (Action, bool) {
	for _, a := range ServiceActions() {
		if string(a) == raw {
			return a, true
		}
	}
	return "", false
}
