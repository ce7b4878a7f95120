package appointment

import (
	"github.com/embassygq/consular-api/internal/model"
)

// action names an appointment operation for authorization purposes.
type action string

const (
	actionView     action = "view"
	actionBook     action = "book"
	actionUpdate   action = "update"
	actionConfirm  action = "confirm"
	actionStart    action = "start"
	actionComplete action = "complete"
	actionCancel   action = "cancel"
	actionNoShow   action = "mark_no_show"
)

// allow is the single authorization decision point for appointment
// operations. Staff and admin actors may perform every action on any
// appointment; citizens are limited to booking, viewing, updating and
// cancelling their own.
func allow(actor model.Actor, act action, apt *model.Appointment) bool {
	if actor.Role.IsStaff() {
		return true
	}
	if actor.Role != model.RoleCitizen {
		return false
	}

	switch act {
	case actionBook:
		return true
	case actionView, actionUpdate, actionCancel:
		return apt != nil && apt.CitizenID == actor.CitizenID
	default:
		return false
	}
}
