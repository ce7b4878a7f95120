package appointment

import (
	"time"

	"github.com/embassygq/consular-api/internal/model"
)

// generateTimeSlots produces the candidate grid for one day: back to
// back intervals of the requested duration starting at open, stopping
// before any interval would cross close. A remainder shorter than the
// duration is dropped.
func generateTimeSlots(open, close time.Time, duration time.Duration) []model.TimeSlot {
	if duration <= 0 || !open.Before(close) {
		return []model.TimeSlot{}
	}

	slots := []model.TimeSlot{}
	for start := open; !start.Add(duration).After(close); start = start.Add(duration) {
		slots = append(slots, model.TimeSlot{
			Start:           start,
			End:             start.Add(duration),
			DurationMinutes: int(duration / time.Minute),
		})
	}
	return slots
}

// conflictsWith reports whether the half-open interval [start, end)
// overlaps any appointment that still blocks its interval. Touching
// endpoints do not conflict.
func conflictsWith(start, end time.Time, existing []*model.Appointment) bool {
	for _, apt := range existing {
		if !apt.Active() {
			continue
		}
		if start.Before(apt.EndTime()) && end.After(apt.StartTime()) {
			return true
		}
	}
	return false
}

// filterAvailableSlots removes candidates that overlap a blocking
// appointment.
func filterAvailableSlots(candidates []model.TimeSlot, existing []*model.Appointment) []model.TimeSlot {
	available := []model.TimeSlot{}
	for _, slot := range candidates {
		if !conflictsWith(slot.Start, slot.End, existing) {
			available = append(available, slot)
		}
	}
	return available
}
