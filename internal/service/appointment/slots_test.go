package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embassygq/consular-api/internal/model"
)

func day(hour, min int) time.Time {
	return time.Date(2026, 9, 15, hour, min, 0, 0, time.UTC)
}

func blockedAppointment(start time.Time, minutes int, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		CitizenID:       uuid.New(),
		ScheduledAt:     start,
		DurationMinutes: minutes,
		Status:          status,
	}
}

func TestGenerateTimeSlots(t *testing.T) {
	tests := []struct {
		name     string
		open     time.Time
		close    time.Time
		duration time.Duration
		want     int
	}{
		{"standard office day", day(9, 0), day(17, 0), 30 * time.Minute, 16},
		{"hour slots", day(9, 0), day(17, 0), time.Hour, 8},
		{"remainder dropped", day(9, 0), day(17, 0), 45 * time.Minute, 10},
		{"duration longer than day", day(9, 0), day(17, 0), 9 * time.Hour, 0},
		{"open equals close", day(9, 0), day(9, 0), 30 * time.Minute, 0},
		{"zero duration", day(9, 0), day(17, 0), 0, 0},
		{"negative duration", day(9, 0), day(17, 0), -time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := generateTimeSlots(tt.open, tt.close, tt.duration)
			assert.Len(t, slots, tt.want)
		})
	}
}

func TestGenerateTimeSlots_Contiguous(t *testing.T) {
	slots := generateTimeSlots(day(9, 0), day(17, 0), 30*time.Minute)
	require.Len(t, slots, 16)

	assert.Equal(t, day(9, 0), slots[0].Start)
	assert.Equal(t, day(17, 0), slots[len(slots)-1].End)

	for i := 1; i < len(slots); i++ {
		assert.Equal(t, slots[i-1].End, slots[i].Start, "slot %d must start where slot %d ends", i, i-1)
	}
	for _, s := range slots {
		assert.Equal(t, 30, s.DurationMinutes)
		assert.False(t, s.End.After(day(17, 0)), "slot %v must not cross closing time", s.Start)
	}
}

func TestGenerateTimeSlots_PairwiseDisjoint(t *testing.T) {
	slots := generateTimeSlots(day(9, 0), day(17, 0), 45*time.Minute)
	for i := range slots {
		for j := range slots {
			if i == j {
				continue
			}
			assert.False(t, slots[i].Overlaps(slots[j].Start, slots[j].End),
				"slots %d and %d overlap", i, j)
		}
	}
}

func TestConflictsWith(t *testing.T) {
	booked := []*model.Appointment{
		blockedAppointment(day(10, 0), 30, model.AppointmentStatusScheduled),
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical interval", day(10, 0), day(10, 30), true},
		{"candidate contains booked", day(9, 30), day(11, 0), true},
		{"booked contains candidate", day(10, 10), day(10, 20), true},
		{"overlaps booked start", day(9, 45), day(10, 15), true},
		{"overlaps booked end", day(10, 15), day(10, 45), true},
		{"ends where booked starts", day(9, 30), day(10, 0), false},
		{"starts where booked ends", day(10, 30), day(11, 0), false},
		{"clearly before", day(9, 0), day(9, 30), false},
		{"clearly after", day(11, 0), day(11, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conflictsWith(tt.start, tt.end, booked))
		})
	}
}

func TestConflictsWith_ReleasedStatusesIgnored(t *testing.T) {
	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	} {
		existing := []*model.Appointment{blockedAppointment(day(10, 0), 30, status)}
		assert.False(t, conflictsWith(day(10, 0), day(10, 30), existing),
			"%s appointment must not block its interval", status)
	}

	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusScheduled,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
	} {
		existing := []*model.Appointment{blockedAppointment(day(10, 0), 30, status)}
		assert.True(t, conflictsWith(day(10, 0), day(10, 30), existing),
			"%s appointment must block its interval", status)
	}
}

func TestFilterAvailableSlots(t *testing.T) {
	candidates := generateTimeSlots(day(9, 0), day(17, 0), 30*time.Minute)
	existing := []*model.Appointment{
		blockedAppointment(day(10, 0), 30, model.AppointmentStatusConfirmed),
	}

	available := filterAvailableSlots(candidates, existing)
	require.Len(t, available, 15)
	for _, s := range available {
		assert.NotEqual(t, day(10, 0), s.Start)
	}
}

func TestFilterAvailableSlots_LongerAppointmentBlocksMultipleSlots(t *testing.T) {
	candidates := generateTimeSlots(day(9, 0), day(17, 0), 30*time.Minute)
	existing := []*model.Appointment{
		blockedAppointment(day(10, 0), 90, model.AppointmentStatusScheduled),
	}

	available := filterAvailableSlots(candidates, existing)
	assert.Len(t, available, 13)
	for _, s := range available {
		assert.False(t, s.Overlaps(day(10, 0), day(11, 30)))
	}
}

func TestFilterAvailableSlots_EmptyDay(t *testing.T) {
	candidates := generateTimeSlots(day(9, 0), day(17, 0), 30*time.Minute)
	available := filterAvailableSlots(candidates, nil)
	assert.Equal(t, candidates, available)
}
