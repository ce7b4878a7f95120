package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embassygq/consular-api/internal/model"
)

func TestAppointmentRangeQuery_ExcludedStatusesExpand(t *testing.T) {
	start := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query, args, err := appointmentRangeQuery(start, end, []model.AppointmentStatus{
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	})
	require.NoError(t, err)

	// every argument must have a matching bindvar
	assert.Equal(t, len(args), strings.Count(query, "?"))
	require.Len(t, args, 4)
	assert.Equal(t, start, args[0])
	assert.Equal(t, end, args[1])
	assert.Equal(t, "cancelled", args[2])
	assert.Equal(t, "no_show", args[3])

	rebound := sqlx.Rebind(sqlx.DOLLAR, query)
	assert.Contains(t, rebound, "status NOT IN ($3, $4)")
	assert.NotContains(t, rebound, "?")
}

func TestAppointmentRangeQuery_NoExclusions(t *testing.T) {
	start := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query, args, err := appointmentRangeQuery(start, end, nil)
	require.NoError(t, err)

	assert.Equal(t, len(args), strings.Count(query, "?"))
	require.Len(t, args, 2)
	assert.NotContains(t, query, "NOT IN")
	assert.Contains(t, query, "ORDER BY scheduled_at ASC")
}
