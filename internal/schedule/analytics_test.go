package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctarail/internal/domain"
)

func weekdayRow(trip, arrival string, stop int32) domain.ScheduleRow {
	return domain.ScheduleRow{
		RouteID:       "RED",
		RouteLongName: "Red Line",
		RouteColor:    "C60C30",
		ServiceID:     "WK",
		TripID:        trip,
		Monday:        1,
		Tuesday:       1,
		Wednesday:     1,
		Thursday:      1,
		Friday:        1,
		StartDate:     20260101,
		EndDate:       20261231,
		ArrivalTime:   arrival,
		StopID:        stop,
	}
}

func TestParseServiceClass(t *testing.T) {
	for _, valid := range []string{"Weekday", "Saturday", "Sunday"} {
		class, err := ParseServiceClass(valid)
		require.NoError(t, err)
		assert.Equal(t, ServiceClass(valid), class)
	}

	_, err := ParseServiceClass("weekday")
	assert.Error(t, err)
	_, err = ParseServiceClass("Holiday")
	assert.Error(t, err)
}

func TestFilterByService(t *testing.T) {
	saturdayOnly := weekdayRow("T2", "09:00:00", 30010)
	saturdayOnly.Monday, saturdayOnly.Tuesday, saturdayOnly.Wednesday = 0, 0, 0
	saturdayOnly.Thursday, saturdayOnly.Friday = 0, 0
	saturdayOnly.Saturday = 1

	otherLine := weekdayRow("T3", "09:00:00", 30010)
	otherLine.RouteLongName = "Blue Line"

	rows := []domain.ScheduleRow{
		weekdayRow("T1", "08:00:00", 30010),
		saturdayOnly,
		otherLine,
	}

	weekday := FilterByService(rows, "Red Line", Weekday)
	require.Len(t, weekday, 1)
	assert.Equal(t, "T1", weekday[0].TripID)

	saturday := FilterByService(rows, "Red Line", Saturday)
	require.Len(t, saturday, 1)
	assert.Equal(t, "T2", saturday[0].TripID)

	assert.Empty(t, FilterByService(rows, "Red Line", Sunday))
	assert.Empty(t, FilterByService(rows, "Orange Line", Weekday))
}

func TestTripsPerHour(t *testing.T) {
	rows := []domain.ScheduleRow{
		// T1 starts at 08:15; the later visit must not count again.
		weekdayRow("T1", "08:15:00", 30010),
		weekdayRow("T1", "08:40:00", 30020),
		weekdayRow("T2", "08:45:00", 30010),
		// Post-midnight service keeps its unwrapped hour.
		weekdayRow("T3", "24:05:00", 30010),
	}

	hours, err := TripsPerHour(rows)
	require.NoError(t, err)

	assert.Equal(t, []HourlyTrips{
		{Hour: 8, TripsStarted: 2},
		{Hour: 24, TripsStarted: 1},
	}, hours)

	total := 0
	for _, h := range hours {
		total += h.TripsStarted
	}
	assert.Equal(t, 3, total)
}

func TestTripsPerHourLexicographicFirstVisit(t *testing.T) {
	rows := []domain.ScheduleRow{
		weekdayRow("T1", "10:30:00", 30020),
		weekdayRow("T1", "09:55:00", 30010),
	}

	hours, err := TripsPerHour(rows)
	require.NoError(t, err)
	assert.Equal(t, []HourlyTrips{{Hour: 9, TripsStarted: 1}}, hours)
}

func TestTripsPerHourEmpty(t *testing.T) {
	hours, err := TripsPerHour(nil)
	require.NoError(t, err)
	assert.Empty(t, hours)
}

func TestTripsPerHourMalformedArrival(t *testing.T) {
	_, err := TripsPerHour([]domain.ScheduleRow{weekdayRow("T1", "0815", 30010)})
	assert.Error(t, err)
}

func TestHourlyHeadways(t *testing.T) {
	rows := []domain.ScheduleRow{
		weekdayRow("T1", "08:00:00", 30010),
		weekdayRow("T2", "08:10:00", 30010),
		weekdayRow("T3", "08:25:00", 30010),
	}

	headways, err := HourlyHeadways(rows)
	require.NoError(t, err)
	require.Len(t, headways, 1)

	// Gaps of 10 and 15 minutes average to 12.5, rendered as 12:30.
	assert.Equal(t, 8, headways[0].Hour)
	assert.InDelta(t, 12.5, headways[0].AvgMinutes, 1e-9)
	assert.Equal(t, "12:30", headways[0].AvgFormated)
}

func TestHourlyHeadwaysSingleArrivalNoSample(t *testing.T) {
	rows := []domain.ScheduleRow{
		weekdayRow("T1", "08:00:00", 30010),
		weekdayRow("T1", "08:05:00", 30020),
	}

	headways, err := HourlyHeadways(rows)
	require.NoError(t, err)
	assert.Empty(t, headways)
}

func TestHourlyHeadwaysUnsortedArrivals(t *testing.T) {
	rows := []domain.ScheduleRow{
		weekdayRow("T2", "08:10:00", 30010),
		weekdayRow("T1", "08:00:00", 30010),
	}

	headways, err := HourlyHeadways(rows)
	require.NoError(t, err)
	require.Len(t, headways, 1)
	assert.InDelta(t, 10.0, headways[0].AvgMinutes, 1e-9)
	assert.Equal(t, "00:10", headways[0].AvgFormated)
}

func TestHourlyHeadwaysWrapsPostMidnightHours(t *testing.T) {
	rows := []domain.ScheduleRow{
		weekdayRow("T1", "24:10:00", 30010),
		weekdayRow("T2", "24:30:00", 30010),
	}

	headways, err := HourlyHeadways(rows)
	require.NoError(t, err)
	require.Len(t, headways, 1)

	// The gap is computed on unwrapped seconds but lands in civil hour 0.
	assert.Equal(t, 0, headways[0].Hour)
	assert.InDelta(t, 20.0, headways[0].AvgMinutes, 1e-9)
}

func TestHourlyHeadwaysMalformedArrival(t *testing.T) {
	_, err := HourlyHeadways([]domain.ScheduleRow{weekdayRow("T1", "08:00", 30010)})
	assert.Error(t, err)
}

func TestScheduledRuns(t *testing.T) {
	blue := weekdayRow("B1", "06:00:00", 30010)
	blue.RouteLongName = "Blue Line"
	blue.RouteColor = "00A1DE"

	rows := []domain.ScheduleRow{
		weekdayRow("T1", "06:00:00", 30010),
		weekdayRow("T1", "06:05:00", 30020), // same trip, must not double count
		weekdayRow("T2", "07:00:00", 30010),
		blue,
	}

	runs, err := ScheduledRuns(rows, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "Red Line", runs[0].Line)
	assert.Equal(t, 2, runs[0].ScheduledRuns)
	assert.Equal(t, "#C60C30", runs[0].HexCode)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), runs[0].EffectiveDate)

	assert.Equal(t, "Blue Line", runs[1].Line)
	assert.Equal(t, 1, runs[1].ScheduledRuns)
	assert.Equal(t, "#00A1DE", runs[1].HexCode)
}

func TestScheduledRunsLineFilter(t *testing.T) {
	blue := weekdayRow("B1", "06:00:00", 30010)
	blue.RouteLongName = "Blue Line"

	runs, err := ScheduledRuns([]domain.ScheduleRow{weekdayRow("T1", "06:00:00", 30010), blue}, "Blue Line")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Blue Line", runs[0].Line)
}

func TestScheduledRunsSeparatesEffectiveDates(t *testing.T) {
	older := weekdayRow("T1", "06:00:00", 30010)
	older.StartDate = 20251001
	newer := weekdayRow("T1", "06:00:00", 30010)
	newer.StartDate = 20260101

	runs, err := ScheduledRuns([]domain.ScheduleRow{older, newer}, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), runs[0].EffectiveDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), runs[1].EffectiveDate)
}

func TestScheduledRunsEmpty(t *testing.T) {
	runs, err := ScheduledRuns(nil, "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
