// Package schedule builds the expected CTA rail schedule from GTFS relations
// and answers analytical queries over it.
package schedule

import (
	"errors"
	"fmt"

	"ctarail/internal/domain"
)

var (
	// ErrMissingSource indicates one of the five GTFS relations was absent
	// or empty at derive time. Nothing is written in this case.
	ErrMissingSource = errors.New("missing source data")

	// ErrNoEffectiveDate indicates the calendar relation yields no usable
	// start_date, so the output cannot be partitioned.
	ErrNoEffectiveDate = errors.New("no effective date determinable")
)

// Tables holds the five GTFS relations loaded in full. Feed size is assumed
// to fit in memory; there is no streaming path.
type Tables struct {
	Calendar  []domain.Calendar
	Routes    []domain.Route
	Stops     []domain.Stop
	StopTimes []domain.StopTime
	Trips     []domain.Trip
}

// Derived is the result of one derivation: the joined schedule and the feed's
// effective date (minimum calendar start_date, YYYYMMDD).
type Derived struct {
	Rows          []domain.ScheduleRow
	EffectiveDate int
}

// Derive joins the five relations into the expected schedule.
//
// Routes are restricted to the eight rail lines, stops and stop-times to the
// rail platform id range. Calendar and trips are narrowed transitively: a trip
// whose route or service pattern did not survive produces no rows, and that is
// deliberate inner-join behavior, not an error. Row order is deterministic for
// identical inputs (trips in input order, stop visits in input order).
func Derive(t Tables) (*Derived, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	effectiveDate := 0
	for _, c := range t.Calendar {
		if c.StartDate > 0 && (effectiveDate == 0 || c.StartDate < effectiveDate) {
			effectiveDate = c.StartDate
		}
	}
	if effectiveDate == 0 {
		return nil, ErrNoEffectiveDate
	}

	routes := make(map[string]domain.Route)
	for _, r := range t.Routes {
		if domain.IsRailLine(r.LongName) {
			routes[r.ID] = r
		}
	}

	services := make(map[string]domain.Calendar, len(t.Calendar))
	for _, c := range t.Calendar {
		services[c.ServiceID] = c
	}

	stops := make(map[int]domain.Stop)
	for _, s := range t.Stops {
		if domain.IsRailStop(s.ID) {
			stops[s.ID] = s
		}
	}

	visits := make(map[string][]domain.StopTime)
	for _, st := range t.StopTimes {
		if domain.IsRailStop(st.StopID) {
			visits[st.TripID] = append(visits[st.TripID], st)
		}
	}

	var rows []domain.ScheduleRow
	for _, trip := range t.Trips {
		route, ok := routes[trip.RouteID]
		if !ok {
			continue
		}
		cal, ok := services[trip.ServiceID]
		if !ok {
			continue
		}
		for _, st := range visits[trip.TripID] {
			stop, ok := stops[st.StopID]
			if !ok {
				continue
			}
			rows = append(rows, domain.ScheduleRow{
				RouteID:       route.ID,
				RouteLongName: route.LongName,
				RouteColor:    route.Color,
				ServiceID:     trip.ServiceID,
				TripID:        trip.TripID,
				DirectionID:   int32(trip.DirectionID),
				Direction:     trip.Direction,
				Monday:        int32(cal.Monday),
				Tuesday:       int32(cal.Tuesday),
				Wednesday:     int32(cal.Wednesday),
				Thursday:      int32(cal.Thursday),
				Friday:        int32(cal.Friday),
				Saturday:      int32(cal.Saturday),
				Sunday:        int32(cal.Sunday),
				StartDate:     int32(cal.StartDate),
				EndDate:       int32(cal.EndDate),
				ArrivalTime:   st.ArrivalTime,
				DepartureTime: st.DepartureTime,
				StopID:        int32(st.StopID),
				StopSequence:  int32(st.StopSequence),
				StopName:      stop.Name,
			})
		}
	}

	return &Derived{Rows: rows, EffectiveDate: effectiveDate}, nil
}

func (t Tables) validate() error {
	switch {
	case len(t.Calendar) == 0:
		return fmt.Errorf("%w: calendar", ErrMissingSource)
	case len(t.Routes) == 0:
		return fmt.Errorf("%w: routes", ErrMissingSource)
	case len(t.Stops) == 0:
		return fmt.Errorf("%w: stops", ErrMissingSource)
	case len(t.StopTimes) == 0:
		return fmt.Errorf("%w: stop_times", ErrMissingSource)
	case len(t.Trips) == 0:
		return fmt.Errorf("%w: trips", ErrMissingSource)
	}
	return nil
}
