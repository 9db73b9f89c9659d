package schedule

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ctarail/internal/domain"
)

// ServiceClass selects which day flags qualify a service pattern.
type ServiceClass string

const (
	Weekday  ServiceClass = "Weekday"
	Saturday ServiceClass = "Saturday"
	Sunday   ServiceClass = "Sunday"
)

// ParseServiceClass validates a caller-supplied schedule type.
func ParseServiceClass(s string) (ServiceClass, error) {
	switch ServiceClass(s) {
	case Weekday, Saturday, Sunday:
		return ServiceClass(s), nil
	}
	return "", fmt.Errorf("unknown schedule type %q", s)
}

// HourlyTrips is the number of trips whose first stop visit falls in an hour.
// The hour is taken straight from the HH:MM:SS string and can exceed 23 for
// post-midnight service.
type HourlyTrips struct {
	Hour         int `json:"hour"`
	TripsStarted int `json:"new_trips_started"`
}

// HourlyHeadway is the mean gap between consecutive arrivals at the same
// stop, bucketed on a 0-23 civil-time hour axis.
type HourlyHeadway struct {
	Hour        int     `json:"hour"`
	AvgMinutes  float64 `json:"avg_headway"`
	AvgFormated string  `json:"avg_headway_mmss"`
}

// LineRuns is the distinct scheduled trip count for one line and feed
// effective date.
type LineRuns struct {
	Line          string    `json:"line"`
	EffectiveDate time.Time `json:"effective_date"`
	HexCode       string    `json:"hex_code"`
	ScheduledRuns int       `json:"scheduled_runs"`
}

// FilterByService returns the working relation for a line and schedule type:
// rows whose service pattern runs at all under the selection. The weekday sum
// counts flags only to test >0; it is not a run count.
func FilterByService(rows []domain.ScheduleRow, line string, class ServiceClass) []domain.ScheduleRow {
	var out []domain.ScheduleRow
	for _, r := range rows {
		var runs int32
		switch class {
		case Weekday:
			runs = r.Monday + r.Tuesday + r.Wednesday + r.Thursday + r.Friday
		case Saturday:
			runs = r.Saturday
		case Sunday:
			runs = r.Sunday
		}
		if runs > 0 && r.RouteLongName == line {
			out = append(out, r)
		}
	}
	return out
}

// TripsPerHour counts trips by the hour of their first scheduled stop visit,
// ascending by hour. An empty relation yields an empty result.
func TripsPerHour(rows []domain.ScheduleRow) ([]HourlyTrips, error) {
	firstArrival := make(map[string]string)
	for _, r := range rows {
		if cur, ok := firstArrival[r.TripID]; !ok || r.ArrivalTime < cur {
			firstArrival[r.TripID] = r.ArrivalTime
		}
	}

	counts := make(map[int]int)
	for tripID, arrival := range firstArrival {
		hourPart, _, ok := strings.Cut(arrival, ":")
		if !ok {
			return nil, fmt.Errorf("trip %s: malformed arrival time %q", tripID, arrival)
		}
		hour, err := strconv.Atoi(hourPart)
		if err != nil {
			return nil, fmt.Errorf("trip %s: malformed arrival time %q: %w", tripID, arrival, err)
		}
		counts[hour]++
	}

	out := make([]HourlyTrips, 0, len(counts))
	for hour, n := range counts {
		out = append(out, HourlyTrips{Hour: hour, TripsStarted: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

// HourlyHeadways computes the mean gap between consecutive arrivals at the
// same stop, grouped by the wrapped hour of the later arrival. The first
// arrival at each stop contributes no sample.
func HourlyHeadways(rows []domain.ScheduleRow) ([]HourlyHeadway, error) {
	arrivals := make(map[int32][]int)
	for _, r := range rows {
		secs, err := clockSeconds(r.ArrivalTime)
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", r.StopID, err)
		}
		arrivals[r.StopID] = append(arrivals[r.StopID], secs)
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, secs := range arrivals {
		sort.Ints(secs)
		for i := 1; i < len(secs); i++ {
			hour := (secs[i] / 3600) % 24
			sums[hour] += float64(secs[i]-secs[i-1]) / 60.0
			counts[hour]++
		}
	}

	out := make([]HourlyHeadway, 0, len(sums))
	for hour, sum := range sums {
		mean := sum / float64(counts[hour])
		totalSeconds := int(math.Round(mean * 60))
		out = append(out, HourlyHeadway{
			Hour:        hour,
			AvgMinutes:  mean,
			AvgFormated: fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

// ScheduledRuns counts distinct trips per (line, effective date). An empty
// line selects all lines. Results are ordered by run count descending, then
// line and date for a stable order on ties.
func ScheduledRuns(rows []domain.ScheduleRow, line string) ([]LineRuns, error) {
	type key struct {
		line      string
		startDate int32
		color     string
	}
	trips := make(map[key]map[string]struct{})
	for _, r := range rows {
		if line != "" && r.RouteLongName != line {
			continue
		}
		k := key{line: r.RouteLongName, startDate: r.StartDate, color: r.RouteColor}
		if trips[k] == nil {
			trips[k] = make(map[string]struct{})
		}
		trips[k][r.TripID] = struct{}{}
	}

	out := make([]LineRuns, 0, len(trips))
	for k, ids := range trips {
		effective, err := time.Parse("20060102", fmt.Sprintf("%08d", k.startDate))
		if err != nil {
			return nil, fmt.Errorf("line %s: bad start_date %d: %w", k.line, k.startDate, err)
		}
		out = append(out, LineRuns{
			Line:          k.line,
			EffectiveDate: effective,
			HexCode:       "#" + k.color,
			ScheduledRuns: len(ids),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledRuns != out[j].ScheduledRuns {
			return out[i].ScheduledRuns > out[j].ScheduledRuns
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].EffectiveDate.Before(out[j].EffectiveDate)
	})
	return out, nil
}

// clockSeconds converts HH:MM:SS to elapsed seconds since service start.
// Hours past 23 stay unwrapped: "25:10:00" is 90600 seconds.
func clockSeconds(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", s, err)
	}
	return h*3600 + m*60 + sec, nil
}
