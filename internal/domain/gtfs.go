package domain

// RailLines is the fixed set of CTA rail line display names. Routes whose
// route_long_name is not in this list (buses, shuttles) never enter the
// expected schedule.
var RailLines = []string{
	"Red Line",
	"Purple Line",
	"Yellow Line",
	"Blue Line",
	"Pink Line",
	"Green Line",
	"Orange Line",
	"Brown Line",
}

// Rail platform stop_ids occupy [30000, 40000) in the CTA feed. Everything
// outside that range is a bus stop or a parent station.
const (
	RailStopMin = 30000
	RailStopMax = 40000
)

// IsRailLine reports whether name is one of the eight rail lines.
func IsRailLine(name string) bool {
	for _, l := range RailLines {
		if l == name {
			return true
		}
	}
	return false
}

// IsRailStop reports whether id falls in the rail platform range.
func IsRailStop(id int) bool {
	return id >= RailStopMin && id < RailStopMax
}

// Calendar represents one service pattern from calendar.txt. Day flags are
// 0/1 as published; dates are 8-digit YYYYMMDD integers.
type Calendar struct {
	ServiceID string `csv:"service_id"`
	Monday    int    `csv:"monday"`
	Tuesday   int    `csv:"tuesday"`
	Wednesday int    `csv:"wednesday"`
	Thursday  int    `csv:"thursday"`
	Friday    int    `csv:"friday"`
	Saturday  int    `csv:"saturday"`
	Sunday    int    `csv:"sunday"`
	StartDate int    `csv:"start_date"`
	EndDate   int    `csv:"end_date"`
}

// Route represents one row of routes.txt.
type Route struct {
	ID       string `csv:"route_id"`
	LongName string `csv:"route_long_name"`
	Color    string `csv:"route_color"`
}

// Stop represents one row of stops.txt.
type Stop struct {
	ID   int    `csv:"stop_id"`
	Name string `csv:"stop_name"`
}

// StopTime represents one scheduled visit of a trip to a stop. Times are
// HH:MM:SS strings where the hour may exceed 23 for post-midnight service;
// they must never be parsed as calendar times.
type StopTime struct {
	TripID        string `csv:"trip_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	StopID        int    `csv:"stop_id"`
	StopSequence  int    `csv:"stop_sequence"`
}

// Trip links a route to a service pattern. The direction label column is
// present in some feed publishes and absent in others.
type Trip struct {
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	TripID      string `csv:"trip_id"`
	DirectionID int    `csv:"direction_id"`
	Direction   string `csv:"direction"`
}

// ScheduleRow is one (trip, stop-visit) pair of the expected schedule: the
// inner join of Route, Trip, Calendar, StopTime and Stop restricted to rail
// lines and rail platforms.
type ScheduleRow struct {
	RouteID       string `parquet:"route_id" json:"route_id"`
	RouteLongName string `parquet:"route_long_name" json:"route_long_name"`
	RouteColor    string `parquet:"route_color" json:"route_color"`
	ServiceID     string `parquet:"service_id" json:"service_id"`
	TripID        string `parquet:"trip_id" json:"trip_id"`
	DirectionID   int32  `parquet:"direction_id" json:"direction_id"`
	Direction     string `parquet:"direction" json:"direction"`
	Monday        int32  `parquet:"monday" json:"monday"`
	Tuesday       int32  `parquet:"tuesday" json:"tuesday"`
	Wednesday     int32  `parquet:"wednesday" json:"wednesday"`
	Thursday      int32  `parquet:"thursday" json:"thursday"`
	Friday        int32  `parquet:"friday" json:"friday"`
	Saturday      int32  `parquet:"saturday" json:"saturday"`
	Sunday        int32  `parquet:"sunday" json:"sunday"`
	StartDate     int32  `parquet:"start_date" json:"start_date"`
	EndDate       int32  `parquet:"end_date" json:"end_date"`
	ArrivalTime   string `parquet:"arrival_time" json:"arrival_time"`
	DepartureTime string `parquet:"departure_time" json:"departure_time"`
	StopID        int32  `parquet:"stop_id" json:"stop_id"`
	StopSequence  int32  `parquet:"stop_sequence" json:"stop_sequence"`
	StopName      string `parquet:"stop_name" json:"stop_name"`
}
