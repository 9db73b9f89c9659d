package domain

import "time"

// TrackerRoutes are the route slugs accepted by the Train Tracker positions
// API, one per rail line.
var TrackerRoutes = []string{"blue", "brn", "g", "org", "p", "pink", "red", "y"}

// TrainPosition is one live train from a Train Tracker poll.
type TrainPosition struct {
	Key             string    `json:"key"`
	Route           string    `json:"route"`
	RunNumber       string    `json:"runNumber"`
	DestinationName string    `json:"destinationName"`
	NextStopID      string    `json:"nextStopId"`
	NextStationName string    `json:"nextStationName"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	Heading         int       `json:"heading"`
	Approaching     bool      `json:"approaching"`
	Delayed         bool      `json:"delayed"`
	PredictedAt     time.Time `json:"predictedAt"`
	ArrivalAt       time.Time `json:"arrivalAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
