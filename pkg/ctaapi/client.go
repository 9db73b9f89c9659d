// Package ctaapi is a client for the CTA Train Tracker positions API.
package ctaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ctarail/internal/domain"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger

	// RetryBase is the backoff unit: attempt n waits RetryBase << n.
	RetryBase time.Duration
}

func New(baseURL, apiKey string, maxRetries int, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries: maxRetries,
		logger:     logger.With("component", "ctaapi"),
		RetryBase:  time.Second,
	}
}

// Envelope is the ctatt response wrapper.
type Envelope struct {
	CTATT struct {
		Timestamp   string  `json:"tmst"`
		ErrorCode   string  `json:"errCd"`
		ErrorNumber *string `json:"errNm"`
		Routes      []struct {
			Name   string    `json:"@name"`
			Trains trainList `json:"train"`
		} `json:"route"`
	} `json:"ctatt"`
}

// Train is one live train as reported by the API. All fields arrive as
// strings.
type Train struct {
	RunNumber           string `json:"rn"`
	DestinationStopID   string `json:"destSt"`
	DestinationName     string `json:"destNm"`
	Direction           string `json:"trDr"`
	NextStationID       string `json:"nextStaId"`
	NextStopID          string `json:"nextStpId"`
	NextStationName     string `json:"nextStaNm"`
	PredictionGenerated string `json:"prdt"`
	PredictedArrival    string `json:"arrT"`
	IsApproaching       string `json:"isApp"`
	IsDelayed           string `json:"isDly"`
	Lat                 string `json:"lat"`
	Lon                 string `json:"lon"`
	Heading             string `json:"heading"`
}

// trainList tolerates the API's single-train quirk: a route with one train
// serializes it as an object, not a one-element array.
type trainList []Train

func (t *trainList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var single Train
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*t = trainList{single}
		return nil
	}
	var many []Train
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = many
	return nil
}

// Result is one successful poll of one route.
type Result struct {
	Route    string
	Raw      json.RawMessage
	Envelope Envelope
}

// Fetch polls one route slug with per-request retry and exponential backoff.
func (c *Client) Fetch(ctx context.Context, route string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.RetryBase << (attempt - 1)
			c.logger.Warn("request failed, retrying",
				"route", route,
				"attempt", attempt,
				"max_attempts", c.maxRetries+1,
				"wait", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		result, err := c.fetchOnce(ctx, route)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", route, c.maxRetries+1, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, route string) (*Result, error) {
	params := url.Values{}
	params.Set("rt", route)
	params.Set("key", c.apiKey)
	params.Set("outputType", "JSON")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &Result{Route: route, Raw: body, Envelope: env}, nil
}

// Positions converts a poll result into typed live positions. A non-zero
// API error code yields no positions.
func (r *Result) Positions() []*domain.TrainPosition {
	if r.Envelope.CTATT.ErrorCode != "" && r.Envelope.CTATT.ErrorCode != "0" {
		return nil
	}

	loc, _ := time.LoadLocation("America/Chicago")
	var positions []*domain.TrainPosition
	for _, route := range r.Envelope.CTATT.Routes {
		for _, t := range route.Trains {
			if t.RunNumber == "" {
				continue
			}
			p := &domain.TrainPosition{
				Key:             route.Name + ":" + t.RunNumber,
				Route:           route.Name,
				RunNumber:       t.RunNumber,
				DestinationName: t.DestinationName,
				NextStopID:      t.NextStopID,
				NextStationName: t.NextStationName,
				Approaching:     t.IsApproaching == "1",
				Delayed:         t.IsDelayed == "1",
			}
			p.Lat = parseFloat(t.Lat)
			p.Lon = parseFloat(t.Lon)
			p.Heading = parseInt(t.Heading)
			p.PredictedAt = parseClock(t.PredictionGenerated, loc)
			p.ArrivalAt = parseClock(t.PredictedArrival, loc)
			positions = append(positions, p)
		}
	}
	return positions
}

func parseClock(s string, loc *time.Location) time.Time {
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
