package ctaapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redResponse = `{
	"ctatt": {
		"tmst": "2026-08-29T08:15:00",
		"errCd": "0",
		"errNm": null,
		"route": [{
			"@name": "red",
			"train": [
				{
					"rn": "417",
					"destSt": "30173",
					"destNm": "Howard",
					"trDr": "1",
					"nextStaId": "41220",
					"nextStpId": "30212",
					"nextStaNm": "Fullerton",
					"prdt": "2026-08-29T08:14:30",
					"arrT": "2026-08-29T08:16:30",
					"isApp": "1",
					"isDly": "0",
					"lat": "41.92",
					"lon": "-87.65",
					"heading": "358"
				},
				{
					"rn": "420",
					"destNm": "95th/Dan Ryan",
					"isApp": "0",
					"isDly": "1",
					"lat": "41.88",
					"lon": "-87.63",
					"heading": "180"
				}
			]
		}]
	}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL, "test-key", maxRetries, testLogger())
	c.RetryBase = time.Millisecond
	return c, srv
}

func TestFetchDecodesEnvelope(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, redResponse)
	}, 0)

	result, err := client.Fetch(context.Background(), "red")
	require.NoError(t, err)

	assert.Equal(t, []string{"red"}, gotQuery["rt"])
	assert.Equal(t, []string{"test-key"}, gotQuery["key"])
	assert.Equal(t, []string{"JSON"}, gotQuery["outputType"])

	assert.Equal(t, "red", result.Route)
	assert.Equal(t, "0", result.Envelope.CTATT.ErrorCode)
	require.Len(t, result.Envelope.CTATT.Routes, 1)
	assert.Len(t, result.Envelope.CTATT.Routes[0].Trains, 2)
	assert.JSONEq(t, redResponse, string(result.Raw))
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, redResponse)
	}, 2)

	result, err := client.Fetch(context.Background(), "red")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "red", result.Route)
}

func TestFetchExhaustsRetries(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}, 2)

	_, err := client.Fetch(context.Background(), "red")
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestTrainListSingleObjectQuirk(t *testing.T) {
	payload := `{
		"ctatt": {
			"errCd": "0",
			"route": [{
				"@name": "y",
				"train": {"rn": "101", "destNm": "Skokie"}
			}]
		}
	}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(payload), &env))
	require.Len(t, env.CTATT.Routes, 1)
	require.Len(t, env.CTATT.Routes[0].Trains, 1)
	assert.Equal(t, "101", env.CTATT.Routes[0].Trains[0].RunNumber)
}

func TestResultPositions(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(redResponse), &env))

	result := &Result{Route: "red", Envelope: env}
	positions := result.Positions()
	require.Len(t, positions, 2)

	first := positions[0]
	assert.Equal(t, "red:417", first.Key)
	assert.Equal(t, "red", first.Route)
	assert.Equal(t, "417", first.RunNumber)
	assert.Equal(t, "Howard", first.DestinationName)
	assert.Equal(t, "30212", first.NextStopID)
	assert.Equal(t, "Fullerton", first.NextStationName)
	assert.True(t, first.Approaching)
	assert.False(t, first.Delayed)
	assert.InDelta(t, 41.92, first.Lat, 1e-9)
	assert.InDelta(t, -87.65, first.Lon, 1e-9)
	assert.Equal(t, 358, first.Heading)
	assert.False(t, first.PredictedAt.IsZero())
	assert.False(t, first.ArrivalAt.IsZero())

	second := positions[1]
	assert.False(t, second.Approaching)
	assert.True(t, second.Delayed)
	assert.True(t, second.PredictedAt.IsZero())
}

func TestResultPositionsAPIError(t *testing.T) {
	payload := `{"ctatt": {"errCd": "101", "errNm": "Invalid API key"}}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(payload), &env))

	result := &Result{Route: "red", Envelope: env}
	assert.Nil(t, result.Positions())
}
