package gtfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctarail/internal/store"
)

func seedFeed(t *testing.T, st store.ObjectStore) {
	t.Helper()
	ctx := context.Background()

	files := map[string]string{
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"X,1,1,1,1,1,0,0,20260101,20261231\n",
		// route_type is present in the real feed but unmapped.
		"routes.txt": "route_id,route_short_name,route_long_name,route_type,route_color\n" +
			"RED,Red,Red Line,1,C60C30\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"30010,Grand,41.891,-87.628\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:15:00,08:15:30,30010,1\n",
		"trips.txt": "route_id,service_id,trip_id,direction_id,direction\n" +
			"RED,X,T1,1,North\n",
	}
	for name, content := range files {
		require.NoError(t, st.Put(ctx, store.GTFSPrefix+name, []byte(content)))
	}
}

func TestLoadTables(t *testing.T) {
	st, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedFeed(t, st)

	tables, err := LoadTables(context.Background(), st)
	require.NoError(t, err)

	require.Len(t, tables.Calendar, 1)
	cal := tables.Calendar[0]
	assert.Equal(t, "X", cal.ServiceID)
	assert.Equal(t, 1, cal.Monday)
	assert.Equal(t, 0, cal.Saturday)
	assert.Equal(t, 20260101, cal.StartDate)
	assert.Equal(t, 20261231, cal.EndDate)

	require.Len(t, tables.Routes, 1)
	assert.Equal(t, "Red Line", tables.Routes[0].LongName)
	assert.Equal(t, "C60C30", tables.Routes[0].Color)

	require.Len(t, tables.Stops, 1)
	assert.Equal(t, 30010, tables.Stops[0].ID)
	assert.Equal(t, "Grand", tables.Stops[0].Name)

	require.Len(t, tables.StopTimes, 1)
	assert.Equal(t, "08:15:00", tables.StopTimes[0].ArrivalTime)
	assert.Equal(t, 30010, tables.StopTimes[0].StopID)

	require.Len(t, tables.Trips, 1)
	assert.Equal(t, "T1", tables.Trips[0].TripID)
	assert.Equal(t, 1, tables.Trips[0].DirectionID)
}

func TestLoadTablesMissingFile(t *testing.T) {
	st, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedFeed(t, st)
	require.NoError(t, st.Delete(context.Background(), store.GTFSPrefix+"stop_times.txt"))

	_, err = LoadTables(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop_times.txt")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
