package gtfs

import (
	"context"
	"fmt"

	"github.com/jszwec/csvutil"

	"ctarail/internal/schedule"
	"ctarail/internal/store"
)

// TableFiles are the feed members the schedule derivation needs.
var TableFiles = []string{
	"calendar.txt",
	"routes.txt",
	"stops.txt",
	"stop_times.txt",
	"trips.txt",
}

// LoadTables decodes the five relations from the raw feed area. Columns not
// mapped by the row structs are ignored; a missing table is an error.
func LoadTables(ctx context.Context, st store.ObjectStore) (schedule.Tables, error) {
	var t schedule.Tables

	if err := loadTable(ctx, st, "calendar.txt", &t.Calendar); err != nil {
		return t, err
	}
	if err := loadTable(ctx, st, "routes.txt", &t.Routes); err != nil {
		return t, err
	}
	if err := loadTable(ctx, st, "stops.txt", &t.Stops); err != nil {
		return t, err
	}
	if err := loadTable(ctx, st, "stop_times.txt", &t.StopTimes); err != nil {
		return t, err
	}
	if err := loadTable(ctx, st, "trips.txt", &t.Trips); err != nil {
		return t, err
	}
	return t, nil
}

func loadTable[T any](ctx context.Context, st store.ObjectStore, name string, dest *[]T) error {
	data, err := st.Get(ctx, store.GTFSPrefix+name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := csvutil.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
