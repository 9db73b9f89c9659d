package ingestor

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jszwec/csvutil"

	"ctarail/internal/store"
	"ctarail/pkg/ctaapi"
)

// TrainRecord is one flattened train observation from a raw snapshot,
// written to the processed CSV. API values stay as published.
type TrainRecord struct {
	IngestionTimestamp     string `csv:"ingestion_timestamp"`
	CurrentTimestamp       string `csv:"current_timestamp"`
	ErrorCode              string `csv:"error_code"`
	ErrorNumber            string `csv:"error_number"`
	RouteName              string `csv:"route_name"`
	RunNumber              string `csv:"run_number"`
	DestinationStationID   string `csv:"destination_station_id"`
	DestinationStationName string `csv:"destination_station_name"`
	TrainDirection         string `csv:"train_direction"`
	NextStationID          string `csv:"next_station_id"`
	NextStopID             string `csv:"next_stop_id"`
	NextStationName        string `csv:"next_station_name"`
	PredictionTimestamp    string `csv:"prediction_timestamp"`
	PredictedArrival       string `csv:"predicted_arrival"`
	IsApproaching          string `csv:"is_approaching"`
	IsDelayed              string `csv:"is_delayed"`
}

// ProcessRawLocations flattens every raw snapshot of one UTC day into a
// single CSV artifact. Lines that fail to decode are skipped and counted;
// store errors propagate.
func ProcessRawLocations(ctx context.Context, st store.ObjectStore, day time.Time, logger *slog.Logger) (string, error) {
	logger = logger.With("component", "location_processor")
	partition := PartitionKey(day.UTC())

	keys, err := st.List(ctx, partition)
	if err != nil {
		return "", err
	}
	logger.Info("processing raw partition", "partition", partition, "files", len(keys))

	var records []TrainRecord
	skipped := 0
	for _, key := range keys {
		data, err := st.Get(ctx, key)
		if err != nil {
			return "", err
		}
		fileRecords, fileSkipped, err := flattenSnapshotFile(data)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		records = append(records, fileRecords...)
		skipped += fileSkipped
	}

	out, err := csvutil.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode train data: %w", err)
	}

	outKey := fmt.Sprintf("%s%s.csv", store.TrainDataPrefix, day.UTC().Format("2006-01-02"))
	if err := st.Put(ctx, outKey, out); err != nil {
		return "", err
	}

	logger.Info("raw partition processed",
		"records", len(records),
		"skipped_lines", skipped,
		"artifact", outKey,
	)
	return outKey, nil
}

func flattenSnapshotFile(data []byte) ([]TrainRecord, int, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	defer gz.Close()

	var records []TrainRecord
	skipped := 0

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var snap struct {
			SnapshotID string            `json:"snapshot_id"`
			Timestamp  string            `json:"timestamp"`
			Data       []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(line, &snap); err != nil {
			skipped++
			continue
		}

		for _, raw := range snap.Data {
			var env ctaapi.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				skipped++
				continue
			}
			errNumber := ""
			if env.CTATT.ErrorNumber != nil {
				errNumber = *env.CTATT.ErrorNumber
			}
			for _, route := range env.CTATT.Routes {
				for _, t := range route.Trains {
					records = append(records, TrainRecord{
						IngestionTimestamp:     snap.Timestamp,
						CurrentTimestamp:       env.CTATT.Timestamp,
						ErrorCode:              env.CTATT.ErrorCode,
						ErrorNumber:            errNumber,
						RouteName:              route.Name,
						RunNumber:              t.RunNumber,
						DestinationStationID:   t.DestinationStopID,
						DestinationStationName: t.DestinationName,
						TrainDirection:         t.Direction,
						NextStationID:          t.NextStationID,
						NextStopID:             t.NextStopID,
						NextStationName:        t.NextStationName,
						PredictionTimestamp:    t.PredictionGenerated,
						PredictedArrival:       t.PredictedArrival,
						IsApproaching:          t.IsApproaching,
						IsDelayed:              t.IsDelayed,
					})
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return records, skipped, nil
}
