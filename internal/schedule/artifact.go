package schedule

import (
	"bytes"
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"ctarail/internal/domain"
	"ctarail/internal/store"
)

// ArtifactKey is the store key for one effective date's schedule.
func ArtifactKey(effectiveDate int) string {
	return fmt.Sprintf("%s%08d.parquet", store.SchedulePrefix, effectiveDate)
}

// WriteArtifact persists a derivation as one parquet object keyed by its
// effective date. A re-run at the same date overwrites the previous object,
// which keeps the pipeline idempotent per feed publish.
func WriteArtifact(ctx context.Context, st store.ObjectStore, d *Derived) (string, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, d.Rows); err != nil {
		return "", fmt.Errorf("encode schedule parquet: %w", err)
	}

	key := ArtifactKey(d.EffectiveDate)
	if err := st.Put(ctx, key, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write schedule artifact: %w", err)
	}
	return key, nil
}

// ReadArtifact loads one schedule artifact.
func ReadArtifact(ctx context.Context, st store.ObjectStore, key string) ([]domain.ScheduleRow, error) {
	data, err := st.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	rows, err := parquet.Read[domain.ScheduleRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode schedule artifact %s: %w", key, err)
	}
	return rows, nil
}

// ReadAllArtifacts loads the union of every historical effective-date file,
// in key (date) order.
func ReadAllArtifacts(ctx context.Context, st store.ObjectStore) ([]domain.ScheduleRow, error) {
	keys, err := st.List(ctx, store.SchedulePrefix)
	if err != nil {
		return nil, err
	}

	var all []domain.ScheduleRow
	for _, key := range keys {
		rows, err := ReadArtifact(ctx, st, key)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}
