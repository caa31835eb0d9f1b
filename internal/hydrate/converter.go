package hydrate

import (
	"time"

	"graphfetch/internal/metadata"
)

// ColumnConverter is the database driver's value-hydration hook: it turns
// a raw JSON scalar back into the caller's expected domain representation.
// Grounded on store.normalizeValue, but operating on values already
// decoded from row_to_json JSON rather than raw pgx driver values.
type ColumnConverter interface {
	Convert(t metadata.ColumnType, v any) any
}

// DefaultConverter handles the timestamp/date conversions this module's own
// test fixtures need. It is idempotent (P11): converting an already-domain
// value (e.g. a time.Time) returns it unchanged.
type DefaultConverter struct{}

func (DefaultConverter) Convert(t metadata.ColumnType, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case metadata.ColumnTimestamp:
		if ts, ok := v.(time.Time); ok {
			return ts
		}
		s, ok := v.(string)
		if !ok {
			return v
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed
		}
		return v
	case metadata.ColumnDate:
		if ts, ok := v.(time.Time); ok {
			return ts
		}
		s, ok := v.(string)
		if !ok {
			return v
		}
		if parsed, err := time.Parse("2006-01-02", s); err == nil {
			return parsed
		}
		return v
	default:
		return v
	}
}
