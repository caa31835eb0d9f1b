//go:build integration

package fetch_test

import (
	"context"
	"testing"

	"graphfetch/internal/config"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/fetch"
	"graphfetch/internal/hydrate"
	"graphfetch/internal/metadata"
	"graphfetch/internal/migrate"
)

func testPool(t *testing.T) *dbconn.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := dbconn.New(ctx, config.DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5433,
		User:     "graphfetch",
		Password: "graphfetch",
		Name:     "graphfetch",
		PoolSize: 4,
	})
	if err != nil {
		t.Fatalf("connect to test db: %v", err)
	}
	if err := migrate.Bootstrap(ctx, pool); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return pool
}

// buildNoRelationSchema wires the single-table T(id, booleanProp, intProp)
// fixture used by the relation-free round-trip tests below.
func buildNoRelationSchema(ctx context.Context, t *testing.T, pool *dbconn.Pool) (*metadata.Registry, *metadata.IDPropertyRegistry) {
	t.Helper()
	reg := metadata.NewRegistry()
	idReg := metadata.NewIDPropertyRegistry()

	entity := &metadata.Entity{
		Name: "T", TableName: "tst_t", PKColumn: "id",
		Columns: []metadata.Column{
			{PropertyName: "id", DatabaseName: "id", Type: metadata.ColumnBigInt},
			{PropertyName: "booleanProp", DatabaseName: "boolean_prop", Type: metadata.ColumnBoolean},
			{PropertyName: "intProp", DatabaseName: "int_prop", Type: metadata.ColumnInt},
		},
	}
	reg.Put(entity)

	schema := migrate.NewSchema(pool)
	if err := schema.Entity(ctx, entity); err != nil {
		t.Fatalf("create tst_t: %v", err)
	}
	return reg, idReg
}

// TestNoRelationsRoundTrip fetches a relation-free entity by id and checks
// every scalar column round-trips unchanged.
func TestNoRelationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	defer pool.Close()
	reg, idReg := buildNoRelationSchema(ctx, t, pool)

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO tst_t (boolean_prop, int_prop) VALUES (false, 99999) RETURNING id`,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert fixture row: %v", err)
	}

	f := fetch.NewFetcher(reg, idReg, hydrate.DefaultConverter{}, true)
	rows, err := f.Entities(ctx, pool, fetch.Tree{Entity: "T"}, []string{itoa(id)}, nil)
	if err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row["booleanProp"] != false {
		t.Errorf("booleanProp = %v, want false", row["booleanProp"])
	}
	if toInt(row["intProp"]) != 99999 {
		t.Errorf("intProp = %v, want 99999", row["intProp"])
	}
}

// TestMissingIDsPassThrough checks that ids with no matching row are simply
// absent from the result rather than causing an error.
func TestMissingIDsPassThrough(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	defer pool.Close()
	reg, idReg := buildNoRelationSchema(ctx, t, pool)

	_, err := pool.Exec(ctx, `INSERT INTO tst_t (id, boolean_prop, int_prop) VALUES (5, true, 1) ON CONFLICT DO NOTHING`)
	if err != nil {
		t.Fatalf("insert fixture row: %v", err)
	}

	f := fetch.NewFetcher(reg, idReg, hydrate.DefaultConverter{}, true)
	rows, err := f.Entities(ctx, pool, fetch.Tree{Entity: "T"}, []string{"123", "5"}, nil)
	if err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if len(rows) != 1 || toInt(rows[0]["id"]) != 5 {
		t.Fatalf("expected [{id:5}], got %v", rows)
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return -1
	}
}
