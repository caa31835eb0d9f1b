package fetch

import (
	"reflect"
	"testing"
)

func TestParseIDsPreservesOrder(t *testing.T) {
	got, err := parseIDs([]string{"3", "1", "2"}, true)
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	want := []int64{3, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseIDsRejectsEmptyInDev(t *testing.T) {
	if _, err := parseIDs([]string{"1", ""}, true); err == nil {
		t.Fatal("expected error for empty id in dev mode")
	}
	if _, err := parseIDs([]string{"1", ""}, false); err == nil {
		t.Fatal("expected non-numeric-string parse error regardless of dev mode")
	}
}

func TestDedupePreservesFirstSeenOrder(t *testing.T) {
	// ["3","2","1","1","2","3"] -> [3,2,1]
	got := dedupe([]int64{3, 2, 1, 1, 2, 3})
	want := []int64{3, 2, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBatchesSplitsAtSize(t *testing.T) {
	ids := make([]int64, 0, 5)
	for i := int64(1); i <= 5; i++ {
		ids = append(ids, i)
	}
	got := batches(ids, 2)
	want := [][]int64{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBatchesEmpty(t *testing.T) {
	if got := batches(nil, 99); got != nil {
		t.Fatalf("expected nil batches for empty input, got %v", got)
	}
}

func TestSortByRequestOrder(t *testing.T) {
	rows := []map[string]any{
		{"id": float64(1)},
		{"id": float64(2)},
		{"id": float64(3)},
	}
	sorted := sortByRequestOrder(rows, "id", []int64{3, 2, 1, 1, 2, 3})
	got := []int64{}
	for _, r := range sorted {
		id, _ := rowID(r, "id")
		got = append(got, id)
	}
	want := []int64{3, 2, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRowIDHandlesDriverShapes(t *testing.T) {
	cases := []struct {
		v    any
		want int64
	}{
		{float64(5), 5},
		{int64(5), 5},
		{int(5), 5},
		{"5", 5},
	}
	for _, c := range cases {
		got, ok := rowID(map[string]any{"id": c.v}, "id")
		if !ok || got != c.want {
			t.Errorf("rowID(%#v) = %v, %v, want %v, true", c.v, got, ok, c.want)
		}
	}
	if _, ok := rowID(map[string]any{"id": nil}, "id"); ok {
		t.Error("rowID(nil) should report !ok")
	}
	if _, ok := rowID(map[string]any{}, "id"); ok {
		t.Error("rowID(missing) should report !ok")
	}
}
