package fetch

import (
	"sort"
	"strconv"

	"graphfetch/internal/apperr"
)

// parseIDs converts every caller id to int64, preserving the original
// sequence. ids are restricted to numeric strings so the compiler can
// inline them safely.
func parseIDs(ids []string, isDevEnv bool) ([]int64, error) {
	out := make([]int64, len(ids))
	for i, s := range ids {
		if isDevEnv && s == "" {
			return nil, apperr.Newf(apperr.InvalidArgument, "id at index %d is empty", i)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidArgument, "id \""+s+"\" is not a valid integer id", err)
		}
		out[i] = n
	}
	return out, nil
}

// dedupe preserves first-seen order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// batches splits ids into chunks of at most size.
func batches(ids []int64, size int) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	var out [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// sortByRequestOrder reorders rows so their pkProp value's first occurrence
// in originalIDs determines position: a stable sort by
// originalIDs.indexOf(row.id). Rows whose id never appears in originalIDs
// (should not happen) sort last.
func sortByRequestOrder(rows []map[string]any, pkProp string, originalIDs []int64) []map[string]any {
	firstIndex := make(map[int64]int, len(originalIDs))
	for i, id := range originalIDs {
		if _, ok := firstIndex[id]; !ok {
			firstIndex[id] = i
		}
	}
	rank := func(row map[string]any) int {
		id, ok := rowID(row, pkProp)
		if !ok {
			return len(originalIDs)
		}
		if idx, ok := firstIndex[id]; ok {
			return idx
		}
		return len(originalIDs)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank(rows[i]) < rank(rows[j])
	})
	return rows
}

// rowID extracts row[pkProp] as an int64, tolerating the float64/int64/string
// shapes a JSON-decoded or pgx-decoded value might arrive in.
func rowID(row map[string]any, pkProp string) (int64, bool) {
	v, ok := row[pkProp]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
