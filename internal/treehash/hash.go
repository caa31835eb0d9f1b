// Package treehash fingerprints a query tree into a stable, digit-only
// string usable as a SQL identifier suffix.
package treehash

import (
	"fmt"
	"strconv"
	"strings"

	"graphfetch/internal/metadata"
	"graphfetch/internal/querytree"
)

// Hash produces a stable identifier for node's shape: traverse
// breadth-first, emit "<kind>-<alias>-<metaDesc>" per node, join with ":",
// then run a Java-style 32-bit polynomial hash over the result and return
// its absolute value as a decimal string.
func Hash(node *querytree.Node) string {
	var order []*querytree.Node
	queue := []*querytree.Node{node}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		queue = append(queue, n.Children...)
	}

	parts := make([]string, len(order))
	for i, n := range order {
		parts[i] = nodeString(n)
	}
	s := strings.Join(parts, ":")

	var h int32
	for _, r := range s {
		h = 31*h + int32(r)
	}

	// Widen to int64 before negating so the classic two's-complement
	// abs(math.MinInt32) overflow (which stays negative in 32-bit
	// arithmetic) can never happen here.
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	digits := strconv.FormatInt(abs, 10)

	// Defensive scrub for any stray non-digit character; unreachable given
	// the int64 widening above, kept because calls for it explicitly.
	return strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return '0'
		}
		return r
	}, digits)
}

func nodeString(n *querytree.Node) string {
	if n.Meta == nil {
		return fmt.Sprintf("%s-%s-root", n.Kind, n.Alias)
	}
	return fmt.Sprintf("%s-%s-%s", n.Kind, n.Alias, metaDesc(n.Meta))
}

func metaDesc(e *metadata.Entity) string {
	relParts := make([]string, len(e.Relations))
	for i, r := range e.Relations {
		inverseTable := ""
		if r.Inverse != nil {
			inverseTable = r.Inverse.TableName
		}
		relParts[i] = fmt.Sprintf("%s:%s:%s:%s:%t", r.PropertyName, e.TableName, inverseTable, r.Kind, r.IsOwning)
	}
	return fmt.Sprintf("%s:%s:%s", e.TableName, strings.Join(e.ColumnNames(), ":"), strings.Join(relParts, ","))
}
