// Package fnstore names, creates, and invokes the PostgreSQL stored
// functions that cache one compiled query per (tree shape, batch size)
// pair.
package fnstore

import (
	"fmt"

	"graphfetch/internal/apperr"
)

// Version is bumped to retire every previously cached function at once
// (the "persisted state layout": a version bump orphans, but does
// not drop, prior functions).
const Version = 1

// MaxFnArguments is the largest batch size a single stored-function call
// supports; execute_if_exists_n<N> is installed for every N in [1..99].
const MaxFnArguments = 99

const maxIdentifierBytes = 63

// FunctionName derives the stored-function name for one (tree, batch size)
// pair: builder_<VERSION>_<first 15 chars of root table>_<treeHash>_n<batchSize>.
// If the name exceeds the Postgres 63-byte identifier limit, isDevEnv
// controls whether this fails loudly (development) or is silently
// truncated (production, where implementation-defined truncation is
// acceptable).
func FunctionName(rootTable, treeHash string, batchSize int, isDevEnv bool) (string, error) {
	if batchSize <= 0 {
		return "", apperr.Newf(apperr.InvalidArgument, "batch size must be positive, got %d", batchSize)
	}
	prefix := rootTable
	if len(prefix) > 15 {
		prefix = prefix[:15]
	}
	name := fmt.Sprintf("builder_%d_%s_%s_n%d", Version, prefix, treeHash, batchSize)
	if len(name) <= maxIdentifierBytes {
		return name, nil
	}
	if isDevEnv {
		return "", apperr.Newf(apperr.DatabaseError, "generated function name %q (%d bytes) exceeds the %d-byte Postgres identifier limit", name, len(name), maxIdentifierBytes)
	}
	return name[:maxIdentifierBytes], nil
}
