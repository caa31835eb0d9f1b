package fnstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"graphfetch/internal/apperr"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/sqlcompile"
)

// Cache wraps the stored-function invocation algorithm: probe via
// execute_if_exists_n<B>, create via safe_create_fn outside a transaction,
// raw-query fallback inside one, else use the returned rows.
type Cache struct {
	db    dbconn.Querier
	isTx  bool
	isDev bool
}

// NewCache wraps db. isTx must report whether db is a transaction (no
// CREATE FUNCTION may be issued against one); isDev controls the
// function-name-length failure mode.
func NewCache(db dbconn.Querier, isTx, isDev bool) *Cache {
	return &Cache{db: db, isTx: isTx, isDev: isDev}
}

// Invoke runs compiledSQL (containing sqlcompile.IDsPlaceholder) against
// ids via the cached stored function named for (rootTable, treeHash,
// len(ids)), creating it on first use.
func (c *Cache) Invoke(ctx context.Context, rootTable, treeHash, compiledSQL string, ids []int64) ([]map[string]any, error) {
	batchSize := len(ids)
	fnName, err := FunctionName(rootTable, treeHash, batchSize, c.isDev)
	if err != nil {
		return nil, err
	}

	probeArgs := make([]any, 0, batchSize+1)
	probeArgs = append(probeArgs, fnName)
	for _, id := range ids {
		probeArgs = append(probeArgs, id)
	}
	// execute_if_exists_n<B> and the builder function both RETURN a bare
	// JSON scalar, so without an alias Postgres names the sole output
	// column after the function itself, not "res" — decodeResRows needs
	// the column under a name it controls.
	probeSQL := fmt.Sprintf("SELECT * FROM execute_if_exists_n%d($1, %s) AS res", batchSize, placeholders(batchSize, 2))

	rows, err := c.db.Rows(ctx, probeSQL, probeArgs...)
	if err != nil {
		return nil, apperr.Wrap(apperr.DatabaseError, "probe stored function", err)
	}

	if !isMissingFunction(rows) {
		return decodeResRows(rows)
	}

	if !c.isTx {
		createSQL := functionBody(fnName, compiledSQL, batchSize)
		if _, err := c.db.Exec(ctx, "SELECT safe_create_fn($1)", createSQL); err != nil {
			return nil, apperr.Wrap(apperr.DatabaseError, "create stored function", err)
		}
		callSQL := fmt.Sprintf("SELECT * FROM %s(%s) AS res", fnName, placeholders(batchSize, 1))
		callArgs := make([]any, batchSize)
		for i, id := range ids {
			callArgs[i] = id
		}
		rows, err := c.db.Rows(ctx, callSQL, callArgs...)
		if err != nil {
			return nil, apperr.Wrap(apperr.DatabaseError, "invoke newly created stored function", err)
		}
		return decodeResRows(rows)
	}

	// An outer transaction is active: CREATE FUNCTION here could deadlock
	// with a concurrent creator, so fall back to the raw compiled query
	// with ids inlined directly. ids are already parsed int64s, so
	// inlining them is safe.
	raw := strings.ReplaceAll(compiledSQL, sqlcompile.IDsPlaceholder, joinIds(ids))
	rawRows, err := c.db.Rows(ctx, raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.DatabaseError, "fallback raw query under active transaction", err)
	}
	return rawRows, nil
}

// isMissingFunction reports whether rows is execute_if_exists_n<B>'s
// "function not found" sentinel: exactly one row whose only column is NULL.
func isMissingFunction(rows []map[string]any) bool {
	if len(rows) != 1 {
		return false
	}
	for _, v := range rows[0] {
		return v == nil
	}
	return true
}

// decodeResRows strips the "res" wrapper column execute_if_exists_n<B>
// projects each row's JSON object under.
func decodeResRows(rows []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		v, ok := r["res"]
		if !ok {
			return nil, apperr.Newf(apperr.ImplementationError, "stored function result missing \"res\" column")
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, apperr.Newf(apperr.ImplementationError, "stored function \"res\" column is not a JSON object: %T", v)
		}
		out = append(out, obj)
	}
	return out, nil
}

// functionBody renders the CREATE FUNCTION statement for fnName, inlining
// compiledSQL with $1..$B substituted for sqlcompile.IDsPlaceholder
//.
func functionBody(fnName, compiledSQL string, batchSize int) string {
	args := make([]string, batchSize)
	for i := range args {
		args[i] = fmt.Sprintf("a%d int", i+1)
	}
	body := strings.ReplaceAll(compiledSQL, sqlcompile.IDsPlaceholder, placeholders(batchSize, 1))
	return fmt.Sprintf(
		"CREATE FUNCTION %s(%s) RETURNS SETOF JSON STABLE AS $body$\n"+
			"BEGIN\n"+
			"  RETURN QUERY SELECT row_to_json(rows) AS res FROM (%s) rows;\n"+
			"END\n"+
			"$body$ LANGUAGE plpgsql ROWS %d",
		fnName, strings.Join(args, ", "), body, batchSize,
	)
}

func placeholders(n, startAt int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "$" + strconv.Itoa(startAt+i)
	}
	return strings.Join(ph, ", ")
}

func joinIds(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
