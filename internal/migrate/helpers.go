// Package migrate installs the two helper SQL functions the stored-function
// cache depends on and the system tables backing
// metadata.LoadAll, grounded on internal/store/bootstrap.go
// and internal/store/migrator.go.
package migrate

import (
	"fmt"
	"strings"
)

// MaxBatchSize mirrors fnstore.MaxFnArguments; duplicated here (rather than
// imported) so this package has no dependency on the compiler packages —
// it only ever needs the number, not their types.
const MaxBatchSize = 99

const safeCreateFnSQL = `
CREATE OR REPLACE FUNCTION safe_create_fn(sql text) RETURNS void AS $$
BEGIN
  EXECUTE sql;
EXCEPTION
  WHEN unique_violation OR duplicate_function THEN
    RETURN;
END;
$$ LANGUAGE plpgsql;
`

// executeIfExistsSQL renders execute_if_exists_n<n>, the probe-and-invoke
// primitive fetch.Entities calls once per batch.
func executeIfExistsSQL(n int) string {
	args := make([]string, n)
	callArgs := make([]string, n)
	for i := 0; i < n; i++ {
		args[i] = fmt.Sprintf("a%d int", i+1)
		callArgs[i] = fmt.Sprintf("a%d", i+1)
	}
	return fmt.Sprintf(`
CREATE OR REPLACE FUNCTION execute_if_exists_n%d(fn text, %s) RETURNS SETOF JSON STABLE AS $$
BEGIN
  RETURN QUERY EXECUTE 'SELECT t.res FROM ' || fn || '(%s) AS t(res json)' USING %s;
EXCEPTION
  WHEN undefined_function THEN
    RETURN NEXT NULL;
    RETURN;
END;
$$ LANGUAGE plpgsql ROWS %d;
`, n, strings.Join(args, ", "), placeholders(n), strings.Join(callArgs, ", "), n)
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ph, ", ")
}

// helperFunctionsSQL concatenates safe_create_fn and one
// execute_if_exists_n<N> per N in [1..MaxBatchSize], generated
// programmatically rather than hand-written 99 times (grounded on
// ridoystarlord-migrato/generator's DDL-statement-list pattern).
func helperFunctionsSQL() string {
	var sb strings.Builder
	sb.WriteString(safeCreateFnSQL)
	for n := 1; n <= MaxBatchSize; n++ {
		sb.WriteString(executeIfExistsSQL(n))
	}
	return sb.String()
}
