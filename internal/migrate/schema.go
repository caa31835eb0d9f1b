package migrate

import (
	"context"
	"fmt"
	"strings"

	"graphfetch/internal/dbconn"
	"graphfetch/internal/metadata"
)

// Schema stands up entity and junction tables for local/dev use and for the
// integration test suite, repurposing the migrator.go table/alter
// logic to work off metadata.Entity/Column instead of the
// generic Field type. Production deployments are expected to already have
// their schema migrated by other means; this exists so the fetcher can be
// exercised against a real Postgres without a separate migration tool.
type Schema struct {
	pool *dbconn.Pool
}

func NewSchema(pool *dbconn.Pool) *Schema {
	return &Schema{pool: pool}
}

// Entity ensures entity's table exists with at least its declared columns.
// It never drops or narrows a column; it only creates the table (if
// missing) or adds missing columns (if present).
func (s *Schema) Entity(ctx context.Context, entity *metadata.Entity) error {
	exists, err := s.tableExists(ctx, entity.TableName)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}
	if !exists {
		return s.createTable(ctx, entity)
	}
	return s.alterTable(ctx, entity)
}

// Junction ensures j's table exists with its two FK columns as a composite
// primary key.
func (s *Schema) Junction(ctx context.Context, j *metadata.Junction, ownType, remoteType string) error {
	exists, err := s.tableExists(ctx, j.TableName)
	if err != nil {
		return fmt.Errorf("check join table exists: %w", err)
	}
	if exists {
		return nil
	}
	sql := fmt.Sprintf(
		`CREATE TABLE %s (
			%s %s NOT NULL,
			%s %s NOT NULL,
			PRIMARY KEY (%s, %s)
		)`,
		j.TableName,
		j.OwnKey, ownType,
		j.RemoteKey, remoteType,
		j.OwnKey, j.RemoteKey,
	)
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create join table %s: %w", j.TableName, err)
	}
	return nil
}

func (s *Schema) tableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1 AND table_schema = 'public')`,
		tableName,
	).Scan(&exists)
	return exists, err
}

func (s *Schema) createTable(ctx context.Context, entity *metadata.Entity) error {
	cols := make([]string, 0, len(entity.Columns)+len(entity.Relations))
	for _, c := range entity.Columns {
		cols = append(cols, s.columnDef(entity, c))
	}
	for _, r := range entity.Relations {
		if !r.IsOwning || r.Kind == metadata.ManyToMany {
			continue
		}
		fkCol, err := r.FKColumn()
		if err != nil {
			return err
		}
		cols = append(cols, fmt.Sprintf("%s BIGINT", fkCol))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", entity.TableName, strings.Join(cols, ",\n  "))
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", entity.TableName, err)
	}
	return nil
}

func (s *Schema) alterTable(ctx context.Context, entity *metadata.Entity) error {
	existing, err := s.getColumns(ctx, entity.TableName)
	if err != nil {
		return fmt.Errorf("get columns for %s: %w", entity.TableName, err)
	}
	for _, c := range entity.Columns {
		if _, ok := existing[c.DatabaseName]; ok {
			continue
		}
		sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", entity.TableName, c.DatabaseName, c.PostgresType())
		if _, err := s.pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("add column %s.%s: %w", entity.TableName, c.DatabaseName, err)
		}
	}
	return nil
}

func (s *Schema) columnDef(entity *metadata.Entity, c metadata.Column) string {
	if c.DatabaseName == entity.PKColumn {
		return c.DatabaseName + " " + c.PostgresType() + " GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	}
	return c.DatabaseName + " " + c.PostgresType()
}

func (s *Schema) getColumns(ctx context.Context, tableName string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 AND table_schema = 'public'`,
		tableName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}
