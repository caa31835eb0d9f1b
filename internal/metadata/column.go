package metadata

import "graphfetch/internal/apperr"

// ColumnType is a driver-level type descriptor for an own (non-relation)
// column. It exists so the hydrator's value-conversion hook has enough
// information to turn a raw JSON scalar back into its domain type.
type ColumnType string

const (
	ColumnText      ColumnType = "text"
	ColumnInt       ColumnType = "int"
	ColumnBigInt    ColumnType = "bigint"
	ColumnDecimal   ColumnType = "decimal"
	ColumnBoolean   ColumnType = "boolean"
	ColumnUUID      ColumnType = "uuid"
	ColumnTimestamp ColumnType = "timestamp"
	ColumnDate      ColumnType = "date"
	ColumnJSON      ColumnType = "json"
)

// Column describes one own (non-relation) column of an entity.
type Column struct {
	PropertyName string     `json:"property_name"`
	DatabaseName string     `json:"database_name"`
	Type         ColumnType `json:"type"`
}

// PostgresType returns the Postgres DDL type for this column. Only used by
// internal/migrate when standing up fixture tables for local/dev use; the
// compiler itself never needs DDL types.
func (c Column) PostgresType() string {
	switch c.Type {
	case ColumnInt:
		return "INTEGER"
	case ColumnBigInt:
		return "BIGINT"
	case ColumnDecimal:
		return "NUMERIC"
	case ColumnBoolean:
		return "BOOLEAN"
	case ColumnUUID:
		return "UUID"
	case ColumnTimestamp:
		return "TIMESTAMPTZ"
	case ColumnDate:
		return "DATE"
	case ColumnJSON:
		return "JSONB"
	default:
		return "TEXT"
	}
}

// JoinColumn is one column of a (non-composite) foreign key backing a
// relation. PropertyName mirrors the owning relation's PropertyName, per
// this package's "joinColumns[i].propertyName == r.propertyName" contract.
type JoinColumn struct {
	PropertyName string `json:"property_name"`
	DatabaseName string `json:"database_name"`
}

// Junction describes the intermediate table implementing a many-to-many
// relation.
type Junction struct {
	Entity    *Entity `json:"-"`
	TableName string  `json:"table_name"`
	OwnKey    string  `json:"own_key"`    // FK database column referencing the owning side
	RemoteKey string  `json:"remote_key"` // FK database column referencing the remote side
}

func fkColumn(cols []JoinColumn, context string) (string, error) {
	if len(cols) != 1 {
		return "", apperr.Newf(apperr.UnsupportedComposite, "%s: composite foreign key (%d columns)", context, len(cols))
	}
	return cols[0].DatabaseName, nil
}
