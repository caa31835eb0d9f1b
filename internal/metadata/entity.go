package metadata

import (
	"strings"

	"graphfetch/internal/apperr"
)

// RelationKind is one of the five cases every compiler switch must cover
//.
type RelationKind string

const (
	OwnerToOne RelationKind = "owner-to-one" // one-to-one, this side owns the FK
	OneToOwner RelationKind = "one-to-owner" // one-to-one, remote side owns the FK
	ManyToOne  RelationKind = "many-to-one"  // this side owns the FK
	OneToMany  RelationKind = "one-to-many"  // remote side owns the FK
	ManyToMany RelationKind = "many-to-many" // via a junction table
)

// IsToMany reports whether the kind's last token is "many".
func (k RelationKind) IsToMany() bool {
	parts := strings.Split(string(k), "-")
	return parts[len(parts)-1] == "many"
}

// Relation is a directed association from the entity that declares it to
// Inverse.
type Relation struct {
	PropertyName string
	Kind         RelationKind
	Inverse      *Entity
	// InverseSideProperty names the property on Inverse that points back to
	// this relation, used to find the mirror Relation when the FK lives on
	// the other side (one-to-owner, one-to-many).
	InverseSideProperty string
	IsOwning            bool
	JoinColumns         []JoinColumn
	Junction            *Junction // non-nil only for Kind == ManyToMany
}

// FKColumn returns the single database column backing this relation's
// foreign key. UnsupportedComposite if more than one join column exists.
func (r *Relation) FKColumn() (string, error) {
	return fkColumn(r.JoinColumns, "relation "+r.PropertyName)
}

// Entity is the read-only schema view the compiler consumes for one
// registered entity type.
type Entity struct {
	Name        string // the registered entity-type identity ("constructor")
	TableName   string // schema-qualified table path
	DisplayName string
	TargetKey   string // natural/display key, independent of the PK
	PKColumn    string // database name of the single primary-key column
	Columns     []Column
	Relations   []Relation
}

// GetColumn returns the own column with the given property name, or nil.
func (e *Entity) GetColumn(propertyName string) *Column {
	for i := range e.Columns {
		if e.Columns[i].PropertyName == propertyName {
			return &e.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns every own column's property name.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.PropertyName
	}
	return names
}

// FindRelation returns the relation with the given property name.
// SchemaError if no such relation exists.
func (e *Entity) FindRelation(propertyName string) (*Relation, error) {
	for i := range e.Relations {
		if e.Relations[i].PropertyName == propertyName {
			return &e.Relations[i], nil
		}
	}
	return nil, apperr.Newf(apperr.SchemaError, "entity %s has no relation %q", e.Name, propertyName)
}

// PrimaryKey returns the database name of the entity's single primary key
// column. The metadata shape carries a single PK column, so composite keys
// cannot be expressed here; SchemaError if no PK column is configured.
func (e *Entity) PrimaryKey() (string, error) {
	if e.PKColumn == "" {
		return "", apperr.Newf(apperr.SchemaError, "entity %s has no primary key column configured", e.Name)
	}
	return e.PKColumn, nil
}

// PrimaryKeyProperty returns the property name the primary-key column was
// declared under, falling back to "id" if no own column maps to PKColumn.
func (e *Entity) PrimaryKeyProperty() string {
	for _, c := range e.Columns {
		if c.DatabaseName == e.PKColumn {
			return c.PropertyName
		}
	}
	return "id"
}

// FindFKTo finds the relation owned by e whose join column references
// otherTableName, used to resolve backlinks. UnsupportedComposite if the
// matching relation's FK is composite; SchemaError if no such FK exists.
func (e *Entity) FindFKTo(otherTableName string) (*Relation, string, error) {
	for i := range e.Relations {
		r := &e.Relations[i]
		if !r.IsOwning || r.Inverse == nil || r.Inverse.TableName != otherTableName {
			continue
		}
		col, err := r.FKColumn()
		if err != nil {
			return nil, "", err
		}
		return r, col, nil
	}
	return nil, "", apperr.Newf(apperr.SchemaError, "entity %s has no foreign key to table %s", e.Name, otherTableName)
}
