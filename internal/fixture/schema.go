// Package fixture builds small in-memory schemas shared by this module's
// test suites, so every package exercises the same Parent/Child and
// A→B→C→D shapes this package's scenarios describe.
package fixture

import "graphfetch/internal/metadata"

// ParentChild returns a two-entity schema: Parent has a one-to-many
// "children" relation and a many-to-many "related" relation to Child; Child
// carries the mirror "parent" (many-to-one) and "targets" (many-to-many)
// relations back to Parent. This is the schema behind the one-to-many and
// many-to-many fetch scenarios exercised elsewhere in this module.
func ParentChild() (*metadata.StaticSource, *metadata.IDPropertyRegistry) {
	idReg := metadata.NewIDPropertyRegistry()

	parent := &metadata.Entity{
		Name: "Parent", TableName: "parents", DisplayName: "Parent", PKColumn: "id",
		Columns: []metadata.Column{
			{PropertyName: "id", DatabaseName: "id", Type: metadata.ColumnBigInt},
			{PropertyName: "name", DatabaseName: "name", Type: metadata.ColumnText},
		},
	}
	child := &metadata.Entity{
		Name: "Child", TableName: "children", DisplayName: "Child", PKColumn: "id",
		Columns: []metadata.Column{
			{PropertyName: "id", DatabaseName: "id", Type: metadata.ColumnBigInt},
			{PropertyName: "name", DatabaseName: "name", Type: metadata.ColumnText},
		},
	}

	parent.Relations = []metadata.Relation{
		{
			PropertyName:        "children",
			Kind:                metadata.OneToMany,
			Inverse:             child,
			InverseSideProperty: "parent",
			IsOwning:            false,
		},
		{
			PropertyName:        "related",
			Kind:                metadata.ManyToMany,
			Inverse:             child,
			InverseSideProperty: "targets",
			IsOwning:            true,
			Junction: &metadata.Junction{
				TableName: "parent_child_junction",
				OwnKey:    "parent_id",
				RemoteKey: "child_id",
			},
		},
	}
	child.Relations = []metadata.Relation{
		{
			PropertyName:        "parent",
			Kind:                metadata.ManyToOne,
			Inverse:             parent,
			InverseSideProperty: "children",
			IsOwning:            true,
			JoinColumns:         []metadata.JoinColumn{{PropertyName: "parent", DatabaseName: "parent_id"}},
		},
		{
			PropertyName:        "targets",
			Kind:                metadata.ManyToMany,
			Inverse:             parent,
			InverseSideProperty: "related",
			IsOwning:            false,
			Junction: &metadata.Junction{
				TableName: "parent_child_junction",
				OwnKey:    "child_id",
				RemoteKey: "parent_id",
			},
		},
	}

	src := metadata.NewStaticSource([]*metadata.Entity{parent, child})

	idReg.WithRelationID("Parent", "children", "childrenIds")
	idReg.WithRelationID("Parent", "related", "relatedIds")
	idReg.WithRelationID("Child", "parent", "parentId")
	idReg.WithRelationID("Child", "targets", "targetIds")

	return src, idReg
}

// Hop wires a relation of the given kind from "from" to "to" (and its
// mirror back), naming join columns and junction tables deterministically
// from the two table names. Used to build the A→B→C→D chains this
// scenario 5 describes, for an arbitrary combination of relation kinds.
func Hop(from, to *metadata.Entity, kind metadata.RelationKind, prop, inverseProp string) {
	switch kind {
	case metadata.ManyToOne, metadata.OwnerToOne:
		fkCol := from.TableName + "_" + to.TableName + "_id"
		from.Relations = append(from.Relations, metadata.Relation{
			PropertyName:        prop,
			Kind:                kind,
			Inverse:             to,
			InverseSideProperty: inverseProp,
			IsOwning:            true,
			JoinColumns:         []metadata.JoinColumn{{PropertyName: prop, DatabaseName: fkCol}},
		})
		mirror := metadata.OneToOwner
		if kind == metadata.ManyToOne {
			mirror = metadata.OneToMany
		}
		to.Relations = append(to.Relations, metadata.Relation{
			PropertyName:        inverseProp,
			Kind:                mirror,
			Inverse:             from,
			InverseSideProperty: prop,
			IsOwning:            false,
		})
	case metadata.OneToOwner, metadata.OneToMany:
		fkCol := to.TableName + "_" + from.TableName + "_id"
		from.Relations = append(from.Relations, metadata.Relation{
			PropertyName:        prop,
			Kind:                kind,
			Inverse:             to,
			InverseSideProperty: inverseProp,
			IsOwning:            false,
		})
		mirror := metadata.OwnerToOne
		if kind == metadata.OneToMany {
			mirror = metadata.ManyToOne
		}
		to.Relations = append(to.Relations, metadata.Relation{
			PropertyName:        inverseProp,
			Kind:                mirror,
			Inverse:             from,
			InverseSideProperty: prop,
			IsOwning:            true,
			JoinColumns:         []metadata.JoinColumn{{PropertyName: inverseProp, DatabaseName: fkCol}},
		})
	case metadata.ManyToMany:
		junctionTable := from.TableName + "_" + to.TableName + "_junction"
		ownKey := from.TableName + "_id"
		remoteKey := to.TableName + "_id"
		from.Relations = append(from.Relations, metadata.Relation{
			PropertyName:        prop,
			Kind:                metadata.ManyToMany,
			Inverse:             to,
			InverseSideProperty: inverseProp,
			IsOwning:            true,
			Junction:            &metadata.Junction{TableName: junctionTable, OwnKey: ownKey, RemoteKey: remoteKey},
		})
		to.Relations = append(to.Relations, metadata.Relation{
			PropertyName:        inverseProp,
			Kind:                metadata.ManyToMany,
			Inverse:             from,
			InverseSideProperty: prop,
			IsOwning:            false,
			Junction:            &metadata.Junction{TableName: junctionTable, OwnKey: remoteKey, RemoteKey: ownKey},
		})
	}
}

// ABCD builds the four-entity chain A→(r1)→B→(r2)→C→(r3)→D used to test
// deep nesting, for one combination of relation kinds.
func ABCD(r1, r2, r3 metadata.RelationKind) (a, b, c, d *metadata.Entity) {
	a = &metadata.Entity{Name: "A", TableName: "as", PKColumn: "id", Columns: []metadata.Column{
		{PropertyName: "id", DatabaseName: "id", Type: metadata.ColumnBigInt},
		{PropertyName: "aprop", DatabaseName: "aprop", Type: metadata.ColumnText},
	}}
	b = &metadata.Entity{Name: "B", TableName: "bs", PKColumn: "id", Columns: []metadata.Column{
		{PropertyName: "id", DatabaseName: "id", Type: metadata.ColumnBigInt},
		{PropertyName: "bprop", DatabaseName: "bprop", Type: metadata.ColumnText},
	}}
	c = &metadata.Entity{Name: "C", TableName: "cs", PKColumn: "id", Columns: []metadata.Column{
		{PropertyName: "id", DatabaseName: "id", Type: metadata.ColumnBigInt},
		{PropertyName: "cprop", DatabaseName: "cprop", Type: metadata.ColumnText},
	}}
	d = &metadata.Entity{Name: "D", TableName: "ds", PKColumn: "id", Columns: []metadata.Column{
		{PropertyName: "id", DatabaseName: "id", Type: metadata.ColumnBigInt},
		{PropertyName: "dprop", DatabaseName: "dprop", Type: metadata.ColumnText},
	}}

	Hop(a, b, r1, "b", "a")
	Hop(b, c, r2, "c", "b")
	Hop(c, d, r3, "d", "c")
	return a, b, c, d
}
