//go:build integration

package fetch_test

import (
	"context"
	"testing"

	"graphfetch/internal/fetch"
	"graphfetch/internal/fixture"
	"graphfetch/internal/hydrate"
	"graphfetch/internal/migrate"
)

// TestOneToManyIDProjection checks that a one-to-many id-only child column
// is returned sorted by id ascending regardless of insertion order.
func TestOneToManyIDProjection(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	defer pool.Close()

	reg, idReg := fixture.ParentChild()
	parent, _ := reg.Entity("Parent")
	child, _ := reg.Entity("Child")
	junction := parent.Relations[1].Junction // "related" many-to-many

	schema := migrate.NewSchema(pool)
	if err := schema.Entity(ctx, parent); err != nil {
		t.Fatalf("create parents: %v", err)
	}
	if err := schema.Entity(ctx, child); err != nil {
		t.Fatalf("create children: %v", err)
	}
	if err := schema.Junction(ctx, junction, "BIGINT", "BIGINT"); err != nil {
		t.Fatalf("create junction: %v", err)
	}

	var parentID int64
	if err := pool.QueryRow(ctx, `INSERT INTO parents (name) VALUES ('p') RETURNING id`).Scan(&parentID); err != nil {
		t.Fatalf("insert parent: %v", err)
	}

	// Insert in creation order rel2, rel1 so db ids ascend rel1.id < rel2.id,
	// to distinguish id-ascending sort from insertion order.
	var rel2ID, rel1ID int64
	if err := pool.QueryRow(ctx, `INSERT INTO children (name, parent_id) VALUES ('rel2', $1) RETURNING id`, parentID).Scan(&rel2ID); err != nil {
		t.Fatalf("insert rel2: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO children (name, parent_id) VALUES ('rel1', $1) RETURNING id`, parentID).Scan(&rel1ID); err != nil {
		t.Fatalf("insert rel1: %v", err)
	}
	if rel1ID >= rel2ID {
		t.Fatalf("expected rel1.id (%d) < rel2.id (%d)", rel1ID, rel2ID)
	}

	f := fetch.NewFetcher(reg, idReg, hydrate.DefaultConverter{}, true)
	rows, err := f.Entities(ctx, pool, fetch.Tree{Entity: "Parent"}, []string{itoa(parentID)}, nil)
	if err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	childrenIDs, _ := rows[0]["childrenIds"].([]any)
	if len(childrenIDs) != 2 || toInt(childrenIDs[0]) != rel1ID || toInt(childrenIDs[1]) != rel2ID {
		t.Fatalf("childrenIds = %v, want [%d, %d]", childrenIDs, rel1ID, rel2ID)
	}
}

// TestManyToManyRoundTrip checks both directions of a many-to-many relation
// hydrate correctly and that the junction table's helper columns never leak
// into the returned rows.
func TestManyToManyRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	defer pool.Close()

	reg, idReg := fixture.ParentChild()
	parent, _ := reg.Entity("Parent")
	child, _ := reg.Entity("Child")
	junction := parent.Relations[1].Junction

	schema := migrate.NewSchema(pool)
	_ = schema.Entity(ctx, parent)
	_ = schema.Entity(ctx, child)
	_ = schema.Junction(ctx, junction, "BIGINT", "BIGINT")

	var parentID, childID int64
	_ = pool.QueryRow(ctx, `INSERT INTO parents (name) VALUES ('p') RETURNING id`).Scan(&parentID)
	_ = pool.QueryRow(ctx, `INSERT INTO children (name) VALUES ('c') RETURNING id`).Scan(&childID)
	if _, err := pool.Exec(ctx, `INSERT INTO parent_child_junction (parent_id, child_id) VALUES ($1, $2)`, parentID, childID); err != nil {
		t.Fatalf("link junction: %v", err)
	}

	f := fetch.NewFetcher(reg, idReg, hydrate.DefaultConverter{}, true)

	tree := fetch.Tree{Entity: "Parent", Nested: []fetch.Tree{{Entity: "Child"}}}
	rows, err := f.Entities(ctx, pool, tree, []string{itoa(parentID)}, nil)
	if err != nil {
		t.Fatalf("Entities(Parent): %v", err)
	}
	related, _ := rows[0]["related"].([]any)
	if len(related) != 1 {
		t.Fatalf("expected 1 related child, got %v", related)
	}
	relatedChild := related[0].(map[string]any)
	if _, hasJunctionKey := relatedChild["parent_id"]; hasJunctionKey {
		t.Error("junction helper key \"parent_id\" leaked into the hydrated row")
	}

	childRows, err := f.Entities(ctx, pool, fetch.Tree{Entity: "Child"}, []string{itoa(childID)}, nil)
	if err != nil {
		t.Fatalf("Entities(Child): %v", err)
	}
	targetIDs, _ := childRows[0]["targetIds"].([]any)
	if len(targetIDs) != 1 || toInt(targetIDs[0]) != parentID {
		t.Fatalf("targetIds = %v, want [%d]", targetIDs, parentID)
	}
}

// TestSetRelationAndRemoveRelation exercises the write-side
// collaborators against the same Parent/Child schema.
func TestSetRelationAndRemoveRelation(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	defer pool.Close()

	reg, idReg := fixture.ParentChild()
	parent, _ := reg.Entity("Parent")
	child, _ := reg.Entity("Child")

	schema := migrate.NewSchema(pool)
	_ = schema.Entity(ctx, parent)
	_ = schema.Entity(ctx, child)

	var parentID, childID int64
	_ = pool.QueryRow(ctx, `INSERT INTO parents (name) VALUES ('p') RETURNING id`).Scan(&parentID)
	_ = pool.QueryRow(ctx, `INSERT INTO children (name) VALUES ('c') RETURNING id`).Scan(&childID)

	f := fetch.NewFetcher(reg, idReg, hydrate.DefaultConverter{}, true)

	from := fetch.EntityID{Type: "Child", ID: itoa(childID)}
	to := fetch.EntityID{Type: "Parent", ID: itoa(parentID)}
	if err := f.SetRelation(ctx, pool, from, to); err != nil {
		t.Fatalf("SetRelation: %v", err)
	}

	var fk *int64
	if err := pool.QueryRow(ctx, `SELECT parent_id FROM children WHERE id = $1`, childID).Scan(&fk); err != nil {
		t.Fatalf("read parent_id: %v", err)
	}
	if fk == nil || *fk != parentID {
		t.Fatalf("parent_id = %v, want %d", fk, parentID)
	}

	if err := f.RemoveRelation(ctx, pool, []fetch.RelationPair{{From: from, To: to}}); err != nil {
		t.Fatalf("RemoveRelation: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT parent_id FROM children WHERE id = $1`, childID).Scan(&fk); err != nil {
		t.Fatalf("read parent_id after removal: %v", err)
	}
	if fk != nil {
		t.Fatalf("parent_id = %v, want nil after removeRelation", *fk)
	}
}

// TestStoredFunctionReuse checks that an identical tree and batch size
// reuses the same stored function on the second fetch instead of creating
// a duplicate.
func TestStoredFunctionReuse(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	defer pool.Close()
	reg, idReg := buildNoRelationSchema(ctx, t, pool)

	var id int64
	_ = pool.QueryRow(ctx, `INSERT INTO tst_t (boolean_prop, int_prop) VALUES (true, 1) RETURNING id`).Scan(&id)

	f := fetch.NewFetcher(reg, idReg, hydrate.DefaultConverter{}, true)
	countFns := func() int {
		var n int
		_ = pool.QueryRow(ctx, `SELECT count(*) FROM pg_proc WHERE proname LIKE 'builder_%'`).Scan(&n)
		return n
	}

	before := countFns()
	if _, err := f.Entities(ctx, pool, fetch.Tree{Entity: "T"}, []string{itoa(id)}, nil); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	afterFirst := countFns()
	if afterFirst != before+1 {
		t.Fatalf("expected exactly one new function after the first fetch, got %d -> %d", before, afterFirst)
	}

	if _, err := f.Entities(ctx, pool, fetch.Tree{Entity: "T"}, []string{itoa(id)}, nil); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	afterSecond := countFns()
	if afterSecond != afterFirst {
		t.Fatalf("expected no new function on the second fetch, got %d -> %d", afterFirst, afterSecond)
	}
}
