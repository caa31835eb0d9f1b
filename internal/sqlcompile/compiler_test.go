package sqlcompile

import (
	"strings"
	"testing"

	"graphfetch/internal/fixture"
	"graphfetch/internal/metadata"
	"graphfetch/internal/querytree"
)

func build(t *testing.T, root querytree.FetchNode, src metadata.Source) *querytree.Node {
	t.Helper()
	node, err := querytree.Build(root, src, querytree.NewAliasGen())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return node
}

func TestCompile_RootOnly(t *testing.T) {
	reg, idReg := fixture.ParentChild()
	tree := build(t, querytree.FetchNode{Entity: "Parent"}, reg)

	sql, err := Compile(tree, idReg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(sql, `FROM parents AS "rel_1"`) {
		t.Errorf("expected root table scan, got: %s", sql)
	}
	if !strings.Contains(sql, IDsPlaceholder) {
		t.Errorf("expected root ids placeholder, got: %s", sql)
	}
	// children/related are both unlisted -> id children, must be projected.
	if !strings.Contains(sql, `"childrenIds"`) || !strings.Contains(sql, `"relatedIds"`) {
		t.Errorf("expected id-child projections for unlisted relations, got: %s", sql)
	}
}

func TestCompile_ManyToOneIDChildIsPlainColumn(t *testing.T) {
	reg, idReg := fixture.ParentChild()
	tree := build(t, querytree.FetchNode{Entity: "Child"}, reg)

	sql, err := Compile(tree, idReg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(sql, `"rel_1"."parent_id" AS "parentId"`) {
		t.Errorf("expected direct FK column projection for many-to-one id child, got: %s", sql)
	}
	// Child's many-to-many "targets" id child still joins the junction table;
	// the many-to-one "parent" id child must not join the parents table.
	if strings.Contains(sql, "FROM parents") {
		t.Errorf("many-to-one id child should need no join to the parent table, got: %s", sql)
	}
}

func TestCompile_OneToManyIDChildAggregatesViaLateral(t *testing.T) {
	reg, idReg := fixture.ParentChild()
	tree := build(t, querytree.FetchNode{Entity: "Parent"}, reg)

	sql, err := Compile(tree, idReg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(sql, "json_agg") {
		t.Errorf("expected json_agg for one-to-many id child, got: %s", sql)
	}
	if !strings.Contains(sql, "LEFT JOIN LATERAL") {
		t.Errorf("expected a lateral join for one-to-many id child, got: %s", sql)
	}
}

func TestCompile_ManyToManyIDChildJoinsJunction(t *testing.T) {
	reg, idReg := fixture.ParentChild()
	tree := build(t, querytree.FetchNode{Entity: "Parent"}, reg)

	sql, err := Compile(tree, idReg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(sql, "parent_child_junction") {
		t.Errorf("expected many-to-many id child to reference the junction table, got: %s", sql)
	}
}

func TestCompile_NestedDataChild_OneToMany(t *testing.T) {
	reg, idReg := fixture.ParentChild()
	tree := build(t, querytree.FetchNode{
		Entity: "Parent",
		Nested: []querytree.FetchNode{{Entity: "Child"}},
	}, reg)

	sql, err := Compile(tree, idReg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(sql, `"rel" AS "children"`) {
		t.Errorf("expected the nested children data column to be projected, got: %s", sql)
	}
	if !strings.Contains(sql, "GROUP BY") {
		t.Errorf("expected a GROUP BY in the one-to-many data-child aggregation, got: %s", sql)
	}
}

func TestCompile_NestedDataChild_ManyToOne(t *testing.T) {
	reg, idReg := fixture.ParentChild()
	tree := build(t, querytree.FetchNode{
		Entity: "Child",
		Nested: []querytree.FetchNode{{Entity: "Parent"}},
	}, reg)

	sql, err := Compile(tree, idReg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(sql, `"parent" AS "parent"`) {
		t.Errorf("expected the nested parent data column to be projected, got: %s", sql)
	}
	if !strings.Contains(sql, "row_to_json") {
		t.Errorf("expected row_to_json for the many-to-one data child, got: %s", sql)
	}
}

func TestCompile_NestedDataChild_ManyToMany(t *testing.T) {
	reg, idReg := fixture.ParentChild()
	// Parent has two relations to Child's table ("children" and "related");
	// both match the single nested fetch tree entry on table name (see
	// querytree.TestBuild_NestedRelationBecomesDataChild), so both compile
	// as data children here.
	many := build(t, querytree.FetchNode{
		Entity: "Parent",
		Nested: []querytree.FetchNode{{Entity: "Child"}},
	}, reg)
	sql, err := Compile(many, idReg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(sql, `"rel" AS "related"`) {
		t.Errorf("expected the many-to-many related data column to be projected, got: %s", sql)
	}
	if !strings.Contains(sql, "parent_child_junction") {
		t.Errorf("expected the many-to-many data child to join the junction table, got: %s", sql)
	}
}

func TestCompile_ABCDChain_AllKindCombinations(t *testing.T) {
	kinds := []metadata.RelationKind{
		metadata.OwnerToOne, metadata.OneToOwner,
		metadata.ManyToOne, metadata.OneToMany, metadata.ManyToMany,
	}
	for _, k1 := range kinds {
		for _, k2 := range kinds {
			for _, k3 := range kinds {
				a, b, c, d := fixture.ABCD(k1, k2, k3)
				reg := metadata.NewStaticSource([]*metadata.Entity{a, b, c, d})
				idReg := metadata.NewIDPropertyRegistry()
				idReg.WithRelationID("A", "b", "bId").WithRelationID("B", "c", "cId").WithRelationID("C", "d", "dId")
				idReg.WithRelationID("B", "a", "aId").WithRelationID("C", "b", "bId").WithRelationID("D", "c", "cId")

				tree := build(t, querytree.FetchNode{
					Entity: "A",
					Nested: []querytree.FetchNode{{Entity: "B", Nested: []querytree.FetchNode{{Entity: "C"}}}},
				}, reg)
				if _, err := Compile(tree, idReg); err != nil {
					t.Fatalf("Compile(%s,%s,%s): %v", k1, k2, k3, err)
				}
			}
		}
	}
}
