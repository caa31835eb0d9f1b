package querytree

import (
	"testing"

	"graphfetch/internal/fixture"
)

func TestBuild_UnlistedRelationsBecomeIDLeaves(t *testing.T) {
	reg, _ := fixture.ParentChild()

	tree, err := Build(FetchNode{Entity: "Parent"}, reg, NewAliasGen())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if tree.Kind != KindData {
		t.Fatalf("root kind = %v, want data", tree.Kind)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("root children = %d, want 2 (children, related)", len(tree.Children))
	}
	for _, c := range tree.Children {
		if c.Kind != KindIDs {
			t.Errorf("child %s.Kind = %v, want ids (not named in fetch tree)", c.ParentRelation.PropertyName, c.Kind)
		}
	}
}

func TestBuild_NestedRelationBecomesDataChild(t *testing.T) {
	reg, _ := fixture.ParentChild()

	tree, err := Build(FetchNode{
		Entity: "Parent",
		Nested: []FetchNode{{Entity: "Child"}},
	}, reg, NewAliasGen())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var dataChildren, idChildren int
	for _, c := range tree.Children {
		switch c.Kind {
		case KindData:
			dataChildren++
			if c.Meta.Name != "Child" {
				t.Errorf("data child meta = %s, want Child", c.Meta.Name)
			}
		case KindIDs:
			idChildren++
		}
	}
	// Parent has two relations to Child's table ("children" and "related");
	// both match the single nested fetch tree entry on table name, so both
	// become data children.
	if dataChildren != 2 || idChildren != 0 {
		t.Fatalf("dataChildren=%d idChildren=%d, want 2/0", dataChildren, idChildren)
	}
}

func TestBuild_AliasesAreUniqueWithinTree(t *testing.T) {
	reg, _ := fixture.ParentChild()

	tree, err := Build(FetchNode{
		Entity: "Parent",
		Nested: []FetchNode{{Entity: "Child"}},
	}, reg, NewAliasGen())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	seen := map[string]bool{}
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen[n.Alias] {
			t.Fatalf("duplicate alias %s", n.Alias)
		}
		seen[n.Alias] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree)
	if len(seen) == 0 {
		t.Fatal("expected at least the root alias")
	}
}

func TestBuild_UnknownEntityIsSchemaError(t *testing.T) {
	reg, _ := fixture.ParentChild()
	if _, err := Build(FetchNode{Entity: "Ghost"}, reg, NewAliasGen()); err == nil {
		t.Fatal("expected SchemaError for unknown root entity")
	}
}
