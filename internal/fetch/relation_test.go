package fetch

import (
	"testing"

	"graphfetch/internal/fixture"
	"graphfetch/internal/metadata"
)

func TestFindDirectRelationManyToMany(t *testing.T) {
	reg, _ := fixture.ParentChild()
	parent, _ := reg.Entity("Parent")
	child, _ := reg.Entity("Child")

	e, err := findDirectRelation(parent, child)
	if err != nil {
		t.Fatalf("findDirectRelation: %v", err)
	}
	if e.rel.Kind != metadata.ManyToMany {
		t.Fatalf("expected many-to-many, got %s", e.rel.Kind)
	}
	if e.owner.Name != "Parent" {
		t.Fatalf("expected Parent to own the \"related\" relation, got owner %s", e.owner.Name)
	}

	ownerID, otherID := resolveIDs(e, parent, EntityID{Type: "Parent", ID: "7"}, EntityID{Type: "Child", ID: "9"})
	if ownerID != "7" || otherID != "9" {
		t.Fatalf("resolveIDs = (%s, %s), want (7, 9)", ownerID, otherID)
	}

	// Reversed caller order must still resolve the same owner/other split.
	ownerID, otherID = resolveIDs(e, child, EntityID{Type: "Child", ID: "9"}, EntityID{Type: "Parent", ID: "7"})
	if ownerID != "7" || otherID != "9" {
		t.Fatalf("resolveIDs (reversed) = (%s, %s), want (7, 9)", ownerID, otherID)
	}
}

func TestFindDirectRelationManyToOne(t *testing.T) {
	reg, _ := fixture.ParentChild()
	parent, _ := reg.Entity("Parent")
	child, _ := reg.Entity("Child")

	e, err := findDirectRelation(child, parent)
	if err != nil {
		t.Fatalf("findDirectRelation: %v", err)
	}
	if e.rel.Kind != metadata.ManyToOne {
		t.Fatalf("expected many-to-one (Child owns parent_id), got %s", e.rel.Kind)
	}
	if e.owner.Name != "Child" {
		t.Fatalf("expected Child to own the FK, got owner %s", e.owner.Name)
	}
}

func TestFindDirectRelationUnrelatedEntities(t *testing.T) {
	a, b, _, _ := fixture.ABCD(metadata.ManyToOne, metadata.ManyToOne, metadata.ManyToOne)
	// A and B are directly related; construct an entity with no relation to A.
	unrelated := &metadata.Entity{Name: "Z", TableName: "zs", PKColumn: "id"}
	if _, err := findDirectRelation(a, unrelated); err == nil {
		t.Fatal("expected SchemaError for unrelated entities")
	}
	if _, err := findDirectRelation(a, b); err != nil {
		t.Fatalf("expected a direct relation between A and B: %v", err)
	}
}
