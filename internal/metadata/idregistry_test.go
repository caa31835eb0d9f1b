package metadata

import "testing"

func TestIDPropertyRegistry_RoundTrip(t *testing.T) {
	reg := NewIDPropertyRegistry()
	reg.WithRelationID("Related", "related", "absolutelyUnrelated")

	entity := &Entity{Name: "Related", TableName: "related"}

	got, err := reg.GetIDPropertyName(entity, "related")
	if err != nil {
		t.Fatalf("GetIDPropertyName: %v", err)
	}
	if got != "absolutelyUnrelated" {
		t.Fatalf("got %q, want absolutelyUnrelated", got)
	}

	// Second read should hit the tableName-keyed cache.
	got2, err := reg.GetIDPropertyName(entity, "related")
	if err != nil || got2 != got {
		t.Fatalf("cached read mismatch: %q, %v", got2, err)
	}
}

func TestIDPropertyRegistry_UnknownIsSchemaError(t *testing.T) {
	reg := NewIDPropertyRegistry()
	entity := &Entity{Name: "Ghost", TableName: "ghosts"}
	if _, err := reg.GetIDPropertyName(entity, "whatever"); err == nil {
		t.Fatal("expected SchemaError for unmapped entity")
	}
}

func TestIDPropertyRegistry_Reset(t *testing.T) {
	reg := NewIDPropertyRegistry()
	reg.WithRelationID("Related", "related", "absolutelyUnrelated")
	entity := &Entity{Name: "Related", TableName: "related"}
	if _, err := reg.GetIDPropertyName(entity, "related"); err != nil {
		t.Fatalf("expected mapping before reset: %v", err)
	}

	reg.Reset()
	if _, err := reg.GetIDPropertyName(entity, "related"); err == nil {
		t.Fatal("expected mapping to be gone after Reset")
	}
}
