package metadata

import "graphfetch/internal/apperr"

// StaticSource is a map-backed, immutable Source: once built it is frozen
// for the rest of the process, matching this module's "schema is static
// per process" assumption — the stored-function cache is keyed by tree
// shape and batch size alone, which only stays valid if the metadata
// feeding the compiler never changes underneath it. It is the reference
// Source the test suite and cmd/graphfetchd build against, as opposed to
// Registry's mutable Load/Put API, which exists for the DB-backed loader
// that populates it before the StaticSource snapshot is taken.
type StaticSource struct {
	entities map[string]*Entity
}

// NewStaticSource freezes entities into a StaticSource, keyed by entity
// name.
func NewStaticSource(entities []*Entity) *StaticSource {
	m := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		m[e.Name] = e
	}
	return &StaticSource{entities: m}
}

// Entity implements Source.
func (s *StaticSource) Entity(name string) (*Entity, error) {
	e, ok := s.entities[name]
	if !ok {
		return nil, apperr.Newf(apperr.SchemaError, "unknown entity: %s", name)
	}
	return e, nil
}
