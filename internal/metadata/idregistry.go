package metadata

import (
	"sync"

	"graphfetch/internal/apperr"
)

// IDPropertyRegistry is the process-wide map of relation id-property
// names: many relation-id columns surface under a property name that does
// not follow any fixed convention, so callers register the mapping once
// at type definition time and the compiler/hydrator consult it for the
// rest of the process's life.
//
// Entries are keyed by entity name at write time. Reads are keyed by the
// entity's table name; the first read for a given entity lazily derives
// and caches a tableName-keyed copy.
type IDPropertyRegistry struct {
	mu         sync.RWMutex
	byEntity   map[string]map[string]string // entity name -> relation property -> id property
	tableCache map[string]map[string]string // table name -> relation property -> id property
}

// NewIDPropertyRegistry returns an empty registry.
func NewIDPropertyRegistry() *IDPropertyRegistry {
	return &IDPropertyRegistry{}
}

// WithRelationID records that idProperty is the id-projection of the
// relation named relationProperty on the entity named entityName. Returns
// the receiver so registrations can be chained, matching the
// redesign note ("Schema::with_relation_id(entity_type, relation_property,
// id_property)").
func (r *IDPropertyRegistry) WithRelationID(entityName, relationProperty, idProperty string) *IDPropertyRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byEntity == nil {
		r.byEntity = make(map[string]map[string]string)
	}
	m := r.byEntity[entityName]
	if m == nil {
		m = make(map[string]string)
		r.byEntity[entityName] = m
	}
	m[relationProperty] = idProperty
	// WithRelationID only ever sees entityName, not the entity's table
	// name, so it cannot selectively evict this entity's derived cache
	// entry (GetIDPropertyName keys tableCache by entity.TableName).
	// Drop the whole derived cache instead; it is cheaply rebuilt on next
	// read and registration is a write-once, start-of-process operation,
	// not a hot path.
	r.tableCache = nil
	return r
}

// GetIDPropertyName returns the id-property name for entity.Relation
// relationProperty. SchemaError if the entity was never registered or the
// relation has no mapping.
func (r *IDPropertyRegistry) GetIDPropertyName(entity *Entity, relationProperty string) (string, error) {
	r.mu.RLock()
	if tbl, ok := r.tableCache[entity.TableName]; ok {
		idProp, ok := tbl[relationProperty]
		r.mu.RUnlock()
		if !ok {
			return "", apperr.Newf(apperr.SchemaError, "no id-property mapping for %s.%s", entity.Name, relationProperty)
		}
		return idProp, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tableCache == nil {
		r.tableCache = make(map[string]map[string]string)
	}
	derived := make(map[string]string, len(r.byEntity[entity.Name]))
	for k, v := range r.byEntity[entity.Name] {
		derived[k] = v
	}
	r.tableCache[entity.TableName] = derived

	idProp, ok := derived[relationProperty]
	if !ok {
		return "", apperr.Newf(apperr.SchemaError, "no id-property mapping for %s.%s", entity.Name, relationProperty)
	}
	return idProp, nil
}

// Reset clears both the explicit registrations and the derived cache. It is
// a testing hook only; callers must guarantee no concurrent readers during
// the reset.
func (r *IDPropertyRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEntity = nil
	r.tableCache = nil
}
