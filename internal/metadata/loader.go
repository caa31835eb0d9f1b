package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// entityDTO is the on-disk shape of a row in _entities.definition. Relations
// are stored separately so they can reference entities that are inserted in
// any order.
type entityDTO struct {
	Name        string   `json:"name"`
	TableName   string   `json:"table_name"`
	DisplayName string   `json:"display_name"`
	TargetKey   string   `json:"target_key"`
	PKColumn    string   `json:"pk_column"`
	Columns     []Column `json:"columns"`
}

type junctionDTO struct {
	EntityName string `json:"entity_name"`
	TableName  string `json:"table_name"`
	OwnKey     string `json:"own_key"`
	RemoteKey  string `json:"remote_key"`
}

type relationDTO struct {
	EntityName          string       `json:"entity_name"`
	PropertyName        string       `json:"property_name"`
	Kind                RelationKind `json:"kind"`
	InverseEntityName   string       `json:"inverse_entity_name"`
	InverseSideProperty string       `json:"inverse_side_property"`
	IsOwning            bool         `json:"is_owning"`
	JoinColumns         []JoinColumn `json:"join_columns"`
	Junction            *junctionDTO `json:"junction,omitempty"`
	// IDPropertyName is the relation's id-property mapping,
	// persisted alongside the relation itself rather than registered via a
	// separate decorator call, since this module's registry is DB-backed.
	IDPropertyName string `json:"id_property_name,omitempty"`
}

// LoadAll reads every entity and relation definition from the database and
// populates reg, resolving Relation.Inverse / Junction.Entity pointers
// across entities in a second pass (grounded on the two-table
// JSONB definition pattern in the original loader.go, trimmed to just
// entities and relations — rules, state machines, and workflows belong to
// the CRUD engine, not this module). idReg is populated with
// every relation's id-property mapping as it is read, so the registry is
// populated at type definition time, which in this module's case is load
// time, before first use.
func LoadAll(ctx context.Context, pool *pgxpool.Pool, reg *Registry, idReg *IDPropertyRegistry) error {
	entityDTOs, err := loadEntityDTOs(ctx, pool)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	relationDTOs, err := loadRelationDTOs(ctx, pool)
	if err != nil {
		return fmt.Errorf("load relations: %w", err)
	}

	entities := buildEntities(entityDTOs, relationDTOs, idReg)
	out := make([]*Entity, 0, len(entities))
	for _, e := range entities {
		out = append(out, e)
	}
	reg.Load(out)

	log.Printf("Loaded %d entities, %d relations into registry", len(entities), len(relationDTOs))
	return nil
}

// buildEntities wires entityDTOs and relationDTOs into a table of *Entity
// with Relation.Inverse / Junction.Entity pointers resolved, and populates
// idReg as a side effect. Called by the DB-backed LoadAll.
func buildEntities(entityDTOs []entityDTO, relationDTOs []relationDTO, idReg *IDPropertyRegistry) map[string]*Entity {
	entities := make(map[string]*Entity, len(entityDTOs))
	for _, dto := range entityDTOs {
		entities[dto.Name] = &Entity{
			Name:        dto.Name,
			TableName:   dto.TableName,
			DisplayName: dto.DisplayName,
			TargetKey:   dto.TargetKey,
			PKColumn:    dto.PKColumn,
			Columns:     dto.Columns,
		}
	}

	for _, dto := range relationDTOs {
		owner, ok := entities[dto.EntityName]
		if !ok {
			log.Printf("WARN: skipping relation %s.%s: unknown entity", dto.EntityName, dto.PropertyName)
			continue
		}
		inverse, ok := entities[dto.InverseEntityName]
		if !ok {
			log.Printf("WARN: skipping relation %s.%s: unknown inverse entity %s", dto.EntityName, dto.PropertyName, dto.InverseEntityName)
			continue
		}

		rel := Relation{
			PropertyName:        dto.PropertyName,
			Kind:                dto.Kind,
			Inverse:             inverse,
			InverseSideProperty: dto.InverseSideProperty,
			IsOwning:            dto.IsOwning,
			JoinColumns:         dto.JoinColumns,
		}
		if dto.Junction != nil {
			rel.Junction = &Junction{
				Entity:    entities[dto.Junction.EntityName],
				TableName: dto.Junction.TableName,
				OwnKey:    dto.Junction.OwnKey,
				RemoteKey: dto.Junction.RemoteKey,
			}
		}
		owner.Relations = append(owner.Relations, rel)

		if dto.IDPropertyName != "" {
			idReg.WithRelationID(dto.EntityName, dto.PropertyName, dto.IDPropertyName)
		}
	}

	return entities
}

// Reload is an alias for LoadAll, called after schema changes.
func Reload(ctx context.Context, pool *pgxpool.Pool, reg *Registry, idReg *IDPropertyRegistry) error {
	return LoadAll(ctx, pool, reg, idReg)
}

func loadEntityDTOs(ctx context.Context, pool *pgxpool.Pool) ([]entityDTO, error) {
	rows, err := pool.Query(ctx, "SELECT definition FROM _entities ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entityDTO
	for rows.Next() {
		var defJSON []byte
		if err := rows.Scan(&defJSON); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		var dto entityDTO
		if err := json.Unmarshal(defJSON, &dto); err != nil {
			log.Printf("WARN: skipping entity definition (invalid JSON): %v", err)
			continue
		}
		out = append(out, dto)
	}
	return out, rows.Err()
}

func loadRelationDTOs(ctx context.Context, pool *pgxpool.Pool) ([]relationDTO, error) {
	rows, err := pool.Query(ctx, "SELECT definition FROM _relations ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []relationDTO
	for rows.Next() {
		var defJSON []byte
		if err := rows.Scan(&defJSON); err != nil {
			return nil, fmt.Errorf("scan relation row: %w", err)
		}
		var dto relationDTO
		if err := json.Unmarshal(defJSON, &dto); err != nil {
			log.Printf("WARN: skipping relation definition (invalid JSON): %v", err)
			continue
		}
		out = append(out, dto)
	}
	return out, rows.Err()
}
