package fetch

import (
	"context"
	"fmt"

	"graphfetch/internal/apperr"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/metadata"
)

// edge identifies a direct relation between two entities and which side
// owns it, resolved once by findDirectRelation and reused by both
// SetRelation and RemoveRelation.
type edge struct {
	owner *metadata.Entity
	other *metadata.Entity
	rel   *metadata.Relation // declared on owner, pointing at other
}

// findDirectRelation locates the relation connecting fromEntity and
// toEntity regardless of which side declares it, and reports the owning
// side, matching the "find a direct relation from from.type to
// to.type... assign on the owning side."
func findDirectRelation(fromEntity, toEntity *metadata.Entity) (*edge, error) {
	for i := range fromEntity.Relations {
		r := &fromEntity.Relations[i]
		if r.Inverse != nil && r.Inverse.TableName == toEntity.TableName && (r.IsOwning || r.Kind == metadata.ManyToMany) {
			return &edge{owner: fromEntity, other: toEntity, rel: r}, nil
		}
	}
	for i := range toEntity.Relations {
		r := &toEntity.Relations[i]
		if r.Inverse != nil && r.Inverse.TableName == fromEntity.TableName && (r.IsOwning || r.Kind == metadata.ManyToMany) {
			return &edge{owner: toEntity, other: fromEntity, rel: r}, nil
		}
	}
	return nil, apperr.Newf(apperr.SchemaError, "no direct relation from %s to %s", fromEntity.Name, toEntity.Name)
}

// SetRelation assigns to onto from's entity type's relation to to's entity
// type, on the owning side, appending for many-to-many.
func (f *Fetcher) SetRelation(ctx context.Context, db dbconn.Querier, from, to EntityID) error {
	fromEntity, err := f.Src.Entity(from.Type)
	if err != nil {
		return err
	}
	toEntity, err := f.Src.Entity(to.Type)
	if err != nil {
		return err
	}
	e, err := findDirectRelation(fromEntity, toEntity)
	if err != nil {
		return err
	}

	ownerID, otherID := resolveIDs(e, fromEntity, from, to)
	if err := mustExist(ctx, db, e.owner, ownerID); err != nil {
		return err
	}
	if err := mustExist(ctx, db, e.other, otherID); err != nil {
		return err
	}

	if e.rel.Kind == metadata.ManyToMany {
		j := e.rel.Junction
		sql := fmt.Sprintf(
			`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			j.TableName, j.OwnKey, j.RemoteKey,
		)
		if _, err := db.Exec(ctx, sql, ownerID, otherID); err != nil {
			return apperr.Wrap(apperr.DatabaseError, "insert junction row", err)
		}
		return nil
	}

	fkCol, err := e.rel.FKColumn()
	if err != nil {
		return err
	}
	pk, err := e.owner.PrimaryKey()
	if err != nil {
		return err
	}
	sql := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2`, e.owner.TableName, fkCol, pk)
	if _, err := db.Exec(ctx, sql, otherID, ownerID); err != nil {
		return apperr.Wrap(apperr.DatabaseError, "assign relation", err)
	}
	return nil
}

// resolveIDs maps (from, to) EntityIDs onto (ownerID, otherID): e.owner is
// one of fromEntity/toEntity by table identity, and fromEntity was resolved
// from from.Type, so comparing table names tells us which caller-supplied
// id is the owner's.
func resolveIDs(e *edge, fromEntity *metadata.Entity, from, to EntityID) (ownerID, otherID string) {
	if e.owner.TableName == fromEntity.TableName {
		return from.ID, to.ID
	}
	return to.ID, from.ID
}

// mustExist confirms a row with the given id exists in entity's table,
// surfacing apperr.NotFound otherwise.
func mustExist(ctx context.Context, db dbconn.Querier, entity *metadata.Entity, id string) error {
	pk, err := entity.PrimaryKey()
	if err != nil {
		return err
	}
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, pk, entity.TableName, pk)
	_, err = db.Row(ctx, sql, id)
	if err != nil {
		if err == dbconn.ErrNotFound {
			return apperr.Newf(apperr.NotFound, "%s %s not found", entity.Name, id)
		}
		return apperr.Wrap(apperr.DatabaseError, "check existence", err)
	}
	return nil
}
