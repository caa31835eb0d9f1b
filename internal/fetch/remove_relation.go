package fetch

import (
	"context"
	"fmt"
	"strings"

	"graphfetch/internal/apperr"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/metadata"
)

// severance is one resolved RelationPair: which table/column to null (local)
// or which junction row to delete (junction), per the
// classification of each relation change.
type severance struct {
	rel     *metadata.Relation
	owner   *metadata.Entity
	ownerID string
	otherID string
}

// RemoveRelation verifies every referenced entity exists, then severs each
// pair: nulling the owning FK for local relations or deleting the junction
// row for many-to-many, grouping by table to minimize round trips, and
// running under REPEATABLE READ when no transaction is already active
//.
func (f *Fetcher) RemoveRelation(ctx context.Context, db dbconn.Querier, pairs []RelationPair) error {
	if len(pairs) == 0 {
		return nil
	}

	severances := make([]severance, 0, len(pairs))
	existenceByTable := make(map[string]map[string]*metadata.Entity)
	for _, p := range pairs {
		fromEntity, err := f.Src.Entity(p.From.Type)
		if err != nil {
			return err
		}
		toEntity, err := f.Src.Entity(p.To.Type)
		if err != nil {
			return err
		}
		e, err := findDirectRelation(fromEntity, toEntity)
		if err != nil {
			return err
		}
		ownerID, otherID := resolveIDs(e, fromEntity, p.From, p.To)
		severances = append(severances, severance{rel: e.rel, owner: e.owner, ownerID: ownerID, otherID: otherID})

		addExistenceCheck(existenceByTable, e.owner, ownerID)
		addExistenceCheck(existenceByTable, e.other, otherID)
	}

	if err := verifyAllExist(ctx, db, existenceByTable); err != nil {
		return err
	}

	active, commit, rollback, err := beginRepeatableRead(ctx, db)
	if err != nil {
		return err
	}

	if err := applySeverances(ctx, active, severances); err != nil {
		if rollback != nil {
			rollback(ctx)
		}
		return err
	}
	if commit != nil {
		if err := commit(ctx); err != nil {
			return apperr.Wrap(apperr.DatabaseError, "commit removeRelation transaction", err)
		}
	}
	return nil
}

// addExistenceCheck records that entity's table must contain id, batched
// per the "verify all referenced entities exist (batched by
// table)."
func addExistenceCheck(byTable map[string]map[string]*metadata.Entity, entity *metadata.Entity, id string) {
	ids, ok := byTable[entity.TableName]
	if !ok {
		ids = make(map[string]*metadata.Entity)
		byTable[entity.TableName] = ids
	}
	ids[id] = entity
}

func verifyAllExist(ctx context.Context, db dbconn.Querier, byTable map[string]map[string]*metadata.Entity) error {
	for table, ids := range byTable {
		var entity *metadata.Entity
		idList := make([]string, 0, len(ids))
		for id, e := range ids {
			entity = e
			idList = append(idList, id)
		}
		pk, err := entity.PrimaryKey()
		if err != nil {
			return err
		}
		sql := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`, pk, table, pk)
		rows, err := db.Rows(ctx, sql, idList)
		if err != nil {
			return apperr.Wrap(apperr.DatabaseError, "verify entities exist", err)
		}
		if len(rows) != len(idList) {
			return apperr.Newf(apperr.NotFound, "one or more %s ids not found", entity.Name)
		}
	}
	return nil
}

// applySeverances groups local (to-one FK) updates by owner table+column
// and junction deletes by junction table, then issues one statement per
// group.
func applySeverances(ctx context.Context, db dbconn.Querier, severances []severance) error {
	type localKey struct {
		table, fkCol, pk string
	}
	localGroups := make(map[localKey][]string)
	junctionGroups := make(map[string][][2]string)
	junctionMeta := make(map[string]*metadata.Junction)

	for _, s := range severances {
		if s.rel.Kind == metadata.ManyToMany {
			j := s.rel.Junction
			junctionGroups[j.TableName] = append(junctionGroups[j.TableName], [2]string{s.ownerID, s.otherID})
			junctionMeta[j.TableName] = j
			continue
		}
		fkCol, err := s.rel.FKColumn()
		if err != nil {
			return err
		}
		pk, err := s.owner.PrimaryKey()
		if err != nil {
			return err
		}
		key := localKey{table: s.owner.TableName, fkCol: fkCol, pk: pk}
		localGroups[key] = append(localGroups[key], s.ownerID)
	}

	for key, ids := range localGroups {
		sql := fmt.Sprintf(`UPDATE %s SET %s = NULL WHERE %s = ANY($1)`, key.table, key.fkCol, key.pk)
		if _, err := db.Exec(ctx, sql, ids); err != nil {
			return apperr.Wrap(apperr.DatabaseError, "null owning FK", err)
		}
	}

	for table, pairs := range junctionGroups {
		// Junction tables have no single-column PK to ANY() against, so the
		// delete is a VALUES-list membership test over the composite key.
		j := junctionMeta[table]
		placeholders := make([]string, len(pairs))
		args := make([]any, 0, len(pairs)*2)
		for i, p := range pairs {
			placeholders[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
			args = append(args, p[0], p[1])
		}
		sql := fmt.Sprintf(`DELETE FROM %s t USING (VALUES %s) AS v(own_key, remote_key) WHERE t.%s = v.own_key AND t.%s = v.remote_key`,
			table, strings.Join(placeholders, ", "), j.OwnKey, j.RemoteKey)
		if _, err := db.Exec(ctx, sql, args...); err != nil {
			return apperr.Wrap(apperr.DatabaseError, "delete junction rows", err)
		}
	}
	return nil
}

// beginRepeatableRead opens a REPEATABLE READ transaction unless db is
// already inside one. Returns nil commit/rollback when no transaction was
// opened here.
func beginRepeatableRead(ctx context.Context, db dbconn.Querier) (dbconn.Querier, func(context.Context) error, func(context.Context), error) {
	if isTxActive(db) {
		return db, nil, nil, nil
	}
	beginner, ok := db.(txBeginner)
	if !ok {
		return db, nil, nil, nil
	}
	tx, err := beginner.BeginTx(ctx)
	if err != nil {
		return nil, nil, nil, apperr.Wrap(apperr.DatabaseError, "begin removeRelation transaction", err)
	}
	if _, err := tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ"); err != nil {
		tx.Rollback(ctx)
		return nil, nil, nil, apperr.Wrap(apperr.DatabaseError, "set isolation level", err)
	}
	commit := func(ctx context.Context) error { return tx.Commit(ctx) }
	rollback := func(ctx context.Context) { tx.Rollback(ctx) }
	return tx, commit, rollback, nil
}
