package fetch

import (
	"context"

	"graphfetch/internal/apperr"
	"graphfetch/internal/dbconn"
	"graphfetch/internal/fnstore"
	"graphfetch/internal/hydrate"
	"graphfetch/internal/metadata"
	"graphfetch/internal/querytree"
	"graphfetch/internal/sqlcompile"
	"graphfetch/internal/treehash"
)

// Fetcher holds the schema-metadata dependencies every public operation
// needs, mirroring the Handler{store, registry} shape
// (internal/engine/handler.go) rather than threading them through every
// call.
type Fetcher struct {
	Src      metadata.Source
	IDs      *metadata.IDPropertyRegistry
	Convert  hydrate.ColumnConverter
	IsDevEnv bool
}

// NewFetcher wires the schema source, id-property registry, and value
// converter a deployment needs to run the whole pipeline.
func NewFetcher(src metadata.Source, idReg *metadata.IDPropertyRegistry, convert hydrate.ColumnConverter, isDevEnv bool) *Fetcher {
	return &Fetcher{Src: src, IDs: idReg, Convert: convert, IsDevEnv: isDevEnv}
}

// Entities is the public executor & batcher contract: it
// builds the query tree once, compiles it once, then runs one stored
// function call per batch of at most fnstore.MaxFnArguments ids, hydrates
// every returned row, and returns them in the caller's requested order.
func (f *Fetcher) Entities(ctx context.Context, db dbconn.Querier, tree Tree, ids []string, onRequest func()) ([]map[string]any, error) {
	if len(ids) == 0 {
		return []map[string]any{}, nil
	}

	parsedIDs, err := parseIDs(ids, f.IsDevEnv)
	if err != nil {
		return nil, err
	}
	uniqueIDs := dedupe(parsedIDs)

	aliases := querytree.NewAliasGen()
	root, err := querytree.Build(tree, f.Src, aliases)
	if err != nil {
		return nil, err
	}
	compiledSQL, err := sqlcompile.Compile(root, f.IDs)
	if err != nil {
		return nil, err
	}
	hash := treehash.Hash(root)
	pkProp := root.Meta.PrimaryKeyProperty()

	active, commit, rollback, err := beginIfLarge(ctx, db, len(uniqueIDs))
	if err != nil {
		return nil, err
	}

	rows, err := f.runBatches(ctx, active, root.Meta.TableName, hash, compiledSQL, uniqueIDs, onRequest)
	if err != nil {
		if rollback != nil {
			rollback(ctx)
		}
		return nil, err
	}
	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, apperr.Wrap(apperr.DatabaseError, "commit batched fetch transaction", err)
		}
	}

	for _, row := range rows {
		if err := hydrate.Row(root, row, f.IDs, f.Convert); err != nil {
			return nil, err
		}
	}

	return sortByRequestOrder(rows, pkProp, parsedIDs), nil
}

func (f *Fetcher) runBatches(ctx context.Context, db dbconn.Querier, rootTable, hash, compiledSQL string, uniqueIDs []int64, onRequest func()) ([]map[string]any, error) {
	isTx := isTxActive(db)
	cache := fnstore.NewCache(db, isTx, f.IsDevEnv)

	var all []map[string]any
	for _, batch := range batches(uniqueIDs, fnstore.MaxFnArguments) {
		if onRequest != nil {
			onRequest()
		}
		rows, err := cache.Invoke(ctx, rootTable, hash, compiledSQL, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}
