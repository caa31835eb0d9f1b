// Package hydrate walks a fetched JSON row alongside the query tree that
// produced it, applying the per-node fixups this describes: column
// value conversion, to-one/to-many id-child cleanup, and recursive
// data-child cleanup (including stripping many-to-many junction helper
// columns used only for SQL-side grouping).
package hydrate

import (
	"sort"

	"graphfetch/internal/apperr"
	"graphfetch/internal/metadata"
	"graphfetch/internal/querytree"
)

// Row mutates row in place to match the contract, recursing into
// nested data children. idReg resolves the same id-property names the SQL
// compiler used when projecting id children (internal/sqlcompile/idchild.go).
func Row(node *querytree.Node, row map[string]any, idReg *metadata.IDPropertyRegistry, convert ColumnConverter) error {
	for _, col := range node.Meta.Columns {
		if v, ok := row[col.PropertyName]; ok {
			row[col.PropertyName] = convert.Convert(col.Type, v)
		}
	}

	for _, child := range node.Children {
		r := child.ParentRelation
		switch child.Kind {
		case querytree.KindIDs:
			if err := hydrateIDChild(node, child, row, idReg); err != nil {
				return err
			}
		case querytree.KindData:
			if err := hydrateDataChild(r, child, row, idReg, convert); err != nil {
				return err
			}
		}
	}
	return nil
}

func hydrateIDChild(node, child *querytree.Node, row map[string]any, idReg *metadata.IDPropertyRegistry) error {
	r := child.ParentRelation
	idProp, err := idReg.GetIDPropertyName(node.Meta, r.PropertyName)
	if err != nil {
		return err
	}

	if !r.Kind.IsToMany() {
		if row[idProp] == nil {
			delete(row, idProp)
		}
		return nil
	}

	row[idProp] = sortedNonNullIDs(row[idProp])
	return nil
}

func hydrateDataChild(r *metadata.Relation, child *querytree.Node, row map[string]any, idReg *metadata.IDPropertyRegistry, convert ColumnConverter) error {
	if !r.Kind.IsToMany() {
		v := row[r.PropertyName]
		if v == nil {
			delete(row, r.PropertyName)
			return nil
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return apperr.Newf(apperr.ImplementationError, "data child %q is not a JSON object: %T", r.PropertyName, v)
		}
		return Row(child, obj, idReg, convert)
	}

	raw, _ := row[r.PropertyName].([]any)
	entries := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return apperr.Newf(apperr.ImplementationError, "data child %q array element is not a JSON object: %T", r.PropertyName, item)
		}
		if err := Row(child, obj, idReg, convert); err != nil {
			return err
		}
		if r.Kind == metadata.ManyToMany && r.Junction != nil {
			delete(obj, r.Junction.OwnKey)
		}
		entries = append(entries, obj)
	}

	pkProp := child.Meta.PrimaryKeyProperty()
	sort.SliceStable(entries, func(i, j int) bool {
		return lessAsc(entries[i][pkProp], entries[j][pkProp])
	})

	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	row[r.PropertyName] = out
	return nil
}

// sortedNonNullIDs implements the "(value || []).filter(isNotNull).sort(asc)".
func sortedNonNullIDs(v any) []any {
	raw, _ := v.([]any)
	out := make([]any, 0, len(raw))
	for _, item := range raw {
		if item != nil {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return lessAsc(out[i], out[j]) })
	return out
}

func lessAsc(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return as < bs
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
