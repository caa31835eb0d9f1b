package querytree

import (
	"graphfetch/internal/apperr"
	"graphfetch/internal/metadata"
)

// Build turns a caller fetch tree into a fully-expanded query tree rooted at
// a KindData node. aliases must be fresh for this call: alias
// numbering is deterministic only within one tree.
func Build(root FetchNode, src metadata.Source, aliases *AliasGen) (*Node, error) {
	entity, err := src.Entity(root.Entity)
	if err != nil {
		return nil, err
	}
	return buildData(entity, root.Nested, src, aliases, nil)
}

func buildData(entity *metadata.Entity, nested []FetchNode, src metadata.Source, aliases *AliasGen, parentRel *metadata.Relation) (*Node, error) {
	node := &Node{
		Kind:           KindData,
		Alias:          aliases.Next(),
		Meta:           entity,
		ParentRelation: parentRel,
	}

	for i := range entity.Relations {
		r := &entity.Relations[i]
		if r.Inverse == nil {
			return nil, apperr.Newf(apperr.SchemaError, "relation %s.%s has no inverse entity metadata", entity.Name, r.PropertyName)
		}

		matched, childEntity, err := findNestedMatch(nested, r.Inverse.TableName, src)
		if err != nil {
			return nil, err
		}

		if matched == nil {
			node.Children = append(node.Children, &Node{
				Kind:           KindIDs,
				Alias:          aliases.Next(),
				Meta:           r.Inverse,
				Parent:         node,
				ParentRelation: r,
			})
			continue
		}

		child, err := buildData(childEntity, matched.Nested, src, aliases, r)
		if err != nil {
			return nil, err
		}
		child.Parent = node
		node.Children = append(node.Children, child)
	}

	return node, nil
}

// findNestedMatch locates the fetch tree child whose entity's table matches
// inverseTable, per the "locate a child in F.nested whose type's
// table matches r.inverseEntityMetadata.tableName."
func findNestedMatch(nested []FetchNode, inverseTable string, src metadata.Source) (*FetchNode, *metadata.Entity, error) {
	for i := range nested {
		e, err := src.Entity(nested[i].Entity)
		if err != nil {
			return nil, nil, err
		}
		if e.TableName == inverseTable {
			return &nested[i], e, nil
		}
	}
	return nil, nil, nil
}
