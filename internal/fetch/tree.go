// Package fetch implements the entity graph executor & batcher, plus the
// setRelation/removeRelation collaborators, grounded on the
// internal/engine.Handler dependency-holding pattern.
package fetch

import "graphfetch/internal/querytree"

// Tree is the caller-supplied fetch tree; it is a type alias for
// querytree.FetchNode so callers and the query tree builder share one type
// rather than requiring a conversion step at the package boundary.
type Tree = querytree.FetchNode

// EntityID names one row of one registered entity type, the shape
// setRelation/removeRelation operate on.
type EntityID struct {
	Type string
	ID   string
}

// RelationPair is one (from, to) edge removeRelation is asked to sever.
type RelationPair struct {
	From EntityID
	To   EntityID
}
