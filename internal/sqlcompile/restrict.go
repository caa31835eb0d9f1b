package sqlcompile

import (
	"fmt"

	"graphfetch/internal/metadata"
	"graphfetch/internal/querytree"
)

// parentRestriction builds the non-select clauses that scope n's rows to
// its parent. It returns the
// WHERE fragment, an optional extra JOIN, and — for the many-to-many case
// only — an extra own-side junction-key column that must be added to n's
// own SELECT list so that a many-to-many data-child wrapper higher up the
// tree can group by it.
func parentRestriction(n *querytree.Node) (where, join, extraSelect string, err error) {
	if n.Parent == nil {
		rootPK, err := pk(n.Meta)
		if err != nil {
			return "", "", "", err
		}
		return fmt.Sprintf(`"%s"."%s" IN (%s)`, n.Alias, rootPK, IDsPlaceholder), "", "", nil
	}

	r := n.ParentRelation
	p := n.Parent

	switch r.Kind {
	case metadata.ManyToOne, metadata.OwnerToOne:
		fkCol, err := r.FKColumn()
		if err != nil {
			return "", "", "", err
		}
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", "", err
		}
		where = fmt.Sprintf(`"%s"."%s" = "%s"."%s"`, n.Alias, nodePK, p.Alias, fkCol)
		return where, "", "", nil

	case metadata.OneToOwner, metadata.OneToMany:
		backlink, err := n.Meta.FindRelation(r.InverseSideProperty)
		if err != nil {
			return "", "", "", err
		}
		fkCol, err := backlink.FKColumn()
		if err != nil {
			return "", "", "", err
		}
		parentPK, err := pk(p.Meta)
		if err != nil {
			return "", "", "", err
		}
		where = fmt.Sprintf(`"%s"."%s" = "%s"."%s"`, n.Alias, fkCol, p.Alias, parentPK)
		return where, "", "", nil

	case metadata.ManyToMany:
		j := r.Junction
		if j == nil {
			return "", "", "", fmt.Errorf("relation %s.%s is many-to-many with no junction metadata", p.Meta.Name, r.PropertyName)
		}
		junctionAlias := fmt.Sprintf("%s_%s_junction", p.Alias, n.Alias)
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", "", err
		}
		parentPK, err := pk(p.Meta)
		if err != nil {
			return "", "", "", err
		}
		join = fmt.Sprintf(`LEFT JOIN %s AS "%s" ON "%s"."%s" = "%s"."%s"`,
			j.TableName, junctionAlias, junctionAlias, j.RemoteKey, n.Alias, nodePK)
		where = fmt.Sprintf(`"%s"."%s" = "%s"."%s"`, junctionAlias, j.OwnKey, p.Alias, parentPK)
		extraSelect = fmt.Sprintf(`"%s"."%s" AS "%s"`, junctionAlias, j.OwnKey, j.OwnKey)
		return where, join, extraSelect, nil
	}

	return "", "", "", fmt.Errorf("unhandled relation kind %q", r.Kind)
}
