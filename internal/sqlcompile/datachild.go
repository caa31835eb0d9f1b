package sqlcompile

import (
	"fmt"

	"graphfetch/internal/metadata"
	"graphfetch/internal/querytree"
)

// compileDataChild recursively compiles child's own subtree and wraps it in
// the lateral aggregation shape appropriate to the relation kind linking it
// to n.
func compileDataChild(n, child *querytree.Node, idReg *metadata.IDPropertyRegistry) (selectExpr, join string, err error) {
	sub, err := compileNode(child, idReg)
	if err != nil {
		return "", "", err
	}
	r := child.ParentRelation

	switch r.Kind {
	case metadata.ManyToOne, metadata.OwnerToOne:
		fkCol, err := r.FKColumn()
		if err != nil {
			return "", "", err
		}
		remotePK, err := pk(child.Meta)
		if err != nil {
			return "", "", err
		}
		joinAlias := child.Alias + "_j"
		inline := fmt.Sprintf(`SELECT row_to_json(t) AS "%s", t."%s" AS "%s" FROM (%s) AS t`, r.PropertyName, remotePK, remotePK, sub)
		join = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS "%s" ON "%s"."%s" = "%s"."%s"`, inline, joinAlias, joinAlias, remotePK, n.Alias, fkCol)
		return fmt.Sprintf(`"%s"."%s" AS "%s"`, joinAlias, r.PropertyName, r.PropertyName), join, nil

	case metadata.OneToOwner:
		backlink, err := child.Meta.FindRelation(r.InverseSideProperty)
		if err != nil {
			return "", "", err
		}
		idProp, err := idReg.GetIDPropertyName(child.Meta, backlink.PropertyName)
		if err != nil {
			return "", "", err
		}
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", err
		}
		joinAlias := child.Alias + "_j"
		inline := fmt.Sprintf(`SELECT row_to_json(t) AS "%s", t."%s" AS "%s" FROM (%s) AS t`, r.PropertyName, idProp, idProp, sub)
		join = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS "%s" ON "%s"."%s" = "%s"."%s"`, inline, joinAlias, joinAlias, idProp, n.Alias, nodePK)
		return fmt.Sprintf(`"%s"."%s" AS "%s"`, joinAlias, r.PropertyName, r.PropertyName), join, nil

	case metadata.OneToMany:
		backlink, err := child.Meta.FindRelation(r.InverseSideProperty)
		if err != nil {
			return "", "", err
		}
		idProp, err := idReg.GetIDPropertyName(child.Meta, backlink.PropertyName)
		if err != nil {
			return "", "", err
		}
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", err
		}
		joinAlias := child.Alias + "_j"
		innerAlias := "t"
		aAlias := "a"
		inner := fmt.Sprintf(`SELECT %s."%s" AS "%s", row_to_json(%s) AS "rel" FROM (%s) AS %s`, innerAlias, idProp, idProp, innerAlias, sub, innerAlias)
		agg := fmt.Sprintf(`SELECT json_agg(%s."rel") AS "rel", %s."%s" AS "%s" FROM (%s) AS %s WHERE %s."%s" = "%s"."%s" GROUP BY %s."%s"`,
			aAlias, aAlias, idProp, idProp, inner, aAlias, aAlias, idProp, n.Alias, nodePK, aAlias, idProp)
		join = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS "%s" ON "%s"."%s" = "%s"."%s"`, agg, joinAlias, joinAlias, idProp, n.Alias, nodePK)
		return fmt.Sprintf(`"%s"."rel" AS "%s"`, joinAlias, r.PropertyName), join, nil

	case metadata.ManyToMany:
		if r.Junction == nil {
			return "", "", fmt.Errorf("relation %s.%s is many-to-many with no junction metadata", n.Meta.Name, r.PropertyName)
		}
		ownKey := r.Junction.OwnKey
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", err
		}
		joinAlias := child.Alias + "_j"
		aAlias := "a"
		agg := fmt.Sprintf(`SELECT json_agg(row_to_json(%s)) AS "rel", %s."%s" AS "%s" FROM (%s) AS %s GROUP BY %s."%s"`,
			aAlias, aAlias, ownKey, ownKey, sub, aAlias, aAlias, ownKey)
		join = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS "%s" ON "%s"."%s" = "%s"."%s"`, agg, joinAlias, joinAlias, ownKey, n.Alias, nodePK)
		return fmt.Sprintf(`"%s"."rel" AS "%s"`, joinAlias, r.PropertyName), join, nil
	}

	return "", "", fmt.Errorf("unhandled relation kind %q", r.Kind)
}
