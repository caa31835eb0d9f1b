package sqlcompile

import (
	"fmt"

	"graphfetch/internal/metadata"
	"graphfetch/internal/querytree"
)

// compileIDChild projects a single id (or array of ids) for a relation the
// caller did not ask to fetch as data.
func compileIDChild(n, child *querytree.Node, idReg *metadata.IDPropertyRegistry) (selectExpr, join string, err error) {
	r := child.ParentRelation
	idProp, err := idReg.GetIDPropertyName(n.Meta, r.PropertyName)
	if err != nil {
		return "", "", err
	}

	switch r.Kind {
	case metadata.ManyToOne, metadata.OwnerToOne:
		fkCol, err := r.FKColumn()
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf(`"%s"."%s" AS "%s"`, n.Alias, fkCol, idProp), "", nil

	case metadata.OneToOwner:
		backlink, err := child.Meta.FindRelation(r.InverseSideProperty)
		if err != nil {
			return "", "", err
		}
		fkCol, err := backlink.FKColumn()
		if err != nil {
			return "", "", err
		}
		remotePK, err := pk(child.Meta)
		if err != nil {
			return "", "", err
		}
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", err
		}
		joinAlias := child.Alias + "_join"
		sub := fmt.Sprintf(`SELECT "%s" AS "%s", "%s" AS "__fk" FROM %s`, remotePK, idProp, fkCol, child.Meta.TableName)
		join = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS "%s" ON "%s"."__fk" = "%s"."%s"`, sub, joinAlias, joinAlias, n.Alias, nodePK)
		return fmt.Sprintf(`"%s"."%s" AS "%s"`, joinAlias, idProp, idProp), join, nil

	case metadata.OneToMany:
		backlink, err := child.Meta.FindRelation(r.InverseSideProperty)
		if err != nil {
			return "", "", err
		}
		fkCol, err := backlink.FKColumn()
		if err != nil {
			return "", "", err
		}
		remotePK, err := pk(child.Meta)
		if err != nil {
			return "", "", err
		}
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", err
		}
		joinAlias := child.Alias + "_join"
		sub := fmt.Sprintf(`SELECT json_agg("%s") AS "%s", "%s" AS "__fk" FROM %s GROUP BY "%s"`,
			remotePK, idProp, fkCol, child.Meta.TableName, fkCol)
		join = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS "%s" ON "%s"."__fk" = "%s"."%s"`, sub, joinAlias, joinAlias, n.Alias, nodePK)
		return fmt.Sprintf(`"%s"."%s" AS "%s"`, joinAlias, idProp, idProp), join, nil

	case metadata.ManyToMany:
		j := r.Junction
		if j == nil {
			return "", "", fmt.Errorf("relation %s.%s is many-to-many with no junction metadata", n.Meta.Name, r.PropertyName)
		}
		nodePK, err := pk(n.Meta)
		if err != nil {
			return "", "", err
		}
		joinAlias := child.Alias + "_join"
		sub := fmt.Sprintf(`SELECT json_agg("%s") AS "%s", "%s" AS "__fk" FROM %s GROUP BY "%s"`,
			j.RemoteKey, idProp, j.OwnKey, j.TableName, j.OwnKey)
		join = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS "%s" ON "%s"."__fk" = "%s"."%s"`, sub, joinAlias, joinAlias, n.Alias, nodePK)
		return fmt.Sprintf(`"%s"."%s" AS "%s"`, joinAlias, idProp, idProp), join, nil
	}

	return "", "", fmt.Errorf("unhandled relation kind %q", r.Kind)
}
