package translate

import (
	"fmt"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/identifier"
	"github.com/roach88/labsearch/internal/joins"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

type identifierTranslator struct{}

func (identifierTranslator) PlanJoins(c criteria.Criterion, ctx *Context) error {
	crit := c.(criteria.Identifier)
	if crit.Value.Op.IsPattern() {
		joins.PlanIdentifierPath(ctx.Plan, ctx.Entity)
	}
	return nil
}

func (identifierTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.Identifier)
	switch {
	case crit.Value.Op == criteria.StringAny:
		return sqlfrag.IsNotNull(ctx.main(ctx.Entity.CodeColumn)), nil
	case crit.Value.Op == criteria.StringEqualTo:
		return identifierEquals(ctx, crit.Value.Text)
	case crit.Value.Op.IsPattern():
		full := fullIdentifier(ctx, joins.PlanIdentifierPath(ctx.Plan, ctx.Entity))
		v := criteria.StringValue{Op: crit.Value.Op, Text: identifier.Normalize(crit.Value.Text)}
		return stringMatch(full, v, true), nil
	}
	return sqlfrag.Fragment{}, &UnsupportedCriterionError{
		Kind:   crit.Kind(),
		Reason: fmt.Sprintf("operator %s not supported on identifiers", crit.Value.Op),
	}
}

// identifierEquals parses text and emits one clause per present segment,
// ANDed with the code match, in path order.
func identifierEquals(ctx *Context, text string) (sqlfrag.Fragment, error) {
	id, err := identifier.Parse(ctx.Entity, text)
	if err != nil {
		return sqlfrag.Fragment{}, &IllegalCriterionError{Field: "identifier", Reason: err.Error()}
	}
	return identifierClauses(ctx, id), nil
}

func identifierClauses(ctx *Context, id identifier.Identifier) sqlfrag.Fragment {
	e := ctx.Entity
	codeIs := func(v string) sqlfrag.Fragment {
		return sqlfrag.Compare(sqlfrag.Column("", "code"), sqlfrag.Eq, sqlfrag.Param(v))
	}

	var clauses []sqlfrag.Fragment
	if id.Space != "" {
		space := sqlfrag.Subquery("id", "spaces", codeIs(id.Space))
		if e.SpaceColumn != "" {
			clauses = append(clauses, sqlfrag.Compare(ctx.main(e.SpaceColumn), sqlfrag.Eq, space))
		} else {
			projects := sqlfrag.Subquery("id", "projects", sqlfrag.Compare(sqlfrag.Column("", "space_id"), sqlfrag.Eq, space))
			clauses = append(clauses, sqlfrag.In(ctx.main(e.ProjectColumn), projects))
		}
	}
	if id.Project != "" {
		clauses = append(clauses, sqlfrag.In(ctx.main(e.ProjectColumn), sqlfrag.Subquery("id", "projects", codeIs(id.Project))))
	}
	if id.Container != "" {
		container := sqlfrag.Subquery(e.IDColumn, e.EntitiesTable,
			sqlfrag.Compare(sqlfrag.Column("", e.CodeColumn), sqlfrag.Eq, sqlfrag.Param(id.Container)))
		clauses = append(clauses, sqlfrag.In(ctx.main(e.ContainerColumn), container))
	}
	clauses = append(clauses, sqlfrag.Compare(ctx.main(e.CodeColumn), sqlfrag.Eq, sqlfrag.Param(id.Code)))
	if id.Type != "" {
		clauses = append(clauses, sqlfrag.Compare(ctx.main(e.EntityTypeIDColumn), sqlfrag.Eq,
			sqlfrag.Subquery("id", e.EntityTypesTable, codeIs(id.Type))))
	}
	return sqlfrag.And(clauses...)
}

// fullIdentifier renders the identifier of the main row as SQL, e.g. for a
// sample:
//
//	'/' || coalesce(t1.code || '/', '') || coalesce(t2.code || '/', '') || coalesce(t3.code || ':', '') || t0.code
func fullIdentifier(ctx *Context, a joins.IdentifierAliases) sqlfrag.Fragment {
	e := ctx.Entity
	code := ctx.main(e.CodeColumn)

	if a.Type != "" {
		return sqlfrag.Concat(code, sqlfrag.Literal(" ("), sqlfrag.Column(a.Type, "code"), sqlfrag.Literal(")"))
	}
	if a.Space == "" && a.Project == "" && a.Container == "" {
		return code
	}

	optional := func(col sqlfrag.Fragment, sep string) sqlfrag.Fragment {
		return sqlfrag.Coalesce(sqlfrag.Concat(col, sqlfrag.Literal(sep)), sqlfrag.Literal(""))
	}
	parts := []sqlfrag.Fragment{sqlfrag.Literal("/")}
	if a.Space != "" {
		parts = append(parts, optional(sqlfrag.Column(a.Space, "code"), "/"))
	}
	if a.Project != "" {
		parts = append(parts, optional(sqlfrag.Column(a.Project, "code"), "/"))
	}
	if a.Container != "" {
		parts = append(parts, optional(sqlfrag.Column(a.Container, e.CodeColumn), ":"))
	}
	return sqlfrag.Concat(append(parts, code)...)
}

type idTranslator struct{ noJoins }

func (idTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.ID)
	e := ctx.Entity
	switch id := crit.ID.(type) {
	case criteria.TechID:
		return sqlfrag.Compare(ctx.main(e.IDColumn), sqlfrag.Eq, sqlfrag.Param(id.ID)), nil
	case *criteria.TechID:
		return sqlfrag.Compare(ctx.main(e.IDColumn), sqlfrag.Eq, sqlfrag.Param(id.ID)), nil
	case criteria.PermID:
		return permIDEquals(ctx, id.PermID)
	case *criteria.PermID:
		return permIDEquals(ctx, id.PermID)
	case criteria.IdentifierID:
		return identifierEquals(ctx, id.Identifier)
	case *criteria.IdentifierID:
		return identifierEquals(ctx, id.Identifier)
	}
	return sqlfrag.Fragment{}, &UnsupportedIdentifierError{Type: fmt.Sprintf("%T", crit.ID)}
}

func permIDEquals(ctx *Context, permID string) (sqlfrag.Fragment, error) {
	if ctx.Entity.PermIDColumn == "" {
		return sqlfrag.Fragment{}, &UnsupportedCriterionError{
			Kind:   criteria.KindID,
			Reason: fmt.Sprintf("%s has no perm id", ctx.Entity.Kind),
		}
	}
	return sqlfrag.Compare(ctx.main(ctx.Entity.PermIDColumn), sqlfrag.Eq, sqlfrag.Param(permID)), nil
}

type idsTranslator struct{ noJoins }

func (idsTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.IDs)
	e := ctx.Entity
	if len(crit.IDs) == 0 {
		return sqlfrag.False(), nil
	}

	var (
		techIDs     []int64
		permIDs     []string
		identifiers []string
	)
	for _, raw := range crit.IDs {
		switch id := raw.(type) {
		case criteria.TechID:
			techIDs = append(techIDs, id.ID)
		case *criteria.TechID:
			techIDs = append(techIDs, id.ID)
		case criteria.PermID:
			permIDs = append(permIDs, id.PermID)
		case *criteria.PermID:
			permIDs = append(permIDs, id.PermID)
		case criteria.IdentifierID:
			identifiers = append(identifiers, id.Identifier)
		case *criteria.IdentifierID:
			identifiers = append(identifiers, id.Identifier)
		default:
			return sqlfrag.Fragment{}, &UnsupportedIdentifierError{Type: fmt.Sprintf("%T", raw)}
		}
	}

	switch {
	case len(techIDs) == len(crit.IDs):
		return sqlfrag.InUnnest(ctx.main(e.IDColumn), techIDs, "bigint"), nil
	case len(permIDs) == len(crit.IDs):
		if e.PermIDColumn == "" {
			return sqlfrag.Fragment{}, &UnsupportedCriterionError{
				Kind:   crit.Kind(),
				Reason: fmt.Sprintf("%s has no perm id", e.Kind),
			}
		}
		return sqlfrag.InUnnest(ctx.main(e.PermIDColumn), permIDs, "text"), nil
	case len(identifiers) == len(crit.IDs):
		alternatives := make([]sqlfrag.Fragment, 0, len(identifiers))
		for _, text := range identifiers {
			f, err := identifierEquals(ctx, text)
			if err != nil {
				return sqlfrag.Fragment{}, err
			}
			alternatives = append(alternatives, f)
		}
		return sqlfrag.Or(alternatives...), nil
	}

	_, err := criteria.IDsType(crit.IDs)
	return sqlfrag.Fragment{}, &IllegalCriterionError{Field: "ids", Reason: err.Error()}
}

type absenceTranslator struct{ noJoins }

func (absenceTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.Absence)
	e := ctx.Entity
	var column string
	switch crit.Relation {
	case criteria.RelationSpace:
		column = e.SpaceColumn
	case criteria.RelationProject:
		column = e.ProjectColumn
	case criteria.RelationExperiment:
		column = e.ExperimentColumn
	case criteria.RelationSample:
		column = e.SampleColumn
	case criteria.RelationContainer:
		column = e.ContainerColumn
	}
	if column == "" {
		return sqlfrag.Fragment{}, &UnsupportedCriterionError{
			Kind:   crit.Kind(),
			Field:  string(crit.Relation),
			Reason: fmt.Sprintf("%s has no such relation", e.Kind),
		}
	}
	return sqlfrag.IsNull(ctx.main(column)), nil
}

