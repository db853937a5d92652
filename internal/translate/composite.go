package translate

import (
	"fmt"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// compositeTranslator drives AND/OR nodes by recursing into the dispatcher.
type compositeTranslator struct{}

func (compositeTranslator) PlanJoins(c criteria.Criterion, ctx *Context) error {
	crit := c.(criteria.Composite)
	for i, child := range crit.Children {
		if err := ctx.PlanJoins(child); err != nil {
			return childError(i, err)
		}
	}
	return nil
}

func (compositeTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.Composite)
	op := sqlfrag.OpAnd
	switch crit.Operator {
	case criteria.OperatorAnd:
	case criteria.OperatorOr:
		op = sqlfrag.OpOr
	default:
		return sqlfrag.Fragment{}, &IllegalCriterionError{Reason: fmt.Sprintf("unknown operator %d", int(crit.Operator))}
	}

	frags := make([]sqlfrag.Fragment, 0, len(crit.Children))
	for i, child := range crit.Children {
		f, err := ctx.Translate(child)
		if err != nil {
			return sqlfrag.Fragment{}, childError(i, err)
		}
		frags = append(frags, f)
	}
	return sqlfrag.Join(op, frags...), nil
}

// childError keeps the typed error reachable through errors.As.
func childError(i int, err error) error {
	return fmt.Errorf("child %d: %w", i, err)
}
