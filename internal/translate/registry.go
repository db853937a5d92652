package translate

import (
	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// Translator handles one criterion kind.
//
// PlanJoins registers the joins the criterion needs in ctx.Plan. Translate
// returns the criterion's predicate. Translate may re-run the planners to
// look up aliases; planning is idempotent.
type Translator interface {
	PlanJoins(c criteria.Criterion, ctx *Context) error
	Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error)
}

// Registry maps criterion kinds to translators. It is built once and never
// mutated afterwards.
type Registry struct {
	translators map[criteria.Kind]Translator
}

// NewRegistry returns a registry with a translator for every kind.
func NewRegistry() *Registry {
	return &Registry{translators: map[criteria.Kind]Translator{
		criteria.KindAttributeString:     stringTranslator{},
		criteria.KindAttributeNumber:     numberTranslator{},
		criteria.KindAttributeDate:       dateTranslator{},
		criteria.KindAttributeBoolean:    booleanTranslator{},
		criteria.KindAttributeEnum:       enumTranslator{},
		criteria.KindAttributeCollection: collectionTranslator{},
		criteria.KindProperty:            propertyTranslator{},
		criteria.KindAnyProperty:         anyPropertyTranslator{},
		criteria.KindAnyField:            anyFieldTranslator{},
		criteria.KindIdentifier:          identifierTranslator{},
		criteria.KindID:                  idTranslator{},
		criteria.KindIDs:                 idsTranslator{},
		criteria.KindAbsence:             absenceTranslator{},
		criteria.KindComposite:           compositeTranslator{},
	}}
}

// With returns a copy of r where kind is handled by t.
func (r *Registry) With(kind criteria.Kind, t Translator) *Registry {
	next := &Registry{translators: make(map[criteria.Kind]Translator, len(r.translators)+1)}
	for k, v := range r.translators {
		next.translators[k] = v
	}
	next.translators[kind] = t
	return next
}

// Without returns a copy of r with no translator for kind.
func (r *Registry) Without(kind criteria.Kind) *Registry {
	next := &Registry{translators: make(map[criteria.Kind]Translator, len(r.translators))}
	for k, v := range r.translators {
		if k != kind {
			next.translators[k] = v
		}
	}
	return next
}

// Lookup returns the translator for kind.
func (r *Registry) Lookup(kind criteria.Kind) (Translator, bool) {
	t, ok := r.translators[kind]
	return t, ok
}
