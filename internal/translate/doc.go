// Package translate compiles a criteria tree into joins, a WHERE clause and
// its positional parameters.
//
// Compilation runs in two passes over the tree. The planning pass asks every
// translator which joins it needs; the joins package de-duplicates them by
// table, so all criteria touching e.g. the property values table share one
// alias. Because the chain is shared, an AND across two different
// properties constrains a single value row and so matches nothing; combine
// such criteria with OR, or run one search per property and intersect. The
// translation pass then asks every translator for its fragment,
// using the aliases planned in the first pass. Fragments are immutable and
// are combined bottom-up by the composite translator, which parenthesizes a
// child only when its connective differs from the parent's.
//
// Translators are looked up by criteria.Kind in a Registry built once at
// startup and handed to NewCompiler. A Compiler holds no per-call state:
// every Compile call allocates its own aliases and join plan, so one
// Compiler serves any number of goroutines.
//
// Errors are fatal and typed:
//
//	UnsupportedCriterionError   no translation for this kind/field/entity
//	IllegalCriterionError       the criterion contradicts itself or the schema
//	UnsupportedIdentifierError  unknown ObjectID shape
//
// No partial SQL is ever returned alongside an error. A criterion that can
// match nothing compiles to FALSE rather than being dropped.
package translate
