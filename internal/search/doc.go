// Package search turns compiled criteria into PostgreSQL statements and
// runs them.
//
// The translate package stops at a WHERE clause, its joins and positional
// `?` parameters. This package adds the SELECT around them, rewrites the
// placeholders to PostgreSQL's `$n` form and executes the statement through
// pgx. It also reads the property catalog from the database so the
// compiler can check date criteria against known property types.
package search
