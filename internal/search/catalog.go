package search

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/labsearch/internal/schema"
)

// catalogRow is one property type as read from the database.
type catalogRow struct {
	Code     string
	Internal bool
	DataType string
}

// LoadPropertyCatalog reads every property type and its data type through
// the attribute-type tables of e.
func LoadPropertyCatalog(ctx context.Context, q Querier, e *schema.Entity) (*schema.PropertyCatalog, error) {
	if !e.HasProperties() {
		return nil, fmt.Errorf("load property catalog: %s has no properties", e.Kind)
	}

	query := fmt.Sprintf(
		"SELECT pt.%s, pt.%s, dt.%s FROM %s pt JOIN %s dt ON dt.id = pt.%s",
		e.AttributeTypesCodeColumn, e.InternalNamespaceColumn, e.DataTypesCodeColumn,
		e.AttributeTypesTable, e.DataTypesTable, e.AttributeTypesDataTypeColumn,
	)
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load property catalog: %w", err)
	}
	types, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalogRow, error) {
		var r catalogRow
		err := row.Scan(&r.Code, &r.Internal, &r.DataType)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("load property catalog: %w", err)
	}

	entries := make(map[string]schema.DataType, len(types))
	for _, t := range types {
		name := t.Code
		if t.Internal {
			name = schema.InternalPrefix + t.Code
		}
		entries[name] = schema.DataType(t.DataType)
	}
	return schema.NewPropertyCatalog(entries), nil
}
