package joins

import (
	"fmt"

	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// PropertyAliases names the aliases of a planned property chain.
type PropertyAliases struct {
	Values            string // values table (holds the value column)
	TypeAttributeType string // entity-type/attribute-type link
	AttributeType     string // property_types
	DataType          string // data_types

	// Reference joins, empty until PlanPropertyReferences plans them.
	VocabularyTerm string
	Material       string
	Sample         string
}

// PlanProperty plans entity -> values -> link -> attribute type -> data type,
// all LEFT joins keyed by table name.
func PlanProperty(p *Plan, e *schema.Entity) (PropertyAliases, error) {
	if !e.HasProperties() {
		return PropertyAliases{}, fmt.Errorf("entity %s has no properties", e.Kind)
	}

	values := p.Ensure(e.ValuesTable, sqlfrag.JoinInformation{
		MainTable:  e.EntitiesTable,
		MainAlias:  MainAlias,
		MainColumn: e.IDColumn,
		SubTable:   e.ValuesTable,
		SubColumn:  e.ValuesEntityIDColumn,
		Type:       sqlfrag.LeftJoin,
	})
	link := p.Ensure(e.TypeAttributeTypesTable, sqlfrag.JoinInformation{
		MainTable:  e.ValuesTable,
		MainAlias:  values,
		MainColumn: e.ValuesTypeAttributeTypeColumn,
		SubTable:   e.TypeAttributeTypesTable,
		SubColumn:  "id",
		Type:       sqlfrag.LeftJoin,
	})
	attr := p.Ensure(e.AttributeTypesTable, sqlfrag.JoinInformation{
		MainTable:  e.TypeAttributeTypesTable,
		MainAlias:  link,
		MainColumn: e.TypeAttributeTypesAttributeCol,
		SubTable:   e.AttributeTypesTable,
		SubColumn:  "id",
		Type:       sqlfrag.LeftJoin,
	})
	dataType := p.Ensure(e.DataTypesTable, sqlfrag.JoinInformation{
		MainTable:  e.AttributeTypesTable,
		MainAlias:  attr,
		MainColumn: e.AttributeTypesDataTypeColumn,
		SubTable:   e.DataTypesTable,
		SubColumn:  "id",
		Type:       sqlfrag.LeftJoin,
	})

	return PropertyAliases{
		Values:            values,
		TypeAttributeType: link,
		AttributeType:     attr,
		DataType:          dataType,
	}, nil
}

// keyPropertyReference prefixes the join keys of reference values. The keys
// name the values column because the sample reference can target the main
// entity's own table.
const keyPropertyReference = "property-ref:"

// PlanPropertyReferences extends a planned property chain with LEFT joins to
// the rows a values row can point at instead of holding text. Reference
// columns the entity does not declare are skipped.
func PlanPropertyReferences(p *Plan, e *schema.Entity, a PropertyAliases) PropertyAliases {
	refs := []struct {
		column string
		table  string
		alias  *string
	}{
		{e.ValuesVocabularyTermColumn, schema.VocabularyTermsTable, &a.VocabularyTerm},
		{e.ValuesMaterialColumn, schema.MaterialsTable, &a.Material},
		{e.ValuesSampleColumn, schema.SamplesTable, &a.Sample},
	}
	for _, r := range refs {
		if r.column == "" {
			continue
		}
		*r.alias = p.Ensure(keyPropertyReference+r.column, sqlfrag.JoinInformation{
			MainTable:  e.ValuesTable,
			MainAlias:  a.Values,
			MainColumn: r.column,
			SubTable:   r.table,
			SubColumn:  "id",
			Type:       sqlfrag.LeftJoin,
		})
	}
	return a
}

// IdentifierAliases names the aliases of a planned identifier path. Empty
// fields mean the segment does not apply to the entity kind.
type IdentifierAliases struct {
	Space     string
	Project   string
	Container string
	Type      string
}

// Join keys for identifier paths. The container join targets the entity's
// own table, so it carries a role prefix to stay distinct from the main row.
const (
	keySpaces    = "spaces"
	keyProjects  = "projects"
	keyContainer = "container:"
)

// PlanIdentifierPath plans LEFT joins to the tables that spell out the full
// identifier of e: spaces, projects and the container entity. Experiments
// reach their space through their project.
func PlanIdentifierPath(p *Plan, e *schema.Entity) IdentifierAliases {
	var out IdentifierAliases
	spaces := e.SupportsSegment(schema.SegmentSpace)

	if spaces && e.SpaceColumn != "" {
		out.Space = p.Ensure(keySpaces, sqlfrag.JoinInformation{
			MainTable:  e.EntitiesTable,
			MainAlias:  MainAlias,
			MainColumn: e.SpaceColumn,
			SubTable:   "spaces",
			SubColumn:  "id",
			Type:       sqlfrag.LeftJoin,
		})
	}

	if e.ProjectColumn != "" && e.SupportsSegment(schema.SegmentProject) {
		out.Project = p.Ensure(keyProjects, sqlfrag.JoinInformation{
			MainTable:  e.EntitiesTable,
			MainAlias:  MainAlias,
			MainColumn: e.ProjectColumn,
			SubTable:   "projects",
			SubColumn:  "id",
			Type:       sqlfrag.LeftJoin,
		})
	}

	if spaces && out.Space == "" && out.Project != "" {
		out.Space = p.Ensure(keySpaces, sqlfrag.JoinInformation{
			MainTable:  "projects",
			MainAlias:  out.Project,
			MainColumn: "space_id",
			SubTable:   "spaces",
			SubColumn:  "id",
			Type:       sqlfrag.LeftJoin,
		})
	}

	if e.ContainerColumn != "" && e.SupportsSegment(schema.SegmentContainer) {
		out.Container = p.Ensure(keyContainer+e.EntitiesTable, sqlfrag.JoinInformation{
			MainTable:  e.EntitiesTable,
			MainAlias:  MainAlias,
			MainColumn: e.ContainerColumn,
			SubTable:   e.EntitiesTable,
			SubColumn:  e.IDColumn,
			Type:       sqlfrag.LeftJoin,
		})
	}

	if e.SupportsSegment(schema.SegmentType) {
		out.Type, _ = PlanEntityType(p, e)
	}

	return out
}

// PlanEntityType plans entity -> entity types.
func PlanEntityType(p *Plan, e *schema.Entity) (string, error) {
	if e.EntityTypesTable == "" || e.EntityTypeIDColumn == "" {
		return "", fmt.Errorf("entity %s has no entity types", e.Kind)
	}
	return p.Ensure(e.EntityTypesTable, sqlfrag.JoinInformation{
		MainTable:  e.EntitiesTable,
		MainAlias:  MainAlias,
		MainColumn: e.EntityTypeIDColumn,
		SubTable:   e.EntityTypesTable,
		SubColumn:  "id",
		Type:       sqlfrag.LeftJoin,
	}), nil
}
