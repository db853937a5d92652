package schema

const (
	propertyTypesTable = "property_types"
	dataTypesTable     = "data_types"
)

// Tables referenced by property values. Their code column is "code".
const (
	VocabularyTermsTable = "controlled_vocabulary_terms"
	MaterialsTable       = "materials"
	SamplesTable         = "samples_all"
)

// withPropertyChain fills the columns shared by every properties chain.
func withPropertyChain(e Entity, valuesTable, entityIDCol, linkCol, linkTable string) Entity {
	e.ValuesTable = valuesTable
	e.ValuesEntityIDColumn = entityIDCol
	e.ValuesTypeAttributeTypeColumn = linkCol
	e.ValuesValueColumn = "value"
	e.TypeAttributeTypesTable = linkTable
	e.TypeAttributeTypesAttributeCol = "prty_id"
	e.AttributeTypesTable = propertyTypesTable
	e.AttributeTypesDataTypeColumn = "daty_id"
	e.AttributeTypesCodeColumn = "code"
	e.InternalNamespaceColumn = "is_internal_namespace"
	e.DataTypesTable = dataTypesTable
	e.DataTypesCodeColumn = "code"
	return e
}

// withReferenceValues fills the reference columns of a values table. Only
// sample, experiment and data set values can point at a sample.
func withReferenceValues(e Entity, sampleRefs bool) Entity {
	e.ValuesVocabularyTermColumn = "cvte_id"
	e.ValuesMaterialColumn = "mate_prop_id"
	if sampleRefs {
		e.ValuesSampleColumn = "samp_prop_id"
	}
	return e
}

func commonAttributes(permIDColumn string) []Attribute {
	attrs := []Attribute{
		{Name: "techId", Column: "id", Type: TypeBigInt},
		{Name: "code", Column: "code", Type: TypeVarchar},
	}
	if permIDColumn != "" {
		attrs = append(attrs, Attribute{Name: "permId", Column: permIDColumn, Type: TypeVarchar})
	}
	return append(attrs,
		Attribute{Name: "registrationDate", Column: "registration_timestamp", Type: TypeTimestamp},
	)
}

func defaultEntities() []Entity {
	sample := withReferenceValues(withPropertyChain(Entity{
		Kind:               Sample,
		EntitiesTable:      SamplesTable,
		IDColumn:           "id",
		CodeColumn:         "code",
		PermIDColumn:       "perm_id",
		SpaceColumn:        "space_id",
		ProjectColumn:      "proj_id",
		ExperimentColumn:   "expe_id",
		ContainerColumn:    "samp_id_part_of",
		EntityTypesTable:   "sample_types",
		EntityTypeIDColumn: "saty_id",
		Segments:           []Segment{SegmentSpace, SegmentProject, SegmentContainer},
		Attributes: append(commonAttributes("perm_id"),
			Attribute{Name: "modificationDate", Column: "modification_timestamp", Type: TypeTimestamp},
			Attribute{Name: "frozen", Column: "frozen", Type: TypeBoolean},
		),
	}, "sample_properties", "samp_id", "stpt_id", "sample_type_property_types"), true)

	experiment := withReferenceValues(withPropertyChain(Entity{
		Kind:               Experiment,
		EntitiesTable:      "experiments_all",
		IDColumn:           "id",
		CodeColumn:         "code",
		PermIDColumn:       "perm_id",
		ProjectColumn:      "proj_id",
		EntityTypesTable:   "experiment_types",
		EntityTypeIDColumn: "exty_id",
		Segments:           []Segment{SegmentSpace, SegmentProject},
		Attributes: append(commonAttributes("perm_id"),
			Attribute{Name: "modificationDate", Column: "modification_timestamp", Type: TypeTimestamp},
			Attribute{Name: "frozen", Column: "frozen", Type: TypeBoolean},
		),
	}, "experiment_properties", "expe_id", "etpt_id", "experiment_type_property_types"), true)

	dataSet := withReferenceValues(withPropertyChain(Entity{
		Kind:               DataSet,
		EntitiesTable:      "data_all",
		IDColumn:           "id",
		CodeColumn:         "code",
		PermIDColumn:       "code",
		ExperimentColumn:   "expe_id",
		SampleColumn:       "samp_id",
		EntityTypesTable:   "data_set_types",
		EntityTypeIDColumn: "dsty_id",
		Attributes: append(commonAttributes("code"),
			Attribute{Name: "modificationDate", Column: "modification_timestamp", Type: TypeTimestamp},
			Attribute{Name: "accessDate", Column: "access_timestamp", Type: TypeTimestamp},
			Attribute{Name: "productionDate", Column: "production_timestamp", Type: TypeTimestamp},
			Attribute{Name: "dataProducerCode", Column: "data_producer_code", Type: TypeVarchar},
			Attribute{Name: "kind", Column: "data_set_kind", Type: TypeEnum},
			Attribute{Name: "frozen", Column: "frozen", Type: TypeBoolean},
		),
	}, "data_set_properties", "ds_id", "dstpt_id", "data_set_type_property_types"), true)

	material := withReferenceValues(withPropertyChain(Entity{
		Kind:               Material,
		EntitiesTable:      MaterialsTable,
		IDColumn:           "id",
		CodeColumn:         "code",
		EntityTypesTable:   "material_types",
		EntityTypeIDColumn: "maty_id",
		Segments:           []Segment{SegmentType},
		Attributes: append(commonAttributes(""),
			Attribute{Name: "modificationDate", Column: "modification_timestamp", Type: TypeTimestamp},
		),
	}, "material_properties", "mate_id", "mtpt_id", "material_type_property_types"), false)

	project := Entity{
		Kind:          Project,
		EntitiesTable: "projects",
		IDColumn:      "id",
		CodeColumn:    "code",
		PermIDColumn:  "perm_id",
		SpaceColumn:   "space_id",
		Segments:      []Segment{SegmentSpace},
		Attributes: append(commonAttributes("perm_id"),
			Attribute{Name: "modificationDate", Column: "modification_timestamp", Type: TypeTimestamp},
			Attribute{Name: "description", Column: "description", Type: TypeText},
			Attribute{Name: "frozen", Column: "frozen", Type: TypeBoolean},
		),
	}

	space := Entity{
		Kind:          Space,
		EntitiesTable: "spaces",
		IDColumn:      "id",
		CodeColumn:    "code",
		PermIDColumn:  "code",
		Attributes: append(commonAttributes("code"),
			Attribute{Name: "description", Column: "description", Type: TypeText},
			Attribute{Name: "frozen", Column: "frozen", Type: TypeBoolean},
		),
	}

	tag := Entity{
		Kind:          Tag,
		EntitiesTable: "metaprojects",
		IDColumn:      "id",
		CodeColumn:    "name",
		Attributes: []Attribute{
			{Name: "techId", Column: "id", Type: TypeBigInt},
			{Name: "code", Column: "name", Type: TypeVarchar},
			{Name: "name", Column: "name", Type: TypeVarchar},
			{Name: "description", Column: "description", Type: TypeVarchar},
			{Name: "private", Column: "private", Type: TypeBoolean},
			{Name: "registrationDate", Column: "creation_date", Type: TypeTimestamp},
		},
	}

	person := Entity{
		Kind:          Person,
		EntitiesTable: "persons",
		IDColumn:      "id",
		CodeColumn:    "user_id",
		PermIDColumn:  "user_id",
		Attributes: []Attribute{
			{Name: "techId", Column: "id", Type: TypeBigInt},
			{Name: "userId", Column: "user_id", Type: TypeVarchar},
			{Name: "code", Column: "user_id", Type: TypeVarchar},
			{Name: "firstName", Column: "first_name", Type: TypeVarchar},
			{Name: "lastName", Column: "last_name", Type: TypeVarchar},
			{Name: "email", Column: "email", Type: TypeVarchar},
			{Name: "active", Column: "is_active", Type: TypeBoolean},
			{Name: "registrationDate", Column: "registration_timestamp", Type: TypeTimestamp},
		},
	}

	return []Entity{sample, experiment, dataSet, material, project, space, tag, person}
}
