// Package harness runs criteria conformance scenarios.
//
// A scenario names an entity kind, an optional property catalog, a
// criteria tree, and what its translation must look like. Scenarios are
// YAML files:
//
//	name: plates_by_concentration
//	description: "Property comparisons are guarded by the data type"
//	entity: SAMPLE
//	catalog:
//	  CONCENTRATION: REAL
//	criteria:
//	  type: property
//	  field: CONCENTRATION
//	  value: {kind: number, op: gt, value: 0.5}
//	expect:
//	  params: [CONCENTRATION, false, 0.5]
//	assertions:
//	  - type: join_count
//	    count: 4
//	  - type: join_table
//	    table: data_types
//
// Expect fixes the exact clause and parameters, or the error code when the
// translation must fail. Assertions check partial properties:
//
//   - where_contains / where_excludes: substring of the WHERE clause
//   - join_count: number of joins
//   - join_table: a join to the named table exists
//   - param_count: number of bound parameters
//   - params_aligned: placeholders outside literals match the parameters
//
// RunWithGolden snapshots the full translation under testdata/golden so
// that unintended changes in rendering show up as diffs.
package harness
