// Package schema describes the relational layout of every searchable entity
// kind: which table holds the entities, how their property values hang off
// them, and which columns back each fixed attribute.
//
// Descriptors are plain data. The default Registry mirrors the openBIS
// database (samples_all, experiments_all, data_all, ...) and is built once at
// process start. After construction nothing in this package mutates a
// descriptor, so a Registry can be read from any number of goroutines without
// synchronization.
//
// # Property join chain
//
// Entities with properties store their values in a values table. Each value
// row points at an entity-type/attribute-type link row, which points at the
// attribute type (the property type), which points at its data type:
//
//	samples_all -> sample_properties -> sample_type_property_types
//	            -> property_types -> data_types
//
// The column names needed to walk that chain are part of Entity.
//
// # CUE overlay
//
// Deployments with extra columns or extra entity kinds can describe them in
// CUE files; LoadCUE merges them over the defaults and returns a new Registry.
package schema
