// Package identifier parses hierarchical entity identifiers.
//
// Accepted shapes:
//
//	CODE
//	/CODE
//	/SPACE/CODE
//	/SPACE/PROJECT/CODE
//	/SPACE/CONTAINER:CODE
//	/SPACE/PROJECT/CONTAINER:CODE
//	CODE (TYPE)                 materials only
//
// Codes are case-insensitive and returned upper-cased. Whether a segment is
// allowed depends on the entity kind: a project identifier has no project
// segment, a space identifier has nothing but its code.
package identifier
