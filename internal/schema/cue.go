package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError is a descriptor error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE loads every CUE file in dir and applies the `entity` struct found
// there on top of base. An empty dir returns base unchanged.
//
// Example overlay:
//
//	entity: SAMPLE: attributes: externalCode: {column: "external_code", type: "VARCHAR"}
//	entity: INSTRUMENT: {
//		table: "instruments"
//		attributes: serial: {column: "serial_no", type: "VARCHAR"}
//	}
func LoadCUE(dir string, base *Registry) (*Registry, error) {
	if dir == "" {
		return base, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema dir: not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("schema dir: no CUE instances loaded from %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", err)
	}
	value := ctx.BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return ApplyCUE(value, base)
}

// ApplyCUE merges the `entity` struct of v over base.
func ApplyCUE(v cue.Value, base *Registry) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return base, nil
	}
	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	reg := base
	for iter.Next() {
		kind := Kind(iter.Selector().Unquoted())
		existing, _ := reg.Lookup(kind)
		e, err := CompileEntity(iter.Value(), kind, existing)
		if err != nil {
			return nil, err
		}
		reg = reg.WithEntity(e)
	}
	return reg, nil
}

// CompileEntity parses one CUE entity descriptor. When base is non-nil the
// CUE value only overrides what it sets; otherwise `table` is required and
// the usual column defaults (id, code) apply.
func CompileEntity(v cue.Value, kind Kind, base *Entity) (*Entity, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var e *Entity
	if base != nil {
		e = base.clone()
	} else {
		e = &Entity{Kind: kind, IDColumn: "id", CodeColumn: "code"}
	}

	columns := []struct {
		path string
		dst  *string
	}{
		{"table", &e.EntitiesTable},
		{"id_column", &e.IDColumn},
		{"code_column", &e.CodeColumn},
		{"perm_id_column", &e.PermIDColumn},
		{"space_column", &e.SpaceColumn},
		{"project_column", &e.ProjectColumn},
		{"experiment_column", &e.ExperimentColumn},
		{"sample_column", &e.SampleColumn},
		{"container_column", &e.ContainerColumn},
		{"entity_types_table", &e.EntityTypesTable},
		{"entity_type_column", &e.EntityTypeIDColumn},
	}
	for _, s := range columns {
		if err := lookupString(v, s.path, s.dst); err != nil {
			return nil, err
		}
	}
	if e.EntitiesTable == "" {
		return nil, &CompileError{
			Field:   "table",
			Message: fmt.Sprintf("entity %s: table is required", kind),
			Pos:     v.Pos(),
		}
	}

	if props := v.LookupPath(cue.ParsePath("properties")); props.Exists() {
		if err := parseProperties(props, e); err != nil {
			return nil, err
		}
	}

	if segs := v.LookupPath(cue.ParsePath("segments")); segs.Exists() {
		parsed, err := parseSegments(segs)
		if err != nil {
			return nil, err
		}
		e.Segments = parsed
	}

	if attrs := v.LookupPath(cue.ParsePath("attributes")); attrs.Exists() {
		iter, err := attrs.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			attr, err := parseAttribute(iter.Selector().Unquoted(), iter.Value())
			if err != nil {
				return nil, err
			}
			e = e.withAttribute(attr)
		}
	}

	return e, nil
}

func parseProperties(v cue.Value, e *Entity) error {
	var values, entityCol, linkCol, linkTable string
	for _, f := range []struct {
		path string
		dst  *string
	}{
		{"values_table", &values},
		{"entity_column", &entityCol},
		{"link_column", &linkCol},
		{"link_table", &linkTable},
	} {
		if err := lookupString(v, f.path, f.dst); err != nil {
			return err
		}
		if *f.dst == "" {
			return &CompileError{
				Field:   "properties." + f.path,
				Message: "is required when properties are declared",
				Pos:     v.Pos(),
			}
		}
	}
	*e = withPropertyChain(*e, values, entityCol, linkCol, linkTable)
	for _, f := range []struct {
		path string
		dst  *string
	}{
		{"vocabulary_column", &e.ValuesVocabularyTermColumn},
		{"material_column", &e.ValuesMaterialColumn},
		{"sample_column", &e.ValuesSampleColumn},
	} {
		if err := lookupString(v, f.path, f.dst); err != nil {
			return err
		}
	}
	return nil
}

func parseSegments(v cue.Value) ([]Segment, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var segs []Segment
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		switch s {
		case "space":
			segs = append(segs, SegmentSpace)
		case "project":
			segs = append(segs, SegmentProject)
		case "container":
			segs = append(segs, SegmentContainer)
		case "type":
			segs = append(segs, SegmentType)
		default:
			return nil, &CompileError{
				Field:   "segments",
				Message: fmt.Sprintf("unknown segment %q (want space, project, container or type)", s),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return segs, nil
}

func parseAttribute(name string, v cue.Value) (Attribute, error) {
	attr := Attribute{Name: name}
	if err := lookupString(v, "column", &attr.Column); err != nil {
		return attr, err
	}
	if attr.Column == "" {
		return attr, &CompileError{
			Field:   "attributes." + name + ".column",
			Message: "column is required",
			Pos:     v.Pos(),
		}
	}

	var typ string
	if err := lookupString(v, "type", &typ); err != nil {
		return attr, err
	}
	attr.Type = SQLType(typ)
	if !attr.Type.Valid() {
		return attr, &CompileError{
			Field:   "attributes." + name + ".type",
			Message: fmt.Sprintf("unknown SQL type %q", typ),
			Pos:     v.Pos(),
		}
	}
	return attr, nil
}

// lookupString sets *dst when path exists; a non-string value is an error.
func lookupString(v cue.Value, path string, dst *string) error {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return nil
	}
	s, err := f.String()
	if err != nil {
		return &CompileError{
			Field:   path,
			Message: "must be a string",
			Pos:     f.Pos(),
		}
	}
	*dst = s
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
