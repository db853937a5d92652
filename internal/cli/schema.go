package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/schema"
)

// EntityInfo is the JSON description of one entity kind.
type EntityInfo struct {
	Kind         string          `json:"kind"`
	Table        string          `json:"table"`
	IDColumn     string          `json:"id_column"`
	CodeColumn   string          `json:"code_column,omitempty"`
	PermIDColumn string          `json:"perm_id_column,omitempty"`
	ValuesTable  string          `json:"values_table,omitempty"`
	Segments     []string        `json:"segments,omitempty"`
	Attributes   []AttributeInfo `json:"attributes,omitempty"`
	Properties   []PropertyInfo  `json:"properties,omitempty"`
}

// AttributeInfo describes one fixed attribute.
type AttributeInfo struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Type   string `json:"type"`
}

// PropertyInfo is one entry of the property catalog.
type PropertyInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [kind]",
		Short: "Show entity kinds and their columns",
		Long: `Without arguments, list the registered entity kinds. With a kind, show its
tables, attributes and identifier segments, plus the property catalog when
one is configured. A CUE overlay (--schema-dir) is applied first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runSchema(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	env, err := opts.loadEnv(cmd, formatter)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		infos := make([]EntityInfo, 0)
		for _, kind := range env.schemas.Kinds() {
			infos = append(infos, describeEntity(env.schemas.MustLookup(kind), nil))
		}
		if formatter.Format == "json" {
			return formatter.Success(infos)
		}
		formatter.Section("Entities")
		for _, info := range infos {
			props := ""
			if info.ValuesTable != "" {
				props = " (properties)"
			}
			keyword.Fprintf(formatter.Writer, "  %-12s", info.Kind)
			fmt.Fprintf(formatter.Writer, " %s%s\n", info.Table, props)
		}
		return nil
	}

	kind, err := env.resolveKind(formatter, args[0])
	if err != nil {
		return err
	}
	e := env.schemas.MustLookup(kind)
	var cat *schema.PropertyCatalog
	if e.HasProperties() {
		cat = env.catalog
	}
	info := describeEntity(e, cat)

	if formatter.Format == "json" {
		return formatter.Success(info)
	}
	printEntity(formatter, info)
	return nil
}

func describeEntity(e *schema.Entity, cat *schema.PropertyCatalog) EntityInfo {
	info := EntityInfo{
		Kind:         string(e.Kind),
		Table:        e.EntitiesTable,
		IDColumn:     e.IDColumn,
		CodeColumn:   e.CodeColumn,
		PermIDColumn: e.PermIDColumn,
		ValuesTable:  e.ValuesTable,
	}
	for _, s := range e.Segments {
		info.Segments = append(info.Segments, s.String())
	}
	for _, a := range e.Attributes {
		info.Attributes = append(info.Attributes, AttributeInfo{Name: a.Name, Column: a.Column, Type: string(a.Type)})
	}
	for _, name := range cat.Names() {
		dt, _ := cat.DataType(name)
		info.Properties = append(info.Properties, PropertyInfo{Name: name, DataType: string(dt)})
	}
	return info
}

func printEntity(f *OutputFormatter, info EntityInfo) {
	heading.Fprintf(f.Writer, "%s", info.Kind)
	fmt.Fprintf(f.Writer, " %s (id %s)\n", info.Table, info.IDColumn)
	if info.ValuesTable != "" {
		fmt.Fprintf(f.Writer, "  properties in %s\n", info.ValuesTable)
	}
	if len(info.Segments) > 0 {
		fmt.Fprintf(f.Writer, "  identifier segments: %v\n", info.Segments)
	}

	if len(info.Attributes) > 0 {
		fmt.Fprintln(f.Writer)
		f.Section("Attributes")
		for _, a := range info.Attributes {
			keyword.Fprintf(f.Writer, "  %-20s", a.Name)
			fmt.Fprintf(f.Writer, " %-28s %s\n", a.Column, a.Type)
		}
	}
	if len(info.Properties) > 0 {
		fmt.Fprintln(f.Writer)
		f.Section("Properties")
		for _, p := range info.Properties {
			keyword.Fprintf(f.Writer, "  %-20s", p.Name)
			fmt.Fprintf(f.Writer, " %s\n", p.DataType)
		}
	}
}
