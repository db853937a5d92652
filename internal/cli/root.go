package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/config"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/translate"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	EnvFile   string // .env file loaded before the environment
	SchemaDir string // CUE overlay directory; overrides LABSEARCH_SCHEMA_DIR
	Catalog   string // property catalog YAML; overrides LABSEARCH_PROPERTY_CATALOG
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the labsearch CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "labsearch",
		Short:         "labsearch - search criteria to SQL",
		SilenceErrors: true, // main reports errors not already reported by a command
		Long: `Translate lab-data search criteria into parameterized PostgreSQL.

Criteria trees are read from JSON or YAML files and compiled against the
entity schema (samples, experiments, data sets, materials, ...). Results can
be inspected, executed against a database, saved by name, or served over HTTP.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load")
	cmd.PersistentFlags().StringVar(&opts.SchemaDir, "schema-dir", "", "CUE schema overlay directory")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "property catalog YAML file")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewSavedCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// environment is the per-invocation state shared by commands.
type environment struct {
	cfg     *config.Config
	logger  *slog.Logger
	schemas *schema.Registry
	catalog *schema.PropertyCatalog
}

// load reads configuration and the optional schema overlay and property
// catalog. Flags win over the environment.
func (o *RootOptions) load(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return nil, err
	}
	if o.SchemaDir != "" {
		cfg.SchemaDir = o.SchemaDir
	}
	if o.Catalog != "" {
		cfg.PropertyCatalog = o.Catalog
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	schemas, err := schema.LoadCUE(cfg.SchemaDir, schema.NewRegistry())
	if err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg, logger: logger, schemas: schemas}
	if cfg.PropertyCatalog != "" {
		env.catalog, err = schema.LoadPropertyCatalog(cfg.PropertyCatalog)
		if err != nil {
			return nil, err
		}
		logger.Debug("property catalog loaded", "path", cfg.PropertyCatalog, "properties", env.catalog.Len())
	}
	return env, nil
}

// compiler builds a compiler over the environment's schemas. A non-nil cat
// replaces the file catalog.
func (e *environment) compiler(cat *schema.PropertyCatalog) *translate.Compiler {
	if cat == nil {
		cat = e.catalog
	}
	opts := []translate.Option{translate.WithLogger(e.logger)}
	if cat != nil {
		opts = append(opts, translate.WithPropertyCatalog(cat))
	}
	return translate.NewCompiler(translate.NewRegistry(), e.schemas, opts...)
}

// kind resolves a command-line entity kind against the registry.
func (e *environment) kind(raw string) (schema.Kind, error) {
	kind, err := schema.ParseKind(raw)
	if err != nil {
		return "", err
	}
	if _, err := e.schemas.Lookup(kind); err != nil {
		return "", err
	}
	return kind, nil
}

// loadEnv is load with failures reported through f.
func (o *RootOptions) loadEnv(cmd *cobra.Command, f *OutputFormatter) (*environment, error) {
	env, err := o.load(cmd)
	if err != nil {
		return nil, failWith(f, ErrCodeConfig, ExitCommandError, err.Error(), nil)
	}
	return env, nil
}

func (e *environment) resolveKind(f *OutputFormatter, raw string) (schema.Kind, error) {
	kind, err := e.kind(raw)
	if err != nil {
		return "", failWith(f, ErrCodeUnknownEntity, ExitFailure, err.Error(), e.schemas.Kinds())
	}
	return kind, nil
}
