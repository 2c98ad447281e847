package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tordrt/ddlgen"
	"github.com/tordrt/ddlgen/internal/config"
)

// options holds the flag values of one invocation.
type options struct {
	input       string
	source      string
	output      string
	outputDir   string
	pkg         string
	singularize bool
	configPath  string
	tables      string
	exclude     string
	watch       bool
	verbose     bool
	format      string

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// ioError marks failures to read input or write output.
type ioError struct {
	err error
}

func (e *ioError) Error() string { return e.err.Error() }
func (e *ioError) Unwrap() error { return e.err }

// asIO marks err as an I/O failure unless the DDL itself caused it.
func asIO(err error) error {
	if err == nil || ddlgen.IsValidation(err) {
		return err
	}
	return &ioError{err: err}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "ddlgen",
		Short: "Generate Go repository code from SQL CREATE TABLE statements",
		Long: `ddlgen reads CREATE TABLE statements from a file or a live database (SQLite,
MySQL or PostgreSQL) and generates one Go struct per table plus a repository
with Insert, Update, Get<T>ByID and Delete methods on database/sql.`,
		Example: `  ddlgen -i schema.sql -o repository/repository.go
  ddlgen --source sqlite://app.db --output-dir repository --singularize
  ddlgen --config ddlgen.yaml
  ddlgen describe -i schema.sql --format markdown`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&o.input, "input", "i", "", "DDL file to read")
	pf.StringVar(&o.source, "source", "", "DDL source URL: file path, sqlite://, mysql:// or postgres:// (default $"+config.SourceEnv+")")
	pf.StringVarP(&o.configPath, "config", "c", "", "Configuration file (default "+config.DefaultFile+" when present)")
	pf.StringVarP(&o.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	pf.StringVar(&o.exclude, "exclude", "", "Tables to skip (comma-separated, optional)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Log debug output to stderr")

	f := root.Flags()
	f.StringVarP(&o.output, "output", "o", "", "Output file (default: stdout)")
	f.StringVarP(&o.outputDir, "output-dir", "d", "", "Output directory for one file per table")
	f.StringVarP(&o.pkg, "package", "p", "", "Package name of the generated code (default repository)")
	f.BoolVar(&o.singularize, "singularize", false, "Use singular type names for plural tables")
	f.BoolVarP(&o.watch, "watch", "w", false, "Regenerate whenever the input file changes")

	describe := &cobra.Command{
		Use:   "describe",
		Short: "Print the tables, primary keys and Go types resolved from the DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.describe(cmd)
		},
	}
	describe.Flags().StringVarP(&o.format, "format", "f", "text", "Output format: text or markdown")
	root.AddCommand(describe)

	return root
}

// setup configures logging and loads .env before any flag is interpreted.
func (o *options) setup() error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: level}))

	envFile := ".env"
	if o.configPath != "" {
		envFile = filepath.Join(filepath.Dir(o.configPath), ".env")
	}
	return config.LoadEnv(envFile)
}

// loadConfig returns the configuration file, or nil when there is none.
// ddlgen.yaml in the working directory is only picked up when no input is
// given on the command line.
func (o *options) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if o.input != "" || o.source != "" {
			return nil, nil
		}
		if _, err := os.Stat(config.DefaultFile); err != nil {
			return nil, nil
		}
		path = config.DefaultFile
	}

	o.logger.Debug("loading configuration", "path", path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// genOptions merges the configuration with the flags; flags win.
func (o *options) genOptions(cmd *cobra.Command, cfg *config.Config) (ddlgen.Options, error) {
	var opts ddlgen.Options
	if cfg != nil {
		types, err := cfg.TypeMap()
		if err != nil {
			return opts, err
		}
		opts = ddlgen.Options{
			Package:       cfg.Package,
			Singularize:   cfg.Singularize,
			Tables:        cfg.Tables,
			ExcludeTables: cfg.Exclude,
			Types:         types,
		}
	}

	flags := cmd.Flags()
	if flags.Changed("package") {
		opts.Package = o.pkg
	}
	if flags.Changed("singularize") {
		opts.Singularize = o.singularize
	}
	if flags.Changed("tables") {
		opts.Tables = splitList(o.tables)
	}
	if flags.Changed("exclude") {
		opts.ExcludeTables = splitList(o.exclude)
	}
	return opts, nil
}

// sourceURL returns the single DDL source named on the command line.
func (o *options) sourceURL() (string, error) {
	switch {
	case o.input != "" && o.source != "":
		return "", fmt.Errorf("only one of --input or --source can be specified")
	case o.input != "":
		return o.input, nil
	case o.source != "":
		return o.source, nil
	case os.Getenv(config.SourceEnv) != "":
		return os.Getenv(config.SourceEnv), nil
	default:
		return "", fmt.Errorf("one of --input, --source or --config must be specified")
	}
}

func (o *options) run(cmd *cobra.Command) error {
	if o.output != "" && o.outputDir != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return asIO(err)
	}
	opts, err := o.genOptions(cmd, cfg)
	if err != nil {
		return err
	}

	if cfg != nil && len(cfg.Targets) > 0 && o.input == "" && o.source == "" {
		if o.watch {
			return fmt.Errorf("--watch cannot be used with configured targets")
		}
		return o.runTargets(cmd, cfg, opts)
	}

	source, err := o.sourceURL()
	if err != nil {
		return err
	}

	if o.watch {
		if o.input == "" {
			return fmt.Errorf("--watch requires --input")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return o.watchInput(ctx, source, opts)
	}

	return o.generate(cmd.Context(), source, opts)
}

// generate runs one generation and reports where the code went.
func (o *options) generate(ctx context.Context, source string, opts ddlgen.Options) error {
	o.logger.Debug("reading DDL", "input", source)
	ddl, err := ddlgen.LoadDDL(ctx, source, &opts)
	if err != nil {
		return asIO(err)
	}

	out := ddlgen.OutputOptions{Writer: o.stdout, OutputFile: o.output, OutputDir: o.outputDir}
	if err := ddlgen.Write(ddl, &opts, &out); err != nil {
		return asIO(err)
	}

	if dest := destination(out); dest != "" {
		fmt.Fprintf(o.stdout, "Go code successfully generated and written to '%s'\n", dest)
	}
	return nil
}

// runTargets runs every configured target. Per-target settings apply unless
// the matching flag was given.
func (o *options) runTargets(cmd *cobra.Command, cfg *config.Config, base ddlgen.Options) error {
	flags := cmd.Flags()
	resolved := cfg.Resolve()
	targets := make([]ddlgen.Target, 0, len(resolved))
	for _, t := range resolved {
		opts := base
		if !flags.Changed("package") {
			opts.Package = t.Package
		}
		if !flags.Changed("tables") {
			opts.Tables = t.Tables
		}
		if !flags.Changed("exclude") {
			opts.ExcludeTables = t.Exclude
		}

		targets = append(targets, ddlgen.Target{
			Source:  t.SourceURL(),
			Options: opts,
			Output:  ddlgen.OutputOptions{Writer: o.stdout, OutputFile: t.Output, OutputDir: t.OutputDir},
		})
		o.logger.Debug("target", "name", t.Name())
	}

	if err := ddlgen.RunTargets(cmd.Context(), targets); err != nil {
		return asIO(err)
	}

	for _, t := range targets {
		if dest := destination(t.Output); dest != "" {
			fmt.Fprintf(o.stdout, "Go code successfully generated and written to '%s'\n", dest)
		}
	}
	return nil
}

func (o *options) describe(cmd *cobra.Command) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return asIO(err)
	}
	opts, err := o.genOptions(cmd, cfg)
	if err != nil {
		return err
	}

	source, err := o.sourceURL()
	if err != nil {
		return err
	}

	ddl, err := ddlgen.LoadDDL(cmd.Context(), source, &opts)
	if err != nil {
		return asIO(err)
	}
	return ddlgen.Describe(ddl, &opts, o.format, o.stdout)
}

func destination(out ddlgen.OutputOptions) string {
	if out.OutputDir != "" {
		return out.OutputDir
	}
	return out.OutputFile
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ioErr *ioError
	if errors.As(err, &ioErr) {
		fmt.Fprintf(stderr, "IO Error: %v\n", err)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
