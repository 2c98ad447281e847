// Package config loads ddlgen.yaml and the optional .env file next to it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/ddlgen/internal/schema"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "ddlgen.yaml"

// SourceEnv names the environment variable holding the default source URL.
const SourceEnv = "DDLGEN_SOURCE"

// Config is the contents of a ddlgen.yaml file. When read with Load, values
// may reference environment variables as $NAME or ${NAME}.
type Config struct {
	// Package is the package clause of the generated code.
	Package string `yaml:"package,omitempty"`

	// Singularize turns plural table names into singular type names.
	Singularize bool `yaml:"singularize,omitempty"`

	// Tables restricts generation to the listed tables.
	Tables StringList `yaml:"tables,omitempty"`

	// Exclude drops the listed tables.
	Exclude StringList `yaml:"exclude,omitempty"`

	// Types maps additional base SQL types, or overrides built-in ones.
	Types map[string]TypeOverride `yaml:"types,omitempty"`

	// Targets lists independent generation runs. Each inherits the
	// top-level settings it does not set itself.
	Targets []Target `yaml:"targets,omitempty"`
}

// TypeOverride maps one base SQL type to Go types given as import path and
// name, e.g. github.com/google/uuid.UUID.
type TypeOverride struct {
	Type     string `yaml:"type"`
	Nullable string `yaml:"nullable"`
}

// Target is one generation run.
type Target struct {
	Input     string     `yaml:"input,omitempty"`
	Source    string     `yaml:"source,omitempty"`
	Output    string     `yaml:"output,omitempty"`
	OutputDir string     `yaml:"output_dir,omitempty"`
	Package   string     `yaml:"package,omitempty"`
	Tables    StringList `yaml:"tables,omitempty"`
	Exclude   StringList `yaml:"exclude,omitempty"`
}

// SourceURL returns the source of the target: the input file or the URL.
func (t Target) SourceURL() string {
	if t.Input != "" {
		return t.Input
	}
	return t.Source
}

// Name identifies the target in messages.
func (t Target) Name() string {
	out := t.Output
	if out == "" {
		out = t.OutputDir
	}
	if out == "" {
		out = "stdout"
	}
	return t.SourceURL() + " -> " + out
}

// StringList is a YAML value that can be either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = splitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list", node.Line)
	}
}

// splitList splits a comma separated scalar.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads and validates the configuration file at path; unknown keys are
// errors. Environment variables are expanded in string values after the YAML
// is decoded, so they cannot change its structure. Write $$ for a literal $.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := decode(data)
	if err == nil {
		cfg.expandEnv()
		err = cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration. Values are taken verbatim.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// expandEnv replaces $NAME and ${NAME} in every string value.
func (c *Config) expandEnv() {
	c.Package = expand(c.Package)
	expandList(c.Tables)
	expandList(c.Exclude)
	for base, o := range c.Types {
		c.Types[base] = TypeOverride{Type: expand(o.Type), Nullable: expand(o.Nullable)}
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		t.Input = expand(t.Input)
		t.Source = expand(t.Source)
		t.Output = expand(t.Output)
		t.OutputDir = expand(t.OutputDir)
		t.Package = expand(t.Package)
		expandList(t.Tables)
		expandList(t.Exclude)
	}
}

func expand(s string) string {
	return os.Expand(s, func(name string) string {
		// os.Expand reports "$$" as the variable "$"
		if name == "$" {
			return "$"
		}
		return os.Getenv(name)
	})
}

func expandList(list StringList) {
	for i, v := range list {
		list[i] = expand(v)
	}
}

// Validate checks that every target names one source and at most one output.
func (c *Config) Validate() error {
	for i, t := range c.Targets {
		if (t.Input == "") == (t.Source == "") {
			return fmt.Errorf("target %d: exactly one of input or source is required", i+1)
		}
		if t.Output != "" && t.OutputDir != "" {
			return fmt.Errorf("target %d: output and output_dir are mutually exclusive", i+1)
		}
	}
	for base, o := range c.Types {
		if o.Type == "" || o.Nullable == "" {
			return fmt.Errorf("types.%s: both type and nullable are required", base)
		}
	}
	return nil
}

// TypeMap returns the default type map extended with the configured types.
func (c *Config) TypeMap() (*schema.TypeMap, error) {
	m := schema.DefaultTypeMap()
	for base, o := range c.Types {
		notNull, err := schema.ParseTargetType(o.Type)
		if err != nil {
			return nil, fmt.Errorf("types.%s.type: %w", base, err)
		}
		nullable, err := schema.ParseTargetType(o.Nullable)
		if err != nil {
			return nil, fmt.Errorf("types.%s.nullable: %w", base, err)
		}
		m.Register(base, notNull, nullable)
	}
	return m, nil
}

// Resolve returns the configured targets with the top-level settings filled
// in where a target leaves them empty.
func (c *Config) Resolve() []Target {
	out := make([]Target, len(c.Targets))
	for i, t := range c.Targets {
		if t.Package == "" {
			t.Package = c.Package
		}
		if len(t.Tables) == 0 {
			t.Tables = c.Tables
		}
		if len(t.Exclude) == 0 {
			t.Exclude = c.Exclude
		}
		out[i] = t
	}
	return out
}

// LoadEnv loads variables from a .env file without overriding ones already
// set. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
