package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DescriptorFile is the per-skill configuration file name. A subdirectory of
// the skills root is eligible for discovery iff it contains this file.
const DescriptorFile = "skill.yaml"

const (
	defaultHandler   = "handler"
	defaultFunction  = "execute"
	defaultTimeoutMS = 30000
)

// descriptor mirrors the on-disk skill.yaml layout.
type descriptor struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Tags        []string `yaml:"tags"`

	InputSchema    *Schema        `yaml:"input_schema"`
	OutputSchema   *Schema        `yaml:"output_schema"`
	PromptTemplate string         `yaml:"prompt_template"`
	Execution      *executionYAML `yaml:"execution"`
}

type executionYAML struct {
	Handler  string `yaml:"handler"`
	Function string `yaml:"function"`
	Timeout  int    `yaml:"timeout"`
}

func readDescriptor(dir string) (*descriptor, error) {
	path := filepath.Join(dir, DescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor %s: %w", path, err)
	}

	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &d, nil
}

// readMetadata loads only the catalog fields of a skill descriptor.
func readMetadata(dir string) (Metadata, error) {
	d, err := readDescriptor(dir)
	if err != nil {
		return Metadata{}, err
	}
	return d.metadata(dir)
}

func (d *descriptor) metadata(dir string) (Metadata, error) {
	path := filepath.Join(dir, DescriptorFile)
	if d.Name == "" {
		return Metadata{}, fmt.Errorf("descriptor %s: %w: name", path, ErrMissingRequiredField)
	}
	if d.Version == "" {
		return Metadata{}, fmt.Errorf("descriptor %s: %w: version", path, ErrMissingRequiredField)
	}
	if d.Description == "" {
		return Metadata{}, fmt.Errorf("descriptor %s: %w: description", path, ErrMissingRequiredField)
	}

	typ := d.Type
	if typ == "" {
		typ = string(VariantScript)
	}
	variant, err := ParseVariant(typ)
	if err != nil {
		return Metadata{}, fmt.Errorf("descriptor %s: %w", path, err)
	}

	return Metadata{
		Name:        d.Name,
		Version:     d.Version,
		Description: d.Description,
		Tags:        d.Tags,
		Variant:     variant,
	}, nil
}

// readDefinition re-reads a descriptor and builds the full definition,
// applying execution defaults and enforcing the variant invariant.
func readDefinition(dir string, meta Metadata) (*Definition, error) {
	d, err := readDescriptor(dir)
	if err != nil {
		return nil, err
	}

	def := &Definition{
		Metadata:       meta,
		PromptTemplate: d.PromptTemplate,
	}

	if d.InputSchema != nil {
		def.InputSchema = *d.InputSchema
	}
	if def.InputSchema.Type == "" {
		def.InputSchema.Type = "object"
	}
	if d.OutputSchema != nil {
		def.OutputSchema = *d.OutputSchema
	}
	if def.OutputSchema.Type == "" {
		def.OutputSchema.Type = "object"
	}

	if d.Execution != nil {
		def.Execution = &ExecutionConfig{
			Handler:  d.Execution.Handler,
			Function: d.Execution.Function,
			Timeout:  d.Execution.Timeout,
		}
		if def.Execution.Handler == "" {
			def.Execution.Handler = defaultHandler
		}
		if def.Execution.Function == "" {
			def.Execution.Function = defaultFunction
		}
		if def.Execution.Timeout <= 0 {
			def.Execution.Timeout = defaultTimeoutMS
		}
	}

	switch meta.Variant {
	case VariantScript, VariantHybrid:
		if def.Execution == nil {
			return nil, &ConfigError{Name: meta.Name, Reason: fmt.Sprintf("%s skill missing execution config", meta.Variant)}
		}
	case VariantPrompt:
		if strings.TrimSpace(def.PromptTemplate) == "" {
			return nil, &ConfigError{Name: meta.Name, Reason: "pure-prompt skill missing prompt_template"}
		}
	}

	return def, nil
}
