// Package catalog provides the static node-kind registry backing the
// designer palette. Kinds are registered at startup and read-only afterwards.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Category groups kinds in the palette.
type Category string

const (
	CategoryTrigger    Category = "trigger"
	CategoryProcessing Category = "processing"
	CategoryControl    Category = "control"
	CategoryMemory     Category = "memory"
	CategoryOutput     Category = "output"
)

// Kind describes one node type: display metadata for the palette plus an
// optional JSON schema constraining kind-specific config keys.
type Kind struct {
	Name         string         `json:"name"`
	Label        string         `json:"label"`
	Icon         string         `json:"icon"`
	Color        string         `json:"color"`
	Category     Category       `json:"category"`
	Required     bool           `json:"required"`
	ConfigSchema map[string]any `json:"config_schema,omitempty"`
}

// Catalog maps a kind name to its metadata and compiled config schema.
type Catalog struct {
	kinds   map[string]Kind
	schemas map[string]*gojsonschema.Schema
}

func NewCatalog() *Catalog {
	return &Catalog{
		kinds:   make(map[string]Kind),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a kind to the catalog, compiling its config schema if one is
// declared. Registering the same name twice replaces the earlier entry.
func (c *Catalog) Register(kind Kind) error {
	if kind.Name == "" {
		return fmt.Errorf("node kind requires a name")
	}

	if kind.ConfigSchema != nil {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(kind.ConfigSchema))
		if err != nil {
			return fmt.Errorf("invalid config schema for kind '%s': %w", kind.Name, err)
		}

		c.schemas[kind.Name] = schema
	}

	c.kinds[kind.Name] = kind

	return nil
}

// Get returns the kind metadata for a name.
func (c *Catalog) Get(name string) (Kind, bool) {
	kind, ok := c.kinds[name]

	return kind, ok
}

// Has reports whether a kind is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.kinds[name]

	return ok
}

// Kinds returns all registered kinds sorted by name for stable palette order.
func (c *Catalog) Kinds() []Kind {
	kinds := make([]Kind, 0, len(c.kinds))
	for _, kind := range c.kinds {
		kinds = append(kinds, kind)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })

	return kinds
}

// ValidateConfig checks a node config against the kind's schema. Kinds
// without a schema accept any config.
func (c *Catalog) ValidateConfig(name string, config map[string]any) error {
	if !c.Has(name) {
		return fmt.Errorf("node kind '%s' not registered", name)
	}

	schema, ok := c.schemas[name]
	if ok {
		result, err := schema.Validate(gojsonschema.NewGoLoader(config))
		if err != nil {
			return err
		}

		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, resultError := range result.Errors() {
				details = append(details, resultError.String())
			}

			return fmt.Errorf("config validation failed for kind '%s': %s", name, strings.Join(details, "; "))
		}
	}

	return nil
}
