// Package load reads schema documents from disk and decodes them into the
// typed model. Loading is split in two: Load produces the raw nested
// structure the validator consumes, and Decode turns a raw document into a
// *schema.Schema once the caller has decided the validation result is good
// enough to proceed with. YAML and JSON documents are both accepted; JSON
// is parsed through the YAML decoder.
package load

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/tuanknguyen/tablegen/schema"
)

// document is the on-disk shape: entities are keyed by table name rather
// than nested under tables.
type document struct {
	Tables   []*schema.Table             `yaml:"tables"`
	Entities map[string][]*schema.Entity `yaml:"entities"`
	Patterns []*schema.AccessPattern     `yaml:"access_patterns"`
}

// Load reads the schema file at path into a raw nested structure suitable
// for validation.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes schema document bytes into a raw nested structure.
func Parse(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	return raw, nil
}

// Decode turns a raw document into the typed model, attaching each entity
// list to its table and defaulting missing discriminator tags to the
// upper-snake form of the entity name. Decode assumes the document has been
// validated; it still reports decoding failures, but performs no semantic
// checks of its own.
func Decode(raw map[string]any) (*schema.Schema, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw schema: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	s := &schema.Schema{Tables: doc.Tables, Patterns: doc.Patterns}
	for tableName, entities := range doc.Entities {
		t, ok := s.Table(tableName)
		if !ok {
			return nil, fmt.Errorf("entities declared for unknown table %q", tableName)
		}
		t.Entities = append(t.Entities, entities...)
	}
	for _, t := range s.Tables {
		for _, e := range t.Entities {
			if e.Tag == "" {
				e.Tag = strings.ToUpper(inflect.Underscore(e.Name))
			}
		}
	}
	return s, nil
}

// File is the convenience path: Load followed by Decode. Callers that want
// validation findings should run compiler/validate between the two steps
// instead.
func File(path string) (*schema.Schema, error) {
	raw, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
