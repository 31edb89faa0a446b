package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Segment is one piece of a key template: either a literal or a reference to
// an entity field. Exactly one of Literal and FieldRef is set.
type Segment struct {
	Literal  string
	FieldRef string
}

// KeyTemplate is the single source of truth for an entity's key
// construction. It is parsed from patterns such as "USER#{id}" where text
// outside braces is literal and "{name}" references an entity field.
//
// Both key-derivation paths are projections of the same segment list:
// Build renders the key from a full entity instance, BuildFromArgs renders
// it from raw identifier values in Args order. Because they share one
// template they agree by construction, not by convention.
type KeyTemplate struct {
	Segments []Segment
}

// ParseKeyTemplate parses a key pattern into a template. An empty pattern
// yields an empty template, which is valid for entities without a sort key.
func ParseKeyTemplate(pattern string) (KeyTemplate, error) {
	var t KeyTemplate
	rest := pattern
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.ContainsRune(rest, '}') {
				return KeyTemplate{}, fmt.Errorf("unmatched '}' in key pattern %q", pattern)
			}
			t.Segments = append(t.Segments, Segment{Literal: rest})
			break
		}
		if open > 0 {
			t.Segments = append(t.Segments, Segment{Literal: rest[:open]})
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			return KeyTemplate{}, fmt.Errorf("unmatched '{' in key pattern %q", pattern)
		}
		ref := rest[open+1 : open+close]
		if ref == "" {
			return KeyTemplate{}, fmt.Errorf("empty field reference in key pattern %q", pattern)
		}
		t.Segments = append(t.Segments, Segment{FieldRef: ref})
		rest = rest[open+close+1:]
	}
	return t, nil
}

// MustParseKeyTemplate is ParseKeyTemplate that panics on malformed
// patterns. Intended for statically known patterns in tests and fixtures.
func MustParseKeyTemplate(pattern string) KeyTemplate {
	t, err := ParseKeyTemplate(pattern)
	if err != nil {
		panic(err)
	}
	return t
}

// Args returns the referenced field names in template order.
func (t KeyTemplate) Args() []string {
	var args []string
	for _, s := range t.Segments {
		if s.FieldRef != "" {
			args = append(args, s.FieldRef)
		}
	}
	return args
}

// Build renders the key from an entity instance given as a field-name map.
// Every referenced field must be present.
func (t KeyTemplate) Build(fields map[string]any) (string, error) {
	var b strings.Builder
	for _, s := range t.Segments {
		if s.FieldRef == "" {
			b.WriteString(s.Literal)
			continue
		}
		v, ok := fields[s.FieldRef]
		if !ok {
			return "", fmt.Errorf("key template references missing field %q", s.FieldRef)
		}
		fmt.Fprintf(&b, "%v", v)
	}
	return b.String(), nil
}

// BuildFromArgs renders the key from raw identifier values, one per entry of
// Args in the same order. This is the read/delete-path key lookup.
func (t KeyTemplate) BuildFromArgs(args ...any) (string, error) {
	refs := t.Args()
	if len(args) != len(refs) {
		return "", fmt.Errorf("key template takes %d argument(s), got %d", len(refs), len(args))
	}
	fields := make(map[string]any, len(refs))
	for i, r := range refs {
		fields[r] = args[i]
	}
	return t.Build(fields)
}

// String renders the template back to its pattern form.
func (t KeyTemplate) String() string {
	var b strings.Builder
	for _, s := range t.Segments {
		if s.FieldRef != "" {
			b.WriteString("{" + s.FieldRef + "}")
		} else {
			b.WriteString(s.Literal)
		}
	}
	return b.String()
}

// UnmarshalYAML decodes a key template from its pattern string form.
func (t *KeyTemplate) UnmarshalYAML(node *yaml.Node) error {
	var pattern string
	if err := node.Decode(&pattern); err != nil {
		return err
	}
	parsed, err := ParseKeyTemplate(pattern)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes the template as its pattern string.
func (t KeyTemplate) MarshalYAML() (any, error) {
	return t.String(), nil
}

// MarshalJSON encodes the template as its pattern string.
func (t KeyTemplate) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a key template from its pattern string form.
func (t *KeyTemplate) UnmarshalJSON(data []byte) error {
	var pattern string
	if err := json.Unmarshal(data, &pattern); err != nil {
		return err
	}
	parsed, err := ParseKeyTemplate(pattern)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
