package gen

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed backends
var builtinBackends embed.FS

// DefaultBackendRoot returns the backend configuration root shipped with
// this module, one directory per supported language identifier.
func DefaultBackendRoot() fs.FS {
	sub, err := fs.Sub(builtinBackends, "backends")
	if err != nil {
		// The embedded tree always contains "backends".
		panic(err)
	}
	return sub
}

// Naming holds the backend's naming-convention templates. Templates may use
// "{entity}" for the identifier-style-cased entity name and "{Entity}" for
// its PascalCase form.
type Naming struct {
	Create         string `yaml:"create" validate:"required"`
	Get            string `yaml:"get" validate:"required"`
	Update         string `yaml:"update" validate:"required"`
	Delete         string `yaml:"delete" validate:"required"`
	EntityFile     string `yaml:"entity_file" validate:"required"`
	RepositoryFile string `yaml:"repository_file" validate:"required"`
	RepositoryType string `yaml:"repository_type" validate:"required"`
	ExampleFile    string `yaml:"example_file" validate:"required"`
}

// Backend is the immutable per-language configuration: naming conventions,
// file layout, support-file manifest, and the lint/format commands emitted
// projects are expected to run. It is loaded once per generation run.
type Backend struct {
	Lang          string   `yaml:"-"`
	DisplayName   string   `yaml:"display_name" validate:"required"`
	FileExtension string   `yaml:"file_extension" validate:"required"`
	IdentStyle    string   `yaml:"ident_style" validate:"required,oneof=snake camel pascal"`
	MethodStyle   string   `yaml:"method_style" validate:"required,oneof=snake camel pascal"`
	Naming        Naming   `yaml:"naming" validate:"required"`
	SupportFiles  []string `yaml:"support_files"`
	FormatCommand []string `yaml:"format_command"`
	LintCommand   []string `yaml:"lint_command"`

	fsys fs.FS
}

// identPattern is the allow-list shape for language identifiers. Anything
// else, in particular path separators and dot segments, is rejected before
// the identifier is used to build a path.
var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Backends lists the language identifiers available under root, sorted.
func Backends(root fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(root, ".")
	if err != nil {
		return nil, fmt.Errorf("read backend root: %w", err)
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() {
			langs = append(langs, e.Name())
		}
	}
	sort.Strings(langs)
	return langs, nil
}

// LoadBackend loads the backend configuration for the given language
// identifier from root. The identifier is checked against the allow-list
// shape before any file-system access, and unknown identifiers fail closed
// listing the available languages.
func LoadBackend(root fs.FS, lang string) (*Backend, error) {
	if !identPattern.MatchString(lang) {
		return nil, &SecurityError{Ident: lang, Message: "language identifier must match [a-z][a-z0-9_]*"}
	}
	available, err := Backends(root)
	if err != nil {
		return nil, err
	}
	if !containsString(available, lang) {
		return nil, NewConfigError("Language", lang, "language not found", available...)
	}

	data, err := fs.ReadFile(root, lang+"/backend.yaml")
	if err != nil {
		return nil, NewConfigError("Language", lang, fmt.Sprintf("read backend config: %v", err))
	}
	b := &Backend{Lang: lang}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, NewConfigError("Language", lang, fmt.Sprintf("parse backend config: %v", err))
	}
	if err := validator.New().Struct(b); err != nil {
		return nil, NewConfigError("Language", lang, fmt.Sprintf("invalid backend config: %v", err))
	}
	if b.fsys, err = fs.Sub(root, lang); err != nil {
		return nil, NewConfigError("Language", lang, fmt.Sprintf("open backend dir: %v", err))
	}
	return b, nil
}

// EntityIdent returns the entity name cased per the backend's identifier
// style.
func (b *Backend) EntityIdent(name string) string {
	return caseIdent(b.IdentStyle, name)
}

// MethodIdent returns a method name cased per the backend's method style.
// Access-pattern names are declared in snake_case and recased here.
func (b *Backend) MethodIdent(name string) string {
	return caseIdent(b.MethodStyle, name)
}

func caseIdent(style, name string) string {
	switch style {
	case "camel":
		return inflect.CamelizeDownFirst(inflect.Underscore(name))
	case "pascal":
		return inflect.Camelize(inflect.Underscore(name))
	default:
		return inflect.Underscore(name)
	}
}

// Apply renders a naming template for the given entity, substituting both
// placeholder forms.
func (b *Backend) Apply(tmpl, entity string) string {
	out := strings.ReplaceAll(tmpl, "{Entity}", inflect.Camelize(inflect.Underscore(entity)))
	return strings.ReplaceAll(out, "{entity}", b.EntityIdent(entity))
}

// SupportFile reads one manifest entry from the backend directory. The name
// must be listed in the manifest; support files are copied verbatim into
// generated projects.
func (b *Backend) SupportFile(name string) ([]byte, error) {
	if !containsString(b.SupportFiles, name) {
		return nil, NewConfigError("SupportFile", name, "file is not in the backend manifest", b.SupportFiles...)
	}
	data, err := fs.ReadFile(b.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read support file %s: %w", name, err)
	}
	return data, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
