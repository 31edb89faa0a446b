package validate

import "fmt"

// Issue is one validation finding: where it was found, what is wrong, and
// how to fix it. Path is a locator into the raw document, for example
// "access_patterns[2].index".
type Issue struct {
	Path       string `json:"path"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// String renders the issue for direct display.
func (i Issue) String() string {
	if i.Suggestion != "" {
		return fmt.Sprintf("%s: %s (%s)", i.Path, i.Message, i.Suggestion)
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Inventory is the entity/field index extracted during structural parsing.
// It is populated whenever the document's shape parses, even if semantic
// checks fail afterwards, so downstream tooling can reason about partially
// valid schemas.
type Inventory struct {
	// Entities maps entity name to its declared field names, in order.
	Entities map[string][]string `json:"entities"`
	// Tables maps table name to the entity names it stores, in order.
	Tables map[string][]string `json:"tables"`
}

// Result aggregates everything one validation run found. It is created once
// per run, mutated only by the validator while it runs, and never after the
// validator returns it.
type Result struct {
	Errors    []Issue   `json:"errors"`
	Warnings  []Issue   `json:"warnings"`
	Inventory Inventory `json:"inventory"`
}

// Valid reports whether the run found no errors. Warnings do not affect
// validity.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

func (r *Result) errorf(path, format string, args ...any) {
	r.addError(path, fmt.Sprintf(format, args...), "")
}

func (r *Result) addError(path, message, suggestion string) {
	r.Errors = append(r.Errors, Issue{Path: path, Message: message, Suggestion: suggestion})
}

func (r *Result) addWarning(path, message, suggestion string) {
	r.Warnings = append(r.Warnings, Issue{Path: path, Message: message, Suggestion: suggestion})
}
