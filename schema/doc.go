// Package schema defines the data model for single-table DynamoDB designs:
// tables, entities, secondary indexes, key templates, and typed access
// patterns. The types here are the input to validation and code generation
// and carry no behavior beyond key construction and key lookup; loading them
// from a document is the job of compiler/load, checking them is the job of
// compiler/validate.
package schema
