package schema

// FieldType is the closed set of entity field types. Every language backend
// must provide a type expression for every value; gen.ValidateCompleteness
// enforces this at backend load time.
type FieldType string

// Field types.
const (
	TypeString    FieldType = "string"
	TypeInt       FieldType = "int"
	TypeFloat     FieldType = "float"
	TypeBool      FieldType = "bool"
	TypeTimestamp FieldType = "timestamp"
	TypeUUID      FieldType = "uuid"
	TypeBytes     FieldType = "bytes"
	TypeStringSet FieldType = "string_set"
	TypeNumberSet FieldType = "number_set"
	TypeJSON      FieldType = "json"
)

// FieldTypeValues returns every field type, in a fixed order. The returned
// slice is a fresh copy on each call.
func FieldTypeValues() []FieldType {
	return []FieldType{
		TypeString, TypeInt, TypeFloat, TypeBool, TypeTimestamp,
		TypeUUID, TypeBytes, TypeStringSet, TypeNumberSet, TypeJSON,
	}
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	for _, v := range FieldTypeValues() {
		if t == v {
			return true
		}
	}
	return false
}

// Numeric reports whether the field type is stored as a DynamoDB number.
func (t FieldType) Numeric() bool {
	return t == TypeInt || t == TypeFloat || t == TypeTimestamp
}

// ReturnKind is the closed set of access-pattern return categories.
type ReturnKind string

// Return kinds.
const (
	ReturnEntity     ReturnKind = "entity"
	ReturnEntityList ReturnKind = "entity_list"
	ReturnFlag       ReturnKind = "flag"
	ReturnPayload    ReturnKind = "payload"
	ReturnNone       ReturnKind = "none"
)

// ReturnKindValues returns every return kind, in a fixed order.
func ReturnKindValues() []ReturnKind {
	return []ReturnKind{ReturnEntity, ReturnEntityList, ReturnFlag, ReturnPayload, ReturnNone}
}

// Valid reports whether k is a known return kind.
func (k ReturnKind) Valid() bool {
	for _, v := range ReturnKindValues() {
		if k == v {
			return true
		}
	}
	return false
}

// ParamType is the closed set of access-pattern parameter types. It covers
// every FieldType plus parameter-only types: an entity reference and a
// result-limit count.
type ParamType string

// Parameter-only types. Field-typed parameters reuse the FieldType values.
const (
	ParamEntityRef ParamType = "entity_ref"
	ParamLimit     ParamType = "limit"
)

// ParamTypeValues returns every parameter type, in a fixed order.
func ParamTypeValues() []ParamType {
	vals := make([]ParamType, 0, len(FieldTypeValues())+2)
	for _, ft := range FieldTypeValues() {
		vals = append(vals, ParamType(ft))
	}
	return append(vals, ParamEntityRef, ParamLimit)
}

// Valid reports whether p is a known parameter type.
func (p ParamType) Valid() bool {
	for _, v := range ParamTypeValues() {
		if p == v {
			return true
		}
	}
	return false
}

// FieldType returns the field type a parameter carries a value of, and
// whether it has one. Entity references and limits have no field type.
func (p ParamType) FieldType() (FieldType, bool) {
	ft := FieldType(p)
	if ft.Valid() {
		return ft, true
	}
	return "", false
}

// OpKind is the closed set of access-pattern operation kinds.
type OpKind string

// Operation kinds.
const (
	OpGet           OpKind = "get"
	OpPut           OpKind = "put"
	OpUpdate        OpKind = "update"
	OpDelete        OpKind = "delete"
	OpQuery         OpKind = "query"
	OpScan          OpKind = "scan"
	OpBatchGet      OpKind = "batch_get"
	OpBatchWrite    OpKind = "batch_write"
	OpTransactGet   OpKind = "transact_get"
	OpTransactWrite OpKind = "transact_write"
)

// OpKindValues returns every operation kind, in a fixed order.
func OpKindValues() []OpKind {
	return []OpKind{
		OpGet, OpPut, OpUpdate, OpDelete, OpQuery, OpScan,
		OpBatchGet, OpBatchWrite, OpTransactGet, OpTransactWrite,
	}
}

// Valid reports whether o is a known operation kind.
func (o OpKind) Valid() bool {
	for _, v := range OpKindValues() {
		if o == v {
			return true
		}
	}
	return false
}

// Mutating reports whether the operation writes to the table.
func (o OpKind) Mutating() bool {
	switch o {
	case OpPut, OpUpdate, OpDelete, OpBatchWrite, OpTransactWrite:
		return true
	}
	return false
}
