// Package schema declares the field tables of every entity kind and turns raw external
// input into typed records.
//
// Field order is significant: it is the positional column contract of import sheets.
package schema

import (
	"fmt"

	"github.com/noah-isme/gradadmin-api/internal/models"
)

// FieldType is the declared type of a field.
type FieldType int

const (
	String FieldType = iota
	Int
	Bool
	Date
	Enum
	Ref
	RefList
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "integer"
	case Bool:
		return "boolean"
	case Date:
		return "date"
	case Enum:
		return "enum"
	case Ref:
		return "reference"
	case RefList:
		return "reference list"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field describes one externally visible attribute of an entity.
type Field struct {
	Name     string
	Column   string
	Type     FieldType
	Enum     []string
	RefKind  models.EntityKind
	Optional bool
	// Search marks the field matched by case-insensitive substring in list filters.
	Search  bool
	Default interface{}
}

// Schema is the ordered field table of one entity kind.
type Schema struct {
	Kind   models.EntityKind
	Table  string
	Fields []Field
}

// Field looks up a field by its external name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the storage columns in declared order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Required returns the non-optional fields in declared order.
func (s Schema) Required() []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if !f.Optional {
			out = append(out, f)
		}
	}
	return out
}

// Record is a projected mapping of field name to typed value.
type Record map[string]interface{}

// For returns the schema of kind.
func For(kind models.EntityKind) (Schema, bool) {
	s, ok := registry[kind]
	return s, ok
}

// MustFor is For for statically known kinds.
func MustFor(kind models.EntityKind) Schema {
	s, ok := registry[kind]
	if !ok {
		panic("schema: unknown entity kind " + string(kind))
	}
	return s
}
