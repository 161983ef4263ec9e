package resolver

import "github.com/seitarof/gen-env/internal/parser"

// Kind is the resolved loading strategy of a field.
type Kind int

const (
	// KindFlat reads the field from one environment variable.
	KindFlat Kind = iota
	// KindNested loads the field as a struct of its own.
	KindNested
	// KindNone leaves the field alone.
	KindNone
)

func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "flat"
	case KindNested:
		return "nested"
	case KindNone:
		return "none"
	default:
		return "unknown"
	}
}

// Flat is the configuration of a field read from a single variable.
type Flat struct {
	// Name is the variable name used for documentation and introspection.
	Name string
	// From, when set, is the variable actually looked up.
	From *string
	// Default is a Go expression used when the variable is unset.
	Default *string
	// With is a conversion function `func(string) (T, error)`.
	With *string
}

// Key returns the variable the generated code looks up.
func (f Flat) Key() string {
	if f.From != nil {
		return *f.From
	}
	return f.Name
}

// FieldConfig is the validated configuration of one field.
type FieldConfig struct {
	Field parser.FieldInfo
	Shape Shape
	Kind  Kind
	// Flat is set only for KindFlat.
	Flat *Flat
	Docs []string
}

// StructConfig holds the configuration of every field of one struct.
type StructConfig struct {
	Struct *parser.StructInfo
	Fields []FieldConfig
}
