package parser

import (
	"go/ast"

	"github.com/seitarof/gen-env/internal/attr"
	"github.com/seitarof/gen-env/internal/diag"
)

// StructInfo holds the fields of one struct type read from source.
type StructInfo struct {
	Name    string
	PkgPath string
	PkgName string
	// Filename is the file declaring the struct.
	Filename string
	Span     diag.Span
	// Imports maps import names of the declaring file to package paths.
	Imports map[string]string
	Fields  []FieldInfo
}

// FieldInfo describes one named field together with its annotations. A
// declaration like `A, B int` yields two FieldInfo values.
type FieldInfo struct {
	Name     string
	NameSpan diag.Span
	// Type is the declared type expression; it is inspected syntactically only.
	Type    ast.Expr
	TypeStr string
	Blocks  []attr.Block
	// Docs are the field's comment lines that are not `//env` directives,
	// verbatim.
	Docs []string
	// Embedded is set for anonymous fields; Name is then the type name.
	Embedded bool
	// Struct is set when the field's type is a named struct type.
	Struct *TypeRef
}

// TypeRef identifies a named type.
type TypeRef struct {
	PkgPath string
	PkgName string
	Name    string
}

// Key returns the package-qualified name.
func (r TypeRef) Key() string {
	return r.PkgPath + "." + r.Name
}
