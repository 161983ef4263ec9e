package resolver

import "go/ast"

// DefaultWrappers are the generic type names treated as optional wrappers.
var DefaultWrappers = []string{"Option"}

// ShapeKind tells whether a field type wraps another type.
type ShapeKind int

const (
	Plain ShapeKind = iota
	Wrapper
)

func (k ShapeKind) String() string {
	if k == Wrapper {
		return "wrapper"
	}
	return "plain"
}

// Shape is the syntactic classification of a field type. Inner is the
// wrapped type for Wrapper and the type itself for Plain.
type Shape struct {
	Kind  ShapeKind
	Inner ast.Expr
}

// IsWrapper reports whether the type is an optional wrapper.
func (s Shape) IsWrapper() bool {
	return s.Kind == Wrapper
}

// ClassifyType decides from syntax alone whether expr is an optional
// wrapper: a pointer `*T`, or a generic instantiation `W[T]` / `pkg.W[T]`
// where W is one of wrappers and T is a single type argument. It does not
// check which package W comes from.
func ClassifyType(expr ast.Expr, wrappers []string) Shape {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return Shape{Kind: Wrapper, Inner: e.X}
	case *ast.IndexExpr:
		if isWrapperName(e.X, wrappers) && isTypeExpr(e.Index) {
			return Shape{Kind: Wrapper, Inner: e.Index}
		}
	}
	return Shape{Kind: Plain, Inner: expr}
}

func isWrapperName(expr ast.Expr, wrappers []string) bool {
	var name string
	switch e := expr.(type) {
	case *ast.Ident:
		name = e.Name
	case *ast.SelectorExpr:
		name = e.Sel.Name
	default:
		return false
	}
	for _, w := range wrappers {
		if w == name {
			return true
		}
	}
	return false
}

// isTypeExpr rejects index expressions that cannot be types, such as
// literals and arithmetic.
func isTypeExpr(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident, *ast.StarExpr, *ast.ArrayType, *ast.MapType, *ast.ChanType,
		*ast.FuncType, *ast.StructType, *ast.InterfaceType, *ast.IndexExpr, *ast.IndexListExpr:
		return true
	case *ast.SelectorExpr:
		_, ok := e.X.(*ast.Ident)
		return ok
	case *ast.ParenExpr:
		return isTypeExpr(e.X)
	default:
		return false
	}
}
