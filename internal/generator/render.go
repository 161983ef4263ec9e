package generator

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/types"
	"path"
	"sort"
	"strconv"

	"github.com/seitarof/gen-env/internal/resolver"
)

// fieldStmt renders the statement loading one field into `out`.
func fieldStmt(fc resolver.FieldConfig, pkgPath string, fileImports map[string]string, imps *importSet) (string, error) {
	name := fc.Field.Name
	switch fc.Kind {
	case resolver.KindNone:
		return "// " + name + " is not loaded from the environment.", nil
	case resolver.KindNested:
		return nestedStmt(fc, pkgPath, imps)
	case resolver.KindFlat:
		return flatStmt(fc, fileImports, imps)
	default:
		return "", fmt.Errorf("unknown field kind %s", fc.Kind)
	}
}

func nestedStmt(fc resolver.FieldConfig, pkgPath string, imps *importSet) (string, error) {
	ref := fc.Field.Struct
	if fc.Shape.IsWrapper() {
		return "", fmt.Errorf("nested field of optional type %s is not supported", fc.Field.TypeStr)
	}
	if ref == nil {
		return "", fmt.Errorf("nested field type %s is not a named struct", fc.Field.TypeStr)
	}

	loader := LoaderName(ref.Name)
	if ref.PkgPath != pkgPath {
		imps.add(ref.PkgName, ref.PkgPath)
		loader = ref.PkgName + "." + loader
	}
	return fmt.Sprintf("out.%s = fromenv.Nested(&err, %s)", fc.Field.Name, loader), nil
}

func flatStmt(fc resolver.FieldConfig, fileImports map[string]string, imps *importSet) (string, error) {
	flat := fc.Flat
	if flat == nil {
		return "", fmt.Errorf("flat field without configuration")
	}
	imps.addReferenced(fc.Field.Type, fileImports)

	_, pointer := fc.Field.Type.(*ast.StarExpr)
	typ := fc.Field.TypeStr
	if pointer {
		typ = types.ExprString(fc.Shape.Inner)
	}

	parse := "fromenv.Parse[" + typ + "]"
	if flat.With != nil {
		parse = *flat.With
		if err := imps.addExpr(parse, fileImports); err != nil {
			return "", fmt.Errorf("with: %w", err)
		}
	}

	key := strconv.Quote(flat.Key())
	var call string
	switch {
	case pointer:
		call = fmt.Sprintf("fromenv.Optional(src, &err, %s, %s)", key, parse)
	case fc.Shape.IsWrapper():
		call = fmt.Sprintf("fromenv.Maybe(src, &err, %s, %s)", key, parse)
	case flat.Default != nil:
		if err := imps.addExpr(*flat.Default, fileImports); err != nil {
			return "", fmt.Errorf("default: %w", err)
		}
		call = fmt.Sprintf("fromenv.OrDefault(src, &err, %s, %s, %s)", key, parse, *flat.Default)
	default:
		call = fmt.Sprintf("fromenv.Required(src, &err, %s, %s)", key, parse)
	}
	return "out." + fc.Field.Name + " = " + call, nil
}

// importSet collects the imports of the generated file keyed by path.
type importSet struct {
	names map[string]string
}

func newImportSet() *importSet {
	return &importSet{names: map[string]string{}}
}

func (s *importSet) add(name, importPath string) {
	if _, ok := s.names[importPath]; !ok {
		s.names[importPath] = name
	}
}

func (s *importSet) addExpr(src string, fileImports map[string]string) error {
	expr, err := goparser.ParseExpr(src)
	if err != nil {
		return err
	}
	s.addReferenced(expr, fileImports)
	return nil
}

// addReferenced adds the imports of the source file that expr refers to
// through qualified identifiers.
func (s *importSet) addReferenced(expr ast.Expr, fileImports map[string]string) {
	if expr == nil {
		return
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok {
			if p, ok := fileImports[id.Name]; ok {
				s.add(id.Name, p)
			}
		}
		return true
	})
}

func (s *importSet) list() []string {
	out := make([]string, 0, len(s.names))
	for p, name := range s.names {
		spec := strconv.Quote(p)
		if path.Base(p) != name {
			spec = name + " " + spec
		}
		out = append(out, spec)
	}
	sort.Strings(out)
	return out
}
