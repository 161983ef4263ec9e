package parser

import (
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/seitarof/gen-env/internal/attr"
	"github.com/seitarof/gen-env/internal/diag"
)

// Parser extracts struct field descriptions from Go packages.
type Parser interface {
	Parse(pkgPath string, typeName string) (*StructInfo, error)
	ParseRecursive(pkgPath string, typeName string) ([]*StructInfo, error)
}

type parserImpl struct {
	logger *zap.Logger
	dir    string
}

// Option configures the parser.
type Option func(*parserImpl)

// WithLogger sets the logger used for warnings.
func WithLogger(l *zap.Logger) Option {
	return func(p *parserImpl) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDir sets the directory package patterns are resolved from.
func WithDir(dir string) Option {
	return func(p *parserImpl) { p.dir = dir }
}

// New returns default parser.
func New(opts ...Option) Parser {
	p := &parserImpl{logger: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *parserImpl) Parse(pkgPath string, typeName string) (*StructInfo, error) {
	cache := map[string]*packages.Package{}
	return p.parseWithCache(pkgPath, typeName, cache)
}

func (p *parserImpl) parseWithCache(
	pkgPath string,
	typeName string,
	cache map[string]*packages.Package,
) (*StructInfo, error) {
	pkg, err := p.loadPackage(pkgPath, cache)
	if err != nil {
		return nil, err
	}

	spec, file := findTypeSpec(pkg, typeName)
	if spec == nil {
		return nil, fmt.Errorf("struct %q not found in package %q", typeName, pkgPath)
	}
	st, ok := spec.Type.(*ast.StructType)
	if !ok || spec.Assign.IsValid() {
		return nil, fmt.Errorf("%q in package %q is not a struct type", typeName, pkgPath)
	}
	if spec.TypeParams != nil && spec.TypeParams.NumFields() > 0 {
		return nil, fmt.Errorf("%q in package %q is generic, which is not supported", typeName, pkgPath)
	}

	fset := pkg.Fset
	return &StructInfo{
		Name:     typeName,
		PkgPath:  pkg.PkgPath,
		PkgName:  pkg.Name,
		Filename: fset.Position(file.Pos()).Filename,
		Span:     spanOf(fset, spec.Name.Pos(), len(typeName)),
		Imports:  fileImports(pkg.TypesInfo, file),
		Fields:   collectFields(fset, pkg.TypesInfo, st),
	}, nil
}

func (p *parserImpl) loadPackage(pkgPath string, cache map[string]*packages.Package) (*packages.Package, error) {
	if cached, ok := cache[pkgPath]; ok {
		return cached, nil
	}

	cfg := &packages.Config{
		Dir: p.dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedModule,
	}

	pkgs, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("load package %q: %w", pkgPath, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("package %q has compilation errors", pkgPath)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("package %q not found", pkgPath)
	}
	cache[pkgPath] = pkgs[0]
	// Nested lookups use the import path even when the root was loaded by a
	// relative pattern.
	cache[pkgs[0].PkgPath] = pkgs[0]
	return pkgs[0], nil
}

func (p *parserImpl) ParseRecursive(pkgPath string, typeName string) ([]*StructInfo, error) {
	visited := map[string]bool{}
	cache := map[string]*packages.Package{}
	rootPkg, err := p.loadPackage(pkgPath, cache)
	if err != nil {
		return nil, err
	}

	rootModulePath := ""
	if rootPkg.Module != nil {
		rootModulePath = rootPkg.Module.Path
	}

	result := []*StructInfo{}
	if err := p.parseRec(pkgPath, typeName, visited, cache, rootModulePath, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *parserImpl) parseRec(
	pkgPath string,
	typeName string,
	visited map[string]bool,
	cache map[string]*packages.Package,
	rootModulePath string,
	result *[]*StructInfo,
) error {
	info, err := p.parseWithCache(pkgPath, typeName, cache)
	if err != nil {
		return err
	}

	key := info.PkgPath + "." + info.Name
	if visited[key] {
		return nil
	}
	visited[key] = true

	for _, f := range info.Fields {
		if f.Struct == nil || !requestsNested(f) {
			continue
		}
		if !shouldRecurseNestedPackage(f.Struct.PkgPath, info.PkgPath, rootModulePath) {
			continue
		}
		if visited[f.Struct.Key()] {
			continue
		}
		if err := p.parseRec(f.Struct.PkgPath, f.Struct.Name, visited, cache, rootModulePath, result); err != nil {
			p.logger.Warn("nested struct skipped",
				zap.String("struct", info.Name),
				zap.String("field", f.Name),
				zap.String("type", f.Struct.Key()),
				zap.Error(err),
			)
			continue
		}
	}

	*result = append(*result, info)
	return nil
}

// requestsNested reports whether the field's annotations ask for nested
// loading. Problems in the annotations are left for the resolver to report.
func requestsNested(f FieldInfo) bool {
	opts, _ := attr.Parse(f.Blocks)
	return opts.Nested.IsPresent()
}

func findTypeSpec(pkg *packages.Package, typeName string) (*ast.TypeSpec, *ast.File) {
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, s := range gen.Specs {
				if ts, ok := s.(*ast.TypeSpec); ok && ts.Name.Name == typeName {
					return ts, file
				}
			}
		}
	}
	return nil, nil
}

// fileImports maps the names a file uses for its imports to their paths.
// Blank and dot imports are left out.
func fileImports(info *types.Info, file *ast.File) map[string]string {
	out := map[string]string{}
	for _, spec := range file.Imports {
		if spec.Name != nil && (spec.Name.Name == "_" || spec.Name.Name == ".") {
			continue
		}
		pn := info.PkgNameOf(spec)
		if pn == nil {
			continue
		}
		out[pn.Name()] = pn.Imported().Path()
	}
	return out
}

func collectFields(fset *token.FileSet, info *types.Info, st *ast.StructType) []FieldInfo {
	fields := make([]FieldInfo, 0, st.Fields.NumFields())
	for _, f := range st.Fields.List {
		blocks, docs := collectAnnotations(fset, f)
		typeStr := exprString(fset, f.Type)
		ref := structRef(info, f.Type)

		if len(f.Names) == 0 {
			name := embeddedName(f.Type)
			fields = append(fields, FieldInfo{
				Name:     name,
				NameSpan: spanOf(fset, f.Type.Pos(), len(typeStr)),
				Type:     f.Type,
				TypeStr:  typeStr,
				Blocks:   blocks,
				Docs:     docs,
				Embedded: true,
				Struct:   ref,
			})
			continue
		}

		for _, n := range f.Names {
			// Blank fields cannot be assigned.
			if n.Name == "_" {
				continue
			}
			fields = append(fields, FieldInfo{
				Name:     n.Name,
				NameSpan: spanOf(fset, n.Pos(), len(n.Name)),
				Type:     f.Type,
				TypeStr:  typeStr,
				Blocks:   blocks,
				Docs:     docs,
				Struct:   ref,
			})
		}
	}
	return fields
}

// collectAnnotations splits the field's comments into `//env` directives and
// documentation, then appends the struct tag block.
func collectAnnotations(fset *token.FileSet, f *ast.Field) ([]attr.Block, []string) {
	var (
		blocks []attr.Block
		docs   []string
	)
	for _, group := range []*ast.CommentGroup{f.Doc, f.Comment} {
		if group == nil {
			continue
		}
		for _, c := range group.List {
			if b, ok := attr.ParseDirective(c.Text, spanOf(fset, c.Pos(), len(c.Text))); ok {
				blocks = append(blocks, b)
				continue
			}
			docs = append(docs, c.Text)
		}
	}

	if f.Tag != nil {
		if b, ok := attr.ParseTag(f.Tag.Value, spanOf(fset, f.Tag.Pos(), len(f.Tag.Value))); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks, docs
}

func structRef(info *types.Info, expr ast.Expr) *TypeRef {
	if info == nil {
		return nil
	}
	t := info.TypeOf(expr)
	if t == nil {
		return nil
	}
	if a, ok := t.(*types.Alias); ok {
		t = types.Unalias(a)
	}
	named, ok := t.(*types.Named)
	if !ok {
		return nil
	}
	if _, ok := named.Underlying().(*types.Struct); !ok {
		return nil
	}
	obj := named.Obj()
	if obj.Pkg() == nil {
		return nil
	}
	return &TypeRef{PkgPath: obj.Pkg().Path(), PkgName: obj.Pkg().Name(), Name: obj.Name()}
}

func embeddedName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return embeddedName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(e.X)
	case *ast.IndexListExpr:
		return embeddedName(e.X)
	default:
		return ""
	}
}

func exprString(fset *token.FileSet, expr ast.Expr) string {
	var b strings.Builder
	if err := printer.Fprint(&b, fset, expr); err != nil {
		return ""
	}
	return b.String()
}

func spanOf(fset *token.FileSet, pos token.Pos, length int) diag.Span {
	p := fset.Position(pos)
	return diag.Span{
		Filename: p.Filename,
		Line:     p.Line,
		Column:   p.Column,
		Offset:   p.Offset,
		Len:      length,
	}
}

func shouldRecurseNestedPackage(nestedPkgPath, currentPkgPath, rootModulePath string) bool {
	if nestedPkgPath == "" {
		return false
	}
	if nestedPkgPath == currentPkgPath {
		return true
	}
	if rootModulePath == "" {
		return false
	}
	return nestedPkgPath == rootModulePath || strings.HasPrefix(nestedPkgPath, rootModulePath+"/")
}
