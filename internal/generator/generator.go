package generator

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/seitarof/gen-env/internal/resolver"
)

//go:embed templates/*.go.tmpl
var templateFS embed.FS

// RuntimeImport is the package generated loaders call into.
const RuntimeImport = "github.com/seitarof/gen-env/fromenv"

// Generator generates environment loaders from resolved struct configs.
type Generator interface {
	Generate(cfg Config, structs []resolver.StructConfig) error
}

// Config is the minimum config contract required by generator.
type Config interface {
	OutputFilename() string
}

// Formatter formats generated Go code and organizes imports.
type Formatter interface {
	Format(filename string, src []byte) ([]byte, error)
}

// FileWriter writes generated code to disk.
type FileWriter interface {
	Write(filename string, data []byte) error
}

type generatorImpl struct {
	formatter Formatter
	writer    FileWriter
	tmpl      *template.Template
}

type goimportsFormatter struct{}

type fileWriter struct{}

type templateData struct {
	Package string
	Imports []string
	Loaders []loaderTemplateData
}

type loaderTemplateData struct {
	FuncName string
	Type     string
	// UsesSource is set when a field reads a variable, so the loader
	// declares the environment snapshot.
	UsesSource bool
	Fields     []fieldTemplateData
}

type fieldTemplateData struct {
	Docs []string
	Stmt string
}

// New creates a code generator.
func New(f Formatter, w FileWriter) Generator {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"renderStmt": renderStmt,
	}).ParseFS(templateFS, "templates/*.go.tmpl"))
	return &generatorImpl{formatter: f, writer: w, tmpl: tmpl}
}

// NewGoimportsFormatter creates a formatter backed by goimports.
func NewGoimportsFormatter() Formatter {
	return &goimportsFormatter{}
}

// NewFileWriter creates a plain file writer.
func NewFileWriter() FileWriter {
	return &fileWriter{}
}

// LoaderName returns the name of the function generated for typeName.
func LoaderName(typeName string) string {
	return "Load" + typeName + "FromEnv"
}

func (g *generatorImpl) Generate(cfg Config, structs []resolver.StructConfig) error {
	if len(structs) == 0 {
		return fmt.Errorf("no struct configs")
	}

	data, err := buildTemplateData(structs)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, "loader.go.tmpl", data); err != nil {
		return fmt.Errorf("template: %w", err)
	}

	formatted, err := g.formatter.Format(cfg.OutputFilename(), buf.Bytes())
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := g.writer.Write(cfg.OutputFilename(), formatted); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (f *goimportsFormatter) Format(filename string, src []byte) ([]byte, error) {
	return imports.Process(filename, src, nil)
}

func (w *fileWriter) Write(filename string, data []byte) error {
	return os.WriteFile(filename, data, 0o644)
}

func buildTemplateData(structs []resolver.StructConfig) (templateData, error) {
	first := structs[0].Struct
	pkgPath := first.PkgPath
	imps := newImportSet()
	imps.add("fromenv", RuntimeImport)

	loaders := make([]loaderTemplateData, 0, len(structs))
	seen := map[string]bool{}
	for _, sc := range structs {
		info := sc.Struct
		if info.PkgPath != pkgPath {
			return templateData{}, fmt.Errorf("struct %s is in package %q, expected %q", info.Name, info.PkgPath, pkgPath)
		}
		if seen[info.Name] {
			continue
		}
		seen[info.Name] = true

		fields := make([]fieldTemplateData, 0, len(sc.Fields))
		usesSource := false
		for _, fc := range sc.Fields {
			if fc.Kind == resolver.KindFlat {
				usesSource = true
			}
			stmt, err := fieldStmt(fc, pkgPath, info.Imports, imps)
			if err != nil {
				return templateData{}, fmt.Errorf("%s.%s: %w", info.Name, fc.Field.Name, err)
			}
			fields = append(fields, fieldTemplateData{Docs: fc.Docs, Stmt: stmt})
		}

		loaders = append(loaders, loaderTemplateData{
			FuncName:   LoaderName(info.Name),
			Type:       info.Name,
			UsesSource: usesSource,
			Fields:     fields,
		})
	}

	return templateData{
		Package: first.PkgName,
		Imports: imps.list(),
		Loaders: loaders,
	}, nil
}

func renderStmt(f fieldTemplateData) string {
	return "\t" + f.Stmt
}
