package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/seitarof/gen-env/internal/diag"
	"github.com/seitarof/gen-env/internal/generator"
	"github.com/seitarof/gen-env/internal/parser"
	"github.com/seitarof/gen-env/internal/resolver"
)

// Runner orchestrates parser/resolver/generator layers.
type Runner interface {
	Run(ctx context.Context, cfg *Config) error
}

type runnerImpl struct {
	parser    parser.Parser
	resolver  resolver.Resolver
	generator generator.Generator
	logger    *zap.Logger
	out       io.Writer
}

// NewRunner creates a default runner implementation. The --list table is
// written to out.
func NewRunner(
	p parser.Parser,
	r resolver.Resolver,
	g generator.Generator,
	logger *zap.Logger,
	out io.Writer,
) Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &runnerImpl{
		parser:    p,
		resolver:  r,
		generator: g,
		logger:    logger,
		out:       out,
	}
}

// Run executes a single generation cycle. When any field of any struct has
// annotation problems, Run returns all of them as a diag.List and writes
// nothing.
func (r *runnerImpl) Run(ctx context.Context, cfg *Config) error {
	infos, err := r.collect(ctx, cfg)
	if err != nil {
		return err
	}

	structs, err := r.resolveAll(infos)
	if err != nil {
		return err
	}
	if ce := r.logger.Check(zap.DebugLevel, "resolved structs"); ce != nil {
		ce.Write(zap.String("dump", spew.Sdump(summarize(structs))))
	}

	if cfg.List {
		if _, err := io.WriteString(r.out, renderTable(structs)); err != nil {
			return fmt.Errorf("write list: %w", err)
		}
	}
	if cfg.Check {
		r.logger.Info("annotations are valid", zap.Int("structs", len(structs)))
		return nil
	}

	root := findStructByName(infos, cfg.Types[0])
	if root == nil {
		return fmt.Errorf("struct %q not found", cfg.Types[0])
	}
	local := make([]resolver.StructConfig, 0, len(structs))
	for _, sc := range structs {
		if sc.Struct.PkgPath != root.PkgPath {
			r.logger.Info("nested struct lives in another package, generate its loader there",
				zap.String("struct", sc.Struct.Name),
				zap.String("package", sc.Struct.PkgPath),
			)
			continue
		}
		local = append(local, sc)
	}

	genCfg := *cfg
	if genCfg.Output == "" {
		genCfg.Output = filepath.Join(filepath.Dir(root.Filename), strings.ToLower(root.Name)+cfg.Suffix)
	}
	if err := r.generator.Generate(&genCfg, local); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	r.logger.Info("generated loaders", zap.String("file", genCfg.Output), zap.Int("structs", len(local)))
	return nil
}

// collect parses every requested type together with its nested structs.
// Structs reached from more than one root are kept once.
func (r *runnerImpl) collect(ctx context.Context, cfg *Config) ([]*parser.StructInfo, error) {
	seen := map[string]bool{}
	var out []*parser.StructInfo
	for _, typ := range cfg.Types {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		infos, err := r.parser.ParseRecursive(cfg.Path, typ)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", typ, err)
		}
		for _, info := range infos {
			key := info.PkgPath + "." + info.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, info)
			r.logger.Debug("parsed struct", zap.String("struct", key), zap.Int("fields", len(info.Fields)))
		}
	}
	return out, nil
}

func (r *runnerImpl) resolveAll(infos []*parser.StructInfo) ([]resolver.StructConfig, error) {
	var all diag.List
	out := make([]resolver.StructConfig, 0, len(infos))
	for _, info := range infos {
		sc, err := r.resolver.ResolveStruct(info)
		if err != nil {
			list := diag.AsList(err)
			if list == nil {
				return nil, err
			}
			all = append(all, list...)
			continue
		}
		out = append(out, sc)
	}
	if len(all) > 0 {
		return nil, all
	}
	return out, nil
}

func findStructByName(infos []*parser.StructInfo, name string) *parser.StructInfo {
	for _, info := range infos {
		if info.Name == name {
			return info
		}
	}
	return nil
}

// variableRow is one line of the --list table.
type variableRow struct {
	Struct   string
	Field    string
	Kind     string
	Variable string
	Default  string
	With     string
	Optional bool
}

func summarize(structs []resolver.StructConfig) []variableRow {
	var rows []variableRow
	for _, sc := range structs {
		for _, fc := range sc.Fields {
			row := variableRow{
				Struct:   sc.Struct.Name,
				Field:    fc.Field.Name,
				Kind:     fc.Kind.String(),
				Optional: fc.Shape.IsWrapper(),
			}
			if fc.Flat != nil {
				row.Variable = fc.Flat.Key()
				row.Default = deref(fc.Flat.Default)
				row.With = deref(fc.Flat.With)
			}
			if fc.Kind == resolver.KindNested && fc.Field.Struct != nil {
				row.Variable = generator.LoaderName(fc.Field.Struct.Name)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func renderTable(structs []resolver.StructConfig) string {
	summary := summarize(structs)
	if len(summary) == 0 {
		return "no fields\n"
	}
	rows := make([][]string, 0, len(summary))
	for _, s := range summary {
		optional := ""
		if s.Optional {
			optional = "yes"
		}
		rows = append(rows, []string{s.Struct, s.Field, s.Kind, s.Variable, s.Default, s.With, optional})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Struct", "Field", "Kind", "Variable", "Default", "With", "Optional"})
	t.SetAlign("left")
	t.SetEmptyString("-")
	return t.Render("grid")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
