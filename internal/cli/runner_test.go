package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seitarof/gen-env/internal/diag"
	"github.com/seitarof/gen-env/internal/generator"
	"github.com/seitarof/gen-env/internal/parser"
	"github.com/seitarof/gen-env/internal/resolver"
)

var (
	appConfig   = &parser.StructInfo{Name: "Config", PkgPath: "example.com/app", PkgName: "app", Filename: "/src/app/config.go"}
	appDatabase = &parser.StructInfo{Name: "Database", PkgPath: "example.com/app", PkgName: "app", Filename: "/src/app/config.go"}
	subCache    = &parser.StructInfo{Name: "Cache", PkgPath: "example.com/app/sub", PkgName: "sub", Filename: "/src/app/sub/sub.go"}
	appServer   = &parser.StructInfo{Name: "Server", PkgPath: "example.com/app", PkgName: "app", Filename: "/src/app/server.go"}
)

func TestRunner_Run_GeneratesLocalStructsOnly(t *testing.T) {
	p := &mockParser{infos: map[string][]*parser.StructInfo{
		"Config": {appDatabase, subCache, appConfig},
	}}
	gen := &mockGenerator{}
	r := NewRunner(p, &mockResolver{}, gen, nil, &bytes.Buffer{})

	cfg := &Config{Types: []string{"Config"}, Path: "./app", Suffix: DefaultSuffix}
	if err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if gen.callCount != 1 {
		t.Fatalf("generator call count = %d, want 1", gen.callCount)
	}
	if len(gen.structs) != 2 {
		t.Fatalf("generated structs = %d, want 2", len(gen.structs))
	}
	if gen.structs[0].Struct.Name != "Database" || gen.structs[1].Struct.Name != "Config" {
		t.Fatalf("unexpected struct order: %s, %s", gen.structs[0].Struct.Name, gen.structs[1].Struct.Name)
	}
	if got := gen.cfg.OutputFilename(); got != "/src/app/config_env_gen.go" {
		t.Fatalf("output filename = %q", got)
	}
	if cfg.Output != "" {
		t.Fatalf("Run should not modify the caller's config, got Output %q", cfg.Output)
	}
	if p.paths[0] != "./app" {
		t.Fatalf("path not forwarded: %#v", p.paths)
	}
}

func TestRunner_Run_KeepsExplicitOutput(t *testing.T) {
	p := &mockParser{infos: map[string][]*parser.StructInfo{"Config": {appConfig}}}
	gen := &mockGenerator{}
	r := NewRunner(p, &mockResolver{}, gen, nil, &bytes.Buffer{})

	cfg := &Config{Types: []string{"Config"}, Path: ".", Output: "out/env.go", Suffix: DefaultSuffix}
	if err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := gen.cfg.OutputFilename(); got != "out/env.go" {
		t.Fatalf("output filename = %q", got)
	}
}

func TestRunner_Run_DeduplicatesSharedStructs(t *testing.T) {
	p := &mockParser{infos: map[string][]*parser.StructInfo{
		"Config": {appDatabase, appConfig},
		"Server": {appDatabase, appServer},
	}}
	gen := &mockGenerator{}
	r := NewRunner(p, &mockResolver{}, gen, nil, &bytes.Buffer{})

	cfg := &Config{Types: []string{"Config", "Server"}, Path: ".", Suffix: DefaultSuffix}
	if err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(gen.structs) != 3 {
		t.Fatalf("generated structs = %d, want 3", len(gen.structs))
	}
}

func TestRunner_Run_ReportsDiagnosticsOfEveryStruct(t *testing.T) {
	p := &mockParser{infos: map[string][]*parser.StructInfo{
		"Config": {appDatabase, subCache, appConfig},
	}}
	rv := &mockResolver{errs: map[string]error{
		"Database": diag.List{diag.New(diag.ConflictError, diag.Span{}, "`ignored` cannot be used with other attributes")},
		"Config": diag.List{
			diag.New(diag.InvariantViolation, diag.Span{}, "optional fields cannot have a default"),
			diag.New(diag.UnknownOption, diag.Span{}, "unknown option `form`, did you mean `from`?"),
		},
	}}
	gen := &mockGenerator{}
	r := NewRunner(p, rv, gen, nil, &bytes.Buffer{})

	err := r.Run(context.Background(), &Config{Types: []string{"Config"}, Path: ".", Suffix: DefaultSuffix})
	list := diag.AsList(err)
	if len(list) != 3 {
		t.Fatalf("expected 3 diagnostics, got %v", err)
	}
	if list[0].Kind != diag.ConflictError || list[2].Kind != diag.UnknownOption {
		t.Fatalf("unexpected diagnostics order: %v", list)
	}
	if rv.calls != 3 {
		t.Fatalf("every struct should be resolved, got %d calls", rv.calls)
	}
	if gen.callCount != 0 {
		t.Fatal("generator should not run when annotations are invalid")
	}
}

func TestRunner_Run_CheckAndList(t *testing.T) {
	p := &mockParser{infos: map[string][]*parser.StructInfo{"Config": {appConfig}}}
	gen := &mockGenerator{}
	var out bytes.Buffer
	r := NewRunner(p, &mockResolver{}, gen, nil, &out)

	cfg := &Config{Types: []string{"Config"}, Path: ".", Suffix: DefaultSuffix, Check: true, List: true}
	if err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gen.callCount != 0 {
		t.Fatal("--check should not generate")
	}
	table := out.String()
	for _, want := range []string{"Variable", "SECRET_KEY", "Config", "flat"} {
		if !strings.Contains(table, want) {
			t.Fatalf("table should contain %q:\n%s", want, table)
		}
	}
}

func TestRunner_Run_ParseError(t *testing.T) {
	p := &mockParser{err: errors.New(`struct "Missing" not found in package "."`)}
	r := NewRunner(p, &mockResolver{}, &mockGenerator{}, nil, &bytes.Buffer{})

	err := r.Run(context.Background(), &Config{Types: []string{"Missing"}, Path: ".", Suffix: DefaultSuffix})
	if err == nil || !strings.HasPrefix(err.Error(), "parse Missing:") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunner_Run_CancelledContext(t *testing.T) {
	p := &mockParser{infos: map[string][]*parser.StructInfo{"Config": {appConfig}}}
	r := NewRunner(p, &mockResolver{}, &mockGenerator{}, nil, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Run(ctx, &Config{Types: []string{"Config"}, Path: ".", Suffix: DefaultSuffix})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(p.paths) != 0 {
		t.Fatal("parser should not run after cancellation")
	}
}

func TestRunner_Run_GeneratorError(t *testing.T) {
	p := &mockParser{infos: map[string][]*parser.StructInfo{"Config": {appConfig}}}
	gen := &mockGenerator{err: errors.New("disk full")}
	r := NewRunner(p, &mockResolver{}, gen, nil, &bytes.Buffer{})

	err := r.Run(context.Background(), &Config{Types: []string{"Config"}, Path: ".", Suffix: DefaultSuffix})
	if err == nil || err.Error() != "generate: disk full" {
		t.Fatalf("unexpected error: %v", err)
	}
}

type mockParser struct {
	infos map[string][]*parser.StructInfo
	err   error
	paths []string
}

func (m *mockParser) Parse(pkgPath string, typeName string) (*parser.StructInfo, error) {
	return nil, errors.New("not implemented")
}

func (m *mockParser) ParseRecursive(pkgPath string, typeName string) ([]*parser.StructInfo, error) {
	m.paths = append(m.paths, pkgPath)
	if m.err != nil {
		return nil, m.err
	}
	return m.infos[typeName], nil
}

type mockResolver struct {
	errs  map[string]error
	calls int
}

func (m *mockResolver) Resolve(field parser.FieldInfo) (resolver.FieldConfig, error) {
	return resolver.FieldConfig{}, errors.New("not implemented")
}

func (m *mockResolver) ResolveStruct(info *parser.StructInfo) (resolver.StructConfig, error) {
	m.calls++
	if err := m.errs[info.Name]; err != nil {
		return resolver.StructConfig{}, err
	}
	key := "SECRET_KEY"
	return resolver.StructConfig{
		Struct: info,
		Fields: []resolver.FieldConfig{{
			Field: parser.FieldInfo{Name: "APIKey", TypeStr: "string"},
			Kind:  resolver.KindFlat,
			Flat:  &resolver.Flat{Name: "API_KEY", From: &key},
		}},
	}, nil
}

type mockGenerator struct {
	callCount int
	cfg       generator.Config
	structs   []resolver.StructConfig
	err       error
}

func (m *mockGenerator) Generate(cfg generator.Config, structs []resolver.StructConfig) error {
	m.callCount++
	m.cfg = cfg
	m.structs = append([]resolver.StructConfig(nil), structs...)
	return m.err
}
