package generator

import (
	"fmt"
	goparser "go/parser"
	"testing"

	"github.com/seitarof/gen-env/internal/parser"
	"github.com/seitarof/gen-env/internal/resolver"
)

type passthroughFormatter struct{}

type discardWriter struct{}

func (passthroughFormatter) Format(_ string, src []byte) ([]byte, error) { return src, nil }

func (discardWriter) Write(_ string, _ []byte) error { return nil }

func BenchmarkGeneratorGenerate_TemplateOnly(b *testing.B) {
	g := New(passthroughFormatter{}, discardWriter{})
	cfg := testConfig{filename: "bench_gen.go"}
	structs := benchmarkStructs(8, 32)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := g.Generate(cfg, structs); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkStructs(structCount, fieldCount int) []resolver.StructConfig {
	intType, _ := goparser.ParseExpr("int")
	out := make([]resolver.StructConfig, 0, structCount)
	for i := 0; i < structCount; i++ {
		fields := make([]resolver.FieldConfig, 0, fieldCount)
		for j := 0; j < fieldCount; j++ {
			name := fmt.Sprintf("Field%d", j)
			flat := &resolver.Flat{Name: resolver.DefaultName(name)}
			if j%2 == 0 {
				def := fmt.Sprint(j)
				flat.Default = &def
			}
			fields = append(fields, resolver.FieldConfig{
				Field: parser.FieldInfo{Name: name, Type: intType, TypeStr: "int"},
				Shape: resolver.Shape{Kind: resolver.Plain, Inner: intType},
				Kind:  resolver.KindFlat,
				Flat:  flat,
			})
		}
		out = append(out, resolver.StructConfig{
			Struct: &parser.StructInfo{Name: fmt.Sprintf("Config%d", i), PkgName: "app", PkgPath: "example.com/app"},
			Fields: fields,
		})
	}
	return out
}
