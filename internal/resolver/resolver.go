package resolver

import (
	"fmt"

	"github.com/seitarof/gen-env/internal/attr"
	"github.com/seitarof/gen-env/internal/diag"
	"github.com/seitarof/gen-env/internal/parser"
)

// Resolver turns annotated fields into loading configurations.
type Resolver interface {
	Resolve(field parser.FieldInfo) (FieldConfig, error)
	ResolveStruct(info *parser.StructInfo) (StructConfig, error)
}

type resolverImpl struct {
	rules    []Rule
	wrappers []string
}

// New builds resolver with rule chain. An empty wrappers list means
// DefaultWrappers.
func New(wrappers []string, rules ...Rule) Resolver {
	if len(wrappers) == 0 {
		wrappers = DefaultWrappers
	}
	return &resolverImpl{rules: rules, wrappers: wrappers}
}

// Resolve parses the field's annotations and applies the rules in order.
// On failure the error is a diag.List holding every problem found, from
// parsing and from the rules alike.
func (r *resolverImpl) Resolve(field parser.FieldInfo) (FieldConfig, error) {
	opts, acc := attr.Parse(field.Blocks)
	ctx := &Context{
		Field:   field,
		Shape:   ClassifyType(field.Type, r.wrappers),
		Options: opts,
		Acc:     acc,
	}

	cfg, ok := r.apply(ctx)
	if err := acc.Finish(); err != nil {
		return FieldConfig{}, err
	}
	if !ok {
		return FieldConfig{}, fmt.Errorf("no rule matched field %s", field.Name)
	}
	return cfg, nil
}

func (r *resolverImpl) apply(ctx *Context) (FieldConfig, bool) {
	for _, rule := range r.rules {
		if cfg, ok := rule.Try(ctx); ok {
			return cfg, true
		}
	}
	return FieldConfig{}, false
}

// ResolveStruct resolves every field, including those after a failing one,
// and reports the diagnostics of all fields together.
func (r *resolverImpl) ResolveStruct(info *parser.StructInfo) (StructConfig, error) {
	out := StructConfig{Struct: info, Fields: make([]FieldConfig, 0, len(info.Fields))}
	var all diag.List

	for _, f := range info.Fields {
		cfg, err := r.Resolve(f)
		if err != nil {
			list := diag.AsList(err)
			if list == nil {
				return StructConfig{}, fmt.Errorf("resolve %s.%s: %w", info.Name, f.Name, err)
			}
			all = append(all, list...)
			continue
		}
		out.Fields = append(out.Fields, cfg)
	}

	if len(all) > 0 {
		return StructConfig{}, all
	}
	return out, nil
}
