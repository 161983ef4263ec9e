package resolver

import (
	"github.com/seitarof/gen-env/internal/attr"
	"github.com/seitarof/gen-env/internal/diag"
	"github.com/seitarof/gen-env/internal/parser"
)

const (
	msgIgnoredClash      = "`ignored` cannot be used with other attributes"
	msgNestedClash       = "`nested` cannot be used with other attributes"
	msgOptionWithDefault = "optional fields cannot have a default"
)

// Context is what a rule sees while resolving one field. Rules report
// problems through Acc.
type Context struct {
	Field   parser.FieldInfo
	Shape   Shape
	Options attr.Options
	Acc     *diag.Accumulator
}

// Rule tries to decide the configuration of one field. A rule that reports a
// terminal error still returns true so no later rule runs.
type Rule interface {
	Name() string
	Try(ctx *Context) (FieldConfig, bool)
}

// DefaultRules returns built-in rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		&IgnoredClashRule{},
		&NestedClashRule{},
		&IgnoredRule{},
		&NestedRule{},
		&FlatRule{},
	}
}

// IgnoredClashRule: `ignored` together with any other option.
type IgnoredClashRule struct{}

func (r *IgnoredClashRule) Name() string { return "ignored-clash" }

func (r *IgnoredClashRule) Try(ctx *Context) (FieldConfig, bool) {
	o := ctx.Options
	if !o.Ignored.IsPresent() || !o.Any(attr.OptFrom, attr.OptRename, attr.OptDefault, attr.OptWith, attr.OptNested) {
		return FieldConfig{}, false
	}
	ctx.Acc.Push(diag.New(diag.ConflictError, o.Ignored.Span, msgIgnoredClash))
	return FieldConfig{}, true
}

// NestedClashRule: `nested` together with any value option.
type NestedClashRule struct{}

func (r *NestedClashRule) Name() string { return "nested-clash" }

func (r *NestedClashRule) Try(ctx *Context) (FieldConfig, bool) {
	o := ctx.Options
	if !o.Nested.IsPresent() || !o.Any(attr.OptFrom, attr.OptRename, attr.OptDefault, attr.OptWith) {
		return FieldConfig{}, false
	}
	ctx.Acc.Push(diag.New(diag.ConflictError, o.Nested.Span, msgNestedClash))
	return FieldConfig{}, true
}

// IgnoredRule: `ignored` alone excludes the field.
type IgnoredRule struct{}

func (r *IgnoredRule) Name() string { return "ignored" }

func (r *IgnoredRule) Try(ctx *Context) (FieldConfig, bool) {
	if !ctx.Options.Ignored.IsPresent() {
		return FieldConfig{}, false
	}
	return newConfig(ctx, KindNone, nil), true
}

// NestedRule: `nested` alone loads the field as a struct.
type NestedRule struct{}

func (r *NestedRule) Name() string { return "nested" }

func (r *NestedRule) Try(ctx *Context) (FieldConfig, bool) {
	if !ctx.Options.Nested.IsPresent() {
		return FieldConfig{}, false
	}
	return newConfig(ctx, KindNested, nil), true
}

// FlatRule: every other field is read from one variable.
type FlatRule struct{}

func (r *FlatRule) Name() string { return "flat" }

func (r *FlatRule) Try(ctx *Context) (FieldConfig, bool) {
	o := ctx.Options
	if ctx.Shape.IsWrapper() && o.Default != nil {
		ctx.Acc.Push(diag.New(diag.InvariantViolation, o.Default.Span, msgOptionWithDefault))
	}

	defaultName := DefaultName(ctx.Field.Name)
	flat := &Flat{Name: defaultName}
	if o.Rename != nil {
		flat.Name = o.Rename.Or(defaultName)
	}
	if o.From != nil {
		from := o.From.Or(defaultName)
		flat.From = &from
	}
	if o.Default != nil {
		def := o.Default.Text
		flat.Default = &def
	}
	if o.With != nil {
		with := o.With.Text
		flat.With = &with
	}
	return newConfig(ctx, KindFlat, flat), true
}

func newConfig(ctx *Context, kind Kind, flat *Flat) FieldConfig {
	return FieldConfig{
		Field: ctx.Field,
		Shape: ctx.Shape,
		Kind:  kind,
		Flat:  flat,
		Docs:  ctx.Field.Docs,
	}
}
