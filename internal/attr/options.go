package attr

import (
	"fmt"
	"go/ast"
	"go/parser"
	"strconv"

	"github.com/seitarof/gen-env/internal/diag"
)

// Option names accepted inside an `env` block.
const (
	OptFrom    = "from"
	OptRename  = "rename"
	OptDefault = "default"
	OptWith    = "with"
	OptNested  = "nested"
	OptIgnored = "ignored"
)

// Vocabulary lists every option name in documentation order.
var Vocabulary = []string{OptFrom, OptRename, OptDefault, OptWith, OptNested, OptIgnored}

// Override is a string option that may be given without a value, in which
// case the caller derives one.
type Override struct {
	Value    string
	Explicit bool
	Span     diag.Span
}

// Or returns the explicit value, or def when the option was bare.
func (o *Override) Or(def string) string {
	if o.Explicit {
		return o.Value
	}
	return def
}

// Expr is Go source code used verbatim by the generated loader.
type Expr struct {
	Text string
	Span diag.Span
}

// Path names a function, e.g. `strconv.Atoi` or `convert.Level`.
type Path struct {
	Text string
	Span diag.Span
}

// Flag records the presence of a valueless option.
type Flag struct {
	Span    diag.Span
	present bool
}

// IsPresent reports whether the option was set.
func (f Flag) IsPresent() bool {
	return f.present
}

// Options is the raw, unvalidated set of options found on one field.
type Options struct {
	From    *Override
	Rename  *Override
	Default *Expr
	With    *Path
	Nested  Flag
	Ignored Flag
}

// Has reports whether the named option is present.
func (o Options) Has(name string) bool {
	switch name {
	case OptFrom:
		return o.From != nil
	case OptRename:
		return o.Rename != nil
	case OptDefault:
		return o.Default != nil
	case OptWith:
		return o.With != nil
	case OptNested:
		return o.Nested.IsPresent()
	case OptIgnored:
		return o.Ignored.IsPresent()
	default:
		return false
	}
}

// Any reports whether at least one of the named options is present.
func (o Options) Any(names ...string) bool {
	for _, n := range names {
		if o.Has(n) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no option is present.
func (o Options) IsEmpty() bool {
	return !o.Any(Vocabulary...)
}

type handler func(opts *Options, it Item) (diag.Diagnostic, bool)

var handlers = map[string]handler{
	OptFrom: func(opts *Options, it Item) (diag.Diagnostic, bool) {
		v, d, ok := parseOverride(it)
		if ok {
			opts.From = v
		}
		return d, ok
	},
	OptRename: func(opts *Options, it Item) (diag.Diagnostic, bool) {
		v, d, ok := parseOverride(it)
		if ok {
			opts.Rename = v
		}
		return d, ok
	},
	OptDefault: func(opts *Options, it Item) (diag.Diagnostic, bool) {
		v, d, ok := parseExpr(it)
		if ok {
			opts.Default = v
		}
		return d, ok
	},
	OptWith: func(opts *Options, it Item) (diag.Diagnostic, bool) {
		v, d, ok := parsePath(it)
		if ok {
			opts.With = v
		}
		return d, ok
	},
	OptNested: func(opts *Options, it Item) (diag.Diagnostic, bool) {
		v, d, ok := parseFlag(it)
		if ok {
			opts.Nested = v
		}
		return d, ok
	},
	OptIgnored: func(opts *Options, it Item) (diag.Diagnostic, bool) {
		v, d, ok := parseFlag(it)
		if ok {
			opts.Ignored = v
		}
		return d, ok
	},
}

// Parse collects the options of every block attached to one field. It never
// stops early: each malformed block or item is recorded in the returned
// accumulator and the rest is still read.
func Parse(blocks []Block) (Options, *diag.Accumulator) {
	acc := diag.NewAccumulator()
	var opts Options
	seen := map[string]bool{}

	for _, b := range blocks {
		switch b.Form {
		case FormFlag:
			acc.Push(diag.New(diag.StructuralError, b.Span, "expected an option list like `//env:from=NAME`, found a bare `//env`"))
			continue
		case FormAssign:
			acc.Push(diag.New(diag.StructuralError, b.Span, "expected an option list like `//env:from=NAME`, found `//env=`"))
			continue
		case FormMalformed:
			acc.Pushf(diag.StructuralError, b.Span, "malformed `%s` struct tag value %s", Namespace, b.Body)
			continue
		}

		items, diags := SplitItems(b)
		acc.Extend(diags)

		for _, it := range items {
			h, ok := handlers[it.Name]
			if !ok {
				acc.Push(unknownOption(it))
				continue
			}
			if seen[it.Name] {
				acc.Pushf(diag.StructuralError, it.Span, "duplicate option `%s`", it.Name)
				continue
			}
			seen[it.Name] = true
			if d, ok := h(&opts, it); !ok {
				acc.Push(d)
			}
		}
	}
	return opts, acc
}

func unknownOption(it Item) diag.Diagnostic {
	msg := fmt.Sprintf("unknown option `%s`", it.Name)
	if s := suggest(it.Name); s != "" {
		msg += fmt.Sprintf(", did you mean `%s`?", s)
	}
	return diag.New(diag.UnknownOption, it.Span, msg)
}

func parseOverride(it Item) (*Override, diag.Diagnostic, bool) {
	if it.Value == nil {
		if it.Form == ItemCall {
			return nil, diag.Newf(diag.ValueShapeError, it.Span, "`%s` expects a name, e.g. %s=\"NAME\"", it.Name, it.Name), false
		}
		return &Override{Span: it.Span}, diag.Diagnostic{}, true
	}
	if it.Value.Text == "" {
		return nil, diag.Newf(diag.ValueShapeError, it.Value.Span, "`%s` cannot be empty", it.Name), false
	}
	return &Override{Value: it.Value.Text, Explicit: true, Span: it.Span}, diag.Diagnostic{}, true
}

func parseExpr(it Item) (*Expr, diag.Diagnostic, bool) {
	if it.Value == nil {
		return nil, diag.Newf(diag.ValueShapeError, it.Span, "`%s` expects a Go expression, e.g. %s=8080", it.Name, it.Name), false
	}
	// A quoted value stays a string literal in the generated code.
	text := it.Value.Text
	if it.Value.Quoted {
		text = it.Value.Raw
	}
	if _, err := parser.ParseExpr(text); err != nil {
		return nil, diag.Newf(diag.ValueShapeError, it.Value.Span, "`%s` is not a valid Go expression: %s", it.Name, text), false
	}
	return &Expr{Text: text, Span: it.Span}, diag.Diagnostic{}, true
}

func parsePath(it Item) (*Path, diag.Diagnostic, bool) {
	if it.Value == nil {
		return nil, diag.Newf(diag.ValueShapeError, it.Span, "`%s` expects a function, e.g. %s=strconv.Atoi", it.Name, it.Name), false
	}
	expr, err := parser.ParseExpr(it.Value.Text)
	if err != nil || !isPath(expr) {
		return nil, diag.Newf(diag.ValueShapeError, it.Value.Span, "`%s` expects a function path, found %s", it.Name, it.Value.Raw), false
	}
	return &Path{Text: it.Value.Text, Span: it.Span}, diag.Diagnostic{}, true
}

func isPath(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return isPath(e.X)
	default:
		return false
	}
}

func parseFlag(it Item) (Flag, diag.Diagnostic, bool) {
	if it.Value == nil {
		return Flag{Span: it.Span, present: true}, diag.Diagnostic{}, true
	}
	on, err := strconv.ParseBool(it.Value.Text)
	if err != nil {
		return Flag{}, diag.Newf(diag.ValueShapeError, it.Value.Span, "`%s` expects true or false, found %s", it.Name, it.Value.Raw), false
	}
	return Flag{Span: it.Span, present: on}, diag.Diagnostic{}, true
}

func suggest(name string) string {
	best, bestDist := "", 3
	for _, cand := range Vocabulary {
		if d := editDistance(name, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
