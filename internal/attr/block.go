package attr

import (
	"strconv"
	"strings"

	"github.com/seitarof/gen-env/internal/diag"
)

// Namespace is the struct tag key and comment directive name owned by gen-env.
const Namespace = "env"

// Form is the syntactic shape an annotation block was written in.
type Form int

const (
	// FormList is the only accepted shape: a comma-separated option list.
	FormList Form = iota
	// FormFlag is a bare `//env` directive without options.
	FormFlag
	// FormAssign is a `//env=...` directive.
	FormAssign
	// FormMalformed is an `env` struct tag value that is not a valid quoted string.
	FormMalformed
)

// Origin tells where a block was read from.
type Origin int

const (
	OriginTag Origin = iota
	OriginDirective
)

// Block is one annotation attached to a field.
type Block struct {
	Origin Origin
	Form   Form
	// Body is the option list text, already unquoted for struct tags.
	Body string
	// Span covers the whole block in source.
	Span diag.Span
	// BodySpan is where Body starts in source.
	BodySpan diag.Span
	// Exact is false when Body contains unescaped characters whose source
	// offsets no longer line up; item spans then fall back to BodySpan.
	Exact bool
}

func (b Block) spanAt(off, n int) diag.Span {
	if !b.Exact {
		return b.BodySpan
	}
	return b.BodySpan.Shift(off, n)
}

// ParseDirective recognises an `//env` comment line. The span must point at
// the first slash.
func ParseDirective(comment string, span diag.Span) (Block, bool) {
	prefix := "//" + Namespace
	if !strings.HasPrefix(comment, prefix) {
		return Block{}, false
	}
	rest := comment[len(prefix):]

	b := Block{
		Origin: OriginDirective,
		Span:   span.Shift(0, len(strings.TrimRight(comment, " \t"))),
		Exact:  true,
	}
	switch {
	case strings.TrimSpace(rest) == "":
		b.Form = FormFlag
	case rest[0] == ':':
		b.Form = FormList
		b.Body = rest[1:]
		b.BodySpan = span.Shift(len(prefix)+1, len(b.Body))
	case rest[0] == '=':
		b.Form = FormAssign
		b.Body = rest[1:]
		b.BodySpan = span.Shift(len(prefix)+1, len(b.Body))
	default:
		return Block{}, false
	}
	return b, true
}

// ParseTag extracts the `env` key from a struct tag literal as written in
// source, backquotes included. The span must point at the literal.
func ParseTag(lit string, span diag.Span) (Block, bool) {
	tag, base, exact := unquoteTagLiteral(lit)
	if tag == "" {
		return Block{}, false
	}

	keyStart, raw, ok := lookupTag(tag, Namespace)
	if !ok {
		return Block{}, false
	}

	b := Block{
		Origin: OriginTag,
		Form:   FormList,
		Span:   span.Shift(base+keyStart, len(Namespace)+1+len(raw)),
	}

	value, err := strconv.Unquote(raw)
	if err != nil {
		b.Form = FormMalformed
		b.Body = raw
		return b, true
	}

	b.Body = value
	b.BodySpan = span.Shift(base+keyStart+len(Namespace)+2, len(value))
	b.Exact = exact && len(raw)-2 == len(value)
	return b, true
}

func unquoteTagLiteral(lit string) (tag string, base int, exact bool) {
	if len(lit) >= 2 && lit[0] == '`' && lit[len(lit)-1] == '`' {
		return lit[1 : len(lit)-1], 1, true
	}
	s, err := strconv.Unquote(lit)
	if err != nil {
		return "", 0, false
	}
	return s, 1, len(s) == len(lit)-2
}

// lookupTag follows the reflect.StructTag conventions but also returns where
// the key starts and the still-quoted value, so items can be located in
// source.
func lookupTag(tag, key string) (keyStart int, raw string, ok bool) {
	off := 0
	for tag != "" {
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		off += i
		if tag == "" {
			break
		}

		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tag) || tag[i] != ':' || tag[i+1] != '"' {
			break
		}
		name := tag[:i]
		start := off
		tag = tag[i+1:]
		off += i + 1

		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			if name == key {
				return start, tag, true
			}
			break
		}
		qvalue := tag[:i+1]
		tag = tag[i+1:]
		off += i + 1

		if name == key {
			return start, qvalue, true
		}
	}
	return 0, "", false
}
