package attr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/seitarof/gen-env/internal/diag"
)

// ItemForm is how a single option was spelled.
type ItemForm int

const (
	// ItemWord is a bare `name`.
	ItemWord ItemForm = iota
	// ItemAssign is `name=value`.
	ItemAssign
	// ItemCall is `name(value)`.
	ItemCall
)

// Value is the right-hand side of an option.
type Value struct {
	// Text is the value with string literal quotes removed.
	Text string
	// Raw is the value exactly as written.
	Raw    string
	Quoted bool
	Span   diag.Span
}

// Item is one named option inside a block.
type Item struct {
	Name     string
	Form     ItemForm
	Value    *Value
	Span     diag.Span
	NameSpan diag.Span
}

type segment struct {
	text string
	off  int
	// reported marks a segment whose structural problem already produced a
	// diagnostic; it is not lexed again.
	reported bool
}

// SplitItems lexes the body of a list-shaped block into items. Problems are
// returned as diagnostics and never stop the remaining items from being
// lexed.
func SplitItems(b Block) ([]Item, []diag.Diagnostic) {
	segs, diags := splitTopLevel(b)

	items := make([]Item, 0, len(segs))
	for _, seg := range segs {
		if seg.reported {
			continue
		}
		it, d, ok := lexItem(b, seg)
		if !ok {
			diags = append(diags, d)
			continue
		}
		items = append(items, it)
	}
	return items, diags
}

// splitTopLevel cuts the body on commas that are not nested inside brackets
// or string literals.
func splitTopLevel(b Block) ([]segment, []diag.Diagnostic) {
	var (
		segs  []segment
		diags []diag.Diagnostic
		stack []byte
		start int
		broken bool
	)
	body := b.Body

	emit := func(end int) {
		raw := body[start:end]
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		text := strings.TrimSpace(raw)
		segs = append(segs, segment{text: text, off: start + lead, reported: broken})
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '"', '\'', '`':
			end := skipQuoted(body, i)
			if end < 0 {
				diags = append(diags, diag.New(diag.StructuralError, b.spanAt(i, len(body)-i), "unterminated string literal"))
				broken = true
				i = len(body) - 1
				continue
			}
			i = end
		case '(', '[', '{':
			stack = append(stack, closerOf(c))
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				diags = append(diags, diag.Newf(diag.StructuralError, b.spanAt(i, 1), "unexpected `%c`", c))
				continue
			}
			stack = stack[:len(stack)-1]
		case ',':
			if len(stack) == 0 {
				emit(i)
				start = i + 1
			}
		}
	}
	if len(stack) > 0 {
		diags = append(diags, diag.Newf(diag.StructuralError, b.spanAt(start, len(body)-start), "missing `%c`", stack[len(stack)-1]))
		broken = true
	}
	emit(len(body))

	// A single trailing comma and a fully empty body are accepted.
	out := segs[:0]
	for i, seg := range segs {
		if seg.text == "" {
			if i == len(segs)-1 {
				continue
			}
			diags = append(diags, diag.New(diag.StructuralError, b.spanAt(seg.off, 0), "expected an option before `,`"))
			continue
		}
		out = append(out, seg)
	}
	return out, diags
}

func closerOf(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// skipQuoted returns the index of the closing quote of the literal opened at
// i, or -1.
func skipQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch {
		case s[j] == '\\' && q != '`':
			j++
		case s[j] == q:
			return j
		}
	}
	return -1
}

func lexItem(b Block, seg segment) (Item, diag.Diagnostic, bool) {
	text := seg.text
	full := b.spanAt(seg.off, len(text))

	r, _ := utf8.DecodeRuneInString(text)
	if !isIdentStart(r) {
		if isLiteralStart(r) {
			return Item{}, diag.Newf(diag.StructuralError, full, "unexpected literal `%s`, expected an option name", text), false
		}
		return Item{}, diag.Newf(diag.StructuralError, full, "unexpected `%s`, expected an option name", text), false
	}

	n := identLen(text)
	it := Item{
		Name:     text[:n],
		Span:     full,
		NameSpan: b.spanAt(seg.off, n),
	}

	rest := text[n:]
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	restOff := seg.off + n + len(rest) - len(trimmed)

	switch {
	case trimmed == "":
		it.Form = ItemWord
	case trimmed[0] == '=':
		it.Form = ItemAssign
		raw := trimmed[1:]
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return Item{}, diag.Newf(diag.StructuralError, full, "expected a value after `%s=`", it.Name), false
		}
		v, d, ok := lexValue(b, raw, restOff+1+lead)
		if !ok {
			return Item{}, d, false
		}
		it.Value = v
	case trimmed[0] == '(':
		it.Form = ItemCall
		end := matchingParen(trimmed)
		if end < 0 {
			return Item{}, diag.Newf(diag.StructuralError, full, "expected `)` to close `%s(`", it.Name), false
		}
		if tail := trimmed[end+1:]; strings.TrimSpace(tail) != "" {
			tailOff := restOff + end + 1
			return Item{}, diag.Newf(diag.StructuralError, b.spanAt(tailOff, len(tail)), "unexpected `%s` after `%s(...)`", strings.TrimSpace(tail), it.Name), false
		}
		inner := trimmed[1:end]
		lead := len(inner) - len(strings.TrimLeftFunc(inner, unicode.IsSpace))
		inner = strings.TrimSpace(inner)
		if inner == "" {
			break
		}
		v, d, ok := lexValue(b, inner, restOff+1+lead)
		if !ok {
			return Item{}, d, false
		}
		it.Value = v
	default:
		return Item{}, diag.Newf(diag.StructuralError, full, "expected `=` or `(` after `%s`", it.Name), false
	}
	return it, diag.Diagnostic{}, true
}

// matchingParen returns the index of the `)` closing the `(` at s[0], or -1.
func matchingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\'', '`':
			end := skipQuoted(s, i)
			if end < 0 {
				return -1
			}
			i = end
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func lexValue(b Block, raw string, off int) (*Value, diag.Diagnostic, bool) {
	span := b.spanAt(off, len(raw))
	v := &Value{Text: raw, Raw: raw, Span: span}

	if raw[0] != '"' && raw[0] != '`' {
		return v, diag.Diagnostic{}, true
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return nil, diag.Newf(diag.StructuralError, span, "invalid string literal %s", raw), false
	}
	v.Text = s
	v.Quoted = true
	return v, diag.Diagnostic{}, true
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isLiteralStart(r rune) bool {
	return unicode.IsDigit(r) || r == '"' || r == '\'' || r == '`' || r == '-' || r == '+' || r == '.'
}

func identLen(s string) int {
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return i
		}
	}
	return len(s)
}
