package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// StructuralError: an annotation block or item is not in the expected shape.
	StructuralError Kind = iota
	// UnknownOption: an item name outside the option vocabulary.
	UnknownOption
	// ValueShapeError: an item value does not parse into the slot's type.
	ValueShapeError
	// ConflictError: `ignored` or `nested` combined with other options.
	ConflictError
	// InvariantViolation: a resolved configuration breaks a field-level rule.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case StructuralError:
		return "structural"
	case UnknownOption:
		return "unknown-option"
	case ValueShapeError:
		return "value-shape"
	case ConflictError:
		return "conflict"
	case InvariantViolation:
		return "invariant"
	default:
		return "unknown"
	}
}

// Span points at a piece of Go source. Offset and Len are byte based.
type Span struct {
	Filename string
	Line     int
	Column   int
	Offset   int
	Len      int
}

// IsValid reports whether the span carries a position.
func (s Span) IsValid() bool {
	return s.Line > 0
}

// Shift returns the span moved n bytes to the right on the same line, with
// length l.
func (s Span) Shift(n, l int) Span {
	if !s.IsValid() {
		return s
	}
	s.Column += n
	s.Offset += n
	s.Len = l
	return s
}

func (s Span) String() string {
	if !s.IsValid() {
		if s.Filename != "" {
			return s.Filename
		}
		return "-"
	}
	if s.Filename == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
}

// Diagnostic is one user-facing problem with its location.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span
}

func (d Diagnostic) Error() string {
	return d.Span.String() + ": " + d.Message
}

// New builds a diagnostic.
func New(kind Kind, span Span, msg string) Diagnostic {
	return Diagnostic{Kind: kind, Message: msg, Span: span}
}

// Newf builds a diagnostic with a formatted message.
func Newf(kind Kind, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// List is a non-empty, ordered set of diagnostics reported together.
type List []Diagnostic

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(l))
	for _, d := range l {
		b.WriteString("\n  ")
		b.WriteString(d.Error())
	}
	return b.String()
}

// Unwrap exposes every diagnostic to errors.Is and errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, 0, len(l))
	for _, d := range l {
		errs = append(errs, d)
	}
	return errs
}

// Count returns how many diagnostics of the given kind the list holds.
func (l List) Count(kind Kind) int {
	n := 0
	for _, d := range l {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// AsList extracts the diagnostics carried by err. Plain errors yield nil.
func AsList(err error) List {
	var l List
	if errors.As(err, &l) {
		return l
	}
	var d Diagnostic
	if errors.As(err, &d) {
		return List{d}
	}
	return nil
}
