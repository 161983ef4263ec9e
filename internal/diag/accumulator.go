package diag

// Accumulator collects diagnostics for one field. It only grows; the result is
// read once through Finish.
type Accumulator struct {
	items []Diagnostic
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Push appends one diagnostic.
func (a *Accumulator) Push(d Diagnostic) {
	a.items = append(a.items, d)
}

// Pushf appends a diagnostic built from a format string.
func (a *Accumulator) Pushf(kind Kind, span Span, format string, args ...any) {
	a.Push(Newf(kind, span, format, args...))
}

// Extend appends every diagnostic of ds in order.
func (a *Accumulator) Extend(ds []Diagnostic) {
	a.items = append(a.items, ds...)
}

// Len returns the number of collected diagnostics.
func (a *Accumulator) Len() int {
	return len(a.items)
}

// Diagnostics returns a copy of the collected diagnostics.
func (a *Accumulator) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), a.items...)
}

// Finish returns nil when nothing was collected and a List otherwise.
func (a *Accumulator) Finish() error {
	if len(a.items) == 0 {
		return nil
	}
	return List(a.Diagnostics())
}
