package jbeam

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	partIndent = "\t\t"
	rowIndent  = "\t\t\t"
)

// encoder writes the relaxed JSON dialect used by jbeam files. Every row
// and marker object ends with a comma; the format tolerates trailing ones.
// Write errors are sticky and reported once by err.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// open starts a table or object section.
func (e *encoder) open(name, bracket string) {
	e.printf("%s%s:%s\n", partIndent, quote(name), bracket)
}

// close ends a section opened with open.
func (e *encoder) close(bracket string) {
	e.printf("%s%s,\n\n", partIndent, bracket)
}

// row writes one table row: [a, b, c],
func (e *encoder) row(cols ...string) {
	e.printf("%s[%s],\n", rowIndent, strings.Join(cols, ", "))
}

// marker writes a standalone property object: {"key":value},
func (e *encoder) marker(key, value string) {
	e.object(field{key, value})
}

// object writes a standalone object with several properties.
func (e *encoder) object(fields ...field) {
	e.printf("%s%s,\n", rowIndent, object(fields...))
}

// header writes a column header row of quoted names.
func (e *encoder) header(cols ...string) {
	e.row(quoteAll(cols)...)
}

type field struct {
	key   string
	value string
}

// object renders fields in order as {"a":1, "b":2}.
func object(fields ...field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = quote(f.key) + ":" + f.value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = quote(s)
	}
	return out
}

func list(ss []string) string {
	return "[" + strings.Join(quoteAll(ss), ", ") + "]"
}

// num formats v as the shortest decimal that round-trips.
func num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "1e308"
	case math.IsInf(v, -1):
		return "-1e308"
	case math.IsNaN(v):
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func integer(v int) string {
	return strconv.Itoa(v)
}

func boolean(v bool) string {
	return strconv.FormatBool(v)
}

func vec(x, y, z float64) string {
	return object(field{"x", num(x)}, field{"y", num(y)}, field{"z", num(z)})
}

// delta remembers the last emitted value of a sticky property. A delta
// without a previous value reports the first value as changed.
type delta[T comparable] struct {
	last T
	set  bool
}

func newDelta[T comparable](initial T) *delta[T] {
	return &delta[T]{last: initial, set: true}
}

// changed records v and reports whether it differs from the previous value.
func (d *delta[T]) changed(v T) bool {
	if d.set && d.last == v {
		return false
	}
	d.last = v
	d.set = true
	return true
}
