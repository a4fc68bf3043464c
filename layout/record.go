package layout

import (
	"bytes"
	"fmt"
	"iter"
	"reflect"
	"strings"

	"github.com/elliotchance/orderedmap/v3"

	"github.com/wippyai/buffer-layout/layout/internal/abi"
)

// Entry is one label/value pair of a Record.
type Entry struct {
	Value any
	Label string
}

// Record is the decoded value of a Structure, Union or BitStructure: an
// ordered association list from member label to decoded member value.
// Labels appear in declaration order.
type Record struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewRecord creates a record holding entries in the given order.
func NewRecord(entries ...Entry) *Record {
	r := &Record{m: orderedmap.NewOrderedMapWithCapacity[string, any](len(entries))}
	for _, e := range entries {
		r.m.Set(e.Label, e.Value)
	}
	return r
}

// Set assigns value to label, appending label if it is new.
func (r *Record) Set(label string, value any) {
	if r.m == nil {
		r.m = orderedmap.NewOrderedMap[string, any]()
	}
	r.m.Set(label, value)
}

func (r *Record) Get(label string) (any, bool) {
	if r == nil || r.m == nil {
		return nil, false
	}
	return r.m.Get(label)
}

func (r *Record) Has(label string) bool {
	_, ok := r.Get(label)
	return ok
}

func (r *Record) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return r.m.Len()
}

// Labels returns the labels in order.
func (r *Record) Labels() []string {
	labels := make([]string, 0, r.Len())
	for label := range r.All() {
		labels = append(labels, label)
	}
	return labels
}

// All iterates label/value pairs in order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r == nil || r.m == nil {
			return
		}
		for k, v := range r.m.AllFromFront() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Uint returns the value under label as uint64.
func (r *Record) Uint(label string) (uint64, bool) {
	v, ok := r.Get(label)
	if !ok {
		return 0, false
	}
	return abi.CoerceToUint64(v)
}

// Int returns the value under label as int64.
func (r *Record) Int(label string) (int64, bool) {
	v, ok := r.Get(label)
	if !ok {
		return 0, false
	}
	return abi.CoerceToInt64(v)
}

// Float returns the value under label as float64.
func (r *Record) Float(label string) (float64, bool) {
	v, ok := r.Get(label)
	if !ok {
		return 0, false
	}
	return abi.CoerceToFloat64(v)
}

func (r *Record) Bool(label string) (bool, bool) {
	v, ok := r.Get(label)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func (r *Record) Text(label string) (string, bool) {
	v, ok := r.Get(label)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (r *Record) Bytes(label string) ([]byte, bool) {
	v, ok := r.Get(label)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (r *Record) Record(label string) (*Record, bool) {
	v, ok := r.Get(label)
	if !ok {
		return nil, false
	}
	rec, ok := v.(*Record)
	return rec, ok
}

func (r *Record) List(label string) ([]any, bool) {
	v, ok := r.Get(label)
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

// Map converts the record, and any nested records and lists, into plain maps.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	for k, v := range r.All() {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether both records hold equal values under the same labels
// in the same order.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	next, stop := iter.Pull2(o.All())
	defer stop()
	for k, v := range r.All() {
		ko, ov, ok := next()
		if !ok || k != ko || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k, v := range r.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(k)
		b.WriteString(": ")
		fmt.Fprint(&b, v)
	}
	b.WriteByte('}')
	return b.String()
}

// source is the read side of an encode input: *Record or map[string]any.
// A label mapped to nil counts as absent.
type source interface {
	lookup(label string) (any, bool)
}

type mapSource map[string]any

func (m mapSource) lookup(label string) (any, bool) {
	v, ok := m[label]
	return v, ok && v != nil
}

func (r *Record) lookup(label string) (any, bool) {
	v, ok := r.Get(label)
	return v, ok && v != nil
}

func asSource(src any) (source, bool) {
	switch s := src.(type) {
	case *Record:
		if s == nil {
			return nil, false
		}
		return s, true
	case map[string]any:
		return mapSource(s), true
	}
	return nil, false
}

func has(s source, label string) bool {
	if label == "" {
		return false
	}
	_, ok := s.lookup(label)
	return ok
}
