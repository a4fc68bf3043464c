package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecordOrder(t *testing.T) {
	r := NewRecord(Entry{Label: "b", Value: 1}, Entry{Label: "a", Value: 2})
	r.Set("c", 3)
	r.Set("b", 4)

	if diff := cmp.Diff([]string{"b", "a", "c"}, r.Labels()); diff != "" {
		t.Errorf("Labels mismatch (-want +got):\n%s", diff)
	}
	if v, _ := r.Get("b"); v != 4 {
		t.Errorf("Get(b) = %v, want 4", v)
	}
	if r.Len() != 3 || !r.Has("a") || r.Has("z") {
		t.Errorf("Len/Has mismatch: %v", r)
	}
	if got := r.String(); got != "{b: 4, a: 2, c: 3}" {
		t.Errorf("String() = %q", got)
	}
}

func TestRecordAccessors(t *testing.T) {
	inner := NewRecord(Entry{Label: "x", Value: uint64(1)})
	r := NewRecord(
		Entry{Label: "u", Value: uint64(7)},
		Entry{Label: "i", Value: int64(-2)},
		Entry{Label: "f", Value: 1.5},
		Entry{Label: "ok", Value: true},
		Entry{Label: "s", Value: "txt"},
		Entry{Label: "b", Value: []byte{1}},
		Entry{Label: "r", Value: inner},
		Entry{Label: "l", Value: []any{uint64(1)}},
	)

	if v, ok := r.Uint("u"); !ok || v != 7 {
		t.Errorf("Uint = %d, %v", v, ok)
	}
	if _, ok := r.Uint("i"); ok {
		t.Error("Uint accepted a negative value")
	}
	if v, ok := r.Int("i"); !ok || v != -2 {
		t.Errorf("Int = %d, %v", v, ok)
	}
	if v, ok := r.Float("u"); !ok || v != 7 {
		t.Errorf("Float = %v, %v", v, ok)
	}
	if v, ok := r.Bool("ok"); !ok || !v {
		t.Errorf("Bool = %v, %v", v, ok)
	}
	if v, ok := r.Text("s"); !ok || v != "txt" {
		t.Errorf("Text = %q, %v", v, ok)
	}
	if v, ok := r.Bytes("b"); !ok || len(v) != 1 {
		t.Errorf("Bytes = %v, %v", v, ok)
	}
	if v, ok := r.Record("r"); !ok || v != inner {
		t.Errorf("Record = %v, %v", v, ok)
	}
	if v, ok := r.List("l"); !ok || len(v) != 1 {
		t.Errorf("List = %v, %v", v, ok)
	}
	if _, ok := r.Text("u"); ok {
		t.Error("Text accepted a number")
	}
	if _, ok := r.Uint("missing"); ok {
		t.Error("Uint found a missing label")
	}
}

func TestRecordEqual(t *testing.T) {
	mk := func(order ...string) *Record {
		r := NewRecord()
		for _, k := range order {
			r.Set(k, []any{[]byte(k), NewRecord(Entry{Label: k, Value: uint64(1)})})
		}
		return r
	}
	if !mk("a", "b").Equal(mk("a", "b")) {
		t.Error("equal records reported unequal")
	}
	if mk("a", "b").Equal(mk("b", "a")) {
		t.Error("order ignored")
	}
	if mk("a").Equal(mk("a", "b")) {
		t.Error("length ignored")
	}
	var empty *Record
	if !empty.Equal(NewRecord()) {
		t.Error("nil and empty records differ")
	}
}

func TestRecordMap(t *testing.T) {
	r := NewRecord(
		Entry{Label: "n", Value: uint64(1)},
		Entry{Label: "inner", Value: NewRecord(Entry{Label: "x", Value: "y"})},
		Entry{Label: "list", Value: []any{NewRecord(Entry{Label: "z", Value: true})}},
	)
	want := map[string]any{
		"n":     uint64(1),
		"inner": map[string]any{"x": "y"},
		"list":  []any{map[string]any{"z": true}},
	}
	if diff := cmp.Diff(want, r.Map()); diff != "" {
		t.Errorf("Map mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordNilIsAbsent(t *testing.T) {
	s, ok := asSource(NewRecord(Entry{Label: "a", Value: nil}))
	if !ok {
		t.Fatal("record not accepted as source")
	}
	if has(s, "a") {
		t.Error("nil value treated as present")
	}
	m, _ := asSource(map[string]any{"a": nil, "b": 0})
	if has(m, "a") || !has(m, "b") || has(m, "") {
		t.Error("map source presence mismatch")
	}
	if _, ok := asSource((*Record)(nil)); ok {
		t.Error("nil record accepted as source")
	}
}
