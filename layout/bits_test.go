package layout

import (
	"bytes"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/buffer-layout/errors"
)

func TestBitStructureConstruction(t *testing.T) {
	_, err := NewBitStructure(S8(""), false, "")
	requireKind(t, err, errors.KindInvalidLayout)

	_, err = NewBitStructure(U40(""), false, "")
	requireKind(t, err, errors.KindRange)

	w := Must(NewBitStructure(U16(""), false, "w"))
	if w.Span() != 2 {
		t.Errorf("Span() = %d, want 2", w.Span())
	}
	mustField(t)(w.AddField(10, "a"))
	mustField(t)(w.AddField(6, "b"))
	_, err = w.AddBoolean("c")
	e := requireKind(t, err, errors.KindRange)
	if e.Phase != errors.PhaseCompose {
		t.Errorf("phase = %s, want compose", e.Phase)
	}

	_, err = w.AddField(0, "z")
	requireKind(t, err, errors.KindInvalidLayout)
}

func TestBitFieldAllocation(t *testing.T) {
	lsb := Must(NewBitStructure(U8(""), false, ""))
	a := mustField(t)(lsb.AddField(3, "a"))
	b := mustField(t)(lsb.AddField(2, "b"))
	if a.Start() != 0 || b.Start() != 3 {
		t.Errorf("lsb starts = %d, %d; want 0, 3", a.Start(), b.Start())
	}

	msb := Must(NewBitStructure(U8(""), true, ""))
	a = mustField(t)(msb.AddField(3, "a"))
	b = mustField(t)(msb.AddField(2, "b"))
	if a.Start() != 5 || b.Start() != 3 {
		t.Errorf("msb starts = %d, %d; want 5, 3", a.Start(), b.Start())
	}

	buf := make([]byte, 1)
	if _, err := msb.Encode(map[string]any{"a": 0b101, "b": 0b11}, buf, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if buf[0] != 0b10111000 {
		t.Errorf("word = %08b, want 10111000", buf[0])
	}

	if msb.FieldFor("b") != b || msb.FieldFor("nope") != nil {
		t.Error("FieldFor returned the wrong field")
	}
	if len(msb.Fields()) != 2 {
		t.Errorf("Fields() has %d entries", len(msb.Fields()))
	}
}

func TestBitFieldValueInsert(t *testing.T) {
	w := Must(NewBitStructure(U32(""), false, ""))
	mustField(t)(w.AddField(4, ""))
	f := mustField(t)(w.AddField(28, "rest"))
	flag := Must(NewBitStructure(U8(""), false, ""))
	bf := mustField(t)(flag.AddBoolean("on"))

	word, err := f.Insert(0xF, 0x0ABCDEF1)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if word != 0xABCDEF1F {
		t.Errorf("word = %#x, want 0xabcdef1f", word)
	}
	if f.Value(word) != uint64(0x0ABCDEF1) {
		t.Errorf("Value = %v", f.Value(word))
	}

	_, err = f.Insert(0, uint64(1)<<28)
	requireKind(t, err, errors.KindTypeMismatch)
	_, err = f.Insert(0, -1)
	requireKind(t, err, errors.KindTypeMismatch)
	_, err = f.Insert(0, "1")
	requireKind(t, err, errors.KindTypeMismatch)

	word, err = bf.Insert(0, true)
	if err != nil || word != 1 || bf.Value(word) != true {
		t.Errorf("boolean insert = %d, %v", word, err)
	}
	word, err = bf.Insert(word, 0)
	if err != nil || word != 0 || bf.Value(word) != false {
		t.Errorf("boolean numeric insert = %d, %v", word, err)
	}
	_, err = bf.Insert(0, 2)
	requireKind(t, err, errors.KindTypeMismatch)
}

func TestBitStructureIsolation(t *testing.T) {
	w := Must(NewBitStructure(U16(""), false, ""))
	mustField(t)(w.AddField(5, "a"))
	mustField(t)(w.AddField(7, "b"))
	mustField(t)(w.AddBoolean("c"))

	buf := make([]byte, 2)
	if _, err := w.Encode(map[string]any{"a": 17, "b": 99, "c": true}, buf, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := w.Encode(map[string]any{"b": 3}, buf, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := w.Decode(buf, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := NewRecord(
		Entry{Label: "a", Value: uint64(17)},
		Entry{Label: "b", Value: uint64(3)},
		Entry{Label: "c", Value: true},
	)
	if diff := cmp.Diff(want, got, recordCmp); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestBitStructureBigEndianWord(t *testing.T) {
	w := Must(NewBitStructure(U16BE(""), true, ""))
	mustField(t)(w.AddField(4, "hi"))
	buf := make([]byte, 2)
	if _, err := w.Encode(map[string]any{"hi": 0xA}, buf, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xA0, 0x00}) {
		t.Errorf("buffer = %x", buf)
	}
}

func TestBitStructureErrorPath(t *testing.T) {
	w := Must(NewBitStructure(U8(""), false, ""))
	mustField(t)(w.AddField(2, "mode"))
	_, err := w.Encode(map[string]any{"mode": 4}, make([]byte, 1), 0)
	e := requireKind(t, err, errors.KindTypeMismatch)
	if diff := cmp.Diff([]string{"mode"}, e.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestBitStructureConcurrent(t *testing.T) {
	w := Must(NewBitStructure(U32(""), false, ""))
	mustField(t)(w.AddField(16, "lo"))
	mustField(t)(w.AddField(16, "hi"))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buf := make([]byte, 4)
			if _, err := w.Encode(map[string]any{"lo": i, "hi": i * 2}, buf, 0); err != nil {
				errs <- err
				return
			}
			got, err := w.Decode(buf, 0)
			if err != nil {
				errs <- err
				return
			}
			r := got.(*Record)
			if lo, _ := r.Uint("lo"); lo != uint64(i) {
				errs <- errors.InvalidData(errors.PhaseDecode, nil, "lo mismatch")
			}
			if hi, _ := r.Uint("hi"); hi != uint64(2*i) {
				errs <- errors.InvalidData(errors.PhaseDecode, nil, "hi mismatch")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
