package layout

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/buffer-layout/errors"
)

func TestConstant(t *testing.T) {
	c := NewConstant("fixed", "k")
	buf := []byte{1, 2, 3}
	if c.Span() != 0 {
		t.Errorf("Span() = %d, want 0", c.Span())
	}
	got, err := c.Decode(buf, 1)
	if err != nil || got != "fixed" {
		t.Errorf("Decode = %v, %v", got, err)
	}
	n, err := c.Encode("other", buf, 0)
	if err != nil || n != 0 {
		t.Errorf("Encode = %d, %v", n, err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3}) {
		t.Errorf("buffer modified: %x", buf)
	}
}

func TestBlobFixed(t *testing.T) {
	blob := Must(NewBlob(3, "data"))

	buf := []byte{0xaa, 1, 2, 3, 0xbb}
	got, err := blob.Decode(buf, 1)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	data := got.([]byte)
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("Decode = %x", data)
	}
	data[0] = 9
	if buf[1] != 1 {
		t.Error("decoded blob aliases the buffer")
	}

	n, err := blob.Encode("xyz", buf, 1)
	if err != nil || n != 3 {
		t.Fatalf("Encode = %d, %v", n, err)
	}
	if !bytes.Equal(buf, []byte{0xaa, 'x', 'y', 'z', 0xbb}) {
		t.Errorf("buffer = %x", buf)
	}

	_, err = blob.Encode([]byte{1, 2}, buf, 0)
	requireKind(t, err, errors.KindRange)

	_, err = blob.Encode([]byte{1, 2, 3}, buf, 3)
	requireKind(t, err, errors.KindRange)

	_, err = blob.Encode(42, buf, 0)
	requireKind(t, err, errors.KindTypeMismatch)

	_, err = NewBlob(-1, "")
	requireKind(t, err, errors.KindRange)
}

func TestBlobDynamic(t *testing.T) {
	count := NewOffset(U8(""), -1, "")
	blob := Must(NewDynamicBlob(count, "data"))
	msg := Must(NewStructure([]Layout{U8("len"), blob}, ""))

	buf := make([]byte, 8)
	n, err := msg.Encode(map[string]any{"data": []byte("abcd")}, buf, 0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Encode returned %d, want 5", n)
	}
	want := []byte{4, 'a', 'b', 'c', 'd', 0, 0, 0}
	if !bytes.Equal(buf, want) {
		t.Errorf("buffer = %x, want %x", buf, want)
	}

	got, err := msg.Decode(buf, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	expect := NewRecord(Entry{Label: "len", Value: uint64(4)}, Entry{Label: "data", Value: []byte("abcd")})
	if diff := cmp.Diff(expect, got, recordCmp); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}

	if span, err := msg.GetSpan(buf, 0); err != nil || span != 5 {
		t.Errorf("GetSpan = %d, %v", span, err)
	}

	_, err = NewDynamicBlob(NewOffset(S8(""), -1, ""), "")
	requireKind(t, err, errors.KindInvalidLayout)
}

func TestBlobDynamicCountWrittenLast(t *testing.T) {
	// The count overlaps the first data byte, so the later write is visible.
	blob := Must(NewDynamicBlob(NewOffset(U8(""), 0, ""), "data"))
	buf := make([]byte, 3)
	if _, err := blob.Encode("abc", buf, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{3, 'b', 'c'}
	if !bytes.Equal(buf, want) {
		t.Errorf("buffer = %x, want %x", buf, want)
	}
}

func TestCString(t *testing.T) {
	s := NewCString("memo")

	t.Run("encode", func(t *testing.T) {
		buf := []byte{9, 9, 9, 9, 9}
		n, err := s.Encode("ab", buf, 0)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if n != 3 {
			t.Errorf("Encode returned %d, want 3", n)
		}
		if !bytes.Equal(buf, []byte{'a', 'b', 0, 9, 9}) {
			t.Errorf("buffer = %x", buf)
		}
		got, err := s.Decode(buf, 0)
		if err != nil || got != "ab" {
			t.Errorf("Decode = %v, %v", got, err)
		}
	})

	t.Run("unterminated", func(t *testing.T) {
		buf := []byte("xyz")
		span, err := s.GetSpan(buf, 0)
		if err != nil || span != 4 {
			t.Errorf("GetSpan = %d, %v; want 4", span, err)
		}
		got, err := s.Decode(buf, 1)
		if err != nil || got != "yz" {
			t.Errorf("Decode = %v, %v", got, err)
		}
		got, err = s.Decode(buf, 3)
		if err != nil || got != "" {
			t.Errorf("Decode at end = %q, %v", got, err)
		}
	})

	t.Run("errors", func(t *testing.T) {
		buf := make([]byte, 3)
		_, err := s.Encode("abc", buf, 0)
		requireKind(t, err, errors.KindRange)
		_, err = s.Encode("a\x00b", make([]byte, 8), 0)
		requireKind(t, err, errors.KindInvalidData)
		_, err = s.Encode(1, buf, 0)
		requireKind(t, err, errors.KindTypeMismatch)
	})
}

func TestUTF8(t *testing.T) {
	s := NewUTF8(-1, "text")
	buf := make([]byte, 6)
	n, err := s.Encode("héllo", buf, 0)
	if err != nil || n != 6 {
		t.Fatalf("Encode = %d, %v", n, err)
	}
	got, err := s.Decode(buf, 0)
	if err != nil || got != "héllo" {
		t.Errorf("Decode = %v, %v", got, err)
	}
	if span, _ := s.GetSpan(buf, 2); span != 4 {
		t.Errorf("GetSpan = %d, want 4", span)
	}

	bounded := NewUTF8(4, "text")
	_, err = bounded.Encode("hello", make([]byte, 10), 0)
	requireKind(t, err, errors.KindRange)
	_, err = bounded.Decode([]byte("hello"), 0)
	requireKind(t, err, errors.KindRange)
	if got, err := bounded.Decode([]byte("hello"), 1); err != nil || got != "ello" {
		t.Errorf("bounded Decode = %v, %v", got, err)
	}

	_, err = s.Encode("toolong", make([]byte, 3), 0)
	requireKind(t, err, errors.KindRange)
}
