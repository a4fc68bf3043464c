package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/buffer-layout/errors"
)

var recordCmp = cmp.Comparer(func(a, b *Record) bool { return a.Equal(b) })

func requireKind(t *testing.T, err error, kind errors.Kind) *errors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	e, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", e.Kind, kind, err)
	}
	return e
}

// roundTrip encodes v into a zeroed buffer of size bytes and decodes it back.
func roundTrip(t *testing.T, l Layout, v any, size int) (any, []byte, int) {
	t.Helper()
	buf := make([]byte, size)
	n, err := Encode(l, v, buf, 0)
	if err != nil {
		t.Fatalf("Encode(%v) failed: %v", v, err)
	}
	got, err := Decode(l, buf, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return got, buf, n
}

func mustVariant(t *testing.T, u *Union, tag int, payload Layout, property string) *Variant {
	t.Helper()
	v, err := u.AddVariant(tag, payload, property)
	if err != nil {
		t.Fatalf("AddVariant(%d, %q) failed: %v", tag, property, err)
	}
	return v
}

func mustField(t *testing.T) func(*BitField, error) *BitField {
	return func(f *BitField, err error) *BitField {
		t.Helper()
		if err != nil {
			t.Fatalf("bit field allocation failed: %v", err)
		}
		return f
	}
}
