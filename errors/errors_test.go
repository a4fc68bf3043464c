package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindTypeMismatch,
				Path:   []string{"transfer", "memo"},
				GoType: "int",
				Layout: "cstring",
				Detail: "cannot convert",
			},
			contains: []string{"[encode]", "type_mismatch", "transfer.memo", "int", "cstring", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "layout only",
			err: &Error{
				Phase:  PhaseCompose,
				Kind:   KindInvalidLayout,
				Layout: "u7",
				Detail: "span must be 1..6",
			},
			contains: []string{"[compose]", "layout u7", " - span must be 1..6"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseSpan,
				Kind:   KindIndeterminateSpan,
				Detail: "indeterminate span",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[span]", "indeterminate_span", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindTypeMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseEncode, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseDecode, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseEncode, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseEncode, Kind: KindTypeMismatch}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindTypeMismatch).
		Path("transfer", "amount").
		GoType("string").
		Layout("u32").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "integer", "string").
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "transfer" || err.Path[1] != "amount" {
		t.Errorf("Path = %v, want [transfer amount]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.Layout != "u32" {
		t.Errorf("Layout = %v, want 'u32'", err.Layout)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected integer, got string" {
		t.Errorf("Detail = %v, want 'expected integer, got string'", err.Detail)
	}
}

func TestPrefix(t *testing.T) {
	base := Overflow(PhaseEncode, []string{"amount"}, 300, "u8")

	got := Prefix(base, "transfer")
	e, ok := got.(*Error)
	if !ok {
		t.Fatalf("Prefix returned %T, want *Error", got)
	}
	if strings.Join(e.Path, ".") != "transfer.amount" {
		t.Errorf("Path = %v, want [transfer amount]", e.Path)
	}
	if strings.Join(base.Path, ".") != "amount" {
		t.Errorf("Prefix mutated original path: %v", base.Path)
	}

	if Prefix(base, "") != error(base) {
		t.Error("empty segment should return the error unchanged")
	}

	plain := errors.New("plain")
	if Prefix(plain, "x") != plain {
		t.Error("non-structured errors should pass through")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseEncode, []string{"field"}, "int", "cstring")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.GoType != "int" || err.Layout != "cstring" {
			t.Errorf("GoType=%v Layout=%v", err.GoType, err.Layout)
		}
	})

	t.Run("InvalidLayout", func(t *testing.T) {
		err := InvalidLayout("structure", "unnamed variable-length field")
		if err.Phase != PhaseCompose || err.Kind != KindInvalidLayout {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("Range", func(t *testing.T) {
		err := Range(PhaseDecode, nil, "utf8", "text length exceeds maxSpan")
		if err.Kind != KindRange {
			t.Errorf("Kind = %v, want %v", err.Kind, KindRange)
		}
	})

	t.Run("FieldMissing", func(t *testing.T) {
		err := FieldMissing(PhaseEncode, []string{"record"}, "name")
		if err.Kind != KindFieldMissing {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldMissing)
		}
	})

	t.Run("InvalidDiscriminant", func(t *testing.T) {
		err := InvalidDiscriminant(PhaseDecode, []string{"variant"}, 5)
		if err.Kind != KindInvalidVariant {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidVariant)
		}
		if err.Value != uint64(5) {
			t.Errorf("Value = %v, want 5", err.Value)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := Duplicate("union", "variant", 3)
		if err.Kind != KindDuplicate || !strings.Contains(err.Detail, "3") {
			t.Errorf("got %v %q", err.Kind, err.Detail)
		}
	})

	t.Run("IndeterminateSpan", func(t *testing.T) {
		cause := errors.New("nested")
		err := IndeterminateSpan("structure", cause)
		if err.Phase != PhaseSpan || !errors.Is(err, cause) {
			t.Errorf("unexpected %v", err)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCompose, "resource types")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseDecode, []string{"list"}, 10, 4, 12)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"val"}, 300, "u8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseSchema, "layout", "transfer")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, `"transfer"`) {
			t.Errorf("got %v %q", err.Kind, err.Detail)
		}
	})
}
