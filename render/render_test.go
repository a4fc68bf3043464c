package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/buffer-layout/layout"
)

func sample() *layout.Record {
	return layout.NewRecord(
		layout.Entry{Label: "id", Value: uint64(7)},
		layout.Entry{Label: "name", Value: "pt"},
		layout.Entry{Label: "tags", Value: []any{uint64(1), int64(-2)}},
		layout.Entry{Label: "raw", Value: []byte{0xab, 0xcd}},
		layout.Entry{Label: "inner", Value: layout.NewRecord()},
	)
}

func TestNormalize(t *testing.T) {
	got := Normalize([]any{sample(), "x"})
	want := []any{
		map[string]any{
			"id":    uint64(7),
			"name":  "pt",
			"tags":  []any{uint64(1), int64(-2)},
			"raw":   []byte{0xab, 0xcd},
			"inner": map[string]any{},
		},
		"x",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
	if Normalize((*layout.Record)(nil)) != nil {
		t.Error("nil record should normalize to nil")
	}
}

func TestYAML(t *testing.T) {
	out, err := YAML(sample())
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}
	text := string(out)

	prev := -1
	for _, key := range []string{"id:", "name:", "tags:", "raw:", "inner:"} {
		i := strings.Index(text, key)
		if i <= prev {
			t.Fatalf("key %s out of order in:\n%s", key, text)
		}
		prev = i
	}
	if !strings.Contains(text, "!!binary") {
		t.Errorf("bytes not tagged binary:\n%s", text)
	}

	var back map[string]any
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := map[string]any{
		"id":    7,
		"name":  "pt",
		"tags":  []any{1, -2},
		"raw":   "\xab\xcd",
		"inner": map[string]any{},
	}
	if diff := cmp.Diff(want, back); diff != "" {
		t.Errorf("YAML round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCBORDeterministic(t *testing.T) {
	a, err := CBOR(layout.NewRecord(
		layout.Entry{Label: "b", Value: uint64(1)},
		layout.Entry{Label: "a", Value: []byte{1}},
	))
	if err != nil {
		t.Fatalf("CBOR failed: %v", err)
	}
	b, err := CBOR(map[string]any{"a": []byte{1}, "b": uint64(1)})
	if err != nil {
		t.Fatalf("CBOR failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("encodings differ: %x vs %x", a, b)
	}

	var back map[string]any
	if err := cbor.Unmarshal(a, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": []byte{1}, "b": uint64(1)}, back); diff != "" {
		t.Errorf("CBOR round trip mismatch (-want +got):\n%s", diff)
	}

	diag, err := Diagnose(a)
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if !strings.Contains(diag, `"a"`) || !strings.Contains(diag, `"b"`) {
		t.Errorf("Diagnose = %s", diag)
	}
}

func TestTreePlain(t *testing.T) {
	got := Tree(sample(), nil)
	want := "id: 7\n" +
		"name: \"pt\"\n" +
		"tags:\n" +
		"  [0]: 1\n" +
		"  [1]: -2\n" +
		"raw: abcd (2 bytes)\n" +
		"inner: {}\n"
	if got != want {
		t.Errorf("Tree mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestTreeScalars(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"uint", uint64(3), "3\n"},
		{"string", "a\"b", "\"a\\\"b\"\n"},
		{"empty list", []any{}, "[]\n"},
		{"nil", nil, "null\n"},
		{"nested", []any{[]any{true}}, "[0]:\n  [0]: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tree(tt.v, Plain{}); got != tt.want {
				t.Errorf("Tree(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

type bracket struct{}

func (bracket) Label(s string) string  { return "<" + s + ">" }
func (bracket) Scalar(s string) string { return s }
func (bracket) Meta(s string) string   { return s }

func TestTreeStyler(t *testing.T) {
	got := Tree(layout.NewRecord(layout.Entry{Label: "k", Value: uint64(1)}), bracket{})
	if got != "<k>: 1\n" {
		t.Errorf("Tree = %q", got)
	}
	// lipgloss strips color when output is not a terminal, so the text survives
	if out := Tree(uint64(5), DefaultStyled()); !strings.Contains(out, "5") {
		t.Errorf("styled Tree = %q", out)
	}
}
