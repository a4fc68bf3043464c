package render

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/buffer-layout/layout"
)

// Styler decorates the parts of a rendered tree.
type Styler interface {
	Label(s string) string
	Scalar(s string) string
	Meta(s string) string
}

// Plain renders without decoration.
type Plain struct{}

func (Plain) Label(s string) string  { return s }
func (Plain) Scalar(s string) string { return s }
func (Plain) Meta(s string) string   { return s }

// Styled renders with terminal colors.
type Styled struct {
	LabelStyle  lipgloss.Style
	ScalarStyle lipgloss.Style
	MetaStyle   lipgloss.Style
}

// DefaultStyled returns the color scheme used by layoutctl.
func DefaultStyled() Styled {
	return Styled{
		LabelStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		ScalarStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		MetaStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func (s Styled) Label(v string) string  { return s.LabelStyle.Render(v) }
func (s Styled) Scalar(v string) string { return s.ScalarStyle.Render(v) }
func (s Styled) Meta(v string) string   { return s.MetaStyle.Render(v) }

const indent = "  "

// Tree renders v as an indented outline, one member per line. A nil styler
// renders plain text.
func Tree(v any, st Styler) string {
	if st == nil {
		st = Plain{}
	}
	var b strings.Builder
	writeTree(&b, st, v, 0)
	return b.String()
}

func writeTree(b *strings.Builder, st Styler, v any, depth int) {
	pad := strings.Repeat(indent, depth)
	switch val := v.(type) {
	case *layout.Record:
		if val == nil || val.Len() == 0 {
			b.WriteString(pad + st.Meta("{}") + "\n")
			return
		}
		for label, e := range val.All() {
			writeMember(b, st, label, e, depth)
		}
	case []any:
		if len(val) == 0 {
			b.WriteString(pad + st.Meta("[]") + "\n")
			return
		}
		for i, e := range val {
			writeMember(b, st, "["+strconv.Itoa(i)+"]", e, depth)
		}
	default:
		b.WriteString(pad + scalar(st, v) + "\n")
	}
}

func writeMember(b *strings.Builder, st Styler, label string, v any, depth int) {
	pad := strings.Repeat(indent, depth)
	if nested(v) {
		b.WriteString(pad + st.Label(label) + ":\n")
		writeTree(b, st, v, depth+1)
		return
	}
	b.WriteString(pad + st.Label(label) + ": " + scalar(st, v) + "\n")
}

func nested(v any) bool {
	switch val := v.(type) {
	case *layout.Record:
		return val != nil && val.Len() > 0
	case []any:
		return len(val) > 0
	}
	return false
}

func scalar(st Styler, v any) string {
	switch val := v.(type) {
	case nil:
		return st.Meta("null")
	case string:
		return st.Scalar(strconv.Quote(val))
	case []byte:
		return st.Scalar(hex.EncodeToString(val)) + " " + st.Meta(fmt.Sprintf("(%d bytes)", len(val)))
	case *layout.Record:
		return st.Meta("{}")
	case []any:
		return st.Meta("[]")
	default:
		return st.Scalar(fmt.Sprint(val))
	}
}
