package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/buffer-layout/layout"
	"github.com/wippyai/buffer-layout/render"
	"github.com/wippyai/buffer-layout/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	spanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectLayout modelState = iota
	stateEditInput
	stateShowResult
)

type interactiveModel struct {
	err      error
	set      *schema.Set
	names    []string
	result   string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type decodedMsg struct {
	err    error
	result string
}

const (
	inputBytes = iota
	inputOffset
)

func newInteractiveModel(set *schema.Set, data []byte, offset int) *interactiveModel {
	hexInput := textinput.New()
	hexInput.Prompt = "bytes: "
	hexInput.Placeholder = "hex"
	hexInput.Width = 64
	hexInput.CharLimit = 0
	hexInput.SetValue(hex.EncodeToString(data))

	offInput := textinput.New()
	offInput.Prompt = "offset: "
	offInput.Placeholder = "0"
	offInput.Width = 10
	offInput.SetValue(strconv.Itoa(offset))

	return &interactiveModel{
		set:    set,
		names:  set.Names(),
		inputs: []textinput.Model{hexInput, offInput},
		state:  stateSelectLayout,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateEditInput {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectLayout && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectLayout && m.selected < len(m.names)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectLayout:
				if len(m.names) == 0 {
					return m, nil
				}
				m.focus(inputBytes)
				m.state = stateEditInput
				return m, nil

			case stateEditInput:
				return m, m.decode

			case stateShowResult:
				m.state = stateSelectLayout
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateEditInput {
				m.focus((m.focusIdx + 1) % len(m.inputs))
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateEditInput:
				m.state = stateSelectLayout
				m.inputs[m.focusIdx].Blur()
			case stateShowResult:
				m.state = stateEditInput
				m.result = ""
				m.err = nil
			}
			return m, nil
		}

	case decodedMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateEditInput {
		var cmd tea.Cmd
		m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) focus(idx int) {
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = idx
	m.inputs[idx].Focus()
}

func (m *interactiveModel) current() (layout.Layout, error) {
	return m.set.Layout(m.names[m.selected])
}

func (m *interactiveModel) decode() tea.Msg {
	l, err := m.current()
	if err != nil {
		return decodedMsg{err: err}
	}
	data, err := parseHex(m.inputs[inputBytes].Value())
	if err != nil {
		return decodedMsg{err: err}
	}
	offset := 0
	if s := strings.TrimSpace(m.inputs[inputOffset].Value()); s != "" {
		offset, err = strconv.Atoi(s)
		if err != nil {
			return decodedMsg{err: fmt.Errorf("parse offset: %w", err)}
		}
	}

	v, err := layout.Decode(l, data, offset)
	if err != nil {
		return decodedMsg{err: err}
	}
	span, err := layout.GetSpan(l, data, offset)
	if err != nil {
		return decodedMsg{err: err}
	}
	tree := render.Tree(v, render.DefaultStyled())
	return decodedMsg{result: tree + helpStyle.Render(fmt.Sprintf("%d bytes consumed", span))}
}

func (m *interactiveModel) View() string {
	if len(m.names) == 0 {
		return errorStyle.Render("Schema defines no layouts.\n\nPress q to quit.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Layout Inspector"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectLayout:
		b.WriteString("Select a layout:\n\n")
		for i, name := range m.names {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + m.formatLayout(name)))
			} else {
				b.WriteString("  " + m.formatLayout(name))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateEditInput:
		b.WriteString(fmt.Sprintf("Decoding with %s\n\n", nameStyle.Render(m.names[m.selected])))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter decode • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("%s:\n\n", nameStyle.Render(m.names[m.selected])))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.result)
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter layouts • esc edit input • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatLayout(name string) string {
	l, err := m.set.Layout(name)
	if err != nil {
		return name
	}
	span := "variable"
	if l.Span() >= 0 {
		span = strconv.Itoa(l.Span()) + " bytes"
	}
	return nameStyle.Render(name) + " " + spanStyle.Render(fmt.Sprintf("%T, %s", l, span))
}

func runInteractive(set *schema.Set, data []byte, offset int) error {
	p := tea.NewProgram(newInteractiveModel(set, data, offset), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
