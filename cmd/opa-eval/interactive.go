package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/opa-wasm-runtime/runtime"
	"github.com/wippyai/opa-wasm-runtime/value"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	entrypointStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectEntrypoint modelState = iota
	stateEditInput
	stateShowResult
)

type interactiveModel struct {
	err         error
	rt          *runtime.Runtime
	policy      *runtime.Policy
	input       textinput.Model
	result      string
	entrypoints []string
	wasm        []byte
	data        []byte
	selected    int
	state       modelState
}

type loadedMsg struct {
	err         error
	rt          *runtime.Runtime
	policy      *runtime.Policy
	entrypoints []string
}

type evalResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(wasm, data []byte) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = `{"input": "document"}`
	ti.SetValue("{}")
	ti.CharLimit = 0
	ti.Width = 60

	return &interactiveModel{
		wasm:  wasm,
		data:  data,
		input: ti,
		state: stateSelectEntrypoint,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadPolicy
}

func (m *interactiveModel) loadPolicy() tea.Msg {
	ctx := context.Background()

	rt, err := runtime.New(ctx, m.wasm)
	if err != nil {
		return loadedMsg{err: err}
	}

	data := value.Value(value.NewObject())
	if m.data != nil {
		data, err = value.Parse(m.data)
		if err != nil {
			rt.Close(ctx)
			return loadedMsg{err: err}
		}
	}

	policy, err := rt.WithData(ctx, data)
	if err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}

	entrypoints := rt.Entrypoints()
	sort.Strings(entrypoints)

	return loadedMsg{rt: rt, policy: policy, entrypoints: entrypoints}
}

func (m *interactiveModel) evaluate() tea.Cmd {
	entrypoint := m.entrypoints[m.selected]
	inputText := m.input.Value()

	return func() tea.Msg {
		input, err := value.Parse([]byte(inputText))
		if err != nil {
			return evalResultMsg{err: fmt.Errorf("invalid input JSON: %w", err)}
		}

		result, err := m.policy.Evaluate(context.Background(), entrypoint, input)
		if err != nil {
			return evalResultMsg{err: err}
		}

		out, err := value.MarshalString(result)
		if err != nil {
			return evalResultMsg{err: err}
		}
		return evalResultMsg{result: out}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.err = msg.err
		m.rt = msg.rt
		m.policy = msg.policy
		m.entrypoints = msg.entrypoints
		return m, nil

	case evalResultMsg:
		m.err = msg.err
		m.result = msg.result
		m.state = stateShowResult
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateEditInput || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "up":
			if m.state == stateSelectEntrypoint && m.selected > 0 {
				m.selected--
			}

		case "down":
			if m.state == stateSelectEntrypoint && m.selected < len(m.entrypoints)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectEntrypoint:
				if len(m.entrypoints) > 0 {
					m.state = stateEditInput
					m.input.Focus()
					return m, textinput.Blink
				}
			case stateEditInput:
				m.input.Blur()
				return m, m.evaluate()
			case stateShowResult:
				m.state = stateSelectEntrypoint
				m.err = nil
				m.result = ""
			}

		case "esc":
			if m.state != stateSelectEntrypoint {
				m.state = stateSelectEntrypoint
				m.input.Blur()
			}
		}
	}

	if m.state == stateEditInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	s := titleStyle.Render("opa-eval") + "\n\n"

	if m.err != nil && m.state != stateShowResult {
		return s + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n" +
			helpStyle.Render("q: quit") + "\n"
	}

	switch m.state {
	case stateSelectEntrypoint:
		if m.entrypoints == nil {
			return s + "Loading policy...\n"
		}
		s += "Entrypoints:\n"
		for i, name := range m.entrypoints {
			line := "  " + name
			if i == m.selected {
				s += selectedStyle.Render("> "+name) + "\n"
			} else {
				s += entrypointStyle.Render(line) + "\n"
			}
		}
		s += "\n" + helpStyle.Render("↑/↓: select · enter: choose · q: quit")

	case stateEditInput:
		s += "Entrypoint: " + entrypointStyle.Render(m.entrypoints[m.selected]) + "\n\n"
		s += "Input document:\n" + m.input.View() + "\n\n"
		s += helpStyle.Render("enter: evaluate · esc: back")

	case stateShowResult:
		s += "Entrypoint: " + entrypointStyle.Render(m.entrypoints[m.selected]) + "\n\n"
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
		} else {
			s += "Result:\n" + resultStyle.Render(m.result) + "\n\n"
		}
		s += helpStyle.Render("enter: again · esc: back · q: quit")
	}

	return s + "\n"
}

func runInteractive(wasm, data []byte) error {
	model := newInteractiveModel(wasm, data)
	p := tea.NewProgram(model)
	_, err := p.Run()
	if model.rt != nil {
		model.rt.Close(context.Background())
	}
	return err
}
