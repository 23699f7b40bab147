package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/client"
	"github.com/wippyai/host-offload/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

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

type interactiveModel struct {
	err      error
	tbl      *table.Table
	result   string
	ops      []opInfo
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type opInfo struct {
	name   string
	result string
	params []paramInfo
	call   func(tbl *table.Table, args []string) (string, error)
}

type paramInfo struct {
	name    string
	typeStr string
}

type modelState int

const (
	stateSelectOp modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(maxBytes uint64) *interactiveModel {
	var opts []table.Option
	if maxBytes > 0 {
		opts = append(opts, table.WithMaxBytes(maxBytes))
	}
	return &interactiveModel{
		tbl:   table.New(opts...),
		ops:   tableOps(),
		state: stateSelectOp,
	}
}

type callResultMsg struct {
	err    error
	result string
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
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(m.ops)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callOp
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callOp

			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectOp
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	op := m.ops[m.selected]
	m.inputs = make([]textinput.Model, len(op.params))
	for i, p := range op.params {
		ti := textinput.New()
		ti.Placeholder = p.typeStr
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callOp() tea.Msg {
	op := m.ops[m.selected]
	args := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = strings.TrimSpace(input.Value())
	}

	result, err := op.call(m.tbl, args)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: result}
}

// tableOps defines the interactive operations, one per boundary method
// plus the built-in demo.
func tableOps() []opInfo {
	return []opInfo{
		{
			name:   "allocate",
			result: "handle",
			params: []paramInfo{{"size", "u64 bytes"}},
			call: func(tbl *table.Table, args []string) (string, error) {
				size, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return "", err
				}
				h, err := tbl.Allocate(size)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("handle %d (%d bytes)", h, size), nil
			},
		},
		{
			name:   "allocate-matrix",
			result: "handle",
			params: []paramInfo{{"rows", "u32"}, {"cols", "u32"}},
			call: func(tbl *table.Table, args []string) (string, error) {
				rows, cols, err := parseDims(args[0], args[1])
				if err != nil {
					return "", err
				}
				h, err := tbl.AllocateMatrix(rows, cols)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("handle %d (%dx%d f32)", h, rows, cols), nil
			},
		},
		{
			name:   "write",
			params: []paramInfo{{"handle", "u64"}, {"offset", "u64 bytes"}, {"values", "f32,f32,..."}},
			call: func(tbl *table.Table, args []string) (string, error) {
				h, err := parseHandle(args[0])
				if err != nil {
					return "", err
				}
				offset, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return "", err
				}
				values, err := parseFloats(args[2])
				if err != nil {
					return "", err
				}
				if err := tbl.Write(encodeFloats(values), h, offset); err != nil {
					return "", err
				}
				return fmt.Sprintf("wrote %d elements at offset %d", len(values), offset), nil
			},
		},
		{
			name:   "read",
			result: "f32 list",
			params: []paramInfo{{"handle", "u64"}, {"offset", "u64 bytes"}, {"len", "u64 bytes"}},
			call: func(tbl *table.Table, args []string) (string, error) {
				h, err := parseHandle(args[0])
				if err != nil {
					return "", err
				}
				offset, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return "", err
				}
				length, err := strconv.ParseUint(args[2], 10, 64)
				if err != nil {
					return "", err
				}
				raw, err := tbl.Read(h, offset, length)
				if err != nil {
					return "", err
				}
				if len(raw)%hostoffload.ElemSize != 0 {
					return fmt.Sprintf("% x", raw), nil
				}
				return fmt.Sprintf("%v", decodeFloats(raw)), nil
			},
		},
		{
			name:   "register-dims",
			params: []paramInfo{{"handle", "u64"}, {"rows", "u32"}, {"cols", "u32"}},
			call: func(tbl *table.Table, args []string) (string, error) {
				h, err := parseHandle(args[0])
				if err != nil {
					return "", err
				}
				rows, cols, err := parseDims(args[1], args[2])
				if err != nil {
					return "", err
				}
				if err := tbl.RegisterShape(h, rows, cols); err != nil {
					return "", err
				}
				return fmt.Sprintf("handle %d is now %dx%d", h, rows, cols), nil
			},
		},
		{
			name:   "dims",
			result: "rows x cols",
			params: []paramInfo{{"handle", "u64"}},
			call: func(tbl *table.Table, args []string) (string, error) {
				h, err := parseHandle(args[0])
				if err != nil {
					return "", err
				}
				shape, err := tbl.Shape(h)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%dx%d", shape.Rows, shape.Cols), nil
			},
		},
		{
			name:   "multiply",
			result: "handle",
			params: []paramInfo{{"a", "u64"}, {"b", "u64"}},
			call: func(tbl *table.Table, args []string) (string, error) {
				a, err := parseHandle(args[0])
				if err != nil {
					return "", err
				}
				b, err := parseHandle(args[1])
				if err != nil {
					return "", err
				}
				h, err := tbl.Multiply(a, b)
				if err != nil {
					return "", err
				}
				shape, _ := tbl.Shape(h)
				return fmt.Sprintf("handle %d (%dx%d)", h, shape.Rows, shape.Cols), nil
			},
		},
		{
			name:   "free",
			params: []paramInfo{{"handle", "u64"}},
			call: func(tbl *table.Table, args []string) (string, error) {
				h, err := parseHandle(args[0])
				if err != nil {
					return "", err
				}
				if err := tbl.Free(h); err != nil {
					return "", err
				}
				return fmt.Sprintf("handle %d freed", h), nil
			},
		},
		{
			name:   "demo",
			result: "2x2 product",
			call: func(tbl *table.Table, args []string) (string, error) {
				ex, err := client.RunMatrixExample(tbl, zap.NewNop())
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%v x %v = %v", ex.A, ex.B, ex.Product), nil
			},
		},
	}
}

func parseHandle(s string) (hostoffload.Handle, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("handle %q: %w", s, err)
	}
	return hostoffload.Handle(v), nil
}

func parseDims(rowsStr, colsStr string) (uint32, uint32, error) {
	rows, err := strconv.ParseUint(rowsStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("rows %q: %w", rowsStr, err)
	}
	cols, err := strconv.ParseUint(colsStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("cols %q: %w", colsStr, err)
	}
	return uint32(rows), uint32(cols), nil
}

func parseFloats(s string) ([]float32, error) {
	var out []float32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", part, err)
		}
		out = append(out, float32(v))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values given")
	}
	return out, nil
}

func encodeFloats(values []float32) []byte {
	out := make([]byte, len(values)*hostoffload.ElemSize)
	for i, v := range values {
		binary.NativeEndian.PutUint32(out[i*hostoffload.ElemSize:], math.Float32bits(v))
	}
	return out
}

func decodeFloats(raw []byte) []float32 {
	out := make([]float32, len(raw)/hostoffload.ElemSize)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(raw[i*hostoffload.ElemSize:]))
	}
	return out
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Host Offload"))
	b.WriteString(" resource table\n\n")

	switch m.state {
	case stateSelectOp:
		b.WriteString("Select an operation:\n\n")
		for i, op := range m.ops {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatOp(op)))
			} else {
				b.WriteString(cursor + m.formatOp(op))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.renderBuffers())
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		op := m.ops[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(op.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(op.params[i].typeStr))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		op := m.ops[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(op.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(m.renderBuffers())
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatOp(op opInfo) string {
	var params []string
	for _, p := range op.params {
		params = append(params, p.name+": "+typeStyle.Render(p.typeStr))
	}
	result := ""
	if op.result != "" {
		result = " -> " + typeStyle.Render(op.result)
	}
	return funcStyle.Render(op.name) + "(" + strings.Join(params, ", ") + ")" + result
}

func (m *interactiveModel) renderBuffers() string {
	type row struct {
		handle hostoffload.Handle
		size   uint64
		shape  string
	}
	var rows []row
	m.tbl.Each(func(h hostoffload.Handle, size uint64, shape hostoffload.Shape, hasShape bool) bool {
		r := row{handle: h, size: size}
		if hasShape {
			r.shape = fmt.Sprintf("%dx%d", shape.Rows, shape.Cols)
		}
		rows = append(rows, r)
		return true
	})
	if len(rows) == 0 {
		return helpStyle.Render("no live buffers") + "\n\n"
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].handle < rows[j].handle })

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Live buffers (%d bytes total):\n", m.tbl.Bytes()))
	for _, r := range rows {
		line := fmt.Sprintf("  #%d  %d bytes", r.handle, r.size)
		if r.shape != "" {
			line += "  " + r.shape
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func runInteractive(maxBytes uint64) error {
	p := tea.NewProgram(newInteractiveModel(maxBytes), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
