// Package tui is the terminal shell: a prompt editor, a response pane and
// key bindings for recording, model switching and copying.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of app.Controller the terminal shell drives.
type Controller interface {
	Submit(ctx context.Context, prompt string) error
	ToggleRecording(ctx context.Context) error
	IsRecording() bool
	ModelChoices(ctx context.Context) []string
	Model() string
	SelectModel(name string) error
	WhisperSizes() []string
	WhisperSize() string
	SelectWhisperSize(size string) error
	LastResponse() string
}

// Messages delivered by the Sink and by finished commands.
type busyMsg struct{ text string }
type responseMsg struct{ text string }
type errorMsg struct{ err error }
type promptMsg struct{ text string }
type recordingMsg struct{ on bool }
type fontMsg struct {
	family string
	size   int
}
type doneMsg struct{}
type modelsMsg struct{ names []string }

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle  = helpStyle.Bold(true)
	promptBox     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	promptBoxBusy = promptBox.BorderForeground(lipgloss.Color("240"))
)

type model struct {
	ctx  context.Context
	ctrl Controller

	models []string
	prompt []rune

	response  string
	status    string
	err       error
	busy      bool
	recording bool
	font      string

	width, height int
}

func newModel(ctx context.Context, ctrl Controller) model {
	return model{
		ctx:    ctx,
		ctrl:   ctrl,
		status: "Ready",
	}
}

func (m model) Init() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return modelsMsg{names: ctrl.ModelChoices(ctx)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case modelsMsg:
		m.models = msg.names

	case busyMsg:
		m.busy = true
		m.status = msg.text
		m.err = nil

	case responseMsg:
		m.busy = false
		m.response = msg.text
		m.status = "Ready"

	case errorMsg:
		m.busy = false
		m.err = msg.err
		m.status = "Ready"

	case promptMsg:
		m.prompt = []rune(msg.text)

	case recordingMsg:
		m.recording = msg.on
		if msg.on {
			m.status = "Recording... (ctrl+r to stop)"
		}

	case fontMsg:
		m.font = fmt.Sprintf("%s %d", msg.family, msg.size)

	case doneMsg:
		m.busy = false
		if m.status != "Ready" && !m.recording {
			m.status = "Ready"
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		if m.busy || m.recording {
			return m, nil
		}
		prompt := strings.TrimSpace(string(m.prompt))
		if prompt == "" {
			return m, nil
		}
		m.busy = true
		m.status = "Generating response..."
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			_ = ctrl.Submit(ctx, prompt)
			return doneMsg{}
		}

	case "ctrl+j", "alt+enter":
		m.prompt = append(m.prompt, '\n')

	case "ctrl+r":
		if m.busy && !m.recording {
			return m, nil
		}
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			_ = ctrl.ToggleRecording(ctx)
			return doneMsg{}
		}

	case "ctrl+n":
		m.err = m.cycleModel()

	case "ctrl+w":
		m.err = m.cycleWhisperSize()

	case "ctrl+y":
		text := m.ctrl.LastResponse()
		if text == "" {
			m.status = "Nothing to copy"
		} else if err := copyToClipboard(text); err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", err)
		} else {
			m.status = "Response copied to clipboard"
		}

	case "ctrl+u":
		m.prompt = nil

	case "backspace":
		if len(m.prompt) > 0 {
			m.prompt = m.prompt[:len(m.prompt)-1]
		}

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.prompt = append(m.prompt, msg.Runes...)
		}
	}
	return m, nil
}

func (m *model) cycleModel() error {
	if len(m.models) == 0 {
		return nil
	}
	next := m.models[(slices.Index(m.models, m.ctrl.Model())+1)%len(m.models)]
	return m.ctrl.SelectModel(next)
}

func (m *model) cycleWhisperSize() error {
	sizes := m.ctrl.WhisperSizes()
	if len(sizes) == 0 {
		return nil
	}
	next := sizes[(slices.Index(sizes, m.ctrl.WhisperSize())+1)%len(sizes)]
	return m.ctrl.SelectWhisperSize(next)
}

func (m model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	inner := max(width-4, 20)

	var b strings.Builder
	b.WriteString(titleStyle.Render("voxprompt"))
	b.WriteString("  ")
	info := fmt.Sprintf("model: %s | whisper: %s", m.ctrl.Model(), m.ctrl.WhisperSize())
	if m.font != "" {
		info += " | font: " + m.font
	}
	b.WriteString(infoStyle.Render(info))
	b.WriteString("\n\n")

	box := promptBox
	if m.busy {
		box = promptBoxBusy
	}
	prompt := string(m.prompt)
	if !m.busy && !m.recording {
		prompt += "█"
	}
	b.WriteString(box.Width(inner).Render(prompt))
	b.WriteString("\n")

	switch {
	case m.recording:
		b.WriteString(recStyle.Render("● " + m.status))
	default:
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.response != "" {
		b.WriteString(lipgloss.NewStyle().Width(inner).Render(m.response))
		b.WriteString("\n\n")
	}

	b.WriteString(help(
		"enter", "submit",
		"ctrl+j", "newline",
		"ctrl+r", "record",
		"ctrl+n", "model",
		"ctrl+w", "whisper",
		"ctrl+y", "copy",
		"esc", "quit",
	))
	return b.String()
}

func help(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, helpKeyStyle.Render(pairs[i])+helpStyle.Render(" "+pairs[i+1]))
	}
	return strings.Join(parts, helpStyle.Render("  "))
}
