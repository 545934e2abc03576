package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// UI runs the terminal shell and implements app.Sink by forwarding events
// into the bubbletea program.
type UI struct {
	program *tea.Program
}

// New creates the terminal UI for ctrl. Attach the returned UI as the
// controller's sink before calling Run.
func New(ctx context.Context, ctrl Controller) *UI {
	return &UI{
		program: tea.NewProgram(newModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx)),
	}
}

// Run blocks until the user quits.
func (u *UI) Run() error {
	_, err := u.program.Run()
	return err
}

// Quit asks the program to exit.
func (u *UI) Quit() { u.program.Quit() }

func (u *UI) Busy(msg string)                     { u.program.Send(busyMsg{text: msg}) }
func (u *UI) Response(text string)                { u.program.Send(responseMsg{text: text}) }
func (u *UI) Error(err error)                     { u.program.Send(errorMsg{err: err}) }
func (u *UI) Prompt(text string)                  { u.program.Send(promptMsg{text: text}) }
func (u *UI) Recording(on bool)                   { u.program.Send(recordingMsg{on: on}) }
func (u *UI) FontChanged(family string, size int) { u.program.Send(fontMsg{family: family, size: size}) }
