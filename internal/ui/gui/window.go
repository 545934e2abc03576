//go:build gui

// Package gui is the desktop shell built with fyne. Build with -tags gui.
package gui

import (
	"context"
	"strconv"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/atotto/clipboard"

	"github.com/chaz8081/voxprompt/internal/config"
	"github.com/chaz8081/voxprompt/internal/log"
)

// Controller is the part of app.Controller the window drives.
type Controller interface {
	Submit(ctx context.Context, prompt string) error
	StartRecording() error
	StopRecording(ctx context.Context) error
	ModelChoices(ctx context.Context) []string
	Model() string
	SelectModel(name string) error
	WhisperSizes() []string
	WhisperSize() string
	SelectWhisperSize(size string) error
	Fonts() []string
	Font() (string, int)
	SetFont(family string, size int) error
	LastResponse() string
}

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// Window is the main voxprompt window. It implements app.Sink.
type Window struct {
	ctx       context.Context
	ctrl      Controller
	app       fyne.App
	win       fyne.Window
	fontFiles map[string]string

	modelSel    *widget.Select
	sizeSel     *widget.Select
	fontSel     *widget.Select
	fontSizeSel *widget.Select
	applyFont   *widget.Button

	prompt   *widget.Entry
	submit   *widget.Button
	startRec *widget.Button
	stopRec  *widget.Button

	status   *widget.Label
	response *widget.Label
	copyBtn  *widget.Button

	recording bool
}

// New creates the window in a new fyne application.
func New(ctx context.Context, ctrl Controller, ui config.UIConfig) *Window {
	return newWindow(ctx, fyneapp.NewWithID("io.github.chaz8081.voxprompt"), ctrl, ui)
}

func newWindow(ctx context.Context, a fyne.App, ctrl Controller, ui config.UIConfig) *Window {
	w := &Window{
		ctx:       ctx,
		ctrl:      ctrl,
		app:       a,
		win:       a.NewWindow("voxprompt"),
		fontFiles: ui.FontFiles,
	}
	family, size := ctrl.Font()
	a.Settings().SetTheme(newFontTheme(family, size, w.fontFiles))
	w.build()
	w.win.Resize(fyne.NewSize(720, 640))
	return w
}

func (w *Window) build() {
	w.modelSel = widget.NewSelect([]string{w.ctrl.Model()}, nil)
	w.modelSel.SetSelected(w.ctrl.Model())
	w.modelSel.OnChanged = func(name string) {
		if err := w.ctrl.SelectModel(name); err != nil {
			w.status.SetText(err.Error())
		}
	}

	w.sizeSel = widget.NewSelect(w.ctrl.WhisperSizes(), nil)
	w.sizeSel.SetSelected(w.ctrl.WhisperSize())
	w.sizeSel.OnChanged = func(size string) {
		if err := w.ctrl.SelectWhisperSize(size); err != nil {
			w.status.SetText(err.Error())
		}
	}

	family, size := w.ctrl.Font()
	w.fontSel = widget.NewSelect(w.ctrl.Fonts(), nil)
	w.fontSel.SetSelected(family)
	sizes := make([]string, 0, config.MaxFontSize-config.MinFontSize+1)
	for s := config.MinFontSize; s <= config.MaxFontSize; s++ {
		sizes = append(sizes, strconv.Itoa(s))
	}
	w.fontSizeSel = widget.NewSelect(sizes, nil)
	w.fontSizeSel.SetSelected(strconv.Itoa(size))
	w.applyFont = widget.NewButton("Apply Font", w.onApplyFont)

	w.prompt = widget.NewMultiLineEntry()
	w.prompt.Wrapping = fyne.TextWrapWord
	w.prompt.SetPlaceHolder("Type a prompt or record one...")
	w.prompt.SetMinRowsVisible(4)

	w.submit = widget.NewButtonWithIcon("Submit", theme.MailSendIcon(), w.onSubmit)
	w.submit.Importance = widget.HighImportance
	w.startRec = widget.NewButtonWithIcon("Start Recording", theme.MediaRecordIcon(), w.onStartRecording)
	w.stopRec = widget.NewButtonWithIcon("Stop Recording", theme.MediaStopIcon(), w.onStopRecording)
	w.stopRec.Disable()

	w.status = widget.NewLabel("Ready")
	w.response = widget.NewLabel("")
	w.response.Wrapping = fyne.TextWrapWord
	w.response.Selectable = true
	w.copyBtn = widget.NewButtonWithIcon("Copy", theme.ContentCopyIcon(), w.onCopy)

	settings := container.NewGridWithColumns(2,
		widget.NewLabel("Model"), w.modelSel,
		widget.NewLabel("Whisper size"), w.sizeSel,
		widget.NewLabel("Font"), w.fontSel,
		widget.NewLabel("Font size"), w.fontSizeSel,
	)
	actions := container.NewHBox(w.submit, w.startRec, w.stopRec)
	top := container.NewVBox(settings, w.applyFont, widget.NewSeparator(), w.prompt, actions, w.status)
	bottom := container.NewHBox(w.copyBtn)

	w.win.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewVScroll(w.response)))
}

// Run loads the runtime's model list in the background and blocks in the
// fyne event loop until the window closes.
func (w *Window) Run() {
	go w.loadModels()
	w.win.ShowAndRun()
}

func (w *Window) loadModels() {
	names := w.ctrl.ModelChoices(w.ctx)
	current := w.ctrl.Model()
	fyne.Do(func() {
		w.modelSel.SetOptions(names)
		w.modelSel.Selected = current
		w.modelSel.Refresh()
	})
}

func (w *Window) onSubmit() {
	text := w.prompt.Text
	go func() { _ = w.ctrl.Submit(w.ctx, text) }()
}

func (w *Window) onStartRecording() {
	go func() { _ = w.ctrl.StartRecording() }()
}

func (w *Window) onStopRecording() {
	w.stopRec.Disable()
	go func() { _ = w.ctrl.StopRecording(w.ctx) }()
}

func (w *Window) onApplyFont() {
	size, err := strconv.Atoi(w.fontSizeSel.Selected)
	if err != nil {
		w.status.SetText("Pick a font size")
		return
	}
	if err := w.ctrl.SetFont(w.fontSel.Selected, size); err != nil {
		w.status.SetText(err.Error())
	}
}

func (w *Window) onCopy() {
	text := w.ctrl.LastResponse()
	if text == "" {
		return
	}
	if err := copyToClipboard(text); err != nil {
		log.Warnf("copy to clipboard: %v", err)
		w.status.SetText("Copy failed: " + err.Error())
		return
	}
	w.status.SetText("Response copied to clipboard")
}

// setBusy disables everything that would start another request.
func (w *Window) setBusy(busy bool) {
	for _, d := range []fyne.Disableable{w.submit, w.modelSel, w.sizeSel, w.applyFont} {
		if busy {
			d.Disable()
		} else {
			d.Enable()
		}
	}
	if busy || w.recording {
		w.startRec.Disable()
	} else {
		w.startRec.Enable()
	}
}

func (w *Window) Busy(msg string) {
	fyne.Do(func() {
		w.status.SetText(msg)
		w.setBusy(true)
	})
}

func (w *Window) Response(text string) {
	fyne.Do(func() {
		w.response.SetText(text)
		w.status.SetText("Ready")
		w.setBusy(false)
	})
}

func (w *Window) Error(err error) {
	fyne.Do(func() {
		w.response.SetText("Error: " + err.Error())
		w.status.SetText("Ready")
		w.setBusy(false)
	})
}

func (w *Window) Prompt(text string) {
	fyne.Do(func() { w.prompt.SetText(text) })
}

func (w *Window) Recording(on bool) {
	fyne.Do(func() {
		w.recording = on
		if on {
			w.status.SetText("Recording...")
			w.startRec.Disable()
			w.stopRec.Enable()
			w.submit.Disable()
			return
		}
		w.stopRec.Disable()
		w.setBusy(false)
	})
}

func (w *Window) FontChanged(family string, size int) {
	fyne.Do(func() {
		w.app.Settings().SetTheme(newFontTheme(family, size, w.fontFiles))
		w.status.SetText("Font: " + family + " " + strconv.Itoa(size))
	})
}
