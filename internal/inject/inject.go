// Package inject delivers LLM answers into the active application using
// robotgo keystroke simulation or a clipboard paste.
package inject

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/go-vgo/robotgo"

	"github.com/chaz8081/voxprompt/internal/log"
)

// Injector types or pastes text into whatever window has focus.
//
// As an app.Sink it only acts on the first response after Arm, so answers
// to prompts typed in voxprompt's own window stay there.
type Injector struct {
	method string // "type" or "paste"
	armed  atomic.Bool

	typeText  func(string)
	readClip  func() (string, error)
	writeClip func(string) error
	keyTap    func(key string, mods ...any) error
}

// New creates an Injector for method "type" (keystroke simulation) or
// "paste" (clipboard).
func New(method string) (*Injector, error) {
	if method != "type" && method != "paste" {
		return nil, fmt.Errorf("inject: unknown method %q", method)
	}
	return &Injector{
		method:    method,
		typeText:  func(s string) { robotgo.Type(s) },
		readClip:  robotgo.ReadAll,
		writeClip: robotgo.WriteAll,
		keyTap:    robotgo.KeyTap,
	}, nil
}

// Inject sends text to the active application using the configured method.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}
	if inj.method == "paste" {
		return inj.paste(text)
	}
	inj.typeText(text)
	return nil
}

// paste copies text to the clipboard and pastes it with the platform
// shortcut. The previous clipboard content is restored afterwards.
func (inj *Injector) paste(text string) error {
	prev, _ := inj.readClip()

	if err := inj.writeClip(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}
	if err := inj.keyTap("v", pasteModifier()); err != nil {
		return fmt.Errorf("inject: key tap paste: %w", err)
	}

	// Best effort
	_ = inj.writeClip(prev)
	return nil
}

func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// Arm makes the next response go to the focused application.
func (inj *Injector) Arm() { inj.armed.Store(true) }

// Armed reports whether a response is awaited.
func (inj *Injector) Armed() bool { return inj.armed.Load() }

func (inj *Injector) Response(text string) {
	if !inj.armed.Swap(false) {
		return
	}
	if err := inj.Inject(text); err != nil {
		log.Warnf("%v", err)
	}
}

// Error drops a pending injection; the failure is shown in the window.
func (inj *Injector) Error(error) { inj.armed.Store(false) }

func (inj *Injector) Busy(string)             {}
func (inj *Injector) Prompt(string)           {}
func (inj *Injector) Recording(bool)          {}
func (inj *Injector) FontChanged(string, int) {}
