// Package hotkey provides a global hotkey listener using gohook, so a
// recording can be started and stopped while another window has focus.
// It supports "hold" mode (press to start, release to stop) and
// "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"context"
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType indicates whether recording should start, stop, or flip.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start recording).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop recording).
	EventStop
	// EventToggle is a toggle-mode press; the recorder's own state decides
	// whether it starts or stops.
	EventToggle
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventToggle:
		return "toggle"
	}
	return "stop"
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Listener manages a global hotkey and emits start/stop events.
type Listener struct {
	keys []string
	mode string // "hold" or "toggle"
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewListener creates a Listener for the given key combo and mode.
// Key names are matched case-insensitively (e.g. ["ctrl", "shift", "space"]).
func NewListener(keys []string, mode string) (*Listener, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("hotkey: no keys")
	}
	if mode != "hold" && mode != "toggle" {
		return nil, fmt.Errorf("hotkey: unknown mode %q", mode)
	}
	norm := make([]string, len(keys))
	for i, k := range keys {
		norm[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return &Listener{
		keys: norm,
		mode: mode,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}, nil
}

// Events returns the channel that receives hotkey events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	if l.mode == "toggle" {
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.emit(EventToggle) })
	} else {
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.emit(EventStart) })
		hook.Register(hook.KeyUp, l.keys, func(hook.Event) { l.emit(EventStop) })
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// emit never blocks the hook thread; events are dropped when nobody reads.
func (l *Listener) emit(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default:
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Recorder is what hotkey events drive.
type Recorder interface {
	StartRecording() error
	StopRecording(ctx context.Context) error
	IsRecording() bool
}

// Drive forwards events to r until events is closed or ctx is done.
// A toggle stops a running recording, whoever started it, and otherwise
// starts one. Redundant events (start while recording, stop while idle) are ignored.
// Errors are passed to onErr, which may be nil.
func Drive(ctx context.Context, events <-chan Event, r Recorder, onErr func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			recording := r.IsRecording()
			var err error
			switch {
			case ev.Type == EventToggle && recording:
				err = r.StopRecording(ctx)
			case ev.Type == EventToggle, ev.Type == EventStart && !recording:
				err = r.StartRecording()
			case ev.Type == EventStop && recording:
				err = r.StopRecording(ctx)
			}
			if err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
