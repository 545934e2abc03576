package app

// Sink receives display updates from the Controller. Implementations must be
// safe to call from any goroutine.
type Sink interface {
	// Busy reports that a long-running step started.
	Busy(msg string)
	// Response delivers a formatted LLM response.
	Response(text string)
	// Error reports a failed request, transcription or recording.
	Error(err error)
	// Prompt replaces the prompt input with transcribed text.
	Prompt(text string)
	// Recording reports that microphone capture started or stopped.
	Recording(on bool)
	// FontChanged applies a new font family and size to the display.
	FontChanged(family string, size int)
}

type nopSink struct{}

func (nopSink) Busy(string)             {}
func (nopSink) Response(string)         {}
func (nopSink) Error(error)             {}
func (nopSink) Prompt(string)           {}
func (nopSink) Recording(bool)          {}
func (nopSink) FontChanged(string, int) {}

// Sinks fans every event out to each sink in order.
type Sinks []Sink

func (s Sinks) Busy(msg string) {
	for _, k := range s {
		k.Busy(msg)
	}
}

func (s Sinks) Response(text string) {
	for _, k := range s {
		k.Response(text)
	}
}

func (s Sinks) Error(err error) {
	for _, k := range s {
		k.Error(err)
	}
}

func (s Sinks) Prompt(text string) {
	for _, k := range s {
		k.Prompt(text)
	}
}

func (s Sinks) Recording(on bool) {
	for _, k := range s {
		k.Recording(on)
	}
}

func (s Sinks) FontChanged(family string, size int) {
	for _, k := range s {
		k.FontChanged(family, size)
	}
}
