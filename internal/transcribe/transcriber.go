// Package transcribe turns recorded speech into text with whisper.cpp.
//
// A Transcriber wraps one loaded model. Engine resolves a model by size
// tier, loads it, runs it over a WAV file and releases it again.
package transcribe

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}
