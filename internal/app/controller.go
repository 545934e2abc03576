// Package app holds the UI-independent behavior of voxprompt: model
// selection, prompt submission, and record-then-transcribe. The terminal
// and graphical shells drive a Controller and render its Sink events.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chaz8081/voxprompt/internal/audio"
	"github.com/chaz8081/voxprompt/internal/config"
	"github.com/chaz8081/voxprompt/internal/log"
	"github.com/chaz8081/voxprompt/internal/models"
)

// MinRecording is the shortest recording worth transcribing.
const MinRecording = 300 * time.Millisecond

var (
	ErrNotRecording     = errors.New("app: not recording")
	ErrAlreadyRecording = errors.New("app: already recording")
	ErrNoDevice         = errors.New("app: no audio capture device")
	ErrNoAudio          = errors.New("app: no audio captured")
	ErrTooShort         = errors.New("app: recording too short")
	ErrUnknownModelSize = errors.New("app: unknown whisper model size")
	ErrUnknownFont      = errors.New("app: unknown font family")
	ErrFontSizeRange    = errors.New("app: font size out of range")
	ErrEmptyModelName   = errors.New("app: empty model name")
)

// Completer sends one prompt to the LLM runtime.
type Completer interface {
	SetModel(name string)
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelLister is implemented by completers that can enumerate installed models.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}

// Capture records microphone audio between Start and Stop.
type Capture interface {
	Start() error
	Stop() []float32
	SampleRate() uint32
}

// FileTranscriber turns a WAV file into text with the model of a size tier.
type FileTranscriber interface {
	TranscribeFile(ctx context.Context, size, wavPath string) (string, error)
}

// Controller owns the selected model, whisper size and font, and runs
// prompts and recordings on behalf of a UI shell.
type Controller struct {
	llm     Completer
	capture Capture
	stt     FileTranscriber
	sink    Sink

	models   []string
	sizes    []string
	fonts    []string
	tempDir  string
	writeWAV func(path string, samples []float32, rate int) error

	mu           sync.Mutex
	whisperSize  string
	fontFamily   string
	fontSize     int
	recording    bool
	lastResponse string
	prompts      int
}

// New creates a Controller seeded from cfg. capture may be nil when no audio
// device is available; recording then fails with an error.
func New(cfg *config.Config, llm Completer, capture Capture, stt FileTranscriber) *Controller {
	return &Controller{
		llm:         llm,
		capture:     capture,
		stt:         stt,
		sink:        nopSink{},
		models:      cfg.LLM.Models,
		sizes:       cfg.Transcribe.Sizes,
		fonts:       cfg.UI.Fonts,
		whisperSize: cfg.Transcribe.ModelSize,
		fontFamily:  cfg.UI.FontFamily,
		fontSize:    cfg.UI.FontSize,
		writeWAV:    audio.WriteWAV,
	}
}

// SetSink attaches the display. It must be called before any other method.
func (c *Controller) SetSink(s Sink) {
	if s == nil {
		s = nopSink{}
	}
	c.sink = s
}

// SetTempDir sets where recordings are written before transcription.
// Empty uses the OS temp dir.
func (c *Controller) SetTempDir(dir string) {
	c.tempDir = dir
}

// ModelChoices returns the models offered in the model selector: those the
// runtime reports when it can list them, otherwise the configured list. The
// current model is always included.
func (c *Controller) ModelChoices(ctx context.Context) []string {
	choices := c.models
	if lister, ok := c.llm.(ModelLister); ok {
		if names, err := lister.Models(ctx); err != nil {
			log.Warnf("listing runtime models: %v", err)
		} else if len(names) > 0 {
			choices = names
		}
	}
	if current := c.llm.Model(); !slices.Contains(choices, current) {
		choices = append([]string{current}, choices...)
	}
	return choices
}

// WhisperSizes returns the selectable whisper size tiers.
func (c *Controller) WhisperSizes() []string { return c.sizes }

// Fonts returns the selectable font families.
func (c *Controller) Fonts() []string { return c.fonts }

// Model returns the model the next request will use.
func (c *Controller) Model() string { return c.llm.Model() }

// SelectModel switches the model used by the next request.
func (c *Controller) SelectModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyModelName
	}
	c.llm.SetModel(name)
	log.Infof("model selected: %s", name)
	return nil
}

// WhisperSize returns the selected whisper size tier.
func (c *Controller) WhisperSize() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.whisperSize
}

// SelectWhisperSize switches the whisper model used by the next recording.
func (c *Controller) SelectWhisperSize(size string) error {
	if !slices.Contains(c.sizes, size) {
		return fmt.Errorf("%w %q", ErrUnknownModelSize, size)
	}
	if _, err := models.Lookup(size); err != nil {
		return fmt.Errorf("%w %q", ErrUnknownModelSize, size)
	}
	c.mu.Lock()
	c.whisperSize = size
	c.mu.Unlock()
	log.Infof("whisper size selected: %s", size)
	return nil
}

// Font returns the current font family and size.
func (c *Controller) Font() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fontFamily, c.fontSize
}

// SetFont validates and applies a font family and size to the display.
func (c *Controller) SetFont(family string, size int) error {
	if !slices.Contains(c.fonts, family) {
		return fmt.Errorf("%w %q", ErrUnknownFont, family)
	}
	if size < config.MinFontSize || size > config.MaxFontSize {
		return fmt.Errorf("%w: %d not in %d..%d", ErrFontSizeRange, size, config.MinFontSize, config.MaxFontSize)
	}
	c.mu.Lock()
	c.fontFamily, c.fontSize = family, size
	c.mu.Unlock()
	c.sink.FontChanged(family, size)
	return nil
}

// LastResponse returns the most recent formatted response.
func (c *Controller) LastResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponse
}

// Prompts returns how many prompts were answered this session.
func (c *Controller) Prompts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompts
}

// Submit sends prompt to the LLM and delivers the formatted answer to the
// sink. A blank prompt is a no-op. LLM errors are reported to the sink and
// returned.
func (c *Controller) Submit(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}

	id := uuid.NewString()
	model := c.llm.Model()
	c.sink.Busy("Generating response...")
	log.Prompt(id, model, prompt)

	start := time.Now()
	raw, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		log.Errorf("request %s to %s failed: %v", id, model, err)
		c.sink.Error(err)
		return err
	}
	log.Response(id, model, time.Since(start), raw)

	text := FormatResponse(raw)
	c.mu.Lock()
	c.lastResponse = text
	c.prompts++
	c.mu.Unlock()

	c.sink.Response(text)
	return nil
}

// IsRecording reports whether microphone capture is active.
func (c *Controller) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// StartRecording begins collecting microphone audio.
func (c *Controller) StartRecording() error {
	if c.capture == nil {
		c.fail("recording", ErrNoDevice)
		return ErrNoDevice
	}
	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.recording = true
	c.mu.Unlock()

	if err := c.capture.Start(); err != nil {
		c.mu.Lock()
		c.recording = false
		c.mu.Unlock()
		log.Errorf("starting capture: %v", err)
		c.sink.Error(err)
		return err
	}
	log.Info("recording started")
	c.sink.Recording(true)
	return nil
}

// StopRecording ends capture, transcribes the audio with the selected
// whisper size, shows the transcript as the prompt and submits it.
// Transcription problems are reported to the sink and not returned; an
// error from the follow-up Submit is.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return ErrNotRecording
	}
	c.recording = false
	size := c.whisperSize
	c.mu.Unlock()

	samples := c.capture.Stop()
	c.sink.Recording(false)

	rate := c.capture.SampleRate()
	secs := audio.Duration(samples, rate)
	log.Infof("recording stopped: %d samples (%.2fs)", len(samples), secs)

	switch {
	case len(samples) == 0:
		c.fail("recording", ErrNoAudio)
		return nil
	case secs < MinRecording.Seconds():
		c.fail("recording", fmt.Errorf("%w (%.2fs), skipped", ErrTooShort, secs))
		return nil
	}

	c.sink.Busy("Transcribing...")
	text, err := c.transcribe(ctx, size, samples, rate)
	if err != nil {
		c.fail("transcription", err)
		return nil
	}
	log.Infof("transcribed: %q", text)

	c.sink.Prompt(text)
	return c.Submit(ctx, text)
}

// ToggleRecording starts a recording, or stops and submits the current one.
func (c *Controller) ToggleRecording(ctx context.Context) error {
	if c.IsRecording() {
		return c.StopRecording(ctx)
	}
	return c.StartRecording()
}

// transcribe writes samples to a temporary WAV and runs the file transcriber
// over it. The file is removed on every path.
func (c *Controller) transcribe(ctx context.Context, size string, samples []float32, rate uint32) (string, error) {
	f, err := os.CreateTemp(c.tempDir, "voxprompt-*.wav")
	if err != nil {
		return "", fmt.Errorf("app: create temp wav: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warnf("removing %s: %v", path, err)
		}
	}()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("app: close temp wav: %w", err)
	}

	if err := c.writeWAV(path, samples, int(rate)); err != nil {
		return "", err
	}
	return c.stt.TranscribeFile(ctx, size, path)
}

func (c *Controller) fail(stage string, err error) {
	log.Errorf("%s: %v", stage, err)
	c.sink.Error(err)
}
