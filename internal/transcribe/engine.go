package transcribe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chaz8081/voxprompt/internal/audio"
	"github.com/chaz8081/voxprompt/internal/config"
	"github.com/chaz8081/voxprompt/internal/log"
	"github.com/chaz8081/voxprompt/internal/models"
)

// SampleRate is the only input rate whisper.cpp accepts.
const SampleRate = config.CaptureSampleRate

// Loader opens a Transcriber for the model file at modelPath.
type Loader func(modelPath string) (Transcriber, error)

// Engine transcribes WAV files with the whisper model of a given size tier.
// The model is loaded for each request and released afterwards.
type Engine struct {
	modelsDir    string
	autoDownload bool
	progress     io.Writer
	load         Loader
}

// NewEngine creates an Engine backed by whisper.cpp. Download progress for
// missing models is written to progress (may be nil).
func NewEngine(cfg config.TranscribeConfig, progress io.Writer) *Engine {
	language := cfg.Language
	return &Engine{
		modelsDir:    cfg.ModelsDir,
		autoDownload: cfg.AutoDownload,
		progress:     progress,
		load: func(modelPath string) (Transcriber, error) {
			return NewWhisperTranscriber(modelPath, language)
		},
	}
}

// ModelPath returns the model file for size, downloading it when allowed.
func (e *Engine) ModelPath(ctx context.Context, size string) (string, error) {
	return models.Ensure(ctx, e.modelsDir, size, e.autoDownload, e.progress)
}

// TranscribeFile runs the whisper model for size over a 16 kHz WAV file and
// returns the trimmed transcript.
func (e *Engine) TranscribeFile(ctx context.Context, size, wavPath string) (string, error) {
	samples, rate, err := audio.ReadWAV(wavPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if rate != SampleRate {
		return "", fmt.Errorf("transcribe: %s is %d Hz, whisper needs %d Hz", wavPath, rate, SampleRate)
	}

	modelPath, err := e.ModelPath(ctx, size)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t, err := e.load(modelPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = t.Close() }()

	start := time.Now()
	text, err := t.Process(samples)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	log.Transcription(size, audio.Duration(samples, SampleRate), time.Since(start), text)
	return text, nil
}
