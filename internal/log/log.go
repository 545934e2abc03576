// Package log writes voxprompt's diagnostic log and the prompt history log.
// All functions are no-ops until Init succeeds.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog    zerolog.Logger = zerolog.Nop()
	diagFile   *os.File
	promptFile *os.File
	logMu      sync.Mutex
	logReady   bool
	pid        int
	dir        string
)

// ResolveDir picks the log directory: the -logpath flag first, then
// VOXPROMPT_LOG_PATH, then the OS default. Relative paths are resolved
// against the working directory.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv("VOXPROMPT_LOG_PATH")} {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			return p, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, p), nil
	}
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// Init opens diagnostics_log.txt and prompt_log.txt in Dir. When echo is
// non-nil, diagnostics are also written there in console format.
func Init(level zerolog.Level, echo io.Writer) error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	promptFile, err = os.OpenFile(filepath.Join(dir, "prompt_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		diagFile = nil
		return err
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	if echo != nil {
		out = zerolog.MultiLevelWriter(out, zerolog.ConsoleWriter{Out: echo, TimeFormat: "15:04:05"})
	}
	diagLog = zerolog.New(out).Level(level).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if promptFile != nil {
		promptFile.Close()
		promptFile = nil
	}
	diagLog = zerolog.Nop()
	logReady = false
}

// current returns a copy of the diagnostics logger taken under logMu, and
// whether Init has run.
func current() (zerolog.Logger, bool) {
	logMu.Lock()
	defer logMu.Unlock()
	return diagLog, logReady
}

func Debugf(format string, args ...any) {
	if l, ok := current(); ok {
		l.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if l, ok := current(); ok {
		l.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if l, ok := current(); ok {
		l.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if l, ok := current(); ok {
		l.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if l, ok := current(); ok {
		l.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if l, ok := current(); ok {
		l.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if l, ok := current(); ok {
		l.Error().Msg(fmt.Sprintf(format, args...))
	}
}

// Prompt records an outgoing prompt in both logs.
func Prompt(requestID, model, prompt string) {
	l, ok := current()
	if !ok {
		return
	}
	l.Info().
		Str("request_id", requestID).
		Str("model", model).
		Int("prompt_chars", len(prompt)).
		Msg("prompt")
	writePromptLine(requestID, "prompt", model, prompt)
}

// Response records a completion in both logs.
func Response(requestID, model string, elapsed time.Duration, text string) {
	l, ok := current()
	if !ok {
		return
	}
	l.Info().
		Str("request_id", requestID).
		Str("model", model).
		Float64("elapsed_ms", float64(elapsed.Milliseconds())).
		Int("response_chars", len(text)).
		Msg("response")
	writePromptLine(requestID, "response", model, text)
}

// Transcription records a finished speech-to-text run.
func Transcription(size string, audioS float64, elapsed time.Duration, text string) {
	l, ok := current()
	if !ok {
		return
	}
	l.Info().
		Str("whisper_size", size).
		Float64("audio_s", audioS).
		Float64("elapsed_ms", float64(elapsed.Milliseconds())).
		Int("chars", len(text)).
		Msg("transcription")
}

func SessionStart(model, whisperSize, ui string) {
	l, ok := current()
	if !ok {
		return
	}
	l.Info().
		Str("model", model).
		Str("whisper_size", whisperSize).
		Str("ui", ui).
		Msg("session_start")
}

func SessionEnd(prompts int) {
	l, ok := current()
	if !ok {
		return
	}
	l.Info().
		Int("prompts", prompts).
		Msg("session_end")
}

// promptEscaper keeps each prompt log entry on one line with exactly six
// tab-separated fields.
var promptEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// writePromptLine appends "time\t[pid]\tid\tkind\tmodel\ttext" with text
// escaped by promptEscaper.
func writePromptLine(requestID, kind, model, text string) {
	logMu.Lock()
	defer logMu.Unlock()
	if promptFile == nil {
		return
	}
	text = promptEscaper.Replace(text)
	line := fmt.Sprintf("%s\t[%d]\t%s\t%s\t%s\t%s\n",
		time.Now().Format("2006-01-02 15:04:05"), pid, requestID, kind, model, text)
	promptFile.WriteString(line)
}
