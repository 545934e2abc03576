package transcribe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chaz8081/voxprompt/internal/audio"
	"github.com/chaz8081/voxprompt/internal/config"
)

const jfkReference = "And so, my fellow Americans, ask not what your country can do for you, ask what you can do for your country."

// whisperModelPath finds a base.en model in the user's models dir or the
// repo-local models/ dir, skipping the test when neither has one.
func whisperModelPath(t testing.TB) string {
	t.Helper()
	for _, dir := range []string{config.DefaultModelsDir(), filepath.Join("..", "..", "models")} {
		path := filepath.Join(dir, "ggml-base.en.bin")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("ggml-base.en.bin not found (run 'voxprompt -download-model base.en' first)")
	return ""
}

// jfkSamples loads the JFK sample shipped with the whisper.cpp submodule.
func jfkSamples(t testing.TB) []float32 {
	t.Helper()
	wavPath := filepath.Join("..", "..", "third_party", "whisper.cpp", "samples", "jfk.wav")
	if _, err := os.Stat(wavPath); err != nil {
		t.Skipf("WAV file not found at %s: %v", wavPath, err)
	}
	samples, rate, err := audio.ReadWAV(wavPath)
	if err != nil {
		t.Fatalf("ReadWAV(%s): %v", wavPath, err)
	}
	if rate != SampleRate {
		t.Fatalf("jfk.wav rate = %d, want %d", rate, SampleRate)
	}
	return samples
}

func TestNewWhisperTranscriber(t *testing.T) {
	path := whisperModelPath(t)

	tr, err := NewWhisperTranscriber(path, "")
	if err != nil {
		t.Fatalf("NewWhisperTranscriber(%q) returned error: %v", path, err)
	}
	if tr == nil {
		t.Fatal("NewWhisperTranscriber returned nil without error")
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
}

func TestNewWhisperTranscriberBadPath(t *testing.T) {
	_, err := NewWhisperTranscriber("/nonexistent/model.bin", "")
	if err == nil {
		t.Fatal("NewWhisperTranscriber with bad path should return error")
	}
}

func TestWhisperProcessJFK(t *testing.T) {
	path := whisperModelPath(t)
	samples := jfkSamples(t)

	tr, err := NewWhisperTranscriber(path, "en")
	if err != nil {
		t.Fatalf("NewWhisperTranscriber: %v", err)
	}
	defer func() { _ = tr.Close() }()

	text, err := tr.Process(samples)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	lower := strings.ToLower(text)
	if !strings.Contains(lower, "ask not what your country") {
		t.Errorf("expected transcript to contain 'ask not what your country', got: %q", text)
	}
	if r := ComputeWER(jfkReference, text); r.WER > 0.2 {
		t.Errorf("JFK transcript %s", r)
	}
}

func TestWhisperProcessSilence(t *testing.T) {
	path := whisperModelPath(t)

	tr, err := NewWhisperTranscriber(path, "")
	if err != nil {
		t.Fatalf("NewWhisperTranscriber: %v", err)
	}
	defer func() { _ = tr.Close() }()

	// Silence should not error, just return empty-ish text.
	if _, err := tr.Process(make([]float32, SampleRate)); err != nil {
		t.Fatalf("Process on silence returned error: %v", err)
	}
}

func BenchmarkWhisperProcess(b *testing.B) {
	modelPath := whisperModelPath(b)
	samples := jfkSamples(b)

	tr, err := NewWhisperTranscriber(modelPath, "en")
	if err != nil {
		b.Fatalf("NewWhisperTranscriber: %v", err)
	}
	defer func() { _ = tr.Close() }()

	durationS := audio.Duration(samples, SampleRate)
	b.ReportMetric(durationS*1000, "audio-ms")

	// Warm up outside the timed loop.
	_, _ = tr.Process(samples)

	var lastText string
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		text, err := tr.Process(samples)
		if err != nil {
			b.Fatalf("Process: %v", err)
		}
		lastText = text
	}
	b.StopTimer()

	rtf := (b.Elapsed().Seconds() / float64(b.N)) / durationS
	b.ReportMetric(rtf, "rtf")
	b.ReportMetric(ComputeWER(jfkReference, lastText).WER, "wer")
}
