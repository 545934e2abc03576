// Package models resolves whisper.cpp model files by size tier and
// downloads missing ones from HuggingFace.
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ErrUnknownSize is returned for a size tier with no known model file.
var ErrUnknownSize = errors.New("models: unknown whisper size")

// Model describes one downloadable whisper.cpp model.
type Model struct {
	Size     string
	FileName string
	ApproxMB int
}

var known = []Model{
	{Size: "tiny", FileName: "ggml-tiny.bin", ApproxMB: 75},
	{Size: "tiny.en", FileName: "ggml-tiny.en.bin", ApproxMB: 75},
	{Size: "base", FileName: "ggml-base.bin", ApproxMB: 142},
	{Size: "base.en", FileName: "ggml-base.en.bin", ApproxMB: 142},
	{Size: "small", FileName: "ggml-small.bin", ApproxMB: 466},
	{Size: "small.en", FileName: "ggml-small.en.bin", ApproxMB: 466},
	{Size: "medium", FileName: "ggml-medium.bin", ApproxMB: 1500},
	{Size: "medium.en", FileName: "ggml-medium.en.bin", ApproxMB: 1500},
	{Size: "large", FileName: "ggml-large-v3.bin", ApproxMB: 2900},
}

// BaseURL is where model files are fetched from. Tests point it at a local server.
var BaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Lookup returns the model for a size tier.
func Lookup(size string) (Model, error) {
	for _, m := range known {
		if m.Size == size {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w %q", ErrUnknownSize, size)
}

// Sizes lists every known size tier.
func Sizes() []string {
	sizes := make([]string, len(known))
	for i, m := range known {
		sizes[i] = m.Size
	}
	return sizes
}

// Path returns where the model file for size lives inside dir.
func Path(dir, size string) (string, error) {
	m, err := Lookup(size)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, m.FileName), nil
}

// Exists reports whether a non-empty model file for size is present in dir.
func Exists(dir, size string) bool {
	path, err := Path(dir, size)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// Ensure returns the model path for size, downloading it first when it is
// missing and download is true. Progress is written to progress (may be nil).
func Ensure(ctx context.Context, dir, size string, download bool, progress io.Writer) (string, error) {
	path, err := Path(dir, size)
	if err != nil {
		return "", err
	}
	if Exists(dir, size) {
		return path, nil
	}
	if !download {
		return "", fmt.Errorf("models: whisper %q model not found at %s (run with -download-model %s)", size, path, size)
	}
	return Download(ctx, dir, size, progress)
}

// Download fetches the model file for size into dir and returns its path.
// An existing non-empty file is left alone.
func Download(ctx context.Context, dir, size string, progress io.Writer) (string, error) {
	m, err := Lookup(size)
	if err != nil {
		return "", err
	}
	if progress == nil {
		progress = io.Discard
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("models: creating models dir: %w", err)
	}

	destPath := filepath.Join(dir, m.FileName)

	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Fprintf(progress, "  Whisper model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return destPath, nil
	}

	url := BaseURL + "/" + m.FileName
	fmt.Fprintf(progress, "  Downloading whisper %s model (~%d MB)...\n", m.Size, m.ApproxMB)
	fmt.Fprintf(progress, "  URL: %s\n", url)
	fmt.Fprintf(progress, "  Destination: %s\n", destPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("models: building request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("models: downloading whisper model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("models: download failed: HTTP %d", resp.StatusCode)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("models: creating temp file: %w", err)
	}

	pr := &progressWriter{
		writer: f,
		out:    progress,
		total:  resp.ContentLength,
		label:  m.FileName,
	}

	written, err := io.Copy(pr, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: writing model file: %w", err)
	}

	fmt.Fprintf(progress, "\n  Downloaded %.1f MB\n", float64(written)/(1024*1024))

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: moving model file: %w", err)
	}

	return destPath, nil
}

// progressWriter wraps an io.Writer and prints download progress to out.
type progressWriter struct {
	writer  io.Writer
	out     io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}
