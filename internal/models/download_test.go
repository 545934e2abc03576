package models

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		size     string
		wantFile string
		wantErr  bool
	}{
		{"tiny", "ggml-tiny.bin", false},
		{"base", "ggml-base.bin", false},
		{"base.en", "ggml-base.en.bin", false},
		{"small", "ggml-small.bin", false},
		{"medium", "ggml-medium.bin", false},
		{"large", "ggml-large-v3.bin", false},
		{"huge", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			m, err := Lookup(tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup(%q) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownSize) {
					t.Errorf("Lookup(%q) error = %v, want ErrUnknownSize", tt.size, err)
				}
				return
			}
			if m.FileName != tt.wantFile {
				t.Errorf("Lookup(%q).FileName = %q, want %q", tt.size, m.FileName, tt.wantFile)
			}
		})
	}
}

func TestSizesCoverDefaults(t *testing.T) {
	sizes := strings.Join(Sizes(), ",")
	for _, s := range []string{"tiny", "base", "small", "medium", "large"} {
		if !strings.Contains(","+sizes+",", ","+s+",") {
			t.Errorf("Sizes() missing %q", s)
		}
	}
}

func TestPathAndExists(t *testing.T) {
	dir := t.TempDir()

	path, err := Path(dir, "base")
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if path != filepath.Join(dir, "ggml-base.bin") {
		t.Errorf("Path() = %q", path)
	}

	if Exists(dir, "base") {
		t.Error("Exists() = true before the file is created")
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(dir, "base") {
		t.Error("Exists() = false after the file is created")
	}
	if Exists(dir, "huge") {
		t.Error("Exists() = true for unknown size")
	}
}

func fakeHub(t *testing.T, body string) *atomic.Int32 {
	t.Helper()
	hits := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/ggml-tiny.bin" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	old := BaseURL
	BaseURL = srv.URL
	t.Cleanup(func() { BaseURL = old })
	return hits
}

func TestDownload(t *testing.T) {
	hits := fakeHub(t, "model-bytes")
	dir := t.TempDir()

	var progress bytes.Buffer
	path, err := Download(context.Background(), dir, "tiny", &progress)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading model: %v", err)
	}
	if string(got) != "model-bytes" {
		t.Errorf("model content = %q", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
	if !strings.Contains(progress.String(), "ggml-tiny.bin") {
		t.Errorf("progress output = %q", progress.String())
	}

	// Second call is a no-op.
	if _, err := Download(context.Background(), dir, "tiny", nil); err != nil {
		t.Fatalf("second Download() error = %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	fakeHub(t, "")
	dir := t.TempDir()

	// base is not served by the fake hub.
	if _, err := Download(context.Background(), dir, "base", nil); err == nil {
		t.Fatal("Download() should fail on HTTP 404")
	}
	if Exists(dir, "base") {
		t.Error("failed download left a model file")
	}
}

func TestEnsure(t *testing.T) {
	fakeHub(t, "model-bytes")
	dir := t.TempDir()

	if _, err := Ensure(context.Background(), dir, "tiny", false, nil); err == nil {
		t.Error("Ensure() without download should fail for a missing model")
	}

	path, err := Ensure(context.Background(), dir, "tiny", true, nil)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if path != filepath.Join(dir, "ggml-tiny.bin") {
		t.Errorf("Ensure() = %q", path)
	}

	if _, err := Ensure(context.Background(), dir, "huge", true, nil); !errors.Is(err, ErrUnknownSize) {
		t.Errorf("Ensure(huge) error = %v, want ErrUnknownSize", err)
	}
}

func TestProgressWriter(t *testing.T) {
	tmpDir := t.TempDir()
	f, err := os.Create(filepath.Join(tmpDir, "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	var out bytes.Buffer
	pw := &progressWriter{
		writer: f,
		out:    &out,
		total:  100,
		label:  "test",
	}

	data := make([]byte, 50)
	n, err := pw.Write(data)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 50 {
		t.Errorf("Write() n = %d, want 50", n)
	}
	if pw.written != 50 {
		t.Errorf("written = %d, want 50", pw.written)
	}
	if !strings.Contains(out.String(), "(50%)") {
		t.Errorf("progress = %q, want 50%%", out.String())
	}
}
