package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageCommandSavesFile(t *testing.T) {
	srv, rec := newCommandServer(t)
	h := newHarness(t, srv)
	out := filepath.Join(t.TempDir(), "fox.png")

	err := h.run("image", "--prompt", "a low poly fox", "--output", out,
		"--width", "512", "--height", "512", "--nologo")
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(data, []byte{0x89, 'P', 'N', 'G'}) {
		t.Errorf("saved bytes = %v, want the served PNG bytes", data)
	}
	if !strings.Contains(h.stdout.String(), "Saved "+out) {
		t.Errorf("stdout = %q, want it to report the saved file", h.stdout.String())
	}

	got := rec.snapshot()
	if got.path != "/prompt/a low poly fox" {
		t.Errorf("request path = %q, want %q", got.path, "/prompt/a low poly fox")
	}
	if got.query.Get("width") != "512" || got.query.Get("height") != "512" {
		t.Errorf("size = %sx%s, want 512x512", got.query.Get("width"), got.query.Get("height"))
	}
	if got.query.Get("nologo") != "true" {
		t.Errorf("nologo = %q, want %q", got.query.Get("nologo"), "true")
	}
}

func TestImageCommandJSONOutput(t *testing.T) {
	srv, _ := newCommandServer(t)
	h := newHarness(t, srv)
	out := filepath.Join(t.TempDir(), "fox.png")

	if err := h.run("image", "--prompt", "a fox", "--output", out, "--json"); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var result struct {
		File        string `json:"file"`
		Bytes       int    `json:"bytes"`
		ContentType string `json:"content_type"`
	}
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
	if result.File != out {
		t.Errorf("file = %q, want %q", result.File, out)
	}
	if result.Bytes != 4 {
		t.Errorf("bytes = %d, want 4", result.Bytes)
	}
	if result.ContentType != "image/png" {
		t.Errorf("content_type = %q, want %q", result.ContentType, "image/png")
	}
}

func TestImageCommandRequiresFlags(t *testing.T) {
	srv, _ := newCommandServer(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing prompt", []string{"image", "--output", "x.png"}, "prompt"},
		{"missing output", []string{"image", "--prompt", "a fox"}, "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, srv)
			err := h.run(tt.args...)
			if err == nil {
				t.Fatal("run() error = nil, want a required-flag error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to name %q", err, tt.want)
			}
		})
	}
}
