package bloom

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/sched"
	"github.com/petal-labs/bloom/services/audio"
	"github.com/petal-labs/bloom/services/image"
	"github.com/petal-labs/bloom/services/text"
)

// newFacadeServer serves all three service surfaces from one host: image
// generations under /prompt/, model and voice listings, and the text
// endpoint as the catch-all with audio picked out by its voice parameter.
func newFacadeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `["alpha","beta"]`)
	})
	mux.HandleFunc("/voices", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `["alloy","echo"]`)
	})
	mux.HandleFunc("/prompt/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Has("voice"):
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("audio-bytes"))
		case q.Get("stream") == "true":
			w.Header().Set("Content-Type", "text/event-stream")
			io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"streamed\"}}]}\n\n")
			io.WriteString(w, "data: [DONE]\n\n")
		default:
			io.WriteString(w, "generated text")
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFacadeClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	srv := newFacadeServer(t)
	c, err := New(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewProvidesServiceClients(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if c.Image() == nil {
		t.Error("Image() = nil")
	}
	if c.Text() == nil {
		t.Error("Text() = nil")
	}
	if c.Audio() == nil {
		t.Error("Audio() = nil")
	}
}

func TestNewFromEnvMissingToken(t *testing.T) {
	t.Setenv(DefaultTokenEnvVar, "")

	_, err := NewFromEnv()
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("NewFromEnv() error = %v, want %v", err, ErrTokenNotFound)
	}
}

func TestNewFromEnvSendsToken(t *testing.T) {
	var mu sync.Mutex
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	t.Setenv(DefaultTokenEnvVar, "pk-env-token")

	c, err := NewFromEnv(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}
	defer c.Close()

	if _, err := c.GenerateText(context.Background(), &text.Request{Prompt: "hi"}); err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if auth != "Bearer pk-env-token" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer pk-env-token")
	}
}

func TestGenerateTextOutsideScope(t *testing.T) {
	c := newFacadeClient(t)

	resp, err := c.GenerateText(context.Background(), &text.Request{Prompt: "write a haiku"})
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if resp.Text != "generated text" {
		t.Errorf("Text = %q, want %q", resp.Text, "generated text")
	}
}

func TestGenerateImageOutsideScope(t *testing.T) {
	c := newFacadeClient(t)

	img, err := c.GenerateImage(context.Background(), &image.Request{Prompt: "a sunset"})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if !bytes.Equal(img.Data, []byte{0xFF, 0xD8, 0xFF, 0xE0}) {
		t.Errorf("Data = %v, want the served JPEG bytes", img.Data)
	}
	if img.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want %q", img.ContentType, "image/jpeg")
	}
}

func TestGenerateAudioOutsideScope(t *testing.T) {
	c := newFacadeClient(t)

	speech, err := c.GenerateAudio(context.Background(), &audio.Request{Text: "hello there"})
	if err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}
	if string(speech.Data) != "audio-bytes" {
		t.Errorf("Data = %q, want %q", speech.Data, "audio-bytes")
	}
	if speech.ContentType != "audio/mpeg" {
		t.Errorf("ContentType = %q, want %q", speech.ContentType, "audio/mpeg")
	}
}

func TestStreamTextOutsideScope(t *testing.T) {
	c := newFacadeClient(t)

	stream, err := c.StreamText(context.Background(), &text.Request{Prompt: "count to three"})
	if err != nil {
		t.Fatalf("StreamText() error = %v", err)
	}
	got, err := stream.Text(context.Background())
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "streamed" {
		t.Errorf("Text() = %q, want %q", got, "streamed")
	}
}

func TestBlockingMethodsRefuseScopes(t *testing.T) {
	c := newFacadeClient(t)

	scope := sched.NewScope(context.Background())
	defer scope.Close()
	ctx := scope.Context()

	tests := []struct {
		name      string
		call      func() error
		wantAsync string
	}{
		{"GenerateImage", func() error {
			_, err := c.GenerateImage(ctx, &image.Request{Prompt: "x"})
			return err
		}, "GenerateImageAsync"},
		{"GenerateText", func() error {
			_, err := c.GenerateText(ctx, &text.Request{Prompt: "x"})
			return err
		}, "GenerateTextAsync"},
		{"StreamText", func() error {
			_, err := c.StreamText(ctx, &text.Request{Prompt: "x"})
			return err
		}, "StreamTextAsync"},
		{"Chat", func() error {
			_, err := c.Chat(ctx, &text.ChatRequest{})
			return err
		}, "ChatAsync"},
		{"ChatStream", func() error {
			_, err := c.ChatStream(ctx, &text.ChatRequest{})
			return err
		}, "ChatStreamAsync"},
		{"GenerateAudio", func() error {
			_, err := c.GenerateAudio(ctx, &audio.Request{Text: "x"})
			return err
		}, "GenerateAudioAsync"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, core.ErrInvalidInvocationContext) {
				t.Fatalf("error = %v, want %v", err, core.ErrInvalidInvocationContext)
			}
			var coreErr *core.Error
			if !errors.As(err, &coreErr) {
				t.Fatalf("error = %v, want a *core.Error", err)
			}
			if !strings.Contains(coreErr.Suggestion, tt.wantAsync) {
				t.Errorf("Suggestion = %q, want it to name %s", coreErr.Suggestion, tt.wantAsync)
			}
		})
	}
}

func TestAsyncMethodsRequireScope(t *testing.T) {
	c := newFacadeClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"GenerateImageAsync", func() error {
			_, err := c.GenerateImageAsync(ctx, &image.Request{Prompt: "x"})
			return err
		}},
		{"GenerateTextAsync", func() error {
			_, err := c.GenerateTextAsync(ctx, &text.Request{Prompt: "x"})
			return err
		}},
		{"StreamTextAsync", func() error {
			_, err := c.StreamTextAsync(ctx, &text.Request{Prompt: "x"})
			return err
		}},
		{"ChatAsync", func() error {
			_, err := c.ChatAsync(ctx, &text.ChatRequest{})
			return err
		}},
		{"ChatStreamAsync", func() error {
			_, err := c.ChatStreamAsync(ctx, &text.ChatRequest{})
			return err
		}},
		{"GenerateAudioAsync", func() error {
			_, err := c.GenerateAudioAsync(ctx, &audio.Request{Text: "x"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, sched.ErrNotInScope) {
				t.Errorf("error = %v, want %v", err, sched.ErrNotInScope)
			}
		})
	}
}

func TestGenerateTextAsyncInsideScope(t *testing.T) {
	c := newFacadeClient(t)

	scope := sched.NewScope(context.Background())
	defer scope.Close()

	task, err := c.GenerateTextAsync(scope.Context(), &text.Request{Prompt: "write a haiku"})
	if err != nil {
		t.Fatalf("GenerateTextAsync() error = %v", err)
	}
	resp, err := task.Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if resp.Text != "generated text" {
		t.Errorf("Text = %q, want %q", resp.Text, "generated text")
	}
}

func TestStreamTextAsyncInsideScope(t *testing.T) {
	c := newFacadeClient(t)

	scope := sched.NewScope(context.Background())
	defer scope.Close()

	task, err := c.StreamTextAsync(scope.Context(), &text.Request{Prompt: "count to three"})
	if err != nil {
		t.Fatalf("StreamTextAsync() error = %v", err)
	}
	stream, err := task.Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	got, err := stream.Text(context.Background())
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "streamed" {
		t.Errorf("Text() = %q, want %q", got, "streamed")
	}
}

func TestGenerateImageAsyncInsideScope(t *testing.T) {
	c := newFacadeClient(t)

	scope := sched.NewScope(context.Background())
	defer scope.Close()

	task, err := c.GenerateImageAsync(scope.Context(), &image.Request{Prompt: "a sunset"})
	if err != nil {
		t.Fatalf("GenerateImageAsync() error = %v", err)
	}
	img, err := task.Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if img.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want %q", img.ContentType, "image/jpeg")
	}
}

func TestModelsWorksInBothContexts(t *testing.T) {
	c := newFacadeClient(t)

	names, err := c.Models(context.Background(), FamilyText)
	if err != nil {
		t.Fatalf("Models(text) error = %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Models(text) = %v, want [alpha beta]", names)
	}

	scope := sched.NewScope(context.Background())
	defer scope.Close()

	names, err = c.Models(scope.Context(), FamilyImage)
	if err != nil {
		t.Fatalf("Models(image) in scope error = %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Models(image) in scope = %v, want [alpha beta]", names)
	}
}

func TestVoices(t *testing.T) {
	c := newFacadeClient(t)

	names, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices() error = %v", err)
	}
	if len(names) != 2 || names[0] != "alloy" || names[1] != "echo" {
		t.Errorf("Voices() = %v, want [alloy echo]", names)
	}
}

func TestImageURLWorksInsideScope(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	scope := sched.NewScope(context.Background())
	defer scope.Close()

	// URL building never touches the wire, so it is exempt from the
	// blocking guard.
	u, err := c.ImageURL(&image.Request{Prompt: "a sunset"})
	if err != nil {
		t.Fatalf("ImageURL() error = %v", err)
	}
	if !strings.Contains(u, "/prompt/a%20sunset") {
		t.Errorf("ImageURL() = %q, want it to contain the escaped prompt", u)
	}
}

func TestCloseReleasesBlockingPool(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	_, err = c.GenerateText(context.Background(), &text.Request{Prompt: "hi"})
	if !errors.Is(err, core.ErrPoolClosed) {
		t.Errorf("GenerateText() after Close error = %v, want %v", err, core.ErrPoolClosed)
	}
}
