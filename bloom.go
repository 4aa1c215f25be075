package bloom

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/sched"
	"github.com/petal-labs/bloom/services/audio"
	"github.com/petal-labs/bloom/services/image"
	"github.com/petal-labs/bloom/services/text"
)

// DefaultTokenEnvVar is the environment variable NewFromEnv reads the API
// token from.
const DefaultTokenEnvVar = "BLOOM_API_TOKEN"

// ErrTokenNotFound is returned by NewFromEnv when the token variable is
// unset or empty.
var ErrTokenNotFound = errors.New("bloom: BLOOM_API_TOKEN environment variable not set")

// Client is the entry point for the Pollinations generation services. It
// owns two executors: a pooled blocking one for standalone calls, and a
// scope-aware one whose sessions come from the scope carried on the
// context. Blocking methods refuse to run inside a scope; the Async
// variants require one.
type Client struct {
	cfg      Config
	blocking *core.BlockingExecutor
	scoped   *sched.Executor
	registry *Registry

	images *image.Client
	texts  *text.Client
	audios *audio.Client

	imagesAsync *image.Client
	textsAsync  *text.Client
	audiosAsync *audio.Client
}

// New creates a Client. Without options it serves anonymous requests
// against the public endpoints.
func New(opts ...Option) (*Client, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	coreCfg := core.Config{
		Token:        cfg.Token,
		ImageBaseURL: cfg.ImageBaseURL,
		TextBaseURL:  cfg.TextBaseURL,
		AudioBaseURL: cfg.AudioBaseURL,
		Timeout:      cfg.Timeout,
		Retry:        cfg.Retry,
		Logger:       cfg.Logger,
		Telemetry:    cfg.Telemetry,
	}

	c := &Client{
		cfg:      cfg,
		blocking: core.NewBlockingExecutor(coreCfg),
		scoped:   sched.NewExecutor(coreCfg),
	}

	imageOpts := serviceOpts(cfg.ImageBaseURL, cfg, image.WithBaseURL, image.WithTimeout)
	textOpts := serviceOpts(cfg.TextBaseURL, cfg, text.WithBaseURL, text.WithTimeout)
	audioOpts := serviceOpts(cfg.AudioBaseURL, cfg, audio.WithBaseURL, audio.WithTimeout)

	imageOpts = append(imageOpts, cfg.imageOpts...)
	textOpts = append(textOpts, cfg.textOpts...)
	audioOpts = append(audioOpts, cfg.audioOpts...)

	c.images = image.New(c.blocking, imageOpts...)
	c.texts = text.New(c.blocking, textOpts...)
	c.audios = audio.New(c.blocking, audioOpts...)

	c.imagesAsync = image.New(c.scoped, imageOpts...)
	c.textsAsync = text.New(c.scoped, textOpts...)
	c.audiosAsync = audio.New(c.scoped, audioOpts...)

	registry, err := NewRegistry(cfg.CacheTTL, cfg.Logger)
	if err != nil {
		return nil, err
	}
	registry.Register(FamilyImage, c.dualFetcher(c.images.Models, c.imagesAsync.Models), image.DefaultModels)
	registry.Register(FamilyText, c.dualFetcher(c.texts.Models, c.textsAsync.Models), text.DefaultModels)
	registry.Register(FamilyVoices, c.dualFetcher(c.audios.Voices, c.audiosAsync.Voices), audio.DefaultVoices)
	c.registry = registry

	return c, nil
}

// NewFromEnv creates a Client with the token from BLOOM_API_TOKEN. Later
// options may still override it.
func NewFromEnv(opts ...Option) (*Client, error) {
	token := os.Getenv(DefaultTokenEnvVar)
	if token == "" {
		return nil, ErrTokenNotFound
	}
	return New(append([]Option{WithToken(token)}, opts...)...)
}

// Close releases the blocking session pool and the inventory cache. Scoped
// sessions are owned by their scopes and are unaffected.
func (c *Client) Close() error {
	err := c.blocking.Close()
	if cerr := c.registry.Close(); err == nil {
		err = cerr
	}
	return err
}

// Image returns the blocking image client.
func (c *Client) Image() *image.Client {
	return c.images
}

// Text returns the blocking text client.
func (c *Client) Text() *text.Client {
	return c.texts
}

// Audio returns the blocking audio client.
func (c *Client) Audio() *audio.Client {
	return c.audios
}

// GenerateImage renders an image for the prompt.
func (c *Client) GenerateImage(ctx context.Context, req *image.Request) (*image.Image, error) {
	if err := blockingGuard(ctx, "image", "GenerateImageAsync"); err != nil {
		return nil, err
	}
	return c.images.Generate(ctx, req)
}

// ImageURL returns the generation URL for the prompt without fetching it.
func (c *Client) ImageURL(req *image.Request) (string, error) {
	return c.images.URL(req)
}

// GenerateText completes the prompt and returns the full response.
func (c *Client) GenerateText(ctx context.Context, req *text.Request) (*text.Response, error) {
	if err := blockingGuard(ctx, "text", "GenerateTextAsync"); err != nil {
		return nil, err
	}
	return c.texts.Generate(ctx, req)
}

// StreamText completes the prompt as a stream of content events.
func (c *Client) StreamText(ctx context.Context, req *text.Request) (*core.Stream, error) {
	if err := blockingGuard(ctx, "text", "StreamTextAsync"); err != nil {
		return nil, err
	}
	return c.texts.Stream(ctx, req)
}

// Chat sends a multi-turn conversation and returns the reply.
func (c *Client) Chat(ctx context.Context, req *text.ChatRequest) (*text.Response, error) {
	if err := blockingGuard(ctx, "text", "ChatAsync"); err != nil {
		return nil, err
	}
	return c.texts.Chat(ctx, req)
}

// ChatStream sends a multi-turn conversation and streams the reply.
func (c *Client) ChatStream(ctx context.Context, req *text.ChatRequest) (*core.Stream, error) {
	if err := blockingGuard(ctx, "text", "ChatStreamAsync"); err != nil {
		return nil, err
	}
	return c.texts.ChatStream(ctx, req)
}

// GenerateAudio synthesizes speech for the text.
func (c *Client) GenerateAudio(ctx context.Context, req *audio.Request) (*audio.Audio, error) {
	if err := blockingGuard(ctx, "audio", "GenerateAudioAsync"); err != nil {
		return nil, err
	}
	return c.audios.Generate(ctx, req)
}

// GenerateImageAsync submits an image generation to the scope on ctx.
func (c *Client) GenerateImageAsync(ctx context.Context, req *image.Request) (*sched.Task[*image.Image], error) {
	return submit(ctx, func(ctx context.Context) (*image.Image, error) {
		return c.imagesAsync.Generate(ctx, req)
	})
}

// GenerateTextAsync submits a text completion to the scope on ctx.
func (c *Client) GenerateTextAsync(ctx context.Context, req *text.Request) (*sched.Task[*text.Response], error) {
	return submit(ctx, func(ctx context.Context) (*text.Response, error) {
		return c.textsAsync.Generate(ctx, req)
	})
}

// StreamTextAsync submits a streaming completion to the scope on ctx. The
// task resolves once the stream is established; events are consumed from
// the returned stream as usual.
func (c *Client) StreamTextAsync(ctx context.Context, req *text.Request) (*sched.Task[*core.Stream], error) {
	return submit(ctx, func(ctx context.Context) (*core.Stream, error) {
		return c.textsAsync.Stream(ctx, req)
	})
}

// ChatAsync submits a multi-turn conversation to the scope on ctx.
func (c *Client) ChatAsync(ctx context.Context, req *text.ChatRequest) (*sched.Task[*text.Response], error) {
	return submit(ctx, func(ctx context.Context) (*text.Response, error) {
		return c.textsAsync.Chat(ctx, req)
	})
}

// ChatStreamAsync submits a streaming conversation to the scope on ctx.
func (c *Client) ChatStreamAsync(ctx context.Context, req *text.ChatRequest) (*sched.Task[*core.Stream], error) {
	return submit(ctx, func(ctx context.Context) (*core.Stream, error) {
		return c.textsAsync.ChatStream(ctx, req)
	})
}

// GenerateAudioAsync submits a speech synthesis to the scope on ctx.
func (c *Client) GenerateAudioAsync(ctx context.Context, req *audio.Request) (*sched.Task[*audio.Audio], error) {
	return submit(ctx, func(ctx context.Context) (*audio.Audio, error) {
		return c.audiosAsync.Generate(ctx, req)
	})
}

// Models returns the cached model inventory for a family. It works in both
// execution contexts.
func (c *Client) Models(ctx context.Context, family Family) ([]string, error) {
	return c.registry.List(ctx, family)
}

// Voices returns the cached voice inventory.
func (c *Client) Voices(ctx context.Context) ([]string, error) {
	return c.registry.List(ctx, FamilyVoices)
}

// dualFetcher picks the executor matching the calling context so inventory
// refreshes work both inside and outside scopes.
func (c *Client) dualFetcher(blocking, scoped Fetcher) Fetcher {
	return func(ctx context.Context) ([]string, error) {
		if sched.Running(ctx) {
			return scoped(ctx)
		}
		return blocking(ctx)
	}
}

// blockingGuard rejects blocking calls made inside an active scope, where
// they would tie up a task slot waiting on the wire.
func blockingGuard(ctx context.Context, service, async string) error {
	if !sched.Running(ctx) {
		return nil
	}
	return &core.Error{
		Service:    service,
		Message:    "blocking call inside an active scope",
		Suggestion: fmt.Sprintf("Use %s inside scopes.", async),
		Err:        core.ErrInvalidInvocationContext,
	}
}

// submit hands fn to the scope carried on ctx.
func submit[T any](ctx context.Context, fn func(context.Context) (T, error)) (*sched.Task[T], error) {
	scope := sched.FromContext(ctx)
	if scope == nil {
		return nil, sched.ErrNotInScope
	}
	return sched.Submit(scope, fn)
}

// serviceOpts translates root configuration into one service's options.
// User-supplied service options are appended afterwards and win.
func serviceOpts[O any](baseURL string, cfg Config, withBase func(string) O, withTimeout func(time.Duration) O) []O {
	var opts []O
	if baseURL != "" {
		opts = append(opts, withBase(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, withTimeout(cfg.Timeout))
	}
	return opts
}
