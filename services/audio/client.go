// Package audio is the typed client for the text-to-speech endpoint.
package audio

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/services/internal/listing"
)

// Client generates speech. It is safe for concurrent use. Its execution
// mode is decided by the injected executor: a blocking executor gives a
// blocking client, a scope-bound executor gives a client for use inside
// scopes.
type Client struct {
	exec core.Executor
	cfg  Config
}

// New creates an audio client over the given executor.
func New(exec core.Executor, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{exec: exec, cfg: cfg}
}

// Generate synthesizes speech for the request text and returns the raw
// audio bytes.
func (c *Client) Generate(ctx context.Context, req *Request) (*Audio, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	text := strings.TrimRight(req.Text, trailingPunctuation)
	params := url.Values{}
	params.Set("model", req.model())
	params.Set("voice", req.voice())
	target := c.cfg.BaseURL + "/" + url.PathEscape(text) + "?" + params.Encode()

	resp, err := c.exec.Do(ctx, &core.Request{
		Service:         serviceName,
		Method:          http.MethodGet,
		URL:             target,
		Timeout:         c.cfg.Timeout,
		AdvisoryPayment: c.cfg.AdvisoryPayment,
	})
	if err != nil {
		return nil, err
	}
	if resp.Ignored {
		return &Audio{RequestID: resp.RequestID, Ignored: true}, nil
	}
	return &Audio{
		Data:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   resp.RequestID,
	}, nil
}

// Voices returns the voice names the service advertises, falling back to
// the compiled defaults when the listing cannot be parsed.
func (c *Client) Voices(ctx context.Context) ([]string, error) {
	return listing.Fetch(ctx, c.exec, serviceName, c.cfg.BaseURL+"/voices", c.cfg.Timeout, c.cfg.AdvisoryPayment, DefaultVoices)
}
