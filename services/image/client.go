// Package image is the typed client for the image generation endpoint.
package image

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/services/internal/listing"
)

// Client generates images. It is safe for concurrent use. Its execution
// mode is decided by the injected executor: a blocking executor gives a
// blocking client, a scope-bound executor gives a client for use inside
// scopes.
type Client struct {
	exec core.Executor
	cfg  Config
}

// New creates an image client over the given executor.
func New(exec core.Executor, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{exec: exec, cfg: cfg}
}

// Generate requests an image and returns its bytes.
func (c *Client) Generate(ctx context.Context, req *Request) (*Image, error) {
	target, err := c.requestURL(req)
	if err != nil {
		return nil, err
	}

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
		return &Image{RequestID: resp.RequestID, Ignored: true}, nil
	}
	return &Image{
		Data:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   resp.RequestID,
	}, nil
}

// URL returns the generation URL for a request without performing it.
// Useful for handing the link to a browser or an <img> tag; it never
// contains the API token.
func (c *Client) URL(req *Request) (string, error) {
	return c.requestURL(req)
}

// Models returns the image model names the service advertises, falling
// back to the compiled defaults when the listing cannot be parsed.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	return listing.Fetch(ctx, c.exec, serviceName, c.cfg.BaseURL+"/models", c.cfg.Timeout, c.cfg.AdvisoryPayment, DefaultModels)
}

func (c *Client) requestURL(req *Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("model", req.model())
	params.Set("width", strconv.Itoa(req.width()))
	params.Set("height", strconv.Itoa(req.height()))
	if req.Seed != 0 {
		params.Set("seed", strconv.Itoa(req.Seed))
	}
	if req.NoLogo {
		params.Set("nologo", "true")
	}
	if req.Private {
		params.Set("private", "true")
	}
	if req.Enhance {
		params.Set("enhance", "true")
	}
	if req.Safe {
		params.Set("safe", "true")
	}
	if req.Referrer != "" {
		params.Set("referrer", req.Referrer)
	}
	return c.cfg.BaseURL + "/prompt/" + url.PathEscape(req.Prompt) + "?" + params.Encode(), nil
}
