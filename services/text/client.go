// Package text is the typed client for the text generation endpoints:
// prompt completion, streaming, and OpenAI-compatible chat.
package text

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/services/internal/listing"
)

// chatPath is the OpenAI-compatible completion endpoint.
const chatPath = "/openai"

// Client generates text. It is safe for concurrent use. Its execution
// mode is decided by the injected executor: a blocking executor gives a
// blocking client, a scope-bound executor gives a client for use inside
// scopes.
type Client struct {
	exec core.Executor
	cfg  Config
}

// New creates a text client over the given executor.
func New(exec core.Executor, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{exec: exec, cfg: cfg}
}

// Generate completes a prompt and returns the full text.
func (c *Client) Generate(ctx context.Context, req *Request) (*Response, error) {
	target, err := c.requestURL(req, false)
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
		return &Response{RequestID: resp.RequestID, Ignored: true}, nil
	}
	return &Response{Text: string(resp.Body), RequestID: resp.RequestID}, nil
}

// Stream completes a prompt as an event stream of text deltas. The
// caller owns the stream and must Close it.
func (c *Client) Stream(ctx context.Context, req *Request) (*core.Stream, error) {
	target, err := c.requestURL(req, true)
	if err != nil {
		return nil, err
	}

	return c.exec.Stream(ctx, &core.Request{
		Service:         serviceName,
		Method:          http.MethodGet,
		URL:             target,
		Timeout:         c.cfg.Timeout,
		Stream:          true,
		AdvisoryPayment: c.cfg.AdvisoryPayment,
	})
}

// Chat completes a conversation against the OpenAI-compatible endpoint.
// When that endpoint fails for any reason, the first user message is
// replayed through Generate instead; the endpoint serves anonymous
// traffic the chat route sometimes rejects.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatPayload(req, false))
	if err != nil {
		return nil, &core.Error{
			Service:    serviceName,
			Message:    "encoding chat request: " + err.Error(),
			Suggestion: "Check the chat messages for unencodable values.",
			Err:        core.ErrValidation,
		}
	}

	resp, err := c.exec.Do(ctx, &core.Request{
		Service:         serviceName,
		Method:          http.MethodPost,
		URL:             c.cfg.BaseURL + chatPath,
		Body:            body,
		ContentType:     "application/json",
		Timeout:         c.cfg.Timeout,
		AdvisoryPayment: c.cfg.AdvisoryPayment,
	})
	if err != nil {
		return c.chatFallback(ctx, req, err)
	}
	if resp.Ignored {
		return &Response{RequestID: resp.RequestID, Ignored: true}, nil
	}

	out, err := parseChatCompletion(resp.Body)
	if err != nil {
		return c.chatFallback(ctx, req, err)
	}
	return &Response{Text: out, RequestID: resp.RequestID}, nil
}

// ChatStream completes a conversation as an event stream. Unlike Chat it
// does not fall back to the prompt endpoint: a typed stream cannot
// degrade to a buffered completion. The caller owns the stream and must
// Close it.
func (c *Client) ChatStream(ctx context.Context, req *ChatRequest) (*core.Stream, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatPayload(req, true))
	if err != nil {
		return nil, &core.Error{
			Service:    serviceName,
			Message:    "encoding chat request: " + err.Error(),
			Suggestion: "Check the chat messages for unencodable values.",
			Err:        core.ErrValidation,
		}
	}

	return c.exec.Stream(ctx, &core.Request{
		Service:         serviceName,
		Method:          http.MethodPost,
		URL:             c.cfg.BaseURL + chatPath,
		Body:            body,
		ContentType:     "application/json",
		Timeout:         c.cfg.Timeout,
		Stream:          true,
		AdvisoryPayment: c.cfg.AdvisoryPayment,
	})
}

// Models returns the text model names the service advertises, falling
// back to the compiled defaults when the listing cannot be parsed.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	return listing.Fetch(ctx, c.exec, serviceName, c.cfg.BaseURL+"/models", c.cfg.Timeout, c.cfg.AdvisoryPayment, DefaultModels)
}

// chatFallback replays the conversation's first user message through the
// prompt endpoint. Without a user message the original error stands.
func (c *Client) chatFallback(ctx context.Context, req *ChatRequest, cause error) (*Response, error) {
	if ctx.Err() != nil {
		return nil, cause
	}

	var prompt, system string
	for _, m := range req.Messages {
		switch {
		case m.Role == RoleUser && prompt == "":
			prompt = m.Content
		case m.Role == RoleSystem && system == "":
			system = m.Content
		}
	}
	if prompt == "" {
		return nil, cause
	}

	return c.Generate(ctx, &Request{
		Prompt:   prompt,
		Model:    req.Model,
		System:   system,
		JSONMode: req.JSONMode,
		Private:  req.Private,
	})
}

func (c *Client) requestURL(req *Request, stream bool) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("model", req.model())
	if req.System != "" {
		params.Set("system", req.System)
	}
	if req.Seed != 0 {
		params.Set("seed", strconv.Itoa(req.Seed))
	}
	if req.Temperature != 0 {
		params.Set("temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	}
	if req.JSONMode {
		params.Set("json", "true")
	}
	if req.Private {
		params.Set("private", "true")
	}
	if stream {
		params.Set("stream", "true")
	}
	return c.cfg.BaseURL + "/" + url.PathEscape(req.Prompt) + "?" + params.Encode(), nil
}

// wire shapes for the OpenAI-compatible endpoint.

type chatBody struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Private        bool            `json:"private,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func chatPayload(req *ChatRequest, stream bool) chatBody {
	body := chatBody{
		Model:    req.model(),
		Messages: req.Messages,
		Stream:   stream,
		// The endpoint rejects non-default sampling temperatures, so the
		// value is always pinned.
		Temperature: core.DefaultTemperature,
		Private:     req.Private,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return body
}

func parseChatCompletion(body []byte) (string, error) {
	var cc chatCompletion
	if err := json.Unmarshal(body, &cc); err != nil {
		return "", &core.Error{
			Service:    serviceName,
			Message:    "decoding chat response: " + err.Error(),
			Suggestion: "The endpoint answered with an unexpected shape; try the prompt endpoint.",
			Err:        core.ErrDecode,
		}
	}
	if len(cc.Choices) == 0 {
		return "", &core.Error{
			Service:    serviceName,
			Message:    "chat response carried no choices",
			Suggestion: "The endpoint answered with an unexpected shape; try the prompt endpoint.",
			Err:        core.ErrDecode,
		}
	}
	return cc.Choices[0].Message.Content, nil
}
