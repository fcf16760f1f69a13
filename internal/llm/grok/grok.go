// Package grok implements the chat-completion client for the xAI API.
// It owns the retry policy, the process-wide concurrency limiter, and the
// event-stream decoding; callers consume the normalized llm.StreamEvent
// sequence and never see HTTP details.
package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/HerbHall/gigagrok/pkg/llm"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Compile-time interface guard.
var _ llm.Streamer = (*Client)(nil)

// Client is the xAI chat-completions client. It holds one persistent HTTP
// connection pool with a fixed request timeout and the API credential
// attached to every request. Safe for concurrent use; RenderState and
// other per-interaction state live with the callers.
type Client struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	sem            *semaphore.Weighted
	retry          retryPolicy
	maxTokens      int
	reasoningModel func(string) bool
	logger         *zap.Logger
	closeOnce      sync.Once
}

// New creates a Grok client. It does not verify connectivity.
func New(cfg Config, apiKey string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("grok: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = DefaultConfig().MaxInflight
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	pred := cfg.ReasoningModel
	if pred == nil {
		pred = DefaultReasoningModel
	}

	return &Client{
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		sem:            semaphore.NewWeighted(cfg.MaxInflight),
		retry:          newRetryPolicy(logger),
		maxTokens:      cfg.MaxTokens,
		reasoningModel: pred,
		logger:         logger,
	}, nil
}

// chatRequestBody is the wire shape of a chat-completions request.
// SearchParameters are flattened into the top level by marshalBody.
type chatRequestBody struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens int           `json:"max_tokens"`
	Reasoning *reasoning    `json:"reasoning,omitempty"`
	Tools     []llm.Tool    `json:"tools,omitempty"`
}

type reasoning struct {
	Effort string `json:"effort"`
}

// buildBody assembles the request body. A request without an explicit
// token limit falls back to the client-wide one. The reasoning parameter
// is sent only when the caller supplied an effort and the model is
// recognized as reasoning-capable.
func (c *Client) buildBody(req llm.ChatRequest, stream bool) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	body := chatRequestBody{
		Model:     req.Model,
		Messages:  req.Messages,
		Stream:    stream,
		MaxTokens: maxTokens,
		Tools:     req.Tools,
	}
	if req.ReasoningEffort != "" && c.reasoningModel(req.Model) {
		body.Reasoning = &reasoning{Effort: req.ReasoningEffort}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	if len(req.SearchParameters) == 0 {
		return raw, nil
	}

	// Merge search parameters into the top-level object.
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("remarshal chat request: %w", err)
	}
	sp, err := json.Marshal(req.SearchParameters)
	if err != nil {
		return nil, fmt.Errorf("marshal search parameters: %w", err)
	}
	merged["search_parameters"] = sp
	return json.Marshal(merged)
}

// StreamChat opens a streaming completion under the retry policy and the
// in-flight limiter, forwarding events to emit as they arrive. Once any
// event has been delivered, a later failure is surfaced instead of
// retried: a restarted stream would replay deltas.
func (c *Client) StreamChat(ctx context.Context, req llm.ChatRequest, emit func(llm.StreamEvent) error) error {
	body, err := c.buildBody(req, true)
	if err != nil {
		return err
	}

	return c.retry.do(ctx, "stream_chat", func() error {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return &abortError{err: err}
		}
		defer c.sem.Release(1)

		resp, err := c.doPost(ctx, body)
		if err != nil {
			return mapError(err)
		}
		defer resp.Body.Close()

		emitted := 0
		perr := parseFrames(resp.Body, func(ev llm.StreamEvent) error {
			if err := emit(ev); err != nil {
				return &abortError{err: err}
			}
			emitted++
			return nil
		})
		if perr == nil {
			return nil
		}
		var abort *abortError
		if errors.As(perr, &abort) {
			return perr
		}
		mapped := mapError(perr)
		if emitted > 0 {
			return &abortError{err: mapped}
		}
		return mapped
	})
}

// Chat sends a non-streaming completion and returns the full response.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := c.buildBody(req, false)
	if err != nil {
		return nil, err
	}

	var result *llm.ChatResponse
	err = c.retry.do(ctx, "chat", func() error {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return &abortError{err: err}
		}
		defer c.sem.Release(1)

		resp, err := c.doPost(ctx, body)
		if err != nil {
			return mapError(err)
		}
		defer resp.Body.Close()

		var decoded llm.ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return mapError(fmt.Errorf("decode chat response: %w", err))
		}
		result = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// doPost sends an authenticated POST to /chat/completions. Non-200
// responses are drained into a grokStatusError so the upstream failure
// text reaches the caller.
func (c *Client) doPost(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return nil, &grokStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	return resp, nil
}

// Close releases the connection pool. Safe to call exactly once at
// shutdown; the process can exit cleanly without it.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
	})
}
