// Package perplexity calls the Perplexity chat-completions API and maps
// every possible outcome onto the domain failure taxonomy. Nothing above
// this package ever sees a raw transport error.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-search/config"
	"voice-search/internal/domain"
	"voice-search/internal/infra"
	"voice-search/internal/telemetry"
)

type Client struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	metrics     *telemetry.Metrics
}

func NewClient(cfg config.PerplexityConfig, metrics *telemetry.Metrics) *Client {
	return &Client{
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: cfg.UpstreamTimeout()},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		metrics:     metrics,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask sends the query as the sole user message and returns the raw answer
// text. Every error it returns is a *domain.Failure; it never panics out.
func (c *Client) Ask(ctx context.Context, query string) (answer string, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(domain.KindOf(err))
		}
		c.metrics.UpstreamRequest(outcome, time.Since(start))
	}()
	defer func() {
		if r := recover(); r != nil {
			answer = ""
			err = &domain.Failure{Kind: domain.FailureUnknown, Detail: fmt.Sprintf("panic: %v", r)}
		}
	}()

	reqBody := request{
		Model: c.model,
		Messages: []message{
			{Role: "user", Content: query},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &domain.Failure{Kind: domain.FailureUnknown, Detail: fmt.Sprintf("marshaling request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &domain.Failure{Kind: domain.FailureUnknown, Detail: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.Failure{Kind: domain.FailureNetwork, Detail: fmt.Sprintf("sending request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		detail := fmt.Sprintf("API error %d: %s", resp.StatusCode, string(respBody))

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", &domain.Failure{Kind: domain.FailureAuth, Detail: detail}
		case infra.IsRetryableHTTPStatus(resp.StatusCode):
			return "", &domain.Failure{Kind: domain.FailureTransient, Detail: detail}
		default:
			return "", &domain.Failure{Kind: domain.FailureUnknown, Detail: detail}
		}
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.Failure{Kind: domain.FailureMalformed, Detail: fmt.Sprintf("decoding response: %v", err)}
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &domain.Failure{Kind: domain.FailureMalformed, Detail: "response has no answer content"}
	}

	return result.Choices[0].Message.Content, nil
}
