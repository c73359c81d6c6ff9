// Package llm provides the OpenAI-compatible chat client the agent uses for
// every model call, plus the helpers that dig structured JSON out of
// free-text model output.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Message is one role-tagged turn sent to the model.
type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// Usage reports token consumption for one LLM call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Chatter is the LLM collaborator contract: an ordered sequence of
// role-tagged messages in, one natural-language response out.
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, Usage, error)
}

// Client is an OpenAI-compatible LLM client.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	enableThinking bool // sends "enable_thinking":true in the request body
	httpClient     *http.Client
}

var _ Chatter = (*Client)(nil)

// normalizeBaseURL strips trailing slashes and the "/chat/completions"
// suffix from a raw OPENAI_BASE_URL value so the path is never doubled when
// the client appends "/chat/completions" itself.
func normalizeBaseURL(raw string) string {
	s := strings.TrimRight(raw, "/")
	return strings.TrimSuffix(s, "/chat/completions")
}

// New creates a Client from the shared environment variables:
//
//	OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL
//
// OPENAI_ENABLE_THINKING=true turns on the thinking-mode request flag for
// backends that support it.
func New() *Client {
	return NewWithConfig(
		os.Getenv("OPENAI_BASE_URL"),
		os.Getenv("OPENAI_API_KEY"),
		os.Getenv("OPENAI_MODEL"),
	)
}

// NewWithConfig creates a Client with explicit connection settings.
func NewWithConfig(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:        normalizeBaseURL(baseURL),
		apiKey:         apiKey,
		model:          model,
		enableThinking: os.Getenv("OPENAI_ENABLE_THINKING") == "true",
		httpClient:     &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	EnableThinking bool      `json:"enable_thinking,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat sends the message sequence and returns the assistant's text response
// and token usage.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, Usage, error) {
	for _, m := range messages {
		log.Printf("[LLM] >> %s: %s", m.Role, firstN(m.Content, 400))
	}

	payload := chatRequest{
		Model:          c.model,
		Messages:       messages,
		EnableThinking: c.enableThinking,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", Usage{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", Usage{}, fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("llm: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", Usage{}, fmt.Errorf("llm: HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", Usage{}, fmt.Errorf("llm: unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return "", Usage{}, fmt.Errorf("llm: API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("llm: no choices in response")
	}

	content := chatResp.Choices[0].Message.Content
	log.Printf("[LLM] << (tokens: prompt=%d completion=%d) %s",
		chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens, firstN(content, 400))
	return content, chatResp.Usage, nil
}

func firstN(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
