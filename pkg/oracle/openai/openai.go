// Package openai implements the decision oracle against any OpenAI-compatible
// chat-completions endpoint (including local Ollama). The model is asked for a
// single JSON object and the reply is parsed into a typed verdict.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/recallhq/recall/pkg/oracle"
)

const (
	// DefaultBaseURL targets a local OpenAI-compatible server.
	DefaultBaseURL = "http://localhost:11434/v1"

	// DefaultModel is used when none is configured.
	DefaultModel = "llama3.1"
)

const systemPrompt = `You arbitrate whether a new note duplicates existing notes.
Different aliases, nicknames, or first-person references may describe the same subject; resolve that explicitly.
Reply with exactly one JSON object:
{"action":"create"|"update"|"skip","target_id":"<existing id when action is update or skip>","confidence":0.0-1.0,"reasoning":"<one sentence>"}`

// Oracle calls a chat-completions endpoint for merge arbitration.
type Oracle struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Config holds configuration for the chat-completions oracle.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	// Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the chat model name. Defaults to DefaultModel.
	Model string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout bounds one resolution call. Defaults to 60s.
	Timeout time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOracle creates a chat-completions backed oracle.
func NewOracle(cfg Config) (*Oracle, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Oracle{
		baseURL:    baseURL,
		model:      model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Resolve submits the comparison and parses the model's JSON verdict.
func (o *Oracle) Resolve(ctx context.Context, req *oracle.Request) (*oracle.Verdict, error) {
	userPayload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling oracle request: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userPayload)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("oracle endpoint returned status %d: %s", resp.StatusCode, string(raw))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}

	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", oracle.ErrUnparsableVerdict)
	}

	return oracle.ParseVerdict([]byte(chat.Choices[0].Message.Content))
}

// Close releases resources held by the oracle.
func (o *Oracle) Close() error {
	return nil
}

var _ oracle.Oracle = (*Oracle)(nil)
