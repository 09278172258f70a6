package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/netop-tools/ixc/core/protocol"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second

	// Rough chars-per-token divisor for context estimation. Close enough
	// for budget enforcement; the provider reports exact usage per call.
	charsPerToken = 4
	// Fixed wire overhead charged per message (role, framing).
	perMessageOverhead = 4
)

// openAIEngine speaks the OpenAI-compatible /chat/completions wire format.
type openAIEngine struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenAI creates an Engine for an OpenAI-compatible endpoint. baseURL
// may be empty for the public API; the client owns the request timeout.
func NewOpenAI(baseURL, apiKey string, timeout time.Duration) Engine {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &openAIEngine{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string             `json:"model"`
	Messages []protocol.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Usage *tokenUsage `json:"usage,omitempty"`
}

type tokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

func (e *openAIEngine) Complete(ctx context.Context, msgs []protocol.Message, model string) (*Reply, error) {
	body, err := json.Marshal(chatRequest{Model: model, Messages: msgs})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrTransient, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransient, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		// Preserve context cancellation so the controller can distinguish
		// an operator interrupt from a provider failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrTransient, resp.StatusCode, excerpt(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrTransient, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyReply
	}

	reply := &Reply{Text: parsed.Choices[0].Message.Content}
	if parsed.Usage != nil {
		reply.InputTokens = parsed.Usage.PromptTokens
		reply.OutputTokens = parsed.Usage.CompletionTokens
	}
	return reply, nil
}

func (e *openAIEngine) ContextTokens(msgs []protocol.Message) int {
	total := 0
	for _, m := range msgs {
		total += len(m.Content)/charsPerToken + perMessageOverhead
	}
	return total
}

func excerpt(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
