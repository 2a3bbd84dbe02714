package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"costpilot/pkg/errors"
)

const defaultRouterURL = "https://router.huggingface.co/v1/chat/completions"

// Ensure HuggingFaceProvider implements ChatProvider
var _ ChatProvider = (*HuggingFaceProvider)(nil)

// HuggingFaceProvider talks to the Hugging Face router, which exposes an
// OpenAI-compatible chat completions endpoint.
type HuggingFaceProvider struct {
	apiKey      string
	baseURL     string
	model       string
	timeout     time.Duration
	rateLimiter RateLimiter
	httpClient  *http.Client
}

// NewHuggingFaceProvider creates a new Hugging Face provider instance.
func NewHuggingFaceProvider(apiKey, baseURL, model string, timeout time.Duration, limiter RateLimiter) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = defaultRouterURL
	}
	if limiter == nil {
		limiter = NoopLimiter{}
	}
	return &HuggingFaceProvider{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		timeout:     timeout,
		rateLimiter: limiter,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Name returns provider name.
func (p *HuggingFaceProvider) Name() string { return "huggingface" }

// Model returns the configured model identifier.
func (p *HuggingFaceProvider) Model() string { return p.model }

type routerMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type routerRequest struct {
	Model       string          `json:"model"`
	Messages    []routerMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type routerResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat sends a chat completion request to the router.
func (p *HuggingFaceProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "hugging face API key not configured")
	}

	// Wait for rate limiter
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	routerReq := routerRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if routerReq.Model == "" {
		routerReq.Model = p.model
	}
	if routerReq.MaxTokens == 0 {
		routerReq.MaxTokens = 2000
	}
	for _, msg := range req.Messages {
		routerReq.Messages = append(routerReq.Messages, routerMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(routerReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal router request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		// Connection failures and timeouts are a single class: the
		// collaborator was unreachable.
		return nil, errors.Wrapf(errors.ErrGatewayNetwork, "send router request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrGatewayNetwork, "read router response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, errors.Wrapf(errors.ErrGatewayService, "router error (%d): %s - %s",
				resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrGatewayService, "router error (%d): %s",
			resp.StatusCode, string(respBody))
	}

	var routerResp routerResponse
	if err := json.Unmarshal(respBody, &routerResp); err != nil {
		return nil, errors.Wrapf(errors.ErrGatewayService, "unmarshal router response: %v", err)
	}

	chatResp := &ChatResponse{
		ID:    routerResp.ID,
		Model: routerResp.Model,
		Usage: Usage{
			PromptTokens:     routerResp.Usage.PromptTokens,
			CompletionTokens: routerResp.Usage.CompletionTokens,
			TotalTokens:      routerResp.Usage.TotalTokens,
		},
	}
	for _, choice := range routerResp.Choices {
		chatResp.Choices = append(chatResp.Choices, Choice{
			Index: choice.Index,
			Message: Message{
				Role:    MessageRole(choice.Message.Role),
				Content: choice.Message.Content,
			},
			FinishReason: choice.FinishReason,
		})
	}

	return chatResp, nil
}

// Complete sends a single user prompt and returns the first choice's text.
// An answer with no usable content is classified as an empty response.
func (p *HuggingFaceProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := p.Chat(ctx, ChatRequest{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: 0.1,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.Wrap(errors.ErrGatewayEmpty, "router returned no content")
	}

	return resp.Choices[0].Message.Content, nil
}
