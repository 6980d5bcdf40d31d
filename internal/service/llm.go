package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
)

// Message is one entry of a chat completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const RoleSystem = "system"

// Request is an OpenAI-compatible chat completion request
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// LLMService calls an OpenAI-compatible chat completions endpoint with the
// caller's own API key
type LLMService struct {
	apiURL string
	model  string
	client *http.Client
}

// Ensure LLMService implements CompletionClient
var _ CompletionClient = (*LLMService)(nil)

// NewLLMService creates a new LLMService instance. Per-call deadlines come from
// the caller's context.
func NewLLMService(apiURL, model string) *LLMService {
	return &LLMService{
		apiURL: apiURL,
		model:  model,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Complete sends messages and returns the first choice's content
func (s *LLMService) Complete(ctx context.Context, apiKey string, messages []Message) (string, error) {
	reqBody := Request{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1024,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &apperr.CompletionError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &apperr.CompletionError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &apperr.CompletionError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &apperr.CompletionError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apperr.CompletionError{StatusCode: resp.StatusCode, Err: errors.New(providerErrorMessage(body))}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &apperr.CompletionError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", &apperr.CompletionError{Err: errors.New("no response from API")}
	}

	return result.Choices[0].Message.Content, nil
}

// providerErrorMessage extracts error.message from a provider error body
func providerErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return "unexpected provider response"
}
