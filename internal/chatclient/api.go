package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

// HTTPTimeoutFor is a client timeout that outlasts the longest turn a server
// with the given completion timeout can run.
func HTTPTimeoutFor(completionTimeout time.Duration) time.Duration {
	return service.MaxTurnDuration(completionTimeout) + 15*time.Second
}

// APIError is a non-2xx response from the server. It unwraps to the matching
// apperr sentinel when there is one.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
	Code       string

	// ConversationID is the conversation the failed turn still stored into
	ConversationID string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("server returned %d: %s: %s", e.StatusCode, e.Field, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return apperr.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return apperr.ErrNotFound
	case e.Code == "credential_missing" && e.ConversationID != "":
		return &apperr.ConversationError{ConversationID: e.ConversationID, Err: apperr.ErrCredentialMissing}
	case e.Code == "credential_missing":
		return apperr.ErrCredentialMissing
	case e.StatusCode == http.StatusBadRequest && e.Field != "":
		return &apperr.ValidationError{Field: e.Field, Message: e.Message}
	}
	return nil
}

// APIClient talks to the backend's HTTP API with a bearer token
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Ensure APIClient implements Backend
var _ Backend = (*APIClient)(nil)

// NewAPIClient creates a client for the API rooted at baseURL. A nil
// httpClient gets one sized for a server running the default completion
// timeout; pass HTTPTimeoutFor(LLM_TIMEOUT) when the server is tuned.
func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: HTTPTimeoutFor(service.DefaultCompletionTimeout)}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *APIClient) ListConversations(ctx context.Context) ([]types.ConversationSummary, error) {
	var resp types.ConversationListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

func (c *APIClient) ListMessages(ctx context.Context, conversationID string) ([]types.MessageResponse, error) {
	var resp types.MessageListResponse
	path := "/api/v1/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendTurn posts one message. A nil conversationID starts a new conversation.
func (c *APIClient) SendTurn(ctx context.Context, message string, conversationID *string) (*types.TurnResponse, error) {
	var resp types.TurnResponse
	req := types.TurnRequest{Message: message, ConversationID: conversationID}
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/conversations/"+url.PathEscape(conversationID), nil, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp types.ErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Field = errResp.Field
			apiErr.Code = errResp.Code
			apiErr.ConversationID = errResp.ConversationID
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
