package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/mocks"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

func newHandlerContext(method, path string, body interface{}, userID uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserID, userID)
	return c, w
}

func TestChatHandlerStatusCodes(t *testing.T) {
	userID := uuid.New()
	conversationID := uuid.New()
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		created    bool
		wantStatus int
	}{
		{name: "new conversation", created: true, wantStatus: http.StatusCreated},
		{name: "existing conversation", created: false, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := new(mocks.MockAssistantService)
			assistant.On("Turn", mock.Anything, userID, "Plan my week", mock.AnythingOfType("*string")).Return(&service.TurnResult{
				Message: &models.ConversationMessage{
					ID:             uuid.New(),
					ConversationID: conversationID,
					Role:           models.RoleAssistant,
					Content:        "Here is a plan.",
					CreatedAt:      createdAt,
				},
				ConversationID: conversationID,
				Created:        tt.created,
			}, nil)

			handler := NewConversationHandler(nil, assistant, nil, nil)
			c, w := newHandlerContext(http.MethodPost, "/api/v1/chat", map[string]interface{}{
				"message":        "Plan my week",
				"conversationId": conversationID.String(),
			}, userID)

			handler.Chat(c)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			var resp types.TurnResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, conversationID.String(), resp.ConversationID)
			assert.Equal(t, models.RoleAssistant, resp.Role)
			assert.True(t, createdAt.Equal(resp.CreatedAt))
			assistant.AssertExpectations(t)
		})
	}
}

func TestChatHandlerMapsErrors(t *testing.T) {
	userID := uuid.New()

	conversationID := uuid.NewString()

	tests := []struct {
		name             string
		err              error
		wantStatus       int
		wantCode         string
		wantField        string
		wantConversation string
	}{
		{name: "validation", err: apperr.Invalid("message", "is required"), wantStatus: http.StatusBadRequest, wantField: "message"},
		{name: "credential", err: apperr.ErrCredentialMissing, wantStatus: http.StatusBadRequest, wantCode: codeCredentialMissing},
		{
			name:             "credential after storing message",
			err:              &apperr.ConversationError{ConversationID: conversationID, Err: apperr.ErrCredentialMissing},
			wantStatus:       http.StatusBadRequest,
			wantCode:         codeCredentialMissing,
			wantConversation: conversationID,
		},
		{name: "unauthorized", err: apperr.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "store failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := new(mocks.MockAssistantService)
			assistant.On("Turn", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil, tt.err)

			handler := NewConversationHandler(nil, assistant, nil, nil)
			c, w := newHandlerContext(http.MethodPost, "/api/v1/chat", map[string]interface{}{"message": "hi"}, userID)

			handler.Chat(c)

			require.Equal(t, tt.wantStatus, w.Code)
			var resp types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantField, resp.Field)
			assert.Equal(t, tt.wantConversation, resp.ConversationID)
			assert.NotContains(t, resp.Error, "connection reset")
		})
	}
}

func TestExportHandler(t *testing.T) {
	userID := uuid.New()
	conversationID := uuid.New()

	archiver := new(mocks.MockTranscriptArchiver)
	archiver.On("Export", mock.Anything, userID, conversationID).Return("https://bucket.test/transcript.json", nil)

	handler := NewConversationHandler(nil, nil, archiver, nil)
	c, w := newHandlerContext(http.MethodPost, "/api/v1/conversations/"+conversationID.String()+"/export", nil, userID)
	c.Params = gin.Params{{Key: "id", Value: conversationID.String()}}

	handler.ExportConversation(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://bucket.test/transcript.json"}`, w.Body.String())
	archiver.AssertExpectations(t)
}

func TestExportHandlerForeignConversation(t *testing.T) {
	userID := uuid.New()
	conversationID := uuid.New()

	archiver := new(mocks.MockTranscriptArchiver)
	archiver.On("Export", mock.Anything, userID, conversationID).Return("", apperr.ErrNotFound)

	handler := NewConversationHandler(nil, nil, archiver, nil)
	c, w := newHandlerContext(http.MethodPost, "/", nil, userID)
	c.Params = gin.Params{{Key: "id", Value: conversationID.String()}}

	handler.ExportConversation(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProtectedRoutesUseTokenValidator(t *testing.T) {
	userID := uuid.New()

	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", "valid").Return(mocks.ClaimsFor(userID), nil)
	auth.On("ValidateToken", "expired").Return(nil, service.ErrInvalidToken)
	auth.On("DeleteAccount", mock.Anything, userID).Return(nil)

	router := gin.New()
	RegisterRoutes(router, Services{Auth: auth})

	for token, want := range map[string]int{"valid": http.StatusNoContent, "expired": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/account", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}

	auth.AssertNumberOfCalls(t, "DeleteAccount", 1)
}
