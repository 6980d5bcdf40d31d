package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

// ConversationHandler serves conversation history, assistant turns and
// transcript export.
type ConversationHandler struct {
	conversations service.IConversationService
	assistant     service.IAssistantService
	archiver      service.ITranscriptArchiver
	turnLimiter   *middleware.RateLimiter
}

// NewConversationHandler builds the handler. archiver and turnLimiter may be
// nil, which disables export and turn rate limiting respectively.
func NewConversationHandler(
	conversations service.IConversationService,
	assistant service.IAssistantService,
	archiver service.ITranscriptArchiver,
	turnLimiter *middleware.RateLimiter,
) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		assistant:     assistant,
		archiver:      archiver,
		turnLimiter:   turnLimiter,
	}
}

func (h *ConversationHandler) RegisterRoutes(router *gin.RouterGroup) {
	conversations := router.Group("/conversations")
	{
		conversations.GET("", h.ListConversations)
		conversations.GET("/:id/messages", h.ListMessages)
		conversations.DELETE("/:id", h.DeleteConversation)
		if h.archiver != nil {
			conversations.POST("/:id/export", h.ExportConversation)
		}
	}

	if h.turnLimiter != nil {
		router.POST("/chat", h.turnLimiter.RateLimitMiddleware(), h.Chat)
	} else {
		router.POST("/chat", h.Chat)
	}
}

func (h *ConversationHandler) ListConversations(c *gin.Context) {
	listings, err := h.conversations.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := types.ConversationListResponse{Conversations: make([]types.ConversationSummary, len(listings))}
	for i, l := range listings {
		resp.Conversations[i] = types.ConversationSummary{
			ID:          l.ID.String(),
			Title:       l.Title,
			LastMessage: l.LastMessage,
			Time:        l.Time,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListMessages returns the transcript oldest first. Unknown, foreign and
// malformed ids all produce an empty list.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	resp := types.MessageListResponse{Messages: []types.MessageResponse{}}

	conversationID, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusOK, resp)
		return
	}

	messages, err := h.conversations.ListMessages(c.Request.Context(), middleware.UserID(c), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, messageResponse(&messages[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	conversationID, ok := pathID(c)
	if !ok {
		respondError(c, apperr.ErrNotFound)
		return
	}

	if err := h.conversations.DeleteConversation(c.Request.Context(), middleware.UserID(c), conversationID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportConversation archives the transcript and returns a short-lived download URL
func (h *ConversationHandler) ExportConversation(c *gin.Context) {
	conversationID, ok := pathID(c)
	if !ok {
		respondError(c, apperr.ErrNotFound)
		return
	}

	url, err := h.archiver.Export(c.Request.Context(), middleware.UserID(c), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ExportResponse{URL: url})
}

// Chat runs one assistant turn. The reply is 201 when the turn started a new
// conversation and 200 otherwise.
func (h *ConversationHandler) Chat(c *gin.Context) {
	var req types.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.assistant.Turn(c.Request.Context(), middleware.UserID(c), req.Message, req.ConversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, types.TurnResponse{
		ID:             result.Message.ID.String(),
		Role:           result.Message.Role,
		Content:        result.Message.Content,
		CreatedAt:      result.Message.CreatedAt,
		ConversationID: result.ConversationID.String(),
	})
}

func messageResponse(m *models.ConversationMessage) types.MessageResponse {
	return types.MessageResponse{
		ID:        m.ID.String(),
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
