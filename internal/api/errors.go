package api

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
	"github.com/pageza/pantrycoach/backend/internal/logging"
	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

const codeCredentialMissing = "credential_missing"

// respondError maps the service error taxonomy onto HTTP responses. Anything
// unrecognised is logged and reported as a 500 with no detail.
func respondError(c *gin.Context, err error) {
	var vErr *apperr.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: vErr.Message, Field: vErr.Field})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not found"})
	case errors.Is(err, apperr.ErrCredentialMissing):
		conversationID, _ := apperr.ConversationOf(err)
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:          "Add an AI provider API key to your profile to chat with the assistant",
			Code:           codeCredentialMissing,
			ConversationID: conversationID,
		})
	default:
		_ = c.Error(err)
		logging.Errorw("Request failed",
			"path", c.FullPath(),
			"user_id", middleware.UserID(c),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
	}
}

// respondBindError reports a request body that could not be decoded or
// failed its binding rules.
func respondBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: bindingMessage(fe),
			Field: lowerFirst(fe.Field()),
		})
		return
	}
	c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// pathID parses the :id path parameter. ok is false when it is not a uuid.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
