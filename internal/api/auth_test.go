package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t, nil)
	token, userID := srv.register(t, "Ada@Example.com")
	assert.NotEmpty(t, token)

	w := srv.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.AuthResponse
	decode(t, w, &resp)
	assert.Equal(t, userID, resp.User.ID)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.register(t, "taken@example.com")

	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"missing email", map[string]string{"password": "correct-horse"}, "email"},
		{"malformed email", map[string]string{"email": "nope", "password": "correct-horse"}, "email"},
		{"short password", map[string]string{"email": "new@example.com", "password": "short"}, "password"},
		{"duplicate email", map[string]string{"email": "TAKEN@example.com", "password": "correct-horse"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(http.MethodPost, "/api/v1/auth/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp types.ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.field, resp.Field)
		})
	}

	w := srv.do(http.MethodPost, "/api/v1/auth/register", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.register(t, "ada@example.com")

	for _, body := range []map[string]string{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "correct-horse"},
	} {
		w := srv.do(http.MethodPost, "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/pantry"},
		{http.MethodGet, "/api/v1/conversations"},
		{http.MethodPost, "/api/v1/chat"},
		{http.MethodDelete, "/api/v1/account"},
	} {
		w := srv.do(route.method, route.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)

		w = srv.do(route.method, route.path, nil, "garbage")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestDeleteAccountRemovesOwnedData(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.register(t, "ada@example.com")
	otherToken, _ := srv.register(t, "bob@example.com")
	srv.setAPIKey(t, token)

	require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/v1/pantry",
		map[string]string{"name": "Eggs", "category": "protein"}, token).Code)
	require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/v1/pantry",
		map[string]string{"name": "Rice", "category": "grain"}, otherToken).Code)
	require.Equal(t, http.StatusCreated, srv.do(http.MethodPost, "/api/v1/chat",
		map[string]string{"message": "Breakfast ideas?"}, token).Code)

	w := srv.do(http.MethodDelete, "/api/v1/account", nil, token)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	var users, items, conversations, messages int64
	srv.db.Model(&models.User{}).Count(&users)
	srv.db.Model(&models.PantryItem{}).Count(&items)
	srv.db.Model(&models.Conversation{}).Count(&conversations)
	srv.db.Model(&models.ConversationMessage{}).Count(&messages)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), items)
	assert.Zero(t, conversations)
	assert.Zero(t, messages)

	w = srv.do(http.MethodDelete, "/api/v1/account", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}
