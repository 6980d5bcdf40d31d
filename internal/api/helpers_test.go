package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/testdb"
	"github.com/pageza/pantrycoach/backend/internal/types"
	"github.com/pageza/pantrycoach/backend/internal/vault"
)

const (
	testJWTSecret     = "api-test-secret"
	testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testAPIKey        = "sk-test-0123456789abcdefghij"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompletion struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubCompletion) Complete(_ context.Context, _ string, _ []service.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubArchiver struct {
	url string
	err error
}

func (s *stubArchiver) Export(_ context.Context, _, _ uuid.UUID) (string, error) {
	return s.url, s.err
}

type testServer struct {
	router     *gin.Engine
	db         *gorm.DB
	completion *stubCompletion
}

func newTestServer(t *testing.T, archiver service.ITranscriptArchiver) *testServer {
	t.Helper()

	db := testdb.NewSQLite(t)
	v, err := vault.New(testEncryptionKey)
	require.NoError(t, err)

	completion := &stubCompletion{reply: "Try a lentil salad."}
	profiles := service.NewProfileService(db, v)
	pantry := service.NewPantryService(db)
	conversations := service.NewConversationService(db)
	assistant := service.NewAssistantService(
		conversations,
		profiles,
		service.NewContextAssembler(profiles, pantry),
		v,
		completion,
	)

	router := gin.New()
	RegisterRoutes(router, Services{
		DB:            db,
		Auth:          service.NewAuthService(db, testJWTSecret),
		Profiles:      profiles,
		Pantry:        pantry,
		Conversations: conversations,
		Assistant:     assistant,
		Archiver:      archiver,
	})

	return &testServer{router: router, db: db, completion: completion}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its token and id
func (s *testServer) register(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp types.AuthResponse
	decode(t, w, &resp)
	return resp.Token, resp.User.ID
}

func (s *testServer) setAPIKey(t *testing.T, token string) {
	t.Helper()
	w := s.do(http.MethodPut, "/api/v1/profile", map[string]string{"apiKey": testAPIKey}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
