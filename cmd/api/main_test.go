package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/postboard/internal/audit"
	"github.com/yourusername/postboard/internal/config"
	"github.com/yourusername/postboard/internal/store"
)

type testServer struct {
	router *gin.Engine
	db     *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		GinMode:            gin.TestMode,
		CORSAllowedOrigins: "http://localhost:5173",
		DatabaseURL:        ":memory:",
		BcryptCost:         bcrypt.MinCost,
		TokenSecret:        "0123456789abcdef0123456789abcdef",
		TokenTTL:           time.Hour,
		SessionSecret:      "session-secret",
	}
	db, err := store.Open(cfg.DatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	router, err := newRouter(cfg, db, db, audit.NewDirect(db, nil), nil)
	require.NoError(t, err)
	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func (s *testServer) signupAndLogin(t *testing.T, nickname, password string) string {
	t.Helper()
	rec, _ := s.do(t, http.MethodPost, "/signup", "", map[string]string{
		"nickname": nickname, "password": password, "confirmPassword": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := s.do(t, http.MethodPost, "/login", "", map[string]string{
		"nickname": nickname, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestSignupAccepted(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.do(t, http.MethodPost, "/signup", "", map[string]string{
		"nickname": "abc", "password": "pass1", "confirmPassword": "pass1",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, body["message"])

	user, err := s.db.FindUserByNickname(t.Context(), "abc")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEqual(t, "pass1", user.PasswordHash)
}

func TestSignupShortNicknameCreatesNothing(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.do(t, http.MethodPost, "/signup", "", map[string]string{
		"nickname": "ab", "password": "pass1", "confirmPassword": "pass1",
	})
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, "NICKNAME_TOO_SHORT", body["code"])

	user, err := s.db.FindUserByNickname(t.Context(), "ab")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSignupOverlongPasswordRejected(t *testing.T) {
	s := newTestServer(t)
	password := strings.Repeat("p", 73)
	rec, body := s.do(t, http.MethodPost, "/signup", "", map[string]string{
		"nickname": "abc", "password": password, "confirmPassword": password,
	})
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, "PASSWORD_TOO_LONG", body["code"])

	user, err := s.db.FindUserByNickname(t.Context(), "abc")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLoginWrongPasswordIssuesNoToken(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "abc", "pass1")

	rec, body := s.do(t, http.MethodPost, "/login", "", map[string]string{
		"nickname": "abc", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "LOGIN_FAILED", body["code"])
	assert.NotContains(t, body, "token")

	_, unknown := s.do(t, http.MethodPost, "/login", "", map[string]string{
		"nickname": "nobody", "password": "wrong",
	})
	assert.Equal(t, body["message"], unknown["message"])
}

func TestPostOwnershipLifecycle(t *testing.T) {
	s := newTestServer(t)
	tokenA := s.signupAndLogin(t, "alice", "secret1")
	tokenB := s.signupAndLogin(t, "bobby", "secret2")

	rec, body := s.do(t, http.MethodPost, "/posts", tokenA, map[string]string{"title": "hello", "content": "world"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	postID, _ := body["postId"].(string)
	require.NotEmpty(t, postID)

	rec, body = s.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list, _ := body["posts"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].(map[string]any)["nickname"])

	rec, _ = s.do(t, http.MethodPut, "/posts/"+postID, tokenB, map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/posts/"+postID, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/posts/"+postID, tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "POST_NOT_FOUND", body["code"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/posts", "", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_TOKEN", body["code"])

	rec, body = s.do(t, http.MethodPost, "/posts", "not-a-token", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	_, body = s.do(t, http.MethodGet, "/posts", "", nil)
	assert.Empty(t, body["posts"])
}

func TestActivityListsOwnEvents(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "alice", "secret1")
	s.do(t, http.MethodPost, "/login", "", map[string]string{"nickname": "alice", "password": "wrong"})

	rec, body := s.do(t, http.MethodGet, "/me/activity", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	events, _ := body["events"].([]any)

	var types []string
	for _, ev := range events {
		types = append(types, ev.(map[string]any)["type"].(string))
	}
	assert.ElementsMatch(t, []string{audit.EventSignup, audit.EventLoginSucceeded, audit.EventLoginFailed}, types)
}
