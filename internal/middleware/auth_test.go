package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthMiddlewareMintsIdentity(t *testing.T) {
	auth := NewAuthMiddleware("secret", zap.NewNop())

	var gotUserID string
	handler := auth.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = userID
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request)

	assert.NotEmpty(t, gotUserID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "user_id", cookies[0].Name)
}

func TestAuthMiddlewareKeepsValidIdentity(t *testing.T) {
	auth := NewAuthMiddleware("secret", zap.NewNop())

	var firstID, secondID string
	capture := func(target *string) http.Handler {
		return auth.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := GetUserIDFromContext(r.Context())
			*target = userID
		}))
	}

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	capture(&firstID).ServeHTTP(w, request)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	capture(&secondID).ServeHTTP(w, request)

	assert.Equal(t, firstID, secondID)
}

func TestAuthMiddlewareRejectsForgedCookie(t *testing.T) {
	auth := NewAuthMiddleware("secret", zap.NewNop())

	var gotUserID string
	handler := auth.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: "user_id", Value: "forged-id.deadbeef"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request)

	// A bad signature gets a fresh identity, not the forged one.
	assert.NotEqual(t, "forged-id", gotUserID)
	assert.NotEmpty(t, gotUserID)
}
