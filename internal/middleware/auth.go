package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

const (
	cookieName    = "user_id"
	cookieExpires = 365 * 24 * time.Hour
)

// AuthMiddleware identifies admin-surface callers with an HMAC-signed
// cookie. First-time visitors get a fresh uuid identity.
type AuthMiddleware struct {
	secretKey []byte
	logger    *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey: []byte(secret),
		logger:    logger,
	}
}

func (a *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.getOrCreateUserID(r)

		cookie, err := r.Cookie(cookieName)
		if err != nil || !a.validateCookie(cookie.Value, userID) {
			a.setUserCookie(w, userID)
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthMiddleware) getOrCreateUserID(r *http.Request) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return uuid.New().String()
	}

	userID, valid := a.parseCookie(cookie.Value)
	if !valid {
		a.logger.Warn("Invalid auth cookie signature, issuing new identity")
		return uuid.New().String()
	}

	return userID
}

func (a *AuthMiddleware) setUserCookie(w http.ResponseWriter, userID string) {
	cookie := &http.Cookie{
		Name:     cookieName,
		Value:    a.signUserID(userID),
		Path:     "/",
		Expires:  time.Now().Add(cookieExpires),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (a *AuthMiddleware) signUserID(userID string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(userID))
	return userID + "." + hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (string, bool) {
	userID, signature, ok := strings.Cut(cookieValue, ".")
	if !ok {
		return "", false
	}

	expected := a.signUserID(userID)
	_, expectedSignature, _ := strings.Cut(expected, ".")

	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return "", false
	}

	return userID, true
}

func (a *AuthMiddleware) validateCookie(cookieValue, expectedUserID string) bool {
	userID, valid := a.parseCookie(cookieValue)
	return valid && userID == expectedUserID
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
