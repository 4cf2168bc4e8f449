package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/bot"
	"github.com/vkarpenko/telelink/internal/middleware"
	"github.com/vkarpenko/telelink/internal/repository"
	"github.com/vkarpenko/telelink/internal/service"
)

const testSecret = "test-secret-key"

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: chatID, text: text})
}

func (f *fakeSender) all() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage{}, f.messages...)
}

type testEnv struct {
	srv    http.Handler
	svc    *service.ShortenerService
	repo   *repository.MemoryRepository
	sender *fakeSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	svc := service.NewShortenerService("http://localhost:8080", repo, repo, repo, logger)
	sender := &fakeSender{}
	dispatcher := bot.NewDispatcher(svc, sender, logger)

	h := NewHandler(svc, dispatcher, logger)
	auth := middleware.NewAuthMiddleware(testSecret, logger)

	return &testEnv{
		srv:    h.SetupRouter(auth),
		svc:    svc,
		repo:   repo,
		sender: sender,
	}
}

func createTestCookie(userID string) *http.Cookie {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(userID))
	signedValue := userID + "." + hex.EncodeToString(mac.Sum(nil))

	return &http.Cookie{
		Name:  "user_id",
		Value: signedValue,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func TestPingHandler(t *testing.T) {
	env := newTestEnv(t)

	request := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := env.do(t, request)

	require.Equal(t, http.StatusOK, w.Code)
}
