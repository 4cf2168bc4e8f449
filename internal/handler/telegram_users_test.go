package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkarpenko/telelink/internal/models"
)

func TestListBotUsersHandler(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RegisterBotUser(context.Background(), "42", "alice", "Alice", "")
	require.NoError(t, err)
	_, err = env.svc.RegisterBotUser(context.Background(), "43", "bob", "Bob", "")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/api/telegram/users", nil)
	request.AddCookie(createTestCookie("admin"))

	w := env.do(t, request)

	require.Equal(t, http.StatusOK, w.Code)

	var users []models.BotUser
	require.NoError(t, json.NewDecoder(w.Body).Decode(&users))
	assert.Len(t, users, 2)
}

func TestSetPremiumHandler(t *testing.T) {
	type want struct {
		statusCode   int
		checkPremium bool
		isPremium    bool
	}

	tests := []struct {
		name        string
		body        string
		contentType string
		setup       func(t *testing.T, env *testEnv)
		want        want
	}{
		{
			name:        "grant premium",
			body:        `{"telegram_id":"42","is_premium":true}`,
			contentType: "application/json",
			setup: func(t *testing.T, env *testEnv) {
				_, err := env.svc.RegisterBotUser(context.Background(), "42", "alice", "Alice", "")
				require.NoError(t, err)
			},
			want: want{
				statusCode:   http.StatusOK,
				checkPremium: true,
				isPremium:    true,
			},
		},
		{
			name:        "revoke premium",
			body:        `{"telegram_id":"42","is_premium":false}`,
			contentType: "application/json",
			setup: func(t *testing.T, env *testEnv) {
				_, err := env.svc.RegisterBotUser(context.Background(), "42", "alice", "Alice", "")
				require.NoError(t, err)
				_, err = env.svc.SetPremium(context.Background(), "42", true)
				require.NoError(t, err)
			},
			want: want{
				statusCode:   http.StatusOK,
				checkPremium: true,
				isPremium:    false,
			},
		},
		{
			name:        "negative: unknown user",
			body:        `{"telegram_id":"999","is_premium":true}`,
			contentType: "application/json",
			setup:       func(t *testing.T, env *testEnv) {},
			want: want{
				statusCode: http.StatusNotFound,
			},
		},
		{
			name:        "negative: missing telegram id",
			body:        `{"is_premium":true}`,
			contentType: "application/json",
			setup:       func(t *testing.T, env *testEnv) {},
			want: want{
				statusCode: http.StatusBadRequest,
			},
		},
		{
			name:        "negative: wrong content type",
			body:        `{"telegram_id":"42","is_premium":true}`,
			contentType: "text/plain",
			setup:       func(t *testing.T, env *testEnv) {},
			want: want{
				statusCode: http.StatusBadRequest,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(t, env)

			request := httptest.NewRequest(http.MethodPatch, "/api/telegram/users", strings.NewReader(tt.body))
			request.Header.Set("Content-Type", tt.contentType)
			request.AddCookie(createTestCookie("admin"))

			w := env.do(t, request)

			assert.Equal(t, tt.want.statusCode, w.Code)

			if tt.want.checkPremium {
				var user models.BotUser
				require.NoError(t, json.NewDecoder(w.Body).Decode(&user))
				assert.Equal(t, tt.want.isPremium, user.IsPremium)

				stored, err := env.svc.GetBotUser(context.Background(), "42")
				require.NoError(t, err)
				assert.Equal(t, tt.want.isPremium, stored.IsPremium)
			}
		})
	}
}
