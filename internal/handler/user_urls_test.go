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

func TestGetUserURLsHandler(t *testing.T) {
	env := newTestEnv(t)

	// No links yet.
	request := httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
	request.AddCookie(createTestCookie("user-1"))
	w := env.do(t, request)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err := env.svc.CreateShortURL(context.Background(), "https://example.com/a", "user-1")
	require.NoError(t, err)
	_, err = env.svc.CreateShortURL(context.Background(), "https://example.com/b", "user-1")
	require.NoError(t, err)
	// Foreign link must not appear.
	_, err = env.svc.CreateShortURL(context.Background(), "https://example.com/c", "user-2")
	require.NoError(t, err)

	request = httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
	request.AddCookie(createTestCookie("user-1"))
	w = env.do(t, request)

	require.Equal(t, http.StatusOK, w.Code)

	var links []models.UserLink
	require.NoError(t, json.NewDecoder(w.Body).Decode(&links))
	assert.Len(t, links, 2)
	for _, link := range links {
		assert.True(t, strings.HasPrefix(link.ShortURL, "http://localhost:8080/"))
	}
}

func TestUpdateUserURLHandler(t *testing.T) {
	env := newTestEnv(t)

	link, err := env.svc.CreateShortURL(context.Background(), "https://example.com/old", "user-1")
	require.NoError(t, err)

	type want struct {
		statusCode int
		newURL     string
	}

	tests := []struct {
		name   string
		cookie string
		body   string
		want   want
	}{
		{
			name:   "positive test",
			cookie: "user-1",
			body:   `{"id":"` + link.ID + `","original_url":"https://example.com/new"}`,
			want: want{
				statusCode: http.StatusOK,
				newURL:     "https://example.com/new",
			},
		},
		{
			name:   "negative: not the owner",
			cookie: "user-2",
			body:   `{"id":"` + link.ID + `","original_url":"https://example.com/evil"}`,
			want: want{
				statusCode: http.StatusNotFound,
			},
		},
		{
			name:   "negative: unknown link",
			cookie: "user-1",
			body:   `{"id":"no-such-id","original_url":"https://example.com/new"}`,
			want: want{
				statusCode: http.StatusNotFound,
			},
		},
		{
			name:   "negative: invalid URL",
			cookie: "user-1",
			body:   `{"id":"` + link.ID + `","original_url":"not-a-url"}`,
			want: want{
				statusCode: http.StatusBadRequest,
			},
		},
		{
			name:   "negative: missing fields",
			cookie: "user-1",
			body:   `{"id":""}`,
			want: want{
				statusCode: http.StatusBadRequest,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPatch, "/api/user/urls", strings.NewReader(tt.body))
			request.Header.Set("Content-Type", "application/json")
			request.AddCookie(createTestCookie(tt.cookie))

			w := env.do(t, request)

			assert.Equal(t, tt.want.statusCode, w.Code)

			if tt.want.newURL != "" {
				var updated models.Link
				require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
				assert.Equal(t, tt.want.newURL, updated.OriginalURL)
				assert.Equal(t, link.ShortCode, updated.ShortCode)
			}
		})
	}
}
