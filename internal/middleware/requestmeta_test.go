package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/easyforty/funnel-go/internal/handlers"
	"github.com/easyforty/funnel-go/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

func setupMetaAPI(t *testing.T) (*chi.Mux, huma.API, chan handlers.RequestMeta) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	metaChan := make(chan handlers.RequestMeta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		metaChan <- handlers.RequestMetaFromContext(ctx)

		out := &testOutput{}
		out.Body.OK = true

		return out, nil
	})

	return router, api, metaChan
}

func TestRequestMeta(t *testing.T) {
	t.Run("captures user agent", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		meta := <-metaChan
		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		meta := <-metaChan
		assert.Equal(t, "203.0.113.9", meta.ClientIP)
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Real-IP", "198.51.100.7")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		meta := <-metaChan
		assert.Equal(t, "198.51.100.7", meta.ClientIP)
	})

	t.Run("falls back to the remote address", func(t *testing.T) {
		router, _, metaChan := setupMetaAPI(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		meta := <-metaChan
		assert.NotEmpty(t, meta.ClientIP)
	})
}
