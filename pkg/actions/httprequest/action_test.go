package httprequest

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecCtx() *models.ExecutionContext {
	return &models.ExecutionContext{
		ExecutionID: "exec-1",
		Variables:   map[string]any{},
		Steps:       map[string]*models.ExecutionStep{},
	}
}

func TestNewAction(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		_, err := NewAction(map[string]any{"method": "GET"})
		assert.ErrorIs(t, err, ErrURLMissing)
	})

	t.Run("defaults", func(t *testing.T) {
		action, err := NewAction(map[string]any{"url": "http://example.com"})
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, action.Method)
		assert.Equal(t, 1, action.Retry.Attempts)
	})

	t.Run("method uppercased", func(t *testing.T) {
		action, err := NewAction(map[string]any{"url": "http://example.com", "method": "post"})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, action.Method)
	})
}

func TestExecute_ParsesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "c-1", "ok": true}`))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"url":     server.URL,
		"method":  "POST",
		"headers": map[string]any{"X-Api-Key": "secret"},
		"body":    `{"name": "test"}`,
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), testExecCtx(), slog.Default())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 200, result.Data["statusCode"])

	body, ok := result.Data["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c-1", body["id"])
}

func TestExecute_NonJSONBodyReturnedAsString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), testExecCtx(), slog.Default())

	require.NoError(t, err)
	assert.Equal(t, "plain text", result.Data["body"])
}

func TestExecute_ClientErrorIsUnsuccessful(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), testExecCtx(), slog.Default())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "422")
}

func TestExecute_RetriesOnServerError(t *testing.T) {
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)

			return
		}

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"url":   server.URL,
		"retry": map[string]any{"attempts": float64(3)},
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), testExecCtx(), slog.Default())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), hits.Load())
}
