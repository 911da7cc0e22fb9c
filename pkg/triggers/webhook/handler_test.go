package webhook

import (
	"context"
	"log/slog"
	"testing"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *Handler {
	return NewHandler(slog.Default())
}

func TestValidateConfig(t *testing.T) {
	handler := newTestHandler()

	testCases := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{"empty config", map[string]any{}, false},
		{"valid IPv4", map[string]any{"allowedIPs": []any{"203.0.113.7"}}, false},
		{"valid CIDR", map[string]any{"allowedIPs": []any{"10.0.0.0/8"}}, false},
		{"malformed address", map[string]any{"allowedIPs": []any{"not-an-ip"}}, true},
		{"malformed CIDR", map[string]any{"allowedIPs": []any{"10.0.0.0/99"}}, true},
		{"IPv6 rejected", map[string]any{"allowedIPs": []any{"::1"}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := handler.ValidateConfig(tc.config)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIPEntry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchesFilters_IPAllowlist(t *testing.T) {
	handler := newTestHandler()
	ctx := context.Background()

	testCases := []struct {
		name    string
		allowed []any
		ip      string
		want    bool
	}{
		{"no allowlist accepts any", nil, "198.51.100.1", true},
		{"exact IP match", []any{"203.0.113.7"}, "203.0.113.7", true},
		{"exact IP mismatch", []any{"203.0.113.7"}, "203.0.113.8", false},
		{"CIDR contains", []any{"10.0.0.0/8"}, "10.1.2.3", true},
		{"CIDR excludes", []any{"10.0.0.0/8"}, "192.168.1.1", false},
		{"unparseable client IP", []any{"10.0.0.0/8"}, "garbage", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			trigger := &models.AgentTrigger{
				TriggerType: models.TriggerTypeWebhook,
				Config:      map[string]any{"allowedIPs": tc.allowed},
			}

			payload, err := handler.ParsePayload(ctx, trigger, map[string]any{
				"method": "post",
				"ip":     tc.ip,
			})
			require.NoError(t, err)

			matched, err := handler.MatchesFilters(payload, trigger)

			require.NoError(t, err)
			assert.Equal(t, tc.want, matched)
		})
	}
}

func TestMatchesFilters_RequiredHeaders(t *testing.T) {
	handler := newTestHandler()
	ctx := context.Background()

	trigger := &models.AgentTrigger{
		TriggerType: models.TriggerTypeWebhook,
		Config: map[string]any{
			"headers": map[string]any{"X-Api-Key": "secret-key"},
		},
	}

	testCases := []struct {
		name    string
		headers map[string]any
		want    bool
	}{
		{"exact match", map[string]any{"X-Api-Key": "secret-key"}, true},
		{"case-insensitive header name", map[string]any{"x-api-key": "secret-key"}, true},
		{"wrong value", map[string]any{"X-Api-Key": "other"}, false},
		{"missing header", map[string]any{"Content-Type": "application/json"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := handler.ParsePayload(ctx, trigger, map[string]any{
				"method":  "POST",
				"headers": tc.headers,
			})
			require.NoError(t, err)

			matched, err := handler.MatchesFilters(payload, trigger)

			require.NoError(t, err)
			assert.Equal(t, tc.want, matched)
		})
	}
}

func TestParsePayload_NormalizesMethod(t *testing.T) {
	handler := newTestHandler()

	payload, err := handler.ParsePayload(context.Background(), nil, map[string]any{
		"method": "post",
		"body":   map[string]any{"event": "push"},
		"query":  map[string]any{"v": "1"},
		"ip":     "203.0.113.7",
	})

	require.NoError(t, err)
	assert.Equal(t, "POST", payload.Data["method"])
	assert.Equal(t, "webhook", payload.Metadata.Source)
}

func TestSetup_GeneratesUniquePairs(t *testing.T) {
	handler := newTestHandler()
	ctx := context.Background()

	trigger := &models.AgentTrigger{TriggerType: models.TriggerTypeWebhook, Config: map[string]any{}}

	first, err := handler.Setup(ctx, trigger)
	require.NoError(t, err)
	second, err := handler.Setup(ctx, trigger)
	require.NoError(t, err)

	assert.NotEmpty(t, first["url"])
	assert.NotEmpty(t, first["secret"])
	assert.NotEqual(t, first["url"], second["url"])
	assert.NotEqual(t, first["secret"], second["secret"])

	assert.NoError(t, handler.Teardown(ctx, trigger))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment.completed","amount":100}`)
	secret := "test-secret"

	signature := Sign(secret, body)

	assert.True(t, VerifySignature(secret, body, signature))

	t.Run("different secret never verifies", func(t *testing.T) {
		other := Sign("other-secret", body)
		assert.False(t, VerifySignature(secret, body, other))
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, []byte(`{"event":"tampered"}`), signature))
	})

	t.Run("truncated signature rejected", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, body, signature[:16]))
	})

	t.Run("malformed hex rejected", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, body, "zz-not-hex"))
	})

	t.Run("empty signature rejected", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, body, ""))
	})
}
