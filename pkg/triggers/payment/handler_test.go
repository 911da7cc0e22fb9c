package payment

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
		wantErr error
	}{
		{"vipps", map[string]any{"provider": "vipps"}, nil},
		{"stripe with filters", map[string]any{"provider": "stripe", "minAmount": float64(100), "currency": "NOK"}, nil},
		{"unknown provider", map[string]any{"provider": "paypal"}, ErrInvalidProvider},
		{"missing provider", map[string]any{}, ErrInvalidProvider},
		{"negative min amount", map[string]any{"provider": "vipps", "minAmount": float64(-1)}, ErrNegativeMinAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := handler.ValidateConfig(tc.config)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchesFilters(t *testing.T) {
	handler := newTestHandler()
	ctx := context.Background()

	raw := map[string]any{
		"transactionId": "txn-1",
		"amount":        float64(250),
		"currency":      "nok",
		"status":        "captured",
		"provider":      "vipps",
		"customer":      map[string]any{"id": "cust-1"},
	}

	payload, err := handler.ParsePayload(ctx, nil, raw)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		config map[string]any
		want   bool
	}{
		{"no filters", map[string]any{"provider": "vipps"}, true},
		{"amount above minimum", map[string]any{"provider": "vipps", "minAmount": float64(100)}, true},
		{"amount equals minimum", map[string]any{"provider": "vipps", "minAmount": float64(250)}, true},
		{"amount below minimum", map[string]any{"provider": "vipps", "minAmount": float64(500)}, false},
		{"currency case-insensitive", map[string]any{"provider": "vipps", "currency": "nok"}, true},
		{"currency mismatch", map[string]any{"provider": "vipps", "currency": "USD"}, false},
		{
			"amount and currency AND together",
			map[string]any{"provider": "vipps", "minAmount": float64(100), "currency": "NOK"},
			true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			trigger := &models.AgentTrigger{TriggerType: models.TriggerTypePaymentReceived, Config: tc.config}

			matched, err := handler.MatchesFilters(payload, trigger)

			require.NoError(t, err)
			assert.Equal(t, tc.want, matched)
		})
	}
}

func TestParsePayload(t *testing.T) {
	handler := newTestHandler()

	payload, err := handler.ParsePayload(context.Background(), nil, map[string]any{
		"transactionId": "txn-42",
		"amount":        float64(99.5),
		"currency":      "usd",
		"status":        "captured",
		"customer":      map[string]any{"email": "bob@acme.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, "txn-42", payload.Data["transactionId"])
	assert.InDelta(t, 99.5, payload.Data["amount"], 0.0001)
	assert.Equal(t, "USD", payload.Data["currency"])
	assert.Equal(t, "captured", payload.Data["status"])
	assert.Equal(t, "payment", payload.Metadata.Source)
}
