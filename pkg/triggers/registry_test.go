package triggers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	kind    models.TriggerType
	name    string
	matches bool
	parseErr error
}

func (s *stubHandler) Type() models.TriggerType  { return s.kind }
func (s *stubHandler) Schema() map[string]any    { return nil }
func (s *stubHandler) ValidateConfig(map[string]any) error { return nil }

func (s *stubHandler) ParsePayload(_ context.Context, _ *models.AgentTrigger, raw map[string]any) (*models.TriggerPayload, error) {
	if s.parseErr != nil {
		return nil, s.parseErr
	}

	return &models.TriggerPayload{
		Data:     map[string]any{"handler": s.name},
		Metadata: models.TriggerMetadata{Source: string(s.kind), RawData: raw},
	}, nil
}

func (s *stubHandler) MatchesFilters(*models.TriggerPayload, *models.AgentTrigger) (bool, error) {
	return s.matches, nil
}

func TestRegisterDefaults(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaults(slog.Default())

	expected := []models.TriggerType{
		models.TriggerTypeEmailReceived,
		models.TriggerTypeWebhook,
		models.TriggerTypeSchedule,
		models.TriggerTypeManual,
		models.TriggerTypeCRMEvent,
		models.TriggerTypePaymentReceived,
	}

	assert.Len(t, registry.TriggerTypes(), len(expected))

	for _, kind := range expected {
		handler, err := registry.Handler(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, handler.Type())
	}
}

func TestRegister_LastRegistrationWins(t *testing.T) {
	registry := NewRegistry(slog.Default())

	first := &stubHandler{kind: models.TriggerTypeManual, name: "first", matches: true}
	second := &stubHandler{kind: models.TriggerTypeManual, name: "second", matches: true}

	registry.Register(first)
	registry.Register(second)

	trigger := &models.AgentTrigger{TriggerType: models.TriggerTypeManual}

	payload, err := registry.ProcessTrigger(context.Background(), trigger, map[string]any{})

	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "second", payload.Data["handler"])
	assert.Len(t, registry.TriggerTypes(), 1)
}

func TestProcessTrigger_UnknownType(t *testing.T) {
	registry := NewRegistry(slog.Default())

	trigger := &models.AgentTrigger{TriggerType: "carrier_pigeon"}

	payload, err := registry.ProcessTrigger(context.Background(), trigger, map[string]any{})

	assert.ErrorIs(t, err, ErrUnknownTriggerType)
	assert.Nil(t, payload)
}

func TestProcessTrigger_FilteredOutReturnsNil(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.Register(&stubHandler{kind: models.TriggerTypeWebhook, matches: false})

	trigger := &models.AgentTrigger{TriggerType: models.TriggerTypeWebhook}

	payload, err := registry.ProcessTrigger(context.Background(), trigger, map[string]any{})

	require.NoError(t, err)
	assert.Nil(t, payload, "filtered-out events return nil payload, not an error")
}

func TestProcessTrigger_ParseErrorPropagates(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.Register(&stubHandler{
		kind:     models.TriggerTypeManual,
		parseErr: errors.New("missing required input"),
	})

	trigger := &models.AgentTrigger{TriggerType: models.TriggerTypeManual}

	_, err := registry.ProcessTrigger(context.Background(), trigger, map[string]any{})

	assert.ErrorContains(t, err, "missing required input")
}

func TestSetupTrigger_WithoutLifecycleIsNoop(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.Register(&stubHandler{kind: models.TriggerTypeManual, matches: true})

	trigger := &models.AgentTrigger{TriggerType: models.TriggerTypeManual}

	values, err := registry.SetupTrigger(context.Background(), trigger)

	require.NoError(t, err)
	assert.Nil(t, values)
	assert.NoError(t, registry.TeardownTrigger(context.Background(), trigger))
}

func TestSetupTrigger_WebhookProvisions(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaults(slog.Default())

	trigger := &models.AgentTrigger{
		TriggerType: models.TriggerTypeWebhook,
		Config:      map[string]any{},
	}

	values, err := registry.SetupTrigger(context.Background(), trigger)

	require.NoError(t, err)
	assert.NotEmpty(t, values["url"])
	assert.NotEmpty(t, values["secret"])
}

func TestValidateConfig_SchemaViolation(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaults(slog.Default())

	trigger := &models.AgentTrigger{
		TriggerType: models.TriggerTypeSchedule,
		Config:      map[string]any{"cron": 42},
	}

	assert.ErrorIs(t, registry.ValidateConfig(trigger), ErrInvalidConfig)
}

func TestValidateConfig_HandlerRule(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaults(slog.Default())

	trigger := &models.AgentTrigger{
		TriggerType: models.TriggerTypeSchedule,
		Config:      map[string]any{"cron": "61 * * * *"},
	}

	assert.ErrorIs(t, registry.ValidateConfig(trigger), ErrInvalidConfig)
}
