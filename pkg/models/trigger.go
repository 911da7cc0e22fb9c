package models

import "time"

// TriggerType identifies the kind of external event that starts a workflow run.
type TriggerType string

const (
	TriggerTypeEmailReceived   TriggerType = "email_received"
	TriggerTypeWebhook         TriggerType = "webhook"
	TriggerTypeSchedule        TriggerType = "schedule"
	TriggerTypeManual          TriggerType = "manual"
	TriggerTypeCRMEvent        TriggerType = "crm_event"
	TriggerTypePaymentReceived TriggerType = "payment_received"
)

// AgentTrigger is the event type and filter configuration owned by the
// workflow's trigger node. The config shape depends on TriggerType.
type AgentTrigger struct {
	TriggerType TriggerType    `json:"triggerType" validate:"required"`
	Config      map[string]any `json:"config"`
}

// TriggerMetadata describes the provenance of a normalized payload.
type TriggerMetadata struct {
	ReceivedAt time.Time      `json:"receivedAt"`
	Source     string         `json:"source"`
	RawData    map[string]any `json:"rawData,omitempty"`
}

// TriggerPayload is a trigger handler's normalized output. It is immutable
// once produced; the runtime only reads from it.
type TriggerPayload struct {
	Data     map[string]any  `json:"data"`
	Metadata TriggerMetadata `json:"metadata"`
}
