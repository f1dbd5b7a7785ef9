package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"community-service/internal/logger"
	"community-service/internal/observability"
	"community-service/internal/rabbitmq"
)

const AuditRoutingKey = "community-service.audit"

const auditSchemaVersion = 1

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Envelope matches the log-collector audit_log schema.
type Envelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventID       string       `json:"event_id"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        string       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload is the payload for audit_log events. Action and Result are set for domain
// mutations and left empty for free-form log lines.
type AuditPayload struct {
	Level    string `json:"level"`
	Text     string `json:"text"`
	Action   string `json:"action,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

type AuditEmitter struct {
	publisher   rabbitmq.Publisher
	service     string
	environment string
}

func NewAuditEmitter(publisher rabbitmq.Publisher, service, environment string) *AuditEmitter {
	return &AuditEmitter{publisher: publisher, service: service, environment: environment}
}

func (e *AuditEmitter) EmitAudit(ctx context.Context, level, text, requestID, userID string) {
	e.emit(ctx, requestID, userID, AuditPayload{Level: level, Text: text})
}

// EmitAction audits a mutation with its outcome. A nil err records success.
func (e *AuditEmitter) EmitAction(ctx context.Context, requestID, userID, action, targetID string, err error) {
	payload := AuditPayload{
		Level:    LevelInfo,
		Text:     action,
		Action:   action,
		TargetID: targetID,
		Result:   "success",
	}
	if err != nil {
		payload.Level = LevelWarn
		payload.Result = "failed"
		payload.Error = err.Error()
	}
	e.emit(ctx, requestID, userID, payload)
}

func (e *AuditEmitter) emit(ctx context.Context, requestID, userID string, payload AuditPayload) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: auditSchemaVersion,
		EventID:       uuid.NewString(),
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, AuditRoutingKey, envelope); err != nil {
		observability.IncAMQPPublishError()
		logger.Warn("failed to publish audit log", "error", err)
		return
	}
	observability.IncAuditEventPublished(payload.Action)
}
