package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/minttenant/tenantcore/internal/audit"
	"github.com/minttenant/tenantcore/internal/models"
	"github.com/minttenant/tenantcore/internal/queue"
)

type AuditWorker struct {
	svc *audit.Service
}

func NewAuditWorker(svc *audit.Service) *AuditWorker {
	return &AuditWorker{svc: svc}
}

func (w *AuditWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	err := w.svc.Record(ctx, models.AuditEvent{
		Tenant:    payload.Tenant,
		SessionID: payload.SessionID,
		Action:    payload.Action,
		Details:   payload.Details,
	})
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	slog.Info("audit event recorded", "tenant", payload.Tenant, "action", payload.Action)
	return nil
}
