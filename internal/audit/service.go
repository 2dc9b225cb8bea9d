package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minttenant/tenantcore/internal/models"
)

// Service persists audit events: sign-ins, sign-outs and feature commits.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) Record(ctx context.Context, event models.AuditEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	details, _ := json.Marshal(event.Details)

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (id, tenant, session_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Tenant, event.SessionID, event.Action, details, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

type Query struct {
	Tenant string
	Action string
	Limit  int
}

func (s *Service) List(ctx context.Context, q Query) ([]models.AuditEvent, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	query := `SELECT id, tenant, session_id, action, details, created_at
			  FROM audit_logs WHERE tenant = $1`
	args := []any{q.Tenant}
	if q.Action != "" {
		query += " AND action = $2"
		args = append(args, q.Action)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, q.Limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var (
			e       models.AuditEvent
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.Tenant, &e.SessionID, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		events = append(events, e)
	}
	return events, nil
}
