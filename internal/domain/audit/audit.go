package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraisal/internal/domain/workflow"
	"appraisal/internal/requestctx"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Details    json.RawMessage `json:"details,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID string, details any) error {
	detailsJSON, err := marshalDetails(details)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, details, request_id)
    VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6)
  `, actorID, action, entityType, entityID, detailsJSON, requestctx.GetRequestID(ctx))
	return err
}

// RegisterWorkflowHandler records every gate transition inside the
// transition's own transaction, so the trail and the state change commit
// or roll back together.
func (s *Service) RegisterWorkflowHandler(dispatcher *workflow.Dispatcher) {
	dispatcher.Register(s.recordTransition)
}

func (s *Service) recordTransition(ctx context.Context, tx pgx.Tx, evt workflow.TransitionEvent) error {
	details, err := marshalDetails(map[string]any{
		"periodId":    evt.Key.PeriodID,
		"employeeId":  evt.Key.EmployeeID,
		"stage":       evt.Key.Stage,
		"evaluatorId": evt.Key.EvaluatorID,
		"from":        evt.From,
		"to":          evt.To,
		"comment":     evt.Comment,
	})
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
    INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, details, request_id)
    VALUES (NULLIF($1, '')::uuid, $2, 'step_approval', $3, $4, $5)
  `, evt.ActorID, "workflow."+string(evt.To), evt.Key.EmployeeID, details, requestctx.GetRequestID(ctx))
	return err
}

func marshalDetails(details any) ([]byte, error) {
	if details == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(details)
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery(
		"SELECT id, COALESCE(actor_id::text, ''), action, entity_type, entity_id, COALESCE(request_id, ''), created_at, details",
		filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.CreatedAt, &evt.Details); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_logs WHERE 1=1"
	args := []any{}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		query += fmt.Sprintf(" AND actor_id::text = $%d", len(args))
	}
	return query, args
}
