package store

import (
	"context"
	"database/sql"
	"time"
)

// AuditStore is a write-mostly sink. Callers treat Record as fire-and-forget:
// a write error must never abort the operation being audited.
type AuditStore interface {
	Record(ctx context.Context, actor, action, entityType, entityID, details string) error
	List(ctx context.Context, since time.Time, limit int) ([]AuditRecord, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) Record(ctx context.Context, actor, action, entityType, entityID, details string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log(actor, action, entity_type, entity_id, details, created_at) VALUES(?,?,?,?,?,?)`,
		actor, action, entityType, entityID, details, time.Now().UTC())
	return err
}

func (s *auditStore) List(ctx context.Context, since time.Time, limit int) ([]AuditRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor, action, entity_type, entity_id, details, created_at
		 FROM audit_log WHERE created_at>=? ORDER BY created_at DESC LIMIT ?`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRecord
	for rows.Next() {
		var r AuditRecord
		if err := rows.Scan(&r.ID, &r.Actor, &r.Action, &r.EntityType, &r.EntityID, &r.Details, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *auditStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
