package store

import (
	"context"
	"database/sql"
	"time"
)

type NoticeStore interface {
	// GetActive returns the current notice when one is active, else nil.
	GetActive(ctx context.Context) (*Notice, error)
	Get(ctx context.Context) (*Notice, error)
	Put(ctx context.Context, n *Notice) error
}

type noticeStore struct {
	db *sql.DB
}

func NewNoticeStore(db *sql.DB) NoticeStore {
	return &noticeStore{db: db}
}

// The table holds a single row keyed by id=1.
func (s *noticeStore) Get(ctx context.Context) (*Notice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT message, notice_type, display_mode, active, updated_at FROM site_notice WHERE id=1`)
	var n Notice
	var active int
	if err := row.Scan(&n.Message, &n.NoticeType, &n.DisplayMode, &active, &n.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	n.Active = active == 1
	return &n, nil
}

func (s *noticeStore) GetActive(ctx context.Context) (*Notice, error) {
	n, err := s.Get(ctx)
	if err != nil || n == nil || !n.Active {
		return nil, err
	}
	return n, nil
}

func (s *noticeStore) Put(ctx context.Context, n *Notice) error {
	now := time.Now().UTC()
	n.UpdatedAt = now
	res, err := s.db.ExecContext(ctx,
		`UPDATE site_notice SET message=?, notice_type=?, display_mode=?, active=?, updated_at=? WHERE id=1`,
		n.Message, n.NoticeType, n.DisplayMode, boolToInt(n.Active), now)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO site_notice(id, message, notice_type, display_mode, active, updated_at) VALUES(1,?,?,?,?,?)`,
			n.Message, n.NoticeType, n.DisplayMode, boolToInt(n.Active), now)
	}
	return err
}
