package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type ContentStore interface {
	ListByKind(ctx context.Context, kind string) ([]ContentEntry, error)
	ListPublishedByKind(ctx context.Context, kind string) ([]ContentEntry, error)
	Get(ctx context.Context, id string) (*ContentEntry, error)
	Create(ctx context.Context, e *ContentEntry) error
	Update(ctx context.Context, e *ContentEntry) error
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) error
}

type contentStore struct {
	db *sql.DB
}

func NewContentStore(db *sql.DB) ContentStore {
	return &contentStore{db: db}
}

const contentColumns = `id, kind, title, payload, published, created_by, created_at, updated_at`

func (s *contentStore) listByKind(ctx context.Context, kind string, publishedOnly bool) ([]ContentEntry, error) {
	q := `SELECT ` + contentColumns + ` FROM content_entries WHERE kind=?`
	if publishedOnly {
		q += ` AND published=1`
	}
	q += ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ContentEntry
	for rows.Next() {
		e, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *contentStore) ListByKind(ctx context.Context, kind string) ([]ContentEntry, error) {
	return s.listByKind(ctx, kind, false)
}

func (s *contentStore) ListPublishedByKind(ctx context.Context, kind string) ([]ContentEntry, error) {
	return s.listByKind(ctx, kind, true)
}

func (s *contentStore) Get(ctx context.Context, id string) (*ContentEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_entries WHERE id=?`, id)
	e, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func scanContent(row rowScanner) (*ContentEntry, error) {
	var e ContentEntry
	var payload string
	var published int
	if err := row.Scan(&e.ID, &e.Kind, &e.Title, &payload, &published, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Payload = json.RawMessage(payload)
	e.Published = published == 1
	return &e, nil
}

func (s *contentStore) Create(ctx context.Context, e *ContentEntry) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if len(e.Payload) == 0 {
		e.Payload = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_entries(`+contentColumns+`) VALUES(?,?,?,?,?,?,?,?)`,
		e.ID, e.Kind, e.Title, string(e.Payload), boolToInt(e.Published), e.CreatedBy, now, now)
	return err
}

func (s *contentStore) Update(ctx context.Context, e *ContentEntry) error {
	now := time.Now().UTC()
	e.UpdatedAt = now
	if len(e.Payload) == 0 {
		e.Payload = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE content_entries SET title=?, payload=?, updated_at=? WHERE id=?`,
		e.Title, string(e.Payload), now, e.ID)
	return err
}

func (s *contentStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM content_entries WHERE id=?`, id)
	return err
}

func (s *contentStore) SetPublished(ctx context.Context, id string, published bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE content_entries SET published=?, updated_at=? WHERE id=?`,
		boolToInt(published), time.Now().UTC(), id)
	return err
}
