package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/course-backoffice/internal/model"
)

// ResourceRepo is the generic document store behind the back office's
// content endpoints (courses, news, articles ...). Each row carries a kind,
// an id and an opaque JSON body.
type ResourceRepo struct{ DB *sql.DB }

func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{DB: db} }

// List returns one page of resources of a kind, newest first, plus the total count.
func (r *ResourceRepo) List(ctx context.Context, kind string, limit, offset int) ([]model.Resource, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM resources WHERE kind=?", kind).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, kind, body, created_by, created_at, updated_at FROM resources WHERE kind=? ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		kind, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Resource, 0, limit)
	for rows.Next() {
		var (
			res  model.Resource
			body []byte
			by   sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.Kind, &body, &by, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, 0, err
		}
		res.Body = json.RawMessage(body)
		res.CreatedBy = by.String
		out = append(out, res)
	}
	return out, total, rows.Err()
}

func (r *ResourceRepo) Get(ctx context.Context, kind, id string) (*model.Resource, error) {
	var (
		res  model.Resource
		body []byte
		by   sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, kind, body, created_by, created_at, updated_at FROM resources WHERE kind=? AND id=? LIMIT 1",
		kind, id).Scan(&res.ID, &res.Kind, &body, &by, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	res.Body = json.RawMessage(body)
	res.CreatedBy = by.String
	return &res, nil
}

func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO resources (id, kind, body, created_by, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		res.ID, res.Kind, []byte(res.Body), res.CreatedBy, now, now)
	if err != nil {
		return translate(err)
	}
	res.CreatedAt, res.UpdatedAt = now, now
	return nil
}

// Update replaces the body of an existing resource.
func (r *ResourceRepo) Update(ctx context.Context, kind, id string, body json.RawMessage) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE resources SET body=?, updated_at=? WHERE kind=? AND id=?",
		[]byte(body), time.Now().UTC(), kind, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *ResourceRepo) Delete(ctx context.Context, kind, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM resources WHERE kind=? AND id=?", kind, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
