package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/course-backoffice/internal/model"
)

const adminColumns = "id,username,email,password_hash,full_name,status,created_at,updated_at"

// AdminRepo persists rows of the `admins` table. Administrators live apart
// from users; uniqueness of username and email is enforced per table.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

func (r *AdminRepo) Create(ctx context.Context, a *model.Administrator) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (id,username,email,password_hash,full_name,status,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)",
		a.ID, a.Username, strings.ToLower(a.Email), a.PasswordHash, a.FullName, string(a.Status), now, now)
	if err != nil {
		return translate(err, "username", "email")
	}
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*model.Administrator, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE username=? LIMIT 1", username)
	return scanAdmin(row)
}

func (r *AdminRepo) GetByID(ctx context.Context, id string) (*model.Administrator, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE id=? LIMIT 1", id)
	return scanAdmin(row)
}

func (r *AdminRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return exists(ctx, r.DB, "SELECT EXISTS(SELECT 1 FROM admins WHERE username=?)", username)
}

func (r *AdminRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.DB, "SELECT EXISTS(SELECT 1 FROM admins WHERE email=?)", strings.ToLower(email))
}

// SetStatus changes the account status of the administrator with the given id.
func (r *AdminRepo) SetStatus(ctx context.Context, id string, status model.AccountStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET status=?, updated_at=? WHERE id=?",
		string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanAdmin(row *sql.Row) (*model.Administrator, error) {
	var (
		a        model.Administrator
		fullName sql.NullString
		status   string
	)
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &fullName, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	a.FullName = fullName.String
	a.Status = model.AccountStatus(status)
	return &a, nil
}
