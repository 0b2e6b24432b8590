package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/course-backoffice/internal/model"
)

const userColumns = "id,username,email,password_hash,full_name,phone_number,membership_level,status,created_at,updated_at,deleted_at"

// UserRepo persists rows of the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user. A unique key violation is reported as a
// *DuplicateError naming "username" or "email".
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id,username,email,password_hash,full_name,phone_number,membership_level,status,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Username, strings.ToLower(u.Email), u.PasswordHash, u.FullName, u.PhoneNumber,
		string(u.MembershipLevel), string(u.Status), now, now)
	if err != nil {
		return translate(err, "username", "email")
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetByUsername fetches a user by exact username, including soft-deleted rows.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return exists(ctx, r.DB, "SELECT EXISTS(SELECT 1 FROM users WHERE username=?)", username)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.DB, "SELECT EXISTS(SELECT 1 FROM users WHERE email=?)", strings.ToLower(email))
}

// SetStatus changes the account status of the user with the given username.
func (r *UserRepo) SetStatus(ctx context.Context, username string, status model.AccountStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=?, updated_at=? WHERE username=? AND deleted_at IS NULL",
		string(status), time.Now().UTC(), username)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetPasswordHash replaces the password hash of user id.
func (r *UserRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=? WHERE id=? AND deleted_at IS NULL",
		hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		fullName sql.NullString
		phone    sql.NullString
		level    string
		status   string
		deleted  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &phone,
		&level, &status, &u.CreatedAt, &u.UpdatedAt, &deleted)
	if err != nil {
		return nil, translate(err)
	}
	u.FullName = fullName.String
	u.PhoneNumber = phone.String
	u.MembershipLevel = model.MembershipLevel(level)
	u.Status = model.AccountStatus(status)
	if deleted.Valid {
		t := deleted.Time
		u.DeletedAt = &t
	}
	return &u, nil
}

func exists(ctx context.Context, db *sql.DB, query string, arg any) (bool, error) {
	var ok bool
	if err := db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// requireAffected turns an UPDATE that matched nothing into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
