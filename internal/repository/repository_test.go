package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-backoffice/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.uq_users_email'"}
	var de *DuplicateError
	require.ErrorAs(t, translate(dup, "username", "email"), &de)
	assert.Equal(t, "email", de.Field)
	assert.Equal(t, "duplicate email", de.Error())

	// the entry value must not decide the field
	dup = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'email' for key 'users.uq_users_username'"}
	require.ErrorAs(t, translate(dup, "username", "email"), &de)
	assert.Equal(t, "username", de.Field)

	dup = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'PRIMARY'"}
	require.ErrorAs(t, translate(dup, "username"), &de)
	assert.Empty(t, de.Field)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users (id,username,email,password_hash,full_name,phone_number,membership_level,status,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)").
		WithArgs("u1", "alice", "alice@example.com", "hash", "", "", "NORMAL", "ACTIVE", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{ID: "u1", Username: "alice", Email: "Alice@Example.com", PasswordHash: "hash",
		MembershipLevel: model.MembershipNormal, Status: model.StatusActive}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users (id,username,email,password_hash,full_name,phone_number,membership_level,status,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice' for key 'users.uq_users_username'"})

	err := repo.Create(context.Background(), &model.User{ID: "u1", Username: "alice"})
	var de *DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "username", de.Field)
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()
	deleted := now.Add(-time.Hour)

	cols := []string{"id", "username", "email", "password_hash", "full_name", "phone_number",
		"membership_level", "status", "created_at", "updated_at", "deleted_at"}
	mock.ExpectQuery("SELECT " + userColumns + " FROM users WHERE username=? LIMIT 1").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("u1", "alice", "alice@example.com", "hash", nil, "+4912345", "VIP", "LOCKED", now, now, deleted))
	mock.ExpectQuery("SELECT " + userColumns + " FROM users WHERE username=? LIMIT 1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(cols))

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Empty(t, u.FullName)
	assert.Equal(t, "+4912345", u.PhoneNumber)
	assert.Equal(t, model.MembershipVIP, u.MembershipLevel)
	assert.Equal(t, model.StatusLocked, u.Status)
	require.NotNil(t, u.DeletedAt)
	assert.True(t, deleted.Equal(*u.DeletedAt))

	_, err = repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_ExistsAndSetStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT EXISTS(SELECT 1 FROM users WHERE email=?)").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
	mock.ExpectExec("UPDATE users SET status=?, updated_at=? WHERE username=? AND deleted_at IS NULL").
		WithArgs("LOCKED", sqlmock.AnyArg(), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET status=?, updated_at=? WHERE username=? AND deleted_at IS NULL").
		WithArgs("LOCKED", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ExistsByEmail(context.Background(), "ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, repo.SetStatus(context.Background(), "alice", model.StatusLocked))
	assert.ErrorIs(t, repo.SetStatus(context.Background(), "ghost", model.StatusLocked), ErrNotFound)
}

func TestUserRepo_SetPasswordHash(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET password_hash=?, updated_at=? WHERE id=? AND deleted_at IS NULL").
		WithArgs("newhash", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET password_hash=?, updated_at=? WHERE id=? AND deleted_at IS NULL").
		WithArgs("newhash", sqlmock.AnyArg(), "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.SetPasswordHash(context.Background(), "u1", "newhash"))
	assert.ErrorIs(t, repo.SetPasswordHash(context.Background(), "u2", "newhash"), ErrNotFound)
}

func TestAdminRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAdminRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT "+adminColumns+" FROM admins WHERE id=? LIMIT 1").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "status", "created_at", "updated_at"}).
			AddRow("a1", "root", "root@example.com", "hash", "Root", "ACTIVE", now, now))

	a, err := repo.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "root", a.Username)
	assert.Equal(t, "Root", a.FullName)
	assert.Equal(t, model.StatusActive, a.Status)
}

func TestTokenRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	exp := time.Now().Add(time.Hour).UTC()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO refresh_tokens (principal_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)").
		WithArgs("u1", "h1", exp, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT id, principal_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1").
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "principal_id", "token_hash", "expires_at", "created_at"}).
			AddRow(7, "u1", "h1", exp, exp))
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE token_hash=?").
		WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE principal_id=?").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at < ?").
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("lost connection"))

	row := &model.RefreshToken{PrincipalID: "u1", TokenHash: "h1", ExpiresAt: exp}
	require.NoError(t, repo.Insert(ctx, row))
	assert.Equal(t, uint64(7), row.ID)

	got, err := repo.FindByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.PrincipalID)

	n, err := repo.DeleteByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByPrincipal(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repo.DeleteExpiredBefore(ctx, time.Now())
	assert.EqualError(t, err, "lost connection")
}

func TestResourceRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewResourceRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()
	cols := []string{"id", "kind", "body", "created_by", "created_at", "updated_at"}

	mock.ExpectQuery("SELECT COUNT(*) FROM resources WHERE kind=?").
		WithArgs("courses").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectQuery("SELECT id, kind, body, created_by, created_at, updated_at FROM resources WHERE kind=? ORDER BY created_at DESC, id LIMIT ? OFFSET ?").
		WithArgs("courses", 10, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c2", "courses", []byte(`{"t":2}`), "a1", now, now).
			AddRow("c1", "courses", []byte(`{"t":1}`), nil, now, now))
	mock.ExpectQuery("SELECT id, kind, body, created_by, created_at, updated_at FROM resources WHERE kind=? AND id=? LIMIT 1").
		WithArgs("courses", "zz").
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectExec("UPDATE resources SET body=?, updated_at=? WHERE kind=? AND id=?").
		WithArgs([]byte(`{"t":3}`), sqlmock.AnyArg(), "courses", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM resources WHERE kind=? AND id=?").
		WithArgs("courses", "zz").
		WillReturnResult(sqlmock.NewResult(0, 0))

	items, total, err := repo.List(ctx, "courses", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].CreatedBy)
	assert.Empty(t, items[1].CreatedBy)
	assert.JSONEq(t, `{"t":1}`, string(items[1].Body))

	_, err = repo.Get(ctx, "courses", "zz")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, repo.Update(ctx, "courses", "c1", json.RawMessage(`{"t":3}`)))
	assert.ErrorIs(t, repo.Delete(ctx, "courses", "zz"), ErrNotFound)
}
