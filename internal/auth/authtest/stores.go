// Package authtest provides in-memory implementations of the auth store
// interfaces for tests.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/model"
	"github.com/iliyamo/course-backoffice/internal/repository"
)

var (
	_ auth.UserStore       = (*Users)(nil)
	_ auth.AdminStore      = (*Admins)(nil)
	_ auth.TokenRepository = (*Tokens)(nil)
)

// Users is an in-memory auth.UserStore.
type Users struct {
	mu   sync.Mutex
	byID map[string]*model.User
	// Err, when set, is returned by every method.
	Err error
}

func NewUsers() *Users { return &Users{byID: map[string]*model.User{}} }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, x := range s.byID {
		if x.Username == u.Username {
			return &repository.DuplicateError{Field: "username"}
		}
		if strings.EqualFold(x.Email, u.Email) {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	cp := *u
	cp.CreatedAt, cp.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	s.byID[u.ID] = &cp
	return nil
}

func (s *Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.GetByUsername(ctx, username)
	return existence(err)
}

func (s *Users) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, u := range s.byID {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Users) SetStatus(_ context.Context, username string, status model.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.byID {
		if u.Username == username && u.DeletedAt == nil {
			u.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Users) SetPasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.byID[id]
	if !ok || u.DeletedAt != nil {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

// Put stores u as is, bypassing uniqueness checks.
func (s *Users) Put(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.byID[u.ID] = &cp
}

// Admins is an in-memory auth.AdminStore.
type Admins struct {
	mu   sync.Mutex
	byID map[string]*model.Administrator
	Err  error
}

func NewAdmins() *Admins { return &Admins{byID: map[string]*model.Administrator{}} }

func (s *Admins) Create(_ context.Context, a *model.Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, x := range s.byID {
		if x.Username == a.Username {
			return &repository.DuplicateError{Field: "username"}
		}
		if strings.EqualFold(x.Email, a.Email) {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *Admins) GetByUsername(_ context.Context, username string) (*model.Administrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, a := range s.byID {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Admins) GetByID(_ context.Context, id string) (*model.Administrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Admins) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.GetByUsername(ctx, username)
	return existence(err)
}

func (s *Admins) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, a := range s.byID {
		if strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Admins) SetStatus(_ context.Context, id string, status model.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	return nil
}

func (s *Admins) Put(a *model.Administrator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.byID[a.ID] = &cp
}

// Tokens is an in-memory auth.TokenRepository keyed by token hash.
type Tokens struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[string]*model.RefreshToken
	Err    error
}

func NewTokens() *Tokens { return &Tokens{rows: map[string]*model.RefreshToken{}} }

func (s *Tokens) Insert(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, dup := s.rows[t.TokenHash]; dup {
		return &repository.DuplicateError{Field: "token_hash"}
	}
	s.nextID++
	cp := *t
	cp.ID = s.nextID
	cp.CreatedAt = time.Now().UTC()
	s.rows[t.TokenHash] = &cp
	t.ID = cp.ID
	return nil
}

func (s *Tokens) FindByHash(_ context.Context, hash string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.rows[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Tokens) DeleteByHash(_ context.Context, hash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if _, ok := s.rows[hash]; !ok {
		return 0, nil
	}
	delete(s.rows, hash)
	return 1, nil
}

func (s *Tokens) DeleteByPrincipal(_ context.Context, principalID string) (int64, error) {
	return s.deleteWhere(func(t *model.RefreshToken) bool { return t.PrincipalID == principalID })
}

func (s *Tokens) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return s.deleteWhere(func(t *model.RefreshToken) bool { return t.ExpiresAt.Before(cutoff) })
}

func (s *Tokens) deleteWhere(match func(*model.RefreshToken) bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for h, t := range s.rows {
		if match(t) {
			delete(s.rows, h)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored rows, expired ones included.
func (s *Tokens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// CountFor returns the number of rows owned by principalID.
func (s *Tokens) CountFor(principalID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.rows {
		if t.PrincipalID == principalID {
			n++
		}
	}
	return n
}

func existence(err error) (bool, error) {
	switch err {
	case nil:
		return true, nil
	case repository.ErrNotFound:
		return false, nil
	}
	return false, err
}

// Recorder is an auth.EventPublisher that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []auth.Event
}

func (r *Recorder) Publish(_ context.Context, ev auth.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []auth.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
