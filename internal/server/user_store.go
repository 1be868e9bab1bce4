package server

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errUserExists = errors.New("server: user already exists")
var errUserNotFound = errors.New("server: user not found")

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

type userStore interface {
	Create(ctx context.Context, u User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Delete(ctx context.Context, id string) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type memoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byEmail map[string]string
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:    map[string]User{},
		byEmail: map[string]string{},
	}
}

func (s *memoryUserStore) Create(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return User{}, errUserExists
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return User{}, errUserNotFound
	}
	return s.byID[id], nil
}

func (s *memoryUserStore) GetByID(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, errUserNotFound
	}
	return u, nil
}

func (s *memoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return errUserNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, u.Email)
	return nil
}

type pgUserStore struct {
	q queryExecer
}

func newUserStore(pool *pgxpool.Pool) userStore {
	if pool == nil {
		return newMemoryUserStore()
	}
	return &pgUserStore{q: pool}
}

func (s *pgUserStore) Create(ctx context.Context, u User) (User, error) {
	tag, err := s.q.Exec(ctx, `
INSERT INTO iam.users (id, email, name, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO NOTHING;
`, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	if tag.RowsAffected() == 0 {
		return User{}, errUserExists
	}
	return u, nil
}

func (s *pgUserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.q.QueryRow(ctx, `
SELECT id::text, email, name, password_hash, created_at
FROM iam.users
WHERE email = $1;
`, normalizeEmail(email)).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, errUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *pgUserStore) GetByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.q.QueryRow(ctx, `
SELECT id::text, email, name, password_hash, created_at
FROM iam.users
WHERE id = $1;
`, id).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, errUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *pgUserStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM iam.users WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errUserNotFound
	}
	return nil
}

func newUserID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
