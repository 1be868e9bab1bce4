package server

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("server: invalid credentials")

// identityProvider verifies a password login and yields the matching
// user.
type identityProvider interface {
	AuthenticatePassword(ctx context.Context, email string, password string) (User, error)
}

type localIdentityProvider struct {
	users userStore
}

func newLocalIdentityProvider(users userStore) *localIdentityProvider {
	return &localIdentityProvider{users: users}
}

func (p *localIdentityProvider) AuthenticatePassword(ctx context.Context, email string, password string) (User, error) {
	u, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			return User{}, errInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return User{}, errInvalidCredentials
	}
	return u, nil
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
