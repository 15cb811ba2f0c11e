package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	userDomain "github.com/davicafu/imagelab/internal/user/domain"
)

// InMemoryUserRepo simula UserRepository sobre mapas indexados por id y uid externo.
type InMemoryUserRepo struct {
	Users map[uuid.UUID]*userDomain.User
	byUID map[string]uuid.UUID
	mu    sync.Mutex
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		Users: make(map[uuid.UUID]*userDomain.User),
		byUID: make(map[string]uuid.UUID),
	}
}

// Verificación estática del port.
var _ userDomain.UserRepository = (*InMemoryUserRepo)(nil)

func (r *InMemoryUserRepo) Create(ctx context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.Users[u.ID] = &cp
	r.byUID[u.ExternalUID] = u.ID
	return nil
}

func (r *InMemoryUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) FindByExternalUID(ctx context.Context, externalUID string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUID[externalUID]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	cp := *r.Users[id]
	return &cp, nil
}

// StaticVerifier devuelve siempre el mismo uid externo (o el error configurado).
type StaticVerifier struct {
	UID      string
	FailWith error
}

var _ userDomain.TokenVerifier = (*StaticVerifier)(nil)

func (v *StaticVerifier) Verify(ctx context.Context, token string) (string, error) {
	if v.FailWith != nil {
		return "", v.FailWith
	}
	return v.UID, nil
}
