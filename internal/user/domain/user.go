package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrAuthUnavailable = errors.New("auth service unavailable")
)

// User representa un usuario del sistema. ExternalUID es la identidad
// verificada por el proveedor externo de autenticación.
type User struct {
	ID          uuid.UUID `json:"id"`
	ExternalUID string    `json:"external_uid"`
	Email       string    `json:"email"`
	Nombre      string    `json:"nombre"`
	CreatedAt   time.Time `json:"created_at"`
}

// ---------- Interfaces (Ports) ----------

// UserRepository resuelve identidades externas a usuarios internos.
type UserRepository interface {
	// Debe devolver ErrUserNotFound si no existe.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Debe devolver ErrUserNotFound si no existe.
	FindByExternalUID(ctx context.Context, externalUID string) (*User, error)

	Create(ctx context.Context, u *User) error
}

// TokenVerifier es el colaborador externo de verificación de identidad.
// Devuelve el uid externo contenido en el token.
type TokenVerifier interface {
	// Debe devolver ErrInvalidToken si el token no verifica y
	// ErrAuthUnavailable si el servicio de identidad no responde.
	Verify(ctx context.Context, token string) (string, error)
}
