package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	userDomain "github.com/davicafu/imagelab/internal/user/domain"
)

type UserRepoPostgres struct {
	db *sql.DB
}

func NewUserRepoPostgres(db *sql.DB) *UserRepoPostgres {
	return &UserRepoPostgres{db: db}
}

func (r *UserRepoPostgres) Create(ctx context.Context, u *userDomain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, external_uid, email, nombre, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.ExternalUID, u.Email, u.Nombre, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepoPostgres) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_uid, email, nombre, created_at FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func (r *UserRepoPostgres) FindByExternalUID(ctx context.Context, externalUID string) (*userDomain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_uid, email, nombre, created_at FROM users WHERE external_uid=$1`, externalUID)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*userDomain.User, error) {
	var u userDomain.User
	if err := row.Scan(&u.ID, &u.ExternalUID, &u.Email, &u.Nombre, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		external_uid TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		nombre TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ userDomain.UserRepository = (*UserRepoPostgres)(nil)
