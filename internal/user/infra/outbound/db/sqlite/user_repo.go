package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	userDomain "github.com/davicafu/imagelab/internal/user/domain"
)

// UserRepoSQLite es el repositorio de usuarios para despliegues locales.
type UserRepoSQLite struct {
	db *sql.DB
}

func NewUserRepoSQLite(db *sql.DB) *UserRepoSQLite {
	return &UserRepoSQLite{db: db}
}

func (r *UserRepoSQLite) Create(ctx context.Context, u *userDomain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, external_uid, email, nombre, created_at)
		 VALUES (?,?,?,?,?)`,
		u.ID.String(), u.ExternalUID, u.Email, u.Nombre, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepoSQLite) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_uid, email, nombre, created_at FROM users WHERE id=?`, id.String())
	return scanUser(row)
}

func (r *UserRepoSQLite) FindByExternalUID(ctx context.Context, externalUID string) (*userDomain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_uid, email, nombre, created_at FROM users WHERE external_uid=?`, externalUID)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*userDomain.User, error) {
	var u userDomain.User
	var idStr string
	if err := row.Scan(&idStr, &u.ExternalUID, &u.Email, &u.Nombre, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in row: %w", err)
	}
	u.ID = id
	return &u, nil
}

// ------------------ Inicialización ------------------

func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		external_uid TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		nombre TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ userDomain.UserRepository = (*UserRepoSQLite)(nil)
