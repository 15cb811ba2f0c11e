package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
)

// ImageRepoSQLite es el repositorio de imágenes para despliegues locales.
type ImageRepoSQLite struct {
	db *sql.DB
}

func NewImageRepoSQLite(db *sql.DB) *ImageRepoSQLite {
	return &ImageRepoSQLite{db: db}
}

// ------------------ Escritura ------------------

func (r *ImageRepoSQLite) Create(ctx context.Context, img *imageDomain.Image) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO images (id, user_id, storage_id, original_url, processed_url, style, size, status, visibility, processing_ms, created_at, processed_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		img.ID.String(), img.UserID.String(), img.StorageID, img.OriginalURL, nullString(img.ProcessedURL),
		img.Style, img.Size, string(img.Status), string(img.Visibility),
		img.ProcessingMs, img.CreatedAt, img.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

func (r *ImageRepoSQLite) Update(ctx context.Context, img *imageDomain.Image) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE images SET processed_url=?, status=?, visibility=?, processing_ms=?, processed_at=? WHERE id=?`,
		nullString(img.ProcessedURL), string(img.Status), string(img.Visibility),
		img.ProcessingMs, img.ProcessedAt, img.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return imageDomain.ErrImageNotFound
	}
	return nil
}

// ------------------ Lectura ------------------

func (r *ImageRepoSQLite) FindByID(ctx context.Context, id uuid.UUID) (*imageDomain.Image, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, storage_id, original_url, processed_url, style, size, status, visibility, processing_ms, created_at, processed_at
		 FROM images WHERE id=?`, id.String())

	img, err := scanImage(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, imageDomain.ErrImageNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return img, nil
}

func (r *ImageRepoSQLite) ListByUser(ctx context.Context, userID uuid.UUID, onlyProcessed bool) ([]*imageDomain.Image, error) {
	query := `SELECT id, user_id, storage_id, original_url, processed_url, style, size, status, visibility, processing_ms, created_at, processed_at
	          FROM images WHERE user_id=?`
	if onlyProcessed {
		query += ` AND status='processed'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*imageDomain.Image
	for rows.Next() {
		img, err := scanImage(rows.Scan)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func scanImage(scan func(dest ...interface{}) error) (*imageDomain.Image, error) {
	var img imageDomain.Image
	var idStr, userIDStr, status, visibility string
	var processedURL sql.NullString
	var processedAt sql.NullTime

	if err := scan(&idStr, &userIDStr, &img.StorageID, &img.OriginalURL, &processedURL,
		&img.Style, &img.Size, &status, &visibility, &img.ProcessingMs, &img.CreatedAt, &processedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid image id in row: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in row: %w", err)
	}

	img.ID = id
	img.UserID = userID
	img.Status = imageDomain.Status(status)
	img.Visibility = imageDomain.Visibility(visibility)
	img.ProcessedURL = processedURL.String
	if processedAt.Valid {
		t := processedAt.Time
		img.ProcessedAt = &t
	}
	return &img, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ------------------ Inicialización ------------------

func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		storage_id TEXT NOT NULL,
		original_url TEXT NOT NULL,
		processed_url TEXT,
		style TEXT NOT NULL,
		size INTEGER NOT NULL,
		status TEXT NOT NULL,
		visibility TEXT NOT NULL,
		processing_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_images_user_id ON images (user_id, created_at)`)
	return err
}

// Verificación en tiempo de compilación.
var _ imageDomain.ImageRepository = (*ImageRepoSQLite)(nil)
