package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
)

type ImageRepoPostgres struct {
	db *sql.DB
}

func NewImageRepoPostgres(db *sql.DB) *ImageRepoPostgres {
	return &ImageRepoPostgres{db: db}
}

// ------------------ Escritura ------------------

func (r *ImageRepoPostgres) Create(ctx context.Context, img *imageDomain.Image) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO images (id, user_id, storage_id, original_url, processed_url, style, size, status, visibility, processing_ms, created_at, processed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		img.ID, img.UserID, img.StorageID, img.OriginalURL, nullString(img.ProcessedURL),
		img.Style, img.Size, string(img.Status), string(img.Visibility),
		img.ProcessingMs, img.CreatedAt, img.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

func (r *ImageRepoPostgres) Update(ctx context.Context, img *imageDomain.Image) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE images SET processed_url=$1, status=$2, visibility=$3, processing_ms=$4, processed_at=$5 WHERE id=$6`,
		nullString(img.ProcessedURL), string(img.Status), string(img.Visibility),
		img.ProcessingMs, img.ProcessedAt, img.ID,
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

func (r *ImageRepoPostgres) FindByID(ctx context.Context, id uuid.UUID) (*imageDomain.Image, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, storage_id, original_url, processed_url, style, size, status, visibility, processing_ms, created_at, processed_at
		 FROM images WHERE id=$1`, id)

	img, err := scanImage(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, imageDomain.ErrImageNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return img, nil
}

func (r *ImageRepoPostgres) ListByUser(ctx context.Context, userID uuid.UUID, onlyProcessed bool) ([]*imageDomain.Image, error) {
	query := `SELECT id, user_id, storage_id, original_url, processed_url, style, size, status, visibility, processing_ms, created_at, processed_at
	          FROM images WHERE user_id=$1`
	if onlyProcessed {
		query += ` AND status='processed'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
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

// scanImage comparte el mapeo de fila a agregado entre QueryRow y Query.
func scanImage(scan func(dest ...interface{}) error) (*imageDomain.Image, error) {
	var img imageDomain.Image
	var status, visibility string
	var processedURL sql.NullString
	var processedAt sql.NullTime

	if err := scan(&img.ID, &img.UserID, &img.StorageID, &img.OriginalURL, &processedURL,
		&img.Style, &img.Size, &status, &visibility, &img.ProcessingMs, &img.CreatedAt, &processedAt); err != nil {
		return nil, err
	}

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

func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS images (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		storage_id TEXT NOT NULL,
		original_url TEXT NOT NULL,
		processed_url TEXT,
		style TEXT NOT NULL,
		size BIGINT NOT NULL,
		status TEXT NOT NULL,
		visibility TEXT NOT NULL,
		processing_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		processed_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_images_user_id ON images (user_id, created_at DESC)`)
	return err
}

// Verificación en tiempo de compilación.
var _ imageDomain.ImageRepository = (*ImageRepoPostgres)(nil)
