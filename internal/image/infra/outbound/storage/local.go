package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
)

// LocalStorage guarda los originales en disco y devuelve URLs servibles
// desde baseURL. Es el adaptador de despliegues locales; en producción el
// port lo cubre el object store gestionado.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: baseURL}, nil
}

// Verificación estática del port de dominio.
var _ imageDomain.ImageStorage = (*LocalStorage)(nil)

func (s *LocalStorage) Upload(_ context.Context, data []byte) (imageDomain.StoredObject, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, id)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return imageDomain.StoredObject{}, fmt.Errorf("failed to write object %s: %w", id, err)
	}

	return imageDomain.StoredObject{
		ID:  id,
		URL: fmt.Sprintf("%s/%s", s.baseURL, id),
	}, nil
}
