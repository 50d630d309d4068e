package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isra2/desasolve/internal/models"
	"github.com/isra2/desasolve/internal/storage"
)

// PhotoURLExpiry - срок действия ссылки на фото.
const PhotoURLExpiry = time.Hour

var (
	ErrInvalidPhotoKind    = errors.New("photo kind must be before or after")
	ErrUnsupportedPhoto    = errors.New("photo must be image/jpeg or image/png")
	ErrEmptyPhoto          = errors.New("photo is empty")
	ErrInvalidPhotoService = errors.New("service id is required")
)

var allowedPhotoTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// PhotoService определяет операции с фото до и после работ.
type PhotoService interface {
	Upload(ctx context.Context, serviceID string, kind models.PhotoKind, contentType string, body []byte) (*models.Photo, error)
	Photos(ctx context.Context, serviceID string) (*models.ServicePhotos, error)
}

// PhotoServiceImpl реализует PhotoService.
type PhotoServiceImpl struct {
	store storage.ObjectStore
	now   func() time.Time
}

// NewPhotoService создаёт новый экземпляр PhotoService.
func NewPhotoService(store storage.ObjectStore) *PhotoServiceImpl {
	return &PhotoServiceImpl{store: store, now: time.Now}
}

// PhotoKey - ключ объекта фото: services/{id}/{kind}.
func PhotoKey(serviceID string, kind models.PhotoKind) string {
	return fmt.Sprintf("services/%s/%s", serviceID, kind)
}

// Upload сохраняет фото, прежнее фото того же вида заменяется.
func (s *PhotoServiceImpl) Upload(ctx context.Context, serviceID string, kind models.PhotoKind, contentType string, body []byte) (*models.Photo, error) {
	if err := validateServiceID(serviceID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, ErrInvalidPhotoKind
	}
	contentType = normalizeContentType(contentType)
	if _, ok := allowedPhotoTypes[contentType]; !ok {
		return nil, ErrUnsupportedPhoto
	}
	if len(body) == 0 {
		return nil, ErrEmptyPhoto
	}

	key := PhotoKey(serviceID, kind)
	if err := s.store.Put(ctx, key, contentType, body); err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}
	return s.photo(ctx, key)
}

// Photos возвращает ссылки на имеющиеся фото. Отсутствующее фото - nil.
func (s *PhotoServiceImpl) Photos(ctx context.Context, serviceID string) (*models.ServicePhotos, error) {
	if err := validateServiceID(serviceID); err != nil {
		return nil, err
	}

	result := &models.ServicePhotos{ServiceID: serviceID}
	for _, kind := range []models.PhotoKind{models.PhotoBefore, models.PhotoAfter} {
		key := PhotoKey(serviceID, kind)
		ok, err := s.store.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check photo %s: %w", kind, err)
		}
		if !ok {
			continue
		}
		photo, err := s.photo(ctx, key)
		if err != nil {
			return nil, err
		}
		if kind == models.PhotoBefore {
			result.Before = photo
		} else {
			result.After = photo
		}
	}
	return result, nil
}

func (s *PhotoServiceImpl) photo(ctx context.Context, key string) (*models.Photo, error) {
	url, err := s.store.PresignGet(ctx, key, PhotoURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign photo url: %w", err)
	}
	return &models.Photo{
		Key:       key,
		URL:       url,
		ExpiresAt: s.now().Add(PhotoURLExpiry).UTC(),
	}, nil
}

func validateServiceID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/\\") {
		return ErrInvalidPhotoService
	}
	return nil
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
