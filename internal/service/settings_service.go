package service

import (
	"context"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
)

// SettingsRepository описывает хранилище настроек платформы.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
	Update(ctx context.Context, s *models.PlatformSettings) error
}

// UpdateSettingsInput изменяемые поля настроек; nil означает «не менять».
type UpdateSettingsInput struct {
	PlatformFeePercent *float64
	MinPlatformFee     *float64
	MaxPlatformFee     *float64
	FeePayer           *string
	DisputeWindowDays  *int
	AutoReleaseDays    *int
}

// SettingsService содержит бизнес-логику настроек платформы.
// Изменение настроек действует только на новые фандинги: снимок комиссии
// профинансированных сделок не пересчитывается.
type SettingsService struct {
	repo  SettingsRepository
	cache *SettingsCache
}

// NewSettingsService создаёт новый сервис настроек.
func NewSettingsService(repo SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// SetCache подключает кэш настроек, который сбрасывается при обновлении.
func (s *SettingsService) SetCache(cache *SettingsCache) {
	s.cache = cache
}

// Get возвращает текущие настройки платформы.
func (s *SettingsService) Get(ctx context.Context) (*models.PlatformSettings, error) {
	return s.repo.Get(ctx)
}

// Update применяет частичное обновление настроек с валидацией границ.
func (s *SettingsService) Update(ctx context.Context, input UpdateSettingsInput) (*models.PlatformSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.PlatformFeePercent != nil {
		if *input.PlatformFeePercent < 0 || *input.PlatformFeePercent > 100 {
			return nil, apperror.New(apperror.ErrCodeValidation, "процент комиссии должен быть в диапазоне 0..100")
		}
		settings.PlatformFeePercent = *input.PlatformFeePercent
	}
	if input.MinPlatformFee != nil {
		if *input.MinPlatformFee < 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "минимальная комиссия не может быть отрицательной")
		}
		settings.MinPlatformFee = *input.MinPlatformFee
	}
	if input.MaxPlatformFee != nil {
		if *input.MaxPlatformFee < 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "максимальная комиссия не может быть отрицательной")
		}
		settings.MaxPlatformFee = *input.MaxPlatformFee
	}
	if settings.MaxPlatformFee > 0 && settings.MinPlatformFee > settings.MaxPlatformFee {
		return nil, apperror.New(apperror.ErrCodeValidation, "минимальная комиссия не может превышать максимальную")
	}
	if input.FeePayer != nil {
		if _, ok := models.ValidFeePayers[*input.FeePayer]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный плательщик комиссии: "+*input.FeePayer)
		}
		settings.FeePayer = *input.FeePayer
	}
	if input.DisputeWindowDays != nil {
		if *input.DisputeWindowDays < 1 {
			return nil, apperror.New(apperror.ErrCodeValidation, "окно спора должно быть не меньше одного дня")
		}
		settings.DisputeWindowDays = *input.DisputeWindowDays
	}
	if input.AutoReleaseDays != nil {
		if *input.AutoReleaseDays < 1 {
			return nil, apperror.New(apperror.ErrCodeValidation, "срок автовыплаты должен быть не меньше одного дня")
		}
		settings.AutoReleaseDays = *input.AutoReleaseDays
	}

	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate()
	}
	return settings, nil
}
