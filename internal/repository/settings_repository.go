package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dealnest/dealnest-backend/internal/models"
)

// SettingsRepository хранит единственную строку настроек платформы.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get возвращает текущий снимок настроек, создаёт строку с дефолтами при первом обращении.
func (r *SettingsRepository) Get(ctx context.Context) (*models.PlatformSettings, error) {
	var s models.PlatformSettings
	query := `
		INSERT INTO platform_settings (id) VALUES (1)
		ON CONFLICT (id) DO UPDATE SET id = platform_settings.id
		RETURNING id, platform_fee_percent, min_platform_fee, max_platform_fee,
			fee_payer, dispute_window_days, auto_release_days, updated_at
	`
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("settings repository: get %w", err)
	}
	return &s, nil
}

// Update сохраняет новые значения настроек. Уже профинансированные сделки
// сохраняют свой снимок комиссии и изменением не затрагиваются.
func (r *SettingsRepository) Update(ctx context.Context, s *models.PlatformSettings) error {
	err := r.db.GetContext(ctx, s, `
		UPDATE platform_settings
		SET platform_fee_percent = $1, min_platform_fee = $2, max_platform_fee = $3,
			fee_payer = $4, dispute_window_days = $5, auto_release_days = $6, updated_at = NOW()
		WHERE id = 1
		RETURNING id, platform_fee_percent, min_platform_fee, max_platform_fee,
			fee_payer, dispute_window_days, auto_release_days, updated_at
	`, s.PlatformFeePercent, s.MinPlatformFee, s.MaxPlatformFee,
		s.FeePayer, s.DisputeWindowDays, s.AutoReleaseDays)
	if err != nil {
		return fmt.Errorf("settings repository: update %w", err)
	}
	return nil
}
