package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dealnest/dealnest-backend/internal/models"
)

type mockSettingsRepo struct {
	mock.Mock
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*models.PlatformSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformSettings), args.Error(1)
}

func (m *mockSettingsRepo) Update(ctx context.Context, s *models.PlatformSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func ptr[T any](v T) *T { return &v }

func TestSettingsService_Update_Partial(t *testing.T) {
	repo := new(mockSettingsRepo)
	svc := NewSettingsService(repo)
	ctx := context.Background()

	repo.On("Get", ctx).Return(defaultSettings(), nil)
	repo.On("Update", ctx, mock.AnythingOfType("*models.PlatformSettings")).Return(nil)

	updated, err := svc.Update(ctx, UpdateSettingsInput{
		PlatformFeePercent: ptr(7.5),
		DisputeWindowDays:  ptr(10),
	})
	assert.NoError(t, err)
	assert.Equal(t, 7.5, updated.PlatformFeePercent)
	assert.Equal(t, 10, updated.DisputeWindowDays)
	// Остальные поля не тронуты.
	assert.Equal(t, models.FeePayerClient, updated.FeePayer)
	assert.Equal(t, 3, updated.AutoReleaseDays)
}

func TestSettingsService_Update_FeePercentOutOfRange(t *testing.T) {
	repo := new(mockSettingsRepo)
	svc := NewSettingsService(repo)
	ctx := context.Background()
	repo.On("Get", ctx).Return(defaultSettings(), nil)

	_, err := svc.Update(ctx, UpdateSettingsInput{PlatformFeePercent: ptr(150.0)})
	assert.Error(t, err)

	_, err = svc.Update(ctx, UpdateSettingsInput{PlatformFeePercent: ptr(-1.0)})
	assert.Error(t, err)
}

func TestSettingsService_Update_MinAboveMax(t *testing.T) {
	repo := new(mockSettingsRepo)
	svc := NewSettingsService(repo)
	ctx := context.Background()
	repo.On("Get", ctx).Return(defaultSettings(), nil)

	_, err := svc.Update(ctx, UpdateSettingsInput{
		MinPlatformFee: ptr(1000.0),
		MaxPlatformFee: ptr(500.0),
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "не может превышать")
}

func TestSettingsService_Update_UnknownFeePayer(t *testing.T) {
	repo := new(mockSettingsRepo)
	svc := NewSettingsService(repo)
	ctx := context.Background()
	repo.On("Get", ctx).Return(defaultSettings(), nil)

	_, err := svc.Update(ctx, UpdateSettingsInput{FeePayer: ptr("platform")})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "плательщик")
}

func TestSettingsService_Update_WindowBounds(t *testing.T) {
	repo := new(mockSettingsRepo)
	svc := NewSettingsService(repo)
	ctx := context.Background()
	repo.On("Get", ctx).Return(defaultSettings(), nil)

	_, err := svc.Update(ctx, UpdateSettingsInput{DisputeWindowDays: ptr(0)})
	assert.Error(t, err)

	_, err = svc.Update(ctx, UpdateSettingsInput{AutoReleaseDays: ptr(-1)})
	assert.Error(t, err)
}
