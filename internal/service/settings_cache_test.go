package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSettingsCache_CachesUntilInvalidated(t *testing.T) {
	source := new(mockSettingsProvider)
	cache := NewSettingsCache(source, time.Minute)
	ctx := context.Background()

	source.On("Get", ctx).Return(defaultSettings(), nil).Twice()

	first, err := cache.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, first.PlatformFeePercent)

	// Повторное чтение идёт из кэша.
	_, err = cache.Get(ctx)
	assert.NoError(t, err)
	source.AssertNumberOfCalls(t, "Get", 1)

	cache.Invalidate()
	_, err = cache.Get(ctx)
	assert.NoError(t, err)
	source.AssertNumberOfCalls(t, "Get", 2)
}

func TestSettingsCache_ReturnsCopy(t *testing.T) {
	source := new(mockSettingsProvider)
	cache := NewSettingsCache(source, time.Minute)
	ctx := context.Background()

	source.On("Get", ctx).Return(defaultSettings(), nil).Once()

	first, err := cache.Get(ctx)
	assert.NoError(t, err)
	first.PlatformFeePercent = 99

	second, err := cache.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, second.PlatformFeePercent)
}

func TestSettingsService_Update_InvalidatesCache(t *testing.T) {
	repo := new(mockSettingsRepo)
	svc := NewSettingsService(repo)
	cache := NewSettingsCache(repo, time.Minute)
	svc.SetCache(cache)
	ctx := context.Background()

	repo.On("Get", ctx).Return(defaultSettings(), nil)
	repo.On("Update", ctx, mock.AnythingOfType("*models.PlatformSettings")).Return(nil)

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("прогрев кэша вернул ошибку: %v", err)
	}

	fee := 8.0
	updated, err := svc.Update(ctx, UpdateSettingsInput{PlatformFeePercent: &fee})
	assert.NoError(t, err)
	assert.Equal(t, 8.0, updated.PlatformFeePercent)

	// Следующее чтение после инвалидации идёт в репозиторий.
	calls := len(repo.Calls)
	_, err = cache.Get(ctx)
	assert.NoError(t, err)
	assert.Greater(t, len(repo.Calls), calls)
}

var _ SettingsProvider = (*SettingsCache)(nil)
