package service

import (
	"context"
	"sync"
	"time"

	"github.com/dealnest/dealnest-backend/internal/models"
)

// SettingsCache кэширует настройки платформы с коротким TTL. Настройки
// читаются при каждом фандинге и каждом проходе планировщика, а меняются
// редко. Изменение настроек сбрасывает кэш сразу, TTL страхует от
// изменений в обход API.
type SettingsCache struct {
	source SettingsProvider
	ttl    time.Duration

	mu        sync.RWMutex
	cached    *models.PlatformSettings
	expiresAt time.Time
}

// NewSettingsCache оборачивает источник настроек кэшем.
func NewSettingsCache(source SettingsProvider, ttl time.Duration) *SettingsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SettingsCache{source: source, ttl: ttl}
}

// Get возвращает настройки из кэша либо из источника.
func (c *SettingsCache) Get(ctx context.Context) (*models.PlatformSettings, error) {
	c.mu.RLock()
	if c.cached != nil && time.Now().Before(c.expiresAt) {
		snapshot := *c.cached
		c.mu.RUnlock()
		return &snapshot, nil
	}
	c.mu.RUnlock()

	settings, err := c.source.Get(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	snapshot := *settings
	c.cached = &snapshot
	c.expiresAt = time.Now().Add(c.ttl)
	c.mu.Unlock()

	return settings, nil
}

// Invalidate сбрасывает кэш; вызывается после изменения настроек.
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
