package services

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
)

// DefaultTenantCacheTTL bounds how stale a cached tenant read may be.
const DefaultTenantCacheTTL = 60 * time.Second

type cacheEntry struct {
	tenant    *models.Tenant
	expiresAt time.Time
}

// TenantCache is a time-boxed cache for tenant rows. A tenant is addressable
// by id or by slug; the two keys are aliases of one logical entry, so
// invalidation always clears both (InvalidateTenant). Single-key invalidation
// is deliberately not exposed.
type TenantCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
	stop    chan struct{}
}

func NewTenantCache(ttl time.Duration) *TenantCache {
	if ttl <= 0 {
		ttl = DefaultTenantCacheTTL
	}
	c := &TenantCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		stop:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

func keyByID(id uint) string     { return fmt.Sprintf("tenant-by-id:%d", id) }
func keyBySlug(slug string) string { return "tenant-by-slug:" + slug }

func (c *TenantCache) get(key string) (*models.Tenant, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.tenant, true
}

// put stores the tenant under both of its keys.
func (c *TenantCache) put(t *models.Tenant) {
	entry := cacheEntry{tenant: t, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Lock()
	c.entries[keyByID(t.ID)] = entry
	c.entries[keyBySlug(t.Slug)] = entry
	c.mu.Unlock()
}

// InvalidateTenant clears every alias of the tenant's cache entry. Writers
// must call this before reporting the write complete, otherwise a stale read
// path stays alive for up to the TTL.
func (c *TenantCache) InvalidateTenant(id uint, slugs ...string) {
	c.mu.Lock()
	delete(c.entries, keyByID(id))
	for _, slug := range slugs {
		delete(c.entries, keyBySlug(slug))
	}
	c.mu.Unlock()
}

func (c *TenantCache) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *TenantCache) Close() {
	close(c.stop)
}

// TenantStore routes tenant reads through the cache and tenant writes through
// dual-key invalidation.
type TenantStore struct {
	db    *gorm.DB
	cache *TenantCache
}

func NewTenantStore(db *gorm.DB, cache *TenantCache) *TenantStore {
	return &TenantStore{db: db, cache: cache}
}

func (s *TenantStore) DB() *gorm.DB { return s.db }

func (s *TenantStore) GetByID(id uint) (*models.Tenant, error) {
	if t, ok := s.cache.get(keyByID(id)); ok {
		return t, nil
	}
	var tenant models.Tenant
	if err := s.db.First(&tenant, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	s.cache.put(&tenant)
	return &tenant, nil
}

func (s *TenantStore) GetBySlug(slug string) (*models.Tenant, error) {
	if t, ok := s.cache.get(keyBySlug(slug)); ok {
		return t, nil
	}
	var tenant models.Tenant
	if err := s.db.Where("slug = ?", slug).First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	s.cache.put(&tenant)
	return &tenant, nil
}

// Save persists the tenant and invalidates its cache aliases before
// returning. oldSlug covers the slug-change case where the previous slug key
// would otherwise stay readable.
func (s *TenantStore) Save(tenant *models.Tenant, oldSlug string) error {
	if err := s.db.Save(tenant).Error; err != nil {
		return err
	}
	s.cache.InvalidateTenant(tenant.ID, oldSlug, tenant.Slug)
	return nil
}

func (s *TenantStore) InvalidateTenant(id uint, slugs ...string) {
	s.cache.InvalidateTenant(id, slugs...)
}
