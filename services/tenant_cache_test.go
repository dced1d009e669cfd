package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
)

func newTestStore(t *testing.T, db *gorm.DB, ttl time.Duration) *TenantStore {
	t.Helper()
	cache := NewTenantCache(ttl)
	t.Cleanup(cache.Close)
	return NewTenantStore(db, cache)
}

func TestStoreReadThroughServesCachedCopy(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db, DefaultTenantCacheTTL)
	tenant := seedTenant(t, db, &models.Tenant{Slug: "warung"})

	first, err := store.GetByID(tenant.ID)
	assert.NoError(t, err)
	assert.Equal(t, "warung", first.Slug)

	// Mutate the row behind the cache's back; the cached copy keeps serving.
	assert.NoError(t, db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Update("name", "Renamed Behind Cache").Error)

	second, err := store.GetByID(tenant.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
}

func TestStoreGetBySlugPrimesIDKey(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db, DefaultTenantCacheTTL)
	tenant := seedTenant(t, db, &models.Tenant{Slug: "warung"})

	_, err := store.GetBySlug("warung")
	assert.NoError(t, err)

	// A slug read fills the id alias too, so this hits the cache even after
	// the row disappears.
	assert.NoError(t, db.Unscoped().Delete(&models.Tenant{}, tenant.ID).Error)

	byID, err := store.GetByID(tenant.ID)
	assert.NoError(t, err)
	assert.Equal(t, tenant.ID, byID.ID)
}

func TestStoreInvalidateClearsBothKeys(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db, DefaultTenantCacheTTL)
	tenant := seedTenant(t, db, &models.Tenant{Slug: "warung"})

	_, err := store.GetByID(tenant.ID)
	assert.NoError(t, err)
	_, err = store.GetBySlug("warung")
	assert.NoError(t, err)

	store.InvalidateTenant(tenant.ID, "warung")

	assert.NoError(t, db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Update("name", "Fresh Name").Error)

	byID, err := store.GetByID(tenant.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Fresh Name", byID.Name)

	store.InvalidateTenant(tenant.ID, "warung")
	bySlug, err := store.GetBySlug("warung")
	assert.NoError(t, err)
	assert.Equal(t, "Fresh Name", bySlug.Name)
}

func TestStoreEntriesExpireAfterTTL(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db, 30*time.Millisecond)
	tenant := seedTenant(t, db, &models.Tenant{Slug: "warung"})

	_, err := store.GetByID(tenant.ID)
	assert.NoError(t, err)

	assert.NoError(t, db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Update("name", "After Expiry").Error)

	time.Sleep(60 * time.Millisecond)

	fresh, err := store.GetByID(tenant.ID)
	assert.NoError(t, err)
	assert.Equal(t, "After Expiry", fresh.Name)
}

func TestStoreSaveInvalidatesOldSlug(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db, DefaultTenantCacheTTL)
	tenant := seedTenant(t, db, &models.Tenant{Slug: "lama"})

	_, err := store.GetBySlug("lama")
	assert.NoError(t, err)

	tenant.Slug = "baru"
	assert.NoError(t, store.Save(tenant, "lama"))

	_, err = store.GetBySlug("lama")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	bySlug, err := store.GetBySlug("baru")
	assert.NoError(t, err)
	assert.Equal(t, tenant.ID, bySlug.ID)
}

func TestStoreNotFound(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db, DefaultTenantCacheTTL)

	_, err := store.GetByID(42)
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = store.GetBySlug("ghost")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
