package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoba/bp-invest/internal/domain"
	"github.com/theoba/bp-invest/internal/usecase/seeder"
)

func openTestRepo(t *testing.T) domain.AssumptionRepository {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAssumptionRepository(db)
}

func newRecord(propertyID uuid.UUID, createdAt time.Time) *domain.AssumptionRecord {
	record := seeder.ReferenceRecord()
	record.ID = uuid.New()
	record.PropertyID = propertyID
	record.CreatedAt = createdAt
	return &record
}

func TestAssumptionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	record := newRecord(uuid.New(), time.Date(2026, 5, 1, 12, 0, 0, 123, time.UTC))
	record.MonthlyRent = 721.35
	record.UnpaidRentRate = 0.015
	record.MarketValueGrowth = -0.005
	record.WithdrawalRate = 0.172

	require.NoError(t, repo.Create(ctx, record))

	loaded, err := repo.GetLatest(ctx, record.PropertyID)

	require.NoError(t, err)
	assert.Equal(t, *record, *loaded)
}

func TestAssumptionRepository_GetLatestPicksNewest(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	propertyID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := newRecord(propertyID, base)
	newer := newRecord(propertyID, base.Add(time.Hour))
	newer.DetentionYears = 22
	other := newRecord(uuid.New(), base.Add(2*time.Hour))

	// Insertion order does not matter
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, other))

	latest, err := repo.GetLatest(ctx, propertyID)

	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
	assert.Equal(t, 22, latest.DetentionYears)
}

func TestAssumptionRepository_NoAcquisitionDate(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	record := newRecord(uuid.New(), time.Now().UTC())
	record.AcquisitionDate = civil.Date{}
	require.NoError(t, repo.Create(ctx, record))

	loaded, err := repo.GetLatest(ctx, record.PropertyID)

	require.NoError(t, err)
	assert.True(t, loaded.AcquisitionDate.IsZero())
}

func TestAssumptionRepository_GetLatest_NotFound(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.GetLatest(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssumptionRepository_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	record := newRecord(uuid.New(), time.Now().UTC())
	require.NoError(t, repo.Create(ctx, record))

	err := repo.Create(ctx, record)

	assert.ErrorContains(t, err, "failed to insert assumption record")
}

func TestAssumptionRepository_ListProperties(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := uuid.New()
	second := uuid.New()

	v1 := newRecord(first, base)
	v1.Label = "Old label"
	v2 := newRecord(first, base.Add(3*time.Hour))
	v2.Label = "New label"
	s := newRecord(second, base.Add(time.Hour))
	s.Label = "Second"
	s.City = "Nantes"

	for _, r := range []*domain.AssumptionRecord{v1, v2, s} {
		require.NoError(t, repo.Create(ctx, r))
	}

	properties, err := repo.ListProperties(ctx)

	require.NoError(t, err)
	require.Len(t, properties, 2)
	assert.Equal(t, first, properties[0].PropertyID)
	assert.Equal(t, "New label", properties[0].Label)
	assert.Equal(t, base.Add(3*time.Hour), properties[0].CreatedAt)
	assert.Equal(t, second, properties[1].PropertyID)
	assert.Equal(t, "Nantes", properties[1].City)
}

func TestAssumptionRepository_ListProperties_Empty(t *testing.T) {
	properties, err := openTestRepo(t).ListProperties(context.Background())

	require.NoError(t, err)
	assert.Empty(t, properties)
}

func TestAssumptionRepository_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	propertyID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.Create(ctx, newRecord(propertyID, base.Add(time.Duration(i)*time.Second)))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	latest, err := repo.GetLatest(ctx, propertyID)
	require.NoError(t, err)
	assert.Equal(t, base.Add(7*time.Second), latest.CreatedAt)
}
