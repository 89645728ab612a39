package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMaintenance struct {
	reconciles atomic.Int32
	cleanups   atomic.Int32
}

func (m *countingMaintenance) ReconcileRatings() (int, error) {
	m.reconciles.Add(1)
	return 0, nil
}

func (m *countingMaintenance) CleanupCarts() (int64, error) {
	m.cleanups.Add(1)
	return 0, nil
}

func TestReconcileRatingsJob_FixesDriftedRatings(t *testing.T) {
	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	products := repository.NewProductRepository(database)
	reviews := repository.NewReviewRepository(database)
	carts := repository.NewCartRepository(database)

	user := &model.User{FirstName: "Ada", LastName: "L", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, database.Create(user).Error)
	top := &model.Category{Name: "Clothing"}
	require.NoError(t, database.Create(top).Error)
	leaf := &model.Category{Name: "Shirts", ParentID: &top.ID}
	require.NoError(t, database.Create(leaf).Error)

	newProduct := func(title string, ratings float64) *model.Product {
		p := &model.Product{
			Title:           title,
			Description:     "cotton",
			Price:           model.NewMoney(100),
			DiscountedPrice: model.NewMoney(80),
			Gender:          model.GenderMen,
			CategoryID:      leaf.ID,
			Ratings:         ratings,
		}
		require.NoError(t, database.Create(p).Error)
		return p
	}
	drifted := newProduct("Oxford", 4.9)
	reviewed := newProduct("Flannel", 0)
	for _, rating := range []int{4, 5} {
		require.NoError(t, database.Create(&model.Review{
			UserID: user.ID, ProductID: reviewed.ID, Rating: rating, Comment: "nice",
		}).Error)
	}

	s := NewMaintenanceScheduler(service.NewMaintenanceService(database, products, reviews, carts), config.SchedulerConfig{})
	s.ReconcileRatings()

	got, err := products.FindByID(drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Ratings)

	got, err = products.FindByID(reviewed.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Ratings)
}

func TestStart_RejectsInvalidSpec(t *testing.T) {
	s := NewMaintenanceScheduler(&countingMaintenance{}, config.SchedulerConfig{
		RatingsReconcileSpec: "not a schedule",
		CartCleanupSpec:      "@daily",
	})
	assert.Error(t, s.Start())
}

func TestStart_RunsJobsOnSchedule(t *testing.T) {
	m := &countingMaintenance{}
	s := NewMaintenanceScheduler(m, config.SchedulerConfig{
		RatingsReconcileSpec: "@every 1s",
		CartCleanupSpec:      "@every 1s",
	})
	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	assert.Eventually(t, func() bool {
		return m.reconciles.Load() > 0 && m.cleanups.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
}
