package service

import (
	"fmt"

	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

// MaintenanceService holds the periodic consistency jobs.
type MaintenanceService interface {
	ReconcileRatings() (int, error)
	CleanupCarts() (int64, error)
}

type maintenanceService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	cartRepo    repository.CartRepository
}

func NewMaintenanceService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	cartRepo repository.CartRepository,
) MaintenanceService {
	return &maintenanceService{
		db:          db,
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		cartRepo:    cartRepo,
	}
}

// ReconcileRatings recomputes every product's rating and returns how many
// products were processed.
func (s *maintenanceService) ReconcileRatings() (int, error) {
	ids, err := s.productRepo.FindAllIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}

	processed := 0
	for _, id := range ids {
		if _, err := RecalculateRatings(s.reviewRepo, s.productRepo, id); err != nil {
			logger.Error("Failed to reconcile product ratings", err, map[string]interface{}{
				"product_id": id,
			})
			continue
		}
		processed++
	}
	return processed, nil
}

// CleanupCarts drops dangling cart items and refreshes the totals of carts
// that lost items.
func (s *maintenanceService) CleanupCarts() (int64, error) {
	owners, removed, err := s.cartRepo.DeleteOrphanItems()
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned cart items: %w", err)
	}

	for _, userID := range owners {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			carts := s.cartRepo.WithTx(tx)
			if _, err := carts.FindByUserIDForUpdate(userID); err != nil {
				return err
			}
			return recalculateCart(carts, userID)
		})
		if err != nil {
			logger.Error("Failed to refresh cart totals", err, map[string]interface{}{
				"user_id": userID,
			})
		}
	}
	return removed, nil
}
