package db

import (
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the application, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.ProductSize{},
		&model.ProductImage{},
		&model.Review{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedInitialData(conn); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// defaultCategories is the top-level catalog tree the storefront navigation expects.
var defaultCategories = map[string][]string{
	"Clothing":    {"Topwear", "Bottomwear", "Winterwear"},
	"Footwear":    {"Sneakers", "Formal", "Sandals"},
	"Accessories": {"Bags", "Watches", "Jewellery"},
}

func seedInitialData(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Categories already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding default categories...")
	inserted := 0
	err := conn.Transaction(func(tx *gorm.DB) error {
		for top, subs := range defaultCategories {
			parent := model.Category{Name: top}
			if err := tx.Create(&parent).Error; err != nil {
				return err
			}
			inserted++
			for _, name := range subs {
				if err := tx.Create(&model.Category{Name: name, ParentID: &parent.ID}).Error; err != nil {
					return err
				}
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to seed categories", err)
		return err
	}

	logger.Info("Default categories seeded", map[string]interface{}{
		"inserted": inserted,
	})
	return nil
}
