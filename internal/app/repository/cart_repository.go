package repository

import (
	"errors"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCartVersionConflict means the cart changed between read and write.
var ErrCartVersionConflict = errors.New("cart was modified concurrently")

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(cart *model.Cart) error
	FindByUserID(userID uint) (*model.Cart, error)
	FindByUserIDForUpdate(userID uint) (*model.Cart, error)
	FindItem(cartID, itemID uint) (*model.CartItem, error)
	FindItemByProductAndSize(cartID, productID uint, size string) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItemQuantity(itemID uint, quantity int) error
	DeleteItem(itemID uint) error
	DeleteItemsByCartID(cartID uint) (int64, error)
	SaveTotals(cart *model.Cart) error
	DeleteOrphanItems() ([]uint, int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"user_id": cart.UserID,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id": cart.UserID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
	})
	return nil
}

func (r *cartRepository) preloadItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Images")
}

// FindByUserID returns the cart with items and their products resolved.
func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	if err := r.preloadItems(r.db).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"cart_id": cart.ID,
		"items":   len(cart.Items),
	})
	return &cart, nil
}

// FindByUserIDForUpdate takes a row lock on the cart for the rest of the
// transaction. SQLite ignores the locking clause.
func (r *cartRepository) FindByUserIDForUpdate(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to lock cart", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	if err := r.db.Where("cart_id = ?", cart.ID).
		Preload("Product").
		Order("id ASC").
		Find(&cart.Items).Error; err != nil {
		logger.Error("Failed to load locked cart items", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindItem(cartID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindItemByProductAndSize(cartID, productID uint, size string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ? AND size = ?", cartID, productID, size).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"size":       item.Size,
		"quantity":   item.Quantity,
	})

	if err := r.db.Omit("Product").Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItemQuantity(itemID uint, quantity int) error {
	err := r.db.Model(&model.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
	if err != nil {
		logger.Error("Failed to update cart item quantity", err, map[string]interface{}{
			"cart_item_id": itemID,
			"quantity":     quantity,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(itemID uint) error {
	if err := r.db.Delete(&model.CartItem{}, itemID).Error; err != nil {
		logger.Error("Failed to delete cart item", err, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItemsByCartID(cartID uint) (int64, error) {
	result := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart items", result.Error, map[string]interface{}{
			"cart_id": cartID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SaveTotals writes the cart's totals only if its version is unchanged since
// it was read, then advances cart.Version.
func (r *cartRepository) SaveTotals(cart *model.Cart) error {
	result := r.db.Model(&model.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]interface{}{
			"total_price":    cart.TotalPrice,
			"total_items":    cart.TotalItems,
			"total_discount": cart.TotalDiscount,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		logger.Error("Failed to save cart totals", result.Error, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Cart version conflict", map[string]interface{}{
			"cart_id": cart.ID,
			"version": cart.Version,
		})
		return ErrCartVersionConflict
	}

	cart.Version++
	logger.Debug("Cart totals saved", map[string]interface{}{
		"cart_id":        cart.ID,
		"total_price":    cart.TotalPrice.String(),
		"total_items":    cart.TotalItems,
		"total_discount": cart.TotalDiscount.String(),
		"version":        cart.Version,
	})
	return nil
}

// DeleteOrphanItems removes items whose cart is gone or whose product was
// deleted. It returns the owners of surviving carts that lost items.
func (r *cartRepository) DeleteOrphanItems() ([]uint, int64, error) {
	var owners []uint
	err := r.db.Model(&model.Cart{}).
		Where("id IN (?)", r.db.Model(&model.CartItem{}).
			Select("cart_id").
			Where("product_id NOT IN (?)", r.db.Model(&model.Product{}).Select("id"))).
		Order("user_id ASC").
		Pluck("user_id", &owners).Error
	if err != nil {
		logger.Error("Failed to find carts with orphaned items", err)
		return nil, 0, err
	}

	result := r.db.
		Where("cart_id NOT IN (?)", r.db.Model(&model.Cart{}).Select("id")).
		Or("product_id NOT IN (?)", r.db.Model(&model.Product{}).Select("id")).
		Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete orphaned cart items", result.Error)
		return nil, 0, result.Error
	}
	return owners, result.RowsAffected, nil
}
