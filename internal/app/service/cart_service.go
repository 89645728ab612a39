package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartItemExists   = errors.New("item already in cart")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrSizeRequired     = errors.New("size is required")
)

type CartService interface {
	GetCart(userID uint) (*model.Cart, error)
	AddItem(userID, productID uint, size string, quantity int) (*model.Cart, error)
	UpdateItemQuantity(userID, cartItemID uint, quantity int) (*model.Cart, error)
	RemoveItem(userID, cartItemID uint) (*model.Cart, error)
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(db *gorm.DB, cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(userID uint) (*model.Cart, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) AddItem(userID, productID uint, size string, quantity int) (*model.Cart, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, ErrSizeRequired
	}

	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"size":       size,
		"quantity":   quantity,
	})

	return s.mutate(userID, func(tx *gorm.DB, cart *model.Cart) error {
		if _, err := s.productRepo.WithTx(tx).FindByID(productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		carts := s.cartRepo.WithTx(tx)
		_, err := carts.FindItemByProductAndSize(cart.ID, productID, size)
		if err == nil {
			return ErrCartItemExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return carts.CreateItem(&model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Size:      size,
			Quantity:  quantity,
		})
	})
}

func (s *cartService) UpdateItemQuantity(userID, cartItemID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})

	return s.mutate(userID, func(tx *gorm.DB, cart *model.Cart) error {
		carts := s.cartRepo.WithTx(tx)
		item, err := s.ownedItem(carts, cart, cartItemID)
		if err != nil {
			return err
		}
		return carts.UpdateItemQuantity(item.ID, quantity)
	})
}

func (s *cartService) RemoveItem(userID, cartItemID uint) (*model.Cart, error) {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})

	return s.mutate(userID, func(tx *gorm.DB, cart *model.Cart) error {
		carts := s.cartRepo.WithTx(tx)
		item, err := s.ownedItem(carts, cart, cartItemID)
		if err != nil {
			return err
		}
		return carts.DeleteItem(item.ID)
	})
}

func (s *cartService) ownedItem(carts repository.CartRepository, cart *model.Cart, cartItemID uint) (*model.CartItem, error) {
	item, err := carts.FindItem(cart.ID, cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// mutate runs change against the locked cart and rewrites the totals from the
// resulting item set in the same transaction.
func (s *cartService) mutate(userID uint, change func(tx *gorm.DB, cart *model.Cart) error) (*model.Cart, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)

		cart, err := carts.FindByUserIDForUpdate(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartNotFound
			}
			return err
		}

		if err := change(tx, cart); err != nil {
			return err
		}

		return recalculateCart(carts, userID)
	})
	if err != nil {
		if isCartDomainError(err) {
			logger.Warn("Cart mutation rejected", map[string]interface{}{
				"user_id": userID,
				"reason":  err.Error(),
			})
			return nil, err
		}
		logger.Error("Cart mutation failed", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}

	return s.GetCart(userID)
}

func recalculateCart(carts repository.CartRepository, userID uint) error {
	current, err := carts.FindByUserID(userID)
	if err != nil {
		return err
	}
	current.Apply(model.CalculateCartTotals(current.Items))
	if err := carts.SaveTotals(current); err != nil {
		if errors.Is(err, repository.ErrCartVersionConflict) {
			return ErrCartModified
		}
		return err
	}
	return nil
}

func isCartDomainError(err error) bool {
	for _, target := range []error{
		ErrCartNotFound, ErrCartItemNotFound, ErrCartItemExists, ErrProductNotFound, ErrCartModified,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
