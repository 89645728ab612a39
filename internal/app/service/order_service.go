package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrCartModified           = errors.New("cart was modified during checkout")
	ErrInvalidShippingAddress = errors.New("invalid shipping address")
	ErrInvalidOrderStatus     = errors.New("invalid order status")
	ErrInvalidPaymentStatus   = errors.New("invalid payment status")
	ErrDuplicateTransaction   = errors.New("order already exists for transaction")
)

// Order events pushed to the owner's live sessions.
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_updated"
)

// OrderNotifier delivers order events to connected clients. Delivery is best
// effort and must not block.
type OrderNotifier interface {
	NotifyOrder(userID uint, eventType string, order *model.Order)
}

type OrderService interface {
	CreateOrderFromCart(userID uint, shipping model.PostalAddress, payment model.PaymentDetails) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error)
}

type orderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	notifier  OrderNotifier
}

// NewOrderService builds the order service. notifier may be nil.
func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	notifier OrderNotifier,
) OrderService {
	return &orderService{
		db:        db,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		notifier:  notifier,
	}
}

// CreateOrderFromCart converts the user's cart into an order and empties the
// cart atomically.
func (s *orderService) CreateOrderFromCart(userID uint, shipping model.PostalAddress, payment model.PaymentDetails) (*model.Order, error) {
	if field := shipping.Missing(); field != "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidShippingAddress, field)
	}
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = model.DefaultPaymentMethod
	}
	if payment.PaymentStatus == "" {
		payment.PaymentStatus = model.PaymentStatusPending
	}
	if !payment.PaymentStatus.Valid() {
		return nil, ErrInvalidPaymentStatus
	}

	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id":        userID,
		"payment_method": payment.PaymentMethod,
		"payment_status": payment.PaymentStatus,
	})

	var order *model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		orders := s.orderRepo.WithTx(tx)

		if payment.TransactionID != "" {
			if _, err := orders.FindByTransactionID(payment.TransactionID); err == nil {
				return ErrDuplicateTransaction
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		cart, err := carts.FindByUserIDForUpdate(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartNotFound
			}
			return err
		}
		if cart.IsEmpty() {
			return ErrEmptyCart
		}

		items := make([]model.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.Product == nil {
				logger.Warn("Checkout item references a missing product", map[string]interface{}{
					"cart_item_id": item.ID,
					"product_id":   item.ProductID,
				})
				return ErrProductNotFound
			}
			items = append(items, model.NewOrderItem(item))
		}

		status := model.OrderStatusPending
		if payment.PaymentStatus == model.PaymentStatusPaid {
			status = model.OrderStatusPlaced
		}

		order = &model.Order{
			UserID:          userID,
			ShippingAddress: shipping,
			PaymentDetails:  payment,
			TotalPrice:      cart.TotalPrice,
			TotalDiscount:   cart.TotalDiscount,
			TotalItems:      cart.TotalItems,
			OrderStatus:     status,
			OrderItems:      items,
		}
		if err := orders.Create(order); err != nil {
			return err
		}

		cart.Apply(model.CartTotals{TotalPrice: decimal.Zero, TotalDiscount: decimal.Zero})
		if err := carts.SaveTotals(cart); err != nil {
			if errors.Is(err, repository.ErrCartVersionConflict) {
				return ErrCartModified
			}
			return err
		}
		_, err = carts.DeleteItemsByCartID(cart.ID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCartNotFound), errors.Is(err, ErrEmptyCart),
			errors.Is(err, ErrProductNotFound), errors.Is(err, ErrCartModified),
			errors.Is(err, ErrDuplicateTransaction):
			logger.Warn("Checkout rejected", map[string]interface{}{
				"user_id": userID,
				"reason":  err.Error(),
			})
			return nil, err
		}
		logger.Error("Checkout failed", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	created, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":    created.ID,
		"user_id":     userID,
		"total_price": created.TotalPrice.String(),
		"total_items": created.TotalItems,
	})

	s.notify(userID, OrderEventCreated, created)
	return created, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// GetOrderByID hides orders owned by other users behind ErrOrderNotFound.
func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		logger.Warn("Order access by non-owner", map[string]interface{}{
			"order_id": orderID,
			"user_id":  userID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	s.notify(order.UserID, OrderEventStatusChanged, order)
	return order, nil
}

func (s *orderService) UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidPaymentStatus
	}
	if err := s.orderRepo.UpdatePaymentStatus(orderID, status, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	return s.findOrder(orderID)
}

func (s *orderService) findOrder(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) notify(userID uint, eventType string, order *model.Order) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyOrder(userID, eventType, order)
}
