package service

import (
	"sync"
	"testing"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notification struct {
	userID    uint
	eventType string
	orderID   uint
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) NotifyOrder(userID uint, eventType string, order *model.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{userID: userID, eventType: eventType, orderID: order.ID})
}

func TestOrderService_CheckoutSnapshot(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	orders := env.orderService(notifier)
	user := env.customer(t, "buyer@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	_, err := env.cartService().AddItem(user.ID, shirt.ID, "M", 2)
	require.NoError(t, err)

	order, err := orders.CreateOrderFromCart(user.ID, testShipping(), model.PaymentDetails{})
	require.NoError(t, err)

	assert.True(t, order.TotalPrice.Equal(money(160)))
	assert.Equal(t, 2, order.TotalItems)
	assert.True(t, order.TotalDiscount.Equal(money(40)))
	assert.Equal(t, model.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, model.DefaultPaymentMethod, order.PaymentDetails.PaymentMethod)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentDetails.PaymentStatus)
	assert.Equal(t, "Bengaluru", order.ShippingAddress.City)

	require.Len(t, order.OrderItems, 1)
	item := order.OrderItems[0]
	assert.True(t, item.Price.Equal(money(160)))
	assert.Equal(t, "M", item.Size)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, shirt.Title, item.Name)

	cart, err := env.carts.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())
	assert.Zero(t, cart.TotalItems)
	assert.True(t, cart.TotalDiscount.IsZero())

	// Later catalog edits do not touch the order.
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", shirt.ID).
		Updates(map[string]interface{}{"title": "Renamed", "discounted_price": 10}).Error)
	stored, err := orders.GetOrderByID(user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, shirt.Title, stored.OrderItems[0].Name)
	assert.True(t, stored.OrderItems[0].Price.Equal(money(160)))

	require.Len(t, notifier.events, 1)
	assert.Equal(t, notification{userID: user.ID, eventType: OrderEventCreated, orderID: order.ID}, notifier.events[0])
}

func TestOrderService_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	orders := env.orderService(nil)
	user := env.customer(t, "empty@example.com")

	_, err := orders.CreateOrderFromCart(user.ID, testShipping(), model.PaymentDetails{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	list, err := orders.GetUserOrders(user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = orders.CreateOrderFromCart(user.ID+50, testShipping(), model.PaymentDetails{})
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestOrderService_SecondCheckoutFails(t *testing.T) {
	env := newTestEnv(t)
	orders := env.orderService(nil)
	user := env.customer(t, "twice@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	_, err := env.cartService().AddItem(user.ID, shirt.ID, "M", 1)
	require.NoError(t, err)

	_, err = orders.CreateOrderFromCart(user.ID, testShipping(), model.PaymentDetails{})
	require.NoError(t, err)
	_, err = orders.CreateOrderFromCart(user.ID, testShipping(), model.PaymentDetails{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	list, err := orders.GetUserOrders(user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrderService_MissingProductAbortsCheckout(t *testing.T) {
	env := newTestEnv(t)
	orders := env.orderService(nil)
	user := env.customer(t, "missing@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)
	tee := env.product(t, category.ID, 50, 40)

	carts := env.cartService()
	_, err := carts.AddItem(user.ID, shirt.ID, "M", 1)
	require.NoError(t, err)
	_, err = carts.AddItem(user.ID, tee.ID, "M", 1)
	require.NoError(t, err)
	require.NoError(t, env.db.Delete(&model.Product{}, tee.ID).Error)

	_, err = orders.CreateOrderFromCart(user.ID, testShipping(), model.PaymentDetails{})
	assert.ErrorIs(t, err, ErrProductNotFound)

	cart, err := env.carts.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.True(t, cart.TotalPrice.Equal(money(120)))

	var count int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderService_ShippingValidation(t *testing.T) {
	env := newTestEnv(t)
	orders := env.orderService(nil)
	user := env.customer(t, "ship@example.com")

	shipping := testShipping()
	shipping.Zipcode = ""
	_, err := orders.CreateOrderFromCart(user.ID, shipping, model.PaymentDetails{})
	assert.ErrorIs(t, err, ErrInvalidShippingAddress)
	assert.Contains(t, err.Error(), "zipcode")
}

func TestOrderService_PaidCheckoutAndDuplicateTransaction(t *testing.T) {
	env := newTestEnv(t)
	orders := env.orderService(nil)
	user := env.customer(t, "paid@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)
	carts := env.cartService()

	_, err := carts.AddItem(user.ID, shirt.ID, "M", 1)
	require.NoError(t, err)

	paidAt := time.Now().UTC().Truncate(time.Second)
	payment := model.PaymentDetails{
		PaymentMethod: "card",
		TransactionID: "pi_001",
		PaymentStatus: model.PaymentStatusPaid,
		PaidAt:        &paidAt,
	}
	order, err := orders.CreateOrderFromCart(user.ID, testShipping(), payment)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPlaced, order.OrderStatus)
	assert.Equal(t, "pi_001", order.PaymentDetails.TransactionID)
	require.NotNil(t, order.PaymentDetails.PaidAt)

	_, err = carts.AddItem(user.ID, shirt.ID, "M", 1)
	require.NoError(t, err)
	_, err = orders.CreateOrderFromCart(user.ID, testShipping(), payment)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	cart, err := env.carts.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestOrderService_Ownership(t *testing.T) {
	env := newTestEnv(t)
	orders := env.orderService(nil)
	owner := env.customer(t, "owner@example.com")
	other := env.customer(t, "other@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	_, err := env.cartService().AddItem(owner.ID, shirt.ID, "M", 1)
	require.NoError(t, err)
	order, err := orders.CreateOrderFromCart(owner.ID, testShipping(), model.PaymentDetails{})
	require.NoError(t, err)

	_, err = orders.GetOrderByID(other.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = orders.GetOrderByID(owner.ID, order.ID+1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_UpdateStatuses(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	orders := env.orderService(notifier)
	user := env.customer(t, "status@example.com")
	category := env.category(t, "Clothing", "Shirts")
	shirt := env.product(t, category.ID, 100, 80)

	_, err := env.cartService().AddItem(user.ID, shirt.ID, "M", 1)
	require.NoError(t, err)
	order, err := orders.CreateOrderFromCart(user.ID, testShipping(), model.PaymentDetails{})
	require.NoError(t, err)

	updated, err := orders.UpdateOrderStatus(order.ID, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.OrderStatus)

	_, err = orders.UpdateOrderStatus(order.ID, "LOST")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	_, err = orders.UpdateOrderStatus(order.ID+9, model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	paid, err := orders.UpdatePaymentStatus(order.ID, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentDetails.PaymentStatus)

	require.Len(t, notifier.events, 2)
	assert.Equal(t, OrderEventStatusChanged, notifier.events[1].eventType)
}
