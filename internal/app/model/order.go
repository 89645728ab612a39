package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"

	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

const DefaultPaymentMethod = "COD"

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPlaced, OrderStatusConfirmed,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

type PaymentDetails struct {
	PaymentMethod string        `gorm:"size:50;not null" json:"paymentMethod"`
	TransactionID string        `gorm:"size:255;index" json:"transactionId,omitempty"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);default:'PENDING'" json:"paymentStatus"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

// Order is an immutable snapshot of a cart at checkout. Only the status fields
// change after creation.
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	ShippingAddress PostalAddress  `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentDetails  PaymentDetails `gorm:"embedded;embeddedPrefix:payment_" json:"paymentDetails"`
	TotalPrice      Money          `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	TotalDiscount   Money          `gorm:"type:decimal(10,2);not null" json:"totalDiscount"`
	TotalItems      int            `gorm:"not null" json:"totalItems"`
	OrderStatus     OrderStatus    `gorm:"type:varchar(20);default:'PENDING'" json:"orderStatus"`
	DeliveryDate    *time.Time     `json:"deliveryDate,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Size      string    `gorm:"size:20;not null" json:"size"`
	Price     Money     `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem freezes the product's current title and selling price.
func NewOrderItem(item CartItem) OrderItem {
	return OrderItem{
		ProductID: item.ProductID,
		Name:      item.Product.Title,
		Quantity:  item.Quantity,
		Size:      item.Size,
		Price:     item.Product.DiscountedPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
}
