package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-user working set of items. Totals are derived from Items and
// are only rewritten by cart mutations and checkout.
type Cart struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	TotalPrice    Money     `gorm:"type:decimal(10,2);not null;default:0" json:"totalPrice"`
	TotalItems    int       `gorm:"not null;default:0" json:"totalItems"`
	TotalDiscount Money     `gorm:"type:decimal(10,2);not null;default:0" json:"totalDiscount"`
	Version       int       `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product_size" json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product_size" json:"product_id"`
	Size      string    `gorm:"size:20;not null;uniqueIndex:idx_cart_product_size" json:"size"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type CartTotals struct {
	TotalPrice    Money
	TotalItems    int
	TotalDiscount Money
}

// CalculateCartTotals sums the items against their loaded products. An item
// whose product did not resolve contributes its quantity but no money.
func CalculateCartTotals(items []CartItem) CartTotals {
	totals := CartTotals{TotalPrice: decimal.Zero, TotalDiscount: decimal.Zero}
	for _, item := range items {
		totals.TotalItems += item.Quantity
		if item.Product == nil {
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		totals.TotalPrice = totals.TotalPrice.Add(item.Product.DiscountedPrice.Mul(qty))
		totals.TotalDiscount = totals.TotalDiscount.Add(item.Product.Discount().Mul(qty))
	}
	return totals
}

// Apply copies totals onto the cart.
func (c *Cart) Apply(t CartTotals) {
	c.TotalPrice = t.TotalPrice
	c.TotalItems = t.TotalItems
	c.TotalDiscount = t.TotalDiscount
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
