package model

import (
	"time"

	"gorm.io/gorm"
)

type Gender string

const (
	GenderMen   Gender = "Men"
	GenderWomen Gender = "Women"
	GenderBoy   Gender = "Boy"
	GenderGirl  Gender = "Girl"
)

// KidsGenders are the gender tags grouped under "Kids" in new arrivals.
var KidsGenders = []Gender{GenderBoy, GenderGirl}

func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderBoy, GenderGirl:
		return true
	}
	return false
}

type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                               // product ID
	Title           string         `gorm:"size:255;not null" json:"title"`                     // display name
	Description     string         `gorm:"type:text;not null" json:"description"`              // long description
	Price           Money          `gorm:"type:decimal(10,2);not null" json:"price"`           // list price
	DiscountedPrice Money          `gorm:"type:decimal(10,2);not null" json:"discountedPrice"` // selling price
	Brand           string         `gorm:"size:100;index" json:"brand"`                        // brand name
	Color           string         `gorm:"size:50;index" json:"color"`                         // primary color
	Gender          Gender         `gorm:"type:varchar(10);index" json:"gender"`               // Men, Women, Boy, Girl
	Ratings         float64        `gorm:"not null;default:0" json:"ratings"`                  // average review rating
	CategoryID      uint           `gorm:"not null;index" json:"category_id"`                  // leaf category
	CreatedAt       time.Time      `gorm:"index" json:"createdAt"`                             // creation time
	UpdatedAt       time.Time      `json:"updatedAt"`                                          // last update
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                     // soft delete

	Category Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Sizes    []ProductSize  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"sizes"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"imageUrl"`
	Reviews  []Review       `gorm:"foreignKey:ProductID" json:"reviews,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// Discount is the per-unit difference between list and selling price.
func (p Product) Discount() Money {
	return p.Price.Sub(p.DiscountedPrice)
}

type ProductSize struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	ProductID uint   `gorm:"not null;index" json:"-"`
	Name      string `gorm:"size:20;not null;index" json:"name"`
	Quantity  int    `gorm:"not null;default:0" json:"quantity"`
}

func (ProductSize) TableName() string {
	return "product_sizes"
}

type ProductImage struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	ProductID uint   `gorm:"not null;index" json:"-"`
	URL       string `gorm:"type:text;not null" json:"url"`
	PublicID  string `gorm:"size:255" json:"public_id"`
}

func (ProductImage) TableName() string {
	return "product_images"
}
