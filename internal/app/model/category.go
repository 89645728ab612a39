package model

import (
	"time"

	"gorm.io/gorm"
)

// Category is either top-level (ParentID nil) or a subcategory of one.
type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"size:100;not null;uniqueIndex:idx_category_name_parent" json:"name"`
	ParentID  *uint          `gorm:"uniqueIndex:idx_category_name_parent" json:"parent_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Parent *Category `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

func (c Category) IsTopLevel() bool {
	return c.ParentID == nil
}
