package model

import (
	"time"

	"gorm.io/gorm"
)

// PostalAddress is the set of fields shared by a saved address and an order's
// shipping snapshot.
type PostalAddress struct {
	FirstName string `gorm:"size:100;not null" json:"firstName" binding:"required"`
	LastName  string `gorm:"size:100;not null" json:"lastName" binding:"required"`
	Country   string `gorm:"size:100;not null" json:"country" binding:"required"`
	Address   string `gorm:"type:text;not null" json:"address" binding:"required"`
	City      string `gorm:"size:100;not null" json:"city" binding:"required"`
	State     string `gorm:"size:100;not null" json:"state" binding:"required"`
	Zipcode   string `gorm:"size:20;not null" json:"zipcode" binding:"required"`
	Mobile    string `gorm:"size:30;not null" json:"mobile" binding:"required"`
	Email     string `gorm:"size:255;not null" json:"email" binding:"required,email"`
}

// Missing returns the name of the first empty field, or "" when complete.
func (p PostalAddress) Missing() string {
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"country", p.Country},
		{"address", p.Address},
		{"city", p.City},
		{"state", p.State},
		{"zipcode", p.Zipcode},
		{"mobile", p.Mobile},
		{"email", p.Email},
	}
	for _, f := range fields {
		if f.value == "" {
			return f.name
		}
	}
	return ""
}

type Address struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	PostalAddress
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}
