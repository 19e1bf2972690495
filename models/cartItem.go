package models

import "time"

// CartItem is one (user, book, order) line. Price is quantity times the book's unit price.
type CartItem struct {
	ID        uint  `gorm:"primaryKey"`
	Price     int64 `gorm:"not null"`
	Quantity  int64 `gorm:"not null"`
	BookID    uint  `gorm:"not null;index"`
	Book      Book  `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	UserID    uint  `gorm:"not null;index"`
	User      User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	OrderID   uint  `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
