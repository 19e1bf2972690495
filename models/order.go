package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
)

// Order doubles as the shopping cart while its status is PENDING.
type Order struct {
	ID          uint        `gorm:"primaryKey"`
	Description string      `gorm:"size:1000"`
	Address     string      `gorm:"size:500"`
	PaymentType string      `gorm:"size:50"`
	Date        *time.Time
	Price       int64       `gorm:"not null"`
	Status      OrderStatus `gorm:"size:20;not null;index:idx_orders_user_status"`
	UserID      uint        `gorm:"not null;index:idx_orders_user_status"`
	User        User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CartItems   []CartItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
