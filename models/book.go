package models

import "time"

type Book struct {
	ID         uint     `gorm:"primaryKey"`
	Title      string   `gorm:"size:255;not null;index"`
	Author     string   `gorm:"size:255;not null"`
	Price      int64    `gorm:"not null"`
	ImageURL   string   `gorm:"size:500"`
	CategoryID uint     `gorm:"not null;index"`
	Category   Category `gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
