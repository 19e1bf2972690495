package handlers

import (
	"Bookstore/models"
	"Bookstore/services"
	"time"
)

type BookDTO struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"imageUrl"`
	CategoryID   uint   `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

type CategoryDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CartDTO struct {
	ID        uint   `json:"id"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	BookID    uint   `json:"bookId"`
	OrderID   uint   `json:"orderId"`
	BookTitle string `json:"bookTitle"`
	UserID    uint   `json:"userId"`
}

type OrderDTO struct {
	ID               uint       `json:"id"`
	OrderDescription string     `json:"orderDescription"`
	Cart             []CartDTO  `json:"cartDTO"`
	Date             *time.Time `json:"date"`
	Amount           int64      `json:"amount"`
	Address          string     `json:"address"`
	OrderStatus      string     `json:"orderStatus"`
	PaymentType      string     `json:"paymentType"`
	Username         string     `json:"username"`
}

type PaymentResponseDTO struct {
	ClientSecret    string `json:"clientSecret,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	Status          string `json:"status,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
	Message         string `json:"message,omitempty"`
	Success         bool   `json:"success"`
}

func toBookDTO(b models.Book) BookDTO {
	return BookDTO{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Price:        b.Price,
		ImageURL:     b.ImageURL,
		CategoryID:   b.CategoryID,
		CategoryName: b.Category.Name,
	}
}

func toBookDTOs(books []models.Book) []BookDTO {
	out := make([]BookDTO, 0, len(books))
	for _, b := range books {
		out = append(out, toBookDTO(b))
	}
	return out
}

func toCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Description: c.Description}
}

func toCartDTO(item models.CartItem) CartDTO {
	return CartDTO{
		ID:        item.ID,
		Price:     item.Price,
		Quantity:  item.Quantity,
		BookID:    item.BookID,
		OrderID:   item.OrderID,
		BookTitle: item.Book.Title,
		UserID:    item.UserID,
	}
}

func toOrderDTO(o models.Order) OrderDTO {
	cart := make([]CartDTO, 0, len(o.CartItems))
	for _, item := range o.CartItems {
		cart = append(cart, toCartDTO(item))
	}
	return OrderDTO{
		ID:               o.ID,
		OrderDescription: o.Description,
		Cart:             cart,
		Date:             o.Date,
		Amount:           o.Price,
		Address:          o.Address,
		OrderStatus:      string(o.Status),
		PaymentType:      o.PaymentType,
		Username:         o.User.Name,
	}
}

func toOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	return out
}

func toPaymentResponse(r *services.PaymentResult) PaymentResponseDTO {
	return PaymentResponseDTO{
		ClientSecret:    r.ClientSecret,
		PaymentIntentID: r.PaymentIntentID,
		Status:          r.Status,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Message:         r.Message,
		Success:         r.Success,
	}
}
