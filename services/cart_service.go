package services

import (
	"Bookstore/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartService runs the cart state machine. A user's PENDING order is the cart,
// checkout turns it SUBMITTED and the next add opens a new one.
type CartService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewCartService(db *gorm.DB, logger *zap.Logger) *CartService {
	return &CartService{db: db, logger: logger, now: time.Now}
}

type PlaceOrderInput struct {
	Address     string
	Payment     string
	Description string
}

// AddBookToCart puts one more copy of the book into the user's cart.
// created reports whether a new line was opened.
func (s *CartService) AddBookToCart(ctx context.Context, userID, bookID uint) (line *models.CartItem, created bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		var book models.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			return notFound(err, "book %d", bookID)
		}

		order, err := findPendingOrder(tx, userID)
		if err != nil {
			return err
		}
		if order == nil {
			now := s.now()
			order = &models.Order{UserID: userID, Status: models.OrderStatusPending, Date: &now}
			if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
				return fmt.Errorf("create cart: %w", err)
			}
		}

		var item models.CartItem
		err = tx.Where("user_id = ? AND book_id = ? AND order_id = ?", userID, bookID, order.ID).First(&item).Error
		switch {
		case err == nil:
			item.Quantity++
			item.Price += book.Price
			if err := tx.Model(&item).Updates(map[string]interface{}{"quantity": item.Quantity, "price": item.Price}).Error; err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{
				Price:    book.Price,
				Quantity: 1,
				BookID:   book.ID,
				UserID:   userID,
				OrderID:  order.ID,
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return fmt.Errorf("create cart item: %w", err)
			}
			created = true
		default:
			return fmt.Errorf("find cart item: %w", err)
		}

		if err := addToTotal(tx, order.ID, book.Price); err != nil {
			return err
		}
		item.Book = book
		line = &item
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("book added to cart",
		zap.Uint("userID", userID),
		zap.Uint("bookID", bookID),
		zap.Uint("orderID", line.OrderID),
		zap.Int64("quantity", line.Quantity),
	)
	return line, created, nil
}

// IncrementLine adds one unit to an existing cart line.
func (s *CartService) IncrementLine(ctx context.Context, userID, bookID uint) (*models.Order, error) {
	return s.adjustLine(ctx, userID, bookID, 1)
}

// DecrementLine takes one unit off a cart line. The last unit removes the line.
func (s *CartService) DecrementLine(ctx context.Context, userID, bookID uint) (*models.Order, error) {
	return s.adjustLine(ctx, userID, bookID, -1)
}

func (s *CartService) adjustLine(ctx context.Context, userID, bookID uint, delta int64) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		pending, err := findPendingOrder(tx, userID)
		if err != nil {
			return err
		}
		if pending == nil {
			return fmt.Errorf("%w: user %d has no cart", ErrNotFound, userID)
		}

		var book models.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			return notFound(err, "book %d", bookID)
		}

		var item models.CartItem
		err = tx.Where("user_id = ? AND book_id = ? AND order_id = ?", userID, bookID, pending.ID).First(&item).Error
		if err != nil {
			return notFound(err, "book %d in cart", bookID)
		}

		change := delta * book.Price
		if item.Quantity+delta <= 0 {
			change = -item.Price
			if err := tx.Delete(&item).Error; err != nil {
				return fmt.Errorf("delete cart item: %w", err)
			}
		} else {
			updates := map[string]interface{}{
				"quantity": item.Quantity + delta,
				"price":    item.Price + change,
			}
			if err := tx.Model(&item).Updates(updates).Error; err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
		}

		if err := addToTotal(tx, pending.ID, change); err != nil {
			return err
		}
		order, err = loadOrder(tx, pending.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RemoveLine drops the book from the cart. Removing a book that is not in the cart does nothing.
func (s *CartService) RemoveLine(ctx context.Context, userID, bookID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		pending, err := findPendingOrder(tx, userID)
		if err != nil {
			return err
		}
		if pending == nil {
			return fmt.Errorf("%w: user %d has no pending order", ErrInvalidState, userID)
		}

		var item models.CartItem
		err = tx.Where("user_id = ? AND book_id = ? AND order_id = ?", userID, bookID, pending.ID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find cart item: %w", err)
		}

		if err := tx.Delete(&item).Error; err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		return addToTotal(tx, pending.ID, -item.Price)
	})
}

// GetCart returns the user's PENDING order with its lines.
func (s *CartService) GetCart(ctx context.Context, userID uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	pending, err := findPendingOrder(db, userID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, fmt.Errorf("%w: user %d has no cart", ErrNotFound, userID)
	}
	return loadOrder(db, pending.ID)
}

// PlaceOrder checks the cart out. The total is kept as is.
func (s *CartService) PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (*models.Order, error) {
	if strings.TrimSpace(in.Address) == "" {
		return nil, fmt.Errorf("%w: address is required", ErrValidation)
	}
	if strings.TrimSpace(in.Payment) == "" {
		return nil, fmt.Errorf("%w: payment is required", ErrValidation)
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		pending, err := findPendingOrder(tx, userID)
		if err != nil {
			return err
		}
		if pending == nil {
			return fmt.Errorf("%w: user %d has no pending order", ErrInvalidState, userID)
		}

		var lines int64
		if err := tx.Model(&models.CartItem{}).Where("order_id = ?", pending.ID).Count(&lines).Error; err != nil {
			return fmt.Errorf("count cart items: %w", err)
		}
		if lines == 0 {
			return fmt.Errorf("%w: cart is empty", ErrInvalidState)
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":       models.OrderStatusSubmitted,
			"address":      in.Address,
			"payment_type": in.Payment,
			"description":  in.Description,
			"date":         now,
		}
		if err := tx.Model(pending).Updates(updates).Error; err != nil {
			return fmt.Errorf("submit order: %w", err)
		}
		order, err = loadOrder(tx, pending.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.Uint("userID", userID),
		zap.Uint("orderID", order.ID),
		zap.Int64("amount", order.Price),
	)
	return order, nil
}

// ListSubmittedOrders returns the user's order history.
func (s *CartService) ListSubmittedOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.listOrders(s.db.WithContext(ctx).Where("user_id = ?", userID))
}

// ListAllSubmittedOrders returns every checked out order.
func (s *CartService) ListAllSubmittedOrders(ctx context.Context) ([]models.Order, error) {
	return s.listOrders(s.db.WithContext(ctx))
}

func (s *CartService) listOrders(db *gorm.DB) ([]models.Order, error) {
	var orders []models.Order
	err := db.Where("status = ?", models.OrderStatusSubmitted).
		Preload("User").
		Preload("CartItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("CartItems.Book").
		Order("id").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// lockUser serializes cart mutations of one user. SQLite has no row locks
// and already serializes writers.
func lockUser(tx *gorm.DB, userID uint) error {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var user models.User
	if err := q.Select("id").First(&user, userID).Error; err != nil {
		return notFound(err, "user %d", userID)
	}
	return nil
}

// findPendingOrder returns nil when the user has no cart.
func findPendingOrder(db *gorm.DB, userID uint) (*models.Order, error) {
	var order models.Order
	err := db.Where("user_id = ? AND status = ?", userID, models.OrderStatusPending).Order("id").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending order: %w", err)
	}
	return &order, nil
}

func loadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("User").
		Preload("CartItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("CartItems.Book").
		First(&order, orderID).Error
	if err != nil {
		return nil, notFound(err, "order %d", orderID)
	}
	return &order, nil
}

func addToTotal(tx *gorm.DB, orderID uint, delta int64) error {
	err := tx.Model(&models.Order{}).Where("id = ?", orderID).
		Update("price", gorm.Expr("price + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	return nil
}
