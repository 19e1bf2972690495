package services

import (
	"Bookstore/cache"
	"Bookstore/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CatalogService struct {
	db     *gorm.DB
	cache  *cache.BookCache
	logger *zap.Logger
}

func NewCatalogService(db *gorm.DB, books *cache.BookCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{db: db, cache: books, logger: logger}
}

type CategoryInput struct {
	Name        string
	Description string
}

type BookInput struct {
	Title    string
	Author   string
	Price    int64
	ImageURL string
}

func (in BookInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	category := models.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.db.WithContext(ctx).Omit("Books").Create(&category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.logger.Info("category created", zap.Uint("categoryID", category.ID), zap.String("name", category.Name))
	return &category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes the category with its books and every cart line that references them.
func (s *CatalogService) DeleteCategory(ctx context.Context, categoryID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, categoryID).Error; err != nil {
			return notFound(err, "category %d", categoryID)
		}

		bookIDs := tx.Model(&models.Book{}).Select("id").Where("category_id = ?", categoryID)
		if err := tx.Where("book_id IN (?)", bookIDs).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := tx.Where("category_id = ?", categoryID).Delete(&models.Book{}).Error; err != nil {
			return fmt.Errorf("delete books: %w", err)
		}
		if err := tx.Delete(&category).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.logger.Info("category deleted", zap.Uint("categoryID", categoryID))
	return nil
}

func (s *CatalogService) CreateBook(ctx context.Context, categoryID uint, in BookInput) (*models.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var book models.Book
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, categoryID).Error; err != nil {
			return notFound(err, "category %d", categoryID)
		}

		book = models.Book{
			Title:      strings.TrimSpace(in.Title),
			Author:     strings.TrimSpace(in.Author),
			Price:      in.Price,
			ImageURL:   in.ImageURL,
			CategoryID: category.ID,
		}
		if err := tx.Omit("Category").Create(&book).Error; err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		book.Category = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("book created", zap.Uint("bookID", book.ID), zap.String("title", book.Title))
	return &book, nil
}

// ListBooks serves from the cache when it is filled and fills it otherwise.
func (s *CatalogService) ListBooks(ctx context.Context) ([]models.Book, error) {
	books, ok, err := s.cache.List(ctx)
	if err != nil {
		s.logger.Warn("read book cache", zap.Error(err))
	}
	if ok {
		return books, nil
	}

	version, versionErr := s.cache.Version(ctx)
	if err := s.db.WithContext(ctx).Preload("Category").Order("id").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if versionErr != nil {
		s.logger.Warn("read book cache", zap.Error(versionErr))
		return books, nil
	}
	if err := s.cache.Fill(ctx, version, books); err != nil {
		s.logger.Warn("fill book cache", zap.Error(err))
	}
	return books, nil
}

func (s *CatalogService) GetBook(ctx context.Context, bookID uint) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).Preload("Category").First(&book, bookID).Error; err != nil {
		return nil, notFound(err, "book %d", bookID)
	}
	return &book, nil
}

// SearchBooks matches title substrings. An empty title matches every book.
func (s *CatalogService) SearchBooks(ctx context.Context, title string) ([]models.Book, error) {
	var books []models.Book
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("title LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(title)+"%").
		Order("id").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// UpdateBook replaces the book's fields and keeps its category.
func (s *CatalogService) UpdateBook(ctx context.Context, bookID uint, in BookInput) (*models.Book, error) {
	return s.updateBook(ctx, bookID, 0, in)
}

// UpdateBookInCategory replaces the book's fields and moves it to categoryID.
func (s *CatalogService) UpdateBookInCategory(ctx context.Context, categoryID, bookID uint, in BookInput) (*models.Book, error) {
	if categoryID == 0 {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, categoryID)
	}
	return s.updateBook(ctx, bookID, categoryID, in)
}

func (s *CatalogService) updateBook(ctx context.Context, bookID, categoryID uint, in BookInput) (*models.Book, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var book models.Book
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, bookID).Error; err != nil {
			return notFound(err, "book %d", bookID)
		}
		if categoryID == 0 {
			categoryID = book.CategoryID
		}

		var category models.Category
		if err := tx.First(&category, categoryID).Error; err != nil {
			return notFound(err, "category %d", categoryID)
		}

		updates := map[string]interface{}{
			"title":       strings.TrimSpace(in.Title),
			"author":      strings.TrimSpace(in.Author),
			"price":       in.Price,
			"image_url":   in.ImageURL,
			"category_id": category.ID,
		}
		if err := tx.Model(&book).Updates(updates).Error; err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		if err := tx.First(&book, bookID).Error; err != nil {
			return fmt.Errorf("reload book: %w", err)
		}
		book.Category = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("book updated", zap.Uint("bookID", book.ID), zap.Uint("categoryID", book.CategoryID))
	return &book, nil
}

// DeleteBook removes the book and every cart line that references it.
func (s *CatalogService) DeleteBook(ctx context.Context, bookID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			return notFound(err, "book %d", bookID)
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := tx.Delete(&book).Error; err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.cache.Remove(ctx, bookID); err != nil {
		s.logger.Warn("remove book from cache", zap.Uint("bookID", bookID), zap.Error(err))
	}
	s.logger.Info("book deleted", zap.Uint("bookID", bookID))
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate book cache", zap.Error(err))
	}
}

// likeEscaper makes % and _ match literally in a LIKE pattern with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// notFound turns gorm's record-not-found into ErrNotFound and wraps anything else.
func notFound(err error, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("find %s: %w", what, err)
}
