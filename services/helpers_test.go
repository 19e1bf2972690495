package services

import (
	"Bookstore/config"
	"Bookstore/jwt"
	"Bookstore/models"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "bookstore.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newUserService(db *gorm.DB) *UserService {
	return NewUserService(db, jwt.NewManager(testKey, time.Hour), zap.NewNop())
}

func mustSignUp(t *testing.T, users *UserService, email string) *models.User {
	t.Helper()
	user, err := users.SignUp(context.Background(), SignUpInput{Name: "Reader", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return user
}

func mustCategory(t *testing.T, catalog *CatalogService, name string) *models.Category {
	t.Helper()
	category, err := catalog.CreateCategory(context.Background(), CategoryInput{Name: name, Description: name + " books"})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return category
}

func mustBook(t *testing.T, catalog *CatalogService, categoryID uint, title string, price int64) *models.Book {
	t.Helper()
	book, err := catalog.CreateBook(context.Background(), categoryID, BookInput{Title: title, Author: "Author", Price: price})
	if err != nil {
		t.Fatalf("create book %s: %v", title, err)
	}
	return book
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
