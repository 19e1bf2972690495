package handlers

import (
	"Bookstore/services"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type bookRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Author   string `json:"author" binding:"required,max=255"`
	Price    *int64 `json:"price" binding:"required,min=0"`
	ImageURL string `json:"imageUrl" binding:"max=500"`
}

func (r bookRequest) input() services.BookInput {
	return services.BookInput{
		Title:    r.Title,
		Author:   r.Author,
		Price:    *r.Price,
		ImageURL: r.ImageURL,
	}
}

func isValidImageExtension(file *multipart.FileHeader) bool {
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func makeUniqueFileName(file *multipart.FileHeader) string {
	return fmt.Sprintf("%s%s", uuid.NewString(), strings.ToLower(filepath.Ext(file.Filename)))
}

func CreateCategoryHandler(c *gin.Context, catalog *services.CatalogService) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := catalog.CreateCategory(c.Request.Context(), services.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryDTO(*category))
}

func ListCategoriesHandler(c *gin.Context, catalog *services.CatalogService) {
	categories, err := catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]CategoryDTO, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryDTO(category))
	}
	c.JSON(http.StatusOK, out)
}

// DeleteCategoryHandler also removes the category's books.
func DeleteCategoryHandler(c *gin.Context, catalog *services.CatalogService) {
	categoryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := catalog.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func CreateBookHandler(c *gin.Context, catalog *services.CatalogService) {
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	book, err := catalog.CreateBook(c.Request.Context(), categoryID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookDTO(*book))
}

func GetBookHandler(c *gin.Context, catalog *services.CatalogService) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	book, err := catalog.GetBook(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookDTO(*book))
}

func UpdateBookHandler(c *gin.Context, catalog *services.CatalogService) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	book, err := catalog.UpdateBook(c.Request.Context(), bookID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookDTO(*book))
}

// UpdateBookInCategoryHandler updates the book and moves it to the category in the path.
func UpdateBookInCategoryHandler(c *gin.Context, catalog *services.CatalogService) {
	categoryID, ok := pathID(c, "categoryId")
	if !ok {
		return
	}
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	book, err := catalog.UpdateBookInCategory(c.Request.Context(), categoryID, bookID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookDTO(*book))
}

func DeleteBookHandler(c *gin.Context, catalog *services.CatalogService) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := catalog.DeleteBook(c.Request.Context(), bookID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImageHandler stores a cover image and returns the path it is served under.
func UploadImageHandler(c *gin.Context, uploadDir string) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if !isValidImageExtension(file) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be a .jpg, .jpeg or .png file"})
		return
	}

	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		respondError(c, fmt.Errorf("create upload dir: %w", err))
		return
	}

	imageName := makeUniqueFileName(file)
	if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, imageName)); err != nil {
		respondError(c, fmt.Errorf("save image: %w", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"imagePath": "/uploads/" + imageName})
}
