package handlers

import (
	"Bookstore/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ListBooksHandler(c *gin.Context, catalog *services.CatalogService) {
	books, err := catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookDTOs(books))
}

// SearchBooksHandler lists books whose title contains the path's title.
func SearchBooksHandler(c *gin.Context, catalog *services.CatalogService) {
	books, err := catalog.SearchBooks(c.Request.Context(), c.Param("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookDTOs(books))
}
