package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/search"
	"github.com/tranbinhminh1403/back-end-thesis/internal/wishlist"
)

// envelope is the body of every /api/v1 response.
type envelope struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TotalProducts *int   `json:"totalProducts,omitempty"`
	Data          any    `json:"data,omitempty"`
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func okList(c *gin.Context, message string, data any, total int) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, TotalProducts: &total, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

// respondError maps a service error to a status and message. failMsg is used
// for failures the client cannot act on.
func (h *Handler) respondError(c *gin.Context, err error, failMsg string) {
	status, msg := http.StatusInternalServerError, failMsg

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		status, msg = http.StatusNotFound, "Product not found"
	case errors.Is(err, catalog.ErrEmptyResult):
		status, msg = http.StatusNotFound, "No record found"
	case errors.Is(err, wishlist.ErrWishlistNotFound):
		status, msg = http.StatusNotFound, "Wishlist not found for the user"
	case errors.Is(err, wishlist.ErrAlreadyInWishlist):
		status, msg = http.StatusBadRequest, "Product already in wishlist"
	case errors.Is(err, catalog.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "Request timed out"
	case errors.Is(err, search.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("%s %s [%s]: %v", c.Request.Method, c.FullPath(), requestID(c), err)
	}
	fail(c, status, msg)
}
