// Package api exposes the catalog and wishlist over the /api/v1 REST routes.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
	"github.com/tranbinhminh1403/back-end-thesis/internal/search"
	"github.com/tranbinhminh1403/back-end-thesis/internal/wishlist"
)

type Handler struct {
	catalog  *catalog.Service
	wishlist *wishlist.Service
	index    *search.Index // nil when full-text search is off
	log      *logger.Logger
}

func NewHandler(cat *catalog.Service, wl *wishlist.Service, index *search.Index, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{catalog: cat, wishlist: wl, index: index, log: log}
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Handler, timeout time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(h.log), Timeout(timeout))

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	products := v1.Group("/products")
	{
		products.GET("/list", h.ListProducts)
		products.GET("/detail/:id", h.ProductDetail)
		products.GET("/search", h.SearchProducts)
		products.GET("/find", h.FindProducts)
	}
	if h.wishlist != nil {
		wl := v1.Group("/wishlist")
		wl.POST("/add", h.AddToWishlist)
		wl.GET("/user/:userId", h.WishlistItems)
		wl.DELETE("/user/:userId/products/:productId", h.RemoveFromWishlist)
	}
	return r
}

func (h *Handler) Health(c *gin.Context) {
	status := gin.H{"store": "up", "search": "disabled"}
	if err := h.catalog.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health: store ping failed: %v", err)
		status["store"] = "down"
		c.JSON(http.StatusServiceUnavailable, envelope{Success: false, Message: "Store unavailable", Data: status})
		return
	}
	if h.index != nil {
		status["search"] = "up"
		if !h.index.Healthy() {
			status["search"] = "down"
		}
	}
	ok(c, http.StatusOK, "ok", status)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ProductsWithHistory(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Get products fail")
		return
	}
	okList(c, "All products", products, len(products))
}

func (h *Handler) ProductDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid product id")
		return
	}
	detail, err := h.catalog.ProductDetail(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Get product fail")
		return
	}
	ok(c, http.StatusOK, "Product found", detail)
}

func (h *Handler) SearchProducts(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	products, err := h.catalog.Search(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err, "Search products fail")
		return
	}
	okList(c, "All products", products, len(products))
}

func (h *Handler) FindProducts(c *gin.Context) {
	if h.index == nil {
		fail(c, http.StatusServiceUnavailable, "Full-text search is not configured")
		return
	}
	q, err := parseQuery(c)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	res, err := h.index.Search(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err, "Search products fail")
		return
	}
	total := int(res.Total)
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Search results", TotalProducts: &total, Data: res})
}

type addRequest struct {
	UserID    int64 `json:"userId" binding:"required"`
	ProductID int64 `json:"productId" binding:"required"`
}

func (h *Handler) AddToWishlist(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "userId and productId are required")
		return
	}
	item, err := h.wishlist.Add(c.Request.Context(), req.UserID, req.ProductID)
	if err != nil {
		h.respondError(c, err, "Failed to add product to wishlist")
		return
	}
	ok(c, http.StatusCreated, "Product added to wishlist", item)
}

func (h *Handler) WishlistItems(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	items, err := h.wishlist.Items(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch wishlist items")
		return
	}
	okList(c, "Wishlist items", items, len(items))
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	userID, err1 := strconv.ParseInt(c.Param("userId"), 10, 64)
	productID, err2 := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err1 != nil || err2 != nil {
		fail(c, http.StatusBadRequest, "invalid user or product id")
		return
	}
	if err := h.wishlist.Remove(c.Request.Context(), userID, productID); err != nil {
		h.respondError(c, err, "Failed to remove product from wishlist")
		return
	}
	ok(c, http.StatusOK, "Product removed from wishlist", nil)
}

// parseFilters reads name, brand, shop, repeated specs, minPrice and maxPrice.
// Blank parameters are treated as absent.
func parseFilters(c *gin.Context) (models.SearchFilters, error) {
	f := models.SearchFilters{
		Name:  strings.TrimSpace(c.Query("name")),
		Brand: strings.TrimSpace(c.Query("brand")),
		Shop:  strings.TrimSpace(c.Query("shop")),
		Specs: c.QueryArray("specs"),
	}
	var err error
	if f.MinPrice, err = parsePrice(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice(c, "maxPrice"); err != nil {
		return f, err
	}
	return f, nil
}

func parseQuery(c *gin.Context) (search.Query, error) {
	q := search.Query{
		Text:     c.Query("q"),
		Brands:   c.QueryArray("brand"),
		Shops:    c.QueryArray("shop"),
		Statuses: c.QueryArray("status"),
	}
	var err error
	if q.MinPrice, err = parsePrice(c, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parsePrice(c, "maxPrice"); err != nil {
		return q, err
	}
	if q.Limit, err = parseInt(c, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = parseInt(c, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func parsePrice(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, catalog.InvalidInput("%s must be a number", key)
	}
	return &d, nil
}

func parseInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, catalog.InvalidInput("%s must be an integer", key)
	}
	return n, nil
}
