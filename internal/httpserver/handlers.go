package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vibe-commerce/internal/domain"
	cartsvc "vibe-commerce/internal/service/cart"
)

const (
	msgServerError    = "Server Error"
	msgCatalogError   = "Server Error while fetching products"
	msgMissingDetails = "Please include all product details"
	msgItemNotFound   = "Item not found in cart"
	msgItemRemoved    = "Item removed from cart"
	msgEmptyCart      = "Cart is empty, cannot checkout."
)

type addItemRequest struct {
	ProductID *int64   `json:"productId"`
	Quantity  *int     `json:"quantity"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Image     string   `json:"image"`
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.cart.Get(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": msgMissingDetails})
		return
	}

	item, created, err := h.cart.AddItem(c.Request.Context(), cartsvc.AddInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Title:     req.Name,
		Price:     req.Price,
		Image:     req.Image,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, item)
}

func (h *handlers) removeFromCart(c *gin.Context) {
	if err := h.cart.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msgItemRemoved})
}

func (h *handlers) checkoutCart(c *gin.Context) {
	receipt, err := h.checkout.Checkout(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReceiptResponse(*receipt))
}

// writeError maps domain errors to status codes. Server-side failures are
// logged and answered with a generic body.
func (h *handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"msg": msgMissingDetails, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": msgItemNotFound})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"msg": msgEmptyCart})
	case errors.Is(err, domain.ErrUpstream):
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("catalog request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": msgCatalogError})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": msgServerError})
	}
}
