package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vibe-commerce/internal/domain"
	cartsvc "vibe-commerce/internal/service/cart"
)

type productLister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type cartService interface {
	Get(ctx context.Context) (domain.CartView, error)
	AddItem(ctx context.Context, in cartsvc.AddInput) (*domain.CartItem, bool, error)
	RemoveItem(ctx context.Context, id string) error
}

type checkoutService interface {
	Checkout(ctx context.Context) (*domain.Receipt, error)
}

type storeHandle interface {
	Established() bool
	Warm(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the routes need.
type Deps struct {
	Catalog  productLister
	CartSvc  cartService
	Checkout checkoutService
	Store    storeHandle
	Ready    pinger
}

type handlers struct {
	logger   zerolog.Logger
	catalog  productLister
	cart     cartService
	checkout checkoutService
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		requestLogger(logger),
		gin.CustomRecovery(func(c *gin.Context, rec any) {
			logger.Error().Interface("panic", rec).Str("path", c.Request.URL.Path).Msg("recovered from panic")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": msgServerError})
		}),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			MaxAge:          12 * time.Hour,
		}),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))

	h := &handlers{
		logger:   logger,
		catalog:  deps.Catalog,
		cart:     deps.CartSvc,
		checkout: deps.Checkout,
	}

	api := router.Group("/api")
	api.GET("/products", h.listProducts)

	// The catalog never touches the store, so only these routes wait on a dial.
	stored := api.Group("")
	if deps.Store != nil {
		stored.Use(storeMiddleware(deps.Store, logger))
	}
	stored.GET("/cart", h.getCart)
	stored.POST("/cart", h.addToCart)
	stored.DELETE("/cart/:id", h.removeFromCart)
	stored.POST("/checkout", h.checkoutCart)

	return router
}

// storeMiddleware establishes the storage connection on the first request
// that needs it. A failure is logged and the request continues; the store
// call itself then fails and is reported as a server error.
func storeMiddleware(store storeHandle, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Established() {
			if err := store.Warm(c.Request.Context()); err != nil {
				logger.Error().Err(err).Msg("storage connection failed")
			} else {
				logger.Info().Msg("storage connected")
			}
		}
		c.Next()
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		if status >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
