package routes

import (
	"net/http"
	"time"

	"qart_back_end/internal/handlers"
	"qart_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/verse"

type Dependencies struct {
	Auth     *handlers.AuthHandler
	Products *handlers.ProductHandler
	Carts    *handlers.CartHandler
	Users    *handlers.UserHandler
	Wallet   *handlers.WalletHandler

	Tokens   middleware.TokenParser
	Accounts middleware.AccountResolver
	// Revoked et Limiter restent nil sans Redis
	Revoked middleware.RevocationChecker
	Limiter *middleware.RateLimiter

	AllowedOrigins []string
	OAuthEnabled   bool
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	r.Use(corsMiddleware(deps.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group(apiPrefix)
	auth := middleware.AuthRequired(deps.Tokens, deps.Accounts, deps.Revoked)

	// --- Auth ---
	authGroup := api.Group("/auth")
	authGroup.POST("/register", limit(deps.Limiter, (*middleware.RateLimiter).Register), deps.Auth.Register)
	authGroup.POST("/login", limit(deps.Limiter, (*middleware.RateLimiter).Login), deps.Auth.Login)
	authGroup.POST("/logout", auth, deps.Auth.Logout)
	if deps.OAuthEnabled {
		authGroup.GET("/oauth/:provider", deps.Auth.BeginOAuth)
		authGroup.GET("/oauth/:provider/callback", deps.Auth.OAuthCallback)
	}

	// --- Produits ---
	products := api.Group("/products")
	products.GET("", deps.Products.List)
	products.GET("/search", deps.Products.Search)
	products.GET("/:productId", deps.Products.Get)

	// --- Panier ---
	cart := api.Group("/cart", auth)
	cart.GET("", deps.Carts.Get)
	cart.GET("/ws", deps.Carts.Sync)
	mutations := cart.Group("", limit(deps.Limiter, (*middleware.RateLimiter).Cart))
	mutations.POST("", deps.Carts.Add)
	mutations.PUT("", deps.Carts.Update)
	mutations.PUT("/checkout", deps.Carts.Checkout)
	mutations.DELETE("/:productId", deps.Carts.Remove)

	// --- Utilisateurs ---
	users := api.Group("/users/:userId", auth, middleware.RequireSelf("userId"))
	users.GET("", deps.Users.Get)
	users.PUT("", deps.Users.SetAddress)

	// --- Wallet ---
	api.POST("/wallet/topup", auth, deps.Wallet.TopUp)
	api.POST("/webhooks/stripe", deps.Wallet.StripeWebhook)
}

// limit renvoie un middleware neutre quand le rate limiting est désactivé
func limit(l *middleware.RateLimiter, pick func(*middleware.RateLimiter) gin.HandlerFunc) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return pick(l)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
