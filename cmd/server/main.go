package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qart_back_end/internal/cache"
	"qart_back_end/internal/config"
	"qart_back_end/internal/database"
	"qart_back_end/internal/handlers"
	"qart_back_end/internal/middleware"
	"qart_back_end/internal/models"
	"qart_back_end/internal/repository"
	"qart_back_end/internal/routes"
	"qart_back_end/internal/service"
	"qart_back_end/internal/services"
	"qart_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
)

type stores struct {
	users     repository.UserRepository
	products  repository.ProductRepository
	carts     repository.CartRepository
	committer repository.CheckoutCommitter
	close     func()
}

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET manquant")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Initialisation du stockage: %v", err)
	}
	defer st.close()

	var (
		accounts   middleware.AccountResolver = st.users
		revoked    middleware.RevocationChecker
		revoker    handlers.TokenRevoker
		subscriber handlers.CartSubscriber
		publisher  service.CartPublisher
		accountsC  service.AccountCache
		once       service.OnceMarker
		limiter    *middleware.RateLimiter
	)

	// --- Redis (optionnel) ---
	if rdb, err := database.ConnectRedis(ctx, cfg.Redis); err != nil {
		log.Println("⚠️ Redis indisponible, cache, révocation et synchro panier désactivés:", err)
	} else {
		defer rdb.Close()
		store := cache.NewStore(rdb)
		userCache := cache.NewUserCache(rdb, st.users, cache.UserCacheTTL)
		events := cache.NewCartEvents(rdb)

		accounts, accountsC = userCache, userCache
		revoked, revoker, once = store, store, store
		subscriber, publisher = events, events
		limiter = middleware.NewRateLimiter(store)
	}

	// --- Elasticsearch (optionnel) ---
	var searcher service.ProductSearcher
	if es, err := database.ConnectElastic(ctx, cfg.Elastic); err != nil {
		log.Println("⚠️ Elasticsearch indisponible, recherche locale:", err)
	} else {
		searcher = services.NewProductIndex(es, cfg.Elastic.Index)
	}

	// --- MinIO (optionnel) ---
	var images service.ImageSigner
	if mc, err := database.ConnectMinIO(ctx, cfg.MinIO); err != nil {
		log.Println("⚠️ MinIO indisponible, images servies telles quelles:", err)
	} else {
		images = services.NewImageStore(mc, cfg.MinIO.Bucket, cfg.MinIO.URLTTL)
	}

	// --- Stripe (optionnel) ---
	var gateway service.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		stripe.Key = cfg.Stripe.SecretKey
		gateway = services.NewStripeGateway(cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
		log.Println("✅ Stripe initialisé")
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY manquant, recharge du wallet désactivée")
	}

	mailer := utils.NewMailer(utils.MailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	users := service.NewUserService(st.users, service.UserOptions{
		DefaultAddress:     cfg.DefaultAddress,
		DefaultWalletMoney: cfg.DefaultWalletMoney,
		Welcome:            mailer,
		Accounts:           accountsC,
	})
	products := service.NewProductService(st.products, searcher, images)
	carts := service.NewCartService(st.carts, st.products, st.users, st.committer, service.CartOptions{
		DefaultAddress:       cfg.DefaultAddress,
		DefaultPaymentOption: cfg.DefaultPaymentOption,
		MaxRetries:           cfg.CheckoutMaxRetries,
		Events:               publisher,
		Receipts:             mailer,
		Accounts:             accountsC,
	})
	wallet := service.NewWalletService(st.users, gateway, once, accountsC)

	if cfg.ProductsSeedFile != "" {
		if err := seedProducts(ctx, products, cfg.ProductsSeedFile); err != nil {
			log.Fatalf("❌ Import des produits: %v", err)
		}
	}

	oauthProviders := config.InitOAuthProviders(cfg.OAuth, cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	var origins []string
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	routes.RegisterRoutes(r, routes.Dependencies{
		Auth:           handlers.NewAuthHandler(users, tokens, revoker),
		Products:       handlers.NewProductHandler(products),
		Carts:          handlers.NewCartHandler(carts, subscriber, cfg.FrontendURL),
		Users:          handlers.NewUserHandler(users),
		Wallet:         handlers.NewWalletHandler(wallet),
		Tokens:         tokens,
		Accounts:       accounts,
		Revoked:        revoked,
		Limiter:        limiter,
		AllowedOrigins: origins,
		OAuthEnabled:   len(oauthProviders) > 0,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur QArt lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	quit, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-quit.Done()

	log.Println("🛑 Arrêt du serveur...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Arrêt forcé: %v", err)
	}
}

// openStores choisit le stockage selon STORE_DRIVER et PRODUCTS_BACKEND
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	st := &stores{close: func() {}}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		mem := repository.NewMemoryStore()
		st.users, st.products, st.carts, st.committer = mem, mem.Products(), mem.Carts(), mem
		log.Println("⚠️ Stockage en mémoire : les données sont perdues au redémarrage")
	case config.StoreMongo:
		client, db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := repository.CreateIndexes(ctx, db); err != nil {
			return nil, err
		}
		mongoStore := repository.NewMongoStore(client, db)
		st.users, st.products, st.carts, st.committer = mongoStore, mongoStore.Products(), mongoStore.Carts(), mongoStore
		st.close = func() { _ = client.Disconnect(context.Background()) }
	default:
		return nil, errors.New("STORE_DRIVER inconnu: " + cfg.StoreDriver)
	}

	if cfg.ProductsBackend == config.ProductsScylla {
		session, err := database.ConnectScylla(cfg.Scylla)
		if err != nil {
			return nil, err
		}
		st.products = repository.NewScyllaProducts(session)
		closeStore := st.close
		st.close = func() {
			session.Close()
			closeStore()
		}
	}
	return st, nil
}

func seedProducts(ctx context.Context, products *service.ProductService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var list []models.Product
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	return products.Seed(ctx, list)
}
