package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/redis/go-redis/v9"

	"github.com/shopdientu/electro-shop-backend/internal/cart"
	"github.com/shopdientu/electro-shop-backend/internal/category"
	"github.com/shopdientu/electro-shop-backend/internal/config"
	"github.com/shopdientu/electro-shop-backend/internal/database"
	"github.com/shopdientu/electro-shop-backend/internal/events"
	"github.com/shopdientu/electro-shop-backend/internal/order"
	"github.com/shopdientu/electro-shop-backend/internal/pricing"
	"github.com/shopdientu/electro-shop-backend/internal/product"
	"github.com/shopdientu/electro-shop-backend/internal/promotion"
	"github.com/shopdientu/electro-shop-backend/internal/rank"
	"github.com/shopdientu/electro-shop-backend/internal/user"
	"github.com/shopdientu/electro-shop-backend/internal/wishlist"
)

// main wires dependencies and starts the HTTP server.
func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// auth rejects requests without a valid token; optionalAuth parses the
	// token when present and lets anonymous requests through, so carts and
	// checkout work for guests too.
	auth := jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	})
	optionalAuth := jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Next()
		},
	})

	productRepo := product.NewPostgresRepository(db)
	productService := product.NewService(productRepo)
	promotionRepo := promotion.NewPostgresRepository(db)
	pricingEngine := pricing.NewEngine(promotionRepo)

	rankRepo := rank.NewPostgresRepository(db)
	userRepo := user.NewPostgresRepository(db)
	rankResolver := rank.NewResolver(rankRepo, userRepo)
	userService := user.NewService(userRepo, rankRepo, rankResolver)

	cartRepo := cart.NewRedisRepository(rdb, cfg.CartTTL)
	cartService := cart.NewService(cartRepo, productRepo, pricingEngine)

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	orderRepo := order.NewPostgresRepository(db)
	guestContacts := order.NewRedisGuestContactStore(rdb, cfg.GuestContactTTL)
	orderService := order.NewService(orderRepo, cartService, pricingEngine, userService, guestContacts, publisher)

	userHandler := user.NewHandler(userService, cartService, cfg.JWTSecret, cart.SessionCookie)
	userHandler.RegisterPublicRoutes(app)
	userHandler.RegisterProtectedRoutes(app, auth)

	product.NewHandler(productService).RegisterPublicRoutes(app)
	category.NewHandler(category.NewPostgresRepository(db)).RegisterPublicRoutes(app)

	cart.NewHandler(cartService, productRepo, userService).RegisterRoutes(app, optionalAuth)
	order.NewHandler(orderService).RegisterRoutes(app, auth, optionalAuth)

	wishlistService := wishlist.NewService(wishlist.NewPostgresRepository(db), productRepo)
	wishlist.NewHandler(wishlistService).RegisterProtectedRoutes(app, auth)

	log.Printf("starting server on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
