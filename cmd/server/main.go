package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/evently-hq/evently-backend/internal/config"
	"github.com/evently-hq/evently-backend/internal/database"
	"github.com/evently-hq/evently-backend/internal/handlers"
	"github.com/evently-hq/evently-backend/internal/middleware"
	"github.com/evently-hq/evently-backend/internal/routes"
	"github.com/evently-hq/evently-backend/internal/services"
	"github.com/evently-hq/evently-backend/internal/store"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI, database.RedisSettings{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	}); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (demerit audit trail)
	log.Printf("Connecting to MongoDB...")
	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.DisconnectMongo()

	if err := services.EnsureAuditIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB audit indexes: %v", err)
	} else {
		log.Println("✅ MongoDB audit indexes ensured")
	}

	// Initialize Cloudinary service (event cover uploads)
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Cover image uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Cover image uploads will not be available")
	}

	// Wire the demerit system: Postgres store behind the service layer
	demeritStore := store.NewPostgresStore(database.PostgresDB)
	restrictionService := services.NewRestrictionService(demeritStore)
	demeritService := services.NewDemeritService(demeritStore, restrictionService)
	handlers.InitDemeritSystem(demeritService)

	// Start the check-in feed subscriber (Redis pub/sub → WebSocket fan-out)
	services.StartCheckInFeedSubscriber(context.Background())

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → AdminRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + admin rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r)

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  GET  /api/demerits")
	log.Println("  POST /api/demerits")
	log.Println("  POST /api/demerits/sweep")
	log.Println("  GET  /api/demerits/restrictions")
	log.Println("  GET  /api/demerits/appeals")
	log.Println("  POST /api/demerits/appeals")
	log.Println("  GET  /api/admin/demerits/audit")
	log.Println("  POST /api/events")
	log.Println("  GET  /api/events")
	log.Println("  POST /api/events/register")
	log.Println("  DELETE /api/events/register")
	log.Println("  POST /api/checkin")
	log.Println("  POST /api/checkin/no-shows")
	log.Println("  POST /api/upload")
	log.Println("  GET  /ws/checkins")

	log.Printf("🚀 Evently backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
