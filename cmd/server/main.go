// @title           Event Photo Backend API
// @version         1.0.0
// @description     Backend API for event photography sales. Events contain flows, speeches and members; members carry ordered photos sold through Robokassa, with watermarked previews public and full versions disclosed per buyer.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"
	"net/url"
	"os"

	"eventphoto-backend/docs"
	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/database"
	"eventphoto-backend/internal/handlers"
	"eventphoto-backend/internal/middleware"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/pricing"
	"eventphoto-backend/internal/robokassa"
	"eventphoto-backend/internal/services"
	"eventphoto-backend/internal/supabase"
	"eventphoto-backend/internal/watermark"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	db, err := postgres.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer db.Close()

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	publicStorage, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabasePublicBucket, supabase.BucketPublic)
	if err != nil {
		log.Fatalf("Failed to initialize public storage client: %v", err)
	}
	privateStorage, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabasePrivateBucket, supabase.BucketPrivate)
	if err != nil {
		log.Fatalf("Failed to initialize private storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	stampData := watermark.DefaultStamp()
	if cfg.WatermarkPath != "" {
		stampData, err = os.ReadFile(cfg.WatermarkPath)
		if err != nil {
			log.Fatalf("Failed to read watermark file: %v", err)
		}
	}
	tiler, err := watermark.NewTiler(stampData, uint8(cfg.WatermarkOpacity), 48)
	if err != nil {
		log.Fatalf("Failed to initialize watermark: %v", err)
	}

	gateway := robokassa.New(cfg.RobokassaLogin, cfg.RobokassaFirstPassword, cfg.RobokassaSecondPassword, cfg.RobokassaIsTest)
	policy := pricing.NewPolicy(cfg.SpeechPriceTiers)

	authService := services.NewAuthService(db, cfg)
	mediaService := services.NewMediaService(db, publicStorage, privateStorage, tiler, realtimeClient, cfg)
	paymentService := services.NewPaymentService(db, gateway, policy, realtimeClient, cfg)
	orderService := services.NewOrderService(db, realtimeClient)
	importService := services.NewImportService(db, mediaService)

	authHandler := handlers.NewAuthHandler(authService)
	eventsHandler := handlers.NewEventsHandler(db, importService)
	flowsHandler := handlers.NewFlowsHandler(db)
	speechesHandler := handlers.NewSpeechesHandler(db, policy)
	membersHandler := handlers.NewMembersHandler(db, privateStorage)
	mediaHandler := handlers.NewMediaHandler(mediaService)
	ordersHandler := handlers.NewOrdersHandler(orderService)
	paymentsHandler := handlers.NewPaymentsHandler(paymentService, cfg)

	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")

	// Auth
	api.POST("/auth/sign-up", authHandler.SignUp)
	api.POST("/auth/sign-in", authHandler.SignIn)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Gateway callbacks (no auth, signature-verified)
	api.GET("/payment/success", paymentsHandler.PaymentSuccess)
	api.GET("/payment/fail", paymentsHandler.PaymentFail)

	// Public catalog; a present token widens disclosure
	catalog := api.Group("")
	catalog.Use(middleware.OptionalAuthMiddleware(cfg))
	catalog.GET("/events", eventsHandler.ListEvents)
	catalog.GET("/events/:id", eventsHandler.GetEvent)
	catalog.GET("/events/:id/flows", flowsHandler.ListFlows)
	catalog.GET("/flows/:id", flowsHandler.GetFlow)
	catalog.GET("/flows/:id/speeches", speechesHandler.ListSpeeches)
	catalog.GET("/speeches/:id", speechesHandler.GetSpeech)
	catalog.GET("/speeches/:id/members", membersHandler.ListMembers)
	catalog.GET("/members/:id", membersHandler.GetMember)

	// Buyer endpoints
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))
	authed.POST("/payment", paymentsHandler.CreatePurchase)
	authed.GET("/orders", ordersHandler.ListOrders)
	authed.GET("/orders/:id", ordersHandler.GetOrder)
	authed.POST("/orders/:id/skip-processing", ordersHandler.SkipProcessing)

	// Admin endpoints
	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	admin.POST("/events", eventsHandler.CreateEvent)
	admin.PATCH("/events/:id", eventsHandler.UpdateEvent)
	admin.DELETE("/events/:id", eventsHandler.DeleteEvent)
	admin.POST("/events/import", eventsHandler.ImportZip)
	admin.POST("/flows", flowsHandler.CreateFlow)
	admin.DELETE("/flows/:id", flowsHandler.DeleteFlow)
	admin.POST("/speeches", speechesHandler.CreateSpeech)
	admin.PATCH("/speeches/:id", speechesHandler.UpdateSpeech)
	admin.DELETE("/speeches/:id", speechesHandler.DeleteSpeech)
	admin.POST("/members", membersHandler.CreateMember)
	admin.DELETE("/members/:id", membersHandler.DeleteMember)
	admin.GET("/members/:id/download", membersHandler.DownloadArchive)
	admin.POST("/members/:id/media", mediaHandler.AddMedia)
	admin.PATCH("/media/:id", mediaHandler.UpdateMedia)
	admin.DELETE("/media/:id", mediaHandler.DeleteMedia)
	admin.PATCH("/orders/:id/status", ordersHandler.ChangeStatus)
	admin.POST("/orders/:id/media/:mediaId/processed", mediaHandler.UploadProcessed)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
