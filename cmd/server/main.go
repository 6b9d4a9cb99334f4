package main

import (
	"log"
	"strings"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/catalog"
	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/report"
	"pos-backend/internal/sales"
	"pos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Geçersiz yapılandırma: %v", err)
	}

	policy, err := stock.ParsePolicy(string(cfg.StockPolicy))
	if err != nil {
		log.Fatalf("Geçersiz yapılandırma: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Geçersiz yapılandırma: %v", err)
	}

	db := database.Init(cfg)
	metrics.InitMetrics()

	salesSvc := sales.NewService(db, stock.NewReconciler(policy))
	agg := report.NewAggregator(sales.NewStore(db), loc)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metrics.PrometheusMiddleware())

	// CORS origins virgülle ayrılmış string
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Veritabanına ulaşılamıyor")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(db))
	api.Post("/auth/login", auth.LoginHandler(db, cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateCashierHandler(db))

	// Ürün yönetimi
	adminRoutes.Post("/products", catalog.CreateProductHandler(db))
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler(db))
	adminRoutes.Delete("/products/:id", catalog.DeleteProductHandler(db))

	// Ürün listesi
	protected.Get("/products", catalog.ListProductsHandler(db))
	protected.Get("/products/:id", catalog.GetProductHandler(db))

	// Satış fişleri
	sales.NewHandler(salesSvc, loc).RegisterRoutes(protected.Group("/transactions"))

	// Günlük rapor
	protected.Get("/reports/daily", report.DailyReportHandler(agg))

	// Audit log
	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler(db))

	log.Printf("Stok politikası: %s, rapor saat dilimi: %s", policy, loc)
	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
