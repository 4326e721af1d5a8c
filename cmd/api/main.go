package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-stockwise/internal/config"
	"go-stockwise/internal/handler"
	"go-stockwise/internal/middleware"
	"go-stockwise/internal/model"
	"go-stockwise/internal/service"
	"go-stockwise/internal/session"
	"go-stockwise/internal/store"
	"go-stockwise/internal/ws"
	"go-stockwise/pkg/authtoken"
	"go-stockwise/pkg/storage"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Open the persistence medium
	var kv storage.KV
	if cfg.DBPath != "" {
		var err error
		kv, err = storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database at %s: %v", cfg.DBPath, err)
		}
	} else {
		log.Println("Warning: STOCKWISE_DB_PATH not set, running on in-memory storage")
		kv = storage.Memory()
	}
	defer kv.Close()

	// 3. Store and session manager over the shared medium
	st := store.Open(kv)

	secret := []byte(cfg.AuthSecret)
	if len(secret) == 0 {
		secret = authtoken.SecretFromEnv()
	}
	sessions := session.NewManager(kv, authtoken.New(secret), session.WithDuration(cfg.SessionDuration))
	defer sessions.Close()

	// Mutations are attributed to whoever holds the current session.
	st.SetActor(sessions.CurrentActor)

	// 4. Seed default data
	seedDefaults(st, cfg.SeedSampleData)

	// 5. WebSocket hub mirrors store and auth changes to all clients
	wsHub := ws.NewHub()
	go wsHub.Run()
	defer wsHub.WatchStore(st)()
	defer wsHub.WatchSession(sessions)()

	// 6. Dependency Injection (Wiring Layers)
	authService := service.NewAuthService(st, sessions)
	invService := service.NewInventoryService(st)
	supplierService := service.NewSupplierService(st)
	userService := service.NewUserService(st)
	dashService := service.NewDashboardService(st, invService)

	authHandler := handler.NewAuthHandler(authService, sessions)
	invHandler := handler.NewInventoryHandler(invService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	userHandler := handler.NewUserHandler(userService)
	dashHandler := handler.NewDashboardHandler(dashService)
	backupHandler := handler.NewBackupHandler(st)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "StockWise v1.0",
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)
	auth.Get("/session", authHandler.Session)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(sessions))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	protected.Get("/dashboard/stats", dashHandler.GetStats)
	protected.Get("/dashboard/recent-movements", dashHandler.GetRecentMovements)
	protected.Get("/activity-logs", dashHandler.GetActivityLogs)

	protected.Get("/products", invHandler.GetProducts)
	protected.Get("/products/low-stock", invHandler.GetLowStock)
	protected.Get("/products/:id", invHandler.GetProduct)
	protected.Post("/products", invHandler.CreateProduct)
	protected.Put("/products/:id", invHandler.UpdateProduct)
	protected.Delete("/products/:id", invHandler.DeleteProduct)

	protected.Get("/categories", invHandler.GetCategories)
	protected.Post("/categories", invHandler.CreateCategory)
	protected.Put("/categories/:id", invHandler.UpdateCategory)
	protected.Delete("/categories/:id", invHandler.DeleteCategory)

	protected.Get("/suppliers", supplierHandler.GetSuppliers)
	protected.Get("/suppliers/:id", supplierHandler.GetSupplier)
	protected.Post("/suppliers", supplierHandler.CreateSupplier)
	protected.Put("/suppliers/:id", supplierHandler.UpdateSupplier)
	protected.Delete("/suppliers/:id", supplierHandler.DeleteSupplier)

	protected.Get("/stock-movements", invHandler.GetMovements)
	protected.Post("/stock-movements", invHandler.CreateMovement)

	// ============ ADMIN ROUTES ============
	admin := api.Group("", middleware.RequireAuth(sessions, model.RoleAdmin))

	admin.Get("/users", userHandler.GetUsers)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Post("/users", userHandler.CreateUser)
	admin.Put("/users/:id", userHandler.UpdateUser)
	admin.Delete("/users/:id", userHandler.DeleteUser)

	admin.Get("/backup/export", backupHandler.Export)
	admin.Post("/backup/import", backupHandler.Import)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Session monitor expires stale sessions every minute
	sessions.StartMonitor()

	// 10. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedDefaults creates the admin account and the starter categories when
// their tables are empty. Sample suppliers and products are opt-in.
func seedDefaults(st *store.Store, sampleData bool) {
	userCount, err := st.Count(store.TableUsers, nil)
	if err == nil && userCount == 0 {
		admin := &model.User{
			Username: "admin",
			Email:    "admin@stockwise.com",
			FullName: "System Administrator",
			Role:     model.RoleAdmin,
			Status:   model.StatusActive,
		}
		if err := admin.SetPassword("password123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
		} else if _, err := st.Insert(store.TableUsers, admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created: admin / password123")
		}
	}

	categoryCount, err := st.Count(store.TableCategories, nil)
	if err == nil && categoryCount == 0 {
		defaults := []model.Category{
			{Name: "Electronics", Description: "Electronic devices and components", Status: model.StatusActive},
			{Name: "Clothing", Description: "Apparel and fashion items", Status: model.StatusActive},
			{Name: "Books", Description: "Books and educational materials", Status: model.StatusActive},
			{Name: "Home & Garden", Description: "Home improvement and garden supplies", Status: model.StatusActive},
			{Name: "Sports", Description: "Sports equipment and accessories", Status: model.StatusActive},
		}
		for i := range defaults {
			if _, err := st.Insert(store.TableCategories, &defaults[i]); err != nil {
				log.Printf("Warning: Failed to seed category %s: %v", defaults[i].Name, err)
			}
		}
	}

	if !sampleData {
		return
	}

	supplierCount, err := st.Count(store.TableSuppliers, nil)
	if err != nil || supplierCount > 0 {
		return
	}

	supplier := &model.Supplier{
		SupplierName:  "TechCorp Solutions",
		ContactPerson: "John Smith",
		Email:         "john@techcorp.com",
		Phone:         "+91-9876543210",
		Address:       "123 Tech Street, Mumbai, Maharashtra 400001",
		Status:        model.StatusActive,
	}
	if _, err := st.Insert(store.TableSuppliers, supplier); err != nil {
		log.Printf("Warning: Failed to seed supplier: %v", err)
		return
	}

	samples := []model.Product{
		{
			ProductName:  "Dell Laptop XPS 13",
			ProductCode:  "DELL-XPS-13",
			Category:     "Electronics",
			SupplierID:   &supplier.ID,
			UnitPrice:    85000,
			CurrentStock: 25,
			MinimumStock: 5,
			MaximumStock: 50,
			Unit:         "pcs",
			Status:       model.StatusActive,
		},
		{
			ProductName:  "Wireless Mouse",
			ProductCode:  "WM-001",
			Category:     "Electronics",
			SupplierID:   &supplier.ID,
			UnitPrice:    1200,
			CurrentStock: 3,
			MinimumStock: 10,
			MaximumStock: 100,
			Unit:         "pcs",
			Status:       model.StatusActive,
		},
	}
	for i := range samples {
		if _, err := st.Insert(store.TableProducts, &samples[i]); err != nil {
			log.Printf("Warning: Failed to seed product %s: %v", samples[i].ProductName, err)
		}
	}
}
