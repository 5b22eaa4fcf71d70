package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"bundlehub/internal/catalog"
	"bundlehub/internal/config"
	"bundlehub/internal/database"
	"bundlehub/internal/handlers"
	"bundlehub/internal/middleware"
	"bundlehub/internal/paystack"
	"bundlehub/internal/provider"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsureUnmatchedEventIndexes(db); err != nil {
		log.Printf("⚠️ unmatched event index warning: %v", err)
	}

	cat := catalog.Default()
	ps := paystack.New(config.AppEnv.PaystackSecretKey, config.AppEnv.PaystackPublicKey)
	prov := provider.New(
		config.AppEnv.ProviderAPIKey,
		config.AppEnv.ProviderBaseURL,
		config.AppEnv.Domain+"/fulfillment-webhook",
		config.AppEnv.ProviderTimeout,
	)
	fulfiller := handlers.NewFulfiller(db, cat, prov, config.AppEnv.FulfillmentDelay)

	r := gin.Default()

	r.GET("/api/health", handlers.Health(db))
	r.GET("/bundles", handlers.GetBundles(cat))

	r.POST("/orders", handlers.CreateOrder(db, cat, config.AppEnv.PaystackPublicKey))
	r.GET("/orders", handlers.SearchOrders(db))
	r.GET("/orders/:orderId", handlers.GetOrder(db))
	r.GET("/orders/:orderId/sync", handlers.SyncOrder(db, prov))
	r.POST("/orders/:orderId/pay", handlers.InitializePayment(db, ps, config.AppEnv.Domain))

	r.POST("/payment-webhook", handlers.PaystackWebhook(db, ps, fulfiller))
	r.POST("/fulfillment-webhook", handlers.ProviderWebhook(db))

	r.POST("/admin/login", handlers.AdminLogin(config.AppEnv))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/orders", handlers.ListOrders(db))
		admin.GET("/stats", handlers.OrderStats(db))
		admin.GET("/unmatched-events", handlers.ListUnmatchedEvents(db))
		admin.POST("/orders/:orderId/status", handlers.OverrideOrderStatus(db))
		admin.POST("/orders/:orderId/fulfill", handlers.TriggerFulfillment(fulfiller))
		admin.POST("/orders/:orderId/resync", handlers.ResyncPayment(db, ps, fulfiller))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Bundle Hub API running on port", port)
	r.Run(":" + port)
}
