package main

import (
	"fmt"
	"log"
	"os"

	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	// Check required environment variables
	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"ENCRYPTION_KEY",
		"DECRYPTION_KEY",
		"JWT_SECRET_KEY",
		"PORT",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()

	if os.Getenv("GO_ENV") == "test" {
		return
	}

	utils.InitJWT()
	utils.InitMongoClient()

	if err := repository.SetupIndexes(utils.Database()); err != nil {
		log.Printf("Warning: failed to create indexes: %v", err)
	}

	// Redis-backed config cache is optional; tracking falls back to Mongo.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err := services.NewConfigCache(redisURL)
		if err != nil {
			log.Printf("Warning: config cache disabled: %v", err)
		} else {
			services.GlobalConfigCache = cache
		}
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		utils.MethodNotAllowed(c, "Method Not Allowed")
	})

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.SessionMiddleware())

	// Repositories share the pooled client.
	userRepo := repository.GetUserRepo(utils.MongoClient)
	activityRepo := repository.GetActivityRepo(utils.MongoClient)
	configRepo := repository.GetActivityConfigRepo(utils.MongoClient)
	visitRepo := repository.GetVisitTimeRepo(utils.MongoClient)

	upstream := services.NewUpstreamClient()
	tracker := services.NewTracker(activityRepo, configRepo, visitRepo)

	loginHandler := handler.NewLoginHandler(upstream, userRepo, activityRepo)
	proxyHandler := handler.NewProxyHandler(upstream, loginHandler)
	activityHandler := handler.NewActivityHandler(tracker, activityRepo, configRepo)

	var mailer *services.Mailer
	if m, err := services.NewMailer(); err != nil {
		log.Printf("Warning: password-reset mail disabled: %v", err)
	} else {
		mailer = m
	}
	resetHandler := handler.NewPasswordResetHandler(userRepo, mailer)

	// Generic proxy; the login path inside the catch-all runs the full
	// login pipeline.
	router.Any("/api/proxy/*path", proxyHandler.Forward)

	activity := router.Group("/api/activity")
	{
		activity.POST("/login", loginHandler.ActivityLogin)
		activity.GET("/login", activityHandler.LoginHistory)
		activity.POST("/track", activityHandler.Track)
		activity.GET("/summary", activityHandler.Summary)
		activity.GET("/config", activityHandler.GetConfig)
		activity.PUT("/config", activityHandler.UpdateConfig)
	}

	auth := router.Group("/api/auth")
	{
		auth.POST("/forgot-password", resetHandler.ForgotPassword)
		auth.POST("/reset-password", resetHandler.ResetPassword)
	}

	router.POST("/api/generateResultPdf", handler.GenerateResultPDF)

	router.GET("/health", handler.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Everything else under /api falls through to the upstream.
	router.NoRoute(proxyHandler.Fallback)

	return router
}

func main() {
	router := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
