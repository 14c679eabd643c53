package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/config"
	"github.com/kendall-kelly/customer-analytics-api/controllers"
	"github.com/kendall-kelly/customer-analytics-api/logger"
	"github.com/kendall-kelly/customer-analytics-api/middleware"
	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/kendall-kelly/customer-analytics-api/services"
)

func main() {
	log, err := logger.New(os.Getenv("GO_ENV"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	logger.SetLogger(log)
	defer log.Sync()

	log.Info("starting customer analytics API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", "error", err)
	}
	// .env files may change the mode or level
	if l, err := logger.New(cfg.GoEnv, cfg.LogLevel); err == nil {
		log = l
		logger.SetLogger(log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, sink, err := openRecordSource(cfg)
	if err != nil {
		log.Fatal("failed to open record source", "source", cfg.DataSource, "error", err)
	}
	store := services.NewRecordStore(source)
	services.SetRecordStore(store)
	services.SetDataSink(sink)
	if _, err := store.Reload(ctx); err != nil {
		// The service still starts; POST /api/ai/reload retries.
		log.Error("initial record load failed", "source", source.Name(), "error", err)
	}

	if _, err := services.InitModelStore(ctx, cfg); err != nil {
		log.Fatal("failed to initialize model store", "store", cfg.ModelStore, "error", err)
	}

	router, err := setupRouter(cfg)
	if err != nil {
		log.Fatal("failed to set up router", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// openRecordSource connects the configured dataset backend. Both backends also
// accept regenerated data.
func openRecordSource(cfg *config.Config) (services.RecordSource, services.DataSink, error) {
	if cfg.DataSource == config.DataSourceCSV {
		src := services.NewCSVRecordSource(cfg.DataDir)
		return src, src, nil
	}

	if err := config.ConnectDatabase(); err != nil {
		return nil, nil, err
	}
	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, nil, err
	}
	logger.L().Info("database migration completed")
	src := services.NewGormRecordSource(db)
	return src, src, nil
}

// setupRouter registers every route on a new engine
func setupRouter(cfg *config.Config) (*gin.Engine, error) {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		cors.New(corsConfig(cfg.CORSAllowedOrigins)),
	)

	router.GET("/health", healthCheck)
	router.GET("/metrics", middleware.MetricsHandler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}

	var read, write []gin.HandlerFunc
	if cfg.AuthEnabled() {
		auth, err := middleware.EnsureValidToken(cfg)
		if err != nil {
			return nil, err
		}
		read = []gin.HandlerFunc{auth, middleware.RequireScope(middleware.ScopeReadAnalytics)}
		write = []gin.HandlerFunc{auth, middleware.RequireScope(middleware.ScopeWriteAnalytics)}
	}

	ai := router.Group("/api/ai")
	{
		ai.POST("/segmentation", middleware.Chain(read, controllers.Segmentation)...)
		ai.POST("/prediction", middleware.Chain(read, controllers.Prediction)...)
		ai.POST("/clv", middleware.Chain(read, controllers.CLV)...)
		ai.POST("/churn", middleware.Chain(read, controllers.Churn)...)
		ai.POST("/recommendations", middleware.Chain(read, controllers.Recommendations)...)
		ai.POST("/sentiment", middleware.Chain(read, controllers.Sentiment)...)
		ai.POST("/reload", middleware.Chain(write, controllers.Reload)...)
		ai.POST("/regenerate-data", middleware.Chain(write, controllers.RegenerateData)...)
	}

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "ok",
		"message": "Customer Analytics API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_NOT_CONFIGURED",
				"message": "The service is not reading from a database",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"dialect": db.Dialector.Name(),
		"tables":  tables,
	})
}
