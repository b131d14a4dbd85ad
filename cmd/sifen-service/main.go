package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/sifen-service/internal/api"
	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/documents"
	"github.com/hypernova-labs/sifen-service/internal/email"
	"github.com/hypernova-labs/sifen-service/internal/services"
	"github.com/hypernova-labs/sifen-service/internal/sifen"
	"github.com/hypernova-labs/sifen-service/internal/storage"
	"github.com/hypernova-labs/sifen-service/internal/workflows"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const serviceName = "sifen-service"

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting SIFEN Service...")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db, logger); err != nil {
			logger.Fatalf("Error running migrations: %v", err)
		}
	}

	// Redis es opcional: sin él los locks y el rate limit quedan en memoria del proceso
	redisConn, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warnf("Error connecting to Redis, using in-process locks: %v", err)
		redisConn = nil
	} else {
		defer redisConn.Close()
	}

	var locker services.Locker
	var limiterStore limiter.Store
	if redisConn != nil {
		locker = database.NewRedisLocker(redisConn.Client, cfg.Locks.TTL, cfg.Locks.Wait, logger)
		limiterStore, err = sredis.NewStoreWithOptions(redisConn.Client, limiter.StoreOptions{
			Prefix:   serviceName + ":ratelimit",
			MaxRetry: 3,
		})
		if err != nil {
			logger.Fatalf("Error creating rate limit store: %v", err)
		}
	} else {
		locker = database.NewLocalLocker(cfg.Locks.Wait)
		limiterStore = memory.NewStore()
	}
	rateLimiter := limiter.New(limiterStore, limiter.Rate{Period: time.Minute, Limit: int64(cfg.RateLimit.PerMinute)})

	// Repositorios
	invoiceRepo := database.NewInvoiceRepository(db, logger)
	companyRepo := database.NewCompanyRepository(db, logger)
	clientRepo := database.NewClientRepository(db, logger)
	apiKeyRepo := database.NewAPIKeyRepository(db, logger)

	// Gateway SIFEN
	sifenClient := sifen.NewClient(cfg.Authority, nil, logger)

	// Inngest es opcional: sin credenciales el seguimiento del veredicto es manual
	var inngestClient *workflows.InngestClient
	var events services.EventPublisher
	if cfg.Inngest.Enabled() {
		inngestClient, err = workflows.NewInngestClient(cfg.Inngest, logger)
		if err != nil {
			logger.Warnf("Error initializing Inngest client: %v", err)
			inngestClient = nil
		} else {
			events = inngestClient
		}
	} else {
		logger.Warn("Inngest credentials not provided, status polling workflow will not be available")
	}

	// Archivo y email del KuDE son opcionales
	var archive services.DocumentArchive
	if cfg.Storage.Enabled() {
		s3Archive, err := storage.NewS3Archive(context.Background(), cfg.Storage, logger)
		if err != nil {
			logger.Warnf("Error initializing document storage: %v", err)
		} else {
			archive = s3Archive
			healthCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s3Archive.HealthCheck(healthCtx); err != nil {
				logger.Warnf("Document storage not reachable: %v", err)
			}
			cancel()
		}
	} else {
		logger.Warn("Storage credentials not provided, KuDE documents will not be archived")
	}

	var mailer services.InvoiceMailer
	if cfg.Email.Enabled() {
		mailer = email.NewResendMailer(cfg.Email, logger)
	} else {
		logger.Warn("RESEND_API_KEY not provided, KuDE documents will not be emailed")
	}

	// Servicios
	invoiceService := services.NewInvoiceService(invoiceRepo, companyRepo, clientRepo, sifenClient, sifenClient, locker, events, logger)
	companyService := services.NewCompanyService(companyRepo, cfg.Authority, logger)
	clientService := services.NewClientService(clientRepo, companyRepo, logger)
	reportService := services.NewReportService(invoiceRepo, companyRepo, logger)
	deliveryService := services.NewDeliveryService(invoiceRepo, companyRepo, documents.NewKuDERenderer(logger), archive, mailer, logger)

	if inngestClient != nil {
		if err := inngestClient.RegisterWorkflows(invoiceService, deliveryService); err != nil {
			logger.Warnf("Error registering workflows: %v", err)
			inngestClient = nil
		}
	}

	if err := api.RegisterValidators(); err != nil {
		logger.Fatalf("Error registering validators: %v", err)
	}
	apiHandler := api.NewAPI(invoiceService, companyService, clientService, reportService, deliveryService, apiKeyRepo, logger)

	router := setupRouter(apiHandler, cfg, db, redisConn, rateLimiter, inngestClient, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Authority.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	statsCtx, stopStats := context.WithCancel(context.Background())
	go logStats(statsCtx, db, redisConn, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	<-quit
	logger.Info("Shutting down server...")
	stopStats()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupRouter configura el router principal
func setupRouter(
	apiHandler *api.API,
	cfg *config.Config,
	db *database.DB,
	redisConn *database.Redis,
	rateLimiter *limiter.Limiter,
	inngestClient *workflows.InngestClient,
	logger *logrus.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-API-Key", "Idempotency-Key"},
		ExposeHeaders:    []string{"Idempotent-Replayed", "Retry-After", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			logger.WithError(err).Warn("Database health check failed")
			status, code = "degraded", http.StatusServiceUnavailable
		}
		// Redis es opcional y no cambia el estado general
		redisStatus := "disabled"
		if redisConn != nil {
			redisStatus = "ok"
			if err := redisConn.HealthCheck(c.Request.Context()); err != nil {
				logger.WithError(err).Warn("Redis health check failed")
				redisStatus = "unreachable"
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
			"version":   "1.0.0",
		})
	})

	v1 := router.Group("/v1")
	v1.Use(api.IPRateLimit(rateLimiter, logger), apiHandler.APIKeyAuth(), api.RateLimit(rateLimiter, logger))
	apiHandler.RegisterRoutes(v1)

	admin := router.Group("/v1")
	admin.Use(api.IPRateLimit(rateLimiter, logger), api.AdminAuth(cfg.Admin.APIKey))
	apiHandler.RegisterAdminRoutes(admin)

	if inngestClient != nil {
		router.Any("/api/inngest", gin.WrapH(inngestClient.Handler()))
	}

	return router
}

// logStats registra periódicamente el estado de los pools de conexiones
func logStats(ctx context.Context, db *database.DB, redisConn *database.Redis, logger *logrus.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.LogStats(logger)
			if redisConn != nil {
				redisConn.LogStats(logger)
			}
		}
	}
}
