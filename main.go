package main

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mickey4653/restful-payment-gateway-api/config"
	"github.com/mickey4653/restful-payment-gateway-api/controllers"
	"github.com/mickey4653/restful-payment-gateway-api/events"
	"github.com/mickey4653/restful-payment-gateway-api/middleware"
	"github.com/mickey4653/restful-payment-gateway-api/repository"
	"github.com/mickey4653/restful-payment-gateway-api/routes"
	"github.com/mickey4653/restful-payment-gateway-api/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	if cfg.PayPalClientID == "" || cfg.PayPalClientSecret == "" {
		logger.Warn("PayPal credentials are not configured; payment operations will fail until they are set")
	}

	// Payment store: Postgres when DATABASE_URL is set, in-memory otherwise.
	var repo repository.PaymentRepository
	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&repository.PaymentRow{}); err != nil {
			logger.Fatal("failed to migrate payments table", zap.Error(err))
		}
		repo = repository.NewGormPaymentRepo(db)
		logger.Info("using postgres payment store")
	} else {
		repo = repository.NewMemoryPaymentRepo()
		logger.Info("using in-memory payment store")
	}

	// Event producer: Kafka when brokers are configured, otherwise a no-op.
	var producer events.Producer
	if cfg.KafkaBrokers != "" {
		kp := events.NewKafkaProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaPaymentTopic, logger)
		defer kp.Close()
		producer = kp
	} else {
		producer = events.NewNoopProducer()
	}

	paypalClient := services.NewPayPalClient(services.PayPalConfig{
		Mode:         cfg.PayPalMode,
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		ReturnURL:    cfg.ReturnURL(),
		CancelURL:    cfg.CancelURL(),
		BrandName:    cfg.BrandName,
	}, logger)

	paymentService := services.NewPaymentService(repo, paypalClient, producer, logger, cfg.Currency)
	paymentController := controllers.NewPaymentController(paymentService, logger, cfg.IsDevelopment())

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit())

	routes.RegisterRoutes(r, paymentController, cfg.Env)

	logger.Info("payment gateway listening",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("paypal_mode", cfg.PayPalMode),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
