package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicbot/config"
	"clinicbot/cron"
	"clinicbot/database"
	bookingRepo "clinicbot/database/repository/booking"
	"clinicbot/handlers"
	"clinicbot/middleware"
	"clinicbot/routes"
	"clinicbot/services/content"
	"clinicbot/services/conversation"
	ai "clinicbot/services/intelligence"
	"clinicbot/services/messaging"
	"clinicbot/services/notification"
	"clinicbot/services/speech"
	"clinicbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	dedupeTTL = 24 * time.Hour
	// messageTimeout bounds one inbound message; session locks outlive it.
	messageTimeout = 2 * time.Minute
	lockTTL        = messageTimeout + 30*time.Second
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	bookings, err := bookingRepo.NewMongoBookingRepo(database.Database())
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize booking repository: %v", err)
	}

	closedDay, err := conversation.ParseWeekday(cfg.ClinicClosedDay)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid CLINIC_CLOSED_DAY: %v", err)
	}
	clinicContent := content.Build(content.Config{
		ClinicName:     cfg.ClinicName,
		LocationURL:    cfg.ClinicLocationURL,
		OfferImages:    cfg.OfferImages,
		DoctorImages:   cfg.DoctorImages,
		CloudName:      cfg.CloudinaryCloudName,
		APIKey:         cfg.CloudinaryAPIKey,
		APISecret:      cfg.CloudinaryAPISecret,
		Transformation: "f_auto,q_auto",
	}, logger)
	catalog := conversation.NewCatalog(cfg.BookingSlots, cfg.BookingShortcuts, cfg.Services, closedDay, clinicContent)

	// External collaborators.
	whatsapp := messaging.NewWhatsAppClient(messaging.WhatsAppConfig{
		APIVersion:    cfg.WhatsAppAPIVersion,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		Token:         cfg.WhatsAppToken,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var generator ai.Generator
	gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warn("Gemini unavailable, questions get the fallback reply", zap.Error(err))
	} else {
		generator = gemini
		defer gemini.Close()
	}
	assistant := ai.NewClinicAssistant(generator, cfg.ClinicName, logger)

	transcriber, err := speech.NewGoogleTranscriber(ctx, whatsapp, cfg.GoogleServiceAccountFile, cfg.SpeechLanguage, cfg.SpeechAltLanguages)
	if err != nil {
		logger.Warn("Speech recognition unavailable, voice notes will be declined", zap.Error(err))
		transcriber = speech.NewTranscriber(whatsapp, nil, cfg.SpeechLanguage, cfg.SpeechAltLanguages)
	}
	defer transcriber.Close()

	// Sessions, de-duplication and periodic housekeeping.
	scheduler := robfig.New()
	var (
		store        conversation.SessionStore
		deduper      messaging.Deduper
		redisClients []*redis.Client
	)
	if config.UseRedisSessions() {
		client := utils.GetSessionCacheClient()
		redisClients = append(redisClients, client)
		store = conversation.NewRedisStore(client, cfg.SessionIdleTimeout, lockTTL, logger)
		deduper = messaging.NewRedisDeduper(client, dedupeTTL)
	} else {
		memStore := conversation.NewMemoryStore()
		store = memStore
		deduper = messaging.NewMemoryDeduper(dedupeTTL)

		sweeper, err := cron.StartSessionSweeper(memStore, cfg.SessionIdleTimeout, "@every 1m")
		if err != nil {
			logger.Sugar().Fatalf("main: failed to start session sweeper: %v", err)
		}
		defer sweeper.Stop()
	}

	middleware.SetRequestsPerMinute(cfg.MaxRequestsPerMin)
	if _, err := scheduler.AddFunc("@every 10m", func() {
		if n := middleware.PruneRateLimiters(30 * time.Minute); n > 0 {
			logger.Debug("Pruned idle rate limiters", zap.Int("count", n))
		}
	}); err != nil {
		logger.Sugar().Fatalf("main: failed to schedule rate limiter pruning: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Staff notifications go through the asynq queue when a staff phone is set.
	var notifier conversation.Notifier = conversation.NopNotifier{}
	var worker *asynq.Server
	if cfg.StaffPhone != "" {
		queue := asynq.NewClient(utils.QueueRedisOpt())
		defer queue.Close()
		notifier = notification.NewQueueNotifier(queue, logger)
		worker = cron.InitStaffNotificationWorker(utils.QueueRedisOpt(), whatsapp, cfg.StaffPhone)
	}

	// Conversation engine.
	timeout := cfg.CollaboratorTimeout
	classifier := conversation.NewClassifier(catalog)
	validators := conversation.NewValidators(assistant, catalog, timeout, logger)
	engine := conversation.NewEngine(catalog, classifier, validators, logger)
	dispatcher := conversation.NewDispatcher(conversation.DispatcherDeps{
		Store:      store,
		Normalizer: conversation.NewNormalizer(transcriber, 2*timeout),
		Engine:     engine,
		Messenger:  whatsapp,
		Assistant:  assistant,
		Bookings:   bookings,
		Notifier:   notifier,
		Timeout:    timeout,
		Logger:     logger,
	})

	utils.StartHealthMonitor(ctx, redisClients, database.MongoClient)

	webhook := handlers.NewWebhookHandler(cfg.WhatsAppVerifyToken, dispatcher, deduper, whatsapp, messageTimeout, logger)
	if cfg.WhatsAppAppSecret == "" {
		logger.Warn("WHATSAPP_APP_SECRET is empty, webhook signatures are not verified")
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		VerifyWebhookHandler:  webhook.VerifyWebhook,
		ReceiveWebhookHandler: webhook.ReceiveWebhook,
		AppSecret:             cfg.WhatsAppAppSecret,
		HealthHandler:         handlers.HealthHandler,
	})

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := webhook.Wait(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: in-flight messages abandoned: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	stop()
	if err := database.CloseDB(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: failed to close MongoDB: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
	_ = logger.Sync()
}
