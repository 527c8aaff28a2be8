package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"

	"palabras/internal/config"
	"palabras/internal/database"
	"palabras/internal/enrichment"
	"palabras/internal/handlers"
	"palabras/internal/lexicon"
	"palabras/internal/mastery"
	"palabras/internal/models"
	"palabras/internal/repository"
	"palabras/internal/scheduler"
	"palabras/internal/security"
	"palabras/internal/service"
	"palabras/internal/usage"
)

const (
	loginAttemptsPerMinute = 10
	webhookTolerance       = 5 * time.Minute
	shutdownTimeout        = 15 * time.Second
)

func main() {
	// Load configuration
	cfg := config.Load()
	loc := cfg.Location()

	// Initialize database with config (supports sqlite, postgres, mysql).
	// Embedded migrations run as part of opening the connection.
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	vocabRepo := repository.NewVocabularyRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Quotas: environment first, then overrides saved by admins
	quotas := make(map[models.FeatureKey]int, len(cfg.Quotas))
	for key, limit := range cfg.Quotas {
		quotas[models.FeatureKey(key)] = limit
	}
	governor := usage.NewGovernor(repository.NewUsageRepository(db), quotas, loc)
	adminService := service.NewAdminService(userRepo, settingsRepo, governor)
	if err := adminService.LoadQuotaOverrides(context.Background()); err != nil {
		log.Printf("Warning: Failed to load quota overrides: %v", err)
	}

	// Dictionary lookup
	var conjugator lexicon.Conjugator
	if cfg.ConjugationBaseURL != "" {
		conjugator = lexicon.NewHTTPConjugator(cfg.ConjugationBaseURL, cfg.LookupTimeout)
	}
	var pacing *rate.Limiter
	if cfg.ConjugationRate > 0 {
		pacing = rate.NewLimiter(rate.Limit(cfg.ConjugationRate), max(cfg.ConjugationConcurrency, 1))
	}
	normalizer := lexicon.NewNormalizer(
		lexicon.NewHTTPDictionary(cfg.DictionaryBaseURL, cfg.DictionaryLanguage, cfg.LookupTimeout),
		conjugator,
		lexicon.Options{
			Timeout:     cfg.LookupTimeout,
			Concurrency: cfg.ConjugationConcurrency,
			Limiter:     pacing,
		},
	)

	// A background enrichment may wait on every lookup call in turn
	enrichmentTimeout := cfg.EnrichmentTimeout
	if enrichmentTimeout <= 0 {
		enrichmentTimeout = normalizer.Budget()
	}

	// Bearer ID tokens are accepted only when an audience is configured
	var verifier service.IDTokenVerifier
	if cfg.TokenAudience != "" {
		verifier = security.NewIDTokenVerifier(cfg.JWKSURL, cfg.TokenAudience, cfg.TokenIssuer, "accounts.google.com")
	}

	// Email
	fromEmail := ""
	if cfg.EmailEnabled {
		fromEmail = cfg.SESFromEmail
	}
	emailService, err := service.NewEmailService(context.Background(), cfg.SESRegion, fromEmail, "Palabras", cfg.BaseURL)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
		emailService, _ = service.NewEmailService(context.Background(), cfg.SESRegion, "", "", cfg.BaseURL)
	}

	// Generative text
	var aiService *service.AIService
	if cfg.AIEnabled() {
		model, err := service.NewOpenAIModel(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			log.Printf("Warning: AI assistant disabled: %v", err)
			aiService = service.NewAIService(nil, governor)
		} else {
			aiService = service.NewAIService(model, governor)
		}
	} else {
		aiService = service.NewAIService(nil, governor)
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, verifier, cfg.SessionDuration)
	wordBankService := service.NewWordBankService(vocabRepo, tutorRepo, governor, normalizer, enrichment.NewTracker(), enrichmentTimeout)
	studyService := service.NewStudyService(wordBankService, mastery.NewStore(vocabRepo), governor, loc)
	tutorService := service.NewTutorService(tutorRepo, emailService)
	billingService := service.NewBillingService(userRepo, paymentRepo, security.NewWebhookVerifier(cfg.PaymentWebhookSecret, webhookTolerance), cfg.PremiumDuration)
	backupService := service.NewBackupService(db)
	reminderService := service.NewReminderService(userRepo, vocabRepo, emailService, loc)

	csrfSecret := cfg.CSRFSecret
	if csrfSecret == "" {
		log.Println("Warning: CSRF_SECRET not set, using a per-process secret; sessions will need new CSRF tokens after restart")
		csrfSecret = security.GenerateSessionID()
	}
	signer := security.NewTokenSigner(csrfSecret)
	loginLimiter := security.NewRateLimiter(loginAttemptsPerMinute, time.Minute)

	var oauthConfig *oauth2.Config
	if cfg.OAuthEnabled() {
		oauthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, signer, loginLimiter)
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, middleware, handlers.Handlers{
		WordInfo: handlers.NewWordInfoHandler(normalizer, cfg.CORSAllowOrigin),
		Auth:     handlers.NewAuthHandler(authService, signer, verifier, oauthConfig, cfg.BaseURL),
		Words:    handlers.NewWordHandler(wordBankService),
		Study:    handlers.NewStudyHandler(studyService),
		Tutors:   handlers.NewTutorHandler(tutorService),
		AI:       handlers.NewAIHandler(aiService),
		Webhooks: handlers.NewWebhookHandler(billingService),
		Admin:    handlers.NewAdminHandler(adminService, backupService),
	})

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		schedulerJobs := scheduler.Jobs{
			Sessions:   authService,
			Invites:    tutorService,
			Enrichment: wordBankService,
			Visitors:   loginLimiter,
		}
		if emailService.IsEnabled() {
			schedulerJobs.Reminders = reminderService
		}
		jobs = scheduler.New(schedulerJobs, loc, cfg.ReminderHour)
		if err := jobs.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
			jobs = nil
		}
	}

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if jobs != nil {
		jobs.Stop()
	}
	wordBankService.Wait()
	log.Println("Server stopped")
}
