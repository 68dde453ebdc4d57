package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/peerawits/reqbridge/api"
	"github.com/peerawits/reqbridge/backend"
	"github.com/peerawits/reqbridge/cache"
	"github.com/peerawits/reqbridge/config"
	"github.com/peerawits/reqbridge/db"
	"github.com/peerawits/reqbridge/docstore"
	"github.com/peerawits/reqbridge/middleware"
	"github.com/peerawits/reqbridge/services"
	"github.com/peerawits/reqbridge/stores"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func printBanner() {
	fmt.Printf("%s%s", colorCyan, colorBold)
	fmt.Println("╔══════════════════════════════════════════════════════╗")
	fmt.Println("║  ReqBridge — hybrid request sync service             ║")
	fmt.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Printf("%s", colorReset)
}

func printStep(step, message string) {
	fmt.Printf("%s[%s]%s %s%s%s\n", colorBlue, step, colorReset, colorBold, message, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

func printWarning(message string) {
	fmt.Printf("%s⚠%s %s\n", colorYellow, colorReset, message)
}

func printError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

func main() {
	printBanner()
	fmt.Println()

	printStep("1/7", "Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("Configuration validation failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Configuration loaded")

	printStep("2/7", "Connecting to Redis...")
	redisCache, err := cache.CreateRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		printError(fmt.Sprintf("Failed to connect to Redis: %v", err))
		os.Exit(1)
	}
	defer redisCache.Close()
	sessions := cache.CreateSessionStore(redisCache)
	printSuccess(fmt.Sprintf("Connected to Redis at %s:%d", cfg.Redis.Host, cfg.Redis.Port))

	printStep("3/7", "Connecting to audit database...")
	var auditStore *stores.AuditStore
	if cfg.AuditEnabled() {
		gormDB, err := db.Open(cfg.Database)
		if err != nil {
			printError(fmt.Sprintf("Failed to connect to database: %v", err))
			os.Exit(1)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			printError(fmt.Sprintf("Failed to get database instance: %v", err))
			os.Exit(1)
		}
		defer sqlDB.Close()
		auditStore = stores.CreateAuditStore(gormDB)
		printSuccess(fmt.Sprintf("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port))
	} else {
		printWarning("Audit database not configured (continuing without audit trail)")
	}

	printStep("4/7", "Opening secondary store...")
	var requests docstore.Collection
	var fsStore *docstore.FirestoreStore
	if cfg.HybridEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		fsStore, err = docstore.OpenFirestore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		cancel()
		if err != nil {
			printError(fmt.Sprintf("Failed to open Firestore: %v", err))
			os.Exit(1)
		}
		defer fsStore.Close()
		requests = fsStore.Collection(cfg.Firestore.Collection)
		printSuccess(fmt.Sprintf("Secondary store ready (project %s, collection %s)", cfg.Firestore.ProjectID, cfg.Firestore.Collection))
	} else {
		printWarning("Secondary store not configured (running primary-only)")
	}

	printStep("5/7", "Initializing backend client...")
	client := backend.NewClient(backend.Config{
		URL:        cfg.Backend.URL,
		Timeout:    cfg.Backend.Timeout,
		RetryDelay: cfg.Backend.RetryDelay,
		Retries:    cfg.Backend.Retries,
	})
	printSuccess(fmt.Sprintf("Backend endpoint: %s", cfg.Backend.URL))

	printStep("6/7", "Initializing services...")
	var notifier *services.Notifier
	if cfg.Notify.BaseURL != "" {
		notifier = services.NewNotifier(cfg.Notify.BaseURL)
	}
	var audit services.AuditRecorder
	if auditStore != nil {
		audit = auditStore
	}
	hybridService := services.NewHybridService(requests, client, notifier, audit)
	syncService := services.NewSyncService(requests, client, notifier, audit)
	printSuccess("Services initialized")

	printStep("7/7", "Setting up HTTP server...")
	sessionHandler := api.CreateSessionHandler(sessions)
	requestHandler := api.CreateRequestHandler(hybridService, sessions)
	var auditReader api.AuditReader
	if auditStore != nil {
		auditReader = auditStore
	}
	syncHandler := api.CreateSyncHandler(syncService, auditReader, sessions)
	healthHandler := api.CreateHealthHandler(map[string]func() bool{
		"redis": func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisCache.Ping(ctx) == nil
		},
		"firestore": func() bool { return fsStore != nil },
		"audit":     func() bool { return auditStore != nil },
	})

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	router.HandleFunc("/health", healthHandler.HandleHealthCheck).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.RateLimitMiddleware(rate.Every(time.Second/50), 100))
	apiRouter.HandleFunc("/sessions", sessionHandler.HandleLogin).Methods("POST")
	apiRouter.HandleFunc("/sessions", sessionHandler.HandleLogout).Methods("DELETE")

	apiRouter.HandleFunc("/requests", requestHandler.HandleList).Methods("GET")
	apiRouter.HandleFunc("/requests", requestHandler.HandleCreate).Methods("POST")
	apiRouter.HandleFunc("/requests/draft", requestHandler.HandleSaveDraft).Methods("PUT")
	apiRouter.HandleFunc("/requests/draft", requestHandler.HandleDraft).Methods("GET")

	apiRouter.HandleFunc("/sync", syncHandler.HandleSync).Methods("POST")
	apiRouter.HandleFunc("/sync/runs", syncHandler.HandleSyncRuns).Methods("GET")
	apiRouter.HandleFunc("/submissions", syncHandler.HandleSubmissions).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	printSuccess("HTTP server configured")

	fmt.Println()
	fmt.Printf("%s%sReqBridge is ready%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("  %s•%s Health:   http://localhost:%s/health\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Requests: http://localhost:%s/api/v1/requests\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Sync:     http://localhost:%s/api/v1/sync\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Println()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(fmt.Sprintf("Server failed to start: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	printWarning("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Sprintf("Server forced to shutdown: %v", err))
		os.Exit(1)
	}

	printSuccess("Server stopped gracefully")
}
