package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aquifer-sync-server/internal/config"
	"aquifer-sync-server/internal/handler"
	"aquifer-sync-server/internal/logging"
	"aquifer-sync-server/internal/middleware"
	"aquifer-sync-server/internal/repository"
	"aquifer-sync-server/internal/service"
	"aquifer-sync-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(cfg.Logging.Level),
	})))

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	userRepo := repository.NewUserRepository(client, cfg.Database.Name)
	deviceRepo := repository.NewDeviceRepository(client, cfg.Database.Name)
	projectRepo := repository.NewProjectRepository(client, cfg.Database.Name)
	conflictRepo := repository.NewConflictRepository(client, cfg.Database.Name)
	syncLogRepo := repository.NewSyncLogRepository(client, cfg.Database.Name)
	identityMap := repository.NewIdentityMap(client, cfg.Database.Name)
	recordStores := repository.NewRecordStores(client, cfg.Database.Name)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	userService := service.NewUserService(userRepo)
	deviceService := service.NewDeviceService(deviceRepo)
	projectService := service.NewProjectService(projectRepo, userRepo)
	recordService := service.NewRecordService(recordStores)

	conflictService := service.NewConflictService(recordStores, conflictRepo, logger)
	syncService := service.NewSyncService(recordStores, identityMap, conflictService, syncLogRepo, wsManager, logger, cfg.Sync.MaxBatchSize)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	deviceHandler := handler.NewDeviceHandler(deviceService)
	projectHandler := handler.NewProjectHandler(projectService, userService)
	recordHandler := handler.NewRecordHandler(recordService, userService)
	syncHandler := handler.NewSyncHandler(syncService, conflictService, userService, deviceService)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/devices", deviceHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/devices/register", deviceHandler.Register).Methods("POST", "OPTIONS")
	protected.HandleFunc("/devices/{id}", deviceHandler.Revoke).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/projects", projectHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/projects", projectHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/projects/{id}", projectHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/projects/{id}", projectHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/projects/{id}/members", projectHandler.AssignMember).Methods("POST", "OPTIONS")

	protected.HandleFunc("/records/{kind}", recordHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/records/{kind}", recordHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/records/{kind}/{id}", recordHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/records/{kind}/{id}", recordHandler.Update).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/sync/push", syncHandler.Push).Methods("POST", "OPTIONS")
	protected.HandleFunc("/sync/pull", syncHandler.Pull).Methods("POST", "OPTIONS")
	protected.HandleFunc("/sync/resolve", syncHandler.Resolve).Methods("POST", "OPTIONS")
	protected.HandleFunc("/sync/conflicts", syncHandler.ListConflicts).Methods("GET", "OPTIONS")
	protected.HandleFunc("/sync/log", syncHandler.SyncLog).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Aquifer Sync Server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"aquifer-sync-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Aquifer Sync Server API","version":"1.0.0","endpoints":{"/api/v1/auth/register":"POST","/api/v1/auth/login":"POST","/api/v1/sync/push":"POST (protected)","/api/v1/sync/pull":"POST (protected)"}}`))
}
