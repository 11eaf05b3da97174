package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/api"
	"keyvault-backend-go/internal/clipboard"
	"keyvault-backend-go/internal/config"
	"keyvault-backend-go/internal/core"
	"keyvault-backend-go/internal/crypto"
	"keyvault-backend-go/internal/db"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/identity"
	"keyvault-backend-go/internal/middleware"
)

// firebaseInitTimeout bounds the background Firebase Admin SDK initialization.
const firebaseInitTimeout = 30 * time.Second

func main() {
	// Load .env file. In production, environment variables should be set directly.
	if os.Getenv("GIN_MODE") != gin.ReleaseMode {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	// --- 1. Initialize Logger (Zap) ---
	zapLogger, err := newLogger(os.Getenv("GIN_MODE"))
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded",
		zap.String("authMode", appConfig.AuthMode),
		zap.String("auditBackend", appConfig.AuditBackend),
		zap.String("clipboardMode", appConfig.ClipboardMode),
	)

	messages, err := i18n.New(appConfig.Language)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load message catalog", zap.Error(err))
	}

	// --- 3. Secret sealing key ---
	sealer, err := newSealer(appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize secret sealer", zap.Error(err))
	}

	// The server context ends on SIGINT/SIGTERM and stops all background work.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 4. Identity resolver and audit repository ---
	// Both start unloaded. Firebase-backed implementations are installed once the
	// Admin SDK has initialized in the background.
	resolver := identity.NewLazyResolver()
	auditRepo, err := newAuditRepository(ctx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize audit repository", zap.Error(err))
	}
	defer func() {
		if err := auditRepo.Close(); err != nil {
			zapLogger.Warn("Failed to close audit repository", zap.Error(err))
		}
	}()

	firebaseAuth := installIdentity(appConfig, resolver, zapLogger)
	firebaseDone := make(chan *db.FirebaseClients, 1)
	if appConfig.UsesFirebase() {
		go initFirebase(ctx, appConfig, firebaseAuth, resolver, auditRepo, firebaseDone, zapLogger)
	} else {
		close(firebaseDone)
	}

	// --- 5. Clipboard collaborator ---
	var clipboardWriter clipboard.Writer
	if appConfig.ClipboardMode == config.ClipboardModeSystem {
		system, err := clipboard.NewSystem()
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: System clipboard is not available", zap.Error(err))
		}
		clipboardWriter = system
	}

	// --- 6. Initialize Services ---
	auditService := core.NewAuditService(auditRepo)
	dashboardService := core.NewDashboardService(sealer, auditService, messages, zapLogger, appConfig.SessionIdleTimeout)
	go dashboardService.Run(ctx)
	zapLogger.Info("Core services initialized successfully.")

	// --- 7. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Info("CORS Middleware skipped: CLIENT_URL is not configured")
	}

	// --- 9. Setup Routes ---
	if err := api.SetupRoutes(router, appConfig, zapLogger, resolver, dashboardService, auditService, clipboardWriter, messages); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to set up routes", zap.Error(err))
	}

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful Shutdown Handling ---
	<-ctx.Done()
	zapLogger.Info("Received shutdown signal")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	zapLogger.Info("Attempting graceful shutdown of HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	if clients, ok := <-firebaseDone; ok {
		if err := clients.Close(); err != nil {
			zapLogger.Warn("Failed to close Firebase clients", zap.Error(err))
		}
	}
	zapLogger.Info("Server exiting gracefully.")
}

// newLogger builds a production logger in release mode and a development logger otherwise.
func newLogger(ginMode string) (*zap.Logger, error) {
	if strings.ToLower(ginMode) == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newSealer uses ENCRYPTION_KEY when set. Without it a random key is generated, which
// is enough because keys never outlive the process.
func newSealer(appConfig *config.Config, logger *zap.Logger) (*crypto.Sealer, error) {
	var key []byte
	var err error
	if appConfig.EncryptionKey != "" {
		key, err = crypto.ParseKey(appConfig.EncryptionKey)
	} else {
		logger.Info("ENCRYPTION_KEY not set, using an ephemeral sealing key")
		key, err = crypto.NewEphemeralKey()
	}
	if err != nil {
		return nil, err
	}
	return crypto.NewSealer(key)
}

// newAuditRepository selects the audit backend. The Firestore backend is deferred
// until Firebase is ready.
func newAuditRepository(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (db.AuditRepository, error) {
	switch appConfig.AuditBackend {
	case config.AuditBackendSQLite:
		return db.NewSQLiteAuditRepository(ctx, appConfig.AuditSQLiteDSN, logger)
	case config.AuditBackendFirestore:
		return db.NewDeferredAuditRepository(), nil
	default:
		return db.NewMemoryAuditRepository(), nil
	}
}

// installIdentity installs the static authenticator when AUTH_MODE=static. It reports
// whether the Firebase authenticator has to be installed once Firebase is ready.
func installIdentity(appConfig *config.Config, resolver *identity.LazyResolver, logger *zap.Logger) bool {
	if appConfig.AuthMode != config.AuthModeStatic {
		return true
	}
	resolver.Install(identity.StaticAuthenticator{Profile: identity.Profile{
		UID:      appConfig.StaticUserID,
		FullName: appConfig.StaticUserName,
		Email:    appConfig.StaticUserEmail,
	}})
	logger.Warn("Static authentication enabled: every visitor is signed in", zap.String("uid", appConfig.StaticUserID))
	return false
}

// initFirebase initializes the Admin SDK, then installs the Firestore audit repository
// when selected and, when installAuth is set, the Firebase authenticator. The clients
// are handed to main through done for shutdown.
func initFirebase(
	ctx context.Context,
	appConfig *config.Config,
	installAuth bool,
	resolver *identity.LazyResolver,
	auditRepo db.AuditRepository,
	done chan<- *db.FirebaseClients,
	logger *zap.Logger,
) {
	defer close(done)

	deferred, wantFirestore := auditRepo.(*db.DeferredAuditRepository)
	initCtx, cancel := context.WithTimeout(ctx, firebaseInitTimeout)
	defer cancel()

	clients, err := db.InitFirebase(initCtx, appConfig, wantFirestore, logger)
	if err != nil {
		// Pages keep answering 204 and the API 503 until the process is restarted.
		logger.Error("Failed to initialize Firebase Admin SDK", zap.Error(err))
		return
	}

	if wantFirestore {
		repo, err := db.NewFirestoreAuditRepository(clients.Firestore, logger)
		if err != nil {
			logger.Error("Failed to create Firestore audit repository", zap.Error(err))
		} else {
			deferred.Install(repo)
		}
	}
	if installAuth {
		resolver.Install(identity.NewFirebaseAuthenticator(clients.Auth, logger))
		logger.Info("Identity provider loaded")
	}
	done <- clients
}
