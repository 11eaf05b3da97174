package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keyvault-backend-go/internal/clipboard"
	"keyvault-backend-go/internal/config"
	"keyvault-backend-go/internal/core"
	"keyvault-backend-go/internal/docs"
	"keyvault-backend-go/internal/i18n"
	"keyvault-backend-go/internal/identity"
	"keyvault-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (logging, recovery, CORS) is expected to be applied to router
// before this function is called, in main.go.
// clipboardWriter may be nil, which selects the browser clipboard.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	resolver identity.Resolver,
	dashboardService core.DashboardService,
	auditService core.AuditService,
	clipboardWriter clipboard.Writer,
	messages *i18n.Catalog,
) error {
	tmpl, err := loadTemplates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	docsContent, err := docs.Load()
	if err != nil {
		return err
	}

	// --- Initialize Middleware requiring dependencies ---
	gate := middleware.NewIdentityGate(resolver, appConfig.SignInURL, logger, middleware.WithFormFallback("/dashboard"))

	// --- Initialize Handlers ---
	pages := &pageRenderer{messages: messages, logger: logger}
	authHandler := NewAuthHandler(pages, appConfig.GinMode == gin.ReleaseMode, logger)
	pageHandler := NewPageHandler(pages, dashboardService, clipboardWriter, docsContent, logger)
	keyHandler := NewKeyHandler(dashboardService, clipboardWriter, messages, logger)
	userHandler := NewUserHandler(auditService, messages, logger)

	// --- Public pages ---
	router.GET("/", gate.PublicOnly("/dashboard"), pageHandler.Landing)
	router.GET("/docs", gate.Pages(), pageHandler.Docs)
	router.GET("/sign-in", gate.Resolve(), authHandler.SignInPage)
	router.POST("/sign-in", authHandler.SignIn)
	router.GET("/sign-out", authHandler.SignOut)

	// --- Dashboard pages ---
	router.GET("/dashboard", gate.Pages(), pageHandler.Dashboard)
	dashboardGroup := router.Group("/dashboard/:sessionId", gate.Pages())
	{
		dashboardGroup.GET("", pageHandler.ShowDashboard)
		dashboardGroup.POST("/keys", pageHandler.GenerateKey)
		dashboardGroup.POST("/dialog", pageHandler.SetDialog)
		dashboardGroup.POST("/keys/:keyId/rename", pageHandler.RenameKey)
		dashboardGroup.POST("/keys/:keyId/revoke", pageHandler.RevokeKey)
		dashboardGroup.POST("/keys/:keyId/copy", pageHandler.CopyKey)
	}

	// --- JSON API ---
	apiV1 := router.Group("/api/v1", gate.API())
	{
		apiV1.GET("/me", userHandler.GetCurrentUserProfile)
		apiV1.GET("/audit", userHandler.ListAuditLogs)

		apiV1.POST("/sessions", keyHandler.MountSession)
		sessionGroup := apiV1.Group("/sessions/:sessionId")
		{
			sessionGroup.DELETE("", keyHandler.UnmountSession)
			sessionGroup.GET("/keys", keyHandler.ListKeys)
			sessionGroup.POST("/keys", keyHandler.CreateKey)
			sessionGroup.GET("/keys/:keyId", keyHandler.GetKey)
			sessionGroup.PATCH("/keys/:keyId", keyHandler.RenameKey)
			sessionGroup.POST("/keys/:keyId/revoke", keyHandler.RevokeKey)
			sessionGroup.POST("/keys/:keyId/copy", keyHandler.CopyKey)
		}
	}

	// --- General Health Check Endpoint ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "UP",
			"message":       "KeyVault backend is healthy.",
			"identityReady": identityReady(resolver),
		})
	})

	logger.Info("Routes configured successfully", zap.String("sign_in_url", appConfig.SignInURL))
	return nil
}

// identityReady reports whether the identity provider has finished loading.
func identityReady(resolver identity.Resolver) bool {
	if lazy, ok := resolver.(interface{ Ready() bool }); ok {
		return lazy.Ready()
	}
	return true
}
