package app

import (
	"context"
	"net/http"

	"github.com/WindriderQc/nodeTools/internal/auth"
	"github.com/WindriderQc/nodeTools/internal/config"
	"github.com/WindriderQc/nodeTools/internal/logger"
	"github.com/WindriderQc/nodeTools/internal/middleware"
	"github.com/WindriderQc/nodeTools/internal/session"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	db := infra.Mongo.DB(infra.Params.Database)

	sessionStore := session.NewMongoStore(db)
	userStore := auth.NewMongoUserStore(db, cfg.UsersCollection)

	authMiddleware, err := middleware.NewAuthMiddleware(middleware.Config{
		Store: func(c *gin.Context) auth.UserStore {
			return userStore
		},
		Sessions: sessionStore,
		LoginURL: cfg.LoginURL,
		Logf:     logger.Info,
	})
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(session.Attach(sessionStore, infra.Params, logger.Warn))

	// ----------------------------
	// Public Routes
	// ----------------------------

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/", authMiddleware.OptionalAuth(), func(c *gin.Context) {
		if user, ok := middleware.CurrentUser(c.Request.Context()); ok {
			c.JSON(200, gin.H{"greeting": "hello " + user.Name})
			return
		}
		c.JSON(200, gin.H{"greeting": "hello visitor"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())

	api.GET("/me", func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c.Request.Context())
		c.JSON(200, gin.H{
			"id":      user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"isAdmin": user.IsAdmin,
		})
	})

	apiAdmin := api.Group("/admin")
	apiAdmin.Use(authMiddleware.RequireAdmin())

	apiAdmin.GET("/users", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected Web Routes
	// ----------------------------

	admin := router.Group("/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())

	admin.GET("/dashboard", func(c *gin.Context) {
		c.String(http.StatusOK, "admin dashboard")
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		infra.Mongo.Close()
		return nil
	}, nil
}
