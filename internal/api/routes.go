package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rouletted/roulette-tracker/internal/api/handlers"
	"github.com/rouletted/roulette-tracker/internal/api/middleware"
	"github.com/rouletted/roulette-tracker/internal/auth"
	"github.com/rouletted/roulette-tracker/internal/backup"
	"github.com/rouletted/roulette-tracker/internal/config"
	"github.com/rouletted/roulette-tracker/internal/database"
	"github.com/rouletted/roulette-tracker/internal/tracker"
	"github.com/rouletted/roulette-tracker/internal/websocket"
)

// SetupRouter configures and returns the HTTP router
func SetupRouter(
	cfg *config.Config,
	db *database.DB,
	store *tracker.Store,
	hub *websocket.Hub,
	backupMgr *backup.Manager,
	scheduleStore *backup.ScheduleStore,
) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.Security.CORS))
	router.Use(middleware.RateLimit(cfg.Security.RateLimit.Enabled, cfg.Security.RateLimit.RequestsPerMinute))

	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		parseDuration(cfg.Auth.AccessTokenDuration),
	)

	statusHandler := handlers.NewStatusHandler()
	predictHandler := handlers.NewPredictHandler()
	sessionHandler := handlers.NewSessionHandler(store, hub)
	authHandler := handlers.NewAuthHandler(db.DB, jwtManager, cfg.Auth.BcryptCost)
	settingsHandler := handlers.NewSettingsHandler(cfg)
	backupHandler := handlers.NewBackupHandler(backupMgr, scheduleStore)
	liveHandler := handlers.NewLiveHandler(hub)

	// Prediction routes stay public: the tracker overlay calls them
	// without an account.
	router.GET("/", statusHandler.Root)
	router.POST("/predict_marks", predictHandler.PredictMarks)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/auth/setup-status", authHandler.SetupStatus)
		public.POST("/auth/setup", authHandler.SetupInitialAdmin)
		public.POST("/auth/login", authHandler.Login)

		sessions := public.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET(":id", sessionHandler.GetSession)
			sessions.POST(":id/spins", sessionHandler.RecordSpin)
			sessions.GET(":id/spins", sessionHandler.ListSpins)
			sessions.PUT(":id/spins/:spin_id/outcome", sessionHandler.SetOutcome)
			sessions.GET(":id/stats", sessionHandler.GetStats)
		}

		public.GET("/ws/live", liveHandler.HandleLiveFeed)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.Auth(jwtManager))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.DELETE("/sessions/:id", sessionHandler.DeleteSession)

		protected.GET("/settings", settingsHandler.GetSettings)
		protected.PUT("/settings", settingsHandler.UpdateSettings)

		backups := protected.Group("/backups")
		{
			backups.POST("", backupHandler.CreateBackup)
			backups.GET("", backupHandler.ListBackups)
			backups.DELETE(":id", backupHandler.DeleteBackup)
			backups.POST("/schedules", backupHandler.CreateSchedule)
			backups.GET("/schedules", backupHandler.ListSchedules)
			backups.PUT("/schedules/:id", backupHandler.UpdateSchedule)
			backups.DELETE("/schedules/:id", backupHandler.DeleteSchedule)
		}
	}

	return router
}

// parseDuration is a helper to parse duration strings
func parseDuration(duration string) time.Duration {
	d, err := time.ParseDuration(duration)
	if err != nil {
		return 15 * time.Minute // Default fallback
	}
	return d
}
