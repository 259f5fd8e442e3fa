package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storyforge/campaigns"
	"storyforge/config"
	"storyforge/generations"
	"storyforge/internal/platform"
	"storyforge/middleware"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
	Log    *logrus.Logger
}

func NewServer() (*Server, error) {
	log := platform.NewLogger("api")

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	db, err := platform.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	rdb := platform.NewRedisClient(cfg.RedisURL)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	server := &Server{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Router: router,
		Log:    log,
	}
	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", s.health)

	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "StoryForge API v1", "demo_mode": s.Config.DemoMode})
	})

	campaignHandler := campaigns.NewHandler(s.Config, s.Redis, s.Log)
	generationHandler := generations.NewHandler(s.DB, s.Redis, s.Config, s.Log)

	campaignRoutes := s.Router.Group("/campaigns")
	{
		campaignRoutes.GET("", campaignHandler.ListCampaigns)
		campaignRoutes.GET("/:id", campaignHandler.GetCampaign)
		campaignRoutes.POST("/:id/schedule", campaignHandler.ScheduleCampaign)
	}

	generationRoutes := s.Router.Group("/generations")
	{
		generationRoutes.POST("", generationHandler.CreateGeneration)
		generationRoutes.GET("", generationHandler.ListGenerations)
		generationRoutes.GET("/:id", generationHandler.GetGeneration)
	}

	s.Router.GET("/usage", generationHandler.GetUsage)
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}

func (s *Server) Run() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	s.Log.WithField("port", port).Info("server starting")
	return s.Router.Run(":" + port)
}

func main() {
	server, err := NewServer()
	if err != nil {
		logrus.WithError(err).Fatal("failed to create server")
	}
	if err := server.Run(); err != nil {
		server.Log.WithError(err).Fatal("server stopped")
	}
}
