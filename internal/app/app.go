// Package app assembles the server from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/weiawesome/duochat/internal/cache"
	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/handler"
	"github.com/weiawesome/duochat/internal/hub"
	"github.com/weiawesome/duochat/internal/repository"
	"github.com/weiawesome/duochat/internal/service"
	"github.com/weiawesome/duochat/pkg/database"
	"github.com/weiawesome/duochat/pkg/idgen"
	"github.com/weiawesome/duochat/pkg/jwt"
	"github.com/weiawesome/duochat/pkg/log"
	"github.com/weiawesome/duochat/pkg/middleware"
	"github.com/weiawesome/duochat/pkg/storage"
)

// App is a wired server. Run must be started before connections are accepted.
type App struct {
	cfg    *config.Config
	db     *gorm.DB
	cache  cache.GroupCache
	hub    *hub.Hub
	router *gin.Engine
}

// New connects the database, storage and cache and builds the router.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.L()

	db, err := database.New(cfg.DatabaseOptions())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	files, err := storage.New(ctx, cfg.StorageOptions())
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var groupCache cache.GroupCache = cache.NoopGroupCache{}
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisGroupCache(cfg.Redis)
		if err != nil {
			database.Close(db)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		groupCache = rc
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis group cache connected")
	}

	tokens, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessDuration, cfg.JWT.Issuer)
	if err != nil {
		groupCache.Close()
		database.Close(db)
		return nil, fmt.Errorf("init jwt: %w", err)
	}

	objectIDs, err := idgen.NewNanoIDGenerator(idgen.DefaultNanoIDSize, idgen.DefaultNanoIDAlphabet)
	if err != nil {
		groupCache.Close()
		database.Close(db)
		return nil, err
	}

	userRepo := repository.NewGormUserRepository(db)
	messageRepo := repository.NewGormMessageRepository(db, idgen.NewULIDGenerator())
	groupRepo := repository.NewGormGroupRepository(db)

	wsHub := hub.NewHub(cfg.WebSocket)

	avatars := service.NewAvatarProcessor(files, objectIDs, cfg.Upload.AvatarSize, cfg.Upload.MaxSize)
	userSvc := service.NewUserService(userRepo, tokens, avatars)
	groupSvc := service.NewGroupService(groupRepo, userRepo, groupCache, cfg.Redis.TTL)
	messageSvc := service.NewMessageService(messageRepo, userRepo, groupSvc, wsHub)
	uploadSvc := service.NewUploadService(files, objectIDs, cfg.Upload.MaxSize)
	chatSvc := service.NewChatService(wsHub, messageSvc, groupSvc)

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	apiHandler := handler.NewHandler(userSvc, messageSvc, groupSvc, uploadSvc, files, authMiddleware, cfg.Upload.MaxSize)
	wsHandler := handler.NewWSHandler(wsHub, chatSvc, authMiddleware, cfg.WebSocket, cfg.CORS.Origins())

	return &App{
		cfg:    cfg,
		db:     db,
		cache:  groupCache,
		hub:    wsHub,
		router: handler.NewRouter(cfg, logger, apiHandler, wsHandler),
	}, nil
}

// Run drives the hub until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	a.hub.Run(ctx)
}

func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Hub() *hub.Hub {
	return a.hub
}

// Close releases the cache and database connections.
func (a *App) Close() error {
	if err := a.cache.Close(); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to close group cache")
	}
	return database.Close(a.db)
}
