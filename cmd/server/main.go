package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ridelifecycle/internal/config"
	handlers "ridelifecycle/internal/handlers/shared"
	"ridelifecycle/internal/middleware"
	"ridelifecycle/internal/repositories/interfaces"
	"ridelifecycle/internal/repositories/memory"
	"ridelifecycle/internal/repositories/mongodb"
	"ridelifecycle/internal/services"
	"ridelifecycle/internal/utils"
	"ridelifecycle/pkg/cache"
	"ridelifecycle/pkg/database"
	"ridelifecycle/pkg/logger"
	"ridelifecycle/pkg/maps"
	"ridelifecycle/pkg/websocket"
	"ridelifecycle/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

type storage struct {
	rides      interfaces.RideRepository
	events     interfaces.RideEventRepository
	users      interfaces.UserRepository
	transactor interfaces.Transactor
	ping       func(ctx context.Context) error
	close      func() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.Log.Level),
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Caller:  cfg.Log.Caller,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	store, err := openStorage(cfg.Database, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open storage")
	}
	defer store.close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(appLogger)
	go hub.Run(hubCtx)

	locker := services.NewLocalRideLocker(cfg.Redis.LockWait)
	publisher := services.NewHubEventPublisher(hub)
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to redis")
		}
		defer redisCache.Close()

		locker = services.NewRedisRideLocker(redisCache, cfg.Redis.LockTTL, cfg.Redis.LockWait, appLogger)
		publisher = services.NewMultiEventPublisher(
			publisher,
			services.NewRedisEventPublisher(redisCache, cfg.Redis.EventChannel),
		)
		appLogger.Info("Using redis ride locks and event publishing")
	}

	var geocoder services.Geocoder
	if cfg.Maps.Enabled() {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey, cfg.Maps.GoogleMaps.BaseURL)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create maps provider")
		}
		geocoder = services.NewMapsGeocoder(provider)
	}

	// Services
	userService := services.NewUserService(store.users, appLogger)
	rideService := services.NewRideService(services.RideServiceDeps{
		RideRepo:   store.rides,
		EventRepo:  store.events,
		Transactor: store.transactor,
		Locker:     locker,
		Publisher:  publisher,
		Policy:     cfg.Ride,
		Logger:     appLogger,
	})
	transitionService := services.NewRideTransitionService(rideService, userService, appLogger)
	locationService := services.NewLocationService(geocoder)

	// Handlers
	userHandler := handlers.NewUserHandler(userService)
	rideHandler := handlers.NewRideHandler(rideService, transitionService, userService, locationService)
	streamHandler := handlers.NewRideStreamHandler(
		rideService,
		websocket.NewHandler(hub, cfg.Security.CORSAllowedOrigins),
		appLogger,
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	v1 := router.Group("/api/v1")
	{
		routes.SetupUserRoutes(v1, userHandler, cfg.Security.JWTSecret)
		routes.SetupRideRoutes(v1, rideHandler, cfg.Security.JWTSecret)
		routes.SetupStreamRoutes(v1, streamHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"storage": "ok"}
		healthy := true
		if err := store.ping(ctx); err != nil {
			checks["storage"] = err.Error()
			healthy = false
		}
		if redisCache != nil {
			checks["redis"] = "ok"
			if err := redisCache.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		status := http.StatusOK
		state := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"app":     utils.AppName,
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:    cfg.App.Address(),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
}

func openStorage(cfg *config.DatabaseConfig, appLogger *logger.Logger) (*storage, error) {
	if cfg.Backend == config.StorageMemory {
		appLogger.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			rides:      memory.NewRideRepository(store),
			events:     memory.NewRideEventRepository(store),
			users:      memory.NewUserRepository(store),
			transactor: store,
			ping:       func(context.Context) error { return nil },
			close:      func() error { return nil },
		}, nil
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.URI,
		Database:       cfg.Database,
		MaxPoolSize:    cfg.MaxPoolSize,
		MinPoolSize:    cfg.MinPoolSize,
		ConnectTimeout: cfg.ConnectTimeout,
		SocketTimeout:  cfg.SocketTimeout,
	})
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := database.NewMigrator(db.Database, mongodb.Migrations(), appLogger).Up(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &storage{
		rides:      mongodb.NewRideRepository(db.Database),
		events:     mongodb.NewRideEventRepository(db.Database),
		users:      mongodb.NewUserRepository(db.Database),
		transactor: db,
		ping:       db.Ping,
		close:      db.Close,
	}, nil
}
