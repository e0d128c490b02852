package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httptransport "github.com/quickdesk/helpdesk-api/internal/api/http"
	"github.com/quickdesk/helpdesk-api/internal/api/http/handlers"
	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/config"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/observability"
	"github.com/quickdesk/helpdesk-api/internal/persistence"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	"github.com/quickdesk/helpdesk-api/internal/repository/memory"
	"github.com/quickdesk/helpdesk-api/internal/service"
	"github.com/quickdesk/helpdesk-api/internal/storage"
	"github.com/quickdesk/helpdesk-api/internal/worker"
)

// Server owns the fiber app and every connection it was built on.
type Server struct {
	app      *fiber.App
	addr     string
	logger   *zap.Logger
	postgres *persistence.Postgres
	redis    *persistence.Redis
	relay    *events.RabbitMQRelay
}

type repositories struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	tickets    repository.TicketRepository
	upgrades   repository.UpgradeRequestRepository
	history    repository.TicketHistoryRepository
}

// New wires configuration into a ready to start server. Postgres, Redis, MinIO
// and RabbitMQ are optional; without them the server runs on the in-memory
// store, local disk and log-only events.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.MigrateUp(cfg.Postgres.DSN, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}

	rds := persistence.NewRedis(ctx, cfg.Redis, logger)
	var redisClient *redis.Client
	if rds != nil {
		redisClient = rds.Client
	}

	repos := newRepositories(pg)
	repos.categories = repository.NewCachedCategoryRepository(repos.categories, redisClient, cfg.Redis.CategoryCacheTTL, logger)

	files, err := newAttachmentStorage(ctx, cfg.Storage, logger)
	if err != nil {
		pg.Close()
		rds.Close()
		return nil, err
	}

	dispatcher := events.NewInMemoryDispatcher()
	var relay *events.RabbitMQRelay
	if cfg.Broker.URL != "" {
		relay, err = events.NewRabbitMQRelay(cfg.Broker, logger)
		if err != nil {
			logger.Warn("unable to connect rabbitmq; events are only logged", zap.Error(err))
			relay = nil
		}
	}
	worker.StartEventWorkers(dispatcher, service.NewAuditService(dispatcher, repos.history, logger), relay, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: repos.users,
		Logger:   logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   repos.tickets,
		CategoryRepo: repos.categories,
		UserRepo:     repos.users,
		HistoryRepo:  repos.history,
		Attachments:  files,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	categoryService := service.NewCategoryService(service.CategoryDependencies{
		CategoryRepo: repos.categories,
		UserRepo:     repos.users,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   repos.users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	upgradeService := service.NewUpgradeService(service.UpgradeDependencies{
		UpgradeRepo: repos.upgrades,
		UserRepo:    repos.users,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	var rateLimiter fiber.Handler
	if redisClient != nil {
		rateLimiter = httptransport.NewRateLimiter(cfg.RateLimit, redisClient, logger)
	}

	app := httptransport.NewApp(httptransport.AppOptions{
		Name:      cfg.App.Name,
		BodyLimit: cfg.App.BodyLimit(),
		Timeout:   cfg.App.RequestTimeout(),
		Logger:    logger,
		Metrics:   observability.NewMetrics(),
	}, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rds),
		Auth:            handlers.NewAuthHandler(authService, cfg.Auth),
		Tickets:         handlers.NewTicketsHandler(ticketService),
		Attachments:     handlers.NewAttachmentsHandler(ticketService),
		Categories:      handlers.NewCategoriesHandler(categoryService),
		Users:           handlers.NewUsersHandler(userService),
		UpgradeRequests: handlers.NewUpgradeRequestsHandler(upgradeService),
		AuthMiddleware:  auth.NewAuthMiddleware(authService, cfg.Auth.CookieName),
		RateLimiter:     rateLimiter,
	})

	return &Server{
		app:      app,
		addr:     cfg.App.Addr(),
		logger:   logger,
		postgres: pg,
		redis:    rds,
		relay:    relay,
	}, nil
}

func newRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		store := memory.NewStore()
		return repositories{
			users:      store.Users(),
			categories: store.Categories(),
			tickets:    store.Tickets(),
			upgrades:   store.UpgradeRequests(),
			history:    store.TicketHistory(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		users:      repository.NewUserRepository(pool),
		categories: repository.NewCategoryRepository(pool),
		tickets:    repository.NewTicketRepository(pool),
		upgrades:   repository.NewUpgradeRequestRepository(pool),
		history:    repository.NewTicketHistoryRepository(pool),
	}
}

func newAttachmentStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Driver {
	case "minio":
		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("init minio: %w", err)
		}
		backend = client
	case "", "local":
		backend = storage.NewLocalDisk(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	files := storage.NewStorage(backend)
	bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := files.EnsureBucket(bucketCtx); err != nil {
		return nil, fmt.Errorf("prepare attachment storage: %w", err)
	}
	logger.Info("attachment storage ready", zap.String("driver", cfg.Driver), zap.String("bucket", files.Bucket()))
	return files, nil
}

// App exposes the fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens until the app is shut down.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.addr))
	return s.app.Listen(s.addr)
}

// Shutdown drains in-flight requests and releases every connection.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if closeErr := s.relay.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	s.redis.Close()
	s.postgres.Close()
	return err
}
