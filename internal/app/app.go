package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	grpcserver "github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/grpc"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/router"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/lookup"
	natsadapter "github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/payment"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/repository/memory"
	mongoadapter "github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/repository/mongodb"
	redisadapter "github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/repository/redis"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/storage/staging"
	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	cartusecase "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/usecase"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/config"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/tracer"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "bookmarket"

type Options struct {
	// InMemory replaces MongoDB, Redis, MinIO and NATS with in-process
	// stores. Nothing survives a restart.
	InMemory bool
}

// stores is everything that differs between the in-memory and the backed
// deployment.
type stores struct {
	sessions   domain.SessionStore
	listings   domain.ListingRepository
	cache      domain.ListingCache
	users      domain.UserRepository
	host       domain.MediaHost
	deviceCart cartdomain.DeviceCartRepository
	remoteCart cartdomain.RemoteCartRepository
	orders     cartdomain.OrderRepository
}

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	httpServer  *http.Server
	grpcServer  *grpcserver.Server
	syncer      *cartusecase.Syncer
	publisher   *natsadapter.Publisher
	mongoClient *mongo.Client
	redisClient *redis.Client
	tp          *sdktrace.TracerProvider
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	appLogger := logger.New(cfg.Logger).Named(serviceName)
	appLogger.Info("Logger initialized", zap.String("level", cfg.Logger.Level), zap.Bool("in_memory", opts.InMemory))
	if cfg.InsecureJWTSecret() {
		appLogger.Warn("JWT secret is the default value, set BOOKMARKET_JWT_SECRET in production")
	}

	a := &App{cfg: cfg, log: appLogger}
	a.tp = tracer.Init(cfg.Tracing, appLogger)
	m := metrics.NewMetricsManager(cfg.Metrics.Namespace)

	var (
		st  *stores
		err error
	)
	if opts.InMemory {
		st = a.memoryStores()
	} else {
		st, err = a.backedStores(ctx)
	}
	if err != nil {
		a.closeClients(context.Background())
		return nil, err
	}

	var publisher domain.EventPublisher
	if !opts.InMemory && cfg.NATS.URL != "" {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.ConnectTimeout, appLogger, serviceName)
		if err != nil {
			a.closeClients(context.Background())
			return nil, err
		}
		a.publisher = p
		publisher = p
	}

	var (
		notifier domain.Notifier
		receipts cartdomain.ReceiptSender
	)
	if cfg.SMTP.Host != "" {
		ml, err := mailer.New(cfg.SMTP)
		if err != nil {
			a.closeClients(context.Background())
			return nil, fmt.Errorf("failed to initialize mailer: %w", err)
		}
		notifier, receipts = ml, ml
	} else {
		appLogger.Info("SMTP host not configured, transactional mails disabled")
	}

	stg, err := staging.NewDiskStaging(cfg.Media.StagingDir, cfg.Media.PublicBaseURL, cfg.Media.MaxFileBytes)
	if err != nil {
		a.closeClients(context.Background())
		return nil, err
	}
	books := lookup.NewOpenLibrary(cfg.Lookup.OpenLibraryURL, cfg.Lookup.UserAgent, cfg.Lookup.Timeout)
	geocoder := lookup.NewNominatim(cfg.Lookup.NominatimURL, cfg.Lookup.UserAgent, cfg.Lookup.Timeout)

	wizards := usecase.NewWizardUsecase(st.sessions, stg, books, geocoder, appLogger)
	uploader := usecase.NewMediaUploader(stg, st.host, cfg.Media.MaxConcurrentUploads, appLogger, m)
	submissions := usecase.NewSubmissionUsecase(wizards, uploader, st.listings, st.users, publisher, notifier, appLogger, m)
	listings := usecase.NewListingUsecase(st.listings, st.cache, publisher, appLogger)
	marketplace := usecase.NewMarketplaceUsecase(st.listings, st.sessions, cfg.Marketplace.PageSize, cfg.Marketplace.FeaturedSize, appLogger, m)

	a.syncer = cartusecase.NewSyncer(st.remoteCart, cfg.Cart.SyncInterval, appLogger)
	carts := cartusecase.NewCartService(st.deviceCart, st.remoteCart, a.syncer, appLogger, m)
	checkout := cartusecase.NewCheckoutService(carts, listings, payment.NewSimulated(0), st.orders, publisher, receipts, appLogger, m)

	routes := router.New(router.Handlers{
		Wizard:  handler.NewWizardHandler(wizards, submissions, cfg.HTTP.MaxUploadBytes, appLogger),
		Media:   handler.NewMediaHandler(stg, appLogger),
		Listing: handler.NewListingHandler(listings, marketplace, appLogger),
		Cart:    handler.NewCartHandler(carts, checkout, listings, appLogger),
	}, router.Options{
		JWTSecret:      cfg.JWT.Secret,
		AdminRole:      cfg.JWT.AdminRole,
		RequestTimeout: cfg.HTTP.WriteTimeout,
		QueryTimeout:   cfg.Marketplace.QueryTimeout,
		Metrics:        m,
		Logger:         appLogger,
	})

	a.httpServer = &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      routes,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	a.grpcServer = grpcserver.NewServer(appLogger, cfg.GRPC.Port, serviceName, 0)
	return a, nil
}

func (a *App) memoryStores() *stores {
	a.log.Warn("running with in-memory stores, data is lost on restart")
	return &stores{
		sessions:   memory.NewSessionStore(a.cfg.Session.TTL),
		listings:   memory.NewListingRepository(),
		users:      memory.NewUserRepository(),
		host:       memory.NewMediaHost(a.cfg.Media.PublicBaseURL),
		deviceCart: memory.NewDeviceCartRepository(),
		remoteCart: memory.NewRemoteCartRepository(),
		orders:     memory.NewOrderRepository(),
	}
}

func (a *App) backedStores(ctx context.Context) (*stores, error) {
	a.log.Info("Initializing MongoDB client...")
	mongoClient, err := mongoadapter.NewClient(ctx, a.cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	a.mongoClient = mongoClient
	db := mongoClient.Database(a.cfg.Mongo.Database)

	a.log.Info("Initializing Redis client...")
	redisClient, err := redisadapter.NewClient(ctx, a.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	a.redisClient = redisClient

	a.log.Info("Initializing MinIO storage...")
	host, err := s3.NewS3Storage(ctx, a.cfg.MinIO, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}

	return &stores{
		sessions:   redisadapter.NewSessionStore(redisClient, a.cfg.Session.TTL),
		listings:   mongoadapter.NewListingRepository(db, a.log),
		cache:      redisadapter.NewListingCache(redisClient, a.cfg.Marketplace.CacheTTL),
		users:      mongoadapter.NewUserRepository(db, a.log),
		host:       host,
		deviceCart: redisadapter.NewDeviceCartRepository(redisClient, a.cfg.Cart.DeviceTTL),
		remoteCart: mongoadapter.NewCartRepository(db),
		orders:     mongoadapter.NewOrderRepository(db),
	}, nil
}

// Run serves HTTP and gRPC and runs the cart syncer until ctx is cancelled
// or a server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	syncCtx, stopSync := context.WithCancel(context.Background())
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		a.syncer.Run(syncCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("HTTP server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(a.grpcServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Shutting down application...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout+5*time.Second)
		defer cancel()

		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.log.Error("HTTP server shutdown failed", zap.Error(err))
		}
		if err := a.grpcServer.Stop(shutdownCtx); err != nil {
			a.log.Error("gRPC server shutdown failed", zap.Error(err))
		}

		stopSync()
		<-syncDone
		if failed := a.syncer.Flush(shutdownCtx); failed > 0 {
			a.log.Warn("remote carts left unsynced at shutdown", zap.Int("carts", failed))
		}

		a.closeClients(shutdownCtx)
		return nil
	})

	err := g.Wait()
	a.log.Info("Application shut down")
	_ = a.log.Sync()
	return err
}

func (a *App) closeClients(ctx context.Context) {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if a.tp != nil {
		if err := a.tp.Shutdown(ctx); err != nil {
			a.log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
}

// EnsureIndexes connects to MongoDB and creates the service's indexes.
func EnsureIndexes(ctx context.Context, cfg *config.Config) error {
	client, err := mongoadapter.NewClient(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	return mongoadapter.EnsureIndexes(ctx, client.Database(cfg.Mongo.Database))
}
