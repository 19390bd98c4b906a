package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tixup/internal/config"
	"tixup/internal/database"
	"tixup/internal/handlers"
	"tixup/internal/repositories"
	"tixup/internal/services"
)

// cartPurgeInterval is how often stale SQL carts are removed
const cartPurgeInterval = time.Hour

// Server wires the cart and checkout API to its storage backends
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	router http.Handler
	http   *http.Server

	db        *database.DB
	redis     *redis.Client
	publisher *services.AMQPOrderPublisher
	sqlCarts  *repositories.SQLCartProvider
}

// New builds the server and connects every configured backend
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	carts, err := s.newCartProvider(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	receipts, err := s.newReceiptStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	publisher, err := s.newOrderPublisher()
	if err != nil {
		s.Close()
		return nil, err
	}

	checkout := services.NewCheckoutService(services.CheckoutServiceConfig{
		Pricing:          services.NewPricingService(cfg.Checkout.ServiceFee),
		Payments:         services.NewMockPaymentService(logger),
		Receipts:         receipts,
		Publisher:        publisher,
		Logger:           logger,
		DocumentHashSalt: cfg.Checkout.DocumentHashSalt,
		PlaceholderEvent: cfg.Checkout.PlaceholderEventName,
	})

	s.router = s.routes(
		handlers.NewCartHandler(store, carts, logger, cfg.Checkout.PlaceholderEventName),
		handlers.NewCheckoutHandler(store, carts, checkout, cfg.Checkout, logger),
		handlers.NewFormatHandler(),
		handlers.NewHealthHandler(s.healthChecks()),
	)

	return s, nil
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves the API until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.sqlCarts != nil {
		go s.purgeStaleCarts(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr), zap.String("env", s.cfg.Server.Env))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// Close releases the backend connections
func (s *Server) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

func (s *Server) newCartProvider(ctx context.Context) (repositories.CartRepositoryProvider, error) {
	switch s.cfg.Cart.Backend {
	case config.CartBackendMemory:
		s.logger.Info("using in-memory cart storage")
		return repositories.NewMemoryCartProvider(), nil

	case config.CartBackendSession, "":
		s.logger.Info("using session cart storage")
		return repositories.SessionCartProvider{}, nil

	case config.CartBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redis = client
		s.logger.Info("using redis cart storage", zap.String("addr", s.cfg.Redis.Addr))
		return repositories.NewRedisCartProvider(client, s.cfg.Cart.TTL), nil

	case config.CartBackendSQL:
		db, err := database.NewConnection(databaseConfig(s.cfg.Database), s.logger)
		if err != nil {
			return nil, err
		}
		s.db = db
		if err := db.RunMigrations(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s.sqlCarts = repositories.NewSQLCartProvider(db.DB)
		s.logger.Info("using sql cart storage", zap.String("driver", db.Driver))
		return s.sqlCarts, nil

	default:
		return nil, fmt.Errorf("unknown cart backend %q", s.cfg.Cart.Backend)
	}
}

func (s *Server) newReceiptStore(ctx context.Context) (services.ReceiptStore, error) {
	switch s.cfg.Receipts.Backend {
	case "r2":
		store, err := services.NewR2ReceiptStore(ctx, s.cfg.R2)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 receipt store: %w", err)
		}
		s.logger.Info("archiving receipts to R2", zap.String("bucket", s.cfg.R2.BucketName))
		return store, nil
	case "local", "":
		s.logger.Info("archiving receipts locally", zap.String("dir", s.cfg.Receipts.LocalDir))
		return services.NewLocalReceiptStore(s.cfg.Receipts.LocalDir), nil
	default:
		return nil, fmt.Errorf("unknown receipt backend %q", s.cfg.Receipts.Backend)
	}
}

func (s *Server) newOrderPublisher() (services.OrderPublisher, error) {
	if s.cfg.Queue.URL == "" {
		return services.NewLogOrderPublisher(s.logger), nil
	}
	publisher, err := services.NewAMQPOrderPublisher(s.cfg.Queue.URL, s.cfg.Queue.OrderQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	s.publisher = publisher
	s.logger.Info("publishing completed orders", zap.String("queue", s.cfg.Queue.OrderQueue))
	return publisher, nil
}

func (s *Server) healthChecks() map[string]handlers.HealthCheck {
	checks := make(map[string]handlers.HealthCheck)
	if s.db != nil {
		checks["database"] = s.db.PingContext
	}
	if s.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return s.redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (s *Server) purgeStaleCarts(ctx context.Context) {
	ticker := time.NewTicker(cartPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.sqlCarts.PurgeStaleCarts(ctx, time.Now().Add(-s.cfg.Cart.TTL))
			if err != nil {
				s.logger.Error("failed to purge stale carts", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Info("purged stale carts", zap.Int64("count", removed))
			}
		}
	}
}

func databaseConfig(cfg config.DatabaseConfig) database.Config {
	return database.Config{
		Driver:   cfg.Driver,
		URL:      cfg.URL,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
	}
}
