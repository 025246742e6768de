// Package app assembles storage, cache, events and services from
// configuration. The server, scheduler and CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/cache"
	"github.com/segyhp/khaata-engine/internal/config"
	"github.com/segyhp/khaata-engine/internal/database"
	"github.com/segyhp/khaata-engine/internal/events"
	"github.com/segyhp/khaata-engine/internal/repository"
	"github.com/segyhp/khaata-engine/internal/repository/memory"
	"github.com/segyhp/khaata-engine/internal/service"
)

type Repositories struct {
	Customers  repository.CustomerRepository
	Loans      repository.LoanRepository
	Repayments repository.RepaymentRepository
	Users      repository.UserRepository
	Receipts   repository.ReceiptSequencer
}

type App struct {
	Config *config.Config
	Logger *zap.Logger

	// DB and Redis are nil when the configuration does not use them.
	DB     *sqlx.DB
	Redis  *redis.Client
	Events events.Publisher

	Repos      Repositories
	Customers  *service.CustomerService
	Loans      *service.LoanService
	Repayments *service.RepaymentService
	Summary    *service.SummaryService
	Auth       *service.AuthService
}

// New connects every configured backend and builds the services. On error
// anything already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger, Events: events.NopPublisher{}}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err = a.openStorage(ctx); err != nil {
		return nil, err
	}

	var summaryCache service.SummaryCache
	if cfg.Redis.URL != "" {
		a.Redis, err = cache.NewRedisClient(cache.RedisOpts{URL: cfg.Redis.URL, DialTimeout: cfg.GetHealthTimeout()})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		summaryCache = cache.NewSummaryCache(a.Redis, cfg.SummaryCacheTTL())
		if cfg.Storage.ReceiptSequence == config.DriverRedis {
			a.Repos.Receipts = cache.NewReceiptSequencer(a.Redis)
		}
		logger.Info("redis connected", zap.Duration("summary_cache_ttl", cfg.SummaryCacheTTL()))
	}

	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		a.Events = events.NewKafkaPublisher(events.KafkaConfig{Brokers: brokers, Topic: cfg.Kafka.Topic})
		logger.Info("publishing ledger events", zap.Strings("brokers", brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	opts := service.Options{
		Logger:   logger,
		Cache:    summaryCache,
		Events:   a.Events,
		Location: cfg.Location(),
	}

	r := a.Repos
	a.Customers = service.NewCustomerService(r.Customers, r.Loans, opts)
	a.Loans = service.NewLoanService(r.Customers, r.Loans, opts)
	a.Repayments = service.NewRepaymentService(r.Loans, r.Repayments, r.Receipts, opts)
	a.Summary = service.NewSummaryService(r.Customers, r.Loans, r.Repayments, opts)
	a.Auth = service.NewAuthService(r.Users, cfg.Auth.JWTSecret, cfg.JWTTTL(), opts)

	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, database.Options{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime(),
			PingTimeout:     cfg.GetHealthTimeout(),
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.DB = db
		a.Repos = Repositories{
			Customers:  repository.NewCustomerRepository(db),
			Loans:      repository.NewLoanRepository(db),
			Repayments: repository.NewRepaymentRepository(db),
			Users:      repository.NewUserRepository(db),
		}
		if cfg.Storage.ReceiptSequence == config.DriverPostgres {
			a.Repos.Receipts = repository.NewReceiptSequencer(db)
		}

	default:
		store := memory.NewStore()
		a.Repos = Repositories{
			Customers:  memory.NewCustomerRepository(store),
			Loans:      memory.NewLoanRepository(store),
			Repayments: memory.NewRepaymentRepository(store),
			Users:      memory.NewUserRepository(store),
		}
		if cfg.Storage.ReceiptSequence == config.DriverMemory {
			a.Repos.Receipts = memory.NewReceiptSequencer(store)
		}
	}

	a.Logger.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("receipt_sequencer", cfg.Storage.ReceiptSequence),
	)
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
