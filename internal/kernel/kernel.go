// Package kernel assembles the storefront from configuration. It owns the
// store connections and drivers and hands out the wired services, the HTTP
// handler and the background runners.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/lock"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

const (
	redisPrefix     = "storefront:"
	memoryQueueSize = 1024
	logCollection   = "logs"

	// RatingSweepTask names the scheduled average repair.
	RatingSweepTask = "rating:repair"
)

type Kernel struct {
	Config config.Config

	Mongo *mongo.Database
	DB    *gorm.DB
	Redis *redis.Client

	Cache     cache.Store
	Locker    lock.Locker
	Queue     *queue.Manager
	Events    *event.Bus
	Disk      storage.Disk
	Scheduler *schedule.Scheduler
	Limiter   *middleware.Limiter

	Users     *services.UserService
	Admin     *services.AdminService
	Carts     *services.CartService
	Orders    *services.OrderService
	Reviews   *services.ReviewService
	Products  *services.ProductService
	Wishlists *services.WishlistService
	Repairer  *services.RatingRepairer
	Exporter  *services.CatalogExporter

	closers []func(context.Context) error
}

// Boot connects every store named by cfg and wires the services. On error
// whatever was opened so far is closed again.
func Boot(ctx context.Context, cfg config.Config) (*Kernel, error) {
	k := &Kernel{Config: cfg}
	if err := k.openStores(ctx); err != nil {
		_ = k.Close(context.Background())
		return nil, err
	}
	if err := k.openDrivers(ctx); err != nil {
		_ = k.Close(context.Background())
		return nil, err
	}
	k.wireServices()
	k.registerTasks()
	return k, nil
}

func (k *Kernel) openStores(ctx context.Context) error {
	cfg := k.Config

	mdb, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		return err
	}
	k.Mongo = mdb
	database.Mongo = mdb
	k.onClose(func(ctx context.Context) error { return mdb.Client().Disconnect(ctx) })

	if cfg.LogMongo {
		sink := logger.NewMongoHandler(ctx, mdb.Collection(logCollection), slog.LevelInfo)
		logger.Setup(cfg.AppEnv, os.Stdout, sink)
		k.onClose(func(context.Context) error { sink.Close(); return nil })
	}

	db, err := database.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	k.DB = db
	database.DB = db
	k.onClose(func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if cfg.UsesRedis() {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		k.Redis = rdb
		k.onClose(func(context.Context) error { return rdb.Close() })
	}

	disk, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	k.Disk = disk
	return nil
}

func (k *Kernel) openDrivers(ctx context.Context) error {
	cfg := k.Config

	switch cfg.CacheDriver {
	case "redis":
		k.Cache = cache.NewRedisStore(k.Redis, redisPrefix+"cache:")
	case "", "memory":
		k.Cache = cache.NewMemoryStore()
	default:
		return fmt.Errorf("kernel: unknown cache driver %q", cfg.CacheDriver)
	}

	switch cfg.LockDriver {
	case "redis":
		k.Locker = lock.NewRedisLocker(k.Redis, redisPrefix+"lock:", cfg.LockTTL)
	case "", "memory":
		k.Locker = lock.NewMemoryLocker()
	default:
		return fmt.Errorf("kernel: unknown lock driver %q", cfg.LockDriver)
	}

	var driver queue.Driver
	switch cfg.QueueDriver {
	case "redis":
		driver = queue.NewRedisDriver(k.Redis, redisPrefix)
	case "", "memory":
		driver = queue.NewMemoryDriver(memoryQueueSize)
	default:
		return fmt.Errorf("kernel: unknown queue driver %q", cfg.QueueDriver)
	}
	k.Queue = queue.New(driver, queue.Options{MaxRetry: cfg.QueueMaxRetry, FailedStore: k.DB})

	k.Events = event.NewBus()
	if len(cfg.KafkaBrokers) > 0 {
		bridge := event.NewKafkaBridge(event.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		k.Events.ListenAll(bridge.Handle)
		k.onClose(func(context.Context) error { return bridge.Close() })
		logger.Info("kernel: kafka bridge enabled", "topic", cfg.KafkaTopic)
	}
	// In-flight deliveries finish before the bridge closes.
	k.onClose(func(context.Context) error { k.Events.Wait(); return nil })

	k.Limiter = middleware.NewLimiter(cfg.RateLimit, time.Minute)
	return nil
}

func (k *Kernel) wireServices() {
	users := repositories.NewMongoUserRepository(k.Mongo)
	carts := repositories.NewMongoCartRepository(k.Mongo)
	wishlists := repositories.NewMongoWishlistRepository(k.Mongo)
	products := repositories.NewMongoProductRepository(k.Mongo)
	orders := repositories.NewMongoOrderRepository(k.Mongo)
	audit := repositories.NewRatingAuditRepository(k.DB)

	dispatcher := jobs.NewDispatcher(k.Queue)
	catalog := services.NewProductCatalog(products, k.Cache, k.Config.ProductCacheTTL)

	k.Repairer = services.NewRatingRepairer(products, audit, k.Config.RatingRepairWorkers)
	k.Users = services.NewUserService(users)
	k.Admin = services.NewAdminService(users)
	k.Carts = services.NewCartService(carts, catalog)
	k.Orders = services.NewOrderService(carts, products, orders, k.Locker, dispatcher, k.Events)
	k.Reviews = services.NewReviewService(products, catalog, dispatcher, k.Events)
	k.Products = services.NewProductService(products, catalog, k.Repairer)
	k.Wishlists = services.NewWishlistService(wishlists, products, catalog)
	k.Exporter = services.NewCatalogExporter(products, k.Disk)

	jobs.Register(k.Queue, carts, k.Repairer)
}

func (k *Kernel) registerTasks() {
	k.Scheduler = schedule.New()
	k.Scheduler.Every(k.Config.RatingRepairInterval).
		Name(RatingSweepTask).
		WithoutOverlapping().
		Run(func(ctx context.Context) error {
			n, err := k.Repairer.RepairAll(ctx)
			if n > 0 {
				logger.WithCtx(ctx).Info("rating sweep repaired products", "count", n)
			}
			return err
		})
}

// Ping reports whether the document store answers.
func (k *Kernel) Ping(ctx context.Context) error {
	return database.PingMongo(ctx)
}

func (k *Kernel) onClose(fn func(context.Context) error) {
	k.closers = append(k.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (k *Kernel) Close(ctx context.Context) error {
	var errs []error
	for i := len(k.closers) - 1; i >= 0; i-- {
		if err := k.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	k.closers = nil
	return errors.Join(errs...)
}
