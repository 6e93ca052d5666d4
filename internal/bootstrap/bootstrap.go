// Package bootstrap connects the backends selected by configuration and
// assembles the admin service shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"evaladmin/internal/admin"
	"evaladmin/internal/cloudinary"
	"evaladmin/internal/config"
	"evaladmin/internal/docstore"
	"evaladmin/internal/identity"
	"evaladmin/internal/metrics"
	"evaladmin/internal/queue"
	"evaladmin/internal/store"
)

// App is the wired service plus the handles main needs for health checks
// and shutdown.
type App struct {
	Service *admin.Service
	Queue   queue.Queue
	Redis   *store.Redis
	DB      *store.DB

	closers []func() error
}

// Close releases every backend connection, returning the joined errors.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Open connects the docstore, identity provider, cache, queue and image
// store named by cfg.
func Open(ctx context.Context, cfg config.App, m *metrics.Metrics, log *zap.Logger) (*App, error) {
	a := &App{}
	deps := admin.Deps{
		Metrics:         m,
		Log:             log,
		Concurrency:     cfg.ImportConcurrency,
		HistoryTTL:      cfg.HistoryTTL,
		MetadataTimeout: cfg.MetadataTimeout,
	}

	switch cfg.DocstoreBackend {
	case "firestore":
		var opts []option.ClientOption
		if cfg.FirebaseCreds != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCreds))
		}
		fb, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			return nil, fmt.Errorf("firebase app: %w", err)
		}
		fs, err := fb.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		a.closers = append(a.closers, fs.Close)
		authClient, err := fb.Auth(ctx)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("firebase auth client: %w", err)
		}
		deps.Store = docstore.NewFirestore(fs, log)
		deps.Identity = identity.NewFirebase(authClient)
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		pg := docstore.NewPostgres(db.Client, cfg.DocstorePoll, log)
		if err := pg.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrate documents: %w", err)
		}
		deps.Store = pg
		log.Warn("postgres docstore has no identity provider; password changes are disabled")
	default:
		deps.Store = docstore.NewMemory()
		deps.Identity = identity.NewMemory()
		log.Warn("using in-memory docstore; data is lost on restart")
	}

	if cfg.RedisAddr != "" {
		a.Redis = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.closers = append(a.closers, a.Redis.Client.Close)
		if a.Redis.Healthy(ctx) {
			deps.Cache = a.Redis
		} else {
			log.Warn("redis not reachable; history cache is in-process", zap.String("addr", cfg.RedisAddr))
		}
	}

	switch {
	case cfg.QueueBackend == "redis" && a.Redis != nil:
		a.Queue = queue.NewRedisQueue(a.Redis.Client, cfg.QueueName)
	case cfg.QueueBackend == "redis":
		log.Warn("QUEUE_BACKEND=redis needs REDIS_ADDR; falling back to in-memory queue")
		fallthrough
	default:
		a.Queue = queue.NewInMemory(64)
	}
	deps.Queue = a.Queue

	cdn := cloudinary.New(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret, cfg.CloudinaryFolder)
	if cdn.Configured() {
		deps.Images = cdn
		log.Info("cloudinary configured", zap.String("cloud", cfg.CloudinaryCloud))
	} else {
		log.Warn("cloudinary not configured; image uploads are disabled")
	}

	a.Service = admin.New(deps)
	return a, nil
}

// Consume feeds queue messages to the service until ctx ends.
func Consume(ctx context.Context, q queue.Queue, svc *admin.Service, log *zap.Logger) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for msg := range messages {
		if err := svc.HandleJob(ctx, msg); err != nil {
			log.Error("job failed", zap.String("type", msg.Type), zap.Error(err))
			continue
		}
		log.Debug("job done", zap.String("type", msg.Type))
	}
	return nil
}
