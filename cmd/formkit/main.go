// Command formkit serves multipart form uploads validated against YAML
// declared schemas.
//
// Routes:
//
//	GET  /health         liveness
//	GET  /ready          readiness (storage and quota store reachable)
//	GET  /forms          registered form names
//	POST /forms/{form}   decode, store files, answer JSON
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/formkit/pkg/clientip"
	"github.com/dmitrymomot/formkit/pkg/config"
	"github.com/dmitrymomot/formkit/pkg/file"
	"github.com/dmitrymomot/formkit/pkg/formschema"
	"github.com/dmitrymomot/formkit/pkg/httpserver"
	"github.com/dmitrymomot/formkit/pkg/logger"
	"github.com/dmitrymomot/formkit/pkg/ratelimiter"
	"github.com/dmitrymomot/formkit/pkg/redis"
	"github.com/dmitrymomot/formkit/pkg/requestid"
)

func main() {
	var cfg Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("formkit stopped", logger.Error(err))
		os.Exit(1)
	}
}

// app holds the dependencies of the HTTP routes.
type app struct {
	forms   *formschema.Registry
	storage file.Storage
	quota   func(http.Handler) http.Handler // nil when the upload quota is off
	checks  []httpserver.Check
	cfg     Config
	log     *slog.Logger
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	forms, err := formschema.Load(cfg.SchemaFile)
	if err != nil {
		return err
	}
	log.Info("form schemas loaded", slog.Int("forms", forms.Len()), slog.String("file", cfg.SchemaFile))

	storage, storageCheck, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	quota, quotaChecks, closeQuota, err := newQuota(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeQuota()

	a := &app{
		forms:   forms,
		storage: storage,
		quota:   quota,
		checks:  append([]httpserver.Check{storageCheck}, quotaChecks...),
		cfg:     cfg,
		log:     log,
	}
	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, a.routes())
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)

	r.Get("/health", httpserver.HealthHandler(a.log))
	r.Get("/ready", httpserver.HealthHandler(a.log, a.checks...))
	r.Get("/forms", formsIndex(a.forms))

	upload := &uploadHandler{
		forms:   a.forms,
		storage: a.storage,
		cfg:     a.cfg.Formdata,
		log:     a.log.With(logger.Component("upload")),
	}
	r.Group(func(r chi.Router) {
		if a.quota != nil {
			r.Use(a.quota)
		}
		r.Post("/forms/{form}", upload.ServeHTTP)
	})

	// Local uploads are served back under their base URL.
	if _, ok := a.storage.(*file.LocalStorage); ok && strings.Trim(a.cfg.StorageBaseURL, "/") != "" {
		prefix := "/" + strings.Trim(a.cfg.StorageBaseURL, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(a.cfg.StorageLocalDir))))
	}
	return r
}

func newStorage(ctx context.Context, cfg Config) (file.Storage, httpserver.Check, error) {
	switch cfg.StorageDriver {
	case "", "local":
		s, err := file.NewLocalStorage(cfg.StorageLocalDir, cfg.StorageBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Ping, nil
	case "s3":
		s, err := file.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Ping, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// newQuota builds the upload quota middleware. It returns a nil middleware when
// the quota is disabled, and a cleanup func that is always safe to call.
func newQuota(ctx context.Context, cfg Config, log *slog.Logger) (func(http.Handler) http.Handler, []httpserver.Check, func(), error) {
	noop := func() {}
	if !cfg.Quota.Enabled {
		return nil, nil, noop, nil
	}

	var (
		store   ratelimiter.Store
		checks  []httpserver.Check
		cleanup = noop
	)
	switch cfg.Quota.Store {
	case "", ratelimiter.StoreMemory:
		ms := ratelimiter.NewMemoryStore()
		store, cleanup = ms, ms.Close
	case ratelimiter.StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis, log)
		if err != nil {
			return nil, nil, noop, err
		}
		store = ratelimiter.NewRedisStore(client)
		checks = append(checks, redis.Healthcheck(client))
		cleanup = func() { _ = client.Close() }
	default:
		return nil, nil, noop, fmt.Errorf("unknown upload quota store %q", cfg.Quota.Store)
	}

	bucket, err := ratelimiter.NewBucket(store, cfg.Quota)
	if err != nil {
		cleanup()
		return nil, nil, noop, err
	}
	mw := ratelimiter.Middleware(bucket, ratelimiter.ClientIPKey,
		ratelimiter.WithUnknownLengthCost(int64(cfg.Quota.UnknownLength)),
		ratelimiter.WithLogger(log),
	)
	return mw, checks, cleanup, nil
}
