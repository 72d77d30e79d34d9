package scoresheetbuilder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-scoresheet/internal/config"
	"github.com/park285/cheese-scoresheet/internal/msgcat"
	"github.com/park285/cheese-scoresheet/internal/ocrclient"
	"github.com/park285/cheese-scoresheet/internal/preview"
	svc "github.com/park285/cheese-scoresheet/internal/service/scoresheet"
)

type Deps struct {
	Service *svc.Service
	OCR     *ocrclient.Client
	Repo    svc.Repository
	Pages   svc.PageStore
	Catalog *msgcat.Catalog

	closers []func() error
}

// Close releases the database pool and the Redis client.
func (d *Deps) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New wires the scoresheet service. Postgres and Redis are optional; without
// them games and pending pages live in process.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{}

	deps.OCR = ocrclient.NewClient(cfg.OCRBaseURL,
		ocrclient.WithTimeout(time.Duration(cfg.OCRTimeoutMS)*time.Millisecond),
		ocrclient.WithRetry(cfg.OCRRetryMax),
		ocrclient.WithLogger(logger.Named("ocr")),
	)

	// Pending pages (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.closers = append(deps.closers, rdb.Close)
		deps.Pages = svc.NewRedisPageStore(rdb)
	} else {
		logger.Warn("REDIS_URL not set; pending pages are kept in memory")
		deps.Pages = svc.NewMemoryPageStore()
	}

	// Repository (Postgres optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
		deps.closers = append(deps.closers, db.Close)

		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := svc.EnsureSchema(pctx, db); err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.Repo = svc.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set; games are kept in memory")
		deps.Repo = svc.NewMemoryRepository()
	}

	catalog, err := msgcat.New(cfg.MessageOverrideDir)
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}
	deps.Catalog = catalog

	var renderer preview.Renderer
	if cfg.PreviewEnabled {
		renderer = preview.NewRenderer()
	}

	svcCfg := svc.Config{
		PendingTTL:     time.Duration(cfg.PendingPageTTLSec) * time.Second,
		HistoryLimit:   cfg.HistoryLimit,
		PreviewEnabled: cfg.PreviewEnabled,
	}
	service, err := svc.NewService(deps.OCR, deps.Repo, deps.Pages, renderer, catalog, svcCfg, logger.Named("scoresheet"))
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Service = service
	return deps, nil
}
