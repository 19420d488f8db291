package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"deal-agents-go/config"
	"deal-agents-go/internal/cache"
	"deal-agents-go/internal/fetcher"
	"deal-agents-go/internal/handler"
	"deal-agents-go/internal/logger"
	"deal-agents-go/internal/service"
)

func main() {
	// 加载 .env 文件（如果存在）
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := newGenerator(cfg, zl)

	pageCache, closeCache, err := newPageCache(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to create page cache", zap.String("backend", cfg.CacheBackend), zap.Error(err))
	}
	defer closeCache()

	acquirer := service.NewAcquirer(newPageFetcher(cfg), gen, zl)
	if pageCache != nil {
		acquirer.WithCache(pageCache, cfg.CacheTTL)
		zl.Info("page cache enabled", zap.String("backend", cfg.CacheBackend), zap.Duration("ttl", cfg.CacheTTL))
	}

	router := service.NewRouter(acquirer, service.NewAgents(gen, zl), zl)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewServer(router, cfg.APIKey, zl).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zl.Warn("server shutdown failed", zap.Error(err))
		}
	}()

	zl.Info("server starting",
		zap.String("port", cfg.Port),
		zap.Bool("auth", cfg.APIKey != ""),
		zap.Bool("generation", cfg.GenerationEnabled()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zl.Fatal("server failed", zap.Error(err))
	}
	zl.Info("server stopped")
}

// newGenerator 启动时根据配置决定是否有生成服务
func newGenerator(cfg *config.Config, zl *zap.Logger) service.Generator {
	if !cfg.GenerationEnabled() {
		if cfg.LLMProvider != config.ProviderNone {
			zl.Warn("generation API key not configured, using local templates only", zap.String("provider", cfg.LLMProvider))
		}
		return service.NoService{}
	}

	var factory service.ClientFactory
	switch cfg.LLMProvider {
	case config.ProviderOpenRouter:
		factory = func() (fetcher.LLMClient, error) {
			return fetcher.NewOpenRouterClient(cfg.OpenRouterKey), nil
		}
	default:
		factory = func() (fetcher.LLMClient, error) {
			return fetcher.NewGeminiClient(cfg.GeminiKey), nil
		}
	}

	zl.Info("generation enabled", zap.String("provider", cfg.LLMProvider), zap.String("model", cfg.GenerationModel()))
	return service.NewRemoteService(factory, cfg.GenerationModel(), cfg.LLMTimeout, zl)
}

// newPageFetcher 直接GET或Firecrawl渲染
func newPageFetcher(cfg *config.Config) fetcher.PageFetcher {
	if cfg.PageFetcher == config.FetcherFirecrawl {
		return fetcher.NewFirecrawlFetcher(cfg.FirecrawlKey, cfg.FirecrawlTimeout)
	}
	return fetcher.NewScraper(cfg.FetchTimeout)
}

// newPageCache 创建页面缓存，CACHE_BACKEND=none 时返回 nil
func newPageCache(ctx context.Context, cfg *config.Config, zl *zap.Logger) (cache.Cache, func(), error) {
	noop := func() {}

	switch cfg.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemoryCache(), noop, nil
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return c, func() { c.Close() }, nil
	case config.CachePostgres:
		c, err := cache.NewPostgresCache(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := c.EnsureSchema(ctx); err != nil {
			c.Close()
			return nil, noop, fmt.Errorf("failed to create page_cache table: %w", err)
		}

		// Postgres 不会自动删除过期行
		cleanCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			cleanExpiredLoop(cleanCtx, c, expiredCleanInterval, zl)
		}()
		return c, func() {
			cancel()
			<-done
			c.Close()
		}, nil
	default:
		return nil, noop, nil
	}
}

// expiredCleanInterval 清理过期缓存的间隔
const expiredCleanInterval = time.Hour

type expiredCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// cleanExpiredLoop 定期删除过期缓存，ctx 结束时退出
func cleanExpiredLoop(ctx context.Context, c expiredCleaner, interval time.Duration, zl *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.CleanExpired(ctx)
			if err != nil {
				zl.Warn("failed to clean expired page cache", zap.Error(err))
				continue
			}
			if n > 0 {
				zl.Debug("cleaned expired page cache", zap.Int64("rows", n))
			}
		}
	}
}
