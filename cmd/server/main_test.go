package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deal-agents-go/config"
	"deal-agents-go/internal/cache"
	"deal-agents-go/internal/fetcher"
	"deal-agents-go/internal/service"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		remote bool
	}{
		{"gemini without key", config.Config{LLMProvider: config.ProviderGemini}, false},
		{"gemini with key", config.Config{LLMProvider: config.ProviderGemini, GeminiKey: "k", GeminiModel: "gemini-1.5-flash"}, true},
		{"openrouter with key", config.Config{LLMProvider: config.ProviderOpenRouter, OpenRouterKey: "k"}, true},
		{"none ignores keys", config.Config{LLMProvider: config.ProviderNone, GeminiKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newGenerator(&tt.cfg, zap.NewNop())
			_, isRemote := gen.(*service.RemoteService)
			assert.Equal(t, tt.remote, isRemote)
			if !tt.remote {
				assert.IsType(t, service.NoService{}, gen)
			}
		})
	}
}

func TestNewPageFetcher(t *testing.T) {
	assert.IsType(t, &fetcher.Scraper{}, newPageFetcher(&config.Config{PageFetcher: config.FetcherDirect}))
	assert.IsType(t, &fetcher.FirecrawlFetcher{}, newPageFetcher(&config.Config{PageFetcher: config.FetcherFirecrawl, FirecrawlKey: "k", FirecrawlTimeout: time.Minute}))
}

func TestNewPageCache(t *testing.T) {
	ctx := context.Background()

	c, closeFn, err := newPageCache(ctx, &config.Config{CacheBackend: config.CacheNone}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, c)
	closeFn()

	c, closeFn, err = newPageCache(ctx, &config.Config{CacheBackend: config.CacheMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, c)
	closeFn()

	mr := miniredis.RunT(t)
	c, closeFn, err = newPageCache(ctx, &config.Config{CacheBackend: config.CacheRedis, RedisURL: "redis://" + mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &cache.RedisCache{}, c)
	closeFn()
}

// countingCleaner 记录 CleanExpired 调用次数
type countingCleaner struct {
	calls int32
	err   error
}

func (c *countingCleaner) CleanExpired(ctx context.Context) (int64, error) {
	atomic.AddInt32(&c.calls, 1)
	return 1, c.err
}

func TestCleanExpiredLoop(t *testing.T) {
	for _, cleanErr := range []error{nil, errors.New("db gone")} {
		c := &countingCleaner{err: cleanErr}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			cleanExpiredLoop(ctx, c, time.Millisecond, zap.NewNop())
		}()

		require.Eventually(t, func() bool { return atomic.LoadInt32(&c.calls) >= 2 }, time.Second, time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("cleanExpiredLoop did not return after cancel")
		}
	}
}
