package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"deal-agents-go/internal/cache"
	"deal-agents-go/internal/fetcher"
	"deal-agents-go/internal/metrics"
	"deal-agents-go/internal/utils"
)

const (
	summaryPrompt = "Summarize the following website content in 3 short bullets:\n\n"

	summaryInputChars    = 4000
	summaryOutputChars   = 4000
	summaryFallbackChars = 2000
	localSummaryChars    = 1200
)

// DefaultPageCacheTTL 页面文本缓存时间
const DefaultPageCacheTTL = 15 * time.Minute

// Acquirer 抓取网页并生成摘要
type Acquirer struct {
	fetcher  fetcher.PageFetcher
	gen      Generator
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAcquirer 创建内容获取器
func NewAcquirer(f fetcher.PageFetcher, gen Generator, logger *zap.Logger) *Acquirer {
	if gen == nil {
		gen = NoService{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acquirer{
		fetcher: f,
		gen:     gen,
		logger:  logger,
	}
}

// WithCache 启用页面文本缓存（只缓存抓取成功的文本）
func (a *Acquirer) WithCache(c cache.Cache, ttl time.Duration) *Acquirer {
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	a.cache = c
	a.cacheTTL = ttl
	return a
}

// FetchAndSummarize 抓取并摘要，不会失败：抓取错误变成占位文本，摘要错误变成后缀
func (a *Acquirer) FetchAndSummarize(ctx context.Context, url string) string {
	text := a.pageText(ctx, url)

	if !a.gen.available() {
		return utils.Truncate(utils.NormalizeSpace(text), localSummaryChars)
	}

	out, err := a.gen.generate(ctx, StageSummary, summaryPrompt+utils.Truncate(text, summaryInputChars))
	if err != nil {
		recordFallback(a.logger, StageSummary, err)
		return utils.Truncate(text, summaryFallbackChars) + failureSuffix(StageSummary, err)
	}
	return utils.Truncate(out, summaryOutputChars)
}

// pageText 获取页面可见文本，失败时返回 "(scrape failed: ...)"
func (a *Acquirer) pageText(ctx context.Context, url string) string {
	if a.cache != nil {
		cached, err := a.cache.Get(ctx, url)
		if err != nil {
			a.logger.Warn("page cache read failed", zap.String("url", url), zap.Error(err))
		} else if cached != nil {
			a.logger.Debug("page cache hit", zap.String("url", url))
			return cached.Text
		}
	}

	text, err := a.scrape(ctx, url)
	if err != nil {
		metrics.ScrapeFailuresTotal.Inc()
		a.logger.Warn("scrape failed", zap.String("url", url), zap.Error(err))
		return "(scrape failed: " + err.Error() + ")"
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, url, text, a.cacheTTL); err != nil {
			a.logger.Warn("page cache write failed", zap.String("url", url), zap.Error(err))
		}
	}
	return text
}

func (a *Acquirer) scrape(ctx context.Context, url string) (string, error) {
	page, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return fetcher.ExtractText(page)
}
