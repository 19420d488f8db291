package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// CachedPage 缓存的页面文本
type CachedPage struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Cache 页面缓存接口，未命中返回 nil, nil
type Cache interface {
	Get(ctx context.Context, url string) (*CachedPage, error)
	Set(ctx context.Context, url, text string, ttl time.Duration) error
	Delete(ctx context.Context, url string) error
}

// MemoryCache 内存缓存实现（用于测试或单机部署）
type MemoryCache struct {
	data map[string]*CachedPage
	mu   sync.RWMutex
	now  func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]*CachedPage),
		now:  time.Now,
	}
}

// Get 获取缓存
func (c *MemoryCache) Get(ctx context.Context, url string) (*CachedPage, error) {
	c.mu.RLock()
	page, ok := c.data[url]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	// 检查是否过期
	if c.now().After(page.ExpiresAt) {
		c.Delete(ctx, url)
		return nil, nil
	}

	return page, nil
}

// Set 设置缓存
func (c *MemoryCache) Set(ctx context.Context, url, text string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.data[url] = &CachedPage{
		URL:       url,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

// Delete 删除缓存
func (c *MemoryCache) Delete(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, url)
	return nil
}

// PostgresCache PostgreSQL缓存实现
type PostgresCache struct {
	db *sql.DB
}

// NewPostgresCache 创建PostgreSQL缓存
func NewPostgresCache(databaseURL string) (*PostgresCache, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresCacheFromDB(db), nil
}

// NewPostgresCacheFromDB 使用已有连接创建缓存
func NewPostgresCacheFromDB(db *sql.DB) *PostgresCache {
	return &PostgresCache{db: db}
}

// EnsureSchema 建表
func (c *PostgresCache) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS page_cache (
		url        TEXT PRIMARY KEY,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	)`
	_, err := c.db.ExecContext(ctx, query)
	return err
}

// Get 获取缓存
func (c *PostgresCache) Get(ctx context.Context, url string) (*CachedPage, error) {
	query := `
	SELECT url, text, created_at, expires_at
	FROM page_cache
	WHERE url = $1 AND expires_at > NOW()
	`

	var page CachedPage
	err := c.db.QueryRowContext(ctx, query, url).Scan(
		&page.URL,
		&page.Text,
		&page.CreatedAt,
		&page.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // 缓存不存在或已过期
	}
	if err != nil {
		return nil, err
	}

	return &page, nil
}

// Set 设置缓存
func (c *PostgresCache) Set(ctx context.Context, url, text string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	query := `
	INSERT INTO page_cache (url, text, created_at, expires_at)
	VALUES ($1, $2, NOW(), $3)
	ON CONFLICT (url)
	DO UPDATE SET text = $2, created_at = NOW(), expires_at = $3
	`

	_, err := c.db.ExecContext(ctx, query, url, text, expiresAt)
	return err
}

// Delete 删除缓存
func (c *PostgresCache) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM page_cache WHERE url = $1`
	_, err := c.db.ExecContext(ctx, query, url)
	return err
}

// Close 关闭数据库连接
func (c *PostgresCache) Close() error {
	return c.db.Close()
}

// CleanExpired 清理过期缓存
func (c *PostgresCache) CleanExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM page_cache WHERE expires_at < NOW()`
	result, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
