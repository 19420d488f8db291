package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deal-agents-go/internal/model"
)

const (
	defaultFirecrawlURL = "https://api.firecrawl.dev/v1"
	// DefaultFirecrawlTimeout 渲染页面比直接GET慢
	DefaultFirecrawlTimeout = 60 * time.Second
	firecrawlWaitMillis     = 3000
)

// FirecrawlFetcher 通过Firecrawl渲染页面（JS站点），实现 PageFetcher
type FirecrawlFetcher struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewFirecrawlFetcher 创建Firecrawl获取器，timeout<=0 时使用默认值
func NewFirecrawlFetcher(apiKey string, timeout time.Duration) *FirecrawlFetcher {
	if timeout <= 0 {
		timeout = DefaultFirecrawlTimeout
	}
	return &FirecrawlFetcher{
		apiKey:     apiKey,
		baseURL:    defaultFirecrawlURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL 替换API地址（测试用）
func (f *FirecrawlFetcher) WithBaseURL(baseURL string) *FirecrawlFetcher {
	f.baseURL = strings.TrimRight(baseURL, "/")
	return f
}

type firecrawlRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
	WaitFor int      `json:"waitFor,omitempty"` // 等待毫秒数，让JS渲染完成
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		HTML     string `json:"html"`
		Metadata struct {
			StatusCode int `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Fetch 获取渲染后的HTML，失败返回 *model.FetchError
func (f *FirecrawlFetcher) Fetch(ctx context.Context, url string) (string, error) {
	jsonBody, err := json.Marshal(firecrawlRequest{
		URL:     url,
		Formats: []string{"html"},
		WaitFor: firecrawlWaitMillis,
	})
	if err != nil {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/scrape", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &model.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("firecrawl returned status %d: %s", resp.StatusCode, string(body))}
	}

	var fcResp firecrawlResponse
	if err := json.Unmarshal(body, &fcResp); err != nil {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if !fcResp.Success {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("firecrawl error: %s", fcResp.Error)}
	}

	// 目标站点本身的状态码
	if code := fcResp.Data.Metadata.StatusCode; code != 0 && (code < 200 || code >= 300) {
		return "", &model.FetchError{URL: url, Status: code, Err: errors.New(http.StatusText(code))}
	}
	if fcResp.Data.HTML == "" {
		return "", &model.FetchError{URL: url, Err: errors.New("empty HTML response")}
	}

	return fcResp.Data.HTML, nil
}
