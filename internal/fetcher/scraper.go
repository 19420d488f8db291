package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"deal-agents-go/internal/model"
	"deal-agents-go/internal/utils"
)

const (
	// DefaultFetchTimeout 抓取超时
	DefaultFetchTimeout = 10 * time.Second
	// DefaultUserAgent 类浏览器UA
	DefaultUserAgent = "Mozilla/5.0 (compatible)"
	// MaxPageText 提取文本的最大字符数
	MaxPageText = 8000

	maxBodyBytes = 5 << 20
)

// textSelector 提取可见文本的标签
const textSelector = "p, h1, h2, h3"

// Scraper 直接HTTP抓取网页
type Scraper struct {
	httpClient *http.Client
	userAgent  string
}

// NewScraper 创建抓取器，timeout<=0 时使用默认值
func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Scraper{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: DefaultUserAgent,
	}
}

// Fetch 获取页面HTML，失败返回 *model.FetchError
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &model.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &model.FetchError{URL: url, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return string(body), nil
}

// ExtractText 提取段落和h1-h3标题的文本，按文档顺序空格拼接，截断到 MaxPageText
func ExtractText(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	var parts []string
	doc.Find(textSelector).Each(func(i int, s *goquery.Selection) {
		parts = append(parts, visibleText(s))
	})

	return utils.Truncate(strings.Join(parts, " "), MaxPageText), nil
}

// visibleText 元素内每个文本节点去掉首尾空白后用空格拼接
func visibleText(s *goquery.Selection) string {
	var texts []string
	for _, n := range s.Nodes {
		collectText(n, &texts)
	}
	return strings.Join(texts, " ")
}

func collectText(n *html.Node, texts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*texts = append(*texts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, texts)
	}
}
