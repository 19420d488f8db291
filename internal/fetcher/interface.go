package fetcher

import (
	"context"
	"fmt"
)

// PageFetcher 抓取网页HTML
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// LLMClient 文本生成客户端 (Gemini / OpenRouter)
type LLMClient interface {
	Generate(ctx context.Context, model, prompt string) (*Generation, error)
}

// Generation 一次生成的结果
type Generation struct {
	Text string      // 生成的文本
	Raw  interface{} // 原始响应，Text 为空时用于兜底
}

// Output 返回文本；没有文本字段时返回原始响应的字符串形式
func (g *Generation) Output() string {
	if g == nil {
		return ""
	}
	if g.Text != "" {
		return g.Text
	}
	if g.Raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", g.Raw)
}
