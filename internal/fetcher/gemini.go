package fetcher

import (
	"context"
	"fmt"
	"strings"

	llmsdk "github.com/hoangvvo/llm-sdk/sdk-go"
	"github.com/hoangvvo/llm-sdk/sdk-go/google"
)

// textModel llm-sdk LanguageModel 中用到的部分
type textModel interface {
	Generate(ctx context.Context, input *llmsdk.LanguageModelInput) (*llmsdk.ModelResponse, error)
}

// GeminiClient 通过 llm-sdk 调用Google Gemini
type GeminiClient struct {
	apiKey   string
	newModel func(modelID string) textModel
}

// NewGeminiClient 创建Gemini客户端
func NewGeminiClient(apiKey string) *GeminiClient {
	c := &GeminiClient{apiKey: apiKey}
	c.newModel = func(modelID string) textModel {
		return google.NewGoogleModel(modelID, google.GoogleModelOptions{
			APIKey: c.apiKey,
		})
	}
	return c
}

// Generate 单轮生成
func (g *GeminiClient) Generate(ctx context.Context, model, prompt string) (*Generation, error) {
	input := &llmsdk.LanguageModelInput{
		Messages: []llmsdk.Message{
			{UserMessage: &llmsdk.UserMessage{
				Content: []llmsdk.Part{{TextPart: &llmsdk.TextPart{Text: prompt}}},
			}},
		},
	}

	resp, err := g.newModel(model).Generate(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("gemini generate: empty response")
	}

	var texts []string
	for _, part := range resp.Content {
		if part.TextPart != nil {
			texts = append(texts, part.TextPart.Text)
		}
	}

	return &Generation{
		Text: strings.Join(texts, ""),
		Raw:  resp,
	}, nil
}
