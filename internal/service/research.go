package service

import (
	"context"
	"math"
	"strings"

	"deal-agents-go/internal/model"
	"deal-agents-go/internal/utils"
)

const (
	needsPrompt      = "Given this text, list the top 3 business pain points as short phrases:\n\n"
	needsInputChars  = 2000
	defaultNeedsHint = "Improve conversions / reduce churn (general)"

	// 少于这个数量的关键词提示时才请求生成服务补充
	minKeywordHints = 2

	baseConfidence = 0.2
	hitConfidence  = 0.2
	maxConfidence  = 0.9
)

// keywordRule 关键词到痛点标签
type keywordRule struct {
	keyword string
	label   string
}

// needsRules 按顺序匹配，命中顺序即提示顺序
var needsRules = []keywordRule{
	{keyword: "slow", label: "Performance/Speed issues"},
	{keyword: "cost", label: "Cost/price concerns"},
	{keyword: "error", label: "Stability / errors"},
	{keyword: "support", label: "Support / onboarding needs"},
	{keyword: "scale", label: "Scaling / architecture concerns"},
}

// AnalyzeNeeds 关键词分析痛点，命中不足时用生成服务补充
// confidence 只由关键词命中数决定
func (a *Agents) AnalyzeNeeds(ctx context.Context, text string) model.AnalysisResult {
	low := strings.ToLower(text)

	var hints []string
	score := 0
	for _, rule := range needsRules {
		if strings.Contains(low, rule.keyword) {
			hints = append(hints, rule.label)
			score++
		}
	}

	if len(hints) < minKeywordHints && a.gen.available() {
		out, err := a.gen.generate(ctx, StageNeedsAnalysis, needsPrompt+utils.Truncate(text, needsInputChars))
		if err != nil {
			// 补充失败不影响结果
			recordFallback(a.logger, StageNeedsAnalysis, err)
		} else {
			hints = append(hints, utils.NonEmptyLines(out)...)
		}
	}

	if len(hints) == 0 {
		hints = []string{defaultNeedsHint}
	}

	return model.AnalysisResult{
		TopHints:   hints,
		Confidence: confidence(score),
	}
}

// confidence min(0.9, 0.2 + 0.2*score)，保留两位小数
func confidence(score int) float64 {
	c := math.Min(maxConfidence, baseConfidence+hitConfidence*float64(score))
	return math.Round(c*100) / 100
}
