package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deal-agents-go/internal/model"
)

func TestAnalyzeNeeds_KeywordsNoService(t *testing.T) {
	a := NewAgents(NoService{}, zap.NewNop())

	tests := []struct {
		name       string
		text       string
		hints      []string
		confidence float64
	}{
		{
			name:       "no keywords",
			text:       "we sell shoes",
			hints:      []string{"Improve conversions / reduce churn (general)"},
			confidence: 0.2,
		},
		{
			name:       "one keyword",
			text:       "Checkout is SLOW",
			hints:      []string{"Performance/Speed issues"},
			confidence: 0.4,
		},
		{
			name:       "two keywords",
			text:       "site is slow and costs a lot",
			hints:      []string{"Performance/Speed issues", "Cost/price concerns"},
			confidence: 0.6,
		},
		{
			name:       "slow checkout and bad support",
			text:       "Our checkout is slow and support is terrible",
			hints:      []string{"Performance/Speed issues", "Support / onboarding needs"},
			confidence: 0.6,
		},
		{
			name:       "table order not text order",
			text:       "we need support to scale, errors everywhere",
			hints:      []string{"Stability / errors", "Support / onboarding needs", "Scaling / architecture concerns"},
			confidence: 0.8,
		},
		{
			name: "all keywords capped",
			text: "slow cost error support scale",
			hints: []string{
				"Performance/Speed issues",
				"Cost/price concerns",
				"Stability / errors",
				"Support / onboarding needs",
				"Scaling / architecture concerns",
			},
			confidence: 0.9,
		},
		{
			name:       "substring match",
			text:       "upscale costumes",
			hints:      []string{"Cost/price concerns", "Scaling / architecture concerns"},
			confidence: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.AnalyzeNeeds(context.Background(), tt.text)
			assert.Equal(t, tt.hints, got.TopHints)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}

func TestAnalyzeNeeds_Deterministic(t *testing.T) {
	a := NewAgents(NoService{}, zap.NewNop())
	text := "Our checkout is slow and support is terrible"

	first := a.AnalyzeNeeds(context.Background(), text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, a.AnalyzeNeeds(context.Background(), text))
	}
}

func TestAnalyzeNeeds_ConfidenceBounds(t *testing.T) {
	for score := 0; score <= 10; score++ {
		c := confidence(score)
		assert.GreaterOrEqual(t, c, 0.2)
		assert.LessOrEqual(t, c, 0.9)
	}
}

func TestAnalyzeNeeds_ServiceAddsHints(t *testing.T) {
	llm := replyText("1. Slow onboarding\n\n  2. Churn  \n")
	a := NewAgents(remote(llm), zap.NewNop())

	got := a.AnalyzeNeeds(context.Background(), "our support queue is long")

	assert.Equal(t, []string{"Support / onboarding needs", "1. Slow onboarding", "2. Churn"}, got.TopHints)
	// 生成的提示不计入 confidence
	assert.Equal(t, 0.4, got.Confidence)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, needsPrompt+"our support queue is long", llm.prompts[0])
}

func TestAnalyzeNeeds_ServiceNotCalledWithTwoHits(t *testing.T) {
	llm := replyText("extra")
	a := NewAgents(remote(llm), zap.NewNop())

	got := a.AnalyzeNeeds(context.Background(), "slow and error prone")
	assert.Equal(t, []string{"Performance/Speed issues", "Stability / errors"}, got.TopHints)
	assert.Equal(t, 0, llm.calls())
}

func TestAnalyzeNeeds_ServiceFailureSwallowed(t *testing.T) {
	a := NewAgents(remote(replyError(errors.New("boom"))), zap.NewNop())

	got := a.AnalyzeNeeds(context.Background(), "nothing relevant")
	assert.Equal(t, []string{"Improve conversions / reduce churn (general)"}, got.TopHints)
	assert.Equal(t, 0.2, got.Confidence)
	for _, h := range got.TopHints {
		assert.NotContains(t, h, "failed")
	}
}

func TestAnalyzeNeeds_ServiceBlankReplyUsesDefault(t *testing.T) {
	a := NewAgents(remote(replyText("\n   \n")), zap.NewNop())

	got := a.AnalyzeNeeds(context.Background(), "nothing relevant")
	assert.Equal(t, []string{"Improve conversions / reduce churn (general)"}, got.TopHints)
}

func TestAnalyzeNeeds_ServiceOnlyHintsKeepBaseConfidence(t *testing.T) {
	a := NewAgents(remote(replyText("Pricing clarity\nLead quality")), zap.NewNop())

	got := a.AnalyzeNeeds(context.Background(), "we sell shoes")
	assert.Equal(t, model.AnalysisResult{
		TopHints:   []string{"Pricing clarity", "Lead quality"},
		Confidence: 0.2,
	}, got)
}
