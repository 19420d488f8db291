package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deal-agents-go/internal/model"
)

func TestCreatePitch_Template(t *testing.T) {
	a := NewAgents(NoService{}, zap.NewNop())

	got := a.CreatePitch(context.Background(), model.FromHints([]string{"Performance/Speed issues", "Cost/price concerns"}), "Acme sells\nwidgets")

	want := "Hi there,\n\n" +
		"We reviewed your site and noticed: Performance/Speed issues.\n" +
		"Quick summary: Acme sells widgets...\n\n" +
		"Our proposal: a tailored quick win that addresses performance/speed issues and improves outcomes within 30 days.\n" +
		"Would you be open to a 15-minute call to discuss a custom plan?\n\n" +
		"Best,\nDeal-Closing Team"
	assert.Equal(t, want, got)
}

func TestCreatePitch_DefaultHint(t *testing.T) {
	a := NewAgents(NoService{}, zap.NewNop())

	for _, src := range []model.HintSource{
		model.FromHints(nil),
		model.FromHints([]string{}),
		model.FromAnalysis(model.AnalysisResult{}),
	} {
		got := a.CreatePitch(context.Background(), src, "text")
		assert.Contains(t, got, "noticed: improve conversions.")
	}
}

func TestCreatePitch_FromAnalysis(t *testing.T) {
	a := NewAgents(NoService{}, zap.NewNop())
	analysis := model.AnalysisResult{TopHints: []string{"Stability / errors"}, Confidence: 0.4}

	got := a.CreatePitch(context.Background(), model.FromAnalysis(analysis), "text")
	assert.Contains(t, got, "noticed: Stability / errors.")
	assert.Contains(t, got, "addresses stability / errors and")
}

func TestCreatePitch_SnippetLimit(t *testing.T) {
	a := NewAgents(NoService{}, zap.NewNop())

	got := a.CreatePitch(context.Background(), model.FromHints(nil), strings.Repeat("z", 1000))
	assert.Contains(t, got, "Quick summary: "+strings.Repeat("z", 800)+"...\n")
	assert.NotContains(t, got, strings.Repeat("z", 801))
}

func TestCreatePitch_ServiceRewrite(t *testing.T) {
	llm := replyText("Polished pitch")
	a := NewAgents(remote(llm), zap.NewNop())

	got := a.CreatePitch(context.Background(), model.FromHints([]string{"Cost/price concerns"}), "text")
	assert.Equal(t, "Polished pitch", got)

	require.Len(t, llm.prompts, 1)
	assert.Equal(t, pitchPrompt+pitchDraft("Cost/price concerns", "text"), llm.prompts[0])
}

func TestCreatePitch_ServiceFailure(t *testing.T) {
	a := NewAgents(remote(replyError(errors.New("rate limited"))), zap.NewNop())

	got := a.CreatePitch(context.Background(), model.FromHints(nil), "text")
	assert.Equal(t, pitchDraft(defaultPitchHint, "text")+"\n\n(polite rewrite failed: rate limited)", got)
}
