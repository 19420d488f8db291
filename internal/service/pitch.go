package service

import (
	"context"
	"fmt"
	"strings"

	"deal-agents-go/internal/model"
	"deal-agents-go/internal/utils"
)

const (
	pitchPrompt       = "Rewrite the following sales pitch to be succinct and persuasive in 3 short paragraphs:\n\n"
	defaultPitchHint  = "improve conversions"
	pitchSnippetChars = 800
)

const pitchTemplate = `Hi there,

We reviewed your site and noticed: %s.
Quick summary: %s...

Our proposal: a tailored quick win that addresses %s and improves outcomes within 30 days.
Would you be open to a 15-minute call to discuss a custom plan?

Best,
Deal-Closing Team`

// CreatePitch 用第一个提示生成 pitch，生成服务可用时润色
func (a *Agents) CreatePitch(ctx context.Context, src model.HintSource, researchText string) string {
	hint := defaultPitchHint
	if hints := src.List(); len(hints) > 0 {
		hint = hints[0]
	}

	template := pitchDraft(hint, researchText)
	if !a.gen.available() {
		return template
	}

	out, err := a.gen.generate(ctx, StagePoliteRewrite, pitchPrompt+template)
	if err != nil {
		recordFallback(a.logger, StagePoliteRewrite, err)
		return template + failureSuffix(StagePoliteRewrite, err)
	}
	return out
}

func pitchDraft(hint, researchText string) string {
	snippet := utils.Snippet(researchText, pitchSnippetChars)
	return fmt.Sprintf(pitchTemplate, hint, snippet, strings.ToLower(hint))
}
