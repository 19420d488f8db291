package service

import (
	"context"

	"deal-agents-go/internal/utils"
)

const (
	emailPrompt       = "Write a short professional follow-up email based on:\n\n"
	emailContextChars = 1000
	emailNoteChars    = 200
)

// CreateEmail 生成跟进邮件
func (a *Agents) CreateEmail(ctx context.Context, contextText string) string {
	snippet := utils.Snippet(contextText, emailContextChars)
	draft := "Hi,\n\nFollowing up on our conversation. Quick note: " + utils.Truncate(snippet, emailNoteChars) + "...\n\nRegards"

	if !a.gen.available() {
		return draft
	}

	out, err := a.gen.generate(ctx, StageEmailDraft, emailPrompt+snippet)
	if err != nil {
		recordFallback(a.logger, StageEmailDraft, err)
		return draft + failureSuffix(StageEmailDraft, err)
	}
	return out
}
