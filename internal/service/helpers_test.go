package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"deal-agents-go/internal/fetcher"
)

// fakeLLM 记录 prompt 并返回固定结果
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	models  []string
	reply   func(prompt string) (*fetcher.Generation, error)
}

func (f *fakeLLM) Generate(ctx context.Context, model, prompt string) (*fetcher.Generation, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, model)
	f.mu.Unlock()
	return f.reply(prompt)
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func replyText(text string) *fakeLLM {
	return &fakeLLM{reply: func(string) (*fetcher.Generation, error) {
		return &fetcher.Generation{Text: text}, nil
	}}
}

func replyError(err error) *fakeLLM {
	return &fakeLLM{reply: func(string) (*fetcher.Generation, error) {
		return nil, err
	}}
}

func remote(llm fetcher.LLMClient) *RemoteService {
	return NewRemoteService(func() (fetcher.LLMClient, error) { return llm, nil }, "test-model", 0, zap.NewNop())
}

// fakeFetcher 按 URL 返回 HTML
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	err   error
	urls  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.err != nil {
		return "", f.err
	}
	return f.pages[url], nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

// recordingProgress 记录进度
type recordingProgress struct {
	progress []int
	actions  []string
}

func (p *recordingProgress) SetAction(progress int, action string) error {
	p.progress = append(p.progress, progress)
	p.actions = append(p.actions, action)
	return nil
}
