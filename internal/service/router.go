package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"deal-agents-go/internal/metrics"
	"deal-agents-go/internal/model"
)

// MissingInputMessage 请求没有任何可用字段
const MissingInputMessage = "Provide at least one of: task, url, or lead_text"

// Progress 路由进度回调（SSE）
type Progress interface {
	SetAction(progress int, action string) error
}

type nopProgress struct{}

func (nopProgress) SetAction(int, string) error { return nil }

// routeRule 关键词命中时交给对应 agent
type routeRule struct {
	keywords []string
	agent    model.AgentTag
	run      func(ctx context.Context, a *Agents, text string) *model.AgentOutput
}

// routeRules 按顺序匹配，第一个命中的生效；都不命中走 research+pitch
var routeRules = []routeRule{
	{
		keywords: []string{"pitch", "proposal"},
		agent:    model.AgentPitch,
		run: func(ctx context.Context, a *Agents, text string) *model.AgentOutput {
			return &model.AgentOutput{Output: a.CreatePitch(ctx, model.FromHints(nil), text)}
		},
	},
	{
		keywords: []string{"email", "follow"},
		agent:    model.AgentEmail,
		run: func(ctx context.Context, a *Agents, text string) *model.AgentOutput {
			return &model.AgentOutput{Output: a.CreateEmail(ctx, text)}
		},
	},
}

func researchAndPitch(ctx context.Context, a *Agents, text string) *model.AgentOutput {
	analysis := a.AnalyzeNeeds(ctx, text)
	return &model.AgentOutput{
		Output:   a.CreatePitch(ctx, model.FromHints(analysis.TopHints), text),
		Analysis: &analysis,
	}
}

// Router 解析输入并分发到 agent
type Router struct {
	acquirer *Acquirer
	agents   *Agents
	logger   *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(acquirer *Acquirer, agents *Agents, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		acquirer: acquirer,
		agents:   agents,
		logger:   logger,
	}
}

// Route 处理一次请求，只会返回 *model.ValidationError
func (r *Router) Route(ctx context.Context, req model.Request) (*model.AgentOutput, error) {
	return r.RouteWithProgress(ctx, req, nil)
}

// RouteWithProgress 和 Route 相同，每一步通过 p 报告进度
func (r *Router) RouteWithProgress(ctx context.Context, req model.Request, p Progress) (*model.AgentOutput, error) {
	if p == nil {
		p = nopProgress{}
	}

	ctx, span := tracer.Start(ctx, "route")
	defer span.End()

	p.SetAction(10, "Resolving input...")
	var text string
	if !req.Empty() {
		text = r.resolve(ctx, req)
	}
	// 摘要服务返回空文本时同样拒绝
	if text == "" {
		metrics.ValidationFailuresTotal.Inc()
		span.SetStatus(codes.Error, MissingInputMessage)
		return nil, &model.ValidationError{Message: MissingInputMessage}
	}

	p.SetAction(40, "Routing request...")
	low := strings.ToLower(req.Task) + " " + strings.ToLower(text)

	agent := model.AgentResearchPitch
	run := researchAndPitch
	for _, rule := range routeRules {
		if containsAny(low, rule.keywords) {
			agent = rule.agent
			run = rule.run
			break
		}
	}
	span.SetAttributes(attribute.String("agent", string(agent)))

	p.SetAction(60, "Running "+string(agent)+"...")
	out := run(ctx, r.agents, text)
	out.Agent = agent

	metrics.RequestsTotal.WithLabelValues(string(agent)).Inc()
	r.logger.Info("request routed",
		zap.String("agent", string(agent)),
		zap.Int("text_length", len(text)),
		zap.Int("output_length", len(out.Output)),
	)
	return out, nil
}

// resolve 取输入文本：lead_text > url 抓取摘要 > task
func (r *Router) resolve(ctx context.Context, req model.Request) string {
	switch {
	case req.LeadText != "":
		return req.LeadText
	case req.URL != "":
		return r.acquirer.FetchAndSummarize(ctx, req.URL)
	default:
		return req.Task
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
