package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"deal-agents-go/internal/fetcher"
	"deal-agents-go/internal/metrics"
	"deal-agents-go/internal/model"
)

// 生成阶段名，同时用于失败后缀 "(<stage> failed: ...)" 和指标标签
const (
	StageSummary       = "summary"
	StageNeedsAnalysis = "needs analysis"
	StagePoliteRewrite = "polite rewrite"
	StageEmailDraft    = "email draft"
)

// DefaultGenerationTimeout 单次生成调用超时
const DefaultGenerationTimeout = 30 * time.Second

var tracer = otel.Tracer("deal-agents-go/internal/service")

// ErrNoService 未配置生成服务
var ErrNoService = errors.New("generation service not configured")

// Generator 外部生成能力，只有 NoService 和 *RemoteService 两种实现
type Generator interface {
	available() bool
	generate(ctx context.Context, stage, prompt string) (string, error)
}

// NoService 未配置生成服务，所有 agent 只走本地模板
type NoService struct{}

func (NoService) available() bool { return false }

func (NoService) generate(context.Context, string, string) (string, error) {
	return "", ErrNoService
}

// ClientFactory 创建生成客户端，只会被调用一次
type ClientFactory func() (fetcher.LLMClient, error)

// RemoteService 已配置的生成服务
// 客户端在第一次调用时创建，并发首次调用也只创建一次
type RemoteService struct {
	newClient ClientFactory
	model     string
	timeout   time.Duration
	logger    *zap.Logger

	once    sync.Once
	client  fetcher.LLMClient
	initErr error
}

// NewRemoteService 创建生成服务，timeout<=0 时使用默认值
func NewRemoteService(newClient ClientFactory, modelID string, timeout time.Duration, logger *zap.Logger) *RemoteService {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteService{
		newClient: newClient,
		model:     modelID,
		timeout:   timeout,
		logger:    logger,
	}
}

func (s *RemoteService) available() bool { return true }

func (s *RemoteService) getClient() (fetcher.LLMClient, error) {
	s.once.Do(func() {
		s.client, s.initErr = s.newClient()
		if s.initErr != nil {
			s.logger.Error("failed to create generation client", zap.String("model", s.model), zap.Error(s.initErr))
		}
	})
	return s.client, s.initErr
}

// Generate 调用一次生成服务，失败返回 *model.ServiceError
func (s *RemoteService) Generate(ctx context.Context, stage, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "generate", trace.WithAttributes(
		attribute.String("agent.stage", stage),
		attribute.String("llm.model", s.model),
		attribute.Int("llm.prompt_length", len(prompt)),
	))
	defer span.End()

	start := time.Now()
	text, err := s.call(ctx, prompt)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GenerationDuration.WithLabelValues(stage, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", &model.ServiceError{Stage: stage, Err: err}
	}
	span.SetAttributes(attribute.Int("llm.output_length", len(text)))
	return text, nil
}

func (s *RemoteService) call(ctx context.Context, prompt string) (string, error) {
	client, err := s.getClient()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gen, err := client.Generate(ctx, s.model, prompt)
	if err != nil {
		return "", err
	}
	return gen.Output(), nil
}

func (s *RemoteService) generate(ctx context.Context, stage, prompt string) (string, error) {
	return s.Generate(ctx, stage, prompt)
}

// failureSuffix 生成失败时追加到本地结果后面的诊断信息
func failureSuffix(stage string, err error) string {
	return "\n\n(" + stage + " failed: " + err.Error() + ")"
}

// recordFallback 记录一次回退到本地模板
func recordFallback(logger *zap.Logger, stage string, err error) {
	metrics.FallbacksTotal.WithLabelValues(stage).Inc()
	logger.Warn("generation failed, using local template", zap.String("stage", stage), zap.Error(err))
}
