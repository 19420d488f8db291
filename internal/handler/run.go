package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"deal-agents-go/internal/model"
	"deal-agents-go/internal/service"
	"deal-agents-go/internal/sse"
)

// AgentRouter 路由到 agent 的能力
type AgentRouter interface {
	Route(ctx context.Context, req model.Request) (*model.AgentOutput, error)
	RouteWithProgress(ctx context.Context, req model.Request, p service.Progress) (*model.AgentOutput, error)
}

// RunHandler 路由请求HTTP处理器
type RunHandler struct {
	router AgentRouter
	logger *zap.Logger
}

// NewRunHandler 创建处理器
func NewRunHandler(router AgentRouter, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{router: router, logger: logger}
}

// Run 处理路由请求
// POST /run
// Body: {"task": "...", "url": "...", "lead_text": "..."}
func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.router.Route(r.Context(), req)
	if err != nil {
		h.writeRouteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// RunSSE 处理路由请求并以SSE推送进度
// POST /run/sse
func (h *RunHandler) RunSSE(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	defer writer.StopHeartbeat()

	logger := h.logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))
	logger.Info("starting SSE run")

	out, err := h.router.RouteWithProgress(r.Context(), req, writer)
	if err != nil {
		logger.Info("SSE run rejected", zap.Error(err))
		if err := writer.SendGlobalError(err.Error()); err != nil {
			logger.Warn("failed to send SSE error", zap.Error(err))
		}
		return
	}

	if err := writer.Done(out); err != nil {
		logger.Warn("failed to send SSE result", zap.Error(err))
	}
	logger.Info("SSE run completed", zap.String("agent", string(out.Agent)))
}

func (h *RunHandler) writeRouteError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		writeDetail(w, http.StatusBadRequest, vErr.Message)
		return
	}

	h.logger.Error("route failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeDetail(w, http.StatusInternalServerError, "internal error")
}

// Health 健康检查
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
