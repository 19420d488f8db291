package service

import (
	"go.uber.org/zap"
)

// Agents 三种生成行为：需求分析、pitch、跟进邮件
type Agents struct {
	gen    Generator
	logger *zap.Logger
}

// NewAgents 创建 agent 集合，gen 为 nil 时等同 NoService
func NewAgents(gen Generator, logger *zap.Logger) *Agents {
	if gen == nil {
		gen = NoService{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agents{gen: gen, logger: logger}
}
