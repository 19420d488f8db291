package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"deal-agents-go/internal/model"
)

// HeartbeatInterval 心跳间隔
const HeartbeatInterval = 15 * time.Second

// Writer SSE写入器，每次发送完整的 RunState
type Writer struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	mu        sync.Mutex
	state     *model.RunState
	stopHeart chan struct{}
	heartDone chan struct{}
	stopOnce  sync.Once
	stopped   bool
}

// NewWriter 创建写入器并启动心跳
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	return newWriter(w, HeartbeatInterval)
}

func newWriter(w http.ResponseWriter, interval time.Duration) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writer := &Writer{
		w:         w,
		flusher:   flusher,
		state:     model.NewRunState(),
		stopHeart: make(chan struct{}),
		heartDone: make(chan struct{}),
	}

	go writer.heartbeat(interval)

	return writer, nil
}

// heartbeat 定期发送心跳保持连接
func (s *Writer) heartbeat(interval time.Duration) {
	defer close(s.heartDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			// ticker 和 stop 同时就绪时 select 随机选择
			if s.stopped {
				s.mu.Unlock()
				return
			}
			data, _ := json.Marshal(map[string]interface{}{
				"status":         "heartbeat",
				"overall":        s.state.Overall,
				"current_action": s.state.CurrentAction,
			})
			fmt.Fprintf(s.w, "data: %s\n\n", data)
			s.flusher.Flush()
			s.mu.Unlock()
		case <-s.stopHeart:
			return
		}
	}
}

// StopHeartbeat 停止心跳并等待心跳协程退出，可重复调用
// 返回后不会再写 ResponseWriter
func (s *Writer) StopHeartbeat() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stopHeart)
	})
	<-s.heartDone
}

func (s *Writer) send() error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// SetAction 更新当前动作和进度并发送，进度只增不减
func (s *Writer) SetAction(progress int, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress > s.state.Overall {
		s.state.Overall = progress
	}
	s.state.CurrentAction = action
	return s.send()
}

// SendGlobalError 发送错误并结束
func (s *Writer) SendGlobalError(errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Status = model.RunStatusError
	s.state.CurrentAction = "Run failed"
	s.state.Error = errMsg
	return s.send()
}

// Done 发送最终结果
func (s *Writer) Done(result *model.AgentOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Status = model.RunStatusCompleted
	s.state.Overall = 100
	s.state.CurrentAction = "Run completed"
	s.state.Result = result
	return s.send()
}
