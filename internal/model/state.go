package model

// RunStatus SSE 状态
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusError     RunStatus = "error"
)

// RunState 完整运行状态 - SSE每次输出这个完整结构
type RunState struct {
	Status        RunStatus    `json:"status"`           // running | completed | error
	Overall       int          `json:"overall"`          // 整体进度 0-100
	CurrentAction string       `json:"current_action"`   // 当前在做什么
	Result        *AgentOutput `json:"result,omitempty"` // 完成后的结果
	Error         string       `json:"error,omitempty"`  // 全局错误
}

// NewRunState 创建初始状态
func NewRunState() *RunState {
	return &RunState{
		Status:        RunStatusRunning,
		CurrentAction: "Starting...",
	}
}
