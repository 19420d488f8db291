package model

// Request 路由请求 - 至少一个字段非空
type Request struct {
	Task     string `json:"task,omitempty"`
	URL      string `json:"url,omitempty"`
	LeadText string `json:"lead_text,omitempty"`
}

// Empty 三个字段都为空
func (r Request) Empty() bool {
	return r.Task == "" && r.URL == "" && r.LeadText == ""
}

// AgentTag 处理请求的agent标识
type AgentTag string

const (
	AgentPitch         AgentTag = "pitch_agent"
	AgentEmail         AgentTag = "email_agent"
	AgentResearchPitch AgentTag = "research+pitch"
)

// AnalysisResult 需求分析结果
type AnalysisResult struct {
	TopHints   []string `json:"top_hints"`  // 痛点提示，关键词命中在前
	Confidence float64  `json:"confidence"` // 0.2 ~ 0.9，只由关键词命中数决定
}

// AgentOutput 路由结果
type AgentOutput struct {
	Agent    AgentTag        `json:"agent"`
	Output   string          `json:"output"`
	Analysis *AnalysisResult `json:"analysis,omitempty"`
}

// HintKind HintSource 的判别字段
type HintKind int

const (
	HintsFromList HintKind = iota
	HintsFromAnalysis
)

// HintSource pitch 的提示来源：分析结果或提示列表
type HintSource struct {
	Kind     HintKind
	Analysis AnalysisResult
	Hints    []string
}

// FromAnalysis 使用分析结果作为提示来源
func FromAnalysis(a AnalysisResult) HintSource {
	return HintSource{Kind: HintsFromAnalysis, Analysis: a}
}

// FromHints 使用提示列表作为提示来源（nil 表示没有提示）
func FromHints(hints []string) HintSource {
	return HintSource{Kind: HintsFromList, Hints: hints}
}

// List 按判别字段取出提示列表
func (h HintSource) List() []string {
	switch h.Kind {
	case HintsFromAnalysis:
		return h.Analysis.TopHints
	default:
		return h.Hints
	}
}
