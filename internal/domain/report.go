package domain

import (
	"encoding/json"
	"time"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	Path string `json:"path"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Resolved int `json:"resolved"`
	LinkMiss int `json:"link_miss"`
	Timeout  int `json:"timeout"`
	Error    int `json:"error"`
}

type ItemResult struct {
	Bucket string `json:"bucket"`
	Index  int    `json:"idx"`
	Match  string `json:"match"`
	League string `json:"league"`

	Link   string `json:"link"`
	Status string `json:"status"`

	DiagnosticTag string `json:"diagnostic_tag,omitempty"`
	ErrorMsg      string `json:"error_msg,omitempty"`
}

// ItemFromResult 把内部结果映射为对外条目。
// link 列保持不变量：非 ok 状态下必为空串。
func ItemFromResult(r ResolutionResult) ItemResult {
	return ItemResult{
		Bucket:        string(r.Descriptor.Bucket),
		Index:         r.Descriptor.Index,
		Match:         r.Descriptor.RawText,
		League:        r.Descriptor.LeagueRaw,
		Link:          r.ResolvedURL,
		Status:        r.Status,
		DiagnosticTag: r.DiagnosticTag,
		ErrorMsg:      r.ErrorMsg,
	}
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 items 计算得出
//
// 注意：items 不排序。输出顺序必须与输入顺序一致（bucket 优先、bucket 内按原始
// idx 顺序）——这是下游报表的正确性要求，不是实现副作用。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusResolved:
			s.Resolved++
		case StatusLinkMiss:
			s.LinkMiss++
		case StatusTimeout:
			s.Timeout++
		case StatusError:
			s.Error++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
