package domain

// 终态集合：每条 descriptor 必然且只会落在其中之一。
// 序列化值与输出 CSV 的 status 列一致。
const (
	// StatusResolved 表示候选通过整页校验，ResolvedURL 可信。
	StatusResolved = "ok"
	// StatusLinkMiss 表示搜索成功但没有候选过线，或 top 候选未通过整页校验。
	// 这是“诚实的未命中”：宁可空着，也不输出猜测的链接。
	StatusLinkMiss = "link-miss"
	// StatusTimeout 表示搜索导航在 deadline 内未完成。
	StatusTimeout = "timeout"
	// StatusError 表示自动化/导航层的意外故障（驱动异常、页面形态不可解析等）。
	StatusError = "error"
)

// ResolutionResult 是一条 descriptor 的最终解析结果。
//
// 不变量：ResolvedURL 非空 当且仅当 Status == StatusResolved。
// 由 orchestrator 一次性创建；创建后不可变。
type ResolutionResult struct {
	Descriptor  MatchDescriptor
	ResolvedURL string
	Status      string

	// DiagnosticTag 是诊断快照的文件名主干（不含扩展名）；
	// 仅在非 RESOLVED 终态且调试采集开启时非空。
	DiagnosticTag string

	// ErrorMsg 仅用于报告展示（终态为 timeout/error 时的可读说明）。
	ErrorMsg string
}
