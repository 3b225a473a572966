package domain

// Candidate 是搜索结果页上一个可能指向目标赛事详情页的链接。
// 只在一次解析过程中临时存在，不做任何持久化。
// 同一次提取产出的候选按解析后的绝对 URL 去重。
type Candidate struct {
	URL         string
	DisplayText string
	Score       int
}
