package domain

// Bucket 是输入侧的分类标签（两份输入文件各对应一个），随结果原样输出。
// 它只是分区标记，不参与任何解析/打分决策。
type Bucket string

const (
	BucketOver15   Bucket = "over15"
	BucketOver05FH Bucket = "over05_1h"
)

// MatchDescriptor 是一条通过输入校验后的待解析赛事。
//
// 约束：
// - 仅由 input 层创建；创建后不可变
// - HomeTeam/AwayTeam/League 为规范化文本（小写、去音调、仅字母数字与单空格）
// - HomeRaw/AwayRaw/LeagueRaw 保留原始写法：query 用原文，打分只用规范化文本
// - 合法 descriptor 的 HomeTeam/AwayTeam 必然非空（空值行在 input 层就被丢弃）
type MatchDescriptor struct {
	Bucket  Bucket
	Index   int
	RawText string

	HomeRaw   string
	AwayRaw   string
	LeagueRaw string

	HomeTeam string
	AwayTeam string
	League   string
}
