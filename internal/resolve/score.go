package resolve

import (
	"strings"

	"github.com/John-Robertt/matchlink/internal/config"
	"github.com/John-Robertt/matchlink/internal/domain"
	"github.com/John-Robertt/matchlink/internal/normalize"
)

// ScoreCandidates 按统一口径给候选打分（就地写入 Score 并返回同一切片）。
//
// 算法：
// 1. 候选展示文本用与 descriptor 相同的规范化函数处理
// 2. 硬门槛：规范化后的 home 与 away 必须同时作为连续子串出现，否则 0 分。
//    这一步先挡掉主要失败模式（列表页上不相关的赛事），之后才谈权重
// 3. 过线得基础分（= AcceptThreshold）
// 4. league 加成：league 的规范化 token 中长度 ≥ LeagueTokenMinLen 的，每命中
//    一个加 LeagueTokenWeight，封顶 LeagueBonusCap。加成只用来在“同两队名”
//    的多个场次（跨杯赛/赛季的重赛）之间消歧，不用来救弱队名匹配
func ScoreCandidates(d domain.MatchDescriptor, cands []domain.Candidate, p config.Policy) []domain.Candidate {
	for i := range cands {
		cands[i].Score = scoreOne(d, cands[i].DisplayText, p)
	}
	return cands
}

func scoreOne(d domain.MatchDescriptor, displayText string, p config.Policy) int {
	text := normalize.Text(displayText)
	if !containsBothTeams(text, d.HomeTeam, d.AwayTeam) {
		return 0
	}

	bonus := 0
	for _, tok := range normalize.Tokens(d.League) {
		if len(tok) < p.LeagueTokenMinLen {
			continue
		}
		if strings.Contains(text, tok) {
			bonus += p.LeagueTokenWeight
		}
	}
	if bonus > p.LeagueBonusCap {
		bonus = p.LeagueBonusCap
	}
	return p.AcceptThreshold + bonus
}

// containsBothTeams 是贯穿打分与整页校验的同一道闸：
// 两个队名都要以连续子串形式出现（不是 token 集合相等）。
// 空队名直接判负——畸形 descriptor 即使漏到这里也绝不能过闸。
func containsBothTeams(text, home, away string) bool {
	if home == "" || away == "" {
		return false
	}
	return strings.Contains(text, home) && strings.Contains(text, away)
}

// BestCandidate 返回过线（Score >= threshold）的最高分候选。
// 同分取先出现者——提取顺序即页面源码顺序，这保证了结果可复现。
func BestCandidate(cands []domain.Candidate, threshold int) (domain.Candidate, bool) {
	best := domain.Candidate{Score: -1}
	for _, c := range cands {
		if c.Score > best.Score {
			best = c
		}
	}
	if best.Score < threshold {
		return domain.Candidate{}, false
	}
	return best, true
}
