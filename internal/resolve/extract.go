package resolve

import (
	"net/url"
	"strings"

	"github.com/John-Robertt/matchlink/internal/browser"
	"github.com/John-Robertt/matchlink/internal/domain"
)

const (
	// sportSegment 是赛事详情页路径必含的运动版块段。
	sportSegment = "/football/"
	// searchPrefix / resultsSegment 是要排除的“非详情页”路径：
	// 搜索页本身，以及完赛列表/索引页。
	searchPrefix   = "/search/"
	resultsSegment = "/results/"
)

// ExtractCandidates 从搜索页的超链接中筛出可能的赛事详情页。
//
// 规则（必须与打分阶段的预期一致）：
// - 候选必须落在站点自己的 host 上：搜索页上的站外链接（广告、外部跳转）
//   即使路径形似 /football/... 也一律拒绝——输出的 URL 只允许指向目标站点
// - 路径含 /football/ 且 href 至少有 4 个 '/'（详情页的最低层级；排除版块首页）
// - 排除搜索页与完赛列表页
// - 以 '/' 开头的相对地址按站点 origin 解析为绝对 URL
// - 按解析后的绝对 URL 去重，保留首次出现；顺序即页面源码顺序
//   （打分同分时“先出现者胜”依赖这个顺序）
// - 截断到 max 个以约束打分成本
func ExtractCandidates(base string, links []browser.Link, max int) []domain.Candidate {
	if max < 1 {
		max = 1
	}
	bu, err := url.Parse(base)
	if err != nil || bu.Host == "" {
		return nil
	}

	seen := make(map[string]struct{}, len(links))
	out := make([]domain.Candidate, 0, max)
	for _, l := range links {
		if len(out) >= max {
			break
		}

		abs := resolveURL(base, l.Href)
		if abs == "" {
			continue
		}
		u, err := url.Parse(abs)
		if err != nil {
			continue
		}
		if !strings.EqualFold(u.Host, bu.Host) {
			continue
		}
		if !isCandidatePath(u.Path) {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}

		out = append(out, domain.Candidate{URL: abs, DisplayText: l.Text})
	}
	return out
}

func isCandidatePath(path string) bool {
	if !strings.Contains(path, sportSegment) {
		return false
	}
	if strings.HasPrefix(path, searchPrefix) || strings.Contains(path, resultsSegment) {
		return false
	}
	// 详情页形如 /football/<国家>/<联赛>/<赛事>/：层级太浅的是版块/列表页。
	return strings.Count(path, "/") >= 4
}

// resolveURL 把 href 变为绝对 URL；解析不了的返回空串（调用方按噪声跳过）。
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ru, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return bu.ResolveReference(ru).String()
}
