package resolve

import (
	"net/url"
	"strings"

	"github.com/John-Robertt/matchlink/internal/domain"
)

// BuildQuery 由 descriptor 构造搜索 query：原始大小写的 home + " " + away。
// 不拼 league 文本——query 只用队名换取更高的搜索召回，league 只参与后续打分。
func BuildQuery(d domain.MatchDescriptor) string {
	return strings.TrimSpace(d.HomeRaw + " " + d.AwayRaw)
}

// SearchURL 拼出站点搜索地址：<base>/search/?q=<query>，词间以 '+' 连接。
func SearchURL(base, query string) string {
	fields := strings.Fields(query)
	escaped := make([]string, 0, len(fields))
	for _, f := range fields {
		escaped = append(escaped, url.QueryEscape(f))
	}
	return strings.TrimRight(base, "/") + "/search/?q=" + strings.Join(escaped, "+")
}
