package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents 把带音调的拉丁字母转为基础形（México -> Mexico）。
// NFD 分解后去掉 Mn（组合记号），再 NFC 复原。
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text 把自由文本规范化为匹配用的标准形：
// 去音调 -> 小写 -> 非 [a-z0-9] 折叠为单个空格 -> 去首尾空白。
//
// 性质（打分逻辑依赖）：
// - 幂等：Text(Text(s)) == Text(s)
// - 输出只含小写字母、数字与单个空格
func Text(s string) string {
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Tokens 返回规范化后按空格切分的 token 序列。
func Tokens(s string) []string {
	return strings.Fields(Text(s))
}
