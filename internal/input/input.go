package input

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/John-Robertt/matchlink/internal/domain"
	"github.com/John-Robertt/matchlink/internal/normalize"
)

// separator 是赛事文本的唯一合法分隔符。
// 分隔符本身大小写敏感（" VS " 不算），两侧内容大小写不敏感。
const separator = " vs "

// ReadBucket 读取一份 bucket 输入文件（列：idx, match, league）并做行级校验。
//
// 规则（硬约束）：
// - 文件不存在：返回空集（不是错误；该 bucket 当次没有任务）
// - 首行若是表头（第二列为 "match"）则跳过
// - 不合法的行静默丢弃：idx 不是正整数、缺少/多于一个 " vs " 分隔符、
//   任一侧修剪后为空、或是 "Filtro" 之类的标签噪声行
// - 丢弃发生在进入核心流程之前：不产生输出行，也不产生诊断
//
// 即使上游文件已经人工清洗过，这里也必须重新校验——
// 畸形 descriptor 绝不允许到达打分阶段。
func ReadBucket(path string, bucket domain.Bucket) ([]domain.MatchDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	out := make([]domain.MatchDescriptor, 0, 64)
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 单行解析失败按噪声处理，不让一行坏数据废掉整份文件。
			continue
		}
		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}
		d, ok := parseRow(bucket, rec)
		if !ok {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func isHeader(rec []string) bool {
	return len(rec) >= 2 && strings.EqualFold(strings.TrimSpace(rec[1]), "match")
}

// parseRow 把一行原始字段转为 descriptor；任何一项校验不过即整行拒绝。
func parseRow(bucket domain.Bucket, rec []string) (domain.MatchDescriptor, bool) {
	if len(rec) < 2 {
		return domain.MatchDescriptor{}, false
	}

	idx, err := strconv.Atoi(strings.TrimSpace(rec[0]))
	if err != nil || idx <= 0 {
		return domain.MatchDescriptor{}, false
	}

	match := strings.TrimSpace(rec[1])
	if match == "" || strings.HasPrefix(strings.ToLower(match), "filtro") {
		return domain.MatchDescriptor{}, false
	}

	// 要求恰好一个分隔符：零个或多个都说明这不是标准的 "Home vs Away" 形态。
	if strings.Count(match, separator) != 1 {
		return domain.MatchDescriptor{}, false
	}
	home, away, _ := strings.Cut(match, separator)
	home = strings.TrimSpace(home)
	away = strings.TrimSpace(away)
	if home == "" || away == "" {
		return domain.MatchDescriptor{}, false
	}

	league := ""
	if len(rec) >= 3 {
		league = strings.TrimSpace(rec[2])
	}

	homeNorm := normalize.Text(home)
	awayNorm := normalize.Text(away)
	if homeNorm == "" || awayNorm == "" {
		// 规范化后为空（纯符号/非拉丁噪声）：这样的队名无法参与子串判定。
		return domain.MatchDescriptor{}, false
	}

	return domain.MatchDescriptor{
		Bucket:    bucket,
		Index:     idx,
		RawText:   match,
		HomeRaw:   home,
		AwayRaw:   away,
		LeagueRaw: league,
		HomeTeam:  homeNorm,
		AwayTeam:  awayNorm,
		League:    normalize.Text(league),
	}, true
}
