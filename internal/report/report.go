// Package report 负责把解析结果落成对外工件：out/match_links.csv。
//
// CSV 是本工具对下游的唯一承诺面：列集合与列序固定，行序与输入顺序一致。
// 写盘走 fsx 原子替换，下游任何时刻读到的都是完整文件。
package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/John-Robertt/matchlink/internal/domain"
	"github.com/John-Robertt/matchlink/internal/infra/fsx"
)

// FileName 是结果 CSV 的固定文件名。
const FileName = "match_links.csv"

var csvHeader = []string{"bucket", "idx", "match", "league", "link", "status"}

// Sink 按到达顺序收集条目并维护 run 元数据；Finish 产出最终 RunReport。
// 单 goroutine 使用，不做并发防护。
type Sink struct {
	report domain.RunReport
}

func NewSink(path string) *Sink {
	return &Sink{report: domain.RunReport{
		Path:      path,
		StartedAt: time.Now(),
		Items:     []domain.ItemResult{},
	}}
}

// Add 追加一条结果。调用顺序即输出顺序。
func (s *Sink) Add(r domain.ResolutionResult) {
	s.report.Items = append(s.report.Items, domain.ItemFromResult(r))
}

// Items 返回当前累计的条目（供写 CSV）。
func (s *Sink) Items() []domain.ItemResult {
	return s.report.Items
}

// Finish 定稿：统一时区、计算 summary。
func (s *Sink) Finish() domain.RunReport {
	s.report.FinishedAt = time.Now()
	s.report.Finalize()
	return s.report
}

// WriteCSV 把条目写成 out/match_links.csv（原子替换）。
// 零条目时也写出只含表头的文件——“跑过但没输入”与“没跑过”要可区分。
//
// CSV 的契约是“每行对应一条通过校验的输入 descriptor”。run 级故障条目
// （bucket 为空的合成条目）只进 RunReport/stderr，不进 CSV。
func WriteCSV(outDir string, items []domain.ItemResult) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, it := range items {
		if it.Bucket == "" {
			continue
		}
		rec := []string{
			it.Bucket,
			strconv.Itoa(it.Index),
			it.Match,
			it.League,
			it.Link,
			it.Status,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return fsx.WriteFileAtomicReplace(outDir, FileName, buf.Bytes())
}
