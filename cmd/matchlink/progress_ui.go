package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/matchlink/internal/app/run"
	"github.com/John-Robertt/matchlink/internal/config"
	"github.com/John-Robertt/matchlink/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是一个“简洁版”的交互终端进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：单次导航可能卡几十秒，长时间无条目完成时也定期输出一行，降低等待焦虑
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total   int
	done    int
	ok      int
	miss    int
	timeout int
	fail    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 8 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] matchlink run\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  base_url: %s\n", eff.BaseURL)
	fmt.Fprintf(p.w, "  headless: %s\n", onOff(eff.Headless))
	fmt.Fprintf(p.w, "  debug_capture: %s\n", onOff(eff.DebugCapture))
	fmt.Fprintf(p.w, "  nav_timeout: %s\n", eff.NavTimeout)

	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  csv: %s\n", filepath.Join(eff.Path, "out", "match_links.csv"))
	if eff.DebugCapture {
		fmt.Fprintf(p.w, "  debug: %s\n", filepath.Join(eff.Path, "out", "debug"))
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
	p.mu.Unlock()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "read":
		o15 := intField(fields, string(domain.BucketOver15))
		o05 := intField(fields, string(domain.BucketOver05FH))
		p.total = o15 + o05
		fmt.Fprintf(p.w, "读取: over15=%d over05_1h=%d (%s)\n\n", o15, o05, formatShortDuration(dur))
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case "write":
		fmt.Fprintf(p.w, "\n落盘: items=%d (%s)\n", intField(fields, "items"), formatShortDuration(dur))
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ResolutionResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// idx/total 由 run 层给出；这里同时维护自己的计数，供 keepalive 使用。
	p.done = idx
	p.total = total

	status := "FAIL"
	switch res.Status {
	case domain.StatusResolved:
		p.ok++
		status = "OK"
	case domain.StatusLinkMiss:
		p.miss++
		status = "MISS"
	case domain.StatusTimeout:
		p.timeout++
		status = "TIMEOUT"
	case domain.StatusError:
		p.fail++
	}

	d := res.Descriptor
	label := fmt.Sprintf("%s#%d %s", d.Bucket, d.Index, truncate(d.RawText, 60))

	switch res.Status {
	case domain.StatusResolved:
		fmt.Fprintf(p.w, "[%d/%d] %s %s -> %s (%s)\n",
			idx, total, status, label, truncate(res.ResolvedURL, 100), formatShortDuration(dur),
		)
	case domain.StatusLinkMiss:
		note := ""
		if res.DiagnosticTag != "" {
			note = " debug=" + res.DiagnosticTag
		}
		fmt.Fprintf(p.w, "[%d/%d] %s %s%s (%s)\n",
			idx, total, status, label, note, formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s %s: %s (%s)\n",
			idx, total, status, label, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 8 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				// 已完成：安全退出（OnItemDone 会 close stopCh，但这里也做兜底）。
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}

				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					elapsed := time.Since(p.startedAt)
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d miss=%d timeout=%d fail=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.miss, p.timeout, p.fail, formatElapsed(elapsed),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// truncate 按 rune 截断：descriptor 原文常含多字节字符（México 等），
// 按字节切会产出非法 UTF-8。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	default:
		return 0
	}
}
