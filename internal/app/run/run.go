package run

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/John-Robertt/matchlink/internal/browser"
	"github.com/John-Robertt/matchlink/internal/config"
	"github.com/John-Robertt/matchlink/internal/domain"
	"github.com/John-Robertt/matchlink/internal/infra/fsx"
	"github.com/John-Robertt/matchlink/internal/input"
	"github.com/John-Robertt/matchlink/internal/report"
	"github.com/John-Robertt/matchlink/internal/resolve"
)

// 固定的输入/输出布局（相对工作目录）。
const (
	InputDirName = "input"
	OutDirName   = "out"
	DebugDirName = "debug"
	FileOver15   = "Over15.csv"
	FileOver05FH = "Over05_1h.csv"
)

// Execute 执行一次 run，返回对外稳定的 RunReport。
// 该函数尽量把错误“降级”为 item 级失败（单条失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig, nav browser.Navigator, snap browser.Snapshotter) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nav, snap, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
//
// snap 为 nil 表示诊断采集关闭（由上层按 eff.DebugCapture 决定传不传）。
// 解析严格串行：一个浏览器 page 被所有 descriptor 复用，顺序即输入顺序。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, nav browser.Navigator, snap browser.Snapshotter, obs Observer) domain.RunReport {
	if obs != nil {
		obs.OnStart(eff)
	}
	sink := report.NewSink(eff.Path)

	outDir := filepath.Join(eff.Path, OutDirName)
	debugDir := filepath.Join(outDir, DebugDirName)
	if err := fsx.EnsureDir(outDir); err != nil {
		sink.Add(syntheticError(fmt.Sprintf("创建输出目录失败：%v", err)))
		return sink.Finish()
	}
	if snap != nil {
		if err := fsx.EnsureDir(debugDir); err != nil {
			// 诊断目录建不起来：降级为关闭采集，run 照常。
			sink.Add(syntheticError(fmt.Sprintf("创建诊断目录失败：%v", err)))
			snap = nil
		}
	}

	// 读取两个 bucket；bucket 读取失败降级为一条 error 结果，不中断另一个 bucket。
	readStarted := time.Now()
	var all []domain.MatchDescriptor
	buckets := []struct {
		file   string
		bucket domain.Bucket
	}{
		{FileOver15, domain.BucketOver15},
		{FileOver05FH, domain.BucketOver05FH},
	}
	counts := map[string]any{}
	for _, b := range buckets {
		ds, err := input.ReadBucket(filepath.Join(eff.Path, InputDirName, b.file), b.bucket)
		if err != nil {
			sink.Add(syntheticError(fmt.Sprintf("读取 %s 失败：%v", b.file, err)))
			counts[string(b.bucket)] = 0
			continue
		}
		all = append(all, ds...)
		counts[string(b.bucket)] = len(ds)
	}
	if obs != nil {
		obs.OnPhaseDone("read", counts, time.Since(readStarted))
	}

	resolver := resolve.New(eff, nav, snap, debugDir)
	total := len(all)
	for i, d := range all {
		oneStarted := time.Now()
		res := resolver.Resolve(ctx, d)
		sink.Add(res)
		if obs != nil {
			obs.OnItemDone(i+1, total, res, time.Since(oneStarted))
		}
	}

	writeStarted := time.Now()
	if err := report.WriteCSV(outDir, sink.Items()); err != nil {
		sink.Add(syntheticError(fmt.Sprintf("写入 %s 失败：%v", report.FileName, err)))
	}
	if obs != nil {
		obs.OnPhaseDone("write", map[string]any{"items": len(sink.Items())}, time.Since(writeStarted))
	}

	return sink.Finish()
}

// syntheticError 是没有对应 descriptor 的 run 级故障条目（目录/读取/落盘失败）。
func syntheticError(msg string) domain.ResolutionResult {
	return domain.ResolutionResult{
		Status:   domain.StatusError,
		ErrorMsg: msg,
	}
}
