package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/matchlink/internal/app/run"
	"github.com/John-Robertt/matchlink/internal/browser"
	"github.com/John-Robertt/matchlink/internal/config"
	"github.com/John-Robertt/matchlink/internal/domain"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "install":
		if err := browser.InstallDriver(); err != nil {
			fmt.Fprintf(os.Stderr, "安装浏览器驱动失败：%v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:        ra.Path,
		Headless:    ra.Headless,
		HeadlessSet: ra.HeadlessSet,
		Debug:       ra.Debug,
		DebugSet:    ra.DebugSet,
		BaseURL:     ra.BaseURL,
		BaseURLSet:  ra.BaseURLSet,
	})
	if err != nil {
		emitReport(reportForConfigError(cwdAbs, err))
		return 1
	}

	session, err := browser.NewSession(eff.Headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动浏览器失败：%v（若驱动未安装，先执行 matchlink install）\n", err)
		return 1
	}
	defer func() { _ = session.Close() }()

	var snap browser.Snapshotter
	if eff.DebugCapture {
		snap = session
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, session, snap, obs)

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	// link-miss 是诚实的业务结论，不算失败；timeout/error 才让退出码非零。
	if rr.Summary.Timeout == 0 && rr.Summary.Error == 0 {
		return 0
	}
	return 1
}

type runArgs struct {
	Path string

	Headless    bool
	HeadlessSet bool

	Debug    bool
	DebugSet bool

	BaseURL    string
	BaseURLSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	parseBool := func(flag, v string) (bool, error) {
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", flag, v)
		}
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--headless":
			ra.Headless = true
			ra.HeadlessSet = true
		case strings.HasPrefix(a, "--headless="):
			v, err := parseBool("--headless", strings.TrimPrefix(a, "--headless="))
			if err != nil {
				return runArgs{}, err
			}
			ra.Headless = v
			ra.HeadlessSet = true
		case a == "--debug":
			ra.Debug = true
			ra.DebugSet = true
		case strings.HasPrefix(a, "--debug="):
			v, err := parseBool("--debug", strings.TrimPrefix(a, "--debug="))
			if err != nil {
				return runArgs{}, err
			}
			ra.Debug = v
			ra.DebugSet = true
		case a == "--base-url":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--base-url 需要一个值")
			}
			i++
			ra.BaseURL = args[i]
			ra.BaseURLSet = true
		case strings.HasPrefix(a, "--base-url="):
			ra.BaseURL = strings.TrimPrefix(a, "--base-url=")
			ra.BaseURLSet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Path != "" {
				return runArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ra.Path, a)
			}
			ra.Path = a
		}
	}

	if ra.BaseURLSet && strings.TrimSpace(ra.BaseURL) == "" {
		return runArgs{}, fmt.Errorf("--base-url 不能为空")
	}

	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  matchlink run [path] [--headless[=true|false]] [--debug[=true|false]] [--base-url URL]
  matchlink install

命令：
  run      读取 input/ 下的两个 bucket CSV，逐条解析赛事链接并写出 out/match_links.csv
  install  安装 Playwright 驱动与浏览器（首次使用前执行一次）

使用 "matchlink run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  matchlink run [path] [--headless[=true|false]] [--debug[=true|false]] [--base-url URL]

参数：
  path        工作目录（含 input/、matchlink.json；默认当前目录）
  --headless  无头模式（默认 true；--headless=false 可看到浏览器窗口）
  --debug     失败时落诊断快照到 out/debug/（默认 true）
  --base-url  目标站点 origin（默认 https://www.oddsportal.com）
  -h, --help  显示帮助

覆盖优先级：CLI > 环境变量（HEADLESS_MODE/DEBUG_CAPTURE/TARGET_SITE_BASE）> matchlink.json > 默认值。
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：resolved=%d link_miss=%d timeout=%d error=%d\n",
			rr.Summary.Resolved, rr.Summary.LinkMiss, rr.Summary.Timeout, rr.Summary.Error,
		)
		if rr.Summary.Timeout > 0 || rr.Summary.Error > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusTimeout && it.Status != domain.StatusError {
					continue
				}
				key := it.Match
				if key == "" {
					key = "<run>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.Status, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：resolved=%d link_miss=%d timeout=%d error=%d\n",
		rr.Summary.Resolved, rr.Summary.LinkMiss, rr.Summary.Timeout, rr.Summary.Error,
	)
}

func reportForConfigError(cwdAbs string, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Path:       cwdAbs,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:   domain.StatusError,
			ErrorMsg: err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	// 这两行用于降低“完成后不知道产物在哪”的摩擦，且不影响 stdout JSON 契约。
	if w == nil {
		return
	}
	fmt.Fprintf(w, "out: %s\n", filepath.Join(eff.Path, "out", "match_links.csv"))
	if eff.DebugCapture {
		fmt.Fprintf(w, "debug: %s\n", filepath.Join(eff.Path, "out", "debug"))
	}
}
