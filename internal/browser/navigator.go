package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Link 是页面上一个超链接的原始形态（href 未解析、文本未规范化）。
type Link struct {
	Href string
	Text string
}

// Page 是一次导航得到的页面句柄。
// 句柄只在下一次 Navigate 之前有效（单页复用，见 Navigator 注释）。
type Page interface {
	// Links 返回页面上所有 <a href> 的 href 与可见文本，按源码顺序。
	Links() ([]Link, error)
	// FullText 返回 body 的完整可见文本（不是锚文本片段）。
	FullText() (string, error)
	// HTML 返回整页 markup（诊断快照用）。
	HTML() (string, error)
}

// Navigator 把“浏览器自动化”约束在一个最小能力接口内。
//
// 约束：
// - 核心流程只依赖该接口，不依赖具体驱动；测试用脚本化假实现替换
// - 整个 run 共享一个会话、一个页面、严格串行使用（目标站点的搜索/详情页
//   有状态且对频率敏感，串行复用能避免跨请求干扰）
// - 任何驱动故障都以 error 返回，不向上抛 panic
// - 每次 Navigate 都有显式超时上限：任何挂起点都不允许无界阻塞
type Navigator interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) (Page, error)
	// DismissOverlays 尽力关掉 cookie 横幅/隐私弹层；全部 best-effort，不报错。
	DismissOverlays()
	Close() error
}

// Snapshotter 由调试采集协作方实现：把当前页面的截屏与 markup 落盘。
// 与 Navigator 分开声明：核心流程里“采集诊断”是可选能力（DEBUG_CAPTURE 关闭时为 nil）。
type Snapshotter interface {
	Snapshot(pngPath, htmlPath string) error
}

// NavTimeoutError 表示一次导航在 deadline 内未完成。
//
// 上层据此做终态分类：搜索导航超时 => timeout；校验导航超时 => 按“页面无法确认”
// 降级为 link-miss（搜索本身已经成功过了）。
type NavTimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavTimeoutError) Error() string {
	return fmt.Sprintf("导航超时（%s 内未完成）：%s", e.Timeout, e.URL)
}

func (e *NavTimeoutError) Unwrap() error { return e.Err }

// IsNavTimeout 判断 err 是否为导航超时。
func IsNavTimeout(err error) bool {
	var e *NavTimeoutError
	return errors.As(err, &e)
}
