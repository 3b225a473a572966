package browser

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	pw "github.com/playwright-community/playwright-go"

	"github.com/John-Robertt/matchlink/internal/infra/fsx"
)

// Session 是基于 Playwright/Chromium 的 Navigator 实现。
// 一个 Session 持有一个浏览器实例与一个复用的 page/tab。
type Session struct {
	pw      *pw.Playwright
	browser pw.Browser
	page    pw.Page
}

var (
	_ Navigator   = (*Session)(nil)
	_ Snapshotter = (*Session)(nil)
)

// InstallDriver 安装 Playwright 驱动与浏览器（一次性准备步骤，由 CLI 子命令触发）。
func InstallDriver() error {
	return pw.Install(&pw.RunOptions{Verbose: true})
}

// NewSession 启动浏览器并打开复用页面。
// 调用方负责 Close；Session 不是并发安全的（按约定整个 run 串行使用）。
func NewSession(headless bool) (*Session, error) {
	inst, err := pw.Run()
	if err != nil {
		return nil, err
	}

	b, err := inst.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(headless),
	})
	if err != nil {
		_ = inst.Stop()
		return nil, err
	}

	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		_ = inst.Stop()
		return nil, err
	}
	// 固定视口：站点的响应式布局会按宽度裁剪搜索结果列表。
	if err := page.SetViewportSize(1400, 900); err != nil {
		_ = b.Close()
		_ = inst.Stop()
		return nil, err
	}

	return &Session{pw: inst, browser: b, page: page}, nil
}

// Navigate 打开 rawURL 并等待 DOMContentLoaded，整体受 timeout 约束。
// 超时被归一化为 *NavTimeoutError，供上层做终态分类。
func (s *Session) Navigate(ctx context.Context, rawURL string, timeout time.Duration) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, err := s.page.Goto(rawURL, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
		Timeout:   pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, pw.ErrTimeout) {
			return nil, &NavTimeoutError{URL: rawURL, Timeout: timeout, Err: err}
		}
		return nil, err
	}

	// 短暂等待：DOMContentLoaded 后搜索结果往往还在就地渲染。
	s.page.WaitForTimeout(700)
	return &livePage{page: s.page}, nil
}

// DismissOverlays 依次尝试：cookie 同意按钮、Escape、关闭按钮。
// 选择器集合来自对目标站点弹层的长期观察；全部 best-effort。
func (s *Session) DismissOverlays() {
	accepts := []string{
		"button:has-text('I Accept')",
		"button:has-text('Accept All')",
		"button:has-text('Accept')",
	}
	for _, sel := range accepts {
		if s.clickIfVisible(sel, 800) {
			s.page.WaitForTimeout(300)
			break
		}
	}

	// 有时是盖住整页的隐私 modal：先试 Escape，再试各种关闭按钮。
	if kb := s.page.Keyboard(); kb != nil {
		_ = kb.Press("Escape")
	}
	closes := []string{
		"button[aria-label='Close']",
		"text=Close",
		"text=Reject All",
	}
	for _, sel := range closes {
		if s.clickIfVisible(sel, 600) {
			s.page.WaitForTimeout(250)
			break
		}
	}
}

func (s *Session) clickIfVisible(sel string, timeoutMS float64) bool {
	loc := s.page.Locator(sel).First()
	visible, err := loc.IsVisible()
	if err != nil || !visible {
		return false
	}
	if err := loc.Click(pw.LocatorClickOptions{Timeout: pw.Float(timeoutMS)}); err != nil {
		return false
	}
	return true
}

// Snapshot 把当前页面的整页截屏与 markup 写到指定路径。
// 截屏由驱动直接落盘；markup 走 fsx 原子写。
func (s *Session) Snapshot(pngPath, htmlPath string) error {
	if _, err := s.page.Screenshot(pw.PageScreenshotOptions{
		Path:     pw.String(pngPath),
		FullPage: pw.Bool(true),
	}); err != nil {
		return err
	}
	html, err := s.page.Content()
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Dir(htmlPath), filepath.Base(htmlPath), []byte(html))
}

func (s *Session) Close() error {
	var first error
	if err := s.browser.Close(); err != nil && first == nil {
		first = err
	}
	if err := s.pw.Stop(); err != nil && first == nil {
		first = err
	}
	return first
}

// livePage 把当前复用页面的读取能力收敛为 Page。
type livePage struct {
	page pw.Page
}

func (p *livePage) Links() ([]Link, error) {
	// 一次性取整页 markup 再解析，避免对每个 <a> 做驱动往返。
	html, err := p.page.Content()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var out []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		out = append(out, Link{
			Href: strings.TrimSpace(href),
			Text: strings.Join(strings.Fields(sel.Text()), " "),
		})
	})
	return out, nil
}

func (p *livePage) FullText() (string, error) {
	return p.page.InnerText("body", pw.PageInnerTextOptions{Timeout: pw.Float(3000)})
}

func (p *livePage) HTML() (string, error) {
	return p.page.Content()
}
