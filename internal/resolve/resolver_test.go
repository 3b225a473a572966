package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/matchlink/internal/browser"
	"github.com/John-Robertt/matchlink/internal/config"
	"github.com/John-Robertt/matchlink/internal/domain"
)

// fakePage 是脚本化的 Page。
type fakePage struct {
	links      []browser.Link
	text       string
	linksErr   error
	linksPanic bool
}

func (p *fakePage) Links() ([]browser.Link, error) {
	if p.linksPanic {
		panic("驱动崩了")
	}
	return p.links, p.linksErr
}
func (p *fakePage) FullText() (string, error) { return p.text, nil }
func (p *fakePage) HTML() (string, error)     { return "<html></html>", nil }

// fakeNav 按 URL 返回脚本化的页面或错误，并记录访问顺序。
type fakeNav struct {
	pages   map[string]*fakePage
	navErr  map[string]error
	visited []string
}

func (n *fakeNav) Navigate(ctx context.Context, rawURL string, timeout time.Duration) (browser.Page, error) {
	n.visited = append(n.visited, rawURL)
	if err, ok := n.navErr[rawURL]; ok {
		return nil, err
	}
	if p, ok := n.pages[rawURL]; ok {
		return p, nil
	}
	return &fakePage{}, nil
}
func (n *fakeNav) DismissOverlays() {}
func (n *fakeNav) Close() error     { return nil }

type fakeSnap struct {
	pngs  []string
	fails bool
}

func (s *fakeSnap) Snapshot(pngPath, htmlPath string) error {
	if s.fails {
		return errors.New("截屏失败")
	}
	s.pngs = append(s.pngs, pngPath)
	return nil
}

const testBase = "https://www.oddsportal.com"

func testEff() config.EffectiveConfig {
	return config.EffectiveConfig{
		BaseURL:    testBase,
		NavTimeout: time.Minute,
		Policy:     config.DefaultPolicy(),
	}
}

func testDesc() domain.MatchDescriptor {
	d := desc("Tigres UANL", "Pachuca CF", "México Liga MX")
	d.Bucket = domain.BucketOver15
	d.Index = 3
	d.RawText = "Tigres UANL vs Pachuca CF"
	return d
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
}

func TestResolve_Resolved(t *testing.T) {
	d := testDesc()
	candURL := testBase + "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/"
	nav := &fakeNav{pages: map[string]*fakePage{
		SearchURL(testBase, BuildQuery(d)): {links: []browser.Link{
			{Href: "/football/mexico/liga-mx/cruz-azul-america-x9/", Text: "Cruz Azul - América"},
			{Href: "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/", Text: "Tigres UANL - Pachuca CF | México Liga MX"},
		}},
		candURL: {text: "Odds\nTigres UANL vs Pachuca CF\nMéxico Liga MX\n1X2"},
	}}
	snap := &fakeSnap{}

	res := New(testEff(), nav, snap, "out/debug").Resolve(context.Background(), d)

	if res.Status != domain.StatusResolved {
		t.Fatalf("状态 = %q, want %q (err=%q)", res.Status, domain.StatusResolved, res.ErrorMsg)
	}
	if res.ResolvedURL != candURL {
		t.Fatalf("解析 URL = %q, want %q", res.ResolvedURL, candURL)
	}
	if res.DiagnosticTag != "" {
		t.Fatalf("成功结果不应有诊断标签：%q", res.DiagnosticTag)
	}
	if len(snap.pngs) != 0 {
		t.Fatalf("成功路径不应采集诊断：%v", snap.pngs)
	}
	// 校验确实访问了候选自己的页面。
	if len(nav.visited) != 2 || nav.visited[1] != candURL {
		t.Fatalf("访问序列异常：%v", nav.visited)
	}
}

func TestResolve_NoAcceptedCandidate(t *testing.T) {
	d := testDesc()
	nav := &fakeNav{pages: map[string]*fakePage{
		SearchURL(testBase, BuildQuery(d)): {links: []browser.Link{
			{Href: "/football/mexico/liga-mx/cruz-azul-america-x9/", Text: "Cruz Azul - América"},
		}},
	}}
	snap := &fakeSnap{}
	r := New(testEff(), nav, snap, "out/debug")
	r.now = fixedNow

	res := r.Resolve(context.Background(), d)

	if res.Status != domain.StatusLinkMiss {
		t.Fatalf("状态 = %q, want %q", res.Status, domain.StatusLinkMiss)
	}
	if res.ResolvedURL != "" {
		t.Fatalf("未命中却有 URL：%q", res.ResolvedURL)
	}
	want := "20260825_103000_search-miss-over15-3"
	if res.DiagnosticTag != want {
		t.Fatalf("诊断标签 = %q, want %q", res.DiagnosticTag, want)
	}
	if len(snap.pngs) != 1 || !strings.HasSuffix(snap.pngs[0], want+".png") {
		t.Fatalf("诊断采集异常：%v", snap.pngs)
	}
}

func TestResolve_SearchTimeout(t *testing.T) {
	d := testDesc()
	searchURL := SearchURL(testBase, BuildQuery(d))
	nav := &fakeNav{navErr: map[string]error{
		searchURL: &browser.NavTimeoutError{URL: searchURL, Timeout: time.Minute},
	}}
	snap := &fakeSnap{}
	r := New(testEff(), nav, snap, "out/debug")
	r.now = fixedNow

	res := r.Resolve(context.Background(), d)

	if res.Status != domain.StatusTimeout {
		t.Fatalf("状态 = %q, want %q", res.Status, domain.StatusTimeout)
	}
	if res.ResolvedURL != "" {
		t.Fatalf("超时却有 URL：%q", res.ResolvedURL)
	}
	if res.DiagnosticTag != "20260825_103000_timeout-over15-3" {
		t.Fatalf("诊断标签 = %q", res.DiagnosticTag)
	}
}

func TestResolve_ValidationTimeoutIsLinkMiss(t *testing.T) {
	d := testDesc()
	candURL := testBase + "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/"
	nav := &fakeNav{
		pages: map[string]*fakePage{
			SearchURL(testBase, BuildQuery(d)): {links: []browser.Link{
				{Href: "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/", Text: "Tigres UANL - Pachuca CF"},
			}},
		},
		navErr: map[string]error{
			candURL: &browser.NavTimeoutError{URL: candURL, Timeout: time.Minute},
		},
	}

	res := New(testEff(), nav, nil, "out/debug").Resolve(context.Background(), d)
	if res.Status != domain.StatusLinkMiss {
		t.Fatalf("校验超时状态 = %q, want %q", res.Status, domain.StatusLinkMiss)
	}
}

func TestResolve_RejectedCandidateNoFallback(t *testing.T) {
	d := testDesc()
	candURL := testBase + "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/"
	nav := &fakeNav{pages: map[string]*fakePage{
		SearchURL(testBase, BuildQuery(d)): {links: []browser.Link{
			// 高分候选整页校验不过；低分候选不得顶替。
			{Href: "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/", Text: "Tigres UANL - Pachuca CF | México Liga MX"},
			{Href: "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-old777/", Text: "Tigres UANL - Pachuca CF"},
		}},
		candURL: {text: "页面迁移提示，无赛事内容"},
	}}

	res := New(testEff(), nav, nil, "out/debug").Resolve(context.Background(), d)
	if res.Status != domain.StatusLinkMiss {
		t.Fatalf("状态 = %q, want %q", res.Status, domain.StatusLinkMiss)
	}
	if res.ResolvedURL != "" {
		t.Fatalf("被拒候选后不应输出 URL：%q", res.ResolvedURL)
	}
	// 只复查了 top 候选，没有去碰第二名。
	if len(nav.visited) != 2 {
		t.Fatalf("访问序列异常：%v", nav.visited)
	}
}

func TestResolve_DriverFaultIsError(t *testing.T) {
	d := testDesc()
	nav := &fakeNav{pages: map[string]*fakePage{
		SearchURL(testBase, BuildQuery(d)): {linksErr: errors.New("页面已关闭")},
	}}

	res := New(testEff(), nav, nil, "out/debug").Resolve(context.Background(), d)
	if res.Status != domain.StatusError {
		t.Fatalf("状态 = %q, want %q", res.Status, domain.StatusError)
	}
	if res.ErrorMsg == "" {
		t.Fatalf("error 结果缺少错误信息")
	}
}

func TestResolve_PanicRecovered(t *testing.T) {
	d := testDesc()
	nav := &fakeNav{pages: map[string]*fakePage{
		SearchURL(testBase, BuildQuery(d)): {linksPanic: true},
	}}

	res := New(testEff(), nav, nil, "out/debug").Resolve(context.Background(), d)
	if res.Status != domain.StatusError {
		t.Fatalf("panic 后状态 = %q, want %q", res.Status, domain.StatusError)
	}
	if !strings.Contains(res.ErrorMsg, "panic") {
		t.Fatalf("错误信息未记录 panic：%q", res.ErrorMsg)
	}
}

func TestResolve_SnapshotFailureKeepsStatus(t *testing.T) {
	d := testDesc()
	nav := &fakeNav{pages: map[string]*fakePage{
		SearchURL(testBase, BuildQuery(d)): {},
	}}
	snap := &fakeSnap{fails: true}

	res := New(testEff(), nav, snap, "out/debug").Resolve(context.Background(), d)
	if res.Status != domain.StatusLinkMiss {
		t.Fatalf("状态 = %q, want %q", res.Status, domain.StatusLinkMiss)
	}
	if res.DiagnosticTag != "" {
		t.Fatalf("采集失败却有标签：%q", res.DiagnosticTag)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	d := testDesc()
	candURL := testBase + "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/"
	mkNav := func() *fakeNav {
		return &fakeNav{pages: map[string]*fakePage{
			SearchURL(testBase, BuildQuery(d)): {links: []browser.Link{
				{Href: "/football/mexico/liga-mx/tigres-uanl-pachuca-cf-abc123/", Text: "Tigres UANL - Pachuca CF"},
			}},
			candURL: {text: "Tigres UANL vs Pachuca CF | México Liga MX"},
		}}
	}

	a := New(testEff(), mkNav(), nil, "out/debug").Resolve(context.Background(), d)
	b := New(testEff(), mkNav(), nil, "out/debug").Resolve(context.Background(), d)
	if a.Status != b.Status || a.ResolvedURL != b.ResolvedURL {
		t.Fatalf("同输入结果不一致：%+v vs %+v", a, b)
	}
	// 约束：有 URL 当且仅当状态为 ok。
	if (a.ResolvedURL != "") != (a.Status == domain.StatusResolved) {
		t.Fatalf("URL 与状态不一致：%+v", a)
	}
}
