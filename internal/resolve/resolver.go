package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/John-Robertt/matchlink/internal/browser"
	"github.com/John-Robertt/matchlink/internal/config"
	"github.com/John-Robertt/matchlink/internal/domain"
	"github.com/John-Robertt/matchlink/internal/normalize"
)

// Resolver 驱动单条 descriptor 的状态机：
//
//	PENDING -> SEARCHING -> EXTRACTING -> VALIDATING -> {ok | link-miss | timeout | error}
//
// 终态分类规则（固定）：
// - 搜索导航超时 => timeout
// - 零候选 / 最高分低于录取门槛 => link-miss（诚实的未命中，绝不用猜测 URL 糊弄）
// - 校验导航超时或整页复查不过 => link-miss（搜索已成功，只是页面无法确认）
// - 其余任何自动化层故障（驱动异常、页面读取失败）=> error
//
// Resolver 独占一次解析尝试的生命周期；会话/页面是唯一共享可变资源，
// 按约定整个 run 串行使用，无需加锁。
type Resolver struct {
	eff  config.EffectiveConfig
	nav  browser.Navigator
	snap browser.Snapshotter

	debugDir string

	// now 可替换仅为测试固定诊断文件名时间戳。
	now func() time.Time
}

// New 构造 Resolver。snap 为 nil 表示关闭诊断采集。
func New(eff config.EffectiveConfig, nav browser.Navigator, snap browser.Snapshotter, debugDir string) *Resolver {
	return &Resolver{
		eff:      eff,
		nav:      nav,
		snap:     snap,
		debugDir: debugDir,
		now:      time.Now,
	}
}

// Resolve 把一条 descriptor 推进到终态。
// 任何故障（包括 panic）都在这里收口成终态结果，绝不中断批次。
func (r *Resolver) Resolve(ctx context.Context, d domain.MatchDescriptor) (res domain.ResolutionResult) {
	defer func() {
		if p := recover(); p != nil {
			res = r.terminal(d, domain.StatusError, "", fmt.Sprintf("panic：%v", p))
		}
	}()

	// SEARCHING：构造 query，打开搜索页。
	searchURL := SearchURL(r.eff.BaseURL, BuildQuery(d))
	page, err := r.nav.Navigate(ctx, searchURL, r.eff.NavTimeout)
	if err != nil {
		if browser.IsNavTimeout(err) {
			return r.terminal(d, domain.StatusTimeout, "", err.Error())
		}
		return r.terminal(d, domain.StatusError, "", fmt.Sprintf("搜索导航失败：%v", err))
	}
	r.nav.DismissOverlays()

	// EXTRACTING：取链接、筛候选、打分。
	links, err := page.Links()
	if err != nil {
		return r.terminal(d, domain.StatusError, "", fmt.Sprintf("提取链接失败：%v", err))
	}
	cands := ScoreCandidates(d, ExtractCandidates(r.eff.BaseURL, links, r.eff.Policy.MaxCandidates), r.eff.Policy)
	best, ok := BestCandidate(cands, r.eff.Policy.AcceptThreshold)
	if !ok {
		return r.terminal(d, domain.StatusLinkMiss, "", "")
	}

	// VALIDATING：只复查 top 候选；被拒后不拿低分候选顶替。
	confirmed, err := r.validate(ctx, d, best)
	if err != nil {
		if browser.IsNavTimeout(err) {
			return r.terminal(d, domain.StatusLinkMiss, "", "")
		}
		return r.terminal(d, domain.StatusError, "", fmt.Sprintf("校验失败：%v", err))
	}
	if !confirmed {
		return r.terminal(d, domain.StatusLinkMiss, "", "")
	}

	return domain.ResolutionResult{
		Descriptor:  d,
		ResolvedURL: best.URL,
		Status:      domain.StatusResolved,
	}
}

// validate 重新打开候选自己的页面，在整页可见文本上复查两队名子串。
// 搜索列表的锚文本常被截断或只含一边队名——这里是挡“列表页假阳性”的第二道闸。
func (r *Resolver) validate(ctx context.Context, d domain.MatchDescriptor, cand domain.Candidate) (bool, error) {
	page, err := r.nav.Navigate(ctx, cand.URL, r.eff.NavTimeout)
	if err != nil {
		return false, err
	}
	r.nav.DismissOverlays()

	text, err := page.FullText()
	if err != nil {
		return false, err
	}
	return containsBothTeams(normalize.Text(text), d.HomeTeam, d.AwayTeam), nil
}

// terminal 构造非 RESOLVED 终态结果，并（若开启）采集诊断快照。
func (r *Resolver) terminal(d domain.MatchDescriptor, status, resolvedURL, errMsg string) domain.ResolutionResult {
	return domain.ResolutionResult{
		Descriptor:    d,
		ResolvedURL:   resolvedURL,
		Status:        status,
		DiagnosticTag: r.capture(d, status),
		ErrorMsg:      errMsg,
	}
}

// capture 请求一次诊断采集，返回快照文件名主干；采集关闭或失败时返回空串。
// 命名把时间戳、失败标签、bucket、idx 编进文件名，保证每个快照可回溯到唯一结果行。
func (r *Resolver) capture(d domain.MatchDescriptor, status string) string {
	if r.snap == nil {
		return ""
	}

	tag := status
	if status == domain.StatusLinkMiss {
		tag = "search-miss"
	}
	name := fmt.Sprintf("%s_%s-%s-%d", r.now().Format("20060102_150405"), tag, d.Bucket, d.Index)

	if err := r.snap.Snapshot(
		filepath.Join(r.debugDir, name+".png"),
		filepath.Join(r.debugDir, name+".html"),
	); err != nil {
		// 采集失败不改变终态：诊断是旁路能力。
		return ""
	}
	return name
}
