package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultBaseURL 是目标站点 origin 的最终默认值。
	DefaultBaseURL = "https://www.oddsportal.com"
	// DefaultNavTimeoutMS 是单次导航的默认超时（毫秒）。
	DefaultNavTimeoutMS = 60000
)

// 环境变量表（对外约定的识别项）。
const (
	EnvHeadless = "HEADLESS_MODE"
	EnvDebug    = "DEBUG_CAPTURE"
	EnvBaseURL  = "TARGET_SITE_BASE"
)

// Policy 是解析核心的策略常数。
//
// 这些数值（过线分 100、league token 最短长度 4 等）来自经验观察，
// 不是推导出的真理；因此全部走配置，便于离线验证与调参。
type Policy struct {
	// AcceptThreshold 同时是“双方队名都出现”的基础分与录取门槛。
	AcceptThreshold int
	// LeagueTokenMinLen 之下的 league token（国家缩写之类）噪声太大，不参与加成。
	LeagueTokenMinLen int
	// LeagueTokenWeight 是每个命中 token 的加成分。
	LeagueTokenWeight int
	// LeagueBonusCap 是 league 加成的上限。
	LeagueBonusCap int
	// MaxCandidates 限制单次提取进入打分的候选数（约束打分成本）。
	MaxCandidates int
}

// DefaultPolicy 的数值与观察到的原始行为一致。
func DefaultPolicy() Policy {
	return Policy{
		AcceptThreshold:   100,
		LeagueTokenMinLen: 4,
		LeagueTokenWeight: 6,
		LeagueBonusCap:    30,
		MaxCandidates:     30,
	}
}

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --headless=false 必须能覆盖 HEADLESS_MODE=true。
type CLIArgs struct {
	Path string

	Headless    bool
	HeadlessSet bool

	Debug    bool
	DebugSet bool

	BaseURL    string
	BaseURLSet bool
}

// FileConfig 对应 matchlink.json 的解析结构。
type FileConfig struct {
	Headless     *bool         `json:"headless"`
	DebugCapture *bool         `json:"debug_capture"`
	BaseURL      string        `json:"base_url"`
	NavTimeoutMS int           `json:"nav_timeout_ms"`
	Policy       *PolicyConfig `json:"policy"`
}

type PolicyConfig struct {
	AcceptThreshold   *int `json:"accept_threshold"`
	LeagueTokenMinLen *int `json:"league_token_min_len"`
	LeagueTokenWeight *int `json:"league_token_weight"`
	LeagueBonusCap    *int `json:"league_bonus_cap"`
	MaxCandidates     *int `json:"max_candidates"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	Headless     bool
	DebugCapture bool
	BaseURL      string

	NavTimeout time.Duration
	Policy     Policy
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <path>/matchlink.json（可选），与环境变量、CLI 参数合并。
//
// 覆盖优先级（固定）：
// - headless：CLI --headless > HEADLESS_MODE > config > 默认 true
// - debug：CLI --debug > DEBUG_CAPTURE > config > 默认 true
// - base_url：CLI --base-url > TARGET_SITE_BASE > config > 默认 DefaultBaseURL
// - nav_timeout_ms / policy：仅由 config 控制（CLI/环境不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	root := strings.TrimSpace(cli.Path)
	if root == "" {
		root = cwd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: root, Err: err}
	}

	cfgPath := filepath.Join(absRoot, "matchlink.json")
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// headless：CLI > env > config > 默认
	headless := true
	if fc.Headless != nil {
		headless = *fc.Headless
	}
	headless = envBool(EnvHeadless, headless)
	if cli.HeadlessSet {
		headless = cli.Headless
	}

	// debug_capture：CLI > env > config > 默认
	debug := true
	if fc.DebugCapture != nil {
		debug = *fc.DebugCapture
	}
	debug = envBool(EnvDebug, debug)
	if cli.DebugSet {
		debug = cli.Debug
	}

	// base_url：CLI > env > config > 默认
	base := strings.TrimSpace(fc.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	base = envString(EnvBaseURL, base)
	if cli.BaseURLSet {
		base = strings.TrimSpace(cli.BaseURL)
	}
	if err := validateBaseURL(base); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	base = strings.TrimRight(base, "/")

	navMS := fc.NavTimeoutMS
	if navMS == 0 {
		navMS = DefaultNavTimeoutMS
	}
	// 范围约定：[1s, 5min]；超出截断。导航不允许无界阻塞。
	if navMS < 1000 {
		navMS = 1000
	}
	if navMS > 300000 {
		navMS = 300000
	}

	return EffectiveConfig{
		Path:         absRoot,
		Headless:     headless,
		DebugCapture: debug,
		BaseURL:      base,
		NavTimeout:   time.Duration(navMS) * time.Millisecond,
		Policy:       mergePolicy(fc.Policy),
	}, nil
}

func mergePolicy(pc *PolicyConfig) Policy {
	p := DefaultPolicy()
	if pc != nil {
		if pc.AcceptThreshold != nil {
			p.AcceptThreshold = *pc.AcceptThreshold
		}
		if pc.LeagueTokenMinLen != nil {
			p.LeagueTokenMinLen = *pc.LeagueTokenMinLen
		}
		if pc.LeagueTokenWeight != nil {
			p.LeagueTokenWeight = *pc.LeagueTokenWeight
		}
		if pc.LeagueBonusCap != nil {
			p.LeagueBonusCap = *pc.LeagueBonusCap
		}
		if pc.MaxCandidates != nil {
			p.MaxCandidates = *pc.MaxCandidates
		}
	}

	// 最小规范化：保证核心逻辑无需再做防御。
	if p.AcceptThreshold < 1 {
		p.AcceptThreshold = 1
	}
	if p.LeagueTokenMinLen < 1 {
		p.LeagueTokenMinLen = 1
	}
	if p.LeagueTokenWeight < 0 {
		p.LeagueTokenWeight = 0
	}
	if p.LeagueBonusCap < 0 {
		p.LeagueBonusCap = 0
	}
	if p.MaxCandidates < 1 {
		p.MaxCandidates = 1
	}
	if p.MaxCandidates > 100 {
		p.MaxCandidates = 100
	}
	return p
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url 无效：%q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url 必须是 http/https：%q", raw)
	}
	return nil
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// envBool 读取布尔环境变量；无法识别的值退回 fallback。
func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return fallback
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
