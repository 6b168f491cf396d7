package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/wdfilms/internal/infra/httpx"
	"github.com/John-Robertt/wdfilms/internal/sparql"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件/环境变量/参数无法解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是 cwd 下自动发现的配置文件名（可选）。
	FileName = "wdfilms.yaml"
	// DotEnvName 是 cwd 下自动读取的环境变量文件（可选）。
	DotEnvName = ".env"
	// DefaultOutput 是默认输出文件名（相对 cwd）。
	DefaultOutput = "movies.json"

	MaxLimit = 10000
)

// 环境变量名（均为可选）。
const (
	EnvEndpoint  = "WDFILMS_ENDPOINT"
	EnvOut       = "WDFILMS_OUT"
	EnvProxyURL  = "WDFILMS_PROXY_URL"
	EnvTimeout   = "WDFILMS_TIMEOUT"
	EnvUserAgent = "WDFILMS_USER_AGENT"
)

const sinceLayout = "2006-01-02"

// CLIArgs 是 CLI 暴露的入口，并保留“是否显式指定”的信息，
// 保证覆盖优先级可实现（例如 --limit 必须能覆盖配置文件中的 limit）。
type CLIArgs struct {
	ConfigPath string

	Endpoint    string
	EndpointSet bool

	Output    string
	OutputSet bool

	Input    string
	InputSet bool

	Timeout    time.Duration
	TimeoutSet bool

	Limit    int
	LimitSet bool

	Since    string
	SinceSet bool

	Languages    []string
	LanguagesSet bool

	Verbose bool
}

// FileConfig 对应 wdfilms.yaml 的解析结构。
type FileConfig struct {
	Endpoint  string       `yaml:"endpoint"`
	Out       string       `yaml:"out"`
	Input     string       `yaml:"input"`
	Proxy     *ProxyConfig `yaml:"proxy"`
	Timeout   string       `yaml:"timeout"`
	UserAgent string       `yaml:"user_agent"`
	Limit     int          `yaml:"limit"`
	Since     string       `yaml:"since"`
	Languages []string     `yaml:"languages"`
}

type ProxyConfig struct {
	URL string `yaml:"url"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigFile 是实际读取的配置文件（未读取时为空）。
	ConfigFile string

	Endpoint string
	// Output 是输出文件的绝对路径。
	Output string
	// Input 非空时从本地结果文件读取，不访问 endpoint（绝对路径）。
	Input string

	ProxyURL  string
	Timeout   time.Duration
	UserAgent string

	Limit     int
	Since     time.Time
	Languages []string

	Verbose bool
}

// FilmQuery 返回本次运行使用的查询参数。
func (e EffectiveConfig) FilmQuery() sparql.FilmQuery {
	return sparql.FilmQuery{
		Cutoff:    e.Since,
		Limit:     e.Limit,
		Languages: append([]string(nil), e.Languages...),
	}
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path != "" && e.Err != nil {
			return fmt.Sprintf("%s：%s 无效：%v", e.Code, e.Path, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
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

// LookupFunc 与 os.LookupEnv 同签名，便于测试注入。
type LookupFunc func(key string) (string, bool)

// LoadEffective 读取 <cwd>/.env、配置文件与进程环境，并与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/wdfilms.yaml（可选）
//
// 覆盖优先级（固定）：CLI > 环境变量 > 配置文件 > 默认值。
// .env 中的变量只在进程环境未设置同名变量时生效。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	dotPath := filepath.Join(cwdAbs, DotEnvName)
	dot, err := readDotEnv(dotPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: dotPath, Err: err}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dot[key]
		return v, ok
	}
	return Load(cwdAbs, cli, lookup)
}

// Load 与 LoadEffective 相同，但环境变量来源由调用方提供（不读取 .env）。
func Load(cwd string, cli CLIArgs, lookup LookupFunc) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	var (
		cfgPath string
		fc      FileConfig
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		p := filepath.Join(cwdAbs, FileName)
		var exists bool
		fc, exists, err = readFileConfig(p)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
		}
		if exists {
			cfgPath = p
		}
	}

	// 配置文件中的相对路径以配置文件所在目录为基准；CLI/环境变量以 cwd 为基准。
	fileBase := cwdAbs
	if cfgPath != "" {
		fileBase = filepath.Dir(cfgPath)
	}
	return merge(cwdAbs, fileBase, cli, fc, cfgPath, lookup)
}

func merge(cwdAbs, fileBase string, cli CLIArgs, fc FileConfig, cfgPath string, lookup LookupFunc) (EffectiveConfig, error) {
	invalid := func(src string, err error) error {
		return &Error{Code: ErrCodeInvalid, Path: src, Err: err}
	}
	fileSrc := cfgPath

	// endpoint：CLI > env > config > 默认
	endpoint, endpointSrc := sparql.DefaultEndpoint, "default"
	if cli.EndpointSet {
		endpoint, endpointSrc = cli.Endpoint, "--endpoint"
	} else if v, ok := lookupNonEmpty(lookup, EnvEndpoint); ok {
		endpoint, endpointSrc = v, EnvEndpoint
	} else if strings.TrimSpace(fc.Endpoint) != "" {
		endpoint, endpointSrc = fc.Endpoint, fileSrc
	}
	endpoint = strings.TrimSpace(endpoint)
	if err := validateHTTPURL(endpoint); err != nil {
		return EffectiveConfig{}, invalid(endpointSrc, fmt.Errorf("endpoint %w", err))
	}

	// out：CLI > env > config > 默认（相对路径按来源选择基准目录）
	output := filepath.Join(cwdAbs, DefaultOutput)
	if cli.OutputSet {
		if strings.TrimSpace(cli.Output) == "" {
			return EffectiveConfig{}, invalid("--out", errors.New("不能为空"))
		}
		output = absCleanFrom(cwdAbs, cli.Output)
	} else if v, ok := lookupNonEmpty(lookup, EnvOut); ok {
		output = absCleanFrom(cwdAbs, v)
	} else if strings.TrimSpace(fc.Out) != "" {
		output = absCleanFrom(fileBase, fc.Out)
	}

	input := ""
	if cli.InputSet {
		if strings.TrimSpace(cli.Input) == "" {
			return EffectiveConfig{}, invalid("--input", errors.New("不能为空"))
		}
		input = absCleanFrom(cwdAbs, cli.Input)
	} else if strings.TrimSpace(fc.Input) != "" {
		input = absCleanFrom(fileBase, fc.Input)
	}
	if input != "" && input == output {
		return EffectiveConfig{}, invalid("--input", fmt.Errorf("输入与输出不能是同一个文件：%q", input))
	}

	proxyURL, proxySrc := "", ""
	if v, ok := lookupNonEmpty(lookup, EnvProxyURL); ok {
		proxyURL, proxySrc = v, EnvProxyURL
	} else if fc.Proxy != nil {
		proxyURL, proxySrc = strings.TrimSpace(fc.Proxy.URL), fileSrc
	}
	if proxyURL != "" {
		if err := validateHTTPURL(proxyURL); err != nil {
			return EffectiveConfig{}, invalid(proxySrc, fmt.Errorf("proxy.url %w", err))
		}
	}

	timeout := httpx.DefaultTimeout
	if cli.TimeoutSet {
		timeout = cli.Timeout
		if timeout <= 0 {
			return EffectiveConfig{}, invalid("--timeout", fmt.Errorf("必须大于 0，实际 %v", timeout))
		}
	} else if v, ok := lookupNonEmpty(lookup, EnvTimeout); ok {
		d, err := parsePositiveDuration(v)
		if err != nil {
			return EffectiveConfig{}, invalid(EnvTimeout, err)
		}
		timeout = d
	} else if strings.TrimSpace(fc.Timeout) != "" {
		d, err := parsePositiveDuration(fc.Timeout)
		if err != nil {
			return EffectiveConfig{}, invalid(fileSrc, fmt.Errorf("timeout %w", err))
		}
		timeout = d
	}

	userAgent := httpx.DefaultUserAgent
	if v, ok := lookupNonEmpty(lookup, EnvUserAgent); ok {
		userAgent = v
	} else if strings.TrimSpace(fc.UserAgent) != "" {
		userAgent = strings.TrimSpace(fc.UserAgent)
	}

	limit, limitSrc := sparql.DefaultLimit, "default"
	if cli.LimitSet {
		limit, limitSrc = cli.Limit, "--limit"
	} else if fc.Limit != 0 {
		limit, limitSrc = fc.Limit, fileSrc
	}
	if limit < 1 || limit > MaxLimit {
		return EffectiveConfig{}, invalid(limitSrc, fmt.Errorf("limit 必须在 [1, %d] 内，实际 %d", MaxLimit, limit))
	}

	since := sparql.DefaultCutoff
	if cli.SinceSet {
		t, err := parseSince(cli.Since)
		if err != nil {
			return EffectiveConfig{}, invalid("--since", err)
		}
		since = t
	} else if strings.TrimSpace(fc.Since) != "" {
		t, err := parseSince(fc.Since)
		if err != nil {
			return EffectiveConfig{}, invalid(fileSrc, fmt.Errorf("since %w", err))
		}
		since = t
	}

	langs, langSrc := sparql.DefaultLanguages, "default"
	if cli.LanguagesSet {
		langs, langSrc = cli.Languages, "--lang"
	} else if len(fc.Languages) > 0 {
		langs, langSrc = fc.Languages, fileSrc
	}
	langs, err := normalizeLanguages(langs)
	if err != nil {
		return EffectiveConfig{}, invalid(langSrc, err)
	}

	return EffectiveConfig{
		ConfigFile: cfgPath,
		Endpoint:   endpoint,
		Output:     output,
		Input:      input,
		ProxyURL:   proxyURL,
		Timeout:    timeout,
		UserAgent:  userAgent,
		Limit:      limit,
		Since:      since,
		Languages:  langs,
		Verbose:    cli.Verbose,
	}, nil
}

func lookupNonEmpty(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("无效：%w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("必须是 http/https：%q", s)
	}
	if u.Host == "" {
		return fmt.Errorf("缺少 host：%q", s)
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("无效的时长 %q：%w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("时长必须大于 0，实际 %q", s)
	}
	return d, nil
}

func parseSince(s string) (time.Time, error) {
	t, err := time.ParseInLocation(sinceLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期必须形如 YYYY-MM-DD，实际 %q", s)
	}
	return t, nil
}

// normalizeLanguages 校验 label 语言列表：[AUTO_LANGUAGE] 或 BCP 47 标签。
// 保留原始大小写（wikibase 的语言代码多为小写，例如 zh-hans）。
func normalizeLanguages(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		l := strings.TrimSpace(raw)
		if l == "" {
			continue
		}
		if l != sparql.AutoLanguage {
			if _, err := language.Parse(l); err != nil {
				return nil, fmt.Errorf("无效的语言标签 %q：%w", l, err)
			}
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, errors.New("语言列表不能为空")
	}
	return out, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// readDotEnv 解析 .env 为 map，不修改进程环境。
func readDotEnv(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return m, nil
}
