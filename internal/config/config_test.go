package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/John-Robertt/wdfilms/internal/infra/httpx"
	"github.com/John-Robertt/wdfilms/internal/sparql"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := Load(cwd, CLIArgs{}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != "" {
		t.Fatalf("不应读取配置文件，实际 %q", eff.ConfigFile)
	}
	if eff.Endpoint != sparql.DefaultEndpoint {
		t.Fatalf("endpoint 默认值不正确：%q", eff.Endpoint)
	}
	if want := filepath.Join(cwd, DefaultOutput); eff.Output != want {
		t.Fatalf("期望 output=%q，实际=%q", want, eff.Output)
	}
	if eff.Input != "" {
		t.Fatalf("默认不应有 input：%q", eff.Input)
	}
	if eff.Timeout != httpx.DefaultTimeout || eff.UserAgent != httpx.DefaultUserAgent {
		t.Fatalf("http 默认值不正确：timeout=%v ua=%q", eff.Timeout, eff.UserAgent)
	}
	if eff.Limit != sparql.DefaultLimit || !eff.Since.Equal(sparql.DefaultCutoff) {
		t.Fatalf("查询默认值不正确：limit=%d since=%v", eff.Limit, eff.Since)
	}
	if !reflect.DeepEqual(eff.Languages, []string{"[AUTO_LANGUAGE]", "en"}) {
		t.Fatalf("语言默认值不正确：%v", eff.Languages)
	}
	if eff.FilmQuery().String() != sparql.DefaultFilmQuery().String() {
		t.Fatalf("默认配置应得到默认查询")
	}
}

func TestLoad_ConfigFileDiscovered(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`
endpoint: https://example.org/sparql
out: data/films.json
proxy:
  url: http://127.0.0.1:7890
timeout: 45s
user_agent: my-agent/0.1
limit: 20
since: "2010-03-04"
languages: [de, en]
`))

	eff, err := Load(cwd, CLIArgs{}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != filepath.Join(cwd, FileName) {
		t.Fatalf("ConfigFile 不正确：%q", eff.ConfigFile)
	}
	if eff.Endpoint != "https://example.org/sparql" {
		t.Fatalf("endpoint 不正确：%q", eff.Endpoint)
	}
	if want := filepath.Join(cwd, "data", "films.json"); eff.Output != want {
		t.Fatalf("期望 output=%q，实际=%q", want, eff.Output)
	}
	if eff.ProxyURL != "http://127.0.0.1:7890" || eff.Timeout != 45*time.Second || eff.UserAgent != "my-agent/0.1" {
		t.Fatalf("http 配置不正确：%+v", eff)
	}
	if eff.Limit != 20 {
		t.Fatalf("limit 不正确：%d", eff.Limit)
	}
	if want := time.Date(2010, 3, 4, 0, 0, 0, 0, time.UTC); !eff.Since.Equal(want) {
		t.Fatalf("since 不正确：%v", eff.Since)
	}
	if !reflect.DeepEqual(eff.Languages, []string{"de", "en"}) {
		t.Fatalf("languages 不正确：%v", eff.Languages)
	}
}

func TestLoad_MergeOrder_CLIOverEnvOverFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte("endpoint: https://file.example/sparql\nout: file.json\ntimeout: 5s\nlimit: 7\n"))
	env := envOf(map[string]string{
		EnvEndpoint: "https://env.example/sparql",
		EnvOut:      "env.json",
		EnvTimeout:  "9s",
	})

	// 只有环境变量：覆盖配置文件。
	eff, err := Load(cwd, CLIArgs{}, env)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Endpoint != "https://env.example/sparql" || eff.Output != filepath.Join(cwd, "env.json") || eff.Timeout != 9*time.Second {
		t.Fatalf("环境变量应覆盖配置文件：%+v", eff)
	}
	if eff.Limit != 7 {
		t.Fatalf("未被覆盖的字段应来自配置文件：limit=%d", eff.Limit)
	}

	// CLI 显式指定：覆盖环境变量。
	eff, err = Load(cwd, CLIArgs{
		Endpoint: "https://cli.example/sparql", EndpointSet: true,
		Output: "cli.json", OutputSet: true,
		Timeout: 3 * time.Second, TimeoutSet: true,
		Limit: 1, LimitSet: true,
	}, env)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Endpoint != "https://cli.example/sparql" || eff.Output != filepath.Join(cwd, "cli.json") || eff.Timeout != 3*time.Second || eff.Limit != 1 {
		t.Fatalf("CLI 应覆盖环境变量与配置文件：%+v", eff)
	}
}

func TestLoad_ExplicitConfigMissing(t *testing.T) {
	cwd := t.TempDir()

	_, err := Load(cwd, CLIArgs{ConfigPath: "nope.yaml"}, noEnv)
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoad_ExplicitConfigRelativePathsFromFileDir(t *testing.T) {
	cwd := t.TempDir()
	cfgDir := filepath.Join(cwd, "conf")
	writeFile(t, filepath.Join(cfgDir, "custom.yaml"), []byte("out: out/m.json\ninput: saved.json\n"))

	eff, err := Load(cwd, CLIArgs{ConfigPath: "conf/custom.yaml"}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(cfgDir, "out", "m.json"); eff.Output != want {
		t.Fatalf("期望 output=%q，实际=%q", want, eff.Output)
	}
	if want := filepath.Join(cfgDir, "saved.json"); eff.Input != want {
		t.Fatalf("期望 input=%q，实际=%q", want, eff.Input)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte("limit: [1, 2\n"))

	_, err := Load(cwd, CLIArgs{}, noEnv)
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		file string
		cli  CLIArgs
		env  map[string]string
	}{
		{name: "endpoint scheme", cli: CLIArgs{Endpoint: "ftp://x/sparql", EndpointSet: true}},
		{name: "endpoint host", file: "endpoint: https:///sparql\n"},
		{name: "proxy url", env: map[string]string{EnvProxyURL: "127.0.0.1:7890"}},
		{name: "timeout zero", cli: CLIArgs{Timeout: 0, TimeoutSet: true}},
		{name: "timeout env", env: map[string]string{EnvTimeout: "soon"}},
		{name: "timeout file", file: "timeout: -1s\n"},
		{name: "limit low", cli: CLIArgs{Limit: 0, LimitSet: true}},
		{name: "limit high", file: "limit: 10001\n"},
		{name: "since", cli: CLIArgs{Since: "2005/01/01", SinceSet: true}},
		{name: "language", cli: CLIArgs{Languages: []string{"en", "not a tag"}, LanguagesSet: true}},
		{name: "languages empty", cli: CLIArgs{Languages: []string{" "}, LanguagesSet: true}},
		{name: "out empty", cli: CLIArgs{Output: " ", OutputSet: true}},
		{name: "input equals output", cli: CLIArgs{Input: "movies.json", InputSet: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwd := t.TempDir()
			if tc.file != "" {
				writeFile(t, filepath.Join(cwd, FileName), []byte(tc.file))
			}
			_, err := Load(cwd, tc.cli, envOf(tc.env))
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestLoad_LanguagesDedupAndKeepCase(t *testing.T) {
	eff, err := Load(t.TempDir(), CLIArgs{
		Languages:    []string{"[AUTO_LANGUAGE]", "zh-hans", " en ", "en"},
		LanguagesSet: true,
	}, noEnv)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{"[AUTO_LANGUAGE]", "zh-hans", "en"}
	if !reflect.DeepEqual(eff.Languages, want) {
		t.Fatalf("期望 %v，实际 %v", want, eff.Languages)
	}
}

func TestLoadEffective_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DotEnvName), []byte("WDFILMS_ENDPOINT=https://dotenv.example/sparql\nWDFILMS_OUT=from-dotenv.json\n"))
	t.Setenv(EnvOut, "from-process.json")
	// 保证外部环境不会干扰断言。
	t.Setenv(EnvEndpoint, "")

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(cwd, "from-process.json"); eff.Output != want {
		t.Fatalf("进程环境应优先：期望 %q，实际 %q", want, eff.Output)
	}
	// 进程环境中的空值视为未设置，回退到默认值（.env 不覆盖已存在的变量）。
	if eff.Endpoint != sparql.DefaultEndpoint {
		t.Fatalf("期望默认 endpoint，实际 %q", eff.Endpoint)
	}
}

func TestLoadEffective_DotEnvFillsMissing(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DotEnvName), []byte("WDFILMS_USER_AGENT=dotenv-agent/1.0\n"))
	if _, ok := os.LookupEnv(EnvUserAgent); ok {
		t.Skipf("%s 已在进程环境中设置", EnvUserAgent)
	}

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.UserAgent != "dotenv-agent/1.0" {
		t.Fatalf("期望 .env 中的 UA，实际 %q", eff.UserAgent)
	}
	if _, ok := os.LookupEnv(EnvUserAgent); ok {
		t.Fatalf("读取 .env 不应写入进程环境")
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
