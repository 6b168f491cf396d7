package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/John-Robertt/wdfilms/internal/app/run"
	"github.com/John-Robertt/wdfilms/internal/config"
	"github.com/John-Robertt/wdfilms/internal/logx"
)

// rootOptions 保存 flag 的原始值；是否显式指定由 cmd.Flags().Changed 判断。
type rootOptions struct {
	configPath string
	endpoint   string
	output     string
	input      string
	timeout    time.Duration
	limit      int
	since      string
	languages  []string
	verbose    bool
}

func newRootCommand(stdout, stderr io.Writer, getwd func() (string, error)) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wdfilms",
		Short: "从 Wikidata 抓取电影元数据并写入 movies.json",
		Long: `wdfilms 向 SPARQL endpoint 发送一次固定的电影查询，
把结果展开为 11 个固定字段的记录，并整体写入一个 JSON 文件（覆盖旧内容）。

不带任何参数运行即为默认行为：
  endpoint: https://query.wikidata.org/sparql
  输出:     ./movies.json

配置优先级：命令行 > 环境变量（含 ./.env）> wdfilms.yaml > 默认值。`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{msg: fmt.Sprintf("不接受位置参数：%q", args)}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, stdout, stderr, getwd)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "配置文件路径（默认读取 ./"+config.FileName+"，不存在则忽略）")
	f.StringVar(&opts.endpoint, "endpoint", "", "SPARQL endpoint URL")
	f.StringVarP(&opts.output, "out", "o", "", "输出文件路径（默认 ./"+config.DefaultOutput+"）")
	f.StringVarP(&opts.input, "input", "i", "", "从本地 SPARQL JSON 结果文件读取，不访问 endpoint")
	f.DurationVar(&opts.timeout, "timeout", 0, "请求总超时（默认 20s）")
	f.IntVar(&opts.limit, "limit", 0, "结果条数上限（默认 100）")
	f.StringVar(&opts.since, "since", "", "releaseDate 下界 YYYY-MM-DD（默认 2005-01-01）")
	f.StringSliceVar(&opts.languages, "lang", nil, "label 语言回退链，逗号分隔（默认 [AUTO_LANGUAGE],en）")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "输出 debug 日志")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *rootOptions, stdout, stderr io.Writer, getwd func() (string, error)) error {
	cwd, err := getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}

	changed := cmd.Flags().Changed
	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath:   opts.configPath,
		Endpoint:     opts.endpoint,
		EndpointSet:  changed("endpoint"),
		Output:       opts.output,
		OutputSet:    changed("out"),
		Input:        opts.input,
		InputSet:     changed("input"),
		Timeout:      opts.timeout,
		TimeoutSet:   changed("timeout"),
		Limit:        opts.limit,
		LimitSet:     changed("limit"),
		Since:        opts.since,
		SinceSet:     changed("since"),
		Languages:    opts.languages,
		LanguagesSet: changed("lang"),
		Verbose:      opts.verbose,
	})
	if err != nil {
		return err
	}

	logger := logx.New(logx.Options{
		Verbose: eff.Verbose,
		Color:   isTTY(stderr),
		Output:  zapcore.AddSync(stderr),
	})
	defer logx.Sync(logger)

	obs := &logObserver{log: logger}
	rr, err := run.Execute(cmd.Context(), eff, run.Deps{}, obs)
	if err != nil {
		obs.log.Error("运行失败",
			zap.String("error_kind", string(rr.ErrorKind)),
			zap.Error(err),
			zap.Duration("elapsed", rr.Duration()),
		)
		return err
	}
	obs.log.Debug("运行完成",
		zap.Int("records", rr.Records),
		zap.Duration("elapsed", rr.Duration()),
	)

	fmt.Fprintf(stdout, "Data saved in %s\n", displayPath(cwd, eff.Output))
	return nil
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func joinLangs(langs []string) string { return strings.Join(langs, ",") }
