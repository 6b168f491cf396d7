package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/wdfilms/internal/config"
	"github.com/John-Robertt/wdfilms/internal/domain"
)

// 退出码。
const (
	exitOK      = 0
	exitFailure = 1 // query/malformed/io 等运行失败
	exitUsage   = 2 // 参数或配置错误
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr, os.Getwd))
}

// execute 运行根命令并把 error 映射为退出码；错误信息只写 stderr 一行。
func execute(args []string, stdout, stderr io.Writer, getwd func() (string, error)) int {
	cmd := newRootCommand(stdout, stderr, getwd)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "错误：%v\n", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if config.Code(err) != "" {
		return exitUsage
	}
	if domain.KindOf(err) != "" {
		return exitFailure
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitFailure
}

// usageError 标记由本程序自身判定的参数错误。
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// displayPath 在目标位于 cwd 内时显示相对路径（例如 movies.json），否则显示绝对路径。
func displayPath(cwd, p string) string {
	rel, err := filepath.Rel(cwd, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}
