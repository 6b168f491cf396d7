package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// ParentError 表示目标文件的父目录不存在或不是目录。
// 按契约：不隐式创建父目录，直接失败。
type ParentError struct {
	Dir string
	Err error
}

func (e *ParentError) Error() string {
	return fmt.Sprintf("父目录不可用：%q：%v", e.Dir, e.Err)
}

func (e *ParentError) Unwrap() error { return e.Err }

var errNotDir = errors.New("not a directory")

// WriteFileReplace 原子写入 path（同目录临时文件 + rename），覆盖已存在的同名文件。
//
// - 父目录必须已存在；不存在时返回 *ParentError（Unwrap 为 os.ErrNotExist）
// - path 是目录时返回 *PathTypeConflictError
// - 失败时旧文件保持不变，临时文件被清理
func WriteFileReplace(path string, data []byte) error {
	path = filepath.Clean(path)
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return &PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return &ParentError{Dir: dir, Err: err}
	}
	if !fi.IsDir() {
		return &ParentError{Dir: dir, Err: errNotDir}
	}

	if fi, err := os.Lstat(path); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	return writeFileAtomic(dir, name, data, 0o644)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	dst := filepath.Join(dir, name)

	// 同目录临时文件（前缀带 '.'），保证 rename 不跨文件系统。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := renameFunc(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
