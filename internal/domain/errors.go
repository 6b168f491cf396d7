package domain

import (
	"errors"
	"fmt"
)

// Kind 是流水线错误的稳定分类（也用于 CLI 的错误输出）。
type Kind string

const (
	// KindQuery：endpoint 不可达、非 2xx、或返回体无法解析。
	KindQuery Kind = "query_failed"
	// KindMalformed：结果缺少 results.bindings 结构。
	KindMalformed Kind = "malformed_result"
	// KindIO：目标文件不可写。
	KindIO Kind = "io_failed"
)

// Error 是流水线阶段的结构化错误。
type Error struct {
	Kind Kind
	Op   string // 出错的位置，例如 endpoint URL 或目标路径
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s：%s：%v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s：%v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s：%s", e.Kind, e.Op)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf 从 error 链中提取 Kind；不是 *Error 时返回空串。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind 判断 err 链中是否存在指定 Kind 的 *Error。
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
