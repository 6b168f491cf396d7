// Package persist 把 Movie 列表写成缩进 JSON 文件。
package persist

import (
	"bytes"
	"encoding/json"

	"github.com/John-Robertt/wdfilms/internal/domain"
	"github.com/John-Robertt/wdfilms/internal/infra/fsx"
)

const indent = "    "

// Encode 把记录编码为 4 空格缩进的 JSON 数组。
//
// - 字段顺序即 domain.Movie 的声明顺序，记录顺序保持不变
// - 不转义 <、>、&；不追加尾部换行
// - nil 与空切片都输出 []
func Encode(records []domain.Movie) ([]byte, error) {
	if records == nil {
		records = []domain.Movie{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Persist 把记录整体写入 path，覆盖已有内容。
// 父目录不存在、目标是目录或写入失败时返回 Kind=io_failed 的 *domain.Error。
func Persist(records []domain.Movie, path string) error {
	b, err := Encode(records)
	if err != nil {
		return &domain.Error{Kind: domain.KindIO, Op: path, Err: err}
	}
	if err := fsx.WriteFileReplace(path, b); err != nil {
		return &domain.Error{Kind: domain.KindIO, Op: path, Err: err}
	}
	return nil
}
