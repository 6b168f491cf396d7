package sparql

import (
	"fmt"
	"strings"
)

// HTTPStatusError 表示 endpoint 返回了非 2xx 的 HTTP 状态码。
// Message 是从响应体提取的简短说明（可能为空）。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}
