package domain

import "time"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunReport 记录一次运行的结果摘要（用于日志与上层展示）。
type RunReport struct {
	RunID string `json:"run_id"`

	// Source 是数据来源：endpoint URL，或 --input 指定的本地结果文件。
	Source string `json:"source"`
	Output string `json:"output"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorKind Kind   `json:"error_kind,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`

	Bindings int `json:"bindings"`
	Records  int `json:"records"`
}

// Finalize 统一时间为 UTC，并按 err 写入状态字段。
func (r *RunReport) Finalize(err error) {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if err == nil {
		r.Status = StatusOK
		r.ErrorKind = ""
		r.ErrorMsg = ""
		return
	}
	r.Status = StatusFailed
	r.ErrorKind = KindOf(err)
	r.ErrorMsg = err.Error()
}

// Duration 返回运行耗时；未结束时返回 0。
func (r RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
