package run

import (
	"time"

	"github.com/John-Robertt/wdfilms/internal/config"
)

// 阶段名（OnPhaseDone 的 name）。
const (
	PhaseQuery   = "query"
	PhaseFlatten = "flatten"
	PhasePersist = "persist"
)

// Observer 用于把“运行阶段”从核心执行流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何输出（stdout 只留给确认行）。
type Observer interface {
	// OnStart 在 Execute 开始时调用。
	OnStart(runID string, eff config.EffectiveConfig)
	// OnPhaseDone 在阶段成功结束时调用（失败的阶段不会触发）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
}
