package main

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/wdfilms/internal/app/run"
	"github.com/John-Robertt/wdfilms/internal/config"
)

var _ run.Observer = (*logObserver)(nil)

// logObserver 把运行事件写成结构化日志（stderr）。
type logObserver struct {
	log *zap.Logger
}

func (o *logObserver) OnStart(runID string, eff config.EffectiveConfig) {
	o.log = o.log.With(zap.String("run_id", runID))

	fields := []zap.Field{
		zap.String("output", eff.Output),
		zap.Int("limit", eff.Limit),
		zap.String("since", eff.Since.Format("2006-01-02")),
		zap.String("languages", joinLangs(eff.Languages)),
	}
	if eff.Input != "" {
		fields = append(fields, zap.String("input", eff.Input))
	} else {
		fields = append(fields,
			zap.String("endpoint", eff.Endpoint),
			zap.Duration("timeout", eff.Timeout),
		)
		if eff.ProxyURL != "" {
			fields = append(fields, zap.String("proxy", eff.ProxyURL))
		}
	}
	if eff.ConfigFile != "" {
		fields = append(fields, zap.String("config", eff.ConfigFile))
	}
	o.log.Info("开始运行", fields...)
}

func (o *logObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys)+2)
	zf = append(zf, zap.String("phase", name))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	zf = append(zf, zap.Duration("dur", dur))
	o.log.Info("阶段完成", zf...)
}
